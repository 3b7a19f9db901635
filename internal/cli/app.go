package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"study-quiz/internal/auth"
	"study-quiz/internal/domain"
	"study-quiz/internal/logger"
	"study-quiz/internal/service"
	"study-quiz/internal/validation"

	"go.uber.org/zap"
)

const prompt = "quiz> "

// App is the terminal front end over one controller and one credential.
type App struct {
	provider  *auth.Provider
	ctrl      service.SessionController
	validator *validation.Validator
	out       io.Writer
}

func NewApp(provider *auth.Provider, ctrl service.SessionController, validator *validation.Validator, out io.Writer) *App {
	a := &App{provider: provider, ctrl: ctrl, validator: validator, out: out}
	ctrl.OnUnauthenticated(func() {
		if err := provider.Logout(context.Background()); err != nil {
			logger.Get().Warn("CLI: failed to clear stored credential", zap.Error(err))
		}
		fmt.Fprintln(out, "You are signed out. Use: login <email> <password>")
	})
	return a
}

// Run reads commands from in until exit or EOF.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	if identity := a.provider.Identity(); a.provider.IsAuthenticated() {
		fmt.Fprintf(a.out, "Signed in as %s.\n", displayName(identity))
	} else {
		fmt.Fprintln(a.out, "Not signed in. Use: login <email> <password>")
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]
		if cmd == "exit" || cmd == "quit" {
			return nil
		}
		if err := a.dispatch(ctx, cmd, args); err != nil {
			fmt.Fprintf(a.out, "error: %s\n", describe(err))
		}
	}
}

func (a *App) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		printHelp(a.out)
		return nil
	case "login":
		if len(args) != 2 {
			return errors.New("usage: login <email> <password>")
		}
		if err := a.provider.Login(ctx, domain.Credentials{Email: args[0], Password: args[1]}); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Signed in as %s.\n", displayName(a.provider.Identity()))
		return nil
	case "logout":
		a.ctrl.Reset()
		if err := a.provider.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Signed out.")
		return nil
	case "upload":
		if len(args) != 1 {
			return errors.New("usage: upload <path>")
		}
		doc, err := a.readDocument(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Uploading %s, generating the quiz...\n", doc.Name)
		if err := a.ctrl.SubmitDocument(ctx, doc); err != nil {
			return err
		}
		a.printProgress()
		return nil
	case "open":
		if len(args) != 1 {
			return errors.New("usage: open <section_id>")
		}
		if err := a.ctrl.LoadSection(ctx, args[0]); err != nil {
			return err
		}
		a.printProgress()
		return nil
	case "resume":
		if err := a.ctrl.ResumeLast(ctx); err != nil {
			return err
		}
		a.printProgress()
		return nil
	case "answer":
		if len(args) != 1 {
			return errors.New("usage: answer <A-D>")
		}
		return a.answer(args[0])
	case "next":
		if err := a.ctrl.Advance(); err != nil {
			return err
		}
		a.printProgress()
		return nil
	case "prev":
		if err := a.ctrl.Retreat(); err != nil {
			return err
		}
		a.printProgress()
		return nil
	case "explain":
		fmt.Fprintln(a.out, "Submitting answers and fetching explanations...")
		if err := a.ctrl.RequestExplanations(ctx); err != nil {
			return err
		}
		printExplanations(a.out, a.ctrl.View())
		return nil
	case "topics":
		fmt.Fprintln(a.out, "Fetching topics...")
		if err := a.ctrl.RequestTopics(ctx); err != nil {
			return err
		}
		printTopics(a.out, a.ctrl.View())
		return nil
	case "status":
		a.printStatus()
		return nil
	case "reset":
		a.ctrl.Reset()
		fmt.Fprintln(a.out, "Session discarded.")
		return nil
	default:
		return fmt.Errorf("unknown command %q, type help for the list", cmd)
	}
}

// readDocument reads at most one byte past the ceiling so oversized files are
// rejected by the controller without loading them whole.
func (a *App) readDocument(path string) (domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, a.validator.MaxUploadBytes()+1))
	if err != nil {
		return domain.Document{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return domain.Document{
		Name:         filepath.Base(path),
		DeclaredType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:         data,
	}, nil
}

func (a *App) answer(raw string) error {
	opt, err := a.validator.ValidateOption(raw)
	if err != nil {
		return err
	}
	view := a.ctrl.View()
	feedback, err := a.ctrl.SelectAnswer(view.CurrentIndex, opt)
	if err != nil {
		return err
	}
	switch {
	case !feedback.Recorded:
		fmt.Fprintf(a.out, "Already answered %s.\n", feedback.Selected)
	case feedback.Correct:
		fmt.Fprintln(a.out, "Correct!")
	default:
		fmt.Fprintf(a.out, "Wrong. Correct answer was %s.\n", feedback.Answer)
	}
	return nil
}

func (a *App) printProgress() {
	view := a.ctrl.View()
	switch view.State {
	case domain.StateAnswering:
		printQuestion(a.out, view)
	case domain.StateFinalScore:
		printScore(a.out, view)
	case domain.StateExplanationsShown:
		fmt.Fprintln(a.out, "This quiz was already taken.")
		printExplanations(a.out, view)
	default:
		a.printStatus()
	}
}

func (a *App) printStatus() {
	view := a.ctrl.View()
	fmt.Fprintf(a.out, "State: %s", view.State)
	if view.SectionID != "" {
		fmt.Fprintf(a.out, " | section %s", view.SectionID)
	}
	if view.Total > 0 {
		fmt.Fprintf(a.out, " | question %d/%d | answered %d", view.CurrentIndex+1, view.Total, len(view.Answers))
	}
	fmt.Fprintln(a.out)
	if view.LastError != nil {
		fmt.Fprintf(a.out, "Last error: %s\n", view.LastError.Message)
	}
}

func printQuestion(out io.Writer, view domain.SessionView) {
	q := view.Current
	if q == nil {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d/%d: %s\n\n", q.Number, view.Total, q.Prompt)
	for _, opt := range domain.AllOptions {
		text, ok := q.Options[opt]
		if !ok {
			continue
		}
		marker := " "
		if q.Selected == opt {
			marker = "*"
		}
		fmt.Fprintf(out, "%s%s. %s\n", marker, opt, text)
	}
	fmt.Fprintln(out)
}

func printScore(out io.Writer, view domain.SessionView) {
	if view.Score == nil {
		return
	}
	fmt.Fprintf(out, "\nFinal score: %d/%d (%d%%)\n", view.Score.Correct, view.Score.Total, view.Score.Percentage)
	fmt.Fprintln(out, view.Score.Feedback)
	for _, item := range view.Review {
		mark := "x"
		if item.IsRight {
			mark = "v"
		}
		fmt.Fprintf(out, "  [%s] Q%d you: %s correct: %s\n", mark, item.Number, orDash(item.Selected), item.Correct)
	}
	fmt.Fprintln(out, "Type explain to see why.")
}

func printExplanations(out io.Writer, view domain.SessionView) {
	for _, item := range view.Explanations {
		verdict := "wrong"
		if item.Correct {
			verdict = "right"
		}
		fmt.Fprintf(out, "\nQ%d (%s) you: %s correct: %s\n%s\n", item.QuestionNumber, verdict, orDash(item.YourAnswer), item.CorrectAnswer, item.Explanation)
	}
	fmt.Fprintln(out, "\nType topics for a summary of what to study.")
}

func printTopics(out io.Writer, view domain.SessionView) {
	for i, topic := range view.Topics {
		fmt.Fprintf(out, "\n%d. %s\n%s\n", i+1, topic.Title, topic.Explanation)
	}
	fmt.Fprintln(out)
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `Commands:
  login <email> <password>   sign in
  logout                     sign out and discard the session
  upload <path>              upload a PDF and start its quiz
  open <section_id>          open the quiz of an earlier upload
  resume                     open the quiz of the last upload
  answer <A-D>               answer the current question
  next, prev                 move between questions
  explain                    submit answers and show explanations
  topics                     show topics to study
  status                     show where you are
  reset                      discard the session
  exit                       quit

Sign-in and the last upload are kept in the local store between runs.
`)
}

func describe(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

func displayName(identity domain.Identity) string {
	if identity.Username != "" {
		return identity.Username
	}
	if identity.Email != "" {
		return identity.Email
	}
	return "current user"
}

func orDash(opt domain.Option) string {
	if opt == "" {
		return "-"
	}
	return string(opt)
}
