package handler

import (
	"io"

	"study-quiz/internal/domain"
	"study-quiz/internal/dto"
	"study-quiz/internal/logger"
	"study-quiz/internal/middleware"
	"study-quiz/internal/service"
	"study-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionHandler exposes the caller's quiz session over HTTP
type SessionHandler struct {
	validator *validation.Validator
}

// NewSessionHandler creates a new SessionHandler instance
func NewSessionHandler(validator *validation.Validator) *SessionHandler {
	return &SessionHandler{validator: validator}
}

func currentSession(c *fiber.Ctx) (*service.UserSession, error) {
	us := middleware.SessionFrom(c)
	if us == nil {
		return nil, domain.NewUnauthenticatedError("")
	}
	return us, nil
}

func respond(c *fiber.Ctx, us *service.UserSession) error {
	return c.JSON(dto.SessionResponse{Session: us.Controller.View()})
}

// GetSession godoc
// @Summary Get the current session
// @Description Returns a snapshot of the caller's quiz session
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /session [get]
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	us, err := currentSession(c)
	if err != nil {
		return err
	}
	return respond(c, us)
}

// Upload godoc
// @Summary Upload a document
// @Description Uploads a PDF, generates its quiz and opens it at the first question
// @Tags session
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PDF document"
// @Success 200 {object} dto.UploadResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /session/upload [post]
func (h *SessionHandler) Upload(c *fiber.Ctx) error {
	us, err := currentSession(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return domain.NewInvalidInputError("A file must be sent in the \"file\" form field.")
	}
	if fileHeader.Size > h.validator.MaxUploadBytes() {
		return h.validator.OversizeError()
	}

	file, err := fileHeader.Open()
	if err != nil {
		return domain.NewInternalError("Failed to read the uploaded file", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.validator.MaxUploadBytes()+1))
	if err != nil {
		return domain.NewInternalError("Failed to read the uploaded file", err)
	}

	declared := fileHeader.Header.Get(fiber.HeaderContentType)
	if declared == fiber.MIMEOctetStream {
		declared = ""
	}
	doc := domain.Document{
		Name:         fileHeader.Filename,
		DeclaredType: declared,
		Data:         data,
	}

	if err := us.Controller.SubmitDocument(c.UserContext(), doc); err != nil {
		return err
	}

	view := us.Controller.View()
	logger.Get().Info("Document accepted",
		zap.String("section_id", view.SectionID),
		zap.String("filename", fileHeader.Filename),
	)
	return c.JSON(dto.UploadResponse{SectionID: view.SectionID, Session: view})
}

// OpenSection godoc
// @Summary Open a known section
// @Description Loads the quiz of a previously uploaded section
// @Tags session
// @Produce json
// @Security BearerAuth
// @Param id path string true "Section ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /session/sections/{id} [post]
func (h *SessionHandler) OpenSection(c *fiber.Ctx) error {
	us, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := us.Controller.LoadSection(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return respond(c, us)
}

// Resume godoc
// @Summary Resume the last upload
// @Description Loads the quiz of the section uploaded most recently
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /session/resume [post]
func (h *SessionHandler) Resume(c *fiber.Ctx) error {
	us, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := us.Controller.ResumeLast(c.UserContext()); err != nil {
		return err
	}
	return respond(c, us)
}

// SelectAnswer godoc
// @Summary Answer a question
// @Description Records an answer once and returns immediate feedback
// @Tags session
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answer body dto.SelectAnswerRequest true "Answer"
// @Success 200 {object} dto.AnswerResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /session/answers [post]
func (h *SessionHandler) SelectAnswer(c *fiber.Ctx) error {
	us, err := currentSession(c)
	if err != nil {
		return err
	}

	var req dto.SelectAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	opt, err := h.validator.ValidateOption(req.Option)
	if err != nil {
		return err
	}

	feedback, err := us.Controller.SelectAnswer(req.Index, opt)
	if err != nil {
		return err
	}
	return c.JSON(dto.AnswerResponse{Feedback: feedback, Session: us.Controller.View()})
}

// Advance godoc
// @Summary Go to the next question
// @Description Moves forward, or to the final score after the last question
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /session/advance [post]
func (h *SessionHandler) Advance(c *fiber.Ctx) error {
	us, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := us.Controller.Advance(); err != nil {
		return err
	}
	return respond(c, us)
}

// Retreat godoc
// @Summary Go to the previous question
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /session/retreat [post]
func (h *SessionHandler) Retreat(c *fiber.Ctx) error {
	us, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := us.Controller.Retreat(); err != nil {
		return err
	}
	return respond(c, us)
}

// Explanations godoc
// @Summary Submit answers and show explanations
// @Description Submits every answer once, then fetches per-question explanations
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /session/explanations [post]
func (h *SessionHandler) Explanations(c *fiber.Ctx) error {
	us, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := us.Controller.RequestExplanations(c.UserContext()); err != nil {
		return err
	}
	return respond(c, us)
}

// Topics godoc
// @Summary Show topic summaries
// @Description Requests topic generation if needed and fetches the topics
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /session/topics [post]
func (h *SessionHandler) Topics(c *fiber.Ctx) error {
	us, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := us.Controller.RequestTopics(c.UserContext()); err != nil {
		return err
	}
	return respond(c, us)
}

// Reset godoc
// @Summary Discard the session
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Router /session/reset [post]
func (h *SessionHandler) Reset(c *fiber.Ctx) error {
	us, err := currentSession(c)
	if err != nil {
		return err
	}
	us.Controller.Reset()
	return respond(c, us)
}
