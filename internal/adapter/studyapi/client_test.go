package studyapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"study-quiz/internal/config"
	"study-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(config.StudyAPIConfig{BaseURL: server.URL, Paths: config.DefaultPaths()}, server.Client())
}

func TestClient_TransportFailureIsNetworkError(t *testing.T) {
	client := NewClient(config.StudyAPIConfig{BaseURL: "http://example.test"}, &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	})

	_, err := client.FetchQuiz(context.Background(), "tok", "sec-1")
	require.Error(t, err)
	assert.Equal(t, domain.CodeNetworkUnreachable, domain.CodeOf(err))
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    domain.ErrorCode
		wantMessage string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"token expired"}`, domain.CodeUnauthenticated, "token expired"},
		{"forbidden without body", http.StatusForbidden, ``, domain.CodeUnauthenticated, "Please sign in to continue."},
		{"server error with error field", http.StatusBadRequest, `{"error":"Section id is required"}`, domain.CodeServerError, "Section id is required"},
		{"server error with message field", http.StatusInternalServerError, `{"message":"Gemini is down"}`, domain.CodeServerError, "Gemini is down"},
		{"server error without body", http.StatusBadGateway, `<html>bad gateway</html>`, domain.CodeServerError, "The study service failed to process the request (status 502)."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(server).FetchTopics(context.Background(), "tok", "sec-1")
			require.Error(t, err)

			var domainErr *domain.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, tt.wantCode, domainErr.Code)
			assert.Equal(t, tt.wantMessage, domainErr.Message)
		})
	}
}

func TestClient_UploadDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/a/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "notes.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		assert.Equal(t, []byte("%PDF-1.4 body"), data)

		_ = json.NewEncoder(w).Encode(map[string]string{"section_id": "sec-42"})
	}))
	defer server.Close()

	sectionID, err := newTestClient(server).UploadDocument(context.Background(), "tok", domain.Document{
		Name:         "notes.pdf",
		DeclaredType: "application/pdf",
		Data:         []byte("%PDF-1.4 body"),
	})
	require.NoError(t, err)
	assert.Equal(t, "sec-42", sectionID)
}

func TestClient_UploadDocument_MissingSectionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	}))
	defer server.Close()

	_, err := newTestClient(server).UploadDocument(context.Background(), "tok", domain.Document{Name: "a.pdf", Data: []byte("%PDF")})
	assert.Equal(t, domain.CodeMalformedResponse, domain.CodeOf(err))
}

func TestClient_FetchQuiz(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/quiz", r.URL.Path)
		assert.Equal(t, "sec-1", r.URL.Query().Get("section_id"))
		_, _ = io.WriteString(w, `{"quiz":{"ID":"q1","Taken":true,"CreatedBy":"u1","Questions":[
			{"Question":"Capital of France?","A":"Paris","B":"Rome","C":"Berlin","D":"","Answer":"a"}
		]}}`)
	}))
	defer server.Close()

	quiz, err := newTestClient(server).FetchQuiz(context.Background(), "tok", "sec-1")
	require.NoError(t, err)
	assert.Equal(t, "q1", quiz.ID)
	assert.Equal(t, "sec-1", quiz.SectionID)
	assert.True(t, quiz.Taken)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, domain.OptionA, quiz.Questions[0].Correct)
	assert.Len(t, quiz.Questions[0].Options, 3, "empty options are dropped")
	assert.NoError(t, quiz.Validate())
}

func TestClient_FetchQuiz_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"quiz":`)
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchQuiz(context.Background(), "tok", "sec-1")
	assert.Equal(t, domain.CodeMalformedResponse, domain.CodeOf(err))
}

func TestClient_SubmitAnswers(t *testing.T) {
	var got answersRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/a/answer", r.URL.Path)
		assert.Equal(t, "sec-1", r.URL.Query().Get("section_id"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := newTestClient(server).SubmitAnswers(context.Background(), "tok", "sec-1", []domain.SubmittedAnswer{
		{QuestionNo: 1, Answer: domain.OptionB},
		{QuestionNo: 2, Answer: domain.OptionD},
	})
	require.NoError(t, err)
	require.Len(t, got.Answers, 2)
	assert.Equal(t, 2, got.Answers[1].QuestionNo)
	assert.Equal(t, domain.OptionD, got.Answers[1].Answer)
}

func TestClient_FetchExplanations(t *testing.T) {
	t.Run("array response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `[
				{"question_number":1,"correct_answer":"B","your_answer":"b","explanation":"because","correctness":true},
				{"question_number":2,"correct_answer":"C","your_answer":"A","explanation":"nope","correctness":false}
			]`)
		}))
		defer server.Close()

		items, err := newTestClient(server).FetchExplanations(context.Background(), "tok", "sec-1")
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, 1, items[0].QuestionNumber)
		assert.Equal(t, domain.OptionB, items[0].YourAnswer)
		assert.True(t, items[0].Correct)
		assert.False(t, items[1].Correct)
	})

	t.Run("object response is malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"error":"No explanation found"}`)
		}))
		defer server.Close()

		_, err := newTestClient(server).FetchExplanations(context.Background(), "tok", "sec-1")
		assert.Equal(t, domain.CodeMalformedResponse, domain.CodeOf(err))
	})
}

func TestClient_CreateTopics_Conflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/a/topic", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	err := newTestClient(server).CreateTopics(context.Background(), "tok", "sec-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.True(t, domain.IsAlreadyExists(err))
	assert.Equal(t, domain.CodeServerError, domain.CodeOf(err))
}

func TestClient_FetchTopics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"section":{"Topics":[{"Title":"Cells","Explanation":"Units of life"}]}}`)
	}))
	defer server.Close()

	topics, err := newTestClient(server).FetchTopics(context.Background(), "tok", "sec-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.TopicItem{{Title: "Cells", Explanation: "Units of life"}}, topics)
}

func TestClient_LoginAndRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/u/login":
			var body loginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "a@b.co", body.Email)
			_, _ = io.WriteString(w, `{"token":"jwt-token"}`)
		case "/u/register":
			var form domain.SignupForm
			require.NoError(t, json.NewDecoder(r.Body).Decode(&form))
			assert.Equal(t, "alice", form.Username)
			assert.Equal(t, 20, form.Age)
			_, _ = io.WriteString(w, `{"message":"User registered"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server)

	token, err := client.Login(context.Background(), domain.Credentials{Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)

	msg, err := client.Register(context.Background(), domain.SignupForm{Username: "alice", Email: "a@b.co", Password: "secret1", Age: 20, Academic: domain.AcademicHighSchool})
	require.NoError(t, err)
	assert.Equal(t, "User registered", msg)
}

func TestNewClient_FillsMissingPaths(t *testing.T) {
	client := NewClient(config.StudyAPIConfig{BaseURL: "http://x/ ", Paths: config.StudyAPIPaths{Quiz: "/v2/quiz"}}, nil)

	assert.Equal(t, "http://x", client.baseURL)
	assert.Equal(t, "/v2/quiz", client.paths.Quiz)
	assert.Equal(t, "/a/upload", client.paths.Upload)
}
