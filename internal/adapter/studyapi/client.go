package studyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"study-quiz/internal/config"
	"study-quiz/internal/domain"
	"study-quiz/internal/logger"
	"study-quiz/internal/util"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	RequestIDHeader = "X-Request-ID"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 8 << 20
)

// Client talks to the remote study service. It implements domain.StudyAPI and domain.AccountAPI.
type Client struct {
	baseURL    string
	paths      config.StudyAPIPaths
	httpClient *http.Client
}

var (
	_ domain.StudyAPI   = (*Client)(nil)
	_ domain.AccountAPI = (*Client)(nil)
)

// NewClient creates a client for cfg. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg config.StudyAPIConfig, httpClient *http.Client) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	paths := cfg.Paths
	defaults := config.DefaultPaths()
	fill := func(p *string, def string) {
		if strings.TrimSpace(*p) == "" {
			*p = def
		}
	}
	fill(&paths.Upload, defaults.Upload)
	fill(&paths.Quiz, defaults.Quiz)
	fill(&paths.Answers, defaults.Answers)
	fill(&paths.Explanations, defaults.Explanations)
	fill(&paths.CreateTopics, defaults.CreateTopics)
	fill(&paths.Topics, defaults.Topics)
	fill(&paths.Register, defaults.Register)
	fill(&paths.Login, defaults.Login)

	return &Client{
		baseURL:    baseURL,
		paths:      paths,
		httpClient: httpClient,
	}
}

func sectionPath(path, sectionID string) string {
	query := url.Values{}
	query.Set("section_id", sectionID)
	return path + "?" + query.Encode()
}

// UploadDocument sends doc as multipart field "file" and returns the new section id.
func (c *Client) UploadDocument(ctx context.Context, token string, doc domain.Document) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, doc.Name))
	contentType := doc.DeclaredType
	if contentType == "" {
		contentType = "application/pdf"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", domain.NewInternalError("Failed to prepare upload", err)
	}
	if _, err := part.Write(doc.Data); err != nil {
		return "", domain.NewInternalError("Failed to prepare upload", err)
	}
	if err := writer.Close(); err != nil {
		return "", domain.NewInternalError("Failed to prepare upload", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.paths.Upload, token, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var payload uploadResponse
	if err := c.do(req, &payload); err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.SectionID) == "" {
		return "", domain.NewMalformedResponseError("The upload response did not include a section id.", nil)
	}
	return payload.SectionID, nil
}

// FetchQuiz returns the quiz generated for sectionID. Shape checks beyond JSON are left to domain.Quiz.Validate.
func (c *Client) FetchQuiz(ctx context.Context, token, sectionID string) (*domain.Quiz, error) {
	var payload quizEnvelope
	if err := c.doJSON(ctx, http.MethodGet, sectionPath(c.paths.Quiz, sectionID), token, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Quiz == nil {
		return nil, domain.NewMalformedResponseError("The quiz response did not include a quiz.", nil)
	}
	return payload.Quiz.toDomain(sectionID), nil
}

// SubmitAnswers posts every recorded answer in one request.
func (c *Client) SubmitAnswers(ctx context.Context, token, sectionID string, answers []domain.SubmittedAnswer) error {
	return c.doJSON(ctx, http.MethodPost, sectionPath(c.paths.Answers, sectionID), token, answersRequest{Answers: answers}, nil)
}

// FetchExplanations requires the response to be a JSON array.
func (c *Client) FetchExplanations(ctx context.Context, token, sectionID string) ([]domain.ExplanationItem, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, sectionPath(c.paths.Explanations, sectionID), token, nil, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, domain.NewMalformedResponseError("Explanations were not returned as a list.", nil)
	}

	var payload []explanationPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, domain.NewMalformedResponseError("Explanations could not be read.", err)
	}

	items := make([]domain.ExplanationItem, 0, len(payload))
	for _, p := range payload {
		items = append(items, p.toDomain())
	}
	return items, nil
}

// CreateTopics asks the service to build topics for sectionID. A 409 surfaces as
// a server error wrapping domain.ErrAlreadyExists.
func (c *Client) CreateTopics(ctx context.Context, token, sectionID string) error {
	return c.doJSON(ctx, http.MethodPost, sectionPath(c.paths.CreateTopics, sectionID), token, nil, nil)
}

func (c *Client) FetchTopics(ctx context.Context, token, sectionID string) ([]domain.TopicItem, error) {
	var payload topicsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, sectionPath(c.paths.Topics, sectionID), token, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Section == nil {
		return nil, domain.NewMalformedResponseError("The topics response did not include a section.", nil)
	}

	topics := make([]domain.TopicItem, 0, len(payload.Section.Topics))
	for _, t := range payload.Section.Topics {
		topics = append(topics, domain.TopicItem{Title: t.Title, Explanation: t.Explanation})
	}
	return topics, nil
}

// Register creates an account and returns the server's confirmation message.
func (c *Client) Register(ctx context.Context, form domain.SignupForm) (string, error) {
	var payload messageResponse
	if err := c.doJSON(ctx, http.MethodPost, c.paths.Register, "", form, &payload); err != nil {
		return "", err
	}
	return payload.Message, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	var payload loginResponse
	err := c.doJSON(ctx, http.MethodPost, c.paths.Login, "", loginRequest{Email: creds.Email, Password: creds.Password}, &payload)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.Token) == "" {
		return "", domain.NewMalformedResponseError("The login response did not include a token.", nil)
	}
	return payload.Token, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, requestBody any, responseBody any) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return domain.NewInternalError("Failed to encode request", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, responseBody)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, domain.NewInternalError("Failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, util.NewULID())
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	return req, nil
}

// do sends req and classifies the outcome into the session error taxonomy.
func (c *Client) do(req *http.Request, responseBody any) error {
	log := logger.Get().With(
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", req.Header.Get(RequestIDHeader)),
	)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("StudyAPI: request failed", zap.Error(err), zap.Duration("latency", time.Since(start)))
		return domain.NewNetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn("StudyAPI: reading response failed", zap.Error(err))
		return domain.NewNetworkError(err)
	}

	log.Debug("StudyAPI: response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var payload errorResponse
		message := ""
		if err := json.Unmarshal(data, &payload); err == nil {
			message = payload.text()
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return domain.NewUnauthenticatedError(message)
		}
		log.Warn("StudyAPI: non-success status", zap.Int("status", resp.StatusCode), zap.String("message", message))
		serverErr := domain.NewServerError(resp.StatusCode, message)
		if resp.StatusCode == http.StatusConflict {
			serverErr.Cause = domain.ErrAlreadyExists
		}
		return serverErr
	}

	if responseBody == nil {
		return nil
	}
	if err := json.Unmarshal(data, responseBody); err != nil {
		return domain.NewMalformedResponseError("The study service returned an unreadable response.", err)
	}
	return nil
}
