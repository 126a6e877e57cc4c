// Package backend is the HTTP client for the analysis service's /upload and /result endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/smartstudy/internal/models"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of a failed response body is kept for logging.
const maxErrorBody = 4096

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Client talks to the analysis service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a logger for request debugging.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for baseURL. A zero timeout leaves requests unbounded.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload sends the selected file and summary type as multipart form fields
// "file" and "summary_type" and decodes {summary, full_text}.
func (c *Client) Upload(ctx context.Context, sel models.UploadSelection) (*models.AnalysisResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", sel.FileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(sel.Content); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.WriteField("summary_type", string(sel.SummaryType)); err != nil {
		return nil, fmt.Errorf("write summary_type: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Debug("upload request",
		zap.String("file", sel.FileName),
		zap.Int("bytes", len(sel.Content)),
		zap.String("summary_type", string(sel.SummaryType)))

	var out models.AnalysisResult
	if err := c.do(req, "upload", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type resultRequest struct {
	FullText string `json:"full_text"`
	Summary  string `json:"summary"`
}

// Result posts the full text and summary and decodes {questions, answers, keywords}.
func (c *Client) Result(ctx context.Context, fullText, summary string) (*models.QAResult, error) {
	payload, err := json.Marshal(resultRequest{FullText: fullText, Summary: summary})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/result", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("result request", zap.Int("full_text_len", len(fullText)), zap.Int("summary_len", len(summary)))

	var out models.QAResult
	if err := c.do(req, "result", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, endpoint string, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
