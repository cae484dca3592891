package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"docintel/constants"
	"docintel/internal/common"
)

// Sentinel errors callers can match on.
var (
	ErrTimeout       = errors.New("analysis operation timed out")
	ErrNotConfigured = errors.New("analysis service not configured")
)

// Client talks to the external document-intelligence REST service: one POST
// to start an analyze operation, then polling the returned operation URL
// until it reaches a terminal state.
type Client struct {
	cfg  common.AnalysisConfig
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg common.AnalysisConfig, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" || strings.TrimSpace(cfg.Key) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 120
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.HTTPTimeout},
		log:  logger,
	}, nil
}

// Analyze submits one PDF and blocks until the operation succeeds, fails, or
// the poll budget runs out. queryFields is forwarded for prebuilt models that
// support targeted field queries; custom models ignore it.
func (c *Client) Analyze(ctx context.Context, content []byte, queryFields []string) (*AnalyzeResult, error) {
	reqID := uuid.New().String()
	start := time.Now()

	opURL, err := c.beginAnalyze(ctx, reqID, content, queryFields)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= c.cfg.PollAttempts; attempt++ {
		op, err := c.pollOperation(ctx, reqID, opURL)
		if err != nil {
			return nil, err
		}
		switch op.Status {
		case "succeeded":
			c.log.Info("analysis.done",
				"req_id", reqID,
				"attempts", attempt,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			if op.AnalyzeResult == nil {
				return nil, fmt.Errorf("operation succeeded without analyzeResult")
			}
			return op.AnalyzeResult, nil
		case "failed":
			msg := "analysis failed"
			if op.Error != nil {
				msg = fmt.Sprintf("analysis failed: %s: %s", op.Error.Code, op.Error.Message)
			}
			c.log.Error("analysis.failed", "req_id", reqID, "error", msg)
			return nil, errors.New(msg)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}

	c.log.Error("analysis.timeout",
		"req_id", reqID,
		"attempts", c.cfg.PollAttempts,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil, ErrTimeout
}

func (c *Client) beginAnalyze(ctx context.Context, reqID string, content []byte, queryFields []string) (string, error) {
	endpoint := strings.TrimRight(c.cfg.Endpoint, "/")
	u := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze", endpoint, url.PathEscape(c.cfg.ModelID))

	q := url.Values{}
	q.Set("api-version", c.cfg.APIVersion)
	// Query fields only make sense on prebuilt models.
	if len(queryFields) > 0 && strings.HasPrefix(c.cfg.ModelID, "prebuilt-") {
		q.Set("features", "keyValuePairs,queryFields")
		q.Set("queryFields", strings.Join(queryFields, ","))
	}
	u += "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", constants.ContentTypePDF)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)

	c.log.Info("analysis.begin",
		"req_id", reqID,
		"model_id", c.cfg.ModelID,
		"content_length", len(content),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("analysis.begin_send_error", "req_id", reqID, "error", err)
		return "", err
	}
	defer closeBody(resp.Body, c.log, reqID)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		return "", serviceError(resp.StatusCode, raw)
	}
	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("analyze accepted without Operation-Location header")
	}
	return opURL, nil
}

func (c *Client) pollOperation(ctx context.Context, reqID, opURL string) (*OperationResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("analysis.poll_send_error", "req_id", reqID, "error", err)
		return nil, err
	}
	defer closeBody(resp.Body, c.log, reqID)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, serviceError(resp.StatusCode, raw)
	}
	if err := ValidateJSONAgainstSchema(BuildOperationSchema(), raw); err != nil {
		c.log.Error("analysis.poll_schema_error", "req_id", reqID, "error", err, "bytes", len(raw))
		return nil, fmt.Errorf("operation payload: %w", err)
	}
	var op OperationResult
	if err := json.Unmarshal(raw, &op); err != nil {
		return nil, fmt.Errorf("decode operation payload: %w", err)
	}
	return &op, nil
}

// serviceError turns a non-2xx provider response into a readable error.
func serviceError(status int, body []byte) error {
	var envelope struct {
		Error *ServiceError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return fmt.Errorf("analysis service status %d: %s: %s", status, envelope.Error.Code, envelope.Error.Message)
	}
	return fmt.Errorf("analysis service status %d", status)
}

func closeBody(body io.ReadCloser, log *slog.Logger, reqID string) {
	if err := body.Close(); err != nil {
		log.Warn("analysis.response_body_close_error", "req_id", reqID, "error", err)
	}
}
