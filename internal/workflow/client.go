package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"docintel/constants"
	"docintel/internal/entity"
)

// Sentinel errors for the API client.
var (
	ErrJobNotFound     = errors.New("job not found")
	ErrResultsNotReady = errors.New("results not ready")
)

// Client is the JSON/multipart client for the analysis gateway: one call to
// create a job, plus status and results lookups for the poller.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     logger,
	}
}

// JobHandle is the create-job response.
type JobHandle struct {
	JobID      string `json:"job_id"`
	TotalFiles int    `json:"total_files"`
}

// CreateJob submits every staged file in a single multipart request under the
// shared "files" field. The whole operation fails on any non-2xx response or
// network error; there is no partial submission.
func (c *Client) CreateJob(ctx context.Context, files []StagedFile) (*JobHandle, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to submit")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write form file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	url := c.baseURL + constants.APIPrefix + "/analyze"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("workflow.upload_error", "error", err, "files", len(files))
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, errors.New(detailMessage(raw, fmt.Sprintf("upload failed (HTTP %d)", resp.StatusCode)))
	}

	var handle JobHandle
	if err := json.Unmarshal(raw, &handle); err != nil {
		return nil, fmt.Errorf("decode create-job response: %w", err)
	}
	if handle.JobID == "" {
		return nil, errors.New("create-job response missing job_id")
	}
	c.log.Info("workflow.upload_done",
		"job_id", handle.JobID,
		"files", len(files),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &handle, nil
}

// GetStatus fetches the current job snapshot. A 404 maps to ErrJobNotFound.
func (c *Client) GetStatus(ctx context.Context, jobID string) (*entity.Job, error) {
	raw, status, err := c.get(ctx, constants.APIPrefix+"/status/"+jobID)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrJobNotFound
	}
	if status/100 != 2 {
		return nil, errors.New(detailMessage(raw, fmt.Sprintf("status lookup failed (HTTP %d)", status)))
	}
	var job entity.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &job, nil
}

// GetResults fetches the final results payload of a completed job.
func (c *Client) GetResults(ctx context.Context, jobID string) ([]entity.DocumentResult, error) {
	raw, status, err := c.get(ctx, constants.APIPrefix+"/results/"+jobID)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, ErrJobNotFound
	case status == http.StatusAccepted:
		return nil, ErrResultsNotReady
	case status/100 != 2:
		return nil, errors.New(detailMessage(raw, fmt.Sprintf("results lookup failed (HTTP %d)", status)))
	}
	var payload struct {
		Results []entity.DocumentResult `json:"results"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode results response: %w", err)
	}
	return payload.Results, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return raw, resp.StatusCode, nil
}

// detailMessage extracts the server's {detail} string, falling back to a
// generic message when the body has none.
func detailMessage(body []byte, fallback string) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Detail) != "" {
		return payload.Detail
	}
	return fallback
}
