package workflow

import (
	"context"
	"errors"
	"time"

	"docintel/constants"
	"docintel/internal/entity"
)

// ErrPollTimeout is returned when the attempt budget runs out before the job
// reaches its terminal state.
var ErrPollTimeout = errors.New("polling timed out waiting for job completion")

// Progress icons keyed by per-file status.
const (
	IconCompleted  = "✔"
	IconProcessing = "⏳"
	IconError      = "✖"
	IconPending    = "…"
)

// PollConfig controls the fixed-interval polling loop.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollConfig matches the product behavior: one poll per second for at
// most five minutes.
func DefaultPollConfig() PollConfig {
	return PollConfig{Interval: time.Second, MaxAttempts: 300}
}

// Progress is the overlay view updated on each successful poll.
type Progress struct {
	Attempt int
	Overall float64 // terminal files / total, in [0,1]
	Files   []FileProgressView
}

// FileProgressView is one row of the progress overlay.
type FileProgressView struct {
	Filename string
	Status   constants.FileStatus
	Icon     string
	Message  string
}

// ProgressFunc receives overlay updates. May be nil.
type ProgressFunc func(Progress)

// PollUntilComplete polls the status endpoint at a fixed interval until the
// job completes, then fetches the results exactly once. Transient poll errors
// are swallowed and count against the attempt budget; a 404 on the status
// endpoint fails fast since the job is gone server-side and further polling
// cannot succeed. There is no backoff and no cancellation besides ctx.
func (c *Client) PollUntilComplete(ctx context.Context, jobID string, cfg PollConfig, onProgress ProgressFunc) ([]entity.DocumentResult, error) {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultPollConfig()
	}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		job, err := c.GetStatus(ctx, jobID)
		switch {
		case errors.Is(err, ErrJobNotFound):
			return nil, ErrJobNotFound
		case err != nil:
			// Transient: no update this round, keep polling.
			c.log.Warn("workflow.poll_error", "job_id", jobID, "attempt", attempt, "error", err)
		default:
			if onProgress != nil {
				onProgress(progressOf(job, attempt))
			}
			if job.Status == constants.JobStatusCompleted {
				return c.GetResults(ctx, jobID)
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}
	return nil, ErrPollTimeout
}

func progressOf(job *entity.Job, attempt int) Progress {
	p := Progress{
		Attempt: attempt,
		Files:   make([]FileProgressView, len(job.Files)),
	}
	terminal := 0
	for i, f := range job.Files {
		if f.Status.Terminal() {
			terminal++
		}
		p.Files[i] = FileProgressView{
			Filename: f.Filename,
			Status:   f.Status,
			Icon:     statusIcon(f.Status),
			Message:  f.Message,
		}
	}
	if job.TotalFiles > 0 {
		p.Overall = float64(terminal) / float64(job.TotalFiles)
	}
	return p
}

func statusIcon(s constants.FileStatus) string {
	switch s {
	case constants.FileStatusCompleted:
		return IconCompleted
	case constants.FileStatusProcessing:
		return IconProcessing
	case constants.FileStatusError:
		return IconError
	default:
		return IconPending
	}
}
