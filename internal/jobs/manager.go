package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"docintel/constants"
	"docintel/internal/entity"
)

// Manager owns job lifecycle: creation, per-file progress and completion.
type Manager struct {
	store   Store
	history *History
	log     *slog.Logger
}

// NewManager wires a Manager over a Store. history may be nil (no archive).
func NewManager(store Store, history *History, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, history: history, log: logger}
}

// CreateJob registers a new job with one pending FileProgress per filename.
func (m *Manager) CreateJob(ctx context.Context, filenames []string) (*entity.Job, error) {
	job := &entity.Job{
		ID:         newJobID(),
		TotalFiles: len(filenames),
		Status:     constants.JobStatusProcessing,
		StartedAt:  time.Now().UTC(),
		Files:      make([]entity.FileProgress, len(filenames)),
	}
	for i, name := range filenames {
		job.Files[i] = entity.FileProgress{
			Filename: name,
			Status:   constants.FileStatusPending,
			Message:  constants.MessageQueued,
		}
	}
	if err := m.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	m.log.Info("jobs.create", "job_id", job.ID, "total_files", job.TotalFiles)
	return job, nil
}

// GetJob returns a snapshot of the job, or ok=false when unknown.
func (m *Manager) GetJob(ctx context.Context, id string) (*entity.Job, bool, error) {
	return m.store.Get(ctx, id)
}

// UpdateFileStatus records progress for one file. Terminal statuses are
// sticky: once a file is completed or errored, later updates are dropped.
func (m *Manager) UpdateFileStatus(ctx context.Context, jobID string, index int, status constants.FileStatus, message string, result *entity.DocumentResult) error {
	_, ok, err := m.store.Update(ctx, jobID, func(j *entity.Job) {
		if index < 0 || index >= len(j.Files) {
			return
		}
		f := &j.Files[index]
		if f.Status.Terminal() {
			return
		}
		f.Status = status
		f.Message = message
		if result != nil {
			f.Result = result
		}
	})
	if err != nil {
		return fmt.Errorf("update file status: %w", err)
	}
	if !ok {
		m.log.Warn("jobs.update_unknown_job", "job_id", jobID, "index", index)
	}
	return nil
}

// CompleteJob marks the job terminal and archives it when a history is wired.
func (m *Manager) CompleteJob(ctx context.Context, jobID string) error {
	job, ok, err := m.store.Update(ctx, jobID, func(j *entity.Job) {
		now := time.Now().UTC()
		j.Status = constants.JobStatusCompleted
		j.CompletedAt = &now
	})
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if !ok {
		return nil
	}
	m.log.Info("jobs.complete", "job_id", jobID)
	if m.history != nil {
		if err := m.history.Archive(ctx, job); err != nil {
			m.log.Warn("jobs.archive_failed", "job_id", jobID, "error", err)
		}
	}
	return nil
}

func newJobID() string {
	return fmt.Sprintf("job_%s_%s",
		time.Now().UTC().Format("20060102_150405"),
		strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
