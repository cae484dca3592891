package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"docintel/constants"
	"docintel/internal/workflow"
)

// HotFolderConfig controls batch submission of discovered PDFs.
type HotFolderConfig struct {
	ReportDir   string        // where rendered reports land
	BatchWindow time.Duration // how long to wait for stragglers after the first file
	Poll        workflow.PollConfig
}

// HotFolder turns watcher events into analysis jobs: it gathers discovered
// PDFs into a batch, submits the batch, waits for completion, and writes the
// rendered report to the report directory.
type HotFolder struct {
	client *workflow.Client
	cfg    HotFolderConfig
	log    *slog.Logger
}

func NewHotFolder(client *workflow.Client, cfg HotFolderConfig, log *slog.Logger) *HotFolder {
	if cfg.BatchWindow <= 0 {
		cfg.BatchWindow = 2 * time.Second
	}
	if cfg.Poll.MaxAttempts <= 0 {
		cfg.Poll = workflow.DefaultPollConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	return &HotFolder{client: client, cfg: cfg, log: log}
}

// Run consumes discovered paths until ctx is done or the channel closes.
// Each batch is submitted synchronously; discovery keeps buffering behind the
// channel while a job is in flight.
func (h *HotFolder) Run(ctx context.Context, paths <-chan string) error {
	for {
		first, ok := h.next(ctx, paths)
		if !ok {
			return ctx.Err()
		}
		batch := h.gather(ctx, paths, first)
		h.submit(ctx, batch)
	}
}

func (h *HotFolder) next(ctx context.Context, paths <-chan string) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case p, ok := <-paths:
		return p, ok
	}
}

// gather waits out the batch window so a multi-file copy lands in one job.
func (h *HotFolder) gather(ctx context.Context, paths <-chan string, first string) []string {
	batch := []string{first}
	seen := map[string]struct{}{first: {}}
	window := time.After(h.cfg.BatchWindow)
	for {
		select {
		case <-ctx.Done():
			return batch
		case <-window:
			return batch
		case p, ok := <-paths:
			if !ok {
				return batch
			}
			if _, dup := seen[p]; !dup {
				seen[p] = struct{}{}
				batch = append(batch, p)
			}
		}
	}
}

func (h *HotFolder) submit(ctx context.Context, batch []string) {
	files := make([]workflow.StagedFile, 0, len(batch))
	for _, path := range batch {
		data, err := os.ReadFile(path)
		if err != nil {
			h.log.Warn("ingest.read_failed", "path", path, "error", err)
			continue
		}
		files = append(files, workflow.StagedFile{
			Name:        filepath.Base(path),
			Size:        int64(len(data)),
			ContentType: constants.ContentTypePDF,
			Data:        data,
		})
	}
	if len(files) == 0 {
		return
	}

	handle, err := h.client.CreateJob(ctx, files)
	if err != nil {
		h.log.Error("ingest.submit_failed", "files", len(files), "error", err)
		return
	}
	h.log.Info("ingest.submitted", "job_id", handle.JobID, "files", handle.TotalFiles)

	results, err := h.client.PollUntilComplete(ctx, handle.JobID, h.cfg.Poll, nil)
	if err != nil {
		h.log.Error("ingest.job_failed", "job_id", handle.JobID, "error", err)
		return
	}

	page, err := workflow.RenderReportPage(results)
	if err != nil {
		h.log.Error("ingest.render_failed", "job_id", handle.JobID, "error", err)
		return
	}
	out := filepath.Join(h.cfg.ReportDir, handle.JobID+".html")
	if err := os.WriteFile(out, []byte(page), 0o644); err != nil {
		h.log.Error("ingest.report_write_failed", "path", out, "error", err)
		return
	}
	h.log.Info("ingest.report_written", "job_id", handle.JobID, "path", out)
}
