package processor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"docintel/constants"
	"docintel/internal/analysis"
	"docintel/internal/entity"
	"docintel/internal/extract"
	"docintel/internal/jobs"
	"docintel/internal/obs"
)

// Analyzer is the slice of the analysis client the processor needs.
type Analyzer interface {
	Analyze(ctx context.Context, content []byte, queryFields []string) (*analysis.AnalyzeResult, error)
}

// FilePayload is one uploaded file held in memory for the duration of a job.
type FilePayload struct {
	Filename string
	Content  []byte
}

// Processor runs the per-file analysis pipeline for a job and keeps the job
// store's progress current while doing so.
type Processor struct {
	jobs     *jobs.Manager
	analyzer Analyzer
	log      *slog.Logger
}

func New(manager *jobs.Manager, analyzer Analyzer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{jobs: manager, analyzer: analyzer, log: logger}
}

// Process analyzes all files concurrently and marks the job completed once
// every file is terminal. Per-file failures are recorded on the file, never
// failing the job itself. Blocks until done; callers run it in a goroutine.
func (p *Processor) Process(ctx context.Context, jobID string, files []FilePayload) {
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(index int, file FilePayload) {
			defer wg.Done()
			p.processFile(ctx, jobID, index, file)
		}(i, f)
	}
	wg.Wait()

	if err := p.jobs.CompleteJob(ctx, jobID); err != nil {
		p.log.Error("processor.complete_failed", "job_id", jobID, "error", err)
	}
}

func (p *Processor) processFile(ctx context.Context, jobID string, index int, file FilePayload) {
	start := time.Now()
	update := func(status constants.FileStatus, message string, result *entity.DocumentResult) {
		if err := p.jobs.UpdateFileStatus(ctx, jobID, index, status, message, result); err != nil {
			p.log.Warn("processor.status_update_failed", "job_id", jobID, "file", file.Filename, "error", err)
		}
	}

	update(constants.FileStatusProcessing, constants.MessageUploading, nil)
	update(constants.FileStatusProcessing, constants.MessageAnalyzing, nil)

	result, err := p.analyzer.Analyze(ctx, file.Content, constants.ExpectedFields)
	obs.RecordFileProcessed(start, err)
	if err != nil {
		p.log.Error("processor.file_failed",
			"job_id", jobID,
			"file", file.Filename,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		update(constants.FileStatusError, err.Error(), &entity.DocumentResult{
			Filename: file.Filename,
			Status:   constants.ResultStatusError,
			Error:    err.Error(),
		})
		return
	}

	update(constants.FileStatusProcessing, constants.MessageExtracting, nil)
	fields := extract.Fields(result)

	update(constants.FileStatusCompleted, constants.MessageCompleted, &entity.DocumentResult{
		Filename: file.Filename,
		Status:   constants.ResultStatusSuccess,
		Fields:   fields,
	})
	p.log.Info("processor.file_done",
		"job_id", jobID,
		"file", file.Filename,
		"fields", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}
