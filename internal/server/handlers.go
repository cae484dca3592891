package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docintel/constants"
	"docintel/internal/common"
	"docintel/internal/entity"
	"docintel/internal/export"
	"docintel/internal/jobs"
	"docintel/internal/obs"
	"docintel/internal/processor"
	"docintel/internal/workflow"
)

// Server holds the HTTP handler dependencies.
type Server struct {
	jobs      *jobs.Manager
	proc      *processor.Processor
	history   *jobs.History
	cfg       common.ServerConfig
	maxUpload int64
	logger    *zap.Logger
}

func New(manager *jobs.Manager, proc *processor.Processor, history *jobs.History, cfg common.ServerConfig, logger *zap.Logger) *Server {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 128
	}
	if cfg.CORSAllowOrigin == "" {
		cfg.CORSAllowOrigin = "*"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		jobs:      manager,
		proc:      proc,
		history:   history,
		cfg:       cfg,
		maxUpload: int64(cfg.MaxUploadMB) << 20,
		logger:    logger,
	}
}

func detail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"detail": message})
}

// analyzeHandler accepts a multipart batch under the "files" field, rejects
// the whole batch when any file is not a PDF, creates the job, and kicks off
// processing in the background. The response returns before any analysis
// work happens.
func (s *Server) analyzeHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		detail(c, http.StatusBadRequest, "Invalid multipart request")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		detail(c, http.StatusBadRequest, "No files provided")
		return
	}

	var invalid []string
	for _, fh := range headers {
		if !constants.AllowedFilename(fh.Filename) {
			invalid = append(invalid, fh.Filename)
		}
	}
	if len(invalid) > 0 {
		detail(c, http.StatusBadRequest, "Only PDF files are supported: "+strings.Join(invalid, ", "))
		return
	}

	payloads := make([]processor.FilePayload, 0, len(headers))
	names := make([]string, 0, len(headers))
	var total int64
	for _, fh := range headers {
		total += fh.Size
		if total > s.maxUpload {
			detail(c, http.StatusRequestEntityTooLarge, "Upload exceeds the size limit")
			return
		}
		f, err := fh.Open()
		if err != nil {
			detail(c, http.StatusBadRequest, fmt.Sprintf("Could not read %s", fh.Filename))
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			detail(c, http.StatusBadRequest, fmt.Sprintf("Could not read %s", fh.Filename))
			return
		}
		payloads = append(payloads, processor.FilePayload{Filename: fh.Filename, Content: content})
		names = append(names, fh.Filename)
	}

	job, err := s.jobs.CreateJob(c.Request.Context(), names)
	if err != nil {
		s.logger.Error("create job failed", zap.Error(err))
		detail(c, http.StatusInternalServerError, "Could not create job")
		return
	}
	obs.RecordJobCreated()
	s.logger.Info("job accepted",
		zap.String("job_id", job.ID),
		zap.Int("files", job.TotalFiles),
		zap.String("request_id", common.RequestIDFromContext(c.Request.Context())),
	)

	// Processing outlives the request; it must not inherit its context.
	go s.proc.Process(context.Background(), job.ID, payloads)

	c.JSON(http.StatusOK, gin.H{
		"job_id":      job.ID,
		"total_files": job.TotalFiles,
	})
}

func (s *Server) statusHandler(c *gin.Context) {
	job, ok, err := s.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("status lookup failed", zap.Error(err))
		detail(c, http.StatusInternalServerError, "Could not load job")
		return
	}
	if !ok {
		detail(c, http.StatusNotFound, "Job not found")
		return
	}
	obs.RecordStatusPoll()
	c.JSON(http.StatusOK, job)
}

func (s *Server) resultsHandler(c *gin.Context) {
	job, ok := s.completedJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"job_id":  job.ID,
		"results": job.Results(),
	})
}

func (s *Server) exportHandler(c *gin.Context) {
	job, ok := s.completedJob(c)
	if !ok {
		return
	}
	data, err := export.ResultsXLSX(job.Results())
	if err != nil {
		s.logger.Error("export failed", zap.String("job_id", job.ID), zap.Error(err))
		detail(c, http.StatusInternalServerError, "Could not build workbook")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", job.ID))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Server) reportHandler(c *gin.Context) {
	job, ok := s.completedJob(c)
	if !ok {
		return
	}
	render := workflow.RenderReportPage
	if c.Query("embed") != "" {
		render = workflow.RenderReport
	}
	page, err := render(job.Results())
	if err != nil {
		s.logger.Error("report render failed", zap.String("job_id", job.ID), zap.Error(err))
		detail(c, http.StatusInternalServerError, "Could not render report")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (s *Server) historyHandler(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusOK, gin.H{"jobs": []jobs.HistoryEntry{}})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		detail(c, http.StatusBadRequest, "Invalid limit")
		return
	}
	entries, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("history lookup failed", zap.Error(err))
		detail(c, http.StatusInternalServerError, "Could not load history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": entries})
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// completedJob loads the job and enforces the results contract: 404 for an
// unknown job, 202 while any file is still in flight.
func (s *Server) completedJob(c *gin.Context) (*entity.Job, bool) {
	job, ok, err := s.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("job lookup failed", zap.Error(err))
		detail(c, http.StatusInternalServerError, "Could not load job")
		return nil, false
	}
	if !ok {
		detail(c, http.StatusNotFound, "Job not found")
		return nil, false
	}
	if job.Status != constants.JobStatusCompleted {
		c.JSON(http.StatusAccepted, gin.H{
			"job_id": job.ID,
			"status": job.Status,
		})
		return nil, false
	}
	return job, true
}
