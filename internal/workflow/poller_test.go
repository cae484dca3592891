package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"docintel/constants"
	"docintel/internal/entity"
)

func jobSnapshot(id string, done int, total int) entity.Job {
	job := entity.Job{
		ID:         id,
		TotalFiles: total,
		Status:     constants.JobStatusProcessing,
		StartedAt:  time.Now(),
		Files:      make([]entity.FileProgress, total),
	}
	for i := range job.Files {
		job.Files[i] = entity.FileProgress{
			Filename: "doc.pdf",
			Status:   constants.FileStatusProcessing,
			Message:  constants.MessageWaiting,
		}
		if i < done {
			job.Files[i].Status = constants.FileStatusCompleted
			job.Files[i].Message = constants.MessageCompleted
		}
	}
	if done == total {
		job.Status = constants.JobStatusCompleted
	}
	return job
}

func TestPollUntilCompleteFetchesResultsOnce(t *testing.T) {
	var statusCalls, resultsCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		n := statusCalls.Add(1)
		done := 0
		if n >= 4 {
			done = 2
		}
		json.NewEncoder(w).Encode(jobSnapshot(r.PathValue("id"), done, 2))
	})
	mux.HandleFunc("GET /api/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		resultsCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"results": []entity.DocumentResult{
			{Filename: "doc.pdf", Status: constants.ResultStatusSuccess},
			{Filename: "doc.pdf", Status: constants.ResultStatusSuccess},
		}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), nil)
	var updates []Progress
	results, err := client.PollUntilComplete(context.Background(), "job_x",
		PollConfig{Interval: time.Millisecond, MaxAttempts: 300},
		func(p Progress) { updates = append(updates, p) })
	if err != nil {
		t.Fatalf("PollUntilComplete: %v", err)
	}
	if got := statusCalls.Load(); got != 4 {
		t.Fatalf("expected 4 status fetches, got %d", got)
	}
	if got := resultsCalls.Load(); got != 1 {
		t.Fatalf("expected exactly one results fetch, got %d", got)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if len(updates) != 4 {
		t.Fatalf("expected 4 progress updates, got %d", len(updates))
	}
	if updates[0].Overall != 0 {
		t.Fatalf("first update overall = %v, want 0", updates[0].Overall)
	}
	if updates[3].Overall != 1 {
		t.Fatalf("final update overall = %v, want 1", updates[3].Overall)
	}
	if updates[0].Files[0].Icon != IconProcessing || updates[3].Files[0].Icon != IconCompleted {
		t.Fatalf("unexpected icons: first %q, last %q", updates[0].Files[0].Icon, updates[3].Files[0].Icon)
	}
}

func TestPollUntilCompleteStopsAtAttemptBudget(t *testing.T) {
	var statusCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		statusCalls.Add(1)
		json.NewEncoder(w).Encode(jobSnapshot(r.PathValue("id"), 0, 1))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), nil)
	_, err := client.PollUntilComplete(context.Background(), "job_x",
		PollConfig{Interval: time.Microsecond, MaxAttempts: 300}, nil)
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if got := statusCalls.Load(); got != 300 {
		t.Fatalf("expected exactly 300 status fetches, got %d", got)
	}
}

func TestPollUntilCompleteFailsFastOnMissingJob(t *testing.T) {
	var statusCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		statusCalls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Job not found"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), nil)
	_, err := client.PollUntilComplete(context.Background(), "job_gone",
		PollConfig{Interval: time.Millisecond, MaxAttempts: 300}, nil)
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if got := statusCalls.Load(); got != 1 {
		t.Fatalf("expected a single status fetch, got %d", got)
	}
}

func TestPollUntilCompleteSwallowsTransientErrors(t *testing.T) {
	var statusCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		if statusCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(jobSnapshot(r.PathValue("id"), 1, 1))
	})
	mux.HandleFunc("GET /api/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []entity.DocumentResult{
			{Filename: "doc.pdf", Status: constants.ResultStatusSuccess},
		}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), nil)
	results, err := client.PollUntilComplete(context.Background(), "job_x",
		PollConfig{Interval: time.Millisecond, MaxAttempts: 10}, nil)
	if err != nil {
		t.Fatalf("PollUntilComplete: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if got := statusCalls.Load(); got != 2 {
		t.Fatalf("expected 2 status fetches, got %d", got)
	}
}
