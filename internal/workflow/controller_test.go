package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docintel/constants"
	"docintel/internal/entity"
)

func gatewayStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		n := len(r.MultipartForm.File["files"])
		json.NewEncoder(w).Encode(map[string]any{"job_id": "job_1", "total_files": n})
	})
	mux.HandleFunc("GET /api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jobSnapshot(r.PathValue("id"), 1, 1))
	})
	mux.HandleFunc("GET /api/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []entity.DocumentResult{{
			Filename: "bill.pdf",
			Status:   constants.ResultStatusSuccess,
			Fields:   []entity.ExtractedField{{FieldName: "AccountNo", FieldValue: "42", Confidence: conf(95)}},
		}}})
	})
	return httptest.NewServer(mux)
}

func TestControllerStagingDrivesView(t *testing.T) {
	c := NewController(NewClient("http://localhost", nil, nil), DefaultPollConfig(), nil)
	ctx := context.Background()

	if v := c.View(); v.SubmitEnabled || v.ClearVisible {
		t.Fatal("empty staging area must disable submit and hide clear")
	}

	if err := c.Dispatch(ctx, Action{Command: CmdAddFiles, Files: []StagedFile{
		staged("a.pdf", 1, "application/pdf"),
		staged("b.pdf", 2, "application/pdf"),
	}}); err != nil {
		t.Fatalf("add files: %v", err)
	}
	v := c.View()
	if len(v.Files) != 2 || !v.SubmitEnabled || !v.ClearVisible {
		t.Fatalf("unexpected view after add: %+v", v)
	}

	if err := c.Dispatch(ctx, Action{Command: CmdRemoveFile, Index: 0}); err != nil {
		t.Fatalf("remove file: %v", err)
	}
	if v := c.View(); len(v.Files) != 1 || v.Files[0].Name != "b.pdf" {
		t.Fatalf("unexpected view after remove: %+v", v.Files)
	}

	if err := c.Dispatch(ctx, Action{Command: CmdClear}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if v := c.View(); len(v.Files) != 0 || v.SubmitEnabled || v.ClearVisible {
		t.Fatalf("unexpected view after clear: %+v", v)
	}
}

func TestControllerSubmitRendersReport(t *testing.T) {
	srv := gatewayStub(t)
	defer srv.Close()

	c := NewController(NewClient(srv.URL, srv.Client(), nil), PollConfig{Interval: time.Millisecond, MaxAttempts: 10}, nil)
	ctx := context.Background()
	if err := c.Dispatch(ctx, Action{Command: CmdAddFiles, Files: []StagedFile{
		staged("bill.pdf", 10, "application/pdf"),
	}}); err != nil {
		t.Fatalf("add files: %v", err)
	}
	if err := c.Dispatch(ctx, Action{Command: CmdSubmit}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	v := c.View()
	if v.Overlay != nil {
		t.Error("overlay still visible after completion")
	}
	if v.Warning != "" {
		t.Errorf("unexpected warning: %q", v.Warning)
	}
	if !strings.Contains(v.ReportHTML, "AccountNo") || !strings.Contains(v.ReportHTML, "95%") {
		t.Errorf("report fragment incomplete: %q", v.ReportHTML)
	}
}

func TestControllerSubmitRequiresStagedFiles(t *testing.T) {
	c := NewController(NewClient("http://localhost", nil, nil), DefaultPollConfig(), nil)
	if err := c.Dispatch(context.Background(), Action{Command: CmdSubmit}); !errors.Is(err, ErrNothingStaged) {
		t.Fatalf("expected ErrNothingStaged, got %v", err)
	}
}

func TestControllerSubmitFailureSurfacesDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Only PDF files are supported: notes.txt"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewController(NewClient(srv.URL, srv.Client(), nil), DefaultPollConfig(), nil)
	ctx := context.Background()
	if err := c.Dispatch(ctx, Action{Command: CmdAddFiles, Files: []StagedFile{
		staged("notes.txt", 10, "text/plain"),
	}}); err != nil {
		t.Fatalf("add files: %v", err)
	}
	err := c.Dispatch(ctx, Action{Command: CmdSubmit})
	if err == nil || err.Error() != "Only PDF files are supported: notes.txt" {
		t.Fatalf("expected server detail message, got %v", err)
	}
	v := c.View()
	if v.Overlay != nil {
		t.Error("overlay must be dismissed after a failed upload")
	}
	if v.Warning != "Only PDF files are supported: notes.txt" {
		t.Errorf("warning = %q", v.Warning)
	}
	// Staged files survive a failed submission so the user can retry.
	if len(v.Files) != 1 {
		t.Fatalf("staged files lost after failure: %+v", v.Files)
	}
}

func TestControllerRejectsConcurrentSubmit(t *testing.T) {
	uploadStarted := make(chan struct{})
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", func(w http.ResponseWriter, r *http.Request) {
		close(uploadStarted)
		<-release
		json.NewEncoder(w).Encode(map[string]any{"job_id": "job_1", "total_files": 1})
	})
	mux.HandleFunc("GET /api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jobSnapshot(r.PathValue("id"), 1, 1))
	})
	mux.HandleFunc("GET /api/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []entity.DocumentResult{}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewController(NewClient(srv.URL, srv.Client(), nil), PollConfig{Interval: time.Millisecond, MaxAttempts: 10}, nil)
	ctx := context.Background()
	if err := c.Dispatch(ctx, Action{Command: CmdAddFiles, Files: []StagedFile{
		staged("bill.pdf", 10, "application/pdf"),
	}}); err != nil {
		t.Fatalf("add files: %v", err)
	}

	firstDone := make(chan error, 1)
	go func() { firstDone <- c.Dispatch(ctx, Action{Command: CmdSubmit}) }()

	<-uploadStarted
	if err := c.Dispatch(ctx, Action{Command: CmdSubmit}); !errors.Is(err, ErrJobInFlight) {
		t.Fatalf("expected ErrJobInFlight, got %v", err)
	}
	close(release)

	if err := <-firstDone; err != nil {
		t.Fatalf("first submit: %v", err)
	}
}
