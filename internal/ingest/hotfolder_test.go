package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docintel/constants"
	"docintel/internal/entity"
	"docintel/internal/workflow"
)

func TestGatherCoalescesAndDeduplicates(t *testing.T) {
	h := NewHotFolder(nil, HotFolderConfig{BatchWindow: 50 * time.Millisecond}, nil)
	paths := make(chan string, 4)
	paths <- "/in/b.pdf"
	paths <- "/in/a.pdf"
	paths <- "/in/b.pdf"

	batch := h.gather(context.Background(), paths, "/in/a.pdf")
	if len(batch) != 2 {
		t.Fatalf("batch = %v, want 2 unique paths", batch)
	}
}

func TestSubmitWritesReport(t *testing.T) {
	var uploaded int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		uploaded = len(r.MultipartForm.File["files"])
		json.NewEncoder(w).Encode(map[string]any{"job_id": "job_hot", "total_files": uploaded})
	})
	mux.HandleFunc("GET /api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		job := entity.Job{
			ID:         r.PathValue("id"),
			TotalFiles: uploaded,
			Status:     constants.JobStatusCompleted,
			Files: []entity.FileProgress{{
				Filename: "bill.pdf",
				Status:   constants.FileStatusCompleted,
				Message:  constants.MessageCompleted,
			}},
		}
		json.NewEncoder(w).Encode(job)
	})
	mux.HandleFunc("GET /api/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []entity.DocumentResult{{
			Filename: "bill.pdf",
			Status:   constants.ResultStatusSuccess,
			Fields:   []entity.ExtractedField{{FieldName: "AccountNo", FieldValue: "7"}},
		}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	inDir := t.TempDir()
	reportDir := t.TempDir()
	for _, name := range []string{"one.pdf", "two.pdf"} {
		if err := os.WriteFile(filepath.Join(inDir, name), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	h := NewHotFolder(
		workflow.NewClient(srv.URL, srv.Client(), nil),
		HotFolderConfig{ReportDir: reportDir, Poll: workflow.PollConfig{Interval: time.Millisecond, MaxAttempts: 10}},
		nil,
	)
	h.submit(context.Background(), []string{
		filepath.Join(inDir, "one.pdf"),
		filepath.Join(inDir, "two.pdf"),
		filepath.Join(inDir, "missing.pdf"),
	})

	if uploaded != 2 {
		t.Fatalf("uploaded %d files, want 2 (unreadable file skipped)", uploaded)
	}
	page, err := os.ReadFile(filepath.Join(reportDir, "job_hot.html"))
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(page), "AccountNo") {
		t.Fatal("report missing extracted field")
	}
}

func TestWatchEmitsNewPDFs(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, _, err := Watch(ctx, WatchConfig{Root: root}, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "bill.pdf"), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-paths:
		if filepath.Base(p) != "bill.pdf" {
			t.Fatalf("unexpected path %q", p)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event for new PDF")
	}
}

func TestWatchInitialScan(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "existing.pdf"), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, _, err := Watch(ctx, WatchConfig{Root: root, InitialScan: true}, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	select {
	case p := <-paths:
		if filepath.Base(p) != "existing.pdf" {
			t.Fatalf("unexpected path %q", p)
		}
	case <-time.After(time.Second):
		t.Fatal("initial scan emitted nothing")
	}
}
