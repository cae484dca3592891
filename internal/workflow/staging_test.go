package workflow

import (
	"errors"
	"testing"
)

func staged(name string, size int64, contentType string) StagedFile {
	return StagedFile{Name: name, Size: size, ContentType: contentType, Data: make([]byte, size)}
}

func TestStagingDeduplicatesByNameAndSize(t *testing.T) {
	var s StagingArea
	if err := s.AddFiles([]StagedFile{
		staged("bill.pdf", 100, "application/pdf"),
		staged("bill.pdf", 100, "application/pdf"),
		staged("bill.pdf", 200, "application/pdf"),
	}, false); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 staged files, got %d", s.Len())
	}

	// Same identity again on a later add is still dropped.
	if err := s.AddFiles([]StagedFile{staged("bill.pdf", 100, "application/pdf")}, false); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("duplicate slipped through, got %d files", s.Len())
	}
}

func TestStagingDropFiltersNonPDFs(t *testing.T) {
	var s StagingArea
	err := s.AddFiles([]StagedFile{
		staged("bill.pdf", 100, "application/pdf"),
		staged("notes.txt", 50, "text/plain"),
		staged("scan.PDF", 80, ""),
	}, true)
	if err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 PDFs staged, got %d", s.Len())
	}
	for _, f := range s.Files() {
		if f.Name == "notes.txt" {
			t.Fatal("non-PDF survived the drop filter")
		}
	}
}

func TestStagingDropRejectsBatchWithoutPDFs(t *testing.T) {
	var s StagingArea
	err := s.AddFiles([]StagedFile{
		staged("notes.txt", 50, "text/plain"),
		staged("photo.jpg", 90, "image/jpeg"),
	}, true)
	if !errors.Is(err, ErrNoPDFsInDrop) {
		t.Fatalf("expected ErrNoPDFsInDrop, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("rejected batch left %d files staged", s.Len())
	}
}

func TestStagingRemovePreservesOrder(t *testing.T) {
	var s StagingArea
	if err := s.AddFiles([]StagedFile{
		staged("a.pdf", 1, "application/pdf"),
		staged("b.pdf", 2, "application/pdf"),
		staged("c.pdf", 3, "application/pdf"),
	}, false); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if !s.RemoveFile(1) {
		t.Fatal("RemoveFile(1) returned false")
	}
	files := s.Files()
	if len(files) != 2 || files[0].Name != "a.pdf" || files[1].Name != "c.pdf" {
		t.Fatalf("unexpected files after removal: %+v", files)
	}
	if s.RemoveFile(5) || s.RemoveFile(-1) {
		t.Fatal("out-of-range removal reported success")
	}
}

func TestStagingClear(t *testing.T) {
	var s StagingArea
	if err := s.AddFiles([]StagedFile{staged("a.pdf", 1, "application/pdf")}, false); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty staging area, got %d files", s.Len())
	}
}
