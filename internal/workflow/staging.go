package workflow

import (
	"errors"
	"strings"

	"docintel/constants"
)

// StagedFile is one candidate document held in memory before submission.
// Identity is the (name, size) pair; the staging area never holds two files
// with the same identity.
type StagedFile struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// ErrNoPDFsInDrop rejects a drag-and-drop batch containing no PDFs at all.
var ErrNoPDFsInDrop = errors.New("only PDF files are supported")

// StagingArea is the in-memory list of files selected for the next job.
// It is owned by a single Controller and is not safe for concurrent use.
type StagingArea struct {
	files []StagedFile
}

// AddFiles appends candidates whose (name, size) identity is not already
// staged; exact-identity duplicates are silently dropped. When the candidates
// come from a drop, they are first filtered to PDFs and the whole batch is
// rejected if none qualify; picker selections are trusted as-is.
func (s *StagingArea) AddFiles(candidates []StagedFile, fromDrop bool) error {
	if fromDrop {
		var pdfs []StagedFile
		for _, c := range candidates {
			if isPDF(c) {
				pdfs = append(pdfs, c)
			}
		}
		if len(pdfs) == 0 {
			return ErrNoPDFsInDrop
		}
		candidates = pdfs
	}

	for _, c := range candidates {
		if s.contains(c.Name, c.Size) {
			continue
		}
		s.files = append(s.files, c)
	}
	return nil
}

// RemoveFile removes exactly one staged file by position; the relative order
// of the remaining files is preserved.
func (s *StagingArea) RemoveFile(index int) bool {
	if index < 0 || index >= len(s.files) {
		return false
	}
	s.files = append(s.files[:index], s.files[index+1:]...)
	return true
}

// Clear empties the staged list.
func (s *StagingArea) Clear() {
	s.files = nil
}

// Files returns the staged files in staging order.
func (s *StagingArea) Files() []StagedFile {
	return s.files
}

func (s *StagingArea) Len() int {
	return len(s.files)
}

func (s *StagingArea) contains(name string, size int64) bool {
	for _, f := range s.files {
		if f.Name == name && f.Size == size {
			return true
		}
	}
	return false
}

func isPDF(f StagedFile) bool {
	if strings.EqualFold(strings.TrimSpace(f.ContentType), constants.ContentTypePDF) {
		return true
	}
	return constants.AllowedFilename(f.Name)
}
