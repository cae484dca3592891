package entity

import (
	"time"

	"docintel/constants"
)

// FileProgress tracks one file inside a job. Status is monotonic: once
// terminal (completed/error) it does not revert.
type FileProgress struct {
	Filename string               `json:"filename"`
	Status   constants.FileStatus `json:"status"`
	Message  string               `json:"message"`
	Result   *DocumentResult      `json:"result,omitempty"`
}

// Job represents an analysis job for data transfer between layers.
type Job struct {
	ID          string              `json:"job_id"`
	TotalFiles  int                 `json:"total_files"`
	Status      constants.JobStatus `json:"status"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Files       []FileProgress      `json:"files"`
}

// Results collects the per-document results of a completed job, in file order.
func (j *Job) Results() []DocumentResult {
	out := make([]DocumentResult, 0, len(j.Files))
	for _, f := range j.Files {
		if f.Result != nil {
			out = append(out, *f.Result)
		}
	}
	return out
}
