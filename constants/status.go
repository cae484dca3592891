package constants

// JobStatus is the canonical top-level status of an analysis job.
type JobStatus string

// Stable values (these exact strings go over the wire).
const (
	JobStatusProcessing JobStatus = "processing" // at least one file not terminal
	JobStatusCompleted  JobStatus = "completed"  // terminal; results are available
)

// FileStatus is the per-file progress status inside a job.
type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusError      FileStatus = "error"
)

// Terminal reports whether a file status can no longer change.
func (s FileStatus) Terminal() bool {
	return s == FileStatusCompleted || s == FileStatusError
}

// ResultStatus is the outcome recorded on a DocumentResult.
type ResultStatus string

const (
	ResultStatusSuccess ResultStatus = "success"
	ResultStatusError   ResultStatus = "error"
)

// Per-file progress messages shown verbatim to the user.
const (
	MessageQueued     = "Queued for processing"
	MessageUploading  = "Uploading document..."
	MessageAnalyzing  = "Submitting to analysis service..."
	MessageWaiting    = "Waiting for analysis results..."
	MessageExtracting = "Extracting fields..."
	MessageCompleted  = "Completed successfully"
)
