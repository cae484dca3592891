package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"docintel/internal/common"
	"docintel/internal/entity"
)

// History archives completed jobs into sqlite so results outlive the job
// store TTL. It is write-once per job: the archive row is inserted when the
// job reaches its terminal state.
type History struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS job_history (
	job_id       TEXT PRIMARY KEY,
	total_files  INTEGER NOT NULL,
	started_at   TEXT NOT NULL,
	completed_at TEXT NOT NULL,
	results_json TEXT NOT NULL
);
`

func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "open history db")
	}
	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "init history schema")
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Archive inserts the terminal snapshot of a job. Inserting the same job
// twice is a no-op.
func (h *History) Archive(ctx context.Context, job *entity.Job) error {
	results, err := json.Marshal(job.Results())
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	completed := time.Now().UTC()
	if job.CompletedAt != nil {
		completed = job.CompletedAt.UTC()
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO job_history (job_id, total_files, started_at, completed_at, results_json)
		 VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.TotalFiles,
		job.StartedAt.UTC().Format(time.RFC3339),
		completed.Format(time.RFC3339),
		string(results),
	)
	if err != nil {
		return fmt.Errorf("insert job history: %w", err)
	}
	return nil
}

// HistoryEntry is one archived job.
type HistoryEntry struct {
	JobID       string                  `json:"job_id"`
	TotalFiles  int                     `json:"total_files"`
	StartedAt   string                  `json:"started_at"`
	CompletedAt string                  `json:"completed_at"`
	Results     []entity.DocumentResult `json:"results"`
}

// Recent returns the most recently completed jobs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT job_id, total_files, started_at, completed_at, results_json
		 FROM job_history ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.WrapError(err, "query job history")
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var results string
		if err := rows.Scan(&e.JobID, &e.TotalFiles, &e.StartedAt, &e.CompletedAt, &results); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(results), &e.Results); err != nil {
			return nil, fmt.Errorf("decode archived results for %s: %w", e.JobID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
