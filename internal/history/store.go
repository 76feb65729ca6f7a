package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lyricast/internal/telemetry"
)

// Record is one export attempt.
type Record struct {
	ID            int64
	RunID         string
	ProjectName   string
	OutputPath    string
	Format        string
	Width         int
	Height        int
	FPS           float64
	Bitrate       int
	Attempt       int
	Status        telemetry.Status
	TotalFrames   int
	FramesWritten int
	DroppedFrames int
	OutputBytes   int64
	ErrorMessage  string
	ErrorCategory string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Elapsed returns the wall time of a finished run, or zero while it is open.
func (r Record) Elapsed() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin inserts an open record and assigns rec.ID.
func (s *Store) Begin(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	if strings.TrimSpace(rec.RunID) == "" {
		return errors.New("run id required")
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = telemetry.StatusValidating
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO export_runs (
            run_id, project_name, output_path, format, width, height, fps, bitrate,
            attempt, status, total_frames, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		nullableString(rec.ProjectName),
		nullableString(rec.OutputPath),
		nullableString(rec.Format),
		rec.Width,
		rec.Height,
		rec.FPS,
		rec.Bitrate,
		rec.Attempt,
		string(rec.Status),
		rec.TotalFrames,
		formatTime(rec.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// Finish persists the outcome of a run.
func (s *Store) Finish(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE export_runs
         SET status = ?, total_frames = ?, frames_written = ?, dropped_frames = ?,
             output_bytes = ?, error_message = ?, error_category = ?, finished_at = ?
         WHERE run_id = ?`,
		string(rec.Status),
		rec.TotalFrames,
		rec.FramesWritten,
		rec.DroppedFrames,
		rec.OutputBytes,
		nullableString(rec.ErrorMessage),
		nullableString(rec.ErrorCategory),
		formatTime(rec.FinishedAt),
		rec.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("run %s not found", rec.RunID)
	}
	return nil
}

// Get returns the record for runID, or nil when absent.
func (s *Store) Get(ctx context.Context, runID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM export_runs WHERE run_id = ?`, runID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return rec, nil
}

// List returns records newest first, optionally filtered by status. A
// non-positive limit returns every match.
func (s *Store) List(ctx context.Context, limit int, statuses ...telemetry.Status) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM export_runs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats returns a count of records grouped by status.
func (s *Store) Stats(ctx context.Context) (map[telemetry.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM export_runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[telemetry.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[telemetry.Status(status)] = count
	}
	return stats, rows.Err()
}

// Remove deletes one record.
func (s *Store) Remove(ctx context.Context, runID string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM export_runs WHERE run_id = ?`, runID)
	if err != nil {
		return false, fmt.Errorf("delete run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM export_runs`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

const recordColumns = "id, run_id, project_name, output_path, format, width, height, fps, bitrate, attempt, status, total_frames, frames_written, dropped_frames, output_bytes, error_message, error_category, started_at, finished_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec         Record
		projectName sql.NullString
		outputPath  sql.NullString
		format      sql.NullString
		status      string
		errMessage  sql.NullString
		errCategory sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.RunID,
		&projectName,
		&outputPath,
		&format,
		&rec.Width,
		&rec.Height,
		&rec.FPS,
		&rec.Bitrate,
		&rec.Attempt,
		&status,
		&rec.TotalFrames,
		&rec.FramesWritten,
		&rec.DroppedFrames,
		&rec.OutputBytes,
		&errMessage,
		&errCategory,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	rec.ProjectName = projectName.String
	rec.OutputPath = outputPath.String
	rec.Format = format.String
	rec.Status = telemetry.Status(status)
	rec.ErrorMessage = errMessage.String
	rec.ErrorCategory = errCategory.String
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		rec.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
			rec.FinishedAt = finished
		}
	}
	return &rec, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !isSQLiteBusy(err) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return nil, lastErr
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout keeps a fixed-width fraction so timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
