package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/graaaaa/vrc-albums/internal/backup"
)

// InsertBackup persists new backup metadata. The history is append-only;
// rows are never deleted, only their status fields change.
func (s *Store) InsertBackup(ctx context.Context, m *backup.Metadata) error {
	if m.ID == "" {
		return fmt.Errorf("backup id is required")
	}

	sourceFiles, err := json.Marshal(m.SourceFiles)
	if err != nil {
		return fmt.Errorf("marshal source files: %w", err)
	}
	exportedFiles, err := json.Marshal(m.ExportedFiles)
	if err != nil {
		return fmt.Errorf("marshal exported files: %w", err)
	}

	const query = `
	INSERT INTO backups
	(id, created_at, folder_path, source_files, status, import_status, imported_at, total_log_lines, exported_files)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		m.ID,
		m.CreatedAt.UTC().Format(TimeFormat),
		m.FolderPath,
		string(sourceFiles),
		string(m.Status),
		string(m.ImportStatus),
		nullableTime(m.ImportedAt),
		m.TotalLogLines,
		string(exportedFiles),
	)
	if err != nil {
		return fmt.Errorf("insert backup: %w", err)
	}
	return nil
}

// UpdateBackup rewrites the mutable fields of existing backup metadata.
func (s *Store) UpdateBackup(ctx context.Context, m *backup.Metadata) error {
	sourceFiles, err := json.Marshal(m.SourceFiles)
	if err != nil {
		return fmt.Errorf("marshal source files: %w", err)
	}
	exportedFiles, err := json.Marshal(m.ExportedFiles)
	if err != nil {
		return fmt.Errorf("marshal exported files: %w", err)
	}

	const query = `
	UPDATE backups
	SET folder_path = ?, source_files = ?, status = ?, import_status = ?, imported_at = ?, total_log_lines = ?, exported_files = ?
	WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		m.FolderPath,
		string(sourceFiles),
		string(m.Status),
		string(m.ImportStatus),
		nullableTime(m.ImportedAt),
		m.TotalLogLines,
		string(exportedFiles),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("update backup: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, m.ID)
	}
	return nil
}

// GetBackup returns the metadata for one backup id.
func (s *Store) GetBackup(ctx context.Context, id string) (*backup.Metadata, error) {
	const query = `
	SELECT id, created_at, folder_path, source_files, status, import_status, imported_at, total_log_lines, exported_files
	FROM backups
	WHERE id = ?
	`

	m, err := scanBackup(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListBackups returns the backup history, newest first.
func (s *Store) ListBackups(ctx context.Context) ([]backup.Metadata, error) {
	const query = `
	SELECT id, created_at, folder_path, source_files, status, import_status, imported_at, total_log_lines, exported_files
	FROM backups
	ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var out []backup.Metadata
	for rows.Next() {
		m, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBackup(sc scanner) (*backup.Metadata, error) {
	var (
		m             backup.Metadata
		createdAt     string
		importedAt    sql.NullString
		sourceFiles   string
		exportedFiles string
		status        string
		importStatus  string
	)

	if err := sc.Scan(&m.ID, &createdAt, &m.FolderPath, &sourceFiles, &status, &importStatus, &importedAt, &m.TotalLogLines, &exportedFiles); err != nil {
		return nil, err
	}

	t, err := time.Parse(TimeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	m.CreatedAt = t
	m.Status = backup.Status(status)
	m.ImportStatus = backup.ImportStatus(importStatus)

	if importedAt.Valid {
		t, err := time.Parse(TimeFormat, importedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse imported_at %q: %w", importedAt.String, err)
		}
		m.ImportedAt = &t
	}

	if err := json.Unmarshal([]byte(sourceFiles), &m.SourceFiles); err != nil {
		return nil, fmt.Errorf("unmarshal source files: %w", err)
	}
	if err := json.Unmarshal([]byte(exportedFiles), &m.ExportedFiles); err != nil {
		return nil, fmt.Errorf("unmarshal exported files: %w", err)
	}

	return &m, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(TimeFormat)
}
