// Package backup provides pre-import snapshots of the log store and
// rollback to a prior snapshot.
package backup

import "time"

// Status is the lifecycle state of a backup snapshot.
type Status string

const (
	// StatusPending means metadata exists but the snapshot copy has not
	// finished.
	StatusPending Status = "pending"

	// StatusCompleted means the snapshot is fully persisted.
	StatusCompleted Status = "completed"

	// StatusRolledBack means the snapshot has been restored over the
	// current store.
	StatusRolledBack Status = "rolled_back"
)

// ImportStatus tracks the import that a backup guards. Persisting each
// transition makes a crash mid-import detectable: a backup stuck in
// "applying" marks partial state that can be rolled back.
type ImportStatus string

const (
	// ImportNone: no import has started against this backup yet.
	ImportNone ImportStatus = ""

	// ImportApplying: files are being parsed and persisted.
	ImportApplying ImportStatus = "applying"

	// ImportCompleted: all files were applied.
	ImportCompleted ImportStatus = "completed"
)

// Metadata describes one backup snapshot. History is append-only;
// only Status, ImportStatus, ImportedAt and TotalLogLines change after
// creation.
type Metadata struct {
	ID            string       `json:"id"`
	CreatedAt     time.Time    `json:"backup_timestamp"`
	FolderPath    string       `json:"export_folder_path"`
	SourceFiles   []string     `json:"source_files"`
	Status        Status       `json:"status"`
	ImportStatus  ImportStatus `json:"import_status,omitempty"`
	ImportedAt    *time.Time   `json:"import_timestamp,omitempty"`
	TotalLogLines int64        `json:"total_log_lines"`
	ExportedFiles []string     `json:"exported_files"`
}
