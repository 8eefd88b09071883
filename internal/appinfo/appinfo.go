// Package appinfo provides application identity constants.
// These are used across packages for consistent naming.
package appinfo

const (
	// AppName is the display name of the application.
	AppName = "VRC Albums"

	// DirName is the directory name used for storing application data.
	// Location: %LOCALAPPDATA%/vrc-albums/ (Windows) or ~/.config/vrc-albums/ (other)
	DirName = "vrc-albums"

	// MutexName is the Windows mutex name for single instance control.
	// "Local\" prefix means the mutex is scoped to the current user session,
	// not system-wide. This is appropriate for desktop applications.
	MutexName = "Local\\vrc-albums"

	// LockFileName is the lock file name for single instance control.
	LockFileName = "vrc-albums.lock"

	// ConfigFileName is the configuration file name.
	ConfigFileName = "config.json"

	// SecretsFileName is the secrets file name.
	SecretsFileName = "secrets.json"

	// DatabaseFileName is the SQLite database file name.
	DatabaseFileName = "vrc-albums.sqlite"

	// LogStoreDirName is the directory name for the month-partitioned log store.
	LogStoreDirName = "logStore"

	// BackupDirName is the directory name for pre-import backups.
	BackupDirName = "backups"
)
