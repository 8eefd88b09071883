package main

import (
	"fmt"

	"github.com/graaaaa/vrc-albums/internal/aggregate"
	"github.com/graaaaa/vrc-albums/internal/backup"
	"github.com/graaaaa/vrc-albums/internal/config"
	"github.com/graaaaa/vrc-albums/internal/logstore"
	"github.com/graaaaa/vrc-albums/internal/store"
	"github.com/graaaaa/vrc-albums/internal/transfer"
)

// app bundles the wired services a command needs.
type app struct {
	cfg       config.Config
	db        *store.Store
	logs      *logstore.Manager
	backups   *backup.Service
	transfers *transfer.Service
}

// openApp loads configuration and wires the store and services.
// The returned close function must be called when the command is done.
func openApp() (*app, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cfg = config.ApplyEnvOverrides(cfg)

	if _, err := config.EnsureDataDir(); err != nil {
		return nil, nil, err
	}

	dbPath, err := config.DatabasePath()
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	logDir, err := cfg.ResolveLogStoreDir()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	backupDir, err := cfg.ResolveBackupDir()
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	logs := logstore.New(logDir, logstore.WithRotationBytes(cfg.RotationBytes))
	backups := backup.NewService(backupDir, db, logs)
	agg := aggregate.New(aggregate.WithDiagnostics(db))
	transfers := transfer.NewService(db, logs, backups, agg)

	a := &app{
		cfg:       cfg,
		db:        db,
		logs:      logs,
		backups:   backups,
		transfers: transfers,
	}
	return a, func() { db.Close() }, nil
}
