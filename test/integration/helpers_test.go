//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graaaaa/vrc-albums/internal/aggregate"
	"github.com/graaaaa/vrc-albums/internal/backup"
	"github.com/graaaaa/vrc-albums/internal/logstore"
	"github.com/graaaaa/vrc-albums/internal/store"
	"github.com/graaaaa/vrc-albums/internal/transfer"
)

// testEnv wires the real store, log store, backup service and transfer
// orchestrator on temp directories.
type testEnv struct {
	db        *store.Store
	logs      *logstore.Manager
	backups   *backup.Service
	transfers *transfer.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()

	db, err := store.Open(filepath.Join(root, "test.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logs := logstore.New(filepath.Join(root, "logStore"))
	backups := backup.NewService(filepath.Join(root, "backups"), db, logs)
	agg := aggregate.New(aggregate.WithDiagnostics(db))

	return &testEnv{
		db:        db,
		logs:      logs,
		backups:   backups,
		transfers: transfer.NewService(db, logs, backups, agg),
	}
}

// writeLogFixture writes a realistic log excerpt as an importable store
// file and returns its directory.
func writeLogFixture(t *testing.T, lines []string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "logStore-2024-05.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

var fixtureLines = []string{
	"2024.05.01 12:00:00 Log        -  [Behaviour] Joining wrld_12345678-1234-1234-1234-123456789abc:12345",
	"2024.05.01 12:00:00 Log        -  [Behaviour] Joining or Creating Room: First World",
	"2024.05.01 12:01:00 Log        -  [Behaviour] OnPlayerJoined Alice (usr_12345678-1234-1234-1234-123456789abc)",
	"2024.05.01 12:05:00 Log        -  [Behaviour] OnPlayerLeft Alice (usr_12345678-1234-1234-1234-123456789abc)",
	"2024.05.01 13:00:00 Log        -  [Behaviour] Joining wrld_87654321-4321-4321-4321-cba987654321:999",
	"2024.05.01 13:00:01 Log        -  [Behaviour] Joining or Creating Room: Second World",
	"2024.05.01 13:02:00 Log        -  [Behaviour] OnPlayerJoined Bob",
	"2024.05.01 13:30:00 Log        -  VRCApplication: HandleApplicationQuit",
}
