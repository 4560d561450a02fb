package server

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSweepRemovesExpiredUploads(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.webm")
	fresh := filepath.Join(dir, "fresh.webm")
	for _, p := range []string{old, fresh} {
		require.NoError(t, os.WriteFile(p, []byte("media"), 0o644))
	}
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, stale, stale))

	sw := NewSweeper(dir, 24*time.Hour, slog.Default())
	sw.Sweep()

	_, err := os.Stat(old)
	require.True(t, os.IsNotExist(err), "expired upload should be removed")
	_, err = os.Stat(fresh)
	require.NoError(t, err, "fresh upload should survive")
}

func TestSweeperDisabledWithoutRetention(t *testing.T) {
	sw := NewSweeper(t.TempDir(), 0, slog.Default())
	sw.Start()
	sw.Stop()
}
