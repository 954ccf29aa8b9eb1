package spool

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logtally/authtab/processors/authlog"
)

func TestLogNamesOldestFirst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.log", "a.log", "notes.txt", "c.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.log"), 0o700))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.log", "b.log", "c.log"}, logNamesOldestFirst(entries))
}

func TestWatchIngestsExistingFilesInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01.log"), []byte(
		"Jan 15 10:24:00 server sshd[1234]: Invalid user test from 203.0.113.5\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02.log"), []byte(
		"Jan 15 10:26:10 server sshd[1300]: Failed password for root from 198.51.100.7 port 22 ssh2\n"), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	w := &Watcher{
		Dir:  dir,
		Proc: authlog.NewProcessor(2024, nil, nil),
	}

	var recs []authlog.Record
	done := make(chan error, 1)

	go func() {
		done <- w.Watch(ctx, func(rec authlog.Record) error {
			recs = append(recs, rec)
			if len(recs) == 2 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(15 * time.Second):
		t.Fatal("spool watcher did not stop")
	}

	require.Len(t, recs, 2)
	assert.Equal(t, authlog.EventInvalidUser, recs[0].EventType)
	assert.Equal(t, authlog.EventFailedLogin, recs[1].EventType)
}
