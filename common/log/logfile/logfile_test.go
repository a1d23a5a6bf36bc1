package logfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	// Thursday
	ts := time.Date(2024, time.October, 3, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "log-4-10-2024-1405.log", Name(ts))
}

func TestArchiveMissingFileIsNoop(t *testing.T) {
	dir := t.TempDir()
	archived, err := Archive(filepath.Join(dir, "log-x.log"), dir)
	assert.NoError(t, err)
	assert.Equal(t, "", archived)
}

func TestSetupArchivesAndAppends(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	dir := t.TempDir()
	now := time.Date(2024, time.October, 3, 14, 5, 0, 0, time.UTC)
	existing := filepath.Join(dir, Name(now))
	require.NoError(t, os.WriteFile(existing, []byte("old run\n"), 0644))

	path, closer, err := Setup(dir, now, true)
	require.NoError(t, err)
	log.Info("new run")
	require.NoError(t, closer.Close())

	assert.Equal(t, existing, path)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "new run")
	assert.NotContains(t, string(data), "old run")
}

func TestCloseRestoresOutput(t *testing.T) {
	var before bytes.Buffer
	log.SetOutput(&before)
	defer log.SetOutput(os.Stderr)

	path, closer, err := Setup(t.TempDir(), time.Now(), false)
	require.NoError(t, err)
	log.Info("while open")
	require.NoError(t, closer.Close())
	log.Error("after close")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "while open")
	assert.NotContains(t, string(data), "after close")
	assert.Contains(t, before.String(), "after close")
	assert.NotContains(t, before.String(), "while open")
}
