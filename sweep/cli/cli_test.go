package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sweeperror "github.com/twitter/sweep/common/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cl, err := NewSimpleCLIClient(&out)
	require.NoError(t, err)
	c := cl.(*SweepCLIClient)
	c.RootCmd.SetArgs(args)
	err = c.Exec()
	return out.String(), err
}

func TestConfigAppliesOnlyChangedFlags(t *testing.T) {
	out, err := execute(t, "config", "--preset", "local.small", "--end_topics", "20", "--base_wait_time", "2s")
	require.NoError(t, err)
	assert.Contains(t, out, "end_topics: 20")
	assert.Contains(t, out, "base_wait: 2s")
	// local.small values survive the default-valued flags that were not passed
	assert.Contains(t, out, "start_topics: 5")
	assert.Contains(t, out, "workers: 2")
}

func TestConfigValidate(t *testing.T) {
	_, err := execute(t, "config", "--validate", "--corpus_label", "Bad-Label")
	require.Error(t, err)
	var exitErr *sweeperror.ExitCodeError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, sweeperror.ConfigFailureExitCode, exitErr.GetExitCode())
}

func TestSample(t *testing.T) {
	out, err := execute(t, "sample", "--preset", "local.small")
	require.NoError(t, err)
	assert.Contains(t, out, "The random sample contains 9 combinations. This leaves 15 undrawn.")
	assert.Contains(t, out, "Numeric symmetric prior 0.5")

	lines := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "\t(") {
			lines++
		}
	}
	assert.Equal(t, 9, lines)
}

func TestSampleRejectsEmptyGrid(t *testing.T) {
	_, err := execute(t, "sample", "--start_topics", "10", "--end_topics", "5")
	assert.Error(t, err)
}

func TestUnknownPreset(t *testing.T) {
	_, err := execute(t, "config", "--preset", "huge")
	assert.Error(t, err)
}

func TestBadLogLevel(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)
	_, err := execute(t, "config", "--log_level", "chatty")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(source, []byte(`[["topic","model"],["grid","search"],["held","out"],["lda","prior"]]`), 0644))

	out, err := execute(t, "run", "--preset", "local.small", "--log_to_stderr",
		"--root_dir", filepath.Join(dir, "out"),
		"--data_source", source,
		"--corpus_label", "tiny",
		"--base_wait_time", "1ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Final count - Number of training futures:")
	assert.Contains(t, out, "The random sample contains 9 combinations.")
	assert.Contains(t, out, "Final counts - Train results:")
	assert.DirExists(t, filepath.Join(dir, "out", "visuals", "topicmaps"))
}

func TestRunFailureReachesLogFile(t *testing.T) {
	var stderr bytes.Buffer
	log.SetOutput(&stderr)
	defer log.SetOutput(os.Stderr)
	dir := t.TempDir()
	_, err := execute(t, "run", "--preset", "local.small",
		"--root_dir", dir,
		"--data_source", filepath.Join(dir, "missing.json"),
		"--corpus_label", "tiny")
	require.Error(t, err)

	logs, err := filepath.Glob(filepath.Join(dir, "log", "log-*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	data, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Sweep run failed")

	// main logs the exit code after the file is closed.
	log.Error("exiting")
	assert.Contains(t, stderr.String(), "exiting")
}
