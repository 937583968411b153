package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitDisabledDiscards(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &buf}))
	require.NoError(t, Init(Options{Enabled: false}))

	Error("dropped")
	require.Zero(t, buf.Len())
}

func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &buf, Level: slog.LevelDebug}))
	t.Cleanup(func() { _ = Init(Options{}) })

	Debug("page buffered", "uri", "/r/1", "offset", 2)
	require.Contains(t, buf.String(), `"msg":"page buffered"`)
	require.Contains(t, buf.String(), `"offset":2`)
}

func TestInitCreatesDatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(Options{Enabled: true, LogDir: dir}))
	t.Cleanup(func() { _ = Init(Options{}) })

	Info("hello")
	name := logPrefix + time.Now().Format("2006-01-02") + logSuffix
	_, err := os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)
}

func TestCleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	old := filepath.Join(dir, logPrefix+"2024-05-01"+logSuffix)
	fresh := filepath.Join(dir, logPrefix+"2024-06-29"+logSuffix)
	other := filepath.Join(dir, "unrelated-2020-01-01.log")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}

	cleanOldLogs(dir, now)

	_, err := os.Stat(old)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	require.NoError(t, err)
	_, err = os.Stat(other)
	require.NoError(t, err)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
