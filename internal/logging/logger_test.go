package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitializeDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Config{DebugMode: false}))
	require.Empty(t, logsDir)

	l := Get(CategoryServer)
	l.Info("should not panic or write anything")
}

func TestInitializeWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() {
		CloseAll()
		logsDir = ""
	})

	require.NoError(t, Initialize(dir, Config{DebugMode: true, Level: "debug"}))

	l := Get(CategoryIndex)
	l.Info("hello %s", "world")
	l.Debug("debug line")

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

func TestCategoryDisabledViaOverride(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() {
		CloseAll()
		logsDir = ""
	})

	require.NoError(t, Initialize(dir, Config{
		DebugMode:  true,
		Categories: map[string]bool{string(CategoryStream): false},
	}))

	require.False(t, IsCategoryEnabled(CategoryStream))
	require.True(t, IsCategoryEnabled(CategoryParser))
}
