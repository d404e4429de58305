package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rholsp/internal/ir"
)

func TestExtensionLanguage(t *testing.T) {
	lang, ok := extensionLanguage("foo.rho")
	require.True(t, ok)
	require.Equal(t, ir.LangRholang, lang)

	lang, ok = extensionLanguage("foo.metta")
	require.True(t, ok)
	require.Equal(t, ir.LangMetta, lang)

	_, ok = extensionLanguage("foo.txt")
	require.False(t, ok)
}

func TestCollectSourceFilesWalksDirectoriesRecursively(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rho"), []byte("Nil"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("ignored"), 0644))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "c.metta"), []byte("(= (f) 1)"), 0644))

	files, err := collectSourceFiles([]string{dir})
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestCollectSourceFilesAcceptsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.metta")
	require.NoError(t, os.WriteFile(path, []byte("(= (f) 1)"), 0644))

	files, err := collectSourceFiles([]string{path})
	require.NoError(t, err)
	require.Equal(t, []string{path}, files)
}
