package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rholsp/internal/ir"
)

func TestLanguageFromURIPrefersLanguageID(t *testing.T) {
	lang, ok := languageFromURI("file:///a.txt", "rholang")
	require.True(t, ok)
	require.Equal(t, ir.LangRholang, lang)
}

func TestLanguageFromURIFallsBackToExtension(t *testing.T) {
	lang, ok := languageFromURI("file:///a.metta", "")
	require.True(t, ok)
	require.Equal(t, ir.LangMetta, lang)

	lang, ok = languageFromURI("file:///a.rho", "plaintext")
	require.True(t, ok)
	require.Equal(t, ir.LangRholang, lang)
}

func TestLanguageFromURIUnknownReturnsFalse(t *testing.T) {
	_, ok := languageFromURI("file:///a.txt", "")
	require.False(t, ok)
}
