package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rholsp/internal/config"
	"rholsp/internal/ir"
	"rholsp/internal/workspace"
)

var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Run the indexing pipeline once and print diagnostics",
	Long: `Validates .rho and .metta files by running the same parse/lower/
symbol-build pipeline the server runs on open, printing one line per
diagnostic and exiting non-zero if any file produced one.

Paths may be files or directories (directories are scanned recursively
for .rho/.metta files). With no arguments, checks --workspace.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	targets := args
	if len(targets) == 0 {
		targets = []string{workspace}
	}

	files, err := collectSourceFiles(targets)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("no .rho/.metta files found")
		return nil
	}

	opts := config.DefaultOptions(cacheDir)
	mgr := workspace.NewManager(opts, nil, nil)

	hasError := false
	for _, path := range files {
		lang, ok := extensionLanguage(path)
		if !ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("%s: read error: %v\n", path, err)
			hasError = true
			continue
		}

		uri := "file://" + path
		if err := mgr.OpenDocument(uri, lang, string(data)); err != nil {
			fmt.Printf("%s: %v\n", path, err)
			hasError = true
			continue
		}

		adapter, ok := mgr.Adapter(uri)
		if !ok {
			continue
		}
		diags := collectErrorDiagnostics(mgr, uri, adapter)
		for _, d := range diags {
			fmt.Printf("%s:%d:%d: %s\n", path, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Message)
			hasError = true
		}
	}

	if hasError {
		return fmt.Errorf("check found errors")
	}
	fmt.Printf("checked %d file(s), no errors\n", len(files))
	return nil
}

func extensionLanguage(path string) (ir.Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rho":
		return ir.LangRholang, true
	case ".metta":
		return ir.LangMetta, true
	}
	return "", false
}

func collectSourceFiles(targets []string) ([]string, error) {
	var files []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			files = append(files, target)
			continue
		}
		err = filepath.Walk(target, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				return nil
			}
			if _, ok := extensionLanguage(path); ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
