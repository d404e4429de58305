// Package main implements the rholsp CLI: a cobra root command with a
// `serve` subcommand that runs the stdio Language Server loop and a
// `check` subcommand that runs the indexing pipeline once over a
// workspace and prints diagnostics, modeled on the teacher's
// cmd_mangle_lsp.go/cmd_mangle_check.go pair.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rholsp/internal/logging"
)

var (
	verbose   bool
	workspace string
	cacheDir  string
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rholsp",
	Short: "Language Server for Rholang and embedded MeTTa",
	Long: `rholsp is a Language Server Protocol implementation for Rholang,
with first-class support for MeTTa expressions embedded in Rholang
string literals (quoted maps, lists, tuples, and channel sends).

It provides goto-definition, find-references, rename, hover,
document/workspace symbols, document highlight, and completion,
unified across parent-language and embedded-MeTTa positions.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		} else if abs, err := filepath.Abs(ws); err == nil {
			ws = abs
		}
		workspace = ws

		cd := cacheDir
		if cd == "" {
			cd = filepath.Join(ws, ".rholsp", "cache")
		}
		cacheDir = cd

		if err := logging.Initialize(cacheDir, logging.Config{DebugMode: verbose}); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace root directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Warm-start cache directory (default: <workspace>/.rholsp/cache)")

	rootCmd.AddCommand(serveCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
