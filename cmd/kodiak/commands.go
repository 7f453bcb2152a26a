// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/kodiak/pkg/logging"
	"github.com/AleutianAI/kodiak/pkg/ux"
	"github.com/AleutianAI/kodiak/services/knowledge"
)

const version = "0.1.0"

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	// Shared analysis flags
	flagRoot          string
	flagIncludes      []string
	flagExcludes      []string
	flagIncludeTests  bool
	flagMinConfidence float64
	flagNoSimilarity  bool
	flagNoPatterns    bool
	flagWorkers       int
	flagJSONOutput    bool
	flagVerbose       bool
	flagLogDir        string

	// Watch-specific
	flagMetricsAddr string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

// rootCmd is the top-level kodiak command.
var rootCmd = &cobra.Command{
	Use:   "kodiak",
	Short: "Build semantic knowledge graphs from source code",
	Long: `Kodiak analyzes TypeScript and JavaScript projects and builds a
semantic knowledge graph: entities (classes, functions, interfaces,
modules) linked by typed relationships (extends, implements, calls,
imports, contains), plus inferred knowledge layered on top
(similarity, design patterns, module/feature groupings).

Subcommands:
  analyze  - Run one analysis pass over a project
  watch    - Watch a project and rebuild the graph on changes
  version  - Print the version

Examples:
  kodiak analyze --root ./my-project
  kodiak analyze --root . --min-confidence 0.9 --json
  kodiak watch --root . --metrics-addr :9464`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging()
	},
}

// analyzeCmd runs a single construction pass.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a project and print the resulting graph summary",
	Long: `Analyze a project tree and build its knowledge graph.

Discovers source files, parses them with tree-sitter, extracts
entities and relationships, then derives similarity links, design
patterns, and module/feature groupings.

Examples:
  kodiak analyze --root ./my-project
  kodiak analyze --root . --include '**/*.ts' --include-tests
  kodiak analyze --root . --no-similarity --workers 4
  kodiak analyze --root . --json > graph.json`,
	RunE: runAnalyze,
}

// watchCmd rebuilds the graph whenever watched files change.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a project and rebuild the graph on source changes",
	Long: `Watch a project tree and rebuild its knowledge graph whenever
source files change. Change bursts are debounced into one rebuild.

With --metrics-addr set, construction metrics are served on a
Prometheus /metrics endpoint.

Examples:
  kodiak watch --root ./my-project
  kodiak watch --root . --metrics-addr :9464`,
	RunE: runWatch,
}

// versionCmd prints the version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the kodiak version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kodiak %s\n", version)
	},
}

// =============================================================================
// COMMAND WIRING
// =============================================================================

func newRootCommand() *cobra.Command {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "also write JSON logs to this directory")

	for _, cmd := range []*cobra.Command{analyzeCmd, watchCmd} {
		cmd.Flags().StringVar(&flagRoot, "root", ".", "project root directory to analyze")
		cmd.Flags().StringArrayVar(&flagIncludes, "include", nil, "glob patterns for files to include (repeatable)")
		cmd.Flags().StringArrayVar(&flagExcludes, "exclude", nil, "glob patterns for files to exclude (repeatable)")
		cmd.Flags().BoolVar(&flagIncludeTests, "include-tests", false, "analyze test files too")
		cmd.Flags().Float64Var(&flagMinConfidence, "min-confidence", 0, "minimum similarity confidence (0 uses the default)")
		cmd.Flags().BoolVar(&flagNoSimilarity, "no-similarity", false, "skip similarity analysis")
		cmd.Flags().BoolVar(&flagNoPatterns, "no-patterns", false, "skip design-pattern detection")
		cmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel extraction workers (0 uses all CPUs)")
	}
	analyzeCmd.Flags().BoolVar(&flagJSONOutput, "json", false, "emit the result as JSON on stdout")
	watchCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")

	rootCmd.AddCommand(analyzeCmd, watchCmd, versionCmd)
	return rootCmd
}

// appLogger is closed on exit to flush the log file, if one is open.
var appLogger *logging.Logger

// configureLogging routes structured logs to stderr (and optionally a
// log file), keeping stdout clean for command output.
func configureLogging() {
	level := logging.LevelInfo
	if flagVerbose {
		level = logging.LevelDebug
	}
	appLogger = logging.New(logging.Config{
		Level:   level,
		LogDir:  flagLogDir,
		Service: "kodiak",
	})
	slog.SetDefault(appLogger.Slog())
}

// buildConfig translates CLI flags into an engine configuration.
func buildConfig() knowledge.Config {
	cfg := knowledge.DefaultConfig(flagRoot)
	if len(flagIncludes) > 0 {
		cfg.IncludePatterns = flagIncludes
	}
	cfg.ExcludePatterns = flagExcludes
	cfg.IncludeTests = flagIncludeTests
	if flagMinConfidence > 0 {
		cfg.MinConfidence = flagMinConfidence
	}
	cfg.EnableSimilarity = !flagNoSimilarity
	cfg.EnablePatterns = !flagNoPatterns
	cfg.Workers = flagWorkers
	return cfg
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if flagJSONOutput {
		ux.SetQuiet(true)
	}

	engine, err := knowledge.NewEngine(buildConfig())
	if err != nil {
		return err
	}

	if !flagJSONOutput {
		ux.Title("Kodiak Knowledge Graph")
		ux.Info(fmt.Sprintf("analyzing %s", engine.Config().Root))
	}

	result, err := engine.Construct(ctx)
	if err != nil {
		ux.Error(err.Error())
		return err
	}

	if flagJSONOutput {
		return renderJSON(os.Stdout, result)
	}
	renderResult(result)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if flagMetricsAddr != "" {
		shutdown, err := serveMetrics(flagMetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics endpoint: %w", err)
		}
		defer shutdown()
	}

	engine, err := knowledge.NewEngine(buildConfig())
	if err != nil {
		return err
	}

	ux.Title("Kodiak Knowledge Graph (watch mode)")
	ux.Info(fmt.Sprintf("watching %s", engine.Config().Root))

	// Build once up front so the first result does not wait for a change.
	result, err := engine.Construct(ctx)
	if err != nil {
		ux.Error(err.Error())
		return err
	}
	renderResult(result)

	watcher, err := knowledge.NewWatcher(engine, func(result *knowledge.AnalysisResult, err error) {
		if err != nil {
			ux.Error(fmt.Sprintf("rebuild failed: %v", err))
			return
		}
		ux.Info("graph rebuilt")
		renderResult(result)
	}, nil)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	<-ctx.Done()
	ux.Info("shutting down")
	return nil
}
