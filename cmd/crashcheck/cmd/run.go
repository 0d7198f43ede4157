package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crashcheck/crashcheck/internal/artifact"
	"github.com/crashcheck/crashcheck/internal/core"
	"github.com/crashcheck/crashcheck/internal/debugger"
	"github.com/crashcheck/crashcheck/internal/diagnostics"
	"github.com/crashcheck/crashcheck/internal/fsutil"
	"github.com/crashcheck/crashcheck/internal/history"
	"github.com/crashcheck/crashcheck/internal/report"
	"github.com/crashcheck/crashcheck/internal/scenario"
)

var runCmd = &cobra.Command{
	Use:   "run <bin-dir>",
	Short: "Produce dumps from instrumented targets and validate their contents",
	Long: `run launches each instrumented target under the crash-capture server,
resolves the minidump it leaves in a fresh report database, and replays
debugger sessions against the dumps, asserting on their transcripts.

Check outcomes stream to stdout ("ok - ..." per pass) and stderr
(delimited block per failure); the exit code is non-zero when any check
fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("report-file", "", "write a machine-readable run report (.json or .yaml)")
	runCmd.Flags().String("history-db", "", "record the run in a SQLite history database")
	runCmd.Flags().StringSlice("skip", nil, "scenario names to skip")
	runCmd.Flags().String("cdb", "", "debugger executable (default: discover installed kits)")

	_ = viper.BindPFlag("report.file", runCmd.Flags().Lookup("report-file"))
	_ = viper.BindPFlag("history.db", runCmd.Flags().Lookup("history-db"))
	_ = viper.BindPFlag("scenarios.skip", runCmd.Flags().Lookup("skip"))
	_ = viper.BindPFlag("debugger.path", runCmd.Flags().Lookup("cdb"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	binDir := args[0]
	startedAt := time.Now()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	skip, err := skipSet(cfg.Scenarios.Skip)
	if err != nil {
		return err
	}

	dirs := fsutil.NewTempDirRegistry()
	defer dirs.ReleaseAll()

	cdbPath, err := debugger.Locate(cfg.Debugger.Path)
	if err != nil {
		return err
	}
	log.Info("run: debugger located", "path", cdbPath)

	cacheDir := cfg.Symbols.CacheDir
	if cacheDir == "" {
		if cacheDir, err = dirs.Acquire(); err != nil {
			return fmt.Errorf("acquiring symbol cache directory: %w", err)
		}
	}
	symbolPath, err := debugger.EnsureSymbolPath(cacheDir, cfg.Symbols.ServerURL)
	if err != nil {
		return err
	}
	log.Debug("run: symbol path", "value", symbolPath)

	if err := preflight(binDir, cacheDir); err != nil {
		return err
	}

	producer := &artifact.Producer{
		BinDir:           binDir,
		Dirs:             dirs,
		Database:         &artifact.ExecDatabaseUtil{BinDir: binDir, Logger: log},
		Runner:           &artifact.ExecRunner{Logger: log},
		Logger:           log,
		ReadinessTimeout: cfg.Handler.ReadinessTimeout,
		PollInterval:     cfg.Handler.PollInterval,
	}

	pipeName := fmt.Sprintf(`\\.\pipe\crashcheck_%d_%s`, os.Getpid(), uuid.NewString())

	dumps, err := produceDumps(ctx, producer, binDir, pipeName)
	if err != nil {
		return err
	}

	rec := scenario.NewRecorder(os.Stdout, os.Stderr)
	dbg := &debugger.Debugger{
		Path:    cdbPath,
		Timeout: cfg.Debugger.Timeout,
		Logger:  log,
	}
	runner := &scenario.Runner{
		Open: func(ctx context.Context, dumpPath, command string) (scenario.Session, error) {
			return dbg.Open(ctx, dumpPath, command, rec)
		},
		Recorder: rec,
		Logger:   log,
		Skip:     skip,
		PipeName: pipeName,
	}
	runner.Run(ctx, dumps)

	results := rec.Results()
	runReport := report.Build(startedAt, time.Now(), binDir, cdbPath, results)

	if cfg.Report.File != "" {
		if err := report.Write(cfg.Report.File, runReport); err != nil {
			return err
		}
		log.Info("run: report written", "file", cfg.Report.File)
	}
	if cfg.History.DB != "" {
		if err := recordHistory(ctx, cfg.History.DB, runReport); err != nil {
			return err
		}
	}

	summary := runReport.Summary
	log.Info("run: finished", "passed", summary.Passed, "failed", summary.Failed)
	if rec.Failed() {
		return fmt.Errorf("%d of %d checks failed", summary.Failed, summary.Passed+summary.Failed)
	}
	return nil
}

// produceDumps runs every instrumented target and collects the dump paths
// the scenario suite needs. Production is fail-fast: a target that cannot
// produce its dump aborts the run before any debugger session starts.
func produceDumps(ctx context.Context, producer *artifact.Producer, binDir, pipeName string) (scenario.Dumps, error) {
	var dumps scenario.Dumps
	var err error

	if dumps.Crashy, err = producer.Produce(ctx, artifact.Spec{
		Target:   artifact.ExeName(artifact.TargetCrashy),
		PipeName: pipeName,
	}); err != nil {
		return dumps, err
	}

	// Same target, but it starts its own capture server.
	if dumps.StartHandler, err = producer.Produce(ctx, artifact.Spec{
		Target: artifact.ExeName(artifact.TargetCrashy),
	}); err != nil {
		return dumps, err
	}

	if dumps.SelfDestroyed, err = producer.Produce(ctx, artifact.Spec{
		Target:   artifact.ExeName(artifact.TargetSelfDestroying),
		PipeName: pipeName,
	}); err != nil {
		return dumps, err
	}

	// The /Z7 loader is 32-bit only.
	if !debugger.IsX64BinDir(binDir) {
		if dumps.Z7, err = producer.Produce(ctx, artifact.Spec{
			Target:   artifact.ExeName(artifact.TargetZ7Loader),
			PipeName: pipeName,
		}); err != nil {
			return dumps, err
		}
	}

	if dumps.Other, err = producer.Produce(ctx, artifact.Spec{
		Target:   artifact.ExeName(artifact.TargetOther),
		PipeName: pipeName,
	}); err != nil {
		return dumps, err
	}

	if dumps.OtherNoException, err = producer.Produce(ctx, artifact.Spec{
		Target:    artifact.ExeName(artifact.TargetOther),
		PipeName:  pipeName,
		ExtraArgs: []string{"noexception"},
	}); err != nil {
		return dumps, err
	}

	return dumps, nil
}

func preflight(binDir, cacheDir string) error {
	required := requiredExecutables(binDir)

	res := diagnostics.Preflight(diagnostics.Params{
		BinDir:              binDir,
		RequiredExecutables: required,
		SymbolCacheDir:      cacheDir,
	})
	for _, w := range res.Warnings {
		log.Warn("run: preflight", "warning", w)
	}
	if !res.OK() {
		for _, e := range res.Errors {
			log.Error("run: preflight", "error", e)
		}
		return core.ErrSetup(core.CodePreflightFailed,
			fmt.Sprintf("%d preflight check(s) failed", len(res.Errors)))
	}
	return nil
}

func recordHistory(ctx context.Context, dbPath string, r report.RunReport) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(ctx, r)
	if err != nil {
		return err
	}
	log.Info("run: history recorded", "db", dbPath, "run_id", id)
	return nil
}

func skipSet(names []string) (map[string]bool, error) {
	known := make(map[string]bool, len(scenario.Names()))
	for _, n := range scenario.Names() {
		known[n] = true
	}
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		if !known[n] {
			return nil, core.ErrValidation(core.CodeInvalidConfig, "unknown scenario in skip list: "+n)
		}
		skip[n] = true
	}
	return skip, nil
}

// requiredExecutables lists everything a run spawns out of binDir.
func requiredExecutables(binDir string) []string {
	required := []string{
		artifact.ExeName(artifact.TargetCrashy),
		artifact.ExeName(artifact.TargetSelfDestroying),
		artifact.ExeName(artifact.TargetOther),
		artifact.DatabaseUtilExecutable(),
		artifact.HandlerExecutable(),
	}
	if !debugger.IsX64BinDir(binDir) {
		required = append(required, artifact.ExeName(artifact.TargetZ7Loader))
	}
	return required
}
