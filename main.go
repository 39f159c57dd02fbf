package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dysgraphia-support/langsync/cmd/langsync"
	"github.com/dysgraphia-support/langsync/internal/constants"
	"github.com/dysgraphia-support/langsync/internal/lifecycle"
	"github.com/dysgraphia-support/langsync/internal/logger"
	"github.com/dysgraphia-support/langsync/internal/perf"
	"github.com/dysgraphia-support/langsync/internal/telemetry"
)

const (
	perfLifecycleStartup  = "app.lifecycle.startup"
	perfLifecycleExecute  = "app.lifecycle.execute"
	perfLifecycleShutdown = "app.lifecycle.shutdown"
)

type shutdownTrigger string

const (
	shutdownTriggerNormal shutdownTrigger = "normal"
	shutdownTriggerSignal shutdownTrigger = "signal"
)

type runDeps struct {
	execute           func(context.Context) error
	telemetryInit     func()
	telemetryShutdown func(context.Context)
	register          func(lifecycle.Handler) lifecycle.HandlerID
	unregister        func(lifecycle.HandlerID)
	withSignalCancel  func(context.Context) (context.Context, context.CancelFunc)
	received          func() (os.Signal, bool)
	fs                afero.Fs
	stderr            io.Writer
	args              []string
	cwd               string
}

type perfExportConfig struct {
	enabled bool
	debug   bool
	baseDir string
	outDir  string
}

func main() {
	os.Exit(runWithDeps(defaultDeps()))
}

func defaultDeps() runDeps {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return runDeps{
		execute:           langsync.ExecuteContext,
		telemetryInit:     telemetry.Init,
		telemetryShutdown: telemetry.Shutdown,
		register:          lifecycle.Register,
		unregister:        lifecycle.Unregister,
		withSignalCancel:  lifecycle.WithSignalCancel,
		received:          lifecycle.Received,
		fs:                afero.NewOsFs(),
		stderr:            os.Stderr,
		args:              os.Args[1:],
		cwd:               cwd,
	}
}

func runWithDeps(deps runDeps) int {
	if deps.withSignalCancel == nil {
		deps.withSignalCancel = context.WithCancel
	}
	if deps.received == nil {
		deps.received = func() (os.Signal, bool) { return nil, false }
	}
	if deps.fs == nil {
		deps.fs = afero.NewOsFs()
	}
	if deps.stderr == nil {
		deps.stderr = io.Discard
	}

	perfConfig := perfExportConfigFromArgs(deps.args, deps.cwd)
	debugLog := logger.New(deps.stderr, deps.stderr, false, perfConfig.debug)

	ctx, startup := perf.StartSpan(context.Background(), perfLifecycleStartup)
	if perfConfig.debug {
		telemetry.SetLogger(debugLog)
	}
	deps.telemetryInit()

	var shutdownOnce sync.Once
	shutdown := func(trigger shutdownTrigger, sig os.Signal) {
		shutdownOnce.Do(func() {
			attrs := []attribute.KeyValue{attribute.String("trigger", string(trigger))}
			if sig != nil {
				attrs = append(attrs, attribute.String("signal", sig.String()))
			}
			shutdownCtx, span := perf.StartSpan(ctx, perfLifecycleShutdown, attrs...)
			deps.telemetryShutdown(shutdownCtx)
			span.End()

			exportPerf(deps.fs, perfConfig, debugLog)
		})
	}

	handlerID := deps.register(func(sig os.Signal) {
		shutdown(shutdownTriggerSignal, sig)
	})
	startup.End()

	execCtx, stop := deps.withSignalCancel(ctx)
	execCtx, execute := perf.StartSpan(execCtx, perfLifecycleExecute)
	err := deps.execute(execCtx)
	perf.EndSpan(execute, err)
	stop()

	sig, interrupted := deps.received()
	if interrupted {
		shutdown(shutdownTriggerSignal, sig)
	} else {
		shutdown(shutdownTriggerNormal, nil)
	}
	deps.unregister(handlerID)

	switch {
	case interrupted:
		return lifecycle.ExitCode(sig)
	case err != nil:
		return 1
	default:
		return 0
	}
}

func exportPerf(fs afero.Fs, cfg perfExportConfig, log *logger.Logger) {
	if !cfg.enabled {
		return
	}

	spans, err := perf.GetSpans()
	if err != nil {
		log.Debugf("perf export skipped: %v", err)
		return
	}

	path, err := perf.ExportToFile(fs, cfg.outDir, cfg.baseDir, spans)
	if err != nil {
		log.Debugf("perf export failed: %v", err)
		return
	}
	log.Debugf("perf export written to %s", path)
}

// perfExportConfigFromArgs reads the perf related root flags ahead of cobra
// so the export still happens when command execution fails. The export goes
// next to the configuration file unless --perf-out-dir says otherwise.
func perfExportConfigFromArgs(args []string, cwd string) perfExportConfig {
	flags := pflag.NewFlagSet(constants.CommandName, pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}

	configPath := flags.StringP("config", "c", constants.DefaultConfigFile, "")
	enabled := flags.Bool("perf", false, "")
	outDir := flags.String("perf-out-dir", "", "")
	debug := flags.BoolP("debug", "d", false, "")
	_ = flags.Parse(args)

	resolved := filepath.FromSlash(*configPath)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(cwd, resolved)
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}

	cfg := perfExportConfig{
		enabled: *enabled,
		debug:   *debug,
		baseDir: filepath.Dir(resolved),
	}

	cfg.outDir = cfg.baseDir
	if *outDir != "" {
		dir := filepath.FromSlash(*outDir)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.baseDir, dir)
		}
		cfg.outDir = dir
	}
	return cfg
}
