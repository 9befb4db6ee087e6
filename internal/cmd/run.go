package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/offlinefirst/keylog/internal/buildinfo"
	"github.com/offlinefirst/keylog/pkg/capture"
	"github.com/offlinefirst/keylog/pkg/config"
	"github.com/offlinefirst/keylog/pkg/events"
	"github.com/offlinefirst/keylog/pkg/events/hook"
	"github.com/offlinefirst/keylog/pkg/sessionlog"
)

func newRunCommand() command {
	return command{
		name:        "run",
		description: "Start a keystroke capture session (press ESC to stop)",
		configure: func(fs *flag.FlagSet) {
			fs.String("backend", "", "Capture backend override (hook, terminal)")
			fs.String("log-dir", "", "Directory for session logs (default from config)")
			fs.Bool("plan-only", false, "Print the resolved configuration without starting capture")
		},
		run: runCapture,
	}
}

var (
	timeNow       = time.Now
	hostname      = os.Hostname
	manifestSave  = sessionlog.Save
	notifyContext = func(parent context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	}
	newSource = defaultSource
)

func runCapture(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	backend := ctx.Config.Capture.Backend
	if override := stringFlag(fs, "backend"); override != "" {
		normalized, err := config.NormalizeBackend(override)
		if err != nil {
			return err
		}
		backend = normalized
	}
	logDir := ctx.Config.Paths.LogDir
	if override := stringFlag(fs, "log-dir"); override != "" {
		logDir = override
	}

	planOnly := boolFlag(fs, "plan-only")
	ctx.Logger.Info("run command invoked", "plan_only", planOnly, "backend", backend, "log_dir", logDir, "config_source", ctx.Config.Source)

	if planOnly {
		return printRunPlan(ctx, backend, logDir, stdout)
	}

	source, err := newSource(backend, ctx.Config)
	if err != nil {
		return err
	}
	return runSession(ctx, source, logDir, stdout, stderr)
}

func defaultSource(backend string, cfg config.Config) (events.Source, error) {
	switch backend {
	case events.BackendHook:
		return hook.New(hook.Options{
			ReadyTimeout: time.Duration(cfg.Capture.ReadyTimeoutSeconds) * time.Second,
		}), nil
	case events.BackendTerminal:
		return events.NewTerminal(os.Stdin), nil
	default:
		return nil, fmt.Errorf("unsupported capture backend %q", backend)
	}
}

// runSession prepares the log file and manifest, runs one capture session on
// source and records the outcome. An interrupt counts as a clean stop.
func runSession(ctx *AppContext, source events.Source, logDir string, stdout io.Writer, stderr io.Writer) error {
	dir, err := config.ExpandHome(logDir)
	if err != nil {
		return err
	}

	layout, err := sessionlog.ResolveLayout(dir, ctx.Config.Paths.FilePrefix, timeNow())
	if err != nil {
		return fmt.Errorf("resolve log file: %w", err)
	}
	if err := sessionlog.EnsureDir(layout); err != nil {
		return fmt.Errorf("prepare log directory: %w", err)
	}

	host, err := hostname()
	if err != nil {
		host = "unknown"
	}

	manifest := sessionlog.New(sessionlog.Options{
		CreatedAt:  timeNow(),
		Hostname:   host,
		AppVersion: buildinfo.Version(),
		Backend:    source.Name(),
		Config:     ctx.Config,
		Layout:     layout,
	})
	logger := ctx.Logger.With("session_id", manifest.SessionID)

	session, err := capture.New(layout.LogPath, capture.Options{
		Source:          source,
		Logger:          logger,
		Clock:           timeNow,
		Stdout:          stdout,
		Stderr:          stderr,
		FlushErrorBurst: ctx.Config.Diagnostics.FlushErrorBurst,
	})
	if err != nil {
		return fmt.Errorf("construct capture session: %w", err)
	}

	manifest.Status.State = "running"
	manifest.Status.Summary = "capture in progress"
	if err := manifestSave(manifest, layout.ManifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	sigCtx, stop := notifyContext(context.Background())
	runErr := session.Start(sigCtx)
	stop()
	if errors.Is(runErr, events.ErrListenerInit) {
		if err := sessionlog.Discard(layout); err != nil {
			logger.Warn("discard unstarted session", "error", err)
		}
		return runErr
	}
	if errors.Is(runErr, capture.ErrInterrupted) {
		runErr = nil
	}

	recordOutcome(&manifest, session, runErr)
	if err := manifestSave(manifest, layout.ManifestPath); err != nil {
		logger.Warn("finalise manifest", "error", err, "path", layout.ManifestPath)
	}

	if runErr != nil {
		return runErr
	}

	stats := session.Stats()
	fmt.Fprintf(stdout, "[*] Recorded %s (%s) to %s\n",
		pluralKeystrokes(stats.Entries), humanize.Bytes(uint64(stats.BytesFlushed)), layout.LogPath)
	if stats.FlushFailures > 0 {
		fmt.Fprintf(stdout, "[!] %s flush attempt(s) failed; see diagnostics\n", humanize.Comma(int64(stats.FlushFailures)))
	}
	fmt.Fprintf(stdout, "[*] Manifest: %s\n", layout.ManifestPath)
	return nil
}

func recordOutcome(manifest *sessionlog.Manifest, session *capture.Session, runErr error) {
	stats := session.Stats()
	manifest.Status.Entries = stats.Entries
	manifest.Status.BytesWritten = stats.BytesFlushed
	manifest.Status.FlushFailures = stats.FlushFailures
	manifest.Status.Termination = stats.Termination
	if !stats.StartedAt.IsZero() {
		started := stats.StartedAt.UTC()
		manifest.Status.StartedAt = &started
	}
	if !stats.StoppedAt.IsZero() {
		stopped := stats.StoppedAt.UTC()
		manifest.Status.EndedAt = &stopped
	}
	for _, tr := range session.Timeline() {
		manifest.Status.Timeline = append(manifest.Status.Timeline, sessionlog.TransitionRecord{
			State:     tr.State.String(),
			Reason:    tr.Reason,
			Timestamp: tr.Timestamp.UTC(),
		})
	}

	if runErr != nil {
		manifest.Status.State = "failed"
		manifest.Status.Summary = runErr.Error()
		if manifest.Status.Termination == "" {
			manifest.Status.Termination = capture.TerminationError
		}
		return
	}
	manifest.Status.State = "completed"
	manifest.Status.Summary = fmt.Sprintf("capture finished (%s)", manifest.Status.Termination)
}

func pluralKeystrokes(n int) string {
	if n == 1 {
		return "1 keystroke"
	}
	return humanize.Comma(int64(n)) + " keystrokes"
}

func printRunPlan(ctx *AppContext, backend, logDir string, stdout io.Writer) error {
	dir, err := config.ExpandHome(logDir)
	if err != nil {
		return err
	}
	layout, err := sessionlog.ResolveLayout(dir, ctx.Config.Paths.FilePrefix, timeNow())
	if err != nil {
		return fmt.Errorf("resolve log file: %w", err)
	}

	fmt.Fprintf(stdout, "Resolved configuration (source: %s)\n", ctx.Config.Source)
	fmt.Fprintf(stdout, "  paths.log_dir: %s\n", dir)
	fmt.Fprintf(stdout, "  paths.file_prefix: %s\n", ctx.Config.Paths.FilePrefix)
	fmt.Fprintf(stdout, "  capture.backend: %s\n", backend)
	fmt.Fprintf(stdout, "  capture.ready_timeout_seconds: %d\n", ctx.Config.Capture.ReadyTimeoutSeconds)
	fmt.Fprintf(stdout, "  logging.level: %s\n", ctx.Config.Logging.Level)
	fmt.Fprintf(stdout, "  logging.format: %s\n", ctx.Config.Logging.Format)
	if ctx.Config.Logging.File != "" {
		fmt.Fprintf(stdout, "  logging.file: %s (rotate at %d MB)\n", ctx.Config.Logging.File, ctx.Config.Logging.MaxSizeMB)
	}
	fmt.Fprintf(stdout, "  diagnostics.flush_error_burst: %d\n", ctx.Config.Diagnostics.FlushErrorBurst)
	fmt.Fprintf(stdout, "Next log file: %s\n", layout.LogPath)
	return nil
}

func boolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	value, err := strconv.ParseBool(f.Value.String())
	if err != nil {
		return false
	}
	return value
}

func stringFlag(fs *flag.FlagSet, name string) string {
	f := fs.Lookup(name)
	if f == nil {
		return ""
	}
	return strings.TrimSpace(f.Value.String())
}
