// Package capture runs a keystroke capture session: it subscribes to a key
// event source, renders each press as a timestamped line and appends it to
// the session log file before the next event is handled.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/offlinefirst/keylog/pkg/events"
	"github.com/offlinefirst/keylog/pkg/keys"
)

// TimestampLayout is the per-entry timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

// Termination causes recorded in Stats.
const (
	TerminationEscape      = "escape"
	TerminationCompleted   = "completed"
	TerminationInterrupted = "interrupted"
	TerminationStopped     = "stopped"
	TerminationError       = "error"
)

// Options controls session construction.
type Options struct {
	Source events.Source
	Logger *slog.Logger
	Clock  func() time.Time
	Stdout io.Writer
	Stderr io.Writer
	// FlushErrorBurst is how many flush failures reach Stderr back to back
	// before they are limited to one per second. Every failure is logged.
	FlushErrorBurst int
}

// Stats summarises a session for manifests and the stop summary.
type Stats struct {
	Entries       int
	BytesFlushed  int64
	FlushFailures int
	StartedAt     time.Time
	StoppedAt     time.Time
	Termination   string
}

// Session owns one listener subscription and one log destination.
type Session struct {
	path       string
	source     events.Source
	logger     *slog.Logger
	clock      func() time.Time
	stdout     io.Writer
	stderr     io.Writer
	errLimiter *rate.Limiter
	life       *lifecycle

	// sub is written inside life.begin and read after life.beginStop.
	sub events.Subscription

	mu      sync.Mutex
	pending bytes.Buffer
	sealed  bool
	escaped bool
	stats   Stats
}

// New constructs an idle session that appends to path.
func New(path string, opts Options) (*Session, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("log path must not be empty")
	}
	if opts.Source == nil {
		return nil, errors.New("event source must be provided")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve log path: %w", err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	burst := opts.FlushErrorBurst
	if burst <= 0 {
		burst = 3
	}

	return &Session{
		path:       abs,
		source:     opts.Source,
		logger:     logger.With("log_path", abs, "backend", opts.Source.Name()),
		clock:      clock,
		stdout:     stdout,
		stderr:     stderr,
		errLimiter: rate.NewLimiter(rate.Every(time.Second), burst),
		life:       newLifecycle(clock),
	}, nil
}

// Path returns the absolute log file path.
func (s *Session) Path() string { return s.path }

// State reports the current lifecycle state.
func (s *Session) State() State { return s.life.current() }

// Timeline returns the recorded lifecycle transitions.
func (s *Session) Timeline() []Transition { return s.life.snapshot() }

// Start subscribes to the source and blocks until the subscription ends or
// ctx is cancelled. Either way the session is stopped, with a final flush,
// before Start returns. A subscription failure is returned before anything is
// printed and leaves the session idle.
func (s *Session) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	err := s.life.begin(func() error {
		sub, err := s.source.Subscribe(s)
		if err != nil {
			return err
		}
		s.sub = sub
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadyRunning) {
			s.logger.Error("listener initialisation failed", "error", err)
		}
		return err
	}
	sub := s.sub

	started := s.clock()
	s.mu.Lock()
	s.stats.StartedAt = started
	s.mu.Unlock()

	fmt.Fprintf(s.stdout, "[*] Capture session started at %s\n", started.Format(TimestampLayout))
	fmt.Fprintf(s.stdout, "[*] Logging to: %s\n", s.path)
	fmt.Fprintf(s.stdout, "[*] Press ESC to stop...\n\n")
	s.logger.Info("capture session started")

	waited := make(chan error, 1)
	go func() { waited <- sub.Wait() }()

	var runErr error
	select {
	case runErr = <-waited:
	case <-ctx.Done():
		if err := sub.Close(); err != nil {
			s.logger.Warn("close listener", "error", err)
		}
		<-waited
		runErr = ErrInterrupted
	}
	if err := sub.Close(); err != nil {
		s.logger.Warn("close listener", "error", err)
	}

	cause := TerminationCompleted
	switch {
	case errors.Is(runErr, ErrInterrupted):
		cause = TerminationInterrupted
		fmt.Fprintln(s.stdout, "\n[*] Capture interrupted")
	case runErr != nil:
		cause = TerminationError
		s.logger.Error("listener failed", "error", runErr)
	case s.sawEscape():
		cause = TerminationEscape
	}
	s.stop(cause)
	<-s.life.done

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, ErrInterrupted):
		return ErrInterrupted
	default:
		return fmt.Errorf("capture listener: %w", runErr)
	}
}

// Stop ends the session: it closes the subscription, flushes whatever is
// still pending and prints the stop banner. Later calls do nothing.
func (s *Session) Stop() {
	s.stop(TerminationStopped)
}

func (s *Session) stop(cause string) {
	if !s.life.beginStop(cause) {
		return
	}
	if s.sub != nil {
		if err := s.sub.Close(); err != nil {
			s.logger.Warn("close listener", "error", err)
		}
	}

	stopped := s.clock()
	s.mu.Lock()
	if s.pending.Len() > 0 {
		_ = s.flushLocked()
	}
	s.sealed = true
	s.stats.StoppedAt = stopped
	s.stats.Termination = cause
	stats := s.stats
	s.mu.Unlock()

	s.life.finish()
	fmt.Fprintf(s.stdout, "[*] Capture session stopped at %s\n", stopped.Format(TimestampLayout))
	s.logger.Info("capture session stopped",
		"termination", cause,
		"entries", stats.Entries,
		"bytes_flushed", stats.BytesFlushed,
		"flush_failures", stats.FlushFailures)
}

// OnPress records one key press and flushes it before returning. Presses
// arriving after the session stopped are dropped.
func (s *Session) OnPress(ev keys.Event) {
	entry := formatEntry(s.clock(), ev)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return
	}
	s.pending.WriteString(entry)
	s.stats.Entries++
	_ = s.flushLocked()
}

// OnRelease returns false for Escape, which ends the subscription.
func (s *Session) OnRelease(ev keys.Event) bool {
	if !ev.IsEscape() {
		return true
	}
	s.mu.Lock()
	s.escaped = true
	s.mu.Unlock()
	return false
}

func (s *Session) sawEscape() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.escaped
}

// Flush appends pending entries to the log file.
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// Pending reports the number of buffered bytes not yet on disk.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Len()
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// flushLocked requires s.mu. On failure the unwritten tail stays buffered.
func (s *Session) flushLocked() error {
	if s.pending.Len() == 0 {
		return nil
	}
	n, err := appendFile(s.path, s.pending.Bytes())
	s.pending.Next(n)
	s.stats.BytesFlushed += int64(n)
	if err != nil {
		s.stats.FlushFailures++
		ferr := &FlushError{Path: s.path, Pending: s.pending.Len(), Err: err}
		s.logger.Warn("flush failed", "error", err, "pending_bytes", ferr.Pending)
		if s.errLimiter.Allow() {
			fmt.Fprintf(s.stderr, "Error writing to log file: %v\n", err)
		}
		return ferr
	}
	s.pending.Reset()
	return nil
}

func appendFile(path string, data []byte) (int, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}
	n, err := f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func formatEntry(at time.Time, ev keys.Event) string {
	return "[" + at.Format(TimestampLayout) + "] " + keys.Format(ev) + "\n"
}
