// Package sessionlog lays out the files of one capture session: the keystroke
// log itself and a JSON manifest describing the session next to it.
package sessionlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/offlinefirst/keylog/pkg/config"
)

// SchemaVersion captures the manifest version for compatibility checks.
const SchemaVersion = 1

// StampLayout names session files.
const StampLayout = "20060102_150405"

// Layout represents the filesystem locations for one session.
type Layout struct {
	Dir          string
	Name         string
	LogPath      string
	ManifestPath string
}

// Status summarises the lifecycle of a session.
type Status struct {
	State         string             `json:"state"`
	Summary       string             `json:"summary,omitempty"`
	StartedAt     *time.Time         `json:"started_at,omitempty"`
	EndedAt       *time.Time         `json:"ended_at,omitempty"`
	Termination   string             `json:"termination,omitempty"`
	Entries       int                `json:"entries"`
	BytesWritten  int64              `json:"bytes_written"`
	FlushFailures int                `json:"flush_failures"`
	Timeline      []TransitionRecord `json:"timeline,omitempty"`
}

// TransitionRecord mirrors one session lifecycle change.
type TransitionRecord struct {
	State     string    `json:"state"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Manifest is the durable metadata describing a session.
type Manifest struct {
	SchemaVersion int       `json:"schema_version"`
	SessionID     string    `json:"session_id"`
	CreatedAt     time.Time `json:"created_at"`
	Hostname      string    `json:"hostname"`
	AppVersion    string    `json:"app_version"`
	ConfigSource  string    `json:"config_source"`
	Backend       string    `json:"backend"`
	LogFile       string    `json:"log_file"`
	Status        Status    `json:"status"`
}

// Options captures the knobs for creating a new manifest.
type Options struct {
	SessionID  string
	CreatedAt  time.Time
	Hostname   string
	AppVersion string
	Backend    string
	Config     config.Config
	Layout     Layout
}

// NewSessionID returns a random identifier for log correlation.
func NewSessionID() string {
	return uuid.NewString()
}

// New constructs a manifest using the supplied options.
func New(opts Options) Manifest {
	id := opts.SessionID
	if id == "" {
		id = NewSessionID()
	}
	return Manifest{
		SchemaVersion: SchemaVersion,
		SessionID:     id,
		CreatedAt:     opts.CreatedAt.UTC(),
		Hostname:      opts.Hostname,
		AppVersion:    opts.AppVersion,
		ConfigSource:  opts.Config.Source,
		Backend:       opts.Backend,
		LogFile:       filepath.Base(opts.Layout.LogPath),
		Status:        Status{State: "pending"},
	}
}

// ResolveLayout picks <prefix>_<YYYYMMDD>_<HHMMSS>.txt under dir, adding a
// numeric suffix when a session with the same second already exists.
func ResolveLayout(dir, prefix string, now time.Time) (Layout, error) {
	if strings.TrimSpace(dir) == "" {
		return Layout{}, errors.New("log directory must not be empty")
	}
	if strings.TrimSpace(prefix) == "" {
		return Layout{}, errors.New("file prefix must not be empty")
	}

	base := prefix + "_" + now.Format(StampLayout)
	candidate := base
	suffix := 1
	for {
		layout := BuildLayout(dir, candidate)
		taken, err := exists(layout.LogPath, layout.ManifestPath)
		if err != nil {
			return Layout{}, fmt.Errorf("inspect log directory: %w", err)
		}
		if !taken {
			return layout, nil
		}
		candidate = fmt.Sprintf("%s_%02d", base, suffix)
		suffix++
	}
}

func exists(paths ...string) (bool, error) {
	for _, path := range paths {
		_, err := os.Stat(path)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
	}
	return false, nil
}

// BuildLayout derives the session file paths from a directory and base name.
func BuildLayout(dir, name string) Layout {
	return Layout{
		Dir:          dir,
		Name:         name,
		LogPath:      filepath.Join(dir, name+".txt"),
		ManifestPath: filepath.Join(dir, name+".json"),
	}
}

// EnsureDir creates the log directory. The log file itself appears on the
// first flush.
func EnsureDir(layout Layout) error {
	if err := os.MkdirAll(layout.Dir, 0o700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	return nil
}

// Discard removes the manifest and log of a session that never started.
func Discard(layout Layout) error {
	for _, path := range []string{layout.ManifestPath, layout.LogPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("discard session file: %w", err)
		}
	}
	return nil
}

// Save writes the manifest JSON to disk with indentation for readability.
func Save(man Manifest, path string) error {
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads a manifest JSON file from disk.
func Load(path string) (Manifest, error) {
	var man Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return man, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &man); err != nil {
		return man, fmt.Errorf("decode manifest: %w", err)
	}
	return man, nil
}
