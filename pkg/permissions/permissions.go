package permissions

import (
	"os"
	"runtime"
	"strings"
)

// Status enumerates coarse permission results for input capture.
type Status string

const (
	// StatusUnknown indicates no explicit signal about permission state.
	StatusUnknown Status = "unknown"
	// StatusGranted signals that the capability is available.
	StatusGranted Status = "granted"
	// StatusDenied indicates the user or platform has refused access.
	StatusDenied Status = "denied"
	// StatusPromptRequired means the platform will prompt at runtime.
	StatusPromptRequired Status = "prompt"
	// StatusUnavailable reports that the capability is not supported.
	StatusUnavailable Status = "unavailable"
)

// EnvInputCapture overrides the probed input capture state.
const EnvInputCapture = "KEYLOG_INPUT_CAPTURE"

// ProbeResult represents the coarse state for a permission surface.
type ProbeResult struct {
	Status   Status
	Message  string
	Guidance string
}

// LookupEnvFunc exposes environment probing for testability.
type LookupEnvFunc func(string) (string, bool)

// lookupEnv is declared for swapping in tests.
var lookupEnv = func(key string) (string, bool) {
	return os.LookupEnv(key)
}

// goos is declared for swapping in tests.
var goos = runtime.GOOS

// ProbeInputCapture inspects the execution environment for global keyboard hook support.
func ProbeInputCapture(lookup LookupEnvFunc) ProbeResult {
	if lookup == nil {
		lookup = lookupEnv
	}
	if value, ok := lookup(EnvInputCapture); ok {
		return interpretPermissionFlag("input capture", value)
	}

	switch goos {
	case "darwin":
		return ProbeResult{
			Status:   StatusPromptRequired,
			Message:  "accessibility trust required",
			Guidance: "grant the terminal Accessibility and Input Monitoring access in System Settings > Privacy & Security",
		}
	case "windows":
		return ProbeResult{Status: StatusGranted, Message: "low-level keyboard hook available"}
	case "linux", "freebsd", "openbsd", "netbsd":
		if display, ok := lookup("DISPLAY"); ok && strings.TrimSpace(display) != "" {
			return ProbeResult{Status: StatusGranted, Message: "X11 display " + strings.TrimSpace(display) + " available"}
		}
		if wayland, ok := lookup("WAYLAND_DISPLAY"); ok && strings.TrimSpace(wayland) != "" {
			return ProbeResult{
				Status:   StatusUnavailable,
				Message:  "wayland session without XWayland display",
				Guidance: "export DISPLAY for XWayland or use the terminal backend",
			}
		}
		return ProbeResult{
			Status:   StatusUnavailable,
			Message:  "no display server detected",
			Guidance: "use the terminal backend on headless hosts",
		}
	default:
		return ProbeResult{Status: StatusUnavailable, Message: "input capture unsupported on " + goos}
	}
}

func interpretPermissionFlag(name, value string) ProbeResult {
	normalised := strings.ToLower(strings.TrimSpace(value))
	switch normalised {
	case "granted", "allow", "allowed", "yes", "true":
		return ProbeResult{Status: StatusGranted, Message: name + " permission pre-authorised via env override"}
	case "denied", "no", "false", "blocked":
		return ProbeResult{Status: StatusDenied, Message: name + " permission denied via env override", Guidance: "unset " + EnvInputCapture + " or grant access to re-test"}
	case "prompt", "ask":
		return ProbeResult{Status: StatusPromptRequired, Message: name + " permission will prompt at runtime"}
	case "unavailable", "unsupported":
		return ProbeResult{Status: StatusUnavailable, Message: name + " unavailable on this platform"}
	default:
		return ProbeResult{Status: StatusUnknown, Message: name + " permission state unknown"}
	}
}

// Usable reports whether capture may be attempted.
func (p ProbeResult) Usable() bool {
	return p.Status != StatusDenied && p.Status != StatusUnavailable
}

// StatusString returns the string representation for manifest integration.
func (p ProbeResult) StatusString() string {
	if p.Status == "" {
		return string(StatusUnknown)
	}
	return string(p.Status)
}
