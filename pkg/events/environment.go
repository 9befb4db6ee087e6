package events

import (
	"os"

	"golang.org/x/term"

	"github.com/offlinefirst/keylog/pkg/permissions"
)

// Environment summarises support for one capture backend.
type Environment struct {
	Backend    string
	Available  bool
	Permission string
	Message    string
	Guidance   string
}

// Backend identifiers accepted by configuration.
const (
	BackendHook     = "hook"
	BackendTerminal = "terminal"
	BackendScript   = "script"
)

// isTerminal is declared for swapping in tests.
var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// DetectEnvironment reports whether backend can capture on this host.
func DetectEnvironment(backend string, lookup permissions.LookupEnvFunc) Environment {
	switch backend {
	case BackendHook:
		probe := permissions.ProbeInputCapture(lookup)
		return Environment{
			Backend:    backend,
			Available:  probe.Usable(),
			Permission: probe.StatusString(),
			Message:    probe.Message,
			Guidance:   probe.Guidance,
		}
	case BackendTerminal:
		env := Environment{Backend: backend, Permission: "not_applicable"}
		if isTerminal(os.Stdin) {
			env.Available = true
			env.Message = "stdin is an interactive terminal"
		} else {
			env.Message = "stdin is not a terminal"
			env.Guidance = "run keylog from an interactive shell"
		}
		return env
	case BackendScript:
		return Environment{Backend: backend, Available: true, Permission: "not_applicable", Message: "deterministic key script"}
	default:
		return Environment{Backend: backend, Permission: "unknown", Message: "unknown backend"}
	}
}
