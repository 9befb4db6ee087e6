package events

import (
	"os"
	"testing"

	"github.com/offlinefirst/keylog/pkg/permissions"
)

func TestDetectEnvironmentSetsFields(t *testing.T) {
	for _, backend := range []string{BackendHook, BackendTerminal, BackendScript} {
		env := DetectEnvironment(backend, nil)
		if env.Backend != backend {
			t.Fatalf("expected backend %s, got %s", backend, env.Backend)
		}
		if env.Permission == "" {
			t.Fatalf("expected permission status for %s", backend)
		}
		if env.Message == "" {
			t.Fatalf("expected message for %s", backend)
		}
	}
}

func TestDetectEnvironmentHookHonoursOverride(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == permissions.EnvInputCapture {
			return "denied", true
		}
		return "", false
	}
	env := DetectEnvironment(BackendHook, lookup)
	if env.Available {
		t.Fatalf("expected hook to be unavailable when denied")
	}
	if env.Guidance == "" {
		t.Fatalf("expected guidance when denied")
	}
}

func TestDetectEnvironmentTerminal(t *testing.T) {
	orig := isTerminal
	defer func() { isTerminal = orig }()

	isTerminal = func(*os.File) bool { return true }
	if env := DetectEnvironment(BackendTerminal, nil); !env.Available {
		t.Fatalf("expected terminal to be available")
	}

	isTerminal = func(*os.File) bool { return false }
	if env := DetectEnvironment(BackendTerminal, nil); env.Available || env.Guidance == "" {
		t.Fatalf("expected unavailable terminal with guidance, got %+v", env)
	}
}

func TestDetectEnvironmentUnknownBackend(t *testing.T) {
	if env := DetectEnvironment("telepathy", nil); env.Available {
		t.Fatalf("unknown backend must not be available")
	}
}
