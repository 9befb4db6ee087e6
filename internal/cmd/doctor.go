package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/offlinefirst/keylog/pkg/events"
)

func newDoctorCommand() command {
	return command{
		name:        "doctor",
		description: "Report capture backend availability and permissions",
		run:         runDoctor,
	}
}

// lookupEnv is nil in production so permission probes read the real environment.
var lookupEnv func(string) (string, bool)

func runDoctor(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	configured := ""
	if ctx != nil {
		configured = ctx.Config.Capture.Backend
	}

	fmt.Fprintf(stdout, "%s %s\n", programName, versionString())
	for _, backend := range []string{events.BackendHook, events.BackendTerminal, events.BackendScript} {
		env := events.DetectEnvironment(backend, lookupEnv)
		marker := " "
		if backend == configured {
			marker = "*"
		}
		status := "unavailable"
		if env.Available {
			status = "available"
		}
		fmt.Fprintf(stdout, "%s %-9s %-12s permission=%s", marker, backend, status, env.Permission)
		if env.Message != "" {
			fmt.Fprintf(stdout, " (%s)", env.Message)
		}
		fmt.Fprintln(stdout)
		if !env.Available && env.Guidance != "" {
			fmt.Fprintf(stdout, "    hint: %s\n", env.Guidance)
		}
		if ctx != nil {
			ctx.Logger.Debug("backend probed", "backend", backend, "available", env.Available, "permission", env.Permission)
		}
	}
	if configured != "" {
		fmt.Fprintf(stdout, "(* configured backend)\n")
	}
	return nil
}
