package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/offlinefirst/keylog/pkg/events"
)

func newReplayCommand() command {
	return command{
		name:        "replay",
		description: "Run a capture session fed from a key script instead of the keyboard",
		configure: func(fs *flag.FlagSet) {
			fs.String("script", "", "Path to the key script (press/release/type lines)")
			fs.String("log-dir", "", "Directory for session logs (default from config)")
		},
		run: runReplay,
	}
}

func runReplay(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	path := stringFlag(fs, "script")
	if path == "" && len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return errors.New("replay requires -script <file>")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open key script: %w", err)
	}
	script, err := events.ParseScript(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("parse key script %q: %w", path, err)
	}

	logDir := ctx.Config.Paths.LogDir
	if override := stringFlag(fs, "log-dir"); override != "" {
		logDir = override
	}
	ctx.Logger.Info("replay command invoked", "script", path, "steps", script.Len(), "log_dir", logDir)

	return runSession(ctx, script, logDir, stdout, stderr)
}
