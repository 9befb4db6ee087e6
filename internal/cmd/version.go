package cmd

import (
	"flag"
	"fmt"
	"io"
)

func newVersionCommand() command {
	return command{
		name:        "version",
		description: "Print the keylog build version",
		skipInit:    true,
		run:         printVersion,
	}
}

func printVersion(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	_, err := fmt.Fprintf(stdout, "%s %s\n", programName, versionString())
	return err
}
