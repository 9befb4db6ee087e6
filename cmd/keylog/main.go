package main

import (
	"os"

	"github.com/offlinefirst/keylog/internal/cmd"
)

func main() {
	root := cmd.NewRootCommand()
	code := 0
	if err := root.Execute(os.Args[1:]); err != nil {
		code = 1
	}
	root.Close()
	os.Exit(code)
}
