// Package main provides the instrack CLI application.
//
// instrack tracks the files a command and every process it starts touch
// while it runs. The interception module is preloaded into the command,
// records each path it opens, creates, removes or renames into a
// per-session store, and the CLI renders the result.
//
// Usage:
//
//	instrack setup
//	instrack track vim-install make install
//	instrack report vim-install
package main

import (
	"errors"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// exitError carries the tracked command's exit status out of the CLI
// without printing anything.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
