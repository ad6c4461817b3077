// Command responderctl is the operator CLI for the DM responder: FAQ
// validation and import, offline dry-runs, migrations and admin tokens.
package main

import (
	"fmt"
	"os"

	"github.com/wolfman30/hijama-dm-responder/cmd/mainconfig"
)

func main() {
	if err := mainconfig.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
