package main

import (
	"github.com/spf13/cobra"

	appconfig "github.com/wolfman30/hijama-dm-responder/internal/config"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

type rootOptions struct {
	verbose bool
}

func (o *rootOptions) logger() *logging.Logger {
	if o.verbose {
		return logging.New("debug")
	}
	return logging.New("error")
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "responderctl",
		Short:         "Operate the hijama DM responder",
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(faqCmd(opts))
	cmd.AddCommand(resolveCmd(opts))
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(tokenCmd())
	return cmd
}

// loadConfig is swapped in tests.
var loadConfig = appconfig.Load
