// Package cmd implements the mdserver command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdserver",
		Short: "HTTP service converting object store documents to markdown.",
		Long: `mdserver converts documents fetched from an object store into markdown
with a derived title. It exposes an HTTP API with liveness and health
probes, retries transient object store failures with exponential backoff,
and initializes the conversion engine lazily on first use.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus MDSERVER_* env vars)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConvertCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
