package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/txsched/txsched/cmd/schedd/daemon"
	"github.com/txsched/txsched/version"
)

const binaryName = "schedd"

// NewRootCmd creates a new root command for schedd. It is called once in the
// main function.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           binaryName,
		Short:         fmt.Sprintf("%s - Scheduled transaction release daemon.", binaryName),
		SilenceErrors: false,
	}

	cmd.AddCommand(
		daemon.CommandInit(binaryName),
		daemon.CommandStart(binaryName),
		version.CommandVersion(binaryName),
	)

	return cmd
}

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "there was an error: '%s'", err)
		os.Exit(1)
	}
}
