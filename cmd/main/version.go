package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Long:  `Print the version, git commit, and build date of mockingbird.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "mockingbird version %s\n", Version)
			_, _ = fmt.Fprintf(out, "  Git commit: %s\n", Commit)
			_, _ = fmt.Fprintf(out, "  Build date: %s\n", BuildDate)
		},
	}
}
