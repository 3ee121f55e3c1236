package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simp-lee/epubtidy/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "epubtidy %s\n", version.GitRelease)
			fmt.Fprintf(w, "  Go:     %s\n", version.GoInfo)
			fmt.Fprintf(w, "  Commit: %s\n", version.GitCommit)
			fmt.Fprintf(w, "  Date:   %s\n", version.GitCommitDate)
		},
	}
}
