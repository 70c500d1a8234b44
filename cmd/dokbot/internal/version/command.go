package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/dokbot/cmd/dokbot/internal"
)

func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Show version information",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s dokbot %s\n", internal.Logo, internal.FormatVersion())
			build, goVer := internal.FormatBuildInfo()
			if build != "" {
				fmt.Fprintf(w, "  Build: %s\n", build)
			}
			fmt.Fprintf(w, "  Go: %s\n", goVer)
		},
	}

	return cmd
}
