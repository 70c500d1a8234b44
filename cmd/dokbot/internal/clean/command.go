package clean

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/dokbot/cmd/dokbot/internal"
	"github.com/tinyland-inc/dokbot/pkg/janitor"
	"github.com/tinyland-inc/dokbot/pkg/workdir"
)

func NewCleanCommand() *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale downloads and exports from the working directory",
		Args:  cobra.NoArgs,
		Example: `  dokbot clean
  dokbot clean --max-age 0s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			if !cmd.Flags().Changed("max-age") {
				maxAge = cfg.Janitor.MaxAge.Duration
			}
			dir, err := workdir.New(cfg.Media.WorkDir)
			if err != nil {
				return err
			}
			rep, err := janitor.Sweep(dir, maxAge, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d file(s), %d bytes, kept %d in %s\n",
				rep.Removed, rep.Bytes, rep.Kept, dir.Path())
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Remove files older than this (default: janitor.max_age)")

	return cmd
}
