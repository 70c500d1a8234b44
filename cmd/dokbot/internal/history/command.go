package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/dokbot/cmd/dokbot/internal"
	"github.com/tinyland-inc/dokbot/pkg/history"
)

func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Show recent extractions",
		Args:    cobra.NoArgs,
		Example: "  dokbot history --limit 50",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			path := cfg.HistoryPath()
			if path == "" {
				return errors.New("history is disabled (history.path is empty)")
			}
			store, err := history.Open(context.Background(), path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(context.Background(), limit)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")

	return cmd
}

func printEntries(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No extractions recorded yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tCHANNEL\tTYPE\tSTATUS\tCODE\tOWNER\tEXPORT")
	for _, e := range entries {
		owner := e.OwnerName
		if owner == "" {
			owner = "-"
		}
		exportPath := e.ExportPath
		if exportPath == "" {
			exportPath = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Channel, e.DocumentType, e.Status, e.Code, owner, exportPath)
	}
	return tw.Flush()
}
