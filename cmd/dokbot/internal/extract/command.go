package extract

import (
	"github.com/spf13/cobra"
)

func NewExtractCommand() *cobra.Command {
	var (
		format string
		debug  bool
	)

	cmd := &cobra.Command{
		Use:   "extract [type] [image]",
		Short: "Extract a document image through the configured backend",
		Long: `Extract runs the same pipeline as the chat bot on a local image.
With no arguments it starts an interactive prompt that reads lines such
as "ktp scan.jpg" or "kk.xlsx family.png".`,
		Example: `  dokbot extract ktp ./ktp.jpg
  dokbot extract kk ./kk.png --format xlsx
  dokbot extract`,
		Args: cobra.MatchAll(cobra.MaximumNArgs(2), func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				return errMissingImage
			}
			return nil
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return extractCmd(cmd.Context(), cmd.OutOrStdout(), args, format, debug)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Also export the result as txt, json or xlsx")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}
