// dokbot - document extraction bot for KTP, KK, Ijazah and SIM images.
//
// Chat users reply to a photo with a command such as "ktp" or "kk.xlsx";
// the gateway downloads the image, forwards it to the matching extraction
// backend and answers with the formatted result and an optional file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/dokbot/cmd/dokbot/internal"
	"github.com/tinyland-inc/dokbot/cmd/dokbot/internal/clean"
	"github.com/tinyland-inc/dokbot/cmd/dokbot/internal/extract"
	"github.com/tinyland-inc/dokbot/cmd/dokbot/internal/gateway"
	"github.com/tinyland-inc/dokbot/cmd/dokbot/internal/history"
	"github.com/tinyland-inc/dokbot/cmd/dokbot/internal/version"
)

func NewDokbotCommand() *cobra.Command {
	short := fmt.Sprintf("%s dokbot - Document Extractor Bot v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:          "dokbot",
		Short:        short,
		Example:      "dokbot gateway",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		gateway.NewGatewayCommand(),
		extract.NewExtractCommand(),
		history.NewHistoryCommand(),
		clean.NewCleanCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewDokbotCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
