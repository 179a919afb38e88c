package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "thqm",
	Short: "Serve a menu of entries over HTTP and print the one picked",
	Long: `thqm reads entries from standard input and serves them as a web page on
the local network. When an entry is clicked it is printed to standard
output, so thqm can drive scripts from a phone or another computer.

A QR code of the page URL is shown on the page and can be printed to the
terminal (--show-qrcode) or saved as a PNG (--save-qrcode).

Settings are read from config.yaml and thqm.env in the thqm config
directory; command line flags take precedence.

Example:
  printf 'lock\nsuspend\n' | thqm --oneshot | sh
  ls ~/music | thqm -u user -P hunter2 --show-qrcode`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("thqm version {{.Version}}\n")
}

// Execute runs the root command. SIGINT and SIGTERM stop the server.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
