package commands

import (
	"context"
	"fmt"
	"os"

	"ordersync-backend/lib/restyutil"
	"ordersync-backend/lib/scrapers/oberlo"
	"ordersync-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "ordersync",
	Short: "ordersync scrapes Oberlo orders into date-range-named csv cache files.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
		if *verbose {
			oberlo.SetRestyInstrumentOutput(
				restyutil.NewFilesystemOutput(".dev/resty/ordersync"),
			)
		}
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging and http transcripts.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
