package commands

import (
	"os"

	"ordersync-backend/lib/configutil"
	"ordersync-backend/lib/ordercache"
	"ordersync-backend/lib/serviceutil"
	"ordersync-backend/services/ordersync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func cacheDir() string {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.CacheDir == "" {
		return "."
	}
	return cfg.CacheDir
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspects the local order cache files.",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every cache file and the date range it covers.",
	Run: func(cmd *cobra.Command, args []string) {
		files, err := ordercache.List(cmd.Context(), cacheDir(), ordersync.DefaultPrefix)
		if err != nil {
			serviceutil.Fatal("failed to list cache files", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"File", "From", "To"})
		for _, f := range files {
			t.AppendRow(table.Row{
				f.Path,
				f.From.Format("2006-01-02"),
				f.To.Format("2006-01-02"),
			})
		}
		t.Render()
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <path/to/cache.csv>",
	Short: "Prints every order row of a cache file.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rows, err := ordercache.Read(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to read cache file", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Order", "Created", "SKU", "Customer", "Qty", "Cost", "Tracking"})
		for _, row := range rows {
			t.AppendRow(table.Row{
				row.OrderNumber,
				row.CreatedDate.Format("2006-01-02"),
				row.SKU,
				row.CustomerName,
				row.Quantity,
				row.Cost.String(),
				row.TrackingNumber,
			})
		}
		t.Render()
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	rootCmd.AddCommand(cacheCmd)
}
