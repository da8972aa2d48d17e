package commands

import (
	"log/slog"
	"time"

	"ordersync-backend/lib/configutil"
	"ordersync-backend/lib/orders"
	"ordersync-backend/lib/serviceutil"
	"ordersync-backend/lib/timezone"
	"ordersync-backend/services/ordersync"

	"github.com/spf13/cobra"
)

type Config struct {
	BaseUrl    string `json:"base_url"`
	CacheDir   string `json:"cache_dir"`
	ProfileDir string `json:"profile_dir"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func newService() ordersync.Service {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.BaseUrl == "" {
		cfg.BaseUrl = "https://app.oberlo.com"
	}
	return ordersync.NewService(ordersync.Options{
		BaseUrl:    cfg.BaseUrl,
		CacheDir:   cfg.CacheDir,
		ProfileDir: cfg.ProfileDir,
		Username:   cfg.Username,
		Password:   cfg.Password,
	})
}

var fetchForce *bool
var fetchFrom *string
var fetchTo *string

func init() {
	fetchForce = fetchCmd.Flags().Bool("force", false, "Scrape even if a cache file for the range already exists.")
	fetchFrom = fetchCmd.Flags().String("from", "", "Start date (2006-01-02), requires --to.")
	fetchTo = fetchCmd.Flags().String("to", "", "End date (2006-01-02), requires --from.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [--from <date> --to <date>] [--force]",
	Short: "Fetches orders, reusing today's cache file when it exists.",
	Run: func(cmd *cobra.Command, args []string) {
		service := newService()
		ctx := cmd.Context()

		var rows []orders.Row
		var err error

		t1 := time.Now()
		if *fetchFrom != "" || *fetchTo != "" {
			var from, to time.Time
			from, err = time.ParseInLocation("2006-01-02", *fetchFrom, timezone.Location)
			if err != nil {
				serviceutil.Fatal("invalid --from date", err)
			}
			to, err = time.ParseInLocation("2006-01-02", *fetchTo, timezone.Location)
			if err != nil {
				serviceutil.Fatal("invalid --to date", err)
			}
			rows, err = service.GetOrders(ctx, from, to, *fetchForce)
		} else {
			rows, err = service.GetLatestOrders(ctx)
		}
		if err != nil {
			serviceutil.Fatal("failed to fetch orders", err)
		}

		slog.Info(
			"fetch finished",
			"rows", len(rows),
			"seconds", time.Since(t1).Seconds(),
		)
	},
}
