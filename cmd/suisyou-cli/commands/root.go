package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"amazon-suisyou/internal/fetch"
	"amazon-suisyou/internal/imagecache"
	"amazon-suisyou/internal/report"
	"amazon-suisyou/lib/configutil"
	"amazon-suisyou/lib/restyutil"
	"amazon-suisyou/lib/serviceutil"
	"amazon-suisyou/lib/telemetry"

	"github.com/dgraph-io/badger/v4"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type FetchConfig struct {
	UserAgent      string `json:"user_agent"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MinDelayMs     int    `json:"min_delay_ms"`
	MaxDelayMs     int    `json:"max_delay_ms"`
	// when set, raw pages are kept in a badger database at this
	// path so re-runs within a day do not re-hit the storefront
	PageCacheDir string `json:"page_cache_dir"`
}

type ReportConfig struct {
	Top int `json:"top"`
}

type Config struct {
	Shop   string             `json:"shop"`
	Cache  imagecache.Config  `json:"cache"`
	Fetch  FetchConfig        `json:"fetch"`
	Report ReportConfig       `json:"report"`
	Email  report.EmailConfig `json:"email"`
}

var verbose bool
var configPath string
var cfg Config

var rootCmd = &cobra.Command{
	Use:   "suisyou-cli",
	Short: "suisyou-cli ranks vendor restock reports and resolves product images for the top of the ranking.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)

		err := telemetry.SetupFromEnv(cmd.Context(), "suisyou-cli")
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			serviceutil.Fatal("setup telemetry", err)
		}
		telemetry.InstrumentPerfStats(cmd.Context())

		cfg, err = configutil.ReadConfig[Config](configPath)
		if errors.Is(err, os.ErrNotExist) {
			slog.DebugContext(cmd.Context(), "no config file, using defaults", "path", configPath)
		} else if err != nil {
			serviceutil.Fatal("read config", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging/instrumentation.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "Path to the config file.")
}

func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	telemetry.Shutdown(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func openStore() imagecache.AdminStore {
	store, err := imagecache.OpenStore(cfg.Cache)
	if err != nil {
		serviceutil.Fatal("open image cache store", err)
	}
	return store
}

func fetchOptions() fetch.ClientOptions {
	opts := fetch.ClientOptions{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		MinDelay:  time.Duration(cfg.Fetch.MinDelayMs) * time.Millisecond,
		MaxDelay:  time.Duration(cfg.Fetch.MaxDelayMs) * time.Millisecond,
	}
	if verbose {
		opts.InstrumentOutput = restyutil.NewFilesystemOutput(".dev/resty/fetch")
	}
	return opts
}

// newResolver wires store -> fetcher -> resolver from the config. The
// returned cleanup closes everything in reverse order.
func newResolver(ctx context.Context) (*imagecache.Resolver, func()) {
	store := openStore()

	client, err := fetch.NewClient(fetchOptions())
	if err != nil {
		serviceutil.Fatal("init fetch client", err)
	}

	var fetcher fetch.PageFetcher = client
	var pages *badger.DB
	if cfg.Fetch.PageCacheDir != "" {
		pages, err = badger.Open(badger.DefaultOptions(cfg.Fetch.PageCacheDir))
		if err != nil {
			serviceutil.Fatal("open page cache", err)
		}
		fetcher = fetch.NewCachedFetcher(fetcher, pages, fetch.CachedFetcherOptions{})
	}

	resolver, err := imagecache.NewResolver(ctx, store, fetcher, imagecache.ResolverOptions{
		Shop: cfg.Shop,
	})
	if err != nil {
		serviceutil.Fatal("hydrate image cache", err)
	}

	cleanup := func() {
		if pages != nil {
			pages.Close()
		}
		store.Close()
	}
	return resolver, cleanup
}
