package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohmanhakim/review-crawler/internal/build"
	"github.com/rohmanhakim/review-crawler/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile               string
	concurrent            bool
	verbose               bool
	batch                 bool
	maxRetries            int
	retryBaseDelay        time.Duration
	retryBackoffIncrement time.Duration
	pageSize              int
	maxPoolSize           int
	aggregateTimeout      time.Duration
	maxPages              int
	requestTimeout        time.Duration
	userAgent             string
	baseURL               string
	reportFormat          string
	dryRun                bool
	logFormat             string
	strictID              bool
	metricsAddr           string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "review-crawler [flags] <ASIN|file> [dir]",
	Short: "Crawl a product page and all of its customer reviews.",
	Long: `review-crawler fetches a product page, then every page of its customer
reviews, and writes one report for the product and one per review under
<dir>/<ASIN>/.

Review pages are walked one after another until an empty page is seen, or,
with --concurrent, fetched by a bounded worker pool sized from the review
count shown on the product page. Every fetch is retried with a linear
backoff.

With --batch the first argument is a task file of "ASIN::product name" lines.`,
	Version:      build.FullVersion(),
	Args:         cobra.RangeArgs(1, 2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		outDir := ""
		if len(args) > 1 {
			outDir = args[1]
		}

		cfg, err := InitConfigWithError(target, outDir)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(build.Summary() + "\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config-file", "", "config file path, JSON or YAML (e.g., /home/myuser/config.yaml)")
	flags.BoolVarP(&concurrent, "concurrent", "m", false, "fetch review pages with a bounded worker pool")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every fetch and page, not only warnings")
	flags.BoolVarP(&batch, "batch", "b", false, "treat the first argument as a task file of \"ASIN::name\" lines")
	flags.IntVar(&maxRetries, "max-retries", 0, "fetch attempts per URL (default 10)")
	flags.DurationVar(&retryBaseDelay, "retry-base-delay", 0, "fixed part of every backoff wait (default 3s)")
	flags.DurationVar(&retryBackoffIncrement, "retry-backoff-increment", 0, "added to the backoff wait per attempt (default 5s)")
	flags.IntVar(&pageSize, "page-size", 0, "reviews per listing page, used to size the worker pool (default 10)")
	flags.IntVar(&maxPoolSize, "max-pool-size", 0, "upper bound on concurrent page workers (default 8)")
	flags.DurationVar(&aggregateTimeout, "aggregate-timeout", 0, "time budget of one concurrent review crawl (default 2h)")
	flags.IntVar(&maxPages, "max-pages", 0, "hard stop for sequential pagination and cap on concurrent pages (default 1000)")
	flags.DurationVar(&requestTimeout, "request-timeout", 0, "timeout of a single HTTP request (default 30s)")
	flags.StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests (none by default)")
	flags.StringVar(&baseURL, "base-url", "", "scheme and host of the store (default http://www.amazon.com)")
	flags.StringVar(&reportFormat, "report-format", "", "text, markdown or html (default text)")
	flags.BoolVar(&dryRun, "dry-run", false, "crawl without writing reports")
	flags.StringVar(&logFormat, "log-format", "", "json or console (default json)")
	flags.BoolVar(&strictID, "strict-id", false, "require 10-character alphanumeric ASINs")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while crawling (e.g., :9090)")
}

// InitConfig reads in config file and flags.
// target is mandatory: an ASIN, or a task file path in batch mode.
func InitConfig(target string, outDir string) config.Config {
	cfg, err := InitConfigWithError(target, outDir)
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError reads in config file and flags, returning any errors.
// The positional target and output directory win over the config file.
func InitConfigWithError(target string, outDir string) (config.Config, error) {
	if target == "" {
		return config.Config{}, fmt.Errorf("%w: target cannot be empty", config.ErrInvalidConfig)
	}

	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile, target)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		if outDir != "" {
			return cfg.WithOutputDir(outDir).Build()
		}
		return cfg, nil
	}

	// Start with default config and apply overrides using method chaining
	configBuilder := config.WithDefault(target).
		WithBatch(batch).
		WithConcurrent(concurrent).
		WithVerbose(verbose).
		WithDryRun(dryRun).
		WithStrictID(strictID)

	if outDir != "" {
		configBuilder = configBuilder.WithOutputDir(outDir)
	}

	if maxRetries > 0 {
		configBuilder = configBuilder.WithMaxRetries(maxRetries)
	}

	if retryBaseDelay > 0 {
		configBuilder = configBuilder.WithRetryBaseDelay(retryBaseDelay)
	}

	if retryBackoffIncrement > 0 {
		configBuilder = configBuilder.WithRetryBackoffIncrement(retryBackoffIncrement)
	}

	if pageSize > 0 {
		configBuilder = configBuilder.WithPageSize(pageSize)
	}

	if maxPoolSize > 0 {
		configBuilder = configBuilder.WithMaxPoolSize(maxPoolSize)
	}

	if aggregateTimeout > 0 {
		configBuilder = configBuilder.WithAggregateTimeout(aggregateTimeout)
	}

	if maxPages > 0 {
		configBuilder = configBuilder.WithMaxPages(maxPages)
	}

	if requestTimeout > 0 {
		configBuilder = configBuilder.WithRequestTimeout(requestTimeout)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: base url: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithBaseURL(*parsed)
	}

	if reportFormat != "" {
		configBuilder = configBuilder.WithReportFormat(reportFormat)
	}

	if logFormat != "" {
		configBuilder = configBuilder.WithLogFormat(logFormat)
	}

	if metricsAddr != "" {
		configBuilder = configBuilder.WithMetricsAddr(metricsAddr)
	}

	return configBuilder.Build()
}

func ResetFlags() {
	cfgFile = ""
	concurrent = false
	verbose = false
	batch = false
	maxRetries = 0
	retryBaseDelay = 0
	retryBackoffIncrement = 0
	pageSize = 0
	maxPoolSize = 0
	aggregateTimeout = 0
	maxPages = 0
	requestTimeout = 0
	userAgent = ""
	baseURL = ""
	reportFormat = ""
	dryRun = false
	logFormat = ""
	strictID = false
	metricsAddr = ""
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetConcurrentForTest(c bool) {
	concurrent = c
}

func SetVerboseForTest(v bool) {
	verbose = v
}

func SetBatchForTest(b bool) {
	batch = b
}

func SetMaxRetriesForTest(n int) {
	maxRetries = n
}

func SetRetryBaseDelayForTest(d time.Duration) {
	retryBaseDelay = d
}

func SetRetryBackoffIncrementForTest(d time.Duration) {
	retryBackoffIncrement = d
}

func SetPageSizeForTest(size int) {
	pageSize = size
}

func SetMaxPoolSizeForTest(size int) {
	maxPoolSize = size
}

func SetAggregateTimeoutForTest(d time.Duration) {
	aggregateTimeout = d
}

func SetMaxPagesForTest(pages int) {
	maxPages = pages
}

func SetRequestTimeoutForTest(d time.Duration) {
	requestTimeout = d
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetBaseURLForTest(u string) {
	baseURL = u
}

func SetReportFormatForTest(format string) {
	reportFormat = format
}

func SetDryRunForTest(dry bool) {
	dryRun = dry
}

func SetLogFormatForTest(format string) {
	logFormat = format
}

func SetStrictIDForTest(strict bool) {
	strictID = strict
}

func SetMetricsAddrForTest(addr string) {
	metricsAddr = addr
}
