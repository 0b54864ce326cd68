package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohmanhakim/review-crawler/pkg/retry"
	"github.com/rohmanhakim/review-crawler/pkg/timeutil"
	"gopkg.in/yaml.v3"
)

const (
	ReportFormatText     = "text"
	ReportFormatMarkdown = "markdown"
	ReportFormatHTML     = "html"

	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

type Config struct {
	//===============
	//  Crawl scope
	//===============
	// Resource id (ASIN) to crawl, or the path of a task file when batch is set.
	target string
	// Treat target as a task file of "ASIN::name" lines.
	batch bool
	// Scheme and host every product and review URL is built on.
	baseURL url.URL
	// Require ids to have the 10-character ASIN shape.
	strictID bool

	//===============
	// Retry
	//===============
	// Total fetch attempts per URL, the first one included.
	maxRetries int
	// Delay before the first retry.
	retryBaseDelay time.Duration
	// Added to the delay for every further retry.
	retryBackoffIncrement time.Duration

	//===============
	// Pagination
	//===============
	// Use the fan-out aggregator instead of the sequential paginator.
	concurrent bool
	// Records per listing page, used to derive the page count.
	pageSize int
	// Upper bound on concurrent page workers.
	maxPoolSize int
	// Wall-clock budget of one fan-out aggregation.
	aggregateTimeout time.Duration
	// Hard stop for the sequential paginator.
	maxPages int

	//===============
	// Fetch
	//===============
	// Maximum time of a single HTTP request.
	requestTimeout time.Duration
	// User agent sent with every request. Empty sends none.
	userAgent string

	//===============
	// Output
	//===============
	// Root directory the reports are written under.
	outputDir string
	// text, markdown or html.
	reportFormat string
	// Run everything except the filesystem writes.
	dryRun bool

	//===============
	// Observability
	//===============
	verbose   bool
	logFormat string
	// Address to serve /metrics on. Empty disables the listener.
	metricsAddr string
}

type configDTO struct {
	Target                string   `json:"target,omitempty" yaml:"target,omitempty"`
	Batch                 bool     `json:"batch,omitempty" yaml:"batch,omitempty"`
	BaseURL               string   `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	StrictID              bool     `json:"strictId,omitempty" yaml:"strictId,omitempty"`
	MaxRetries            int      `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	RetryBaseDelay        duration `json:"retryBaseDelay,omitempty" yaml:"retryBaseDelay,omitempty"`
	RetryBackoffIncrement duration `json:"retryBackoffIncrement,omitempty" yaml:"retryBackoffIncrement,omitempty"`
	Concurrent            bool     `json:"concurrent,omitempty" yaml:"concurrent,omitempty"`
	PageSize              int      `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`
	MaxPoolSize           int      `json:"maxPoolSize,omitempty" yaml:"maxPoolSize,omitempty"`
	AggregateTimeout      duration `json:"aggregateTimeout,omitempty" yaml:"aggregateTimeout,omitempty"`
	MaxPages              int      `json:"maxPages,omitempty" yaml:"maxPages,omitempty"`
	RequestTimeout        duration `json:"requestTimeout,omitempty" yaml:"requestTimeout,omitempty"`
	UserAgent             string   `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	OutputDir             string   `json:"outputDir,omitempty" yaml:"outputDir,omitempty"`
	ReportFormat          string   `json:"reportFormat,omitempty" yaml:"reportFormat,omitempty"`
	DryRun                bool     `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
	Verbose               bool     `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	LogFormat             string   `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	MetricsAddr           string   `json:"metricsAddr,omitempty" yaml:"metricsAddr,omitempty"`
}

func newConfigFromDTO(dto configDTO, target string) (Config, error) {
	if target == "" {
		target = dto.Target
	}
	cfg := WithDefault(target)

	if dto.BaseURL != "" {
		u, err := url.Parse(dto.BaseURL)
		if err != nil {
			return Config{}, fmt.Errorf("%w: baseUrl: %s", ErrInvalidConfig, err.Error())
		}
		cfg.WithBaseURL(*u)
	}

	// Only override if a non-zero value is provided
	if dto.MaxRetries != 0 {
		cfg.maxRetries = dto.MaxRetries
	}
	if dto.RetryBaseDelay != 0 {
		cfg.retryBaseDelay = time.Duration(dto.RetryBaseDelay)
	}
	if dto.RetryBackoffIncrement != 0 {
		cfg.retryBackoffIncrement = time.Duration(dto.RetryBackoffIncrement)
	}
	if dto.PageSize != 0 {
		cfg.pageSize = dto.PageSize
	}
	if dto.MaxPoolSize != 0 {
		cfg.maxPoolSize = dto.MaxPoolSize
	}
	if dto.AggregateTimeout != 0 {
		cfg.aggregateTimeout = time.Duration(dto.AggregateTimeout)
	}
	if dto.MaxPages != 0 {
		cfg.maxPages = dto.MaxPages
	}
	if dto.RequestTimeout != 0 {
		cfg.requestTimeout = time.Duration(dto.RequestTimeout)
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}
	if dto.ReportFormat != "" {
		cfg.reportFormat = dto.ReportFormat
	}
	if dto.LogFormat != "" {
		cfg.logFormat = dto.LogFormat
	}
	if dto.MetricsAddr != "" {
		cfg.metricsAddr = dto.MetricsAddr
	}
	cfg.batch = dto.Batch
	cfg.strictID = dto.StrictID
	cfg.concurrent = dto.Concurrent
	cfg.dryRun = dto.DryRun
	cfg.verbose = dto.Verbose

	return cfg.Build()
}

// WithConfigFile loads a JSON or YAML file, picked by extension. A non-empty
// target replaces the one in the file.
func WithConfigFile(path string, target string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(configContent, &cfgDTO)
	default:
		err = json.Unmarshal(configContent, &cfgDTO)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO, target)
}

// WithDefault creates a new Config for the given target with default values
// for all other fields. target is mandatory; Build rejects an empty one.
func WithDefault(target string) *Config {
	defaultConfig := Config{
		target:                target,
		baseURL:               url.URL{Scheme: "http", Host: "www.amazon.com"},
		maxRetries:            10,
		retryBaseDelay:        3 * time.Second,
		retryBackoffIncrement: 5 * time.Second,
		pageSize:              10,
		maxPoolSize:           8,
		aggregateTimeout:      2 * time.Hour,
		maxPages:              1000,
		requestTimeout:        30 * time.Second,
		userAgent:             "",
		outputDir:             "output",
		reportFormat:          ReportFormatText,
		logFormat:             LogFormatJSON,
	}
	return &defaultConfig
}

func (c *Config) WithTarget(target string) *Config {
	c.target = target
	return c
}

func (c *Config) WithBatch(batch bool) *Config {
	c.batch = batch
	return c
}

func (c *Config) WithBaseURL(base url.URL) *Config {
	c.baseURL = base
	return c
}

func (c *Config) WithStrictID(strict bool) *Config {
	c.strictID = strict
	return c
}

func (c *Config) WithMaxRetries(attempts int) *Config {
	c.maxRetries = attempts
	return c
}

func (c *Config) WithRetryBaseDelay(delay time.Duration) *Config {
	c.retryBaseDelay = delay
	return c
}

func (c *Config) WithRetryBackoffIncrement(increment time.Duration) *Config {
	c.retryBackoffIncrement = increment
	return c
}

func (c *Config) WithConcurrent(concurrent bool) *Config {
	c.concurrent = concurrent
	return c
}

func (c *Config) WithPageSize(size int) *Config {
	c.pageSize = size
	return c
}

func (c *Config) WithMaxPoolSize(size int) *Config {
	c.maxPoolSize = size
	return c
}

func (c *Config) WithAggregateTimeout(timeout time.Duration) *Config {
	c.aggregateTimeout = timeout
	return c
}

func (c *Config) WithMaxPages(pages int) *Config {
	c.maxPages = pages
	return c
}

func (c *Config) WithRequestTimeout(timeout time.Duration) *Config {
	c.requestTimeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithReportFormat(format string) *Config {
	c.reportFormat = format
	return c
}

func (c *Config) WithDryRun(dryRun bool) *Config {
	c.dryRun = dryRun
	return c
}

func (c *Config) WithVerbose(verbose bool) *Config {
	c.verbose = verbose
	return c
}

func (c *Config) WithLogFormat(format string) *Config {
	c.logFormat = format
	return c
}

func (c *Config) WithMetricsAddr(addr string) *Config {
	c.metricsAddr = addr
	return c
}

func (c *Config) Build() (Config, error) {
	if c.target == "" {
		return Config{}, fmt.Errorf("%w: target cannot be empty", ErrInvalidConfig)
	}
	if !c.batch {
		if err := ValidateResourceID(c.target, c.strictID); err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
		}
	}
	if c.baseURL.Scheme == "" || c.baseURL.Host == "" {
		return Config{}, fmt.Errorf("%w: baseUrl must be absolute", ErrInvalidConfig)
	}
	if c.maxRetries < 1 {
		return Config{}, fmt.Errorf("%w: maxRetries must be at least 1", ErrInvalidConfig)
	}
	if c.retryBaseDelay < 0 || c.retryBackoffIncrement < 0 {
		return Config{}, fmt.Errorf("%w: retry delays cannot be negative", ErrInvalidConfig)
	}
	if c.pageSize < 1 {
		return Config{}, fmt.Errorf("%w: pageSize must be positive", ErrInvalidConfig)
	}
	if c.maxPoolSize < 1 {
		return Config{}, fmt.Errorf("%w: maxPoolSize must be positive", ErrInvalidConfig)
	}
	if c.aggregateTimeout <= 0 {
		return Config{}, fmt.Errorf("%w: aggregateTimeout must be positive", ErrInvalidConfig)
	}
	if c.maxPages < 1 {
		return Config{}, fmt.Errorf("%w: maxPages must be positive", ErrInvalidConfig)
	}
	if c.requestTimeout <= 0 {
		return Config{}, fmt.Errorf("%w: requestTimeout must be positive", ErrInvalidConfig)
	}
	switch c.reportFormat {
	case ReportFormatText, ReportFormatMarkdown, ReportFormatHTML:
	default:
		return Config{}, fmt.Errorf("%w: unknown report format %q", ErrInvalidConfig, c.reportFormat)
	}
	switch c.logFormat {
	case LogFormatJSON, LogFormatConsole:
	default:
		return Config{}, fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.logFormat)
	}
	return *c, nil
}

func (c Config) Target() string {
	return c.target
}

func (c Config) Batch() bool {
	return c.batch
}

func (c Config) BaseURL() url.URL {
	return c.baseURL
}

func (c Config) StrictID() bool {
	return c.strictID
}

func (c Config) MaxRetries() int {
	return c.maxRetries
}

func (c Config) RetryBaseDelay() time.Duration {
	return c.retryBaseDelay
}

func (c Config) RetryBackoffIncrement() time.Duration {
	return c.retryBackoffIncrement
}

func (c Config) BackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(c.retryBaseDelay, c.retryBackoffIncrement)
}

func (c Config) RetryParam() retry.RetryParam {
	return retry.NewRetryParam(c.maxRetries, c.BackoffParam())
}

func (c Config) Concurrent() bool {
	return c.concurrent
}

func (c Config) PageSize() int {
	return c.pageSize
}

func (c Config) MaxPoolSize() int {
	return c.maxPoolSize
}

func (c Config) AggregateTimeout() time.Duration {
	return c.aggregateTimeout
}

func (c Config) MaxPages() int {
	return c.maxPages
}

func (c Config) RequestTimeout() time.Duration {
	return c.requestTimeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) ReportFormat() string {
	return c.reportFormat
}

func (c Config) DryRun() bool {
	return c.dryRun
}

func (c Config) Verbose() bool {
	return c.verbose
}

func (c Config) LogFormat() string {
	return c.logFormat
}

func (c Config) MetricsAddr() string {
	return c.metricsAddr
}
