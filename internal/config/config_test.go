package config_test

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/review-crawler/internal/config"
)

func TestWithDefault(t *testing.T) {
	cfg := config.WithDefault("B00EXAMPLE")

	if cfg == nil {
		t.Fatal("WithDefault() returned nil")
	}

	builtCfg, err := cfg.Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if builtCfg.Target() != "B00EXAMPLE" {
		t.Errorf("expected target B00EXAMPLE, got %s", builtCfg.Target())
	}
	base := builtCfg.BaseURL()
	if base.String() != "http://www.amazon.com" {
		t.Errorf("expected base url http://www.amazon.com, got %s", base.String())
	}

	// Verify retry defaults
	if builtCfg.MaxRetries() != 10 {
		t.Errorf("expected MaxRetries 10, got %d", builtCfg.MaxRetries())
	}
	if builtCfg.RetryBaseDelay() != 3*time.Second {
		t.Errorf("expected RetryBaseDelay 3s, got %v", builtCfg.RetryBaseDelay())
	}
	if builtCfg.RetryBackoffIncrement() != 5*time.Second {
		t.Errorf("expected RetryBackoffIncrement 5s, got %v", builtCfg.RetryBackoffIncrement())
	}

	// Verify pagination defaults
	if builtCfg.PageSize() != 10 {
		t.Errorf("expected PageSize 10, got %d", builtCfg.PageSize())
	}
	if builtCfg.MaxPoolSize() != 8 {
		t.Errorf("expected MaxPoolSize 8, got %d", builtCfg.MaxPoolSize())
	}
	if builtCfg.AggregateTimeout() != 2*time.Hour {
		t.Errorf("expected AggregateTimeout 2h, got %v", builtCfg.AggregateTimeout())
	}
	if builtCfg.MaxPages() != 1000 {
		t.Errorf("expected MaxPages 1000, got %d", builtCfg.MaxPages())
	}
	if builtCfg.Concurrent() {
		t.Error("expected Concurrent false")
	}

	// Verify other fields
	if builtCfg.UserAgent() != "" {
		t.Errorf("expected empty UserAgent, got '%s'", builtCfg.UserAgent())
	}
	if builtCfg.OutputDir() != "output" {
		t.Errorf("expected OutputDir 'output', got '%s'", builtCfg.OutputDir())
	}
	if builtCfg.ReportFormat() != config.ReportFormatText {
		t.Errorf("expected ReportFormat text, got '%s'", builtCfg.ReportFormat())
	}
	if builtCfg.LogFormat() != config.LogFormatJSON {
		t.Errorf("expected LogFormat json, got '%s'", builtCfg.LogFormat())
	}
	if builtCfg.DryRun() || builtCfg.Verbose() || builtCfg.Batch() || builtCfg.StrictID() {
		t.Error("expected boolean flags to default to false")
	}
	if builtCfg.MetricsAddr() != "" {
		t.Errorf("expected empty MetricsAddr, got %s", builtCfg.MetricsAddr())
	}
}

func TestRetryParam(t *testing.T) {
	cfg, err := config.WithDefault("B00EXAMPLE").
		WithMaxRetries(4).
		WithRetryBaseDelay(time.Second).
		WithRetryBackoffIncrement(2 * time.Second).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	param := cfg.RetryParam()
	if param.MaxAttempts != 4 {
		t.Errorf("expected 4 attempts, got %d", param.MaxAttempts)
	}
	backoff := param.BackoffParam
	if backoff.BaseDelay() != time.Second {
		t.Errorf("expected base delay 1s, got %v", backoff.BaseDelay())
	}
	if backoff.Increment() != 2*time.Second {
		t.Errorf("expected increment 2s, got %v", backoff.Increment())
	}
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"empty target", config.WithDefault("")},
		{"target with slash", config.WithDefault("a/b")},
		{"target with space", config.WithDefault("B00 EXAMPLE")},
		{"target like a flag", config.WithDefault("-v")},
		{"strict id too short", config.WithDefault("B00X").WithStrictID(true)},
		{"zero retries", config.WithDefault("B00EXAMPLE").WithMaxRetries(0)},
		{"negative delay", config.WithDefault("B00EXAMPLE").WithRetryBaseDelay(-time.Second)},
		{"zero page size", config.WithDefault("B00EXAMPLE").WithPageSize(0)},
		{"zero pool", config.WithDefault("B00EXAMPLE").WithMaxPoolSize(0)},
		{"zero aggregate timeout", config.WithDefault("B00EXAMPLE").WithAggregateTimeout(0)},
		{"zero max pages", config.WithDefault("B00EXAMPLE").WithMaxPages(0)},
		{"zero request timeout", config.WithDefault("B00EXAMPLE").WithRequestTimeout(0)},
		{"relative base url", config.WithDefault("B00EXAMPLE").WithBaseURL(url.URL{Path: "/x"})},
		{"unknown report format", config.WithDefault("B00EXAMPLE").WithReportFormat("pdf")},
		{"unknown log format", config.WithDefault("B00EXAMPLE").WithLogFormat("xml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Build()
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestBuild_BatchSkipsIDValidation(t *testing.T) {
	cfg, err := config.WithDefault("tasks/list.txt").WithBatch(true).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Target() != "tasks/list.txt" || !cfg.Batch() {
		t.Errorf("unexpected batch config: %s %v", cfg.Target(), cfg.Batch())
	}
}

func TestValidateResourceID(t *testing.T) {
	tests := []struct {
		id      string
		strict  bool
		wantErr bool
	}{
		{"B00EXAMPLE", false, false},
		{"B00EXAMPLE", true, false},
		{"anything-goes_1", false, false},
		{"anything-goes_1", true, true},
		{"b00example", true, true},
		{"", false, true},
		{"..", false, true},
		{"a?b", false, true},
		{"a#b", false, true},
		{"a\tb", false, true},
	}

	for _, tt := range tests {
		err := config.ValidateResourceID(tt.id, tt.strict)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateResourceID(%q, %v) error = %v, wantErr %v", tt.id, tt.strict, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, config.ErrInvalidResourceID) {
			t.Errorf("expected ErrInvalidResourceID, got %v", err)
		}
	}
}

func TestWithConfigFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"target": "B00FROMFILE",
		"maxRetries": 3,
		"retryBaseDelay": "1s",
		"retryBackoffIncrement": "250ms",
		"concurrent": true,
		"maxPoolSize": 4,
		"aggregateTimeout": "5m",
		"userAgent": "review-crawler-test",
		"reportFormat": "markdown"
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.WithConfigFile(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Target() != "B00FROMFILE" {
		t.Errorf("expected target from file, got %s", cfg.Target())
	}
	if cfg.MaxRetries() != 3 {
		t.Errorf("expected MaxRetries 3, got %d", cfg.MaxRetries())
	}
	if cfg.RetryBaseDelay() != time.Second {
		t.Errorf("expected RetryBaseDelay 1s, got %v", cfg.RetryBaseDelay())
	}
	if cfg.RetryBackoffIncrement() != 250*time.Millisecond {
		t.Errorf("expected RetryBackoffIncrement 250ms, got %v", cfg.RetryBackoffIncrement())
	}
	if !cfg.Concurrent() {
		t.Error("expected Concurrent true")
	}
	if cfg.MaxPoolSize() != 4 {
		t.Errorf("expected MaxPoolSize 4, got %d", cfg.MaxPoolSize())
	}
	if cfg.AggregateTimeout() != 5*time.Minute {
		t.Errorf("expected AggregateTimeout 5m, got %v", cfg.AggregateTimeout())
	}
	if cfg.UserAgent() != "review-crawler-test" {
		t.Errorf("unexpected UserAgent %s", cfg.UserAgent())
	}
	if cfg.ReportFormat() != config.ReportFormatMarkdown {
		t.Errorf("expected markdown, got %s", cfg.ReportFormat())
	}
	// untouched fields keep their defaults
	if cfg.PageSize() != 10 {
		t.Errorf("expected default PageSize 10, got %d", cfg.PageSize())
	}
}

func TestWithConfigFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "baseUrl: https://www.amazon.co.uk\nmaxPages: 25\nrequestTimeout: 7s\nlogFormat: console\nstrictId: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.WithConfigFile(path, "B00EXAMPLE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := cfg.BaseURL()
	if base.Host != "www.amazon.co.uk" || base.Scheme != "https" {
		t.Errorf("unexpected base url %s", base.String())
	}
	if cfg.MaxPages() != 25 {
		t.Errorf("expected MaxPages 25, got %d", cfg.MaxPages())
	}
	if cfg.RequestTimeout() != 7*time.Second {
		t.Errorf("expected RequestTimeout 7s, got %v", cfg.RequestTimeout())
	}
	if cfg.LogFormat() != config.LogFormatConsole {
		t.Errorf("expected console, got %s", cfg.LogFormat())
	}
	if !cfg.StrictID() {
		t.Error("expected StrictID true")
	}
}

func TestWithConfigFile_TargetArgumentWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"target": "B00FROMFILE"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.WithConfigFile(path, "B00FROMARGS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Target() != "B00FROMARGS" {
		t.Errorf("expected B00FROMARGS, got %s", cfg.Target())
	}
}

func TestWithConfigFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.WithConfigFile(filepath.Join(dir, "missing.json"), "B00EXAMPLE")
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Errorf("expected ErrFileDoesNotExist, got %v", err)
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{"maxRetries": `), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = config.WithConfigFile(broken, "B00EXAMPLE")
	if !errors.Is(err, config.ErrConfigParsingFail) {
		t.Errorf("expected ErrConfigParsingFail, got %v", err)
	}

	badDuration := filepath.Join(dir, "duration.yaml")
	if err := os.WriteFile(badDuration, []byte("retryBaseDelay: soon\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = config.WithConfigFile(badDuration, "B00EXAMPLE")
	if !errors.Is(err, config.ErrConfigParsingFail) {
		t.Errorf("expected ErrConfigParsingFail, got %v", err)
	}

	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`{"reportFormat": "pdf"}`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = config.WithConfigFile(invalid, "B00EXAMPLE")
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
