package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rohmanhakim/review-crawler/internal/config"
	"github.com/rohmanhakim/review-crawler/internal/metadata"
	"github.com/rohmanhakim/review-crawler/internal/scheduler"
)

// run crawls what cfg describes and prints a per-product summary to out.
// Logs go to logOut.
func run(ctx context.Context, cfg config.Config, out io.Writer, logOut io.Writer) error {
	logger := metadata.NewLogger(metadata.LoggerConfig{
		Verbose: cfg.Verbose(),
		Format:  metadata.LogFormat(cfg.LogFormat()),
		Output:  logOut,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metadata.NewRecorder(logger, metadata.NewMetrics(reg))

	if cfg.MetricsAddr() != "" {
		stopMetrics, err := serveMetrics(cfg.MetricsAddr(), reg)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	s, err := scheduler.NewScheduler(cfg, recorder, recorder)
	if err != nil {
		return err
	}

	execution, err := s.ExecuteCrawling(ctx)
	printSummary(out, cfg, execution)
	return err
}

// serveMetrics exposes reg on addr/metrics until the returned func is called.
func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("metrics server: %v\n", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}

func printSummary(out io.Writer, cfg config.Config, execution scheduler.CrawlingExecution) {
	for _, line := range execution.SkippedLines {
		fmt.Fprintf(out, "Skipped line %d of %s: invalid ASIN\n", line, cfg.Target())
	}
	for _, crawl := range execution.Crawls {
		if !crawl.Found {
			fmt.Fprintf(out, "%s: product not found, skipped\n", crawl.Product.ASIN)
			continue
		}
		fmt.Fprintf(out, "%s (%s): %d reviews from %d pages in %s",
			crawl.Product.ASIN,
			crawl.Product.Name,
			crawl.Reviews.Len(),
			crawl.PagesFetched,
			crawl.Elapsed.Round(time.Millisecond),
		)
		if len(crawl.MissingPages) > 0 {
			fmt.Fprintf(out, ", incomplete: pages %v missing", crawl.MissingPages)
		}
		if cfg.DryRun() {
			fmt.Fprintf(out, " (dry run)")
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Done in %s\n", execution.Duration.Round(time.Millisecond))
}

// RunForTest exposes run to tests.
func RunForTest(ctx context.Context, cfg config.Config, out io.Writer, logOut io.Writer) error {
	return run(ctx, cfg, out, logOut)
}
