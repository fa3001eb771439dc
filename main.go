package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"codir/internal/browser"
	"codir/internal/company"
	"codir/internal/config"
	"codir/internal/formatter"
	"codir/internal/logging"
	"codir/internal/monitoring"
	"codir/internal/scraper"
	"codir/internal/server"
	_ "codir/internal/sites/ycombinator"
)

var version = "dev"

var (
	count          int
	filters        []string
	requestJSON    string
	outputFormat   string
	outputFile     string
	timeout        time.Duration
	site           string
	baseURL        string
	scrollInterval time.Duration
	maxScrolls     int
	showUI         bool
	proxyURL       string
	chromeBin      string
	port           string
	maxSessions    int
)

var logger = logging.NewCLILogger()

func main() {
	config.LoadEnv(logger)
	logger.SetLevel(config.GetLogLevel())
	cfg := config.Load()

	var rootCmd = &cobra.Command{
		Use:     "codir",
		Short:   "Scrape a JavaScript rendered company directory into CSV",
		Version: version,
		Long: `codir drives a headless browser through an infinite-scroll company
directory, opens every listed company's detail page and exports the
collected records (name, location, description, batch, website, founders
and their LinkedIn profiles) as CSV or another tabular format.`,
		Example: `  # First 20 fintech companies as CSV on stdout
  codir -n 20 --filter industry=Fintech

  # Several batches, written to a Markdown file
  codir -n 50 --filter batch=W21 --filter batch=S21 -o companies.md

  # Raw request payload, as accepted by the HTTP service
  codir --request '{"n": 5, "filters": {"industry": "B2B"}}' -f json

  # Serve searches over HTTP
  codir serve --port 8080 --max-sessions 2`,
		Args:         cobra.NoArgs,
		RunE:         run,
		SilenceUsage: true,
	}

	addBrowserFlags(rootCmd, cfg)
	rootCmd.Flags().IntVarP(&count, "count", "n", 0, "Number of companies to return (must be greater than 0)")
	rootCmd.Flags().StringArrayVar(&filters, "filter", nil, "Directory filter as key=value (repeatable)")
	rootCmd.Flags().StringVar(&requestJSON, "request", "", `Raw JSON request, e.g. '{"count": 5, "filters": {"industry": "Fintech"}}' (overrides -n and --filter)`)
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format (csv, json, markdown, html, text); inferred from -o, default csv")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")

	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve directory searches over HTTP",
		Args:         cobra.NoArgs,
		RunE:         serve,
		SilenceUsage: true,
	}
	addBrowserFlags(serveCmd, cfg)
	serveCmd.Flags().StringVar(&port, "port", cfg.Port, "Listen port")
	serveCmd.Flags().IntVar(&maxSessions, "max-sessions", cfg.MaxSessions, "Maximum concurrent browser sessions")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addBrowserFlags(cmd *cobra.Command, cfg config.Config) {
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", cfg.WaitTimeout, "How long to wait for a page to render")
	cmd.Flags().StringVar(&site, "site", "ycombinator", fmt.Sprintf("Directory site (%s)", strings.Join(scraper.Names(), ", ")))
	cmd.Flags().StringVar(&baseURL, "base-url", cfg.BaseURL, "Listing page URL")
	cmd.Flags().DurationVar(&scrollInterval, "scroll-interval", cfg.ScrollInterval, "Settle time after each scroll to the bottom")
	cmd.Flags().IntVar(&maxScrolls, "max-scrolls", cfg.MaxScrolls, "Give up scrolling after this many rounds (0 for no limit)")
	cmd.Flags().BoolVar(&showUI, "showui", !cfg.Headless, "Show browser UI (disable headless mode)")
	cmd.Flags().StringVarP(&proxyURL, "proxy", "p", cfg.ProxyURL, "Proxy URL (e.g. http://127.0.0.1:7890)")
	cmd.Flags().StringVar(&chromeBin, "chrome-bin", cfg.ChromeBin, "Chrome/Chromium binary (downloaded automatically when empty)")
}

func run(cmd *cobra.Command, args []string) error {
	if outputFile != "" && outputFormat == "" {
		outputFormat = formatter.InferFormat(outputFile)
	}
	if outputFormat == "" {
		outputFormat = "csv"
	}

	if err := validateFlags(); err != nil {
		return err
	}

	orch, err := newOrchestrator(logger, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spin := startSpinner()
	if spin != nil {
		// progress lines would fight the spinner for stderr
		if logger.GetLevel() == logrus.InfoLevel {
			logger.SetLevel(logrus.WarnLevel)
		}
		orch.Observer = func(_, to scraper.State) {
			spin.Lock()
			spin.Suffix = " " + strings.ReplaceAll(to.String(), "_", " ")
			spin.Unlock()
		}
	}

	var set *company.RecordSet
	if requestJSON != "" {
		set, err = orch.ScrapeJSON(ctx, []byte(requestJSON))
	} else {
		var values url.Values
		values, err = parseFilters(filters)
		if err == nil {
			set, err = orch.Scrape(ctx, scraper.Request{Count: count, Filters: values})
		}
	}
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return errors.New(scraper.Message(err))
	}

	out, err := formatter.Format(formatter.NewRecordContent(set), outputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		logger.WithFields(logging.Fields{"file": outputFile, "records": set.Len()}).Info("Output written")
		return nil
	}
	fmt.Print(out)
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	svcLogger := logging.NewLogger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orch, err := newOrchestrator(svcLogger, monitoring.NewMetrics(reg))
	if err != nil {
		return err
	}

	cfg := config.Load()
	cfg.Port = port
	cfg.MaxSessions = maxSessions
	srvCfg := server.DefaultConfig(cfg)

	h := server.NewHandler(orch, srvCfg.MaxSessions, svcLogger)
	router := server.SetupRouter(svcLogger, h, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Start(ctx, srvCfg, router, svcLogger)
}

func newOrchestrator(log logging.Logger, metrics *monitoring.Metrics) (*scraper.Orchestrator, error) {
	s, ok := scraper.Get(site, baseURL)
	if !ok {
		return nil, fmt.Errorf("unknown site: %s", site)
	}
	return &scraper.Orchestrator{
		Site: s,
		Open: scraper.BrowserOpener(browser.Config{
			Headless: !showUI,
			ProxyURL: proxyURL,
			BinPath:  chromeBin,
		}),
		Scroller:    scraper.Scroller{Interval: scrollInterval, MaxRounds: maxScrolls},
		WaitTimeout: timeout,
		Logger:      log,
		Metrics:     metrics,
	}, nil
}

func validateFlags() error {
	if !formatter.Valid(outputFormat) {
		return fmt.Errorf("invalid output format: %s", outputFormat)
	}
	if timeout <= 0 {
		return fmt.Errorf("--timeout must be positive")
	}
	if scrollInterval < 0 {
		return fmt.Errorf("--scroll-interval must not be negative")
	}
	if requestJSON != "" && (count != 0 || len(filters) > 0) {
		return fmt.Errorf("--request cannot be combined with -n or --filter")
	}
	return nil
}

// parseFilters turns repeated key=value flags into query values.
func parseFilters(raw []string) (url.Values, error) {
	values := url.Values{}
	for _, f := range raw {
		key, value, ok := strings.Cut(f, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --filter %q, expected key=value", f)
		}
		values.Add(key, strings.TrimSpace(value))
	}
	return values, nil
}

// startSpinner shows progress on stderr when it is a terminal.
func startSpinner() *spinner.Spinner {
	fi, err := os.Stderr.Stat()
	if err != nil || fi.Mode()&os.ModeCharDevice == 0 {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " starting browser"
	s.Start()
	return s
}
