package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/nextimage-env/internal/application"
	"github.com/eugenenazirov/nextimage-env/internal/bucket"
	"github.com/eugenenazirov/nextimage-env/internal/config"
	"github.com/eugenenazirov/nextimage-env/internal/env"
	"github.com/eugenenazirov/nextimage-env/internal/fetch"
	"github.com/eugenenazirov/nextimage-env/internal/logging"
	"github.com/eugenenazirov/nextimage-env/internal/metrics"
)

var signalNotify = signal.Notify

var errCheckFailed = errors.New("environment check failed")

type cli struct {
	configFile     *string
	envFiles       *[]string
	port           *string
	logLevel       *string
	rateLimitRPS   *float64
	rateLimitBurst *int

	serve *kingpin.CmdClause

	show       *kingpin.CmdClause
	showFormat *string

	check        *kingpin.CmdClause
	checkRequire *[]string

	fetchCmd    *kingpin.CmdClause
	fetchURL    *string
	fetchMethod *string
	fetchHeader *[]string
	fetchOut    *string

	probe       *kingpin.CmdClause
	probeFormat *string
}

func newCLI() (*kingpin.Application, *cli) {
	app := kingpin.New("nextimage-env", "Inspect and verify the image optimizer environment contract")
	c := &cli{
		configFile:     app.Flag("config", "Path to YAML configuration file").String(),
		envFiles:       app.Flag("env-file", "Dotenv file consulted for variables missing from the process environment (repeatable)").Strings(),
		port:           app.Flag("port", "HTTP port exposed by the service").String(),
		logLevel:       app.Flag("log-level", "Log level (debug, info, warn, error)").String(),
		rateLimitRPS:   app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64(),
		rateLimitBurst: app.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int(),
	}

	c.serve = app.Command("serve", "Serve the environment introspection API").Default()

	c.show = app.Command("show", "Print the environment record")
	c.showFormat = c.show.Flag("format", "Output format").Default("yaml").Enum("yaml", "json", "table")

	c.check = app.Command("check", "Report which variables are set and fail when required ones are absent")
	c.checkRequire = c.check.Flag("require", "Variable that must be present (repeatable)").Strings()

	c.fetchCmd = app.Command("fetch", "Fetch a URL through the configured fetcher")
	c.fetchURL = c.fetchCmd.Arg("url", "Absolute http(s) URL").Required().String()
	c.fetchMethod = c.fetchCmd.Flag("method", "HTTP method").Default(http.MethodGet).String()
	c.fetchHeader = c.fetchCmd.Flag("header", "Request header as Key:Value (repeatable)").Short('H').Strings()
	c.fetchOut = c.fetchCmd.Flag("out", "Write the body to this file instead of stdout").Short('o').String()

	c.probe = app.Command("probe", "Check that the source bucket is reachable")
	c.probeFormat = c.probe.Flag("format", "Output format").Default("json").Enum("yaml", "json")

	return app, c
}

func (c *cli) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: *c.configFile,
		EnvFiles:   *c.envFiles,
	}

	if *c.port != "" {
		overrides.Port = c.port
	}

	if *c.logLevel != "" {
		overrides.LogLevel = c.logLevel
	}

	if *c.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = c.rateLimitRPS
	}

	if *c.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = c.rateLimitBurst
	}

	return overrides
}

func main() {
	app, c := newCLI()
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(c.overrides())
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	if command == c.serve.FullCommand() {
		serve(cfg, logger)
		return
	}

	if err := run(context.Background(), command, c, cfg, env.OSLookup, logger, os.Stdout); err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func serve(cfg config.Config, logger *zap.Logger) {
	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// run executes every command except serve.
func run(ctx context.Context, command string, c *cli, cfg config.Config, lookup env.LookupFunc, logger *zap.Logger, out io.Writer) error {
	record, err := application.LoadRecord(lookup, cfg.EnvFiles)
	if err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	switch command {
	case c.show.FullCommand():
		return renderRecord(out, record, *c.showFormat)
	case c.check.FullCommand():
		return runCheck(out, record, *c.checkRequire)
	case c.fetchCmd.FullCommand():
		fetcher := application.NewFetcher(cfg, logger, nil, nil)
		return runFetch(ctx, out, fetcher, *c.fetchURL, *c.fetchMethod, *c.fetchHeader, *c.fetchOut)
	case c.probe.FullCommand():
		prober := bucket.NewProber(application.LocalBucketOptions(cfg), bucket.WithLogger(logger), bucket.WithMetrics(metrics.New()))
		return runProbe(ctx, out, prober, record, *c.probeFormat)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func runCheck(out io.Writer, record env.Record, required []string) error {
	renderCheckTable(out, record)

	var failures []string
	for _, name := range required {
		key, err := env.ParseKey(name)
		if err != nil {
			failures = append(failures, err.Error())
			continue
		}
		if _, err := record.Require(key); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%w: %s", errCheckFailed, strings.Join(failures, "; "))
	}
	return nil
}

func runFetch(ctx context.Context, out io.Writer, fetcher fetch.Fetcher, rawURL, method string, headers []string, outPath string) error {
	opts := []fetch.Option{fetch.WithMethod(method)}
	for _, h := range headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("invalid header %q, expected Key:Value", h)
		}
		opts = append(opts, fetch.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value)))
	}

	resp, err := fetcher.Fetch(ctx, rawURL, opts...)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Close()
	}()

	if outPath == "" {
		if _, err := io.Copy(out, resp.Body); err != nil {
			return fmt.Errorf("copy response body: %w", err)
		}
	} else if err := writeFile(outPath, resp.Body); err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// writeFile copies body into path and reports write and close failures.
func writeFile(path string, body io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return fmt.Errorf("copy response body: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func runProbe(ctx context.Context, out io.Writer, prober *bucket.Prober, record env.Record, format string) error {
	result, err := prober.Probe(ctx, record)
	if err != nil {
		return err
	}
	if err := renderValue(out, result, format); err != nil {
		return err
	}
	if !result.Reachable {
		return fmt.Errorf("source bucket %s unreachable: %s", result.Bucket, result.Error)
	}
	return nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
