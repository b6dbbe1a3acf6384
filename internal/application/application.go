package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/nextimage-env/internal/api"
	"github.com/eugenenazirov/nextimage-env/internal/bucket"
	"github.com/eugenenazirov/nextimage-env/internal/config"
	"github.com/eugenenazirov/nextimage-env/internal/env"
	"github.com/eugenenazirov/nextimage-env/internal/fetch"
	"github.com/eugenenazirov/nextimage-env/internal/metrics"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	record  env.Record
	fetcher fetch.Fetcher
	prober  *bucket.Prober
	metrics *metrics.Metrics
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// Option configures New.
type Option func(*options)

type options struct {
	lookup  env.LookupFunc
	factory bucket.ClientFactory
	client  *http.Client
}

// WithLookup replaces the process environment as the record source.
func WithLookup(lookup env.LookupFunc) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// WithClientFactory overrides the S3 client factory used by the prober.
func WithClientFactory(factory bucket.ClientFactory) Option {
	return func(o *options) {
		o.factory = factory
	}
}

// WithHTTPClient overrides the client used by the fetcher.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := options{lookup: env.OSLookup}
	for _, opt := range opts {
		opt(&o)
	}

	record, err := LoadRecord(o.lookup, cfg.EnvFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	m := metrics.New()
	fetcher := NewFetcher(cfg, logger, m, o.client)

	proberOpts := []bucket.Option{bucket.WithLogger(logger), bucket.WithMetrics(m)}
	if o.factory != nil {
		proberOpts = append(proberOpts, bucket.WithClientFactory(o.factory))
	}
	prober := bucket.NewProber(LocalBucketOptions(cfg), proberOpts...)

	handler := api.NewHandler(record, prober)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithMetricsHandler(m.Handler()),
	)

	logger.Info("environment loaded",
		zap.Strings("present", keyNames(record.Present())),
		zap.Strings("missing", keyNames(record.Missing())),
		zap.Bool("use_local_bucket", record.UseLocalBucket()),
	)

	return &App{
		record:  record,
		fetcher: fetcher,
		prober:  prober,
		metrics: m,
		handler: handler,
		router:  router,
		logger:  logger,
		server:  NewServer(cfg, router),
	}, nil
}

// LoadRecord captures the environment record from lookup, falling back to
// the given dotenv files for keys lookup does not define.
func LoadRecord(lookup env.LookupFunc, envFiles []string) (env.Record, error) {
	fileLookup, err := env.FileLookup(envFiles...)
	if err != nil {
		return env.Record{}, err
	}
	return env.Load(env.Chain(lookup, fileLookup)), nil
}

// NewFetcher builds the HTTP fetcher from cfg. A nil client uses a default
// client.
func NewFetcher(cfg config.Config, logger *zap.Logger, m *metrics.Metrics, client *http.Client) *fetch.HTTPFetcher {
	return fetch.NewHTTPFetcher(
		fetch.WithClient(client),
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
		fetch.WithRateLimit(cfg.Fetch.RateLimit, cfg.Fetch.Burst),
		fetch.WithLogger(logger),
		fetch.WithMetrics(m),
	)
}

// LocalBucketOptions maps the local bucket settings to prober options.
func LocalBucketOptions(cfg config.Config) bucket.LocalOptions {
	return bucket.LocalOptions{
		Endpoint:  cfg.LocalBucket.Endpoint,
		Region:    cfg.LocalBucket.Region,
		AccessKey: cfg.LocalBucket.AccessKey,
		SecretKey: cfg.LocalBucket.SecretKey,
	}
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Record returns the environment record captured at start-up.
func (a *App) Record() env.Record {
	return a.record
}

// Fetcher returns the application's fetch capability.
func (a *App) Fetcher() fetch.Fetcher {
	return a.fetcher
}

// Prober returns the source bucket prober.
func (a *App) Prober() *bucket.Prober {
	return a.prober
}

func keyNames(keys []env.Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}
