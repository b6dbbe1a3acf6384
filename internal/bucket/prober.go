package bucket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/eugenenazirov/nextimage-env/internal/env"
	"github.com/eugenenazirov/nextimage-env/internal/metrics"
)

var (
	// ErrNoSourceBucket is returned when TF_NEXTIMAGE_SOURCE_BUCKET is absent
	// or empty.
	ErrNoSourceBucket = errors.New("source bucket is not configured")
	// ErrNoLocalEndpoint is returned when the local bucket is requested but
	// no endpoint is configured.
	ErrNoLocalEndpoint = errors.New("local bucket endpoint is not configured")
)

// Result describes one probe.
type Result struct {
	Bucket    string    `json:"bucket" yaml:"bucket"`
	Local     bool      `json:"local" yaml:"local"`
	Endpoint  string    `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Reachable bool      `json:"reachable" yaml:"reachable"`
	CheckedAt time.Time `json:"checkedAt" yaml:"checked_at"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Prober checks source bucket reachability.
type Prober struct {
	factory ClientFactory
	local   LocalOptions
	logger  *zap.Logger
	metrics *metrics.Metrics
	clock   func() time.Time

	mu           sync.Mutex
	remoteClient HeadBucketAPI
	localClient  HeadBucketAPI
}

// Option configures a Prober.
type Option func(*Prober)

// WithClientFactory overrides the S3 client factory, primarily for tests.
func WithClientFactory(factory ClientFactory) Option {
	return func(p *Prober) {
		p.factory = factory
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics attaches probe metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Prober) {
		p.metrics = m
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(p *Prober) {
		p.clock = clock
	}
}

// NewProber constructs a Prober using local for debug-mode probes.
func NewProber(local LocalOptions, opts ...Option) *Prober {
	p := &Prober{
		factory: AWSClientFactory{},
		local:   local,
		logger:  zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe issues HeadBucket against the bucket named in rec. It returns
// ErrNoSourceBucket without contacting S3 when the bucket is absent. An
// unreachable bucket is reported in the Result, not as an error.
func (p *Prober) Probe(ctx context.Context, rec env.Record) (Result, error) {
	bucket, ok := rec.SourceBucket()
	if !ok || bucket == "" {
		p.metrics.ObserveProbe("unconfigured")
		return Result{}, ErrNoSourceBucket
	}

	result := Result{
		Bucket: bucket,
		Local:  rec.UseLocalBucket(),
	}

	if result.Local {
		result.Endpoint = p.local.Endpoint
	}

	client, err := p.client(ctx, result.Local)
	if err != nil {
		p.metrics.ObserveProbe("error")
		return Result{}, fmt.Errorf("build S3 client: %w", err)
	}

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	result.CheckedAt = p.clock()
	if err != nil {
		result.Error = err.Error()
		p.metrics.ObserveProbe("unreachable")
		p.logger.Warn("source bucket unreachable",
			zap.String("bucket", bucket),
			zap.Bool("local", result.Local),
			zap.Error(err),
		)
		return result, nil
	}

	result.Reachable = true
	p.metrics.ObserveProbe("ok")
	p.logger.Info("source bucket reachable",
		zap.String("bucket", bucket),
		zap.Bool("local", result.Local),
	)
	return result, nil
}

// client returns the cached S3 client for the mode, building it on first
// use. Failed builds are not cached.
func (p *Prober) client(ctx context.Context, local bool) (HeadBucketAPI, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if local {
		if p.localClient == nil {
			c, err := p.factory.Local(ctx, p.local)
			if err != nil {
				return nil, err
			}
			p.localClient = c
		}
		return p.localClient, nil
	}

	if p.remoteClient == nil {
		c, err := p.factory.Remote(ctx)
		if err != nil {
			return nil, err
		}
		p.remoteClient = c
	}
	return p.remoteClient, nil
}
