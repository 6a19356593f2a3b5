package facts

import (
	"context"
	"strings"
	"time"

	"github.com/newthinker/insight/internal/collector"
	"github.com/newthinker/insight/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Recorder receives one observation per upstream call.
type Recorder interface {
	RecordFetch(source string, ok bool, duration float64)
}

type nopRecorder struct{}

func (nopRecorder) RecordFetch(string, bool, float64) {}

// Aggregator fans out to every source and shapes the results into a bundle
type Aggregator struct {
	fetcher collector.Fetcher
	sources []Source
	timeout time.Duration
	logger  *zap.Logger
	metrics Recorder
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.metrics = r
		}
	}
}

// WithSources replaces the default source set.
func WithSources(sources []Source) Option {
	return func(a *Aggregator) {
		a.sources = sources
	}
}

// New creates an aggregator over fetcher using the default sources.
func New(fetcher collector.Fetcher, cfg Config, opts ...Option) *Aggregator {
	cfg = cfg.withDefaults()
	a := &Aggregator{
		fetcher: fetcher,
		sources: DefaultSources(cfg),
		timeout: cfg.SourceTimeout,
		logger:  zap.NewNop(),
		metrics: nopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sources returns the configured source names in order.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name
	}
	return names
}

// Aggregate builds a FactBundle for symbol. It never fails: a source that
// errors, times out or returns garbage leaves its field at the default.
func (a *Aggregator) Aggregate(ctx context.Context, symbol string, asOf time.Time) *core.FactBundle {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	bundle := core.NewFactBundle(symbol, asOf)

	results := make([]collector.Outcome, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = a.fetch(gctx, src, symbol, asOf)
			return nil // best-effort: never cancel siblings
		})
	}
	_ = g.Wait()

	for i, src := range a.sources {
		out := results[i]
		bundle.Sources = append(bundle.Sources, core.SourceStatus{Name: src.Name, OK: out.OK()})
		if !out.OK() {
			a.logger.Warn("upstream source failed, using default",
				zap.String("symbol", symbol),
				zap.String("source", src.Name),
				zap.Int("status", collector.StatusCode(out.Err)),
				zap.Error(out.Err),
			)
			continue
		}
		src.Apply(bundle, out.Payload)
	}

	return bundle
}

func (a *Aggregator) fetch(ctx context.Context, src Source, symbol string, asOf time.Time) collector.Outcome {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	out := a.fetcher.Fetch(ctx, src.Path, src.Params(symbol, asOf))
	a.metrics.RecordFetch(src.Name, out.OK(), time.Since(start).Seconds())

	a.logger.Debug("upstream fetch",
		zap.String("source", src.Name),
		zap.String("path", src.Path),
		zap.Bool("ok", out.OK()),
		zap.Duration("took", time.Since(start)),
	)
	return out
}
