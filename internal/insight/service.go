// Package insight runs the explain pipeline: gather facts, generate a
// narrative, validate it.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/metrics"
	"github.com/newthinker/insight/internal/narrative"
	"github.com/newthinker/insight/internal/storage/archive"
	"go.uber.org/zap"
)

// Explainer produces a validated narrative for a symbol.
type Explainer interface {
	Explain(ctx context.Context, symbol string) (*core.NarrativeDocument, error)
}

// FactSource builds the fact bundle. It never fails.
type FactSource interface {
	Aggregate(ctx context.Context, symbol string, asOf time.Time) *core.FactBundle
}

// Generator produces raw model output for a bundle.
type Generator interface {
	Provider() string
	Generate(ctx context.Context, bundle *core.FactBundle, schema *narrative.Schema) (string, error)
}

// Recorder receives pipeline metrics.
type Recorder interface {
	RecordInsight(outcome string, duration float64)
	RecordGeneration(provider string, ok bool, duration float64)
	RecordArchive(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordInsight(string, float64) {}

func (nopRecorder) RecordGeneration(string, bool, float64) {}

func (nopRecorder) RecordArchive(bool) {}

const archiveTimeout = 5 * time.Second

// Service is the default Explainer.
type Service struct {
	facts   FactSource
	gen     Generator
	schema  *narrative.Schema
	archive *archive.Archive
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics Recorder
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithArchive enables transcript archiving.
func WithArchive(a *archive.Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithClock overrides the time source used for the bundle's asOf.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTimeout bounds a whole Explain call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithSchema overrides the narrative schema.
func WithSchema(schema *narrative.Schema) Option {
	return func(s *Service) {
		if schema != nil {
			s.schema = schema
		}
	}
}

// New creates a service.
func New(facts FactSource, gen Generator, opts ...Option) *Service {
	s := &Service{
		facts:   facts,
		gen:     gen,
		schema:  narrative.SchemaV1,
		timeout: 45 * time.Second,
		now:     time.Now,
		logger:  zap.NewNop(),
		metrics: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Explain gathers facts for symbol and returns a validated narrative.
// An empty symbol fails with core.ErrInvalidSymbol before any I/O.
// Upstream failures only thin out the facts; generation and validation
// failures return core.ErrGeneration.
func (s *Service) Explain(ctx context.Context, symbol string) (*core.NarrativeDocument, error) {
	start := time.Now()

	sym, err := core.NormalizeSymbol(symbol)
	if err != nil {
		s.metrics.RecordInsight(Outcome(err), time.Since(start).Seconds())
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	bundle := s.facts.Aggregate(ctx, sym, s.now())

	genStart := time.Now()
	raw, err := s.gen.Generate(ctx, bundle, s.schema)
	s.metrics.RecordGeneration(s.gen.Provider(), err == nil, time.Since(genStart).Seconds())

	var doc *core.NarrativeDocument
	if err == nil {
		doc, err = narrative.Validate(raw, s.schema, bundle)
	}

	s.saveTranscript(ctx, bundle, raw, doc, err, time.Since(start))

	outcome := Outcome(err)
	s.metrics.RecordInsight(outcome, time.Since(start).Seconds())

	fields := []zap.Field{
		zap.String("request_id", metrics.RequestID(ctx)),
		zap.String("symbol", sym),
		zap.String("provider", s.gen.Provider()),
		zap.Int("sources_ok", okSources(bundle)),
		zap.Int("sources", len(bundle.Sources)),
		zap.String("outcome", outcome),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		s.logger.Error("insight failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	s.logger.Info("insight generated", append(fields,
		zap.String("sentiment", string(doc.Sentiment)),
		zap.Int("sections", len(doc.Sections)),
		zap.Int("citations", len(doc.Citations)),
	)...)
	return doc, nil
}

// saveTranscript archives one generation. Failures are logged, never returned.
func (s *Service) saveTranscript(ctx context.Context, bundle *core.FactBundle, raw string, doc *core.NarrativeDocument, genErr error, took time.Duration) {
	if s.archive == nil {
		return
	}

	// The request may already be cancelled; the record is still wanted.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	t := &archive.Transcript{
		RequestID:     metrics.RequestID(ctx),
		Symbol:        bundle.Symbol,
		CreatedAt:     bundle.AsOf,
		Provider:      s.gen.Provider(),
		SchemaVersion: s.schema.Version,
		Facts:         bundle,
		Raw:           raw,
		Document:      doc,
		DurationMS:    took.Milliseconds(),
	}
	if genErr != nil {
		t.Error = genErr.Error()
	}

	key, err := s.archive.Save(ctx, t)
	s.metrics.RecordArchive(err == nil)
	if err != nil {
		s.logger.Warn("transcript archive failed", zap.String("symbol", bundle.Symbol), zap.Error(err))
		return
	}
	s.logger.Debug("transcript archived", zap.String("key", key))
}

func okSources(b *core.FactBundle) int {
	n := 0
	for _, src := range b.Sources {
		if src.OK {
			n++
		}
	}
	return n
}

// Outcome is the metrics label for a pipeline result.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		return strings.ToLower(ce.Code)
	}
	return "internal_error"
}

// Unavailable returns an Explainer that fails every call with err. It stands
// in for the service when required configuration is missing, so requests
// fail before any network activity.
func Unavailable(err error) Explainer {
	return unavailable{err: err}
}

type unavailable struct {
	err error
}

func (u unavailable) Explain(context.Context, string) (*core.NarrativeDocument, error) {
	return nil, u.err
}

// CacheControl renders the shared-cache hint for successful responses.
func CacheControl(maxAge, staleWhileRevalidate time.Duration) string {
	return fmt.Sprintf("s-maxage=%d, stale-while-revalidate=%d",
		int(maxAge.Seconds()), int(staleWhileRevalidate.Seconds()))
}
