package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/insight/internal/api"
	"github.com/newthinker/insight/internal/collector/finnhub"
	"github.com/newthinker/insight/internal/config"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/facts"
	"github.com/newthinker/insight/internal/insight"
	"github.com/newthinker/insight/internal/llm"
	"github.com/newthinker/insight/internal/llm/factory"
	"github.com/newthinker/insight/internal/metrics"
	"github.com/newthinker/insight/internal/narrative"
	"github.com/newthinker/insight/internal/storage/archive"
	"go.uber.org/zap"
)

// App wires configuration into a ready-to-serve insight pipeline
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Registry
	explainer insight.Explainer
	setupErr  error
}

// Option configures an App
type Option func(*appOptions)

type appOptions struct {
	httpClient *http.Client
	provider   llm.Provider
}

// WithHTTPClient sets the client used for market data.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *appOptions) { o.httpClient = hc }
}

// WithProvider replaces the configured model provider.
func WithProvider(p llm.Provider) Option {
	return func(o *appOptions) { o.provider = p }
}

// New builds the pipeline from cfg. Missing credentials do not fail New:
// the app serves, and every insight request reports the configuration error
// before any network activity. Structural misconfiguration is returned.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, logger: logger}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}

	svc, err := a.buildService(o)
	if err != nil {
		if !isCredentialError(err) {
			return nil, err
		}
		logger.Error("insight unavailable until configuration is fixed", zap.Error(err))
		a.setupErr = err
		a.explainer = insight.Unavailable(err)
		return a, nil
	}
	a.explainer = svc
	return a, nil
}

func (a *App) buildService(o appOptions) (*insight.Service, error) {
	cfg := a.cfg

	// Credentials first, so the error names everything that is missing.
	if o.provider == nil {
		if err := cfg.CheckCredentials(); err != nil {
			return nil, err
		}
	}

	fhOpts := []finnhub.Option{
		finnhub.WithBaseURL(cfg.Finnhub.BaseURL),
		finnhub.WithTimeout(cfg.Finnhub.Timeout),
		finnhub.WithRateLimit(cfg.Finnhub.RateLimit, cfg.Finnhub.RateBurst),
	}
	if o.httpClient != nil {
		fhOpts = append(fhOpts, finnhub.WithHTTPClient(o.httpClient))
	}
	client, err := finnhub.New(cfg.Finnhub.Token, fhOpts...)
	if err != nil {
		return nil, err
	}

	aggOpts := []facts.Option{facts.WithLogger(a.logger.Named("facts"))}
	if a.metrics != nil {
		aggOpts = append(aggOpts, facts.WithRecorder(a.metrics))
	}
	agg := facts.New(client, facts.Config{
		NewsDays:            cfg.Facts.NewsDays,
		InsiderDays:         cfg.Facts.InsiderDays,
		EarningsDays:        cfg.Facts.EarningsDays,
		NewsLimit:           cfg.Facts.NewsLimit,
		RecommendationLimit: cfg.Facts.RecommendationLimit,
		InsiderLimit:        cfg.Facts.InsiderLimit,
		EarningsLimit:       cfg.Facts.EarningsLimit,
		SourceTimeout:       cfg.Facts.SourceTimeout,
	}, aggOpts...)

	provider := o.provider
	if provider == nil {
		provider, err = factory.New(cfg.LLM)
		if err != nil {
			return nil, err
		}
	}
	gen := narrative.NewGenerator(provider,
		narrative.WithMaxTokens(cfg.LLM.MaxTokens),
		narrative.WithTemperature(cfg.LLM.Temperature),
		narrative.WithTimeout(cfg.LLM.Timeout),
		narrative.WithLogger(a.logger.Named("narrative")),
	)

	svcOpts := []insight.Option{
		insight.WithLogger(a.logger.Named("insight")),
		insight.WithTimeout(cfg.Server.RequestTimeout),
	}
	if a.metrics != nil {
		svcOpts = append(svcOpts, insight.WithMetrics(a.metrics))
	}
	if cfg.Archive.Enabled {
		arc, err := OpenArchive(cfg.Archive)
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, insight.WithArchive(arc))
	}

	a.logger.Info("insight pipeline ready",
		zap.String("provider", provider.Name()),
		zap.Strings("sources", agg.Sources()),
		zap.Bool("archive", cfg.Archive.Enabled),
	)
	return insight.New(agg, gen, svcOpts...), nil
}

func isCredentialError(err error) bool {
	return errors.Is(err, core.ErrConfigMissing)
}

// OpenArchive opens the configured transcript archive. It needs no model or
// market-data credentials, so it also serves offline inspection.
func OpenArchive(cfg config.ArchiveConfig) (*archive.Archive, error) {
	if !cfg.Enabled {
		return nil, core.WrapError(core.ErrConfigInvalid, errors.New("transcript archive is disabled"))
	}
	store, err := newArchiveStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating transcript archive: %w", err)
	}
	return archive.New(store), nil
}

func newArchiveStorage(cfg config.ArchiveConfig) (archive.Storage, error) {
	switch cfg.Type {
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return archive.NewLocalFS(cfg.Path)
	}
}

// Explainer returns the pipeline, or a stand-in reporting the setup error.
func (a *App) Explainer() insight.Explainer {
	return a.explainer
}

// Metrics returns the registry, or nil when metrics are disabled.
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// SetupError returns the configuration error that disabled the pipeline.
func (a *App) SetupError() error {
	return a.setupErr
}

// writeTimeout leaves room past the longest bound on an insight request. A zero
// request timeout disables that bound, so the model call timeout sets the floor.
func writeTimeout(cfg *config.Config) time.Duration {
	return max(cfg.Server.RequestTimeout, cfg.LLM.Timeout) + 15*time.Second
}

// Server creates the HTTP server for this app.
func (a *App) Server() (*api.Server, error) {
	return api.NewServer(api.Config{
		Host:         a.cfg.Server.Host,
		Port:         a.cfg.Server.Port,
		CacheControl: insight.CacheControl(a.cfg.Server.Cache.MaxAge, a.cfg.Server.Cache.StaleWhileRevalidate),
		MetricsPath:  a.cfg.Metrics.Path,
		WriteTimeout: writeTimeout(a.cfg),
	}, api.Dependencies{
		Explainer: a.explainer,
		Metrics:   a.metrics,
	}, a.logger)
}
