package facts

import (
	"time"

	"github.com/newthinker/insight/internal/collector/finnhub"
	"github.com/newthinker/insight/internal/core"
)

// Source is one upstream endpoint feeding the bundle. A failed source is
// simply never applied, which leaves its bundle field at the default.
type Source struct {
	Name   string
	Path   string
	Params func(symbol string, asOf time.Time) map[string]string
	Apply  func(b *core.FactBundle, payload any)
}

// Config controls the trailing windows and caps of the default sources
type Config struct {
	NewsDays     int
	InsiderDays  int
	EarningsDays int

	NewsLimit           int
	RecommendationLimit int
	InsiderLimit        int
	EarningsLimit       int

	SourceTimeout time.Duration
}

// DefaultConfig returns the caps and windows used in production.
func DefaultConfig() Config {
	return Config{
		NewsDays:            3,
		InsiderDays:         90,
		EarningsDays:        120,
		NewsLimit:           8,
		RecommendationLimit: 3,
		InsiderLimit:        10,
		EarningsLimit:       4,
		SourceTimeout:       8 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.NewsDays <= 0 {
		c.NewsDays = d.NewsDays
	}
	if c.InsiderDays <= 0 {
		c.InsiderDays = d.InsiderDays
	}
	if c.EarningsDays <= 0 {
		c.EarningsDays = d.EarningsDays
	}
	if c.NewsLimit <= 0 {
		c.NewsLimit = d.NewsLimit
	}
	if c.RecommendationLimit <= 0 {
		c.RecommendationLimit = d.RecommendationLimit
	}
	if c.InsiderLimit <= 0 {
		c.InsiderLimit = d.InsiderLimit
	}
	if c.EarningsLimit <= 0 {
		c.EarningsLimit = d.EarningsLimit
	}
	if c.SourceTimeout <= 0 {
		c.SourceTimeout = d.SourceTimeout
	}
	return c
}

func symbolOnly(symbol string, _ time.Time) map[string]string {
	return map[string]string{"symbol": symbol}
}

func trailing(days int) func(string, time.Time) map[string]string {
	return func(symbol string, asOf time.Time) map[string]string {
		return map[string]string{
			"symbol": symbol,
			"from":   finnhub.Date(asOf.AddDate(0, 0, -days)),
			"to":     finnhub.Date(asOf),
		}
	}
}

func around(days int) func(string, time.Time) map[string]string {
	return func(symbol string, asOf time.Time) map[string]string {
		return map[string]string{
			"symbol": symbol,
			"from":   finnhub.Date(asOf.AddDate(0, 0, -days)),
			"to":     finnhub.Date(asOf.AddDate(0, 0, days)),
		}
	}
}

// DefaultSources returns the Finnhub endpoints behind a FactBundle.
func DefaultSources(cfg Config) []Source {
	cfg = cfg.withDefaults()
	return []Source{
		{
			Name:   "quote",
			Path:   "/quote",
			Params: symbolOnly,
			Apply:  func(b *core.FactBundle, p any) { b.Quote = shapeQuote(p) },
		},
		{
			Name:   "profile",
			Path:   "/stock/profile2",
			Params: symbolOnly,
			Apply:  func(b *core.FactBundle, p any) { b.Profile = shapeProfile(p) },
		},
		{
			Name:   "news",
			Path:   "/company-news",
			Params: trailing(cfg.NewsDays),
			Apply:  func(b *core.FactBundle, p any) { b.News = shapeNews(p, cfg.NewsLimit) },
		},
		{
			Name:   "recommendation",
			Path:   "/stock/recommendation",
			Params: symbolOnly,
			Apply: func(b *core.FactBundle, p any) {
				b.Recommendations = shapeRecommendations(p, cfg.RecommendationLimit)
			},
		},
		{
			Name:   "price_target",
			Path:   "/stock/price-target",
			Params: symbolOnly,
			Apply:  func(b *core.FactBundle, p any) { b.PriceTarget = shapePriceTarget(p) },
		},
		{
			Name:   "insider_transactions",
			Path:   "/stock/insider-transactions",
			Params: trailing(cfg.InsiderDays),
			Apply: func(b *core.FactBundle, p any) {
				b.InsiderTransactions = shapeInsiders(p, cfg.InsiderLimit)
			},
		},
		{
			Name:   "earnings",
			Path:   "/calendar/earnings",
			Params: around(cfg.EarningsDays),
			Apply:  func(b *core.FactBundle, p any) { b.Earnings = shapeEarnings(p, cfg.EarningsLimit) },
		},
	}
}
