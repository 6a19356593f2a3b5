package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Quote represents the provider's current price snapshot
type Quote struct {
	Current       *float64 `json:"current"`
	Change        *float64 `json:"change"`
	PercentChange *float64 `json:"percentChange"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	Open          *float64 `json:"open"`
	PreviousClose *float64 `json:"previousClose"`
	Timestamp     int64    `json:"timestamp,omitempty"`
}

// IsEmpty reports whether the quote carries no price at all.
// The provider answers unknown symbols with an all-zero quote.
func (q Quote) IsEmpty() bool {
	return (q.Current == nil || *q.Current == 0) && (q.PreviousClose == nil || *q.PreviousClose == 0)
}

// Profile describes the company behind a symbol
type Profile struct {
	Name      string   `json:"name,omitempty"`
	Ticker    string   `json:"ticker,omitempty"`
	Exchange  string   `json:"exchange,omitempty"`
	Industry  string   `json:"industry,omitempty"`
	Country   string   `json:"country,omitempty"`
	Currency  string   `json:"currency,omitempty"`
	WebURL    string   `json:"weburl,omitempty"`
	IPO       string   `json:"ipo,omitempty"`
	MarketCap *float64 `json:"marketCapitalization,omitempty"`
}

// NewsItem is a single company headline
type NewsItem struct {
	Headline string `json:"headline"`
	Source   string `json:"source,omitempty"`
	URL      string `json:"url"`
	Datetime int64  `json:"datetime"`
	Summary  string `json:"summary,omitempty"`
}

// Recommendation is one month of analyst recommendation counts
type Recommendation struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

// PriceTarget is the analyst consensus price target
type PriceTarget struct {
	TargetHigh   *float64 `json:"targetHigh"`
	TargetLow    *float64 `json:"targetLow"`
	TargetMean   *float64 `json:"targetMean"`
	TargetMedian *float64 `json:"targetMedian"`
	LastUpdated  string   `json:"lastUpdated,omitempty"`
}

// InsiderTransaction is one reported insider trade
type InsiderTransaction struct {
	Name             string   `json:"name"`
	Share            int64    `json:"share"`
	Change           int64    `json:"change"`
	TransactionPrice *float64 `json:"transactionPrice"`
	TransactionCode  string   `json:"transactionCode,omitempty"`
	TransactionDate  string   `json:"transactionDate,omitempty"`
	FilingDate       string   `json:"filingDate,omitempty"`
}

// EarningsEvent is a reported or scheduled earnings release
type EarningsEvent struct {
	Date            string   `json:"date"`
	Hour            string   `json:"hour,omitempty"`
	Quarter         int      `json:"quarter,omitempty"`
	Year            int      `json:"year,omitempty"`
	EPSEstimate     *float64 `json:"epsEstimate"`
	EPSActual       *float64 `json:"epsActual"`
	RevenueEstimate *float64 `json:"revenueEstimate"`
	RevenueActual   *float64 `json:"revenueActual"`
}

// SourceStatus records how one upstream source resolved
type SourceStatus struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
}

// FactBundle is the bounded snapshot of upstream data handed to generation.
// Every optional field stays at its zero value when its source failed.
type FactBundle struct {
	Symbol              string               `json:"symbol"`
	AsOf                time.Time            `json:"asOf"`
	Quote               *Quote               `json:"quote"`
	Profile             *Profile             `json:"profile"`
	News                []NewsItem           `json:"news"`
	Recommendations     []Recommendation     `json:"recommendationTrend"`
	PriceTarget         *PriceTarget         `json:"priceTarget"`
	InsiderTransactions []InsiderTransaction `json:"insiderTransactions"`
	Earnings            []EarningsEvent      `json:"earningsCalendar"`
	Sources             []SourceStatus       `json:"sources"`
}

// NewFactBundle returns a bundle with every list initialised to empty.
func NewFactBundle(symbol string, asOf time.Time) *FactBundle {
	return &FactBundle{
		Symbol:              symbol,
		AsOf:                asOf.UTC(),
		News:                []NewsItem{},
		Recommendations:     []Recommendation{},
		InsiderTransactions: []InsiderTransaction{},
		Earnings:            []EarningsEvent{},
		Sources:             []SourceStatus{},
	}
}

// HasURL reports whether url belongs to one of the bundle's news items.
func (b *FactBundle) HasURL(url string) bool {
	for _, n := range b.News {
		if n.URL == url {
			return true
		}
	}
	return false
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrInvalidSymbol
	}
	return s, nil
}

// Sentiment is the direction of a stock move
type Sentiment string

const (
	SentimentUp      Sentiment = "up"
	SentimentDown    Sentiment = "down"
	SentimentFlat    Sentiment = "flat"
	SentimentUnknown Sentiment = "unknown"
)

// Sentiments lists every valid sentiment in schema order.
func Sentiments() []Sentiment {
	return []Sentiment{SentimentUp, SentimentDown, SentimentFlat, SentimentUnknown}
}

// IsValid checks enum membership
func (s Sentiment) IsValid() bool {
	for _, v := range Sentiments() {
		if s == v {
			return true
		}
	}
	return false
}

// Section is one heading/body pair of a narrative
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Citation links a statement to a source article
type Citation struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// NarrativeDocument is the validated "why is this stock moving" story.
type NarrativeDocument struct {
	Symbol        string     `json:"symbol"`
	Title         string     `json:"title"`
	UpdatedLabel  string     `json:"updatedLabel"`
	Sentiment     Sentiment  `json:"sentiment"`
	Sections      []Section  `json:"sections"`
	Citations     []Citation `json:"citations"`
	SchemaVersion string     `json:"-"`
}

// TruncateUTF8 returns at most limit bytes of s without splitting a rune.
func TruncateUTF8(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
