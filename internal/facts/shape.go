package facts

import (
	"encoding/json"
	"html"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/newthinker/insight/internal/core"
)

var textPolicy = bluemonday.StrictPolicy()

// plainText strips markup that some news feeds leave in headlines and
// summaries, and collapses whitespace.
func plainText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(textPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// Accessors below never panic: any missing key or unexpected type yields the
// zero value. Provider payloads are decoded into map[string]any / []any.

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func num(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return &f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func integer(m map[string]any, key string) int64 {
	if f := num(m, key); f != nil {
		return int64(*f)
	}
	return 0
}

func shapeQuote(payload any) *core.Quote {
	m := object(payload)
	if m == nil {
		return nil
	}
	q := core.Quote{
		Current:       num(m, "c"),
		Change:        num(m, "d"),
		PercentChange: num(m, "dp"),
		High:          num(m, "h"),
		Low:           num(m, "l"),
		Open:          num(m, "o"),
		PreviousClose: num(m, "pc"),
		Timestamp:     integer(m, "t"),
	}
	if q.IsEmpty() {
		return nil
	}
	return &q
}

func shapeProfile(payload any) *core.Profile {
	m := object(payload)
	if len(m) == 0 {
		return nil
	}
	p := core.Profile{
		Name:      str(m, "name"),
		Ticker:    str(m, "ticker"),
		Exchange:  str(m, "exchange"),
		Industry:  str(m, "finnhubIndustry"),
		Country:   str(m, "country"),
		Currency:  str(m, "currency"),
		WebURL:    str(m, "weburl"),
		IPO:       str(m, "ipo"),
		MarketCap: num(m, "marketCapitalization"),
	}
	if p.Name == "" && p.Ticker == "" {
		return nil
	}
	return &p
}

// shapeNews keeps items with both a headline and a URL, newest first.
func shapeNews(payload any, limit int) []core.NewsItem {
	items := make([]core.NewsItem, 0)
	for _, raw := range list(payload) {
		m := object(raw)
		if m == nil {
			continue
		}
		n := core.NewsItem{
			Headline: plainText(str(m, "headline")),
			Source:   str(m, "source"),
			URL:      str(m, "url"),
			Datetime: integer(m, "datetime"),
			Summary:  plainText(str(m, "summary")),
		}
		if n.Headline == "" || n.URL == "" {
			continue
		}
		items = append(items, n)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Datetime > items[j].Datetime
	})
	return capped(items, limit)
}

func shapeRecommendations(payload any, limit int) []core.Recommendation {
	recs := make([]core.Recommendation, 0)
	for _, raw := range list(payload) {
		m := object(raw)
		if m == nil {
			continue
		}
		recs = append(recs, core.Recommendation{
			Period:     str(m, "period"),
			StrongBuy:  int(integer(m, "strongBuy")),
			Buy:        int(integer(m, "buy")),
			Hold:       int(integer(m, "hold")),
			Sell:       int(integer(m, "sell")),
			StrongSell: int(integer(m, "strongSell")),
		})
	}
	// Periods are ISO dates, so string order is chronological.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Period > recs[j].Period
	})
	return capped(recs, limit)
}

func shapePriceTarget(payload any) *core.PriceTarget {
	m := object(payload)
	if m == nil {
		return nil
	}
	pt := core.PriceTarget{
		TargetHigh:   num(m, "targetHigh"),
		TargetLow:    num(m, "targetLow"),
		TargetMean:   num(m, "targetMean"),
		TargetMedian: num(m, "targetMedian"),
		LastUpdated:  str(m, "lastUpdated"),
	}
	if pt.TargetHigh == nil && pt.TargetLow == nil && pt.TargetMean == nil && pt.TargetMedian == nil {
		return nil
	}
	return &pt
}

func shapeInsiders(payload any, limit int) []core.InsiderTransaction {
	txs := make([]core.InsiderTransaction, 0)
	for _, raw := range list(object(payload)["data"]) {
		m := object(raw)
		if m == nil {
			continue
		}
		txs = append(txs, core.InsiderTransaction{
			Name:             str(m, "name"),
			Share:            integer(m, "share"),
			Change:           integer(m, "change"),
			TransactionPrice: num(m, "transactionPrice"),
			TransactionCode:  str(m, "transactionCode"),
			TransactionDate:  str(m, "transactionDate"),
			FilingDate:       str(m, "filingDate"),
		})
	}
	return capped(txs, limit)
}

func shapeEarnings(payload any, limit int) []core.EarningsEvent {
	events := make([]core.EarningsEvent, 0)
	for _, raw := range list(object(payload)["earningsCalendar"]) {
		m := object(raw)
		if m == nil {
			continue
		}
		e := core.EarningsEvent{
			Date:            str(m, "date"),
			Hour:            str(m, "hour"),
			Quarter:         int(integer(m, "quarter")),
			Year:            int(integer(m, "year")),
			EPSEstimate:     num(m, "epsEstimate"),
			EPSActual:       num(m, "epsActual"),
			RevenueEstimate: num(m, "revenueEstimate"),
			RevenueActual:   num(m, "revenueActual"),
		}
		if e.Date == "" {
			continue
		}
		events = append(events, e)
	}
	// Latest date first; the window spans both past and scheduled releases.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date > events[j].Date
	})
	return capped(events, limit)
}

func capped[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
