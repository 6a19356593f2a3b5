// internal/storage/archive/transcript.go
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/insight/internal/core"
)

// Transcript is the full record of one generation: the facts the model saw,
// what it returned, and what came of validation.
type Transcript struct {
	ID            string                  `json:"id"`
	RequestID     string                  `json:"requestId,omitempty"`
	Symbol        string                  `json:"symbol"`
	CreatedAt     time.Time               `json:"createdAt"`
	Provider      string                  `json:"provider"`
	SchemaVersion string                  `json:"schemaVersion"`
	Facts         *core.FactBundle        `json:"facts"`
	Raw           string                  `json:"raw"`
	Document      *core.NarrativeDocument `json:"document,omitempty"`
	Error         string                  `json:"error,omitempty"`
	DurationMS    int64                   `json:"durationMs"`
}

// Archive files transcripts under transcripts/YYYY/MM/DD/SYMBOL/<id>.json.
type Archive struct {
	store Storage
}

// New wraps store.
func New(store Storage) *Archive {
	return &Archive{store: store}
}

// Save assigns an ID if t has none and writes it, returning the key.
func (a *Archive) Save(ctx context.Context, t *Transcript) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding transcript: %w", err)
	}

	key := path.Join(DayPrefix(t.CreatedAt, t.Symbol), t.ID+".json")
	if err := a.store.Write(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// Load reads the transcript stored at key.
func (a *Archive) Load(ctx context.Context, key string) (*Transcript, error) {
	data, err := a.store.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding transcript %s: %w", key, err)
	}
	return &t, nil
}

// List returns the keys stored for symbol on day, sorted. An empty symbol
// lists every symbol for that day.
func (a *Archive) List(ctx context.Context, day time.Time, symbol string) ([]string, error) {
	keys, err := a.store.List(ctx, DayPrefix(day, symbol))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// DayPrefix returns the key prefix for one UTC day and optional symbol.
// The symbol always maps to exactly one path segment.
func DayPrefix(day time.Time, symbol string) string {
	p := path.Join("transcripts", day.UTC().Format("2006/01/02"))
	if symbol != "" {
		p += "/" + symbolSegment(symbol)
	}
	return p
}

// symbolSegment escapes separators in symbol, and the dot-only names that
// path cleaning would otherwise collapse.
func symbolSegment(symbol string) string {
	seg := url.PathEscape(symbol)
	if strings.Trim(seg, ".") == "" {
		seg = strings.ReplaceAll(seg, ".", "%2E")
	}
	return seg
}
