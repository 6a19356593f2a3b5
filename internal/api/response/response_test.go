// internal/api/response/response_test.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/narrative"
)

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"hello": "world"}

	JSON(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected application/json content type")
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["hello"] != "world" {
		t.Errorf("expected body passed through, got %v", resp)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid symbol", core.ErrInvalidSymbol, http.StatusBadRequest},
		{"wrapped invalid symbol", core.WrapError(core.ErrInvalidSymbol, errors.New("blank")), http.StatusBadRequest},
		{"config missing", core.WrapError(core.ErrConfigMissing, errors.New("server missing FINNHUB_TOKEN")), http.StatusInternalServerError},
		{"method", core.ErrMethodNotAllowed, http.StatusMethodNotAllowed},
		{"generation", core.ErrGeneration, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestError_WithCoreError(t *testing.T) {
	w := httptest.NewRecorder()
	err := core.WrapError(core.ErrConfigMissing, errors.New("server missing FINNHUB_TOKEN"))

	Error(w, err)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "CONFIG_MISSING" {
		t.Errorf("expected CONFIG_MISSING, got %s", resp.Code)
	}
	if resp.Error != "required configuration missing: server missing FINNHUB_TOKEN" {
		t.Errorf("unexpected message %q", resp.Error)
	}
	if resp.Excerpt != "" {
		t.Errorf("expected no excerpt, got %q", resp.Excerpt)
	}
}

func TestError_InvalidSymbol(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, core.ErrInvalidSymbol)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "missing symbol" || resp.Code != "INVALID_SYMBOL" {
		t.Errorf("unexpected body %+v", resp)
	}
}

func TestError_GenerationExcerpt(t *testing.T) {
	w := httptest.NewRecorder()
	_, err := narrative.Validate("not json at all", narrative.SchemaV1, core.NewFactBundle("AAPL", time.Now()))

	Error(w, err)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "GENERATION_FAILED" {
		t.Errorf("expected GENERATION_FAILED, got %s", resp.Code)
	}
	if resp.Excerpt != "not json at all" {
		t.Errorf("expected excerpt, got %q", resp.Excerpt)
	}
}

func TestError_WithStandardError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, errors.New("something broke"))

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", resp.Code)
	}
	if resp.Error != "something broke" {
		t.Errorf("expected raw message, got %q", resp.Error)
	}
}
