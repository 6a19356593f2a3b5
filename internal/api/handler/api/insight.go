// internal/api/handler/api/insight.go
package api

import (
	"net/http"

	"github.com/newthinker/insight/internal/api/response"
	"github.com/newthinker/insight/internal/insight"
)

// SchemaHeader names the narrative schema version of a successful response.
const SchemaHeader = "X-Insight-Schema"

// InsightHandler serves GET /api/v1/insight?symbol=.
type InsightHandler struct {
	explainer    insight.Explainer
	cacheControl string
}

// NewInsightHandler creates a handler. cacheControl is sent on success only.
func NewInsightHandler(explainer insight.Explainer, cacheControl string) *InsightHandler {
	return &InsightHandler{explainer: explainer, cacheControl: cacheControl}
}

// Explain returns the narrative document for the requested symbol.
func (h *InsightHandler) Explain(w http.ResponseWriter, r *http.Request) {
	doc, err := h.explainer.Explain(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		response.Error(w, err)
		return
	}

	if h.cacheControl != "" {
		w.Header().Set("Cache-Control", h.cacheControl)
	}
	w.Header().Set(SchemaHeader, doc.SchemaVersion)
	response.JSON(w, http.StatusOK, doc)
}
