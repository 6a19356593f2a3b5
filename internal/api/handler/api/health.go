// internal/api/handler/api/health.go
package api

import (
	"net/http"

	"github.com/newthinker/insight/internal/api/response"
)

// Health reports liveness. It does not touch upstreams.
func Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
