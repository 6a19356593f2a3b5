// internal/api/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/narrative"
)

// ErrorResponse is the error body for every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Excerpt string `json:"excerpt,omitempty"`
}

// JSON writes data as the response body.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// StatusFor maps an error to its HTTP status. Only request errors are the
// caller's fault; everything else is a server error.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with the status from StatusFor.
func Error(w http.ResponseWriter, err error) {
	ErrorWithStatus(w, StatusFor(err), err)
}

// ErrorWithStatus writes err with an explicit status.
func ErrorWithStatus(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{
		Error: err.Error(),
		Code:  core.ErrInternal.Code,
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		resp.Code = coreErr.Code
		resp.Error = coreErr.Message
		if coreErr.Cause != nil {
			resp.Error += ": " + coreErr.Cause.Error()
		}
	}

	var outErr *narrative.OutputError
	if errors.As(err, &outErr) {
		resp.Excerpt = outErr.Excerpt
	}

	JSON(w, status, resp)
}
