// internal/api/middleware/middleware.go
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/newthinker/insight/internal/api/response"
	"github.com/newthinker/insight/internal/core"
	"go.uber.org/zap"
)

// Chain applies middlewares so the first one listed is outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Recover turns a panic in next into a 500 error response.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.Error("handler panic",
						zap.String("path", r.URL.Path),
						zap.Any("panic", v),
						zap.Stack("stack"),
					)
					response.Error(w, core.WrapError(core.ErrInternal, fmt.Errorf("%v", v)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AllowMethods rejects any method not listed with 405 and an Allow header.
func AllowMethods(methods ...string) func(http.Handler) http.Handler {
	allow := strings.Join(methods, ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, m := range methods {
				if r.Method == m {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("Allow", allow)
			response.Error(w, core.WrapError(core.ErrMethodNotAllowed, fmt.Errorf("use %s", allow)))
		})
	}
}
