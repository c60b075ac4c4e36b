package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/atlaspack/pkg/observability"
)

// RequestIDHeader carries the request id on every response.
const RequestIDHeader = "X-Request-Id"

type ctxKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		hooks := observability.HTTP()
		hooks.OnRequest(ctx, r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			d := time.Since(start)
			hooks.OnResponse(ctx, r.Method, r.URL.Path, status, d)

			logger := s.logger.With("id", RequestID(ctx), "method", r.Method, "path", r.URL.Path)
			if status >= http.StatusInternalServerError {
				logger.Error("request failed", "status", status, "duration", d)
			} else {
				logger.Debug("request", "status", status, "duration", d)
			}
		}()
		next.ServeHTTP(ww, r)
	})
}
