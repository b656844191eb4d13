package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/domicare/rota/pkg/observability"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CorrelationIDHeader carries the request correlation id.
const CorrelationIDHeader = "X-Correlation-ID"

// RequestIDHeader carries the server-assigned request id.
const RequestIDHeader = "X-Request-ID"

// CorrelationID tags every request with a correlation id, minting one
// when the caller did not send one. The id is echoed in the response
// header and rides in the context, so request logs and the domain
// events written during the request all share it.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationIDHeader, id)

		ctx := observability.WithCorrelationID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID assigns every request a fresh id. Where the correlation id
// can span retries and fan-out, the request id names exactly one HTTP
// exchange.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)

		ctx := observability.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs one line per request with method, path, status and
// duration.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// Recoverer turns panics into 500 responses instead of dropped
// connections. With exposePanics set (development) the response body
// carries the panic value and stack; production callers get a generic
// message and the stack goes to the log only.
func Recoverer(logger *slog.Logger, exposePanics bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := debug.Stack()
					logger.ErrorContext(r.Context(), "panic in handler",
						"method", r.Method,
						"path", r.URL.Path,
						"panic", fmt.Sprint(rec),
						"stack", string(stack),
					)
					msg := "internal server error"
					if exposePanics {
						msg = fmt.Sprintf("panic: %v\n%s", rec, stack)
					}
					writeError(w, http.StatusInternalServerError, codeInternal, msg)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// BearerAuth verifies an HS256 bearer token on every request. Routes
// behind this middleware answer 401 to missing, malformed and
// wrongly-signed tokens alike.
func BearerAuth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing bearer token")
				return
			}

			token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid bearer token")
				return
			}

			// The subject rides on the context so request logs name the
			// caller.
			if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
				r = r.WithContext(observability.WithSubject(r.Context(), sub))
			}

			next.ServeHTTP(w, r)
		})
	}
}
