package apiapp

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	httperrors "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/errors"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method and status.",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

func ApplyMiddlewares(r chiRouter, log *zap.Logger) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(metricsCollector)
	r.Use(requestLogger(log))
}

// AuthMiddleware rejects requests without a verifiable access token.
// A malformed Authorization header gets the same answer as a missing
// one. Verification is pure codec work; no store is consulted.
func AuthMiddleware(codec *authsvc.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := verifyRequest(codec, r)
			if !ok {
				httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{
					Code:    "UNAUTHORIZED",
					Message: "missing or invalid access token",
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(authsvc.WithIdentity(r.Context(), authsvc.Identity{
				UserID: principal.SubjectID,
				Email:  principal.Email,
				Role:   principal.Role,
			})))
		})
	}
}

// OptionalAuthMiddleware attaches an identity when a valid token is
// present and lets the request through anonymously otherwise. A bad
// token degrades to anonymous instead of failing the request.
func OptionalAuthMiddleware(codec *authsvc.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if principal, ok := verifyRequest(codec, r); ok {
				r = r.WithContext(authsvc.WithIdentity(r.Context(), authsvc.Identity{
					UserID: principal.SubjectID,
					Email:  principal.Email,
					Role:   principal.Role,
				}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole runs after AuthMiddleware and checks the role carried in
// the token. Role names compare case-insensitively.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := authsvc.IdentityFromContext(r.Context())
			if !ok {
				httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{
					Code:    "UNAUTHORIZED",
					Message: "authentication required",
				})
				return
			}

			for _, role := range roles {
				if strings.EqualFold(string(identity.Role), role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
				Code:    "FORBIDDEN",
				Message: "insufficient role",
			})
		})
	}
}

func verifyRequest(codec *authsvc.Codec, r *http.Request) (authsvc.Principal, bool) {
	if codec == nil {
		return authsvc.Principal{}, false
	}
	raw, ok := extractBearerToken(r.Header.Get("Authorization"))
	if !ok {
		return authsvc.Principal{}, false
	}
	principal, err := codec.VerifyAccess(raw)
	if err != nil {
		return authsvc.Principal{}, false
	}
	return principal, true
}

func extractBearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

func metricsCollector(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		requestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if log != nil {
				log.Info("http_request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}

type chiRouter interface {
	Use(middlewares ...func(http.Handler) http.Handler)
}
