package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/viajesoeste/apiserver/internal/auth"
)

// Authenticator validates a bearer token and returns its claims.
type Authenticator interface {
	Authenticate(token string) (auth.Claims, error)
}

// RequireAuth rejects requests without a valid, unrevoked bearer token and
// attaches the token claims to the request context.
func RequireAuth(authn Authenticator, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// A malformed header is treated like a missing one.
			token, _ := bearerToken(r)
			claims, err := authn.Authenticate(token)
			if err != nil {
				writeServiceError(w, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), token, claims)))
		})
	}
}

// OptionalAuth attaches the token claims when the request carries a valid
// token and otherwise serves the request anonymously.
func OptionalAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err == nil {
				if claims, err := authn.Authenticate(token); err == nil {
					r = r.WithContext(withIdentity(r.Context(), token, claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs every handled request.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.WithField("method", r.Method).
				WithField("path", r.URL.Path).
				WithField("remote", r.RemoteAddr).
				WithField("status", ww.Status()).
				WithField("request_id", middleware.GetReqID(r.Context())).
				WithField("duration", time.Since(start)).
				Info("request handled")
		})
	}
}
