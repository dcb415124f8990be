package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/viajesoeste/apiserver/internal/auth"
	"github.com/viajesoeste/apiserver/internal/services"
)

const maxBodyBytes = 1 << 20

type contextKey string

const (
	contextClaimsKey contextKey = "claims"
	contextTokenKey  contextKey = "token"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string                `json:"error"`
	Message string                `json:"message,omitempty"`
	Errors  []services.FieldError `json:"errors,omitempty"`
}

// MessageResponse is the body of replies that only carry a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ClaimsFromContext returns the identity attached by RequireAuth or
// OptionalAuth.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(contextClaimsKey).(auth.Claims)
	return claims, ok
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(contextTokenKey).(string)
	return token
}

func withIdentity(ctx context.Context, token string, claims auth.Claims) context.Context {
	ctx = context.WithValue(ctx, contextTokenKey, token)
	return context.WithValue(ctx, contextClaimsKey, claims)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, tag, message string) {
	writeJSON(w, status, ErrorResponse{Error: tag, Message: message})
}

// writeServiceError renders err. Anything that is not a *services.Error is
// logged and hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		log.WithError(err).Error("unhandled error")
		writeError(w, http.StatusInternalServerError, string(services.KindServer), "Error del servidor")
		return
	}

	status := svcErr.Status()
	if status >= http.StatusInternalServerError {
		log.WithError(svcErr.Unwrap()).WithField("kind", svcErr.Kind).Error(svcErr.Message)
	}
	writeJSON(w, status, ErrorResponse{
		Error:   svcErr.Tag(),
		Message: svcErr.Message,
		Errors:  svcErr.Fields,
	})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "El cuerpo de la solicitud no es JSON válido")
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
