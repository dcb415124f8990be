package handlers

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	Authenticated bool      `json:"authenticated"`
}

// Health reports that the server is up. Callers holding a valid token are
// told so.
func Health(w http.ResponseWriter, r *http.Request) {
	_, authenticated := ClaimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "OK",
		Message:       "Servidor de Agencia Viajes Oeste funcionando correctamente",
		Timestamp:     time.Now().UTC(),
		Authenticated: authenticated,
	})
}

// NotFound answers requests for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", "Ruta no encontrada")
}

// MethodNotAllowed answers requests with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Método no permitido")
}
