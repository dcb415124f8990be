package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/viajesoeste/apiserver/internal/services"
	"github.com/viajesoeste/apiserver/types"
)

// TravelRequestHandler provides travel request endpoints.
type TravelRequestHandler struct {
	service *services.TravelRequestService
	log     logrus.FieldLogger
}

// NewTravelRequestHandler constructs a TravelRequestHandler.
func NewTravelRequestHandler(service *services.TravelRequestService, log logrus.FieldLogger) *TravelRequestHandler {
	return &TravelRequestHandler{
		service: service,
		log:     log.WithField("component", "travel_request_handler"),
	}
}

// TravelRequestRouter registers travel request routes. Every route requires
// authentication.
func TravelRequestRouter(r chi.Router, service *services.TravelRequestService, authMiddleware func(http.Handler) http.Handler, log logrus.FieldLogger) {
	handler := NewTravelRequestHandler(service, log)

	r.Use(authMiddleware)
	r.Get("/stats", handler.Stats)
	r.Get("/search/dni/{dni}", handler.SearchByDNI)
	r.Get("/", handler.List)
	r.Get("/{id}", handler.Get)
	r.Post("/", handler.Create)
	r.Put("/{id}", handler.Update)
	r.Patch("/{id}/status", handler.UpdateStatus)
	r.Delete("/{id}", handler.Delete)
}

// List returns every travel request.
func (h *TravelRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{
		Message: "Solicitudes obtenidas exitosamente",
		Count:   len(requests),
		Data:    requests,
	})
}

// Stats returns request counts by status and trip type.
func (h *TravelRequestHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[types.TravelRequestStats]{
		Message: "Estadísticas obtenidas exitosamente",
		Data:    stats,
	})
}

// SearchByDNI returns the requests of one client.
func (h *TravelRequestHandler) SearchByDNI(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.SearchByDNI(r.Context(), chi.URLParam(r, "dni"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{
		Message: "Búsqueda completada",
		Count:   len(requests),
		Data:    requests,
	})
}

// Get returns a travel request by id.
func (h *TravelRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[types.TravelRequest]{
		Message: "Solicitud obtenida exitosamente",
		Data:    req,
	})
}

// Create registers a new travel request.
func (h *TravelRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.TravelRequestInput
	if !decodeJSON(w, r, &in) {
		return
	}

	req, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse[types.TravelRequest]{
		Message: "Solicitud de viaje registrada exitosamente",
		Data:    req,
	})
}

// Update applies the supplied fields to an existing travel request.
func (h *TravelRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var in services.TravelRequestInput
	if !decodeJSON(w, r, &in) {
		return
	}

	req, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[types.TravelRequest]{
		Message: "Solicitud de viaje actualizada exitosamente",
		Data:    req,
	})
}

// UpdateStatus changes only the status of a travel request.
func (h *TravelRequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var body StatusRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	req, err := h.service.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[types.TravelRequest]{
		Message: "Estado de solicitud actualizado exitosamente",
		Data:    req,
	})
}

// Delete removes a travel request.
func (h *TravelRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Solicitud de viaje eliminada exitosamente"})
}

func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "El ID de la solicitud no es válido")
		return 0, false
	}
	return id, true
}

type StatusRequest struct {
	Status string `json:"status"`
}

type ListResponse struct {
	Message string                `json:"message"`
	Count   int                   `json:"count"`
	Data    []types.TravelRequest `json:"data"`
}

type DataResponse[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}
