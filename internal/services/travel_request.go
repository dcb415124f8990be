package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viajesoeste/apiserver/internal/mq"
	"github.com/viajesoeste/apiserver/internal/store"
	"github.com/viajesoeste/apiserver/types"
)

var dniPattern = regexp.MustCompile(`^[0-9]{7,8}-[0-9K]$`)

// dateTimeLayouts are tried in order. Layouts without an offset are read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

const (
	tripTypeMessage = "El tipo de viaje debe ser: business, tourism u other"
	statusMessage   = "El estado debe ser: pending, in-progress o completed"
)

// TravelRequestRepository defines persistence operations for travel requests.
type TravelRequestRepository interface {
	List(ctx context.Context) ([]types.TravelRequest, error)
	Get(ctx context.Context, id int) (types.TravelRequest, error)
	ListByClientDNI(ctx context.Context, dni string) ([]types.TravelRequest, error)
	Create(ctx context.Context, req types.TravelRequest) (types.TravelRequest, error)
	Update(ctx context.Context, req types.TravelRequest) (types.TravelRequest, error)
	Delete(ctx context.Context, id int) error
}

// EventPublisher publishes travel request lifecycle events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, channel string, ev mq.Event) (string, error)
}

// TravelRequestInput carries client-supplied fields. Nil fields were not sent.
type TravelRequestInput struct {
	ClientDNI         *string `json:"clientDni"`
	ClientName        *string `json:"clientName"`
	ClientEmail       *string `json:"clientEmail"`
	Origin            *string `json:"origin"`
	Destination       *string `json:"destination"`
	TripType          *string `json:"tripType"`
	DepartureDateTime *string `json:"departureDateTime"`
	ReturnDateTime    *string `json:"returnDateTime"`
	Status            *string `json:"status"`
}

// TravelRequestService encapsulates travel request use-cases.
type TravelRequestService struct {
	repo    TravelRequestRepository
	events  EventPublisher
	channel string
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewTravelRequestService(repo TravelRequestRepository, log logrus.FieldLogger) *TravelRequestService {
	return &TravelRequestService{
		repo: repo,
		log:  log.WithField("component", "travel_requests"),
		now:  time.Now,
	}
}

// WithEvents enables publishing to channel. A nil publisher disables events.
func (s *TravelRequestService) WithEvents(events EventPublisher, channel string) *TravelRequestService {
	if channel == "" {
		channel = mq.TravelRequestsChannel
	}
	s.events = events
	s.channel = channel
	return s
}

func (s *TravelRequestService) List(ctx context.Context) ([]types.TravelRequest, error) {
	requests, err := s.repo.List(ctx)
	if err != nil {
		return nil, ServerError("Error al obtener las solicitudes de viaje", err)
	}
	return requests, nil
}

func (s *TravelRequestService) Stats(ctx context.Context) (types.TravelRequestStats, error) {
	requests, err := s.repo.List(ctx)
	if err != nil {
		return types.TravelRequestStats{}, ServerError("Error al obtener las estadísticas", err)
	}
	return types.ComputeStats(requests), nil
}

// SearchByDNI returns the requests of one client. The DNI is normalized the
// same way it is on write.
func (s *TravelRequestService) SearchByDNI(ctx context.Context, dni string) ([]types.TravelRequest, error) {
	requests, err := s.repo.ListByClientDNI(ctx, NormalizeDNI(dni))
	if err != nil {
		return nil, ServerError("Error al buscar solicitudes", err)
	}
	return requests, nil
}

func (s *TravelRequestService) Get(ctx context.Context, id int) (types.TravelRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.TravelRequest{}, s.lookupError(err, "Error al obtener la solicitud de viaje")
	}
	return req, nil
}

// Create validates every field and stores the request. Status defaults to
// pending.
func (s *TravelRequestService) Create(ctx context.Context, in TravelRequestInput) (types.TravelRequest, error) {
	var (
		req    types.TravelRequest
		fields []FieldError
	)

	req.ClientDNI, fields = requireDNI(in.ClientDNI, fields)
	req.ClientName, fields = requireText(in.ClientName, "clientName", "El nombre del cliente es requerido", fields)
	req.ClientEmail, fields = requireEmail(in.ClientEmail, fields)
	req.Origin, fields = requireText(in.Origin, "origin", "El origen es requerido", fields)
	req.Destination, fields = requireText(in.Destination, "destination", "El destino es requerido", fields)

	if blank(in.TripType) {
		fields = append(fields, FieldError{Field: "tripType", Message: "El tipo de viaje es requerido"})
	} else if tripType := types.TripType(strings.TrimSpace(*in.TripType)); !tripType.Valid() {
		fields = append(fields, FieldError{Field: "tripType", Message: tripTypeMessage})
	} else {
		req.TripType = tripType
	}

	var departureOK, returnOK bool
	req.DepartureDateTime, departureOK, fields = requireDateTime(in.DepartureDateTime, "departureDateTime",
		"La fecha y hora de salida es requerida", "El formato de fecha y hora de salida no es válido", fields)
	req.ReturnDateTime, returnOK, fields = requireDateTime(in.ReturnDateTime, "returnDateTime",
		"La fecha y hora de regreso es requerida", "El formato de fecha y hora de regreso no es válido", fields)
	if departureOK && returnOK && !req.ReturnDateTime.After(req.DepartureDateTime) {
		fields = append(fields, returnAfterDepartureError())
	}

	req.Status = types.StatusPending
	if !blank(in.Status) {
		if status := types.RequestStatus(strings.TrimSpace(*in.Status)); status.Valid() {
			req.Status = status
		} else {
			fields = append(fields, FieldError{Field: "status", Message: statusMessage})
		}
	}

	if len(fields) > 0 {
		return types.TravelRequest{}, validationFailed(fields)
	}

	created, err := s.repo.Create(ctx, req)
	if err != nil {
		return types.TravelRequest{}, ServerError("Error al registrar la solicitud de viaje", err)
	}

	s.log.WithFields(logrus.Fields{"id": created.ID, "client": created.ClientName}).Info("travel request created")
	s.publish(ctx, mq.EventCreated, created)
	return created, nil
}

// Update applies the supplied fields and re-checks the trip dates against the
// merged request.
func (s *TravelRequestService) Update(ctx context.Context, id int, in TravelRequestInput) (types.TravelRequest, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.TravelRequest{}, s.lookupError(err, "Error al actualizar la solicitud de viaje")
	}

	next := current
	var fields []FieldError

	if in.ClientDNI != nil {
		next.ClientDNI, fields = requireDNI(in.ClientDNI, fields)
	}
	if in.ClientName != nil {
		next.ClientName, fields = requireText(in.ClientName, "clientName", "El nombre del cliente no puede estar vacío", fields)
	}
	if in.ClientEmail != nil {
		next.ClientEmail, fields = requireEmail(in.ClientEmail, fields)
	}
	if in.Origin != nil {
		next.Origin, fields = requireText(in.Origin, "origin", "El origen no puede estar vacío", fields)
	}
	if in.Destination != nil {
		next.Destination, fields = requireText(in.Destination, "destination", "El destino no puede estar vacío", fields)
	}
	if in.TripType != nil {
		if tripType := types.TripType(strings.TrimSpace(*in.TripType)); tripType.Valid() {
			next.TripType = tripType
		} else {
			fields = append(fields, FieldError{Field: "tripType", Message: tripTypeMessage})
		}
	}

	datesOK := true
	if in.DepartureDateTime != nil {
		var ok bool
		next.DepartureDateTime, ok, fields = requireDateTime(in.DepartureDateTime, "departureDateTime",
			"La fecha y hora de salida no puede estar vacía", "El formato de fecha y hora de salida no es válido", fields)
		datesOK = datesOK && ok
	}
	if in.ReturnDateTime != nil {
		var ok bool
		next.ReturnDateTime, ok, fields = requireDateTime(in.ReturnDateTime, "returnDateTime",
			"La fecha y hora de regreso no puede estar vacía", "El formato de fecha y hora de regreso no es válido", fields)
		datesOK = datesOK && ok
	}
	if datesOK && !next.ReturnDateTime.After(next.DepartureDateTime) {
		fields = append(fields, returnAfterDepartureError())
	}

	if in.Status != nil {
		if status := types.RequestStatus(strings.TrimSpace(*in.Status)); status.Valid() {
			next.Status = status
		} else {
			fields = append(fields, FieldError{Field: "status", Message: statusMessage})
		}
	}

	if len(fields) > 0 {
		return types.TravelRequest{}, validationFailed(fields)
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return types.TravelRequest{}, s.lookupError(err, "Error al actualizar la solicitud de viaje")
	}

	s.log.WithField("id", id).Info("travel request updated")
	if updated.Status != current.Status {
		s.publish(ctx, mq.EventStatusChanged, updated)
	}
	return updated, nil
}

// UpdateStatus moves the request to status.
func (s *TravelRequestService) UpdateStatus(ctx context.Context, id int, status string) (types.TravelRequest, error) {
	next := types.RequestStatus(strings.TrimSpace(status))
	if !next.Valid() {
		return types.TravelRequest{}, &Error{
			Kind:    KindValidation,
			Code:    "invalid_status",
			Message: statusMessage,
		}
	}

	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.TravelRequest{}, s.lookupError(err, "Error al actualizar el estado de la solicitud")
	}
	previous := req.Status
	req.Status = next

	updated, err := s.repo.Update(ctx, req)
	if err != nil {
		return types.TravelRequest{}, s.lookupError(err, "Error al actualizar el estado de la solicitud")
	}

	s.log.WithFields(logrus.Fields{"id": id, "status": next}).Info("travel request status updated")
	if previous != next {
		s.publish(ctx, mq.EventStatusChanged, updated)
	}
	return updated, nil
}

func (s *TravelRequestService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.lookupError(err, "Error al eliminar la solicitud de viaje")
	}
	s.log.WithField("id", id).Info("travel request deleted")
	s.publish(ctx, mq.EventDeleted, types.TravelRequest{ID: id})
	return nil
}

// publish sends an event if a publisher is configured. Failures are logged
// and never fail the request.
func (s *TravelRequestService) publish(ctx context.Context, eventType mq.EventType, req types.TravelRequest) {
	if s.events == nil {
		return
	}
	ev := mq.Event{
		Type:       eventType,
		ID:         req.ID,
		Status:     string(req.Status),
		OccurredAt: s.now().UTC(),
	}
	if _, err := s.events.PublishEvent(ctx, s.channel, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"id": req.ID, "type": eventType}).Warn("failed to publish travel request event")
	}
}

func (s *TravelRequestService) lookupError(err error, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &Error{
			Kind:    KindNotFound,
			Code:    "travel_request_not_found",
			Message: "La solicitud de viaje no existe",
		}
	}
	return ServerError(message, err)
}

// NormalizeDNI strips dots and whitespace and upper-cases the check digit.
func NormalizeDNI(dni string) string {
	dni = strings.ReplaceAll(dni, ".", "")
	dni = strings.Join(strings.Fields(dni), "")
	return strings.ToUpper(dni)
}

// ValidDNI reports whether dni is a Chilean RUT such as 12.345.678-5.
func ValidDNI(dni string) bool {
	return dniPattern.MatchString(NormalizeDNI(dni))
}

// ParseDateTime accepts RFC 3339 and the browser datetime-local formats.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func requireDNI(value *string, fields []FieldError) (string, []FieldError) {
	if blank(value) {
		return "", append(fields, FieldError{Field: "clientDni", Message: "El DNI del cliente es requerido"})
	}
	if !ValidDNI(*value) {
		return "", append(fields, FieldError{Field: "clientDni", Message: "El formato del DNI no es válido (ej: 12345678-9)"})
	}
	return NormalizeDNI(*value), fields
}

func requireEmail(value *string, fields []FieldError) (string, []FieldError) {
	if blank(value) {
		return "", append(fields, FieldError{Field: "clientEmail", Message: "El email del cliente es requerido"})
	}
	email := strings.TrimSpace(*value)
	if !ValidEmail(email) {
		return "", append(fields, FieldError{Field: "clientEmail", Message: "El formato del email no es válido"})
	}
	return email, fields
}

func requireText(value *string, field, message string, fields []FieldError) (string, []FieldError) {
	if blank(value) {
		return "", append(fields, FieldError{Field: field, Message: message})
	}
	return strings.TrimSpace(*value), fields
}

func requireDateTime(value *string, field, missing, invalid string, fields []FieldError) (time.Time, bool, []FieldError) {
	if blank(value) {
		return time.Time{}, false, append(fields, FieldError{Field: field, Message: missing})
	}
	t, err := ParseDateTime(*value)
	if err != nil {
		return time.Time{}, false, append(fields, FieldError{Field: field, Message: invalid})
	}
	return t, true, fields
}

func returnAfterDepartureError() FieldError {
	return FieldError{Field: "returnDateTime", Message: "La fecha de regreso debe ser posterior a la fecha de salida"}
}

func validationFailed(fields []FieldError) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    "validation_failed",
		Message: "Por favor corrige los siguientes errores",
		Fields:  fields,
	}
}

func blank(value *string) bool {
	return value == nil || strings.TrimSpace(*value) == ""
}
