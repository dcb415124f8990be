package types

import "time"

// TripType classifies the purpose of a trip.
type TripType string

const (
	TripTypeBusiness TripType = "business"
	TripTypeTourism  TripType = "tourism"
	TripTypeOther    TripType = "other"
)

// Valid reports whether t is one of the known trip types.
func (t TripType) Valid() bool {
	switch t {
	case TripTypeBusiness, TripTypeTourism, TripTypeOther:
		return true
	}
	return false
}

// RequestStatus is the processing state of a travel request.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in-progress"
	StatusCompleted  RequestStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TravelRequest represents a client's request for a trip booked through
// the agency.
type TravelRequest struct {
	// ID is the sequential identifier of the request.
	ID int `json:"id" db:"id"`

	// ClientDNI is the client's national identifier (Chilean RUT format).
	ClientDNI string `json:"clientDni" db:"client_dni"`

	// ClientName is the client's full name.
	ClientName string `json:"clientName" db:"client_name"`

	// ClientEmail is the client's contact email.
	ClientEmail string `json:"clientEmail" db:"client_email"`

	// Origin is the departure city.
	Origin string `json:"origin" db:"origin"`

	// Destination is the arrival city.
	Destination string `json:"destination" db:"destination"`

	// TripType is the purpose of the trip.
	TripType TripType `json:"tripType" db:"trip_type"`

	// DepartureDateTime is when the trip starts.
	DepartureDateTime time.Time `json:"departureDateTime" db:"departure_date_time"`

	// ReturnDateTime is when the trip ends. It is always after DepartureDateTime.
	ReturnDateTime time.Time `json:"returnDateTime" db:"return_date_time"`

	// Status is the processing state of the request.
	Status RequestStatus `json:"status" db:"status"`

	// CreatedAt is the timestamp at which the request was registered.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the request.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TravelRequestStats aggregates travel requests by status and trip type.
type TravelRequestStats struct {
	Total      int              `json:"total"`
	Pending    int              `json:"pending"`
	InProgress int              `json:"inProgress"`
	Completed  int              `json:"completed"`
	ByType     map[TripType]int `json:"byType"`
}

// ComputeStats counts requests per status and per trip type.
func ComputeStats(requests []TravelRequest) TravelRequestStats {
	stats := TravelRequestStats{
		Total: len(requests),
		ByType: map[TripType]int{
			TripTypeBusiness: 0,
			TripTypeTourism:  0,
			TripTypeOther:    0,
		},
	}
	for _, req := range requests {
		switch req.Status {
		case StatusPending:
			stats.Pending++
		case StatusInProgress:
			stats.InProgress++
		case StatusCompleted:
			stats.Completed++
		}
		if req.TripType.Valid() {
			stats.ByType[req.TripType]++
		}
	}
	return stats
}
