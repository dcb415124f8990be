package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Message attributes understood by every backend.
const (
	// AttrContentType carries the payload media type.
	AttrContentType = "content_type"
	// AttrEventType names the event; RabbitMQ routes on it.
	AttrEventType = "event_type"
	// AttrOrderingKey groups messages that must be delivered in order.
	AttrOrderingKey = "ordering_key"
)

// TravelRequestsChannel carries travel request lifecycle events.
const TravelRequestsChannel = "travel-requests"

// Message is a payload as delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Returning an error asks the broker to
// redeliver it.
type Handler func(ctx context.Context, msg Message) error

// Backend is implemented by each broker client.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ publishes and consumes travel request events over a Backend.
type MQ struct {
	backend Backend
}

func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// EventType names a travel request lifecycle transition.
type EventType string

const (
	EventCreated       EventType = "travel_request.created"
	EventStatusChanged EventType = "travel_request.status_changed"
	EventDeleted       EventType = "travel_request.deleted"
)

// Event is the JSON payload published for travel request changes.
type Event struct {
	Type       EventType `json:"type"`
	ID         int       `json:"id"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// PublishEvent encodes ev as JSON and publishes it on channel. Events for the
// same travel request share an ordering key.
func (m *MQ) PublishEvent(ctx context.Context, channel string, ev Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	return m.backend.Publish(ctx, channel, data, map[string]string{
		AttrEventType:   string(ev.Type),
		AttrOrderingKey: strconv.Itoa(ev.ID),
		AttrContentType: "application/json",
	})
}

// Publish sends raw data on channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe hands every message on channel to handler until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

func (m *MQ) Close() error {
	return m.backend.Close()
}

// DecodeEvent parses a message published by PublishEvent.
func DecodeEvent(msg Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	return ev, nil
}
