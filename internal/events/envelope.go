package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source is stamped on every envelope this service emits.
const Source = "clinic-scheduling-agent"

// Event is a versioned scheduling event payload.
type Event interface {
	EventType() string
}

// Envelope wraps a payload with the metadata consumers route on.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Aggregate     string          `json:"aggregate"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EnvelopeOption adjusts an envelope after it is built.
type EnvelopeOption func(*Envelope)

// WithEventID pins the event id. A nil uuid is ignored.
func WithEventID(id uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		if id != uuid.Nil {
			e.EventID = id
		}
	}
}

// WithOccurredAt pins the occurrence time. A zero time is ignored.
func WithOccurredAt(ts time.Time) EnvelopeOption {
	return func(e *Envelope) {
		if !ts.IsZero() {
			e.OccurredAt = ts.UTC()
		}
	}
}

var (
	ErrMissingAggregate = errors.New("events: aggregate is required")
	ErrNilEvent         = errors.New("events: event is required")
	ErrTypeMismatch     = errors.New("events: payload type mismatch")

	nowFunc = time.Now
)

// NewEnvelope encodes evt under aggregate, e.g. "booking:APPT-1700000000000".
func NewEnvelope(aggregate, correlationID string, evt Event, opts ...EnvelopeOption) (Envelope, error) {
	aggregate = strings.TrimSpace(aggregate)
	if aggregate == "" {
		return Envelope{}, ErrMissingAggregate
	}
	if evt == nil {
		return Envelope{}, ErrNilEvent
	}
	eventType := strings.TrimSpace(evt.EventType())
	if eventType == "" {
		return Envelope{}, errors.New("events: event type missing")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: marshal %s: %w", eventType, err)
	}

	env := Envelope{
		EventID:       uuid.New(),
		EventType:     eventType,
		Source:        Source,
		Aggregate:     aggregate,
		OccurredAt:    nowFunc().UTC(),
		CorrelationID: strings.TrimSpace(correlationID),
		Payload:       payload,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&env)
		}
	}
	return env, nil
}

// Decode unmarshals the payload into dst after checking the event type matches.
func (e Envelope) Decode(dst Event) error {
	if dst == nil {
		return ErrNilEvent
	}
	if dst.EventType() != e.EventType {
		return fmt.Errorf("%w: envelope carries %s, want %s", ErrTypeMismatch, e.EventType, dst.EventType())
	}
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("events: decode %s: %w", e.EventType, err)
	}
	return nil
}
