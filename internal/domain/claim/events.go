package claim

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event
type EventType string

const (
	EventClaimSubmitted EventType = "ClaimSubmitted"
)

// Event is the envelope published to the claims topic.
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     EventType       `json:"event_type"`
	EventData     json.RawMessage `json:"event_data"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// ClaimSubmittedData is the payload of EventClaimSubmitted.
type ClaimSubmittedData struct {
	ClaimID     string    `json:"claim_id"`
	SessionID   string    `json:"session_id"`
	PatientID   string    `json:"patient_id,omitempty"`
	Code        string    `json:"code,omitempty"`
	Fields      Record    `json:"fields"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewEvent creates a new event
func NewEvent(aggregateID string, eventType EventType, data interface{}) (*Event, error) {
	eventData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: "Claim",
		EventType:     eventType,
		EventData:     eventData,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// NewClaimSubmittedEvent builds the event for a stored submission.
func NewClaimSubmittedEvent(sessionID, patientID string, sub *Submission) (*Event, error) {
	return NewEvent(sub.ID, EventClaimSubmitted, &ClaimSubmittedData{
		ClaimID:     sub.ID,
		SessionID:   sessionID,
		PatientID:   patientID,
		Code:        ClaimCode(sub.Fields),
		Fields:      sub.Fields,
		SubmittedAt: sub.SubmittedAt,
	})
}

// DecodeEvent parses an event envelope.
func DecodeEvent(b []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
