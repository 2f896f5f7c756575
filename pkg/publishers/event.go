package publishers

import (
	"strconv"
	"time"

	"github.com/atanenl/portabase-go/internal/domain"
	"github.com/google/uuid"
)

// EventTypeQualificationSubmitted is emitted after the service accepted a qualification.
const EventTypeQualificationSubmitted = "qualification.submitted"

// Event represents the payload published downstream.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Receipt   domain.Receipt `json:"receipt"`
	EmittedAt time.Time      `json:"emitted_at"`
}

// NewEvent constructs a submission Event for the given receipt.
func NewEvent(receipt domain.Receipt) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      EventTypeQualificationSubmitted,
		Receipt:   receipt,
		EmittedAt: time.Now().UTC(),
	}
}

// Attributes returns the routing attributes shared by queue and topic sinks.
func (e Event) Attributes() map[string]string {
	return map[string]string{
		"event_type":         e.Type,
		"host_id":            strconv.Itoa(e.Receipt.HostID),
		"qualification_type": e.Receipt.QualificationType,
	}
}
