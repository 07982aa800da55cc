package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
)

// RequestLoggedEvent mirrors one stored request log
type RequestLoggedEvent struct {
	ID           uuid.UUID            `json:"id"`
	SessionID    string               `json:"session_id"`
	Operation    models.CartOperation `json:"operation"`
	HTTPMethod   string               `json:"http_method"`
	Path         string               `json:"path"`
	OutgoingBody models.JSONB         `json:"outgoing_body,omitempty"`
	Response     models.JSONB         `json:"remote_response,omitempty"`
	Error        string               `json:"error,omitempty"`
	DurationMs   int                  `json:"duration_ms"`
	OccurredAt   time.Time            `json:"occurred_at"`
}

// BookingConfirmedEvent is published once a confirm call succeeds
type BookingConfirmedEvent struct {
	SessionID        string    `json:"session_id"`
	BookingID        int64     `json:"booking_id"`
	ConfirmationCode string    `json:"confirmation_code,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// RequestLogPublisher fans request logs out to the event bus
type RequestLogPublisher struct {
	pub Publisher
}

func NewRequestLogPublisher(pub Publisher) *RequestLogPublisher {
	return &RequestLogPublisher{pub: pub}
}

// Record publishes the entry on RequestLogged, and a BookingConfirmed event
// for successful confirm calls.
func (p *RequestLogPublisher) Record(ctx context.Context, entry *models.RequestLog) error {
	event := RequestLoggedEvent{
		ID:           entry.ID,
		SessionID:    entry.SessionID,
		Operation:    entry.Operation,
		HTTPMethod:   entry.HTTPMethod,
		Path:         entry.Path,
		OutgoingBody: entry.OutgoingBody,
		Response:     entry.RemoteResponse,
		DurationMs:   entry.DurationMs,
		OccurredAt:   entry.CreatedAt,
	}
	if entry.ErrorMessage != nil {
		event.Error = *entry.ErrorMessage
	}

	if err := p.pub.Publish(ctx, RequestLogged, event); err != nil {
		return err
	}

	if entry.Operation != models.OperationConfirm || entry.ErrorMessage != nil {
		return nil
	}

	confirmed := BookingConfirmedEvent{
		SessionID:  entry.SessionID,
		OccurredAt: entry.CreatedAt,
	}
	if id, ok := entry.RemoteResponse["bookingId"].(float64); ok {
		confirmed.BookingID = int64(id)
	}
	if code, ok := entry.RemoteResponse["confirmationCode"].(string); ok {
		confirmed.ConfirmationCode = code
	}

	return p.pub.Publish(ctx, BookingConfirmed, confirmed)
}
