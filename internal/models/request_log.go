package models

import (
	"time"

	"github.com/google/uuid"
)

// CartOperation names the cart call a request log belongs to
type CartOperation string

const (
	OperationAddActivity      CartOperation = "add_activity"
	OperationRemoveActivity   CartOperation = "remove_activity"
	OperationAddOrUpdateExtra CartOperation = "add_or_update_extra"
	OperationRemoveExtra      CartOperation = "remove_extra"
	OperationApplyPromoCode   CartOperation = "apply_promo_code"
	OperationRemovePromoCode  CartOperation = "remove_promo_code"
	OperationReserve          CartOperation = "reserve"
	OperationChargeCard       CartOperation = "charge_card"
	OperationConfirm          CartOperation = "confirm"
)

// RequestLog is an immutable record of one outgoing cart call
type RequestLog struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	SessionID      string        `json:"session_id" db:"session_id"`
	Operation      CartOperation `json:"operation" db:"operation"`
	HTTPMethod     string        `json:"http_method" db:"http_method"`
	Path           string        `json:"path" db:"path"`
	OutgoingBody   JSONB         `json:"outgoing_body,omitempty" db:"outgoing_body"`
	RemoteResponse JSONB         `json:"remote_response,omitempty" db:"remote_response"`
	ErrorMessage   *string       `json:"error_message,omitempty" db:"error_message"`
	ClientIP       *string       `json:"client_ip,omitempty" db:"client_ip"`
	ClientDevice   *string       `json:"client_device,omitempty" db:"client_device"`
	DurationMs     int           `json:"duration_ms" db:"duration_ms"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}

// NewRequestLog creates a log entry for a cart call
func NewRequestLog(sessionID string, op CartOperation, method, path string) *RequestLog {
	return &RequestLog{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Operation:  op,
		HTTPMethod: method,
		Path:       path,
		CreatedAt:  time.Now(),
	}
}

// SetOutgoingBody stores the request body sent to Bokun
func (l *RequestLog) SetOutgoingBody(body interface{}) *RequestLog {
	l.OutgoingBody = ToJSONB(body)
	return l
}

// SetRemoteResponse stores the decoded Bokun response
func (l *RequestLog) SetRemoteResponse(raw []byte) *RequestLog {
	if len(raw) > 0 {
		l.RemoteResponse = ToJSONB(raw)
	}
	return l
}

// SetError records the failure of the call
func (l *RequestLog) SetError(err error) *RequestLog {
	if err != nil {
		msg := err.Error()
		l.ErrorMessage = &msg
	}
	return l
}

// SetClient records who triggered the call
func (l *RequestLog) SetClient(ip, device string) *RequestLog {
	if ip != "" {
		l.ClientIP = &ip
	}
	if device != "" {
		l.ClientDevice = &device
	}
	return l
}

// SetDuration calculates the call duration
func (l *RequestLog) SetDuration(start time.Time) *RequestLog {
	l.DurationMs = int(time.Since(start).Milliseconds())
	return l
}
