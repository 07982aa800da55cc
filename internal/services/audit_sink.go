package services

import (
	"context"
	"errors"

	"github.com/smarttransit/transfer-booking-backend/internal/models"
)

// AuditSink receives one record per outgoing cart call
type AuditSink interface {
	Record(ctx context.Context, entry *models.RequestLog) error
}

// MultiAuditSink fans a record out to several sinks
type MultiAuditSink struct {
	sinks []AuditSink
}

// NewMultiAuditSink combines sinks, skipping nil ones
func NewMultiAuditSink(sinks ...AuditSink) *MultiAuditSink {
	m := &MultiAuditSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Record delivers to every sink and returns the joined failures
func (m *MultiAuditSink) Record(ctx context.Context, entry *models.RequestLog) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type clientInfoKey struct{}

// ClientInfo identifies the caller that triggered a cart call
type ClientInfo struct {
	IP     string
	Device string
}

// WithClientInfo attaches caller details recorded on request logs
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFromContext returns the caller details, if any
func ClientInfoFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}
