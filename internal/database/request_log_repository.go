package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
)

// RequestLogRepository stores one row per outgoing cart call
type RequestLogRepository struct {
	db     DB
	logger *logrus.Logger
}

// NewRequestLogRepository creates a new request log repository
func NewRequestLogRepository(db DB, logger *logrus.Logger) *RequestLogRepository {
	return &RequestLogRepository{
		db:     db,
		logger: logger,
	}
}

// Record inserts a request log entry
func (r *RequestLogRepository) Record(ctx context.Context, entry *models.RequestLog) error {
	if entry == nil {
		return fmt.Errorf("request log entry cannot be nil")
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO request_logs (
			id, session_id, operation, http_method, path,
			outgoing_body, remote_response, error_message,
			client_ip, client_device, duration_ms, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12
		)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.SessionID, entry.Operation, entry.HTTPMethod, entry.Path,
		entry.OutgoingBody, entry.RemoteResponse, entry.ErrorMessage,
		entry.ClientIP, entry.ClientDevice, entry.DurationMs, entry.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"session_id": entry.SessionID,
			"operation":  entry.Operation,
		}).Error("Failed to store request log")
		return fmt.Errorf("failed to store request log: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"log_id":     entry.ID,
		"session_id": entry.SessionID,
		"operation":  entry.Operation,
	}).Debug("Request log stored")

	return nil
}

// ListBySession returns the request logs of a cart session, oldest first
func (r *RequestLogRepository) ListBySession(ctx context.Context, sessionID string) ([]models.RequestLog, error) {
	query := `
		SELECT id, session_id, operation, http_method, path,
		       outgoing_body, remote_response, error_message,
		       client_ip, client_device, duration_ms, created_at
		FROM request_logs
		WHERE session_id = $1
		ORDER BY created_at`

	logs := []models.RequestLog{}
	if err := r.db.SelectContext(ctx, &logs, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list request logs: %w", err)
	}
	return logs, nil
}

// DeleteOlderThan removes request logs created before cutoff
func (r *RequestLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM request_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge request logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
