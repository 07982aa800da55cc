package events

import (
	"context"
	"errors"
	"testing"

	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    interface{}
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{subject: subject, data: data})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func TestRequestLogPublisher_Record(t *testing.T) {
	pub := &fakePublisher{}
	publisher := NewRequestLogPublisher(pub)

	entry := models.NewRequestLog("sess-1", models.OperationAddActivity, "POST", "/shopping-cart.json/session/sess-1/activity").
		SetOutgoingBody(map[string]interface{}{"activityId": 55}).
		SetError(errors.New("Sold out"))

	require.NoError(t, publisher.Record(context.Background(), entry))
	require.Len(t, pub.sent, 1)
	assert.Equal(t, RequestLogged, pub.sent[0].subject)

	event := pub.sent[0].data.(RequestLoggedEvent)
	assert.Equal(t, entry.ID, event.ID)
	assert.Equal(t, "sess-1", event.SessionID)
	assert.Equal(t, "Sold out", event.Error)
	assert.Equal(t, float64(55), event.OutgoingBody["activityId"])
}

func TestRequestLogPublisher_Confirmed(t *testing.T) {
	pub := &fakePublisher{}
	publisher := NewRequestLogPublisher(pub)

	entry := models.NewRequestLog("sess-1", models.OperationConfirm, "POST", "/booking.json/900/confirm").
		SetRemoteResponse([]byte(`{"bookingId": 900, "confirmationCode": "TRF-900"}`))

	require.NoError(t, publisher.Record(context.Background(), entry))
	require.Len(t, pub.sent, 2)

	assert.Equal(t, BookingConfirmed, pub.sent[1].subject)
	assert.Equal(t, BookingConfirmedEvent{
		SessionID:        "sess-1",
		BookingID:        900,
		ConfirmationCode: "TRF-900",
		OccurredAt:       entry.CreatedAt,
	}, pub.sent[1].data)
}

func TestRequestLogPublisher_FailedConfirmIsNotAnnounced(t *testing.T) {
	pub := &fakePublisher{}
	publisher := NewRequestLogPublisher(pub)

	entry := models.NewRequestLog("sess-1", models.OperationConfirm, "POST", "/booking.json/900/confirm").
		SetError(errors.New("Transaction is Inactive"))

	require.NoError(t, publisher.Record(context.Background(), entry))
	assert.Len(t, pub.sent, 1)
}

func TestRequestLogPublisher_PublishError(t *testing.T) {
	publisher := NewRequestLogPublisher(&fakePublisher{err: errors.New("nats: connection closed")})

	err := publisher.Record(context.Background(), models.NewRequestLog("sess-1", models.OperationReserve, "POST", "/x"))
	assert.EqualError(t, err, "nats: connection closed")
}
