package service

import (
	"context"
	"testing"

	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/internal/payment"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"

	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	session payment.CheckoutSession
	err     error
}

func (p *stubProvider) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error) {
	return p.session, p.err
}

func TestStartCheckout(t *testing.T) {
	f := newFixture(t)
	provider := &stubProvider{session: payment.CheckoutSession{SessionID: "sess_1", RedirectURL: "https://pay.example.com/sess_1"}}
	svc := NewPaymentService(provider, f.bookings)

	resp, err := svc.StartCheckout(context.Background(), StartCheckoutRequest{TotalPrice: "25.00"})
	require.NoError(t, err)
	require.Equal(t, "sess_1", resp.SessionID)
	require.Equal(t, "https://pay.example.com/sess_1", resp.RedirectURL)
}

func TestHandleWebhook_SuccessCreatesBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	svc := NewPaymentService(&stubProvider{}, f.bookings)

	err := svc.HandleWebhook(ctx, WebhookEvent{
		Type:    "payment.succeeded",
		Booking: validBookingRequest(user.ID.String()),
	})
	require.NoError(t, err)

	bookings, total, err := f.bookings.ListBookings(ctx, user.ID.String(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, model.BookingPending, bookings[0].Status)
}

func TestHandleWebhook_FailureCancelsBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	svc := NewPaymentService(&stubProvider{}, f.bookings)

	booking, err := f.bookings.CreateBooking(ctx, validBookingRequest(user.ID.String()))
	require.NoError(t, err)

	err = svc.HandleWebhook(ctx, WebhookEvent{Type: "payment.failed", BookingID: booking.ID})
	require.NoError(t, err)

	cancelled, err := f.bookings.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	require.Equal(t, model.BookingCancelled, cancelled.Status)

	// A failure before anything was booked is a no-op.
	require.NoError(t, svc.HandleWebhook(ctx, WebhookEvent{Type: "payment.failed"}))
}

func TestHandleWebhook_UnknownType(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(&stubProvider{}, f.bookings)

	err := svc.HandleWebhook(context.Background(), WebhookEvent{Type: "payment.exploded"})
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
