package service

import (
	"context"
	"testing"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"

	"github.com/stretchr/testify/require"
)

func TestVerifyByCode_CompletesBookingAndCreditsPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	booking := f.seedBooking(t, user.ID, "25.00", "483921", time.Now().Add(time.Hour))

	// Staff may type the code with the display spacing.
	result, err := f.verify.VerifyByCode(ctx, VerifyBookingRequest{Code: "483 921"})
	require.NoError(t, err)

	// floor(25.00 * 12) + 40
	require.Equal(t, int64(340), result.PointsAwarded)
	require.Equal(t, model.BookingCompleted, result.Booking.Status)
	require.True(t, result.Booking.IsVerified)

	stored, err := f.bookingRepo.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	require.True(t, stored.IsVerified)
	require.Equal(t, int64(340), stored.PointsAwarded)

	require.Equal(t, int64(340), f.balance(t, user.ID))
	require.Equal(t, 1, f.ledgerCount(t, user.ID))

	entries, _, err := f.pointsRepo.ListByUser(ctx, user.ID, 1, 10)
	require.NoError(t, err)
	require.Equal(t, model.ReasonRentalCompletion, entries[0].Reason)
	require.NotNil(t, entries[0].BookingID)
	require.Equal(t, booking.ID, *entries[0].BookingID)
}

func TestVerifyByCode_FractionalPriceFloors(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "rider@example.com")
	f.seedBooking(t, user.ID, "10.99", "111222", time.Now().Add(time.Hour))

	// floor(10.99 * 12) = floor(131.88) = 131, plus the 40 bonus
	result, err := f.verify.VerifyByCode(context.Background(), VerifyBookingRequest{Code: "111222"})
	require.NoError(t, err)
	require.Equal(t, int64(171), result.PointsAwarded)
}

func TestVerifyByCode_UnknownAndMalformedLookAlike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, unknownErr := f.verify.VerifyByCode(ctx, VerifyBookingRequest{Code: "999999"})
	require.Error(t, unknownErr)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(unknownErr))

	_, malformedErr := f.verify.VerifyByCode(ctx, VerifyBookingRequest{Code: "12"})
	require.Error(t, malformedErr)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(malformedErr))

	// Same message either way, so the endpoint does not leak which codes exist.
	require.Equal(t, unknownErr.Error(), malformedErr.Error())
}

func TestVerifyByCode_SecondAttemptFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	f.seedBooking(t, user.ID, "25.00", "483921", time.Now().Add(time.Hour))

	_, err := f.verify.VerifyByCode(ctx, VerifyBookingRequest{Code: "483921"})
	require.NoError(t, err)

	_, err = f.verify.VerifyByCode(ctx, VerifyBookingRequest{Code: "483921"})
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// Points were credited exactly once.
	require.Equal(t, int64(340), f.balance(t, user.ID))
	require.Equal(t, 1, f.ledgerCount(t, user.ID))
}

func TestVerifyByCode_IdempotencyKeyReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	f.seedBooking(t, user.ID, "25.00", "483921", time.Now().Add(time.Hour))

	req := VerifyBookingRequest{Code: "483921", IdempotencyKey: "retry-abc-1"}

	first, err := f.verify.VerifyByCode(ctx, req)
	require.NoError(t, err)

	// The retried request returns the original outcome instead of failing.
	second, err := f.verify.VerifyByCode(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first.Booking.ID, second.Booking.ID)
	require.Equal(t, first.PointsAwarded, second.PointsAwarded)

	require.Equal(t, int64(340), f.balance(t, user.ID))
	require.Equal(t, 1, f.ledgerCount(t, user.ID))
}

func TestListRecentVerifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	f.seedBooking(t, user.ID, "25.00", "483921", time.Now().Add(time.Hour))
	f.seedBooking(t, user.ID, "10.00", "111222", time.Now().Add(time.Hour))

	_, err := f.verify.VerifyByCode(ctx, VerifyBookingRequest{Code: "483921"})
	require.NoError(t, err)

	recent, err := f.verify.ListRecentVerifications(ctx, 20)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.True(t, recent[0].IsVerified)
	require.Equal(t, user.Email, recent[0].UserEmail)
}

func TestListPendingConfirmation_OfferedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	// Ended two hours ago, well past the one-hour grace.
	f.seedBooking(t, user.ID, "25.00", "483921", time.Now().Add(-2*time.Hour))

	pending, err := f.verify.ListPendingConfirmation(ctx, user.ID.String())
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// The same booking is never offered a second time.
	again, err := f.verify.ListPendingConfirmation(ctx, user.ID.String())
	require.NoError(t, err)
	require.Empty(t, again)
}

func TestListPendingConfirmation_RespectsGrace(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "rider@example.com")
	// Ended ten minutes ago, still inside the grace window.
	f.seedBooking(t, user.ID, "25.00", "483921", time.Now().Add(-10*time.Minute))

	pending, err := f.verify.ListPendingConfirmation(context.Background(), user.ID.String())
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestResolveExpired_ConfirmedCompletesWithoutPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	booking := f.seedBooking(t, user.ID, "25.00", "483921", time.Now().Add(-2*time.Hour))

	confirmed := true
	result, err := f.verify.ResolveExpired(ctx, booking.ID.String(), ResolveExpiredRequest{UserConfirmed: &confirmed})
	require.NoError(t, err)

	require.Equal(t, model.BookingCompletedNoVerify, result.Status)
	require.Zero(t, result.PointsAwarded)
	require.False(t, result.IsVerified)

	// No ledger movement for an unverified completion.
	require.Zero(t, f.balance(t, user.ID))
	require.Zero(t, f.ledgerCount(t, user.ID))

	stored, err := f.bookingRepo.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResolvedAt)
}

func TestResolveExpired_DeniedCancels(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "rider@example.com")
	booking := f.seedBooking(t, user.ID, "25.00", "483921", time.Now().Add(-2*time.Hour))

	denied := false
	result, err := f.verify.ResolveExpired(context.Background(), booking.ID.String(), ResolveExpiredRequest{UserConfirmed: &denied})
	require.NoError(t, err)
	require.Equal(t, model.BookingCancelled, result.Status)
	require.Zero(t, result.PointsAwarded)
}

func TestResolveExpired_RejectsActiveBooking(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "rider@example.com")
	booking := f.seedBooking(t, user.ID, "25.00", "483921", time.Now().Add(time.Hour))

	confirmed := true
	_, err := f.verify.ResolveExpired(context.Background(), booking.ID.String(), ResolveExpiredRequest{UserConfirmed: &confirmed})
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestResolveExpired_RejectsProcessedBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	booking := f.seedBooking(t, user.ID, "25.00", "483921", time.Now().Add(time.Hour))

	_, err := f.verify.VerifyByCode(ctx, VerifyBookingRequest{Code: "483921"})
	require.NoError(t, err)

	confirmed := true
	_, err = f.verify.ResolveExpired(ctx, booking.ID.String(), ResolveExpiredRequest{UserConfirmed: &confirmed})
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}
