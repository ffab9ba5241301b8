package service

import (
	"context"
	"testing"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func validBookingRequest(userID string) CreateBookingRequest {
	start := time.Now().Add(time.Hour)
	return CreateBookingRequest{
		UserID:      userID,
		VehicleType: "scooter",
		VehicleID:   "SC-01",
		StartTime:   start.Format(time.RFC3339),
		EndTime:     start.Add(2 * time.Hour).Format(time.RFC3339),
		TotalPrice:  "25.00",
		Duration:    2,
		EstimatedKm: 30,
	}
}

func TestCreateBooking_IssuesVerificationCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")

	booking, err := f.bookings.CreateBooking(ctx, validBookingRequest(user.ID.String()))
	require.NoError(t, err)

	require.Equal(t, model.BookingPending, booking.Status)
	require.False(t, booking.IsVerified)
	require.Zero(t, booking.PointsAwarded)
	// The owner sees the code in display form.
	require.Regexp(t, displayCodePattern, booking.VerificationCode)
	require.Equal(t, "25.00", booking.TotalPrice)
	require.Equal(t, user.Email, booking.UserEmail)

	// Stored digits-only.
	stored, err := f.bookingRepo.FindByID(ctx, uuid.MustParse(booking.ID))
	require.NoError(t, err)
	require.Len(t, stored.VerificationCode, 6)
	require.NotContains(t, stored.VerificationCode, " ")
}

func TestCreateBooking_CodesAreUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		booking, err := f.bookings.CreateBooking(ctx, validBookingRequest(user.ID.String()))
		require.NoError(t, err)
		require.False(t, seen[booking.VerificationCode], "duplicate code issued")
		seen[booking.VerificationCode] = true
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")

	cases := []struct {
		name   string
		mutate func(*CreateBookingRequest)
		kind   apperr.Kind
	}{
		{"unknown user", func(r *CreateBookingRequest) { r.UserID = uuid.NewString() }, apperr.KindNotFound},
		{"bad user id", func(r *CreateBookingRequest) { r.UserID = "not-a-uuid" }, apperr.KindValidation},
		{"bad start time", func(r *CreateBookingRequest) { r.StartTime = "yesterday" }, apperr.KindValidation},
		{"end before start", func(r *CreateBookingRequest) { r.EndTime = r.StartTime }, apperr.KindValidation},
		{"bad price", func(r *CreateBookingRequest) { r.TotalPrice = "25,00" }, apperr.KindValidation},
		{"negative price", func(r *CreateBookingRequest) { r.TotalPrice = "-5.00" }, apperr.KindValidation},
		{"zero duration", func(r *CreateBookingRequest) { r.Duration = 0 }, apperr.KindValidation},
		{"negative km", func(r *CreateBookingRequest) { r.EstimatedKm = -1 }, apperr.KindValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validBookingRequest(user.ID.String())
			tc.mutate(&req)
			_, err := f.bookings.CreateBooking(ctx, req)
			require.Error(t, err)
			require.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")

	booking, err := f.bookings.CreateBooking(ctx, validBookingRequest(user.ID.String()))
	require.NoError(t, err)

	cancelled, err := f.bookings.CancelBooking(ctx, booking.ID, "payment failed")
	require.NoError(t, err)
	require.Equal(t, model.BookingCancelled, cancelled.Status)
	require.Equal(t, "payment failed", cancelled.ResolutionNote)

	// Terminal bookings stay put.
	_, err = f.bookings.CancelBooking(ctx, booking.ID, "again")
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestListBookings_ScopedToUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice@example.com")
	bob := f.seedUser(t, "bob@example.com")

	_, err := f.bookings.CreateBooking(ctx, validBookingRequest(alice.ID.String()))
	require.NoError(t, err)
	_, err = f.bookings.CreateBooking(ctx, validBookingRequest(alice.ID.String()))
	require.NoError(t, err)
	_, err = f.bookings.CreateBooking(ctx, validBookingRequest(bob.ID.String()))
	require.NoError(t, err)

	mine, total, err := f.bookings.ListBookings(ctx, alice.ID.String(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, mine, 2)
	for _, b := range mine {
		require.Equal(t, alice.ID.String(), b.UserID)
	}
}
