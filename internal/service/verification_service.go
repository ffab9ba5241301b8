package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/config"
	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/internal/repository"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// codeNotFoundMsg is deliberately identical for a malformed code and an
// unknown code, so the endpoint does not reveal which codes exist.
const codeNotFoundMsg = "code not found or already verified"

// --- DTOs ---

type VerifyBookingRequest struct {
	Code string `json:"code" binding:"required"`
	// IdempotencyKey lets a client retry a timed-out verification without
	// double-crediting points.
	IdempotencyKey string `json:"idempotency_key"`
}

type VerifyBookingResponse struct {
	Booking       BookingResponse `json:"booking"`
	PointsAwarded int64           `json:"points_awarded"`
}

type ResolveExpiredRequest struct {
	// Pointer so an explicit false survives the required check.
	UserConfirmed *bool `json:"user_confirmed" binding:"required"`
}

// --- Interface ---

type VerificationService interface {
	// VerifyByCode completes a pending booking by its verification code and
	// credits points, both in one transaction.
	VerifyByCode(ctx context.Context, req VerifyBookingRequest) (VerifyBookingResponse, error)
	// ListPendingConfirmation returns the user's expired unverified bookings
	// that have not been offered the confirmation flow yet, and stamps them
	// as offered so each booking is prompted once.
	ListPendingConfirmation(ctx context.Context, userID string) ([]BookingResponse, error)
	// ResolveExpired settles an expired unverified booking from the user's
	// answer to "did the rental happen?".
	ResolveExpired(ctx context.Context, bookingID string, req ResolveExpiredRequest) (BookingResponse, error)
	// ListRecentVerifications feeds the staff console with the latest
	// verified bookings.
	ListRecentVerifications(ctx context.Context, limit int) ([]BookingResponse, error)
}

type verificationService struct {
	bookingRepo repository.BookingRepository
	pointsRepo  repository.PointsRepository
	txManager   repository.TransactionManager
	cfg         config.Rewards
	notify      func(event string, payload interface{})
}

// NewVerificationService wires the verification console and the expiry
// reconciler. notify may be nil; when set it receives realtime events for
// the staff websocket feed.
func NewVerificationService(
	bookingRepo repository.BookingRepository,
	pointsRepo repository.PointsRepository,
	txManager repository.TransactionManager,
	cfg config.Rewards,
	notify func(event string, payload interface{}),
) VerificationService {
	return &verificationService{
		bookingRepo: bookingRepo,
		pointsRepo:  pointsRepo,
		txManager:   txManager,
		cfg:         cfg,
		notify:      notify,
	}
}

// --- Implementation ---

func (s *verificationService) VerifyByCode(ctx context.Context, req VerifyBookingRequest) (VerifyBookingResponse, error) {
	code := normalizeCode(req.Code)
	if len(code) != 6 {
		return VerifyBookingResponse{}, apperr.New(apperr.KindValidation, codeNotFoundMsg)
	}

	var idemKey *string
	if req.IdempotencyKey != "" {
		k := req.IdempotencyKey
		idemKey = &k
		// A replay with a known key returns the original outcome instead of
		// failing on "already verified".
		if prior, err := s.bookingRepo.FindByIdempotencyKey(ctx, k); err == nil {
			return VerifyBookingResponse{
				Booking:       toBookingResponse(*prior, false),
				PointsAwarded: prior.PointsAwarded,
			}, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return VerifyBookingResponse{}, apperr.Wrap(apperr.KindInternal, "failed to check idempotency key", err)
		}
	}

	var booking *model.Booking
	var points int64

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		booking, findErr = s.bookingRepo.FindPendingByCode(txCtx, code)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindNotFound, codeNotFoundMsg)
			}
			return apperr.Wrap(apperr.KindInternal, "failed to look up code", findErr)
		}

		points = s.computePoints(booking.TotalPrice)

		booking.IsVerified = true
		booking.Status = model.BookingCompleted
		booking.PointsAwarded = points
		booking.VerifyIdempotency = idemKey

		if updateErr := s.bookingRepo.Update(txCtx, booking); updateErr != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to update booking", updateErr)
		}

		entry := model.PointsLedgerEntry{
			UserID:      booking.UserID,
			BookingID:   &booking.ID,
			Points:      points,
			Reason:      model.ReasonRentalCompletion,
			Description: fmt.Sprintf("Rental %s completed and verified", booking.VehicleType),
		}
		if appendErr := s.pointsRepo.Append(txCtx, &entry); appendErr != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to credit points", appendErr)
		}

		return nil
	})
	if err != nil {
		return VerifyBookingResponse{}, err
	}

	if s.notify != nil {
		s.notify("booking.verified", map[string]interface{}{
			"booking_id":     booking.ID.String(),
			"points_awarded": points,
		})
	}

	return VerifyBookingResponse{
		Booking:       toBookingResponse(*booking, false),
		PointsAwarded: points,
	}, nil
}

// computePoints applies floor(totalPrice × pointsPerEuro) + completionBonus.
func (s *verificationService) computePoints(price decimal.Decimal) int64 {
	perEuro := decimal.NewFromInt(s.cfg.PointsPerEuro)
	return price.Mul(perEuro).Floor().IntPart() + s.cfg.CompletionBonus
}

func (s *verificationService) ListPendingConfirmation(ctx context.Context, userID string) ([]BookingResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid user id")
	}

	cutoff := time.Now().Add(-s.cfg.ReconcileGrace)
	bookings, err := s.bookingRepo.ListExpiredPending(ctx, uid, cutoff)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch expired bookings", err)
	}

	now := time.Now()
	result := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		b.ExpiryPromptedAt = &now
		if err := s.bookingRepo.Update(ctx, b); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to mark booking as prompted", err)
		}
		result = append(result, toBookingResponse(*b, false))
	}
	return result, nil
}

func (s *verificationService) ListRecentVerifications(ctx context.Context, limit int) ([]BookingResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	bookings, err := s.bookingRepo.ListRecentVerified(ctx, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch recent verifications", err)
	}

	result := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, toBookingResponse(b, false))
	}
	return result, nil
}

func (s *verificationService) ResolveExpired(ctx context.Context, bookingID string, req ResolveExpiredRequest) (BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return BookingResponse{}, apperr.New(apperr.KindValidation, "invalid booking id")
	}

	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BookingResponse{}, apperr.New(apperr.KindNotFound, "booking not found")
		}
		return BookingResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load booking", err)
	}

	if booking.Status != model.BookingPending || booking.IsVerified {
		return BookingResponse{}, apperr.New(apperr.KindConflict, "booking has already been processed")
	}
	if time.Now().Before(booking.EndTime) {
		return BookingResponse{}, apperr.New(apperr.KindConflict, "rental window has not ended yet")
	}

	now := time.Now()
	booking.ResolvedAt = &now
	booking.PointsAwarded = 0
	if req.UserConfirmed != nil && *req.UserConfirmed {
		// Rental happened but was never verified at the counter: completed
		// without points.
		booking.Status = model.BookingCompletedNoVerify
		booking.ResolutionNote = "Confirmed by customer after expiry; no verification, no points awarded"
	} else {
		booking.Status = model.BookingCancelled
		booking.ResolutionNote = "Customer reported the rental did not take place"
	}

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return BookingResponse{}, apperr.Wrap(apperr.KindInternal, "failed to resolve booking", err)
	}

	return toBookingResponse(*booking, false), nil
}
