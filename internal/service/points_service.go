package service

import (
	"context"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/internal/repository"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"

	"github.com/google/uuid"
)

// --- DTOs ---

type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type LedgerEntryResponse struct {
	ID          string  `json:"id"`
	BookingID   *string `json:"booking_id,omitempty"`
	Points      int64   `json:"points"`
	Reason      string  `json:"reason"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// --- Interface ---

// PointsService is the read-only balance surface. The ledger is only written
// through booking verification (credit) and discount issuance (debit).
type PointsService interface {
	GetBalance(ctx context.Context, userID string) (BalanceResponse, error)
	ListLedger(ctx context.Context, userID string, page, limit int) ([]LedgerEntryResponse, int64, error)
}

type pointsService struct {
	pointsRepo repository.PointsRepository
}

func NewPointsService(pointsRepo repository.PointsRepository) PointsService {
	return &pointsService{pointsRepo: pointsRepo}
}

// --- Implementation ---

func (s *pointsService) GetBalance(ctx context.Context, userID string) (BalanceResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return BalanceResponse{}, apperr.New(apperr.KindValidation, "invalid user id")
	}

	balance, err := s.pointsRepo.SumByUser(ctx, uid)
	if err != nil {
		return BalanceResponse{}, apperr.Wrap(apperr.KindInternal, "failed to compute balance", err)
	}

	return BalanceResponse{UserID: userID, Balance: balance}, nil
}

func (s *pointsService) ListLedger(ctx context.Context, userID string, page, limit int) ([]LedgerEntryResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, apperr.New(apperr.KindValidation, "invalid user id")
	}

	entries, total, err := s.pointsRepo.ListByUser(ctx, uid, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to fetch ledger", err)
	}

	result := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, toLedgerEntryResponse(e))
	}
	return result, total, nil
}

// --- Mapping ---

func toLedgerEntryResponse(e model.PointsLedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:          e.ID.String(),
		Points:      e.Points,
		Reason:      e.Reason,
		Description: e.Description,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.BookingID != nil {
		s := e.BookingID.String()
		resp.BookingID = &s
	}
	return resp
}
