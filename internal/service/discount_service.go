package service

import (
	"context"
	"errors"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/config"
	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/internal/repository"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type GenerateDiscountRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	Points         int64  `json:"points" binding:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

type DiscountResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	PointsSpent   int64   `json:"points_spent"`
	RewardKind    string  `json:"reward_kind"`
	Amount        string  `json:"amount"`
	Description   string  `json:"description"`
	Code          string  `json:"code"` // "XXX XXX"
	Status        string  `json:"status"`
	ExpiresAt     string  `json:"expires_at"`
	ValidatedAt   *string `json:"validated_at,omitempty"`
	ValidatedBy   *string `json:"validated_by,omitempty"`
	ValidatorName string  `json:"validator_name,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// --- Interface ---

type DiscountService interface {
	// Generate redeems a tier of points into a fresh single-use discount code,
	// debiting the ledger in the same transaction.
	Generate(ctx context.Context, req GenerateDiscountRequest) (DiscountResponse, error)
	// Validate marks a discount code as used by the given operator. Expired
	// codes are lazily transitioned to EXPIRED on lookup.
	Validate(ctx context.Context, code string, operatorID string) (DiscountResponse, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]DiscountResponse, int64, error)
	// List is the staff view over all discounts, optionally filtered by status.
	List(ctx context.Context, status string, page, limit int) ([]DiscountResponse, int64, error)
}

type discountService struct {
	discountRepo repository.DiscountRepository
	pointsRepo   repository.PointsRepository
	userRepo     repository.UserRepository
	txManager    repository.TransactionManager
	cfg          config.Rewards
	tiers        []config.Tier
	notify       func(event string, payload interface{})
}

func NewDiscountService(
	discountRepo repository.DiscountRepository,
	pointsRepo repository.PointsRepository,
	userRepo repository.UserRepository,
	txManager repository.TransactionManager,
	cfg config.Rewards,
	tiers []config.Tier,
	notify func(event string, payload interface{}),
) DiscountService {
	return &discountService{
		discountRepo: discountRepo,
		pointsRepo:   pointsRepo,
		userRepo:     userRepo,
		txManager:    txManager,
		cfg:          cfg,
		tiers:        tiers,
		notify:       notify,
	}
}

// --- Implementation ---

func (s *discountService) Generate(ctx context.Context, req GenerateDiscountRequest) (DiscountResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return DiscountResponse{}, apperr.New(apperr.KindValidation, "invalid user id")
	}

	tier, ok := s.findTier(req.Points)
	if !ok {
		return DiscountResponse{}, apperr.Newf(apperr.KindValidation, "%d points does not match any redemption tier", req.Points)
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DiscountResponse{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return DiscountResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}

	var idemKey *string
	if req.IdempotencyKey != "" {
		k := req.IdempotencyKey
		idemKey = &k
		if prior, err := s.discountRepo.FindByIdempotencyKey(ctx, k); err == nil {
			return toDiscountResponse(*prior), nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return DiscountResponse{}, apperr.Wrap(apperr.KindInternal, "failed to check idempotency key", err)
		}
	}

	var discount model.Discount

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Balance is recomputed inside the transaction so a racing redemption
		// cannot overdraw the ledger.
		balance, sumErr := s.pointsRepo.SumByUser(txCtx, userID)
		if sumErr != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to compute balance", sumErr)
		}
		if balance < tier.Points {
			return apperr.InsufficientBalance(balance, tier.Points)
		}

		code, codeErr := s.generateUniqueCode(txCtx)
		if codeErr != nil {
			return codeErr
		}

		discount = model.Discount{
			UserID:         userID,
			PointsSpent:    tier.Points,
			RewardKind:     tier.RewardKind,
			Amount:         tier.Amount,
			Description:    tier.Description,
			Code:           code,
			Status:         model.DiscountPending,
			ExpiresAt:      time.Now().Add(s.cfg.DiscountValidity),
			IdempotencyKey: idemKey,
		}
		if createErr := s.discountRepo.Create(txCtx, &discount); createErr != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to create discount", createErr)
		}

		entry := model.PointsLedgerEntry{
			UserID:      userID,
			Points:      -tier.Points,
			Reason:      model.ReasonDiscountRedemption,
			Description: tier.Description,
		}
		if appendErr := s.pointsRepo.Append(txCtx, &entry); appendErr != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to debit points", appendErr)
		}

		return nil
	})
	if err != nil {
		return DiscountResponse{}, err
	}

	return toDiscountResponse(discount), nil
}

func (s *discountService) Validate(ctx context.Context, rawCode string, operatorID string) (DiscountResponse, error) {
	code := normalizeCode(rawCode)
	if len(code) != 6 {
		return DiscountResponse{}, apperr.New(apperr.KindValidation, "discount code not found")
	}

	opID, err := uuid.Parse(operatorID)
	if err != nil {
		return DiscountResponse{}, apperr.New(apperr.KindValidation, "invalid operator id")
	}

	discount, err := s.discountRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DiscountResponse{}, apperr.New(apperr.KindNotFound, "discount code not found")
		}
		return DiscountResponse{}, apperr.Wrap(apperr.KindInternal, "failed to look up discount", err)
	}

	// Lazy expiry: a stale PENDING row past its expiry is persisted as
	// EXPIRED before the status checks run.
	if discount.Status == model.DiscountPending && time.Now().After(discount.ExpiresAt) {
		discount.Status = model.DiscountExpired
		if err := s.discountRepo.Update(ctx, discount); err != nil {
			return DiscountResponse{}, apperr.Wrap(apperr.KindInternal, "failed to expire discount", err)
		}
	}

	switch discount.Status {
	case model.DiscountExpired:
		return DiscountResponse{}, apperr.Newf(apperr.KindExpired, "discount code expired on %s",
			discount.ExpiresAt.Format("2006-01-02"))
	case model.DiscountValidated:
		msg := "discount code has already been used"
		if discount.ValidatedAt != nil {
			msg += " on " + discount.ValidatedAt.Format(time.RFC3339)
		}
		if discount.Validator != nil {
			msg += " by " + discount.Validator.Name
		}
		return DiscountResponse{}, apperr.New(apperr.KindAlreadyUsed, msg)
	case model.DiscountCancelled:
		return DiscountResponse{}, apperr.New(apperr.KindCancelled, "discount code was cancelled")
	}

	now := time.Now()
	discount.Status = model.DiscountValidated
	discount.ValidatedAt = &now
	discount.ValidatedBy = &opID

	if err := s.discountRepo.Update(ctx, discount); err != nil {
		return DiscountResponse{}, apperr.Wrap(apperr.KindInternal, "failed to validate discount", err)
	}

	if s.notify != nil {
		s.notify("discount.validated", map[string]interface{}{
			"discount_id": discount.ID.String(),
			"operator_id": operatorID,
		})
	}

	return toDiscountResponse(*discount), nil
}

func (s *discountService) ListByUser(ctx context.Context, userID string, page, limit int) ([]DiscountResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, apperr.New(apperr.KindValidation, "invalid user id")
	}

	discounts, total, err := s.discountRepo.ListByUser(ctx, uid, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to fetch discounts", err)
	}

	result := make([]DiscountResponse, 0, len(discounts))
	for _, d := range discounts {
		result = append(result, toDiscountResponse(d))
	}
	return result, total, nil
}

var validDiscountStatuses = map[string]bool{
	model.DiscountPending:   true,
	model.DiscountValidated: true,
	model.DiscountExpired:   true,
	model.DiscountCancelled: true,
}

func (s *discountService) List(ctx context.Context, status string, page, limit int) ([]DiscountResponse, int64, error) {
	if status != "" && !validDiscountStatuses[status] {
		return nil, 0, apperr.Newf(apperr.KindValidation, "unknown status %q", status)
	}

	discounts, total, err := s.discountRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to fetch discounts", err)
	}

	result := make([]DiscountResponse, 0, len(discounts))
	for _, d := range discounts {
		result = append(result, toDiscountResponse(d))
	}
	return result, total, nil
}

func (s *discountService) findTier(points int64) (config.Tier, bool) {
	for _, t := range s.tiers {
		if t.Points == points {
			return t, true
		}
	}
	return config.Tier{}, false
}

func (s *discountService) generateUniqueCode(ctx context.Context) (string, error) {
	attempts := s.cfg.CodeAttempts
	if attempts <= 0 {
		attempts = 10
	}
	for i := 0; i < attempts; i++ {
		code, err := randomCode()
		if err != nil {
			return "", apperr.Wrap(apperr.KindInternal, "failed to generate discount code", err)
		}
		exists, err := s.discountRepo.CodeExists(ctx, code)
		if err != nil {
			return "", apperr.Wrap(apperr.KindInternal, "failed to check discount code", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperr.New(apperr.KindInternal, "could not generate a unique discount code")
}

// --- Mapping ---

func toDiscountResponse(d model.Discount) DiscountResponse {
	resp := DiscountResponse{
		ID:          d.ID.String(),
		UserID:      d.UserID.String(),
		PointsSpent: d.PointsSpent,
		RewardKind:  d.RewardKind,
		Amount:      d.Amount.StringFixed(2),
		Description: d.Description,
		Code:        formatCode(d.Code),
		Status:      d.Status,
		ExpiresAt:   d.ExpiresAt.Format(time.RFC3339),
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
	}
	if d.ValidatedAt != nil {
		s := d.ValidatedAt.Format(time.RFC3339)
		resp.ValidatedAt = &s
	}
	if d.ValidatedBy != nil {
		s := d.ValidatedBy.String()
		resp.ValidatedBy = &s
	}
	if d.Validator != nil {
		resp.ValidatorName = d.Validator.Name
	}
	return resp
}
