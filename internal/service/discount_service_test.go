package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var displayCodePattern = regexp.MustCompile(`^\d{3} \d{3}$`)

func TestGenerate_DebitsLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	f.seedPoints(t, user.ID, 2000)

	discount, err := f.discounts.Generate(ctx, GenerateDiscountRequest{
		UserID: user.ID.String(),
		Points: 1875,
	})
	require.NoError(t, err)

	require.Equal(t, model.DiscountPending, discount.Status)
	require.Equal(t, model.RewardEuroAmount, discount.RewardKind)
	require.Equal(t, "5.00", discount.Amount)
	require.Regexp(t, displayCodePattern, discount.Code)

	require.Equal(t, int64(125), f.balance(t, user.ID))

	entries, _, err := f.pointsRepo.ListByUser(ctx, user.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(-1875), entries[0].Points)
	require.Equal(t, model.ReasonDiscountRedemption, entries[0].Reason)
}

func TestGenerate_InsufficientBalanceHasNoPartialEffect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	f.seedPoints(t, user.ID, 2000)

	_, err := f.discounts.Generate(ctx, GenerateDiscountRequest{UserID: user.ID.String(), Points: 1875})
	require.NoError(t, err)

	_, err = f.discounts.Generate(ctx, GenerateDiscountRequest{UserID: user.ID.String(), Points: 1875})
	require.Error(t, err)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.KindInsufficientBalance, appErr.Kind)
	require.Equal(t, int64(125), appErr.Available)
	require.Equal(t, int64(1875), appErr.Required)

	// The failed attempt left no discount and no ledger movement.
	require.Equal(t, int64(125), f.balance(t, user.ID))
	discounts, total, err := f.discounts.ListByUser(ctx, user.ID.String(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, discounts, 1)
}

func TestGenerate_FreeRentalTier(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "rider@example.com")
	f.seedPoints(t, user.ID, 5000)

	discount, err := f.discounts.Generate(context.Background(), GenerateDiscountRequest{
		UserID: user.ID.String(),
		Points: 5000,
	})
	require.NoError(t, err)
	require.Equal(t, model.RewardFreeRental, discount.RewardKind)
	require.Equal(t, "0.00", discount.Amount)
	require.Zero(t, f.balance(t, user.ID))
}

func TestGenerate_RejectsOffTierAmount(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "rider@example.com")
	f.seedPoints(t, user.ID, 5000)

	_, err := f.discounts.Generate(context.Background(), GenerateDiscountRequest{
		UserID: user.ID.String(),
		Points: 2000,
	})
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	// Nothing was debited.
	require.Equal(t, int64(5000), f.balance(t, user.ID))
}

func TestGenerate_IdempotencyKeyReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	f.seedPoints(t, user.ID, 2000)

	req := GenerateDiscountRequest{UserID: user.ID.String(), Points: 1875, IdempotencyKey: "redeem-xyz-1"}

	first, err := f.discounts.Generate(ctx, req)
	require.NoError(t, err)

	second, err := f.discounts.Generate(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Code, second.Code)

	// Debited exactly once.
	require.Equal(t, int64(125), f.balance(t, user.ID))
}

func TestValidate_MarksCodeUsed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	staff := f.seedStaff(t, "staff@example.com")
	f.seedPoints(t, user.ID, 2000)

	discount, err := f.discounts.Generate(ctx, GenerateDiscountRequest{UserID: user.ID.String(), Points: 1875})
	require.NoError(t, err)

	validated, err := f.discounts.Validate(ctx, discount.Code, staff.ID.String())
	require.NoError(t, err)
	require.Equal(t, model.DiscountValidated, validated.Status)
	require.NotNil(t, validated.ValidatedAt)
	require.NotNil(t, validated.ValidatedBy)
	require.Equal(t, staff.ID.String(), *validated.ValidatedBy)
}

func TestValidate_SecondUseRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	staff := f.seedStaff(t, "staff@example.com")
	f.seedPoints(t, user.ID, 2000)

	discount, err := f.discounts.Generate(ctx, GenerateDiscountRequest{UserID: user.ID.String(), Points: 1875})
	require.NoError(t, err)

	first, err := f.discounts.Validate(ctx, discount.Code, staff.ID.String())
	require.NoError(t, err)

	_, err = f.discounts.Validate(ctx, discount.Code, staff.ID.String())
	require.Error(t, err)
	require.Equal(t, apperr.KindAlreadyUsed, apperr.KindOf(err))
	// The rejection message names when and by whom.
	require.Contains(t, err.Error(), "already been used")
	require.Contains(t, err.Error(), "Test User")

	// The original validation stamp is untouched.
	stored, err := f.discountRepo.FindByCode(ctx, normalizeCode(discount.Code))
	require.NoError(t, err)
	require.NotNil(t, stored.ValidatedAt)
	require.Equal(t, *first.ValidatedAt, stored.ValidatedAt.Format(time.RFC3339))
}

func TestValidate_LazyExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	staff := f.seedStaff(t, "staff@example.com")

	// A stale PENDING row whose expiry has passed.
	stale := &model.Discount{
		UserID:      user.ID,
		PointsSpent: 1875,
		RewardKind:  model.RewardEuroAmount,
		Amount:      decimal.NewFromInt(5),
		Description: "5€ discount on your next rental",
		Code:        "777888",
		Status:      model.DiscountPending,
		ExpiresAt:   time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, f.discountRepo.Create(ctx, stale))

	_, err := f.discounts.Validate(ctx, "777888", staff.ID.String())
	require.Error(t, err)
	require.Equal(t, apperr.KindExpired, apperr.KindOf(err))

	// The transition was persisted, not just reported.
	stored, err := f.discountRepo.FindByCode(ctx, "777888")
	require.NoError(t, err)
	require.Equal(t, model.DiscountExpired, stored.Status)
}

func TestList_StaffViewFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "rider@example.com")
	staff := f.seedStaff(t, "staff@example.com")
	f.seedPoints(t, user.ID, 5000)

	first, err := f.discounts.Generate(ctx, GenerateDiscountRequest{UserID: user.ID.String(), Points: 1875})
	require.NoError(t, err)
	_, err = f.discounts.Generate(ctx, GenerateDiscountRequest{UserID: user.ID.String(), Points: 3125})
	require.NoError(t, err)

	_, err = f.discounts.Validate(ctx, first.Code, staff.ID.String())
	require.NoError(t, err)

	all, total, err := f.discounts.List(ctx, "", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, all, 2)

	validated, total, err := f.discounts.List(ctx, model.DiscountValidated, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Test User", validated[0].ValidatorName)

	_, _, err = f.discounts.List(ctx, "REDEEMED", 1, 10)
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestValidate_UnknownCode(t *testing.T) {
	f := newFixture(t)
	staff := f.seedStaff(t, "staff@example.com")

	_, err := f.discounts.Validate(context.Background(), "123456", staff.ID.String())
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
