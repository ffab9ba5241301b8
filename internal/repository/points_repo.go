package repository

import (
	"context"

	"github.com/420btc/svcmoto-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PointsRepository is the append-only ledger access layer. There is no update
// or single-entry delete on purpose; corrections are new entries and the only
// bulk removal is the explicit history wipe.
type PointsRepository interface {
	Append(ctx context.Context, entry *model.PointsLedgerEntry) error
	// SumByUser derives the current balance as the signed sum of all entries.
	SumByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.PointsLedgerEntry, int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	SumSigned(ctx context.Context, positive bool) (int64, error)
}

type pointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) Append(ctx context.Context, entry *model.PointsLedgerEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *pointsRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sum struct {
		Value int64
	}
	err := GetDB(ctx, r.db).Model(&model.PointsLedgerEntry{}).
		Select("COALESCE(SUM(points), 0) as value").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	return sum.Value, err
}

func (r *pointsRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.PointsLedgerEntry, int64, error) {
	var entries []model.PointsLedgerEntry
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.PointsLedgerEntry{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Where("user_id = ?", userID).
		Order("created_at desc").Offset(offset).Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *pointsRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.PointsLedgerEntry{}).Error
}

func (r *pointsRepository) SumSigned(ctx context.Context, positive bool) (int64, error) {
	var sum struct {
		Value int64
	}
	cmp := "points > 0"
	if !positive {
		cmp = "points < 0"
	}
	err := GetDB(ctx, r.db).Model(&model.PointsLedgerEntry{}).
		Select("COALESCE(SUM(points), 0) as value").
		Where(cmp).
		Scan(&sum).Error
	return sum.Value, err
}
