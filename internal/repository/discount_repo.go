package repository

import (
	"context"

	"github.com/420btc/svcmoto-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DiscountRepository interface {
	Create(ctx context.Context, discount *model.Discount) error
	FindByCode(ctx context.Context, code string) (*model.Discount, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Discount, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Discount, int64, error)
	// List returns all discounts, optionally filtered by status, for staff.
	List(ctx context.Context, status string, page, limit int) ([]model.Discount, int64, error)
	Update(ctx context.Context, discount *model.Discount) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type discountRepository struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepository{db: db}
}

func (r *discountRepository) Create(ctx context.Context, discount *model.Discount) error {
	return GetDB(ctx, r.db).Create(discount).Error
}

func (r *discountRepository) FindByCode(ctx context.Context, code string) (*model.Discount, error) {
	var discount model.Discount
	if err := GetDB(ctx, r.db).Preload("Validator").First(&discount, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *discountRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.Discount, error) {
	var discount model.Discount
	if err := GetDB(ctx, r.db).First(&discount, "idempotency_key = ?", key).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *discountRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Discount{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *discountRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Discount, int64, error) {
	var discounts []model.Discount
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Discount{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Where("user_id = ?", userID).
		Order("created_at desc").Offset(offset).Limit(limit).
		Find(&discounts).Error
	if err != nil {
		return nil, 0, err
	}

	return discounts, total, nil
}

func (r *discountRepository) List(ctx context.Context, status string, page, limit int) ([]model.Discount, int64, error) {
	var discounts []model.Discount
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Discount{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Validator").Order("created_at desc").Offset(offset).Limit(limit)
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	if err := fetch.Find(&discounts).Error; err != nil {
		return nil, 0, err
	}

	return discounts, total, nil
}

func (r *discountRepository) Update(ctx context.Context, discount *model.Discount) error {
	return GetDB(ctx, r.db).Save(discount).Error
}

func (r *discountRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.Discount{}).Error
}

func (r *discountRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := GetDB(ctx, r.db).Model(&model.Discount{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.Status] = r.Count
	}
	return result, nil
}
