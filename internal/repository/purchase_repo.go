package repository

import (
	"context"
	"time"

	"go-pos-api/internal/model"

	"gorm.io/gorm"
)

type PurchaseRepository interface {
	FindByRange(ctx context.Context, from, to time.Time, limit int) ([]model.Purchase, error)
}

type purchaseRepo struct {
	db *gorm.DB
}

func NewPurchaseRepo(db *gorm.DB) PurchaseRepository {
	return &purchaseRepo{db}
}

func (r *purchaseRepo) FindByRange(ctx context.Context, from, to time.Time, limit int) ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("date DESC, id DESC").
		Limit(limit).
		Find(&purchases).Error
	return purchases, err
}
