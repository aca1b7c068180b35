package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go-storefront/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	var ps []domain.Product
	err := r.db.WithContext(ctx).
		Joins("Category").
		Where("is_featured = ?", true).
		Limit(limit).
		Find(&ps).Error
	return ps, err
}

func (r *ProductRepo) Popular(ctx context.Context, limit int) ([]domain.Product, error) {
	var ps []domain.Product
	err := r.db.WithContext(ctx).
		Joins("Category").
		Order("rating DESC").
		Limit(limit).
		Find(&ps).Error
	return ps, err
}
