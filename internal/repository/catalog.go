package repository

import (
	"context"
	"strings"

	"orma/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository reads categories and pricing tiers.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListPricingTiers(ctx context.Context) ([]models.PricingTier, error)
	GetPricingTier(ctx context.Context, id uint) (*models.PricingTier, error)
	GetFreeTier(ctx context.Context) (*models.PricingTier, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository returns a CatalogRepository.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var categories []models.Category
	err := r.db.WithContext(ctx).Order("id ASC").Find(&categories).Error
	return categories, dbError(err)
}

func (r *catalogRepository) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFoundOr(err, "Category", id)
	}
	return &category, nil
}

// FindCategoryByName returns the first category whose name contains name,
// compared case-insensitively.
func (r *catalogRepository) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, models.NewNotFoundError("Category", name)
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var category models.Category
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", "%"+name+"%").
		Order("id ASC").
		First(&category).Error
	if err != nil {
		return nil, notFoundOr(err, "Category", name)
	}
	return &category, nil
}

func (r *catalogRepository) ListPricingTiers(ctx context.Context) ([]models.PricingTier, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var tiers []models.PricingTier
	err := r.db.WithContext(ctx).Order("guest_count ASC").Find(&tiers).Error
	return tiers, dbError(err)
}

func (r *catalogRepository) GetPricingTier(ctx context.Context, id uint) (*models.PricingTier, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var tier models.PricingTier
	if err := r.db.WithContext(ctx).First(&tier, id).Error; err != nil {
		return nil, notFoundOr(err, "Pricing tier", id)
	}
	return &tier, nil
}

func (r *catalogRepository) GetFreeTier(ctx context.Context) (*models.PricingTier, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var tier models.PricingTier
	err := r.db.WithContext(ctx).Where("cost = ?", models.FreeTierCost).Order("id ASC").First(&tier).Error
	if err != nil {
		return nil, notFoundOr(err, "Pricing tier", "free")
	}
	return &tier, nil
}
