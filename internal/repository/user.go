package repository

import (
	"context"
	"time"

	"orma/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users and their view history.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	TouchRecentlyViewed(ctx context.Context, userID uint, eventHash string, at time.Time) error
	ListRecentlyViewed(ctx context.Context, userID uint, limit int) ([]models.RecentlyViewed, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var users []models.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, dbError(err)
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", phone)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return dbError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Model(user).
		Select("name", "email", "updated_at").
		Updates(user).Error
	return dbError(err)
}

// TouchRecentlyViewed records that userID opened eventHash at the given time.
func (r *userRepository) TouchRecentlyViewed(ctx context.Context, userID uint, eventHash string, at time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"viewed_at"}),
	}).Create(&models.RecentlyViewed{UserID: userID, EventHash: eventHash, ViewedAt: at.UTC()}).Error
	return dbError(err)
}

// ListRecentlyViewed returns the user's most recent distinct event views.
func (r *userRepository) ListRecentlyViewed(ctx context.Context, userID uint, limit int) ([]models.RecentlyViewed, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var views []models.RecentlyViewed
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("viewed_at DESC, id DESC").
		Limit(limit).
		Find(&views).Error
	return views, dbError(err)
}
