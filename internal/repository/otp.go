package repository

import (
	"context"
	"time"

	"orma/internal/models"

	"gorm.io/gorm"
)

// OTPRepository stores hashed one-time login codes.
type OTPRepository interface {
	Create(ctx context.Context, otp *models.OTP) error
	GetByRequestID(ctx context.Context, requestID string) (*models.OTP, error)
	CountSince(ctx context.Context, phone string, since time.Time) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type otpRepository struct {
	db *gorm.DB
}

// NewOTPRepository returns an OTPRepository.
func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, otp *models.OTP) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return dbError(r.db.WithContext(ctx).Create(otp).Error)
}

func (r *otpRepository) GetByRequestID(ctx context.Context, requestID string) (*models.OTP, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var otp models.OTP
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&otp).Error; err != nil {
		return nil, notFoundOr(err, "OTP request", requestID)
	}
	return &otp, nil
}

// CountSince counts codes issued to phone at or after since.
func (r *otpRepository) CountSince(ctx context.Context, phone string, since time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OTP{}).
		Where("phone = ? AND created_at >= ?", phone, since.UTC()).
		Count(&count).Error
	return count, dbError(err)
}

func (r *otpRepository) Delete(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return dbError(r.db.WithContext(ctx).Delete(&models.OTP{}, id).Error)
}
