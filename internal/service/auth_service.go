package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/repository"
	"orma/internal/sms"
	"orma/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DevRequestID and DevCode log anyone in while running in development.
	DevRequestID = "development"
	DevCode      = "2024"

	otpRateWindow   = 10 * time.Minute
	otpMaxPerWindow = 2
	otpValidity     = 5 * time.Minute
)

type StartLoginResult struct {
	RequestID string `json:"request_id"`
	HasName   bool   `json:"has_name"`
}

type VerifyLoginInput struct {
	RequestID string
	Code      string
	Phone     string
	Name      string
}

// AuthService runs the phone one-time-passcode login.
type AuthService struct {
	users repository.UserRepository
	otps  repository.OTPRepository
	sms   sms.Sender
	dev   bool
	now   Clock
}

func NewAuthService(users repository.UserRepository, otps repository.OTPRepository, sender sms.Sender, dev bool) *AuthService {
	return &AuthService{users: users, otps: otps, sms: sender, dev: dev, now: systemClock}
}

// StartLogin sends a passcode to phone. In development no SMS is sent and the
// fixed development request id is returned.
func (s *AuthService) StartLogin(ctx context.Context, phone string) (*StartLoginResult, error) {
	if err := validation.ValidatePhone(phone); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hasName, err := s.hasName(ctx, phone)
	if err != nil {
		return nil, err
	}
	if s.dev {
		return &StartLoginResult{RequestID: DevRequestID, HasName: hasName}, nil
	}

	sent, err := s.otps.CountSince(ctx, phone, s.now().Add(-otpRateWindow))
	if err != nil {
		return nil, err
	}
	if sent >= otpMaxPerWindow {
		return nil, models.NewValidationError("Too many codes requested. Try again in a few minutes")
	}

	code, err := randomCode()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.sms.Send(ctx, phone, sms.OTPMessage(code)); err != nil {
		return nil, err
	}

	otp := &models.OTP{
		RequestID: uuid.NewString(),
		Phone:     phone,
		CodeHash:  string(codeHash),
		CreatedAt: s.now(),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return nil, err
	}
	return &StartLoginResult{RequestID: otp.RequestID, HasName: hasName}, nil
}

// VerifyLogin checks the passcode and returns the user, creating it on first login.
func (s *AuthService) VerifyLogin(ctx context.Context, in VerifyLoginInput) (*models.User, error) {
	if err := validation.ValidatePhone(in.Phone); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.RequestID == "" || in.Code == "" {
		return nil, models.NewValidationError("request_id and code are required")
	}

	if s.dev && in.RequestID == DevRequestID {
		if in.Code != DevCode {
			return nil, models.NewUnauthorizedError("Invalid code")
		}
	} else if err := s.checkOTP(ctx, in); err != nil {
		return nil, err
	}

	return s.findOrCreateUser(ctx, in.Phone, strings.TrimSpace(in.Name))
}

func (s *AuthService) checkOTP(ctx context.Context, in VerifyLoginInput) error {
	otp, err := s.otps.GetByRequestID(ctx, in.RequestID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewUnauthorizedError("Invalid code")
		}
		return err
	}
	if otp.Phone != in.Phone {
		return models.NewUnauthorizedError("Invalid code")
	}
	if s.now().Sub(otp.CreatedAt) > otpValidity {
		return models.NewUnauthorizedError("Code expired")
	}
	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(in.Code)) != nil {
		return models.NewUnauthorizedError("Invalid code")
	}
	if err := s.otps.Delete(ctx, otp.ID); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to consume otp", "error", err)
	}
	return nil
}

func (s *AuthService) findOrCreateUser(ctx context.Context, phone, name string) (*models.User, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err == nil {
		if user.Name == "" && name != "" {
			user.Name = name
			if err := s.users.Update(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}
	if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}

	user = &models.User{Phone: phone, Name: name}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) hasName(ctx context.Context, phone string) (bool, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Name != "", nil
}

// randomCode returns a 4-digit passcode in [1000, 9999].
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}
