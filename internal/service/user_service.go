package service

import (
	"context"
	"strings"

	"orma/internal/models"
	"orma/internal/repository"
	"orma/internal/validation"
)

// RecentlyViewedLimit is how many events the recently viewed list holds.
const RecentlyViewedLimit = 6

type UserService struct {
	users  repository.UserRepository
	events repository.EventRepository
	now    Clock
}

type UpdateProfileInput struct {
	UserID uint
	Name   *string
	Email  *string
}

func NewUserService(users repository.UserRepository, events repository.EventRepository) *UserService {
	return &UserService{users: users, events: events, now: systemClock}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxNameLen = 120
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > maxNameLen {
			return nil, models.NewValidationError("Name must be 1-120 characters")
		}
		user.Name = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Email = email
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RecentlyViewed returns the events the user opened last, most recent first.
func (s *UserService) RecentlyViewed(ctx context.Context, userID uint) ([]models.Event, error) {
	views, err := s.users.ListRecentlyViewed(ctx, userID, RecentlyViewedLimit)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(views))
	for i, v := range views {
		hashes[i] = v.EventHash
	}
	events, err := s.events.ListByHashes(ctx, hashes)
	if err != nil {
		return nil, err
	}

	byHash := make(map[string]models.Event, len(events))
	for _, e := range events {
		byHash[e.EventHash] = e
	}
	out := make([]models.Event, 0, len(views))
	for _, v := range views {
		if e, ok := byHash[v.EventHash]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// TouchRecentlyViewed records that the user opened the event now.
func (s *UserService) TouchRecentlyViewed(ctx context.Context, userID uint, hash string) error {
	if err := validation.ValidateEventHash(hash); err != nil {
		return models.NewValidationError(err.Error())
	}
	if _, err := s.events.GetByHash(ctx, hash); err != nil {
		return err
	}
	return s.users.TouchRecentlyViewed(ctx, userID, hash, s.now())
}
