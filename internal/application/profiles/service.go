package profiles

import (
	"context"
	"errors"
	"strings"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/pkg/validation"

	"github.com/google/uuid"
)

var (
	ErrProfileNotFound = errors.New("Profile not found")
	ErrNothingToUpdate = errors.New("No profile fields provided")
	ErrInvalidFullname = errors.New("Please enter a valid full name")
	ErrInvalidPhone    = errors.New("Please enter a valid phone number")
)

// Store reads and edits profiles.
type Store interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p domain.ProfileUpdate) error
}

type Service struct {
	Store Store
}

// Get returns the profile of id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.Store.FindUserByID(ctx, id)
	if errors.Is(err, lifecycle.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	return u, err
}

// Update trims and validates the provided fields, saves them and returns the new profile.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p domain.ProfileUpdate) (*domain.User, error) {
	p.Fullname = trimmed(p.Fullname)
	p.OrganizationName = trimmed(p.OrganizationName)
	p.Phone = trimmed(p.Phone)
	p.Address = trimmed(p.Address)
	if p.Empty() {
		return nil, ErrNothingToUpdate
	}
	if p.Fullname != nil && !validation.IsValidFullname(*p.Fullname) {
		return nil, ErrInvalidFullname
	}
	if p.Phone != nil && !validation.IsValidPhone(*p.Phone) {
		return nil, ErrInvalidPhone
	}
	if err := s.Store.UpdateProfile(ctx, id, p); err != nil {
		if errors.Is(err, lifecycle.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// IsClientError reports whether err should be shown to the caller as a 4xx.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNothingToUpdate) || errors.Is(err, ErrInvalidFullname) || errors.Is(err, ErrInvalidPhone)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
