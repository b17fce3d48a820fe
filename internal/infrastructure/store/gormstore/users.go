package gormstore

import (
	"context"
	"strings"
	"time"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"

	"github.com/google/uuid"
)

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return s.db(ctx).Create(u).Error
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := s.db(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.db(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, p domain.ProfileUpdate) error {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if p.Fullname != nil {
		updates["fullname"] = *p.Fullname
	}
	if p.OrganizationName != nil {
		updates["organization_name"] = *p.OrganizationName
	}
	if p.Phone != nil {
		updates["phone"] = *p.Phone
	}
	if p.Address != nil {
		updates["address"] = *p.Address
	}
	res := s.db(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return lifecycle.ErrRecordNotFound
	}
	return nil
}
