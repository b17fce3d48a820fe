package auth

import (
	"context"
	"errors"
	"strings"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/pkg/constants"
	"foodshare-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the account storage used by sign-up and sign-in.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Service signs users up and in and broadcasts session changes over Redis.
type Service struct {
	Users UserStore
	Rdb   *redis.Client
	// Cost is the bcrypt cost; 0 means bcrypt.DefaultCost.
	Cost int
}

// SignUpInput is the sign-up request body.
type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
	Role     string `json:"role"`
}

// LoginInput for login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionUserShape is the object returned by /me.
type SessionUserShape struct {
	UserID   string `json:"user_id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// SignUp validates input, hashes the password and creates the account.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullname := strings.TrimSpace(in.Fullname)
	if email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	if !validation.IsValidEmail(email) {
		return nil, ErrEmailFormat
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrWeakPassword
	}
	if !validation.IsValidFullname(fullname) {
		return nil, ErrInvalidFullname
	}
	if !constants.IsValidRole(in.Role) {
		return nil, ErrInvalidRole
	}

	if _, err := s.Users.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, lifecycle.ErrRecordNotFound) {
		return nil, err
	}

	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), cost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		UserID:       uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Fullname:     fullname,
		UserType:     in.Role,
	}
	if err := s.Users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SignIn finds user by email and verifies password.
func (s *Service) SignIn(ctx context.Context, in LoginInput) (*domain.User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	u, err := s.Users.FindUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, lifecycle.ErrRecordNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return u, nil
}

// VerifyUser validates the session user and returns the shape for /me.
func VerifyUser(sessionUser interface{}) (*SessionUserShape, error) {
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	userID, _ := m["user_id"].(string)
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return &SessionUserShape{
		UserID:   userID,
		Fullname: str(m["fullname"]),
		Email:    str(m["email"]),
		Role:     str(m["role"]),
	}, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
