package sqlstore

import (
	"context"
	"strings"
	"time"

	"foodshare-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type userRow struct {
	ID               string `db:"id"`
	Email            string `db:"email"`
	PasswordHash     string `db:"password_hash"`
	Fullname         string `db:"fullname"`
	UserType         string `db:"user_type"`
	OrganizationName string `db:"organization_name"`
	Phone            string `db:"phone"`
	Address          string `db:"address"`
	CreatedAt        int64  `db:"created_at"`
	UpdatedAt        int64  `db:"updated_at"`
}

const userCols = `id, email, password_hash, fullname, user_type, organization_name, phone, address, created_at, updated_at`

func (r userRow) user() (*domain.User, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		UserID:           id,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		Fullname:         r.Fullname,
		UserType:         r.UserType,
		OrganizationName: r.OrganizationName,
		Phone:            r.Phone,
		Address:          r.Address,
		CreatedAt:        fromMillis(r.CreatedAt),
		UpdatedAt:        fromMillis(r.UpdatedAt),
	}, nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO profiles(`+userCols+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UserID.String(), u.Email, u.PasswordHash, u.Fullname, u.UserType,
		u.OrganizationName, u.Phone, u.Address, millis(now), millis(now))
	return err
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, s.q, &row, `SELECT `+userCols+` FROM profiles WHERE LOWER(email) = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, notFound(err)
	}
	return row.user()
}

func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var row userRow
	if err := sqlx.GetContext(ctx, s.q, &row, `SELECT `+userCols+` FROM profiles WHERE id = ?`, id.String()); err != nil {
		return nil, notFound(err)
	}
	return row.user()
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, p domain.ProfileUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{millis(time.Now())}
	if p.Fullname != nil {
		sets = append(sets, "fullname = ?")
		args = append(args, *p.Fullname)
	}
	if p.OrganizationName != nil {
		sets = append(sets, "organization_name = ?")
		args = append(args, *p.OrganizationName)
	}
	if p.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *p.Phone)
	}
	if p.Address != nil {
		sets = append(sets, "address = ?")
		args = append(args, *p.Address)
	}
	args = append(args, id.String())
	return affected(s.q.ExecContext(ctx, `UPDATE profiles SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...))
}
