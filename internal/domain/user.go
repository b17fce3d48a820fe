package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account plus its profile (profiles). UserType is the principal role.
type User struct {
	UserID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email            string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash     string    `gorm:"column:password_hash;not null" json:"-"`
	Fullname         string    `gorm:"column:fullname;not null" json:"fullname"`
	UserType         string    `gorm:"column:user_type;type:varchar(20);not null" json:"user_type"`
	OrganizationName string    `gorm:"column:organization_name" json:"organization_name"`
	Phone            string    `gorm:"column:phone" json:"phone"`
	Address          string    `gorm:"column:address" json:"address"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "profiles"
}

// BeforeCreate sets UUID if not set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// ProfileUpdate is a partial profile edit; nil fields are left unchanged.
type ProfileUpdate struct {
	Fullname         *string
	OrganizationName *string
	Phone            *string
	Address          *string
}

func (u ProfileUpdate) Empty() bool {
	return u.Fullname == nil && u.OrganizationName == nil && u.Phone == nil && u.Address == nil
}
