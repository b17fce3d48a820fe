package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Request is a recipient's claim against part of a listing (food_requests).
// The listing foreign key is RESTRICT: a listing cannot be deleted while any request
// still references it.
type Request struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ListingID         uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	RecipientID       uuid.UUID `gorm:"column:recipient_id;type:uuid;not null;index" json:"recipient_id"`
	RequestedQuantity int       `gorm:"column:requested_quantity;not null;check:chk_food_requests_quantity,requested_quantity > 0" json:"requested_quantity"`
	Status            string    `gorm:"column:status;type:varchar(20);not null;default:'pending';index;check:chk_food_requests_status,status IN ('pending','accepted','rejected')" json:"status"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at" json:"updated_at"`

	Listing *Listing `gorm:"foreignKey:ListingID;references:ID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
}

func (Request) TableName() string {
	return "food_requests"
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
