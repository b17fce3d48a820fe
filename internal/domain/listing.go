package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Listing is one offer of surplus food (food_listings).
type Listing struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	DonorID     uuid.UUID `gorm:"column:donor_id;type:uuid;not null;index" json:"donor_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;not null" json:"description"`
	Quantity    int       `gorm:"column:quantity;not null;check:chk_food_listings_quantity,quantity > 0" json:"quantity"`
	Unit        string    `gorm:"column:unit;type:varchar(20);not null" json:"unit"`
	EventType   string    `gorm:"column:event_type;type:varchar(20);not null;index" json:"event_type"`
	Location    string    `gorm:"column:location;not null;index" json:"location"`
	ExpiryTime  time.Time `gorm:"column:expiry_time;not null" json:"expiry_time"`
	Status      string    `gorm:"column:status;type:varchar(20);not null;default:'available';index;check:chk_food_listings_status,status IN ('available','reserved','completed')" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Listing) TableName() string {
	return "food_listings"
}

// BeforeCreate sets id if not already set (DBs without default uuid).
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the listing is past its expiry at now.
func (l *Listing) Expired(now time.Time) bool {
	return !l.ExpiryTime.After(now)
}
