package lifecycle

import (
	"context"
	"errors"
	"time"

	"foodshare-backend/internal/domain"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned by Store point lookups when the row does not exist.
var ErrRecordNotFound = errors.New("record not found")

// ListingQuery is an index-backed scan over listings. Zero fields do not filter.
type ListingQuery struct {
	DonorID      *uuid.UUID
	Status       string
	EventType    string
	Location     string
	ExpiresAfter *time.Time
}

// RequestQuery scans requests. DonorID matches requests on that donor's listings.
type RequestQuery struct {
	RecipientID *uuid.UUID
	ListingID   *uuid.UUID
	DonorID     *uuid.UUID
	Statuses    []string
}

// ListingUpdate is a partial update; nil fields are left unchanged.
type ListingUpdate struct {
	Title       *string
	Description *string
	Quantity    *int
	Unit        *string
	EventType   *string
	Location    *string
	Status      *string
}

// Empty reports whether the update changes nothing.
func (u ListingUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Quantity == nil &&
		u.Unit == nil && u.EventType == nil && u.Location == nil && u.Status == nil
}

// Store is the persistence collaborator of the engine. Implementations maintain
// created_at/updated_at and return ErrRecordNotFound from point lookups, updates and
// deletes that target a missing row.
type Store interface {
	InsertListing(ctx context.Context, l *domain.Listing) error
	GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	UpdateListing(ctx context.Context, id uuid.UUID, u ListingUpdate) error
	DeleteListing(ctx context.Context, id uuid.UUID) error
	FindListings(ctx context.Context, q ListingQuery) ([]domain.Listing, error)
	DistinctLocations(ctx context.Context, status string) ([]string, error)

	InsertRequest(ctx context.Context, r *domain.Request) error
	GetRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteRequests(ctx context.Context, listingID uuid.UUID, statuses []string) (int64, error)
	FindRequests(ctx context.Context, q RequestQuery) ([]domain.Request, error)
	CountRequests(ctx context.Context, listingIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	AppendEvent(ctx context.Context, e *domain.ListingEvent) error
	ListEvents(ctx context.Context, listingID uuid.UUID) ([]domain.ListingEvent, error)

	// WithinTx runs fn against a Store bound to one transaction when the backend
	// supports it. fn's error is returned unchanged and rolls the transaction back.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
