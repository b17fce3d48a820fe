// Package lifecycle holds the listing and request business rules: who may create,
// request, accept, reject, complete and delete, and which state transitions follow.
// It is storage-agnostic; persistence is reached only through Store.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/pkg/constants"

	"github.com/google/uuid"
)

// Principal is the signed-in caller. A nil *Principal means unauthenticated.
type Principal struct {
	ID   uuid.UUID
	Role string
}

func (p *Principal) IsDonor() bool {
	return p != nil && p.Role == constants.Donor
}

func (p *Principal) IsRecipient() bool {
	return p != nil && p.Role == constants.Recipient
}

// Engine executes lifecycle operations against a Store. Construct one per process
// and pass it to whatever needs it.
type Engine struct {
	Store     Store
	Publisher Publisher
	Policy    Policy
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// NewEngine returns an Engine with the given store and policy.
func NewEngine(store Store, policy Policy, publisher Publisher) *Engine {
	return &Engine{Store: store, Policy: policy, Publisher: publisher}
}

func (en *Engine) now() time.Time {
	if en.Now != nil {
		return en.Now()
	}
	return time.Now()
}

// loadListing maps a missing row to NotFound and anything else to a store error.
func loadListing(ctx context.Context, s Store, op string, id uuid.UUID) (*domain.Listing, error) {
	l, err := s.GetListing(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, with(op, ErrListingNotFound)
		}
		return nil, storeError(op, StepLoadListing, err)
	}
	return l, nil
}

func loadRequest(ctx context.Context, s Store, op string, id uuid.UUID) (*domain.Request, error) {
	r, err := s.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, with(op, ErrRequestNotFound)
		}
		return nil, storeError(op, StepLoadRequest, err)
	}
	return r, nil
}

// acceptedRequests returns the accepted requests of a listing and their quantity total.
func acceptedRequests(ctx context.Context, s Store, op string, listingID uuid.UUID) ([]domain.Request, int, error) {
	reqs, err := s.FindRequests(ctx, RequestQuery{
		ListingID: &listingID,
		Statuses:  []string{constants.RequestAccepted},
	})
	if err != nil {
		return nil, 0, storeError(op, StepCheckRequests, err)
	}
	total := 0
	for _, r := range reqs {
		total += r.RequestedQuantity
	}
	return reqs, total, nil
}

// requireOwner checks that p is the donor who owns l.
func requireOwner(op string, p *Principal, l *domain.Listing) error {
	if p == nil {
		return with(op, ErrNotSignedIn)
	}
	if !p.IsDonor() || p.ID != l.DonorID {
		return with(op, ErrNotListingOwner)
	}
	return nil
}

func requireDonor(op string, p *Principal) error {
	if p == nil {
		return with(op, ErrNotSignedIn)
	}
	if !p.IsDonor() {
		return with(op, ErrNotListingOwner)
	}
	return nil
}
