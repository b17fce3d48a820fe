package lifecycle

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ListingFields are the donor-supplied fields of a new listing.
type ListingFields struct {
	Title       string
	Description string
	Quantity    int
	Unit        string
	EventType   string
	Location    string
	ExpiryTime  time.Time
}

// ListingEdit is a partial edit of an available listing. ExpiryTime may only repeat the
// current value.
type ListingEdit struct {
	Title       *string
	Description *string
	Quantity    *int
	Unit        *string
	EventType   *string
	Location    *string
	ExpiryTime  *time.Time
}

// ListingFilter selects listings for browse and dashboard views.
type ListingFilter struct {
	DonorID   *uuid.UUID
	Status    string
	EventType string
	Location  string
	// Search matches title or description, case-insensitively.
	Search string
	Sort   string
	// ActiveOnly restricts to available, unexpired listings (the recipient browse view).
	ActiveOnly bool
}

// ListingSummary is a listing plus derived browse data.
type ListingSummary struct {
	domain.Listing
	RequestCount int64 `json:"request_count"`
	Expired      bool  `json:"expired"`
}

// normalize trims the fields, applies defaults and checks every rule of a new listing.
func (f ListingFields) normalize(op string, now time.Time) (ListingFields, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Location = strings.TrimSpace(f.Location)
	f.Unit = strings.TrimSpace(f.Unit)
	f.EventType = strings.TrimSpace(f.EventType)
	if f.Title == "" || f.Description == "" || f.Location == "" {
		return f, with(op, ErrRequiredFields)
	}
	if f.Quantity <= 0 {
		return f, with(op, ErrInvalidQuantity)
	}
	if f.Unit == "" {
		f.Unit = constants.DefaultUnit
	}
	if !constants.IsValidUnit(f.Unit) {
		return f, with(op, ErrInvalidUnit)
	}
	if f.EventType == "" {
		f.EventType = constants.DefaultEventType
	}
	if !constants.IsValidEventType(f.EventType) {
		return f, with(op, ErrInvalidEventType)
	}
	if f.ExpiryTime.IsZero() || !f.ExpiryTime.After(now) {
		return f, with(op, ErrExpiryNotFuture)
	}
	return f, nil
}

// CreateListing validates f and stores a new available listing owned by donor.
func (en *Engine) CreateListing(ctx context.Context, donor *Principal, f ListingFields) (uuid.UUID, error) {
	const op = "create listing"
	if donor == nil {
		return uuid.Nil, with(op, ErrNotSignedIn)
	}
	if !donor.IsDonor() {
		return uuid.Nil, with(op, ErrOnlyDonorsCanList)
	}
	f, err := f.normalize(op, en.now())
	if err != nil {
		return uuid.Nil, err
	}

	listing := &domain.Listing{
		ID:          uuid.New(),
		DonorID:     donor.ID,
		Title:       f.Title,
		Description: f.Description,
		Quantity:    f.Quantity,
		Unit:        f.Unit,
		EventType:   f.EventType,
		Location:    f.Location,
		ExpiryTime:  f.ExpiryTime.UTC(),
		Status:      constants.ListingAvailable,
	}
	if err := en.Store.InsertListing(ctx, listing); err != nil {
		return uuid.Nil, storeError(op, StepInsertListing, err)
	}
	log.Info().Str("listing_id", listing.ID.String()).Str("donor_id", donor.ID.String()).
		Int("quantity", listing.Quantity).Msg("listing created")

	en.record(ctx, Event{
		Type:      EventCreated,
		ListingID: listing.ID,
		ActorID:   donor.ID,
		DonorID:   donor.ID,
		Data: map[string]interface{}{
			"quantity":    listing.Quantity,
			"unit":        listing.Unit,
			"expiry_time": listing.ExpiryTime,
		},
	})
	return listing.ID, nil
}

// EditListing applies a donor's edit to one of their available listings.
func (en *Engine) EditListing(ctx context.Context, donor *Principal, listingID uuid.UUID, in ListingEdit) (*domain.Listing, error) {
	const op = "edit listing"
	if err := requireDonor(op, donor); err != nil {
		return nil, err
	}
	listing, err := loadListing(ctx, en.Store, op, listingID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(op, donor, listing); err != nil {
		return nil, err
	}
	if listing.Status != constants.ListingAvailable {
		return nil, with(op, ErrListingNotAvailable)
	}
	if in.ExpiryTime != nil && !in.ExpiryTime.Equal(listing.ExpiryTime) {
		return nil, with(op, ErrExpiryImmutable)
	}

	var upd ListingUpdate
	changes := map[string]interface{}{}
	setText := func(dst **string, v *string, field string, cur string) error {
		if v == nil {
			return nil
		}
		s := strings.TrimSpace(*v)
		if s == "" {
			return with(op, ErrRequiredFields)
		}
		if s != cur {
			*dst = &s
			changes[field] = s
		}
		return nil
	}
	if err := setText(&upd.Title, in.Title, "title", listing.Title); err != nil {
		return nil, err
	}
	if err := setText(&upd.Description, in.Description, "description", listing.Description); err != nil {
		return nil, err
	}
	if err := setText(&upd.Location, in.Location, "location", listing.Location); err != nil {
		return nil, err
	}
	if in.Unit != nil && *in.Unit != listing.Unit {
		if !constants.IsValidUnit(*in.Unit) {
			return nil, with(op, ErrInvalidUnit)
		}
		upd.Unit = in.Unit
		changes["unit"] = *in.Unit
	}
	if in.EventType != nil && *in.EventType != listing.EventType {
		if !constants.IsValidEventType(*in.EventType) {
			return nil, with(op, ErrInvalidEventType)
		}
		upd.EventType = in.EventType
		changes["event_type"] = *in.EventType
	}
	if in.Quantity != nil && *in.Quantity != listing.Quantity {
		if *in.Quantity <= 0 {
			return nil, with(op, ErrInvalidQuantity)
		}
		_, accepted, err := acceptedRequests(ctx, en.Store, op, listing.ID)
		if err != nil {
			return nil, err
		}
		if *in.Quantity < accepted {
			return nil, conflictError(op, "Quantity cannot be lower than the already accepted amount")
		}
		upd.Quantity = in.Quantity
		changes["quantity"] = *in.Quantity
	}
	if upd.Empty() {
		return nil, with(op, ErrNoChanges)
	}

	if err := en.Store.UpdateListing(ctx, listing.ID, upd); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, with(op, ErrListingNotFound)
		}
		return nil, storeError(op, StepUpdateListing, err)
	}
	updated, err := loadListing(ctx, en.Store, op, listing.ID)
	if err != nil {
		return nil, err
	}
	en.record(ctx, Event{
		Type:      EventUpdated,
		ListingID: listing.ID,
		ActorID:   donor.ID,
		DonorID:   listing.DonorID,
		Data:      changes,
	})
	return updated, nil
}

// CompleteListing confirms the hand-off of a reserved listing (reserved -> completed).
// Completing an already completed listing is a no-op.
func (en *Engine) CompleteListing(ctx context.Context, donor *Principal, listingID uuid.UUID) error {
	const op = "complete listing"
	if err := requireDonor(op, donor); err != nil {
		return err
	}
	listing, err := loadListing(ctx, en.Store, op, listingID)
	if err != nil {
		return err
	}
	if err := requireOwner(op, donor, listing); err != nil {
		return err
	}
	switch listing.Status {
	case constants.ListingCompleted:
		return nil
	case constants.ListingReserved:
	default:
		return with(op, ErrListingNotReserved)
	}
	status := constants.ListingCompleted
	if err := en.Store.UpdateListing(ctx, listing.ID, ListingUpdate{Status: &status}); err != nil {
		return storeError(op, StepUpdateListing, err)
	}
	log.Info().Str("listing_id", listing.ID.String()).Msg("listing completed")
	en.record(ctx, Event{Type: EventCompleted, ListingID: listing.ID, ActorID: donor.ID, DonorID: listing.DonorID})
	return nil
}

// DeleteListing removes a listing and its pending/rejected requests.
//
// The check and both phases run in order: accepted requests block deletion; phase 1
// deletes the remaining requests; phase 2 deletes the listing. A phase 1 failure is a
// store error and leaves the listing untouched. A phase 2 failure after phase 1
// succeeded is a partial failure: the requests are gone, the listing is not, and
// calling DeleteListing again finishes the job.
func (en *Engine) DeleteListing(ctx context.Context, donor *Principal, listingID uuid.UUID) error {
	const op = "delete listing"
	if err := requireDonor(op, donor); err != nil {
		return err
	}
	listing, err := loadListing(ctx, en.Store, op, listingID)
	if err != nil {
		return err
	}
	if err := requireOwner(op, donor, listing); err != nil {
		return err
	}
	accepted, _, err := acceptedRequests(ctx, en.Store, op, listing.ID)
	if err != nil {
		return err
	}
	if len(accepted) > 0 {
		log.Warn().Str("listing_id", listing.ID.String()).Int("accepted", len(accepted)).
			Msg("delete refused: listing has accepted requests")
		return with(op, ErrHasAcceptedRequests)
	}

	removed, err := en.Store.DeleteRequests(ctx, listing.ID, []string{constants.RequestPending, constants.RequestRejected})
	if err != nil {
		log.Error().Err(err).Str("listing_id", listing.ID.String()).Msg("delete listing: cascade failed")
		return storeError(op, StepDeleteRequests, err)
	}
	if err := en.Store.DeleteListing(ctx, listing.ID); err != nil {
		log.Error().Err(err).Str("listing_id", listing.ID.String()).Int64("requests_removed", removed).
			Msg("delete listing: requests removed but listing delete failed")
		return partialFailure(op, StepDeleteListing,
			"Requests were removed but the listing could not be deleted; retry the delete", err)
	}
	log.Info().Str("listing_id", listing.ID.String()).Int64("requests_removed", removed).Msg("listing deleted")
	en.record(ctx, Event{
		Type:      EventDeleted,
		ListingID: listing.ID,
		ActorID:   donor.ID,
		DonorID:   listing.DonorID,
		Data:      map[string]interface{}{"requests_removed": removed},
	})
	return nil
}

// GetListing returns one listing with its request count.
func (en *Engine) GetListing(ctx context.Context, listingID uuid.UUID) (*ListingSummary, error) {
	const op = "get listing"
	listing, err := loadListing(ctx, en.Store, op, listingID)
	if err != nil {
		return nil, err
	}
	counts, err := en.Store.CountRequests(ctx, []uuid.UUID{listing.ID})
	if err != nil {
		return nil, storeError(op, StepCountRequests, err)
	}
	return &ListingSummary{
		Listing:      *listing,
		RequestCount: counts[listing.ID],
		Expired:      listing.Expired(en.now()),
	}, nil
}

// ListListings runs the store scan for f, then applies search and sort.
func (en *Engine) ListListings(ctx context.Context, f ListingFilter) ([]ListingSummary, error) {
	const op = "list listings"
	q := ListingQuery{DonorID: f.DonorID, Status: f.Status, Location: strings.TrimSpace(f.Location)}
	if f.EventType != "" && f.EventType != "all" {
		if !constants.IsValidEventType(f.EventType) {
			return nil, with(op, ErrInvalidEventType)
		}
		q.EventType = f.EventType
	}
	sortBy := f.Sort
	if sortBy == "" {
		sortBy = constants.SortNewest
	}
	if !constants.IsValidSort(sortBy) {
		return nil, validationError(op, "Invalid sort order")
	}
	now := en.now()
	if f.ActiveOnly {
		q.Status = constants.ListingAvailable
		q.ExpiresAfter = &now
	}

	rows, err := en.Store.FindListings(ctx, q)
	if err != nil {
		return nil, storeError(op, StepQueryListings, err)
	}

	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]ListingSummary, 0, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, l := range rows {
		if term != "" && !strings.Contains(strings.ToLower(l.Title), term) &&
			!strings.Contains(strings.ToLower(l.Description), term) {
			continue
		}
		out = append(out, ListingSummary{Listing: l, Expired: l.Expired(now)})
		ids = append(ids, l.ID)
	}
	if len(ids) > 0 {
		counts, err := en.Store.CountRequests(ctx, ids)
		if err != nil {
			return nil, storeError(op, StepCountRequests, err)
		}
		for i := range out {
			out[i].RequestCount = counts[out[i].ID]
		}
	}
	sortListings(out, sortBy)
	return out, nil
}

func sortListings(ls []ListingSummary, by string) {
	sort.SliceStable(ls, func(i, j int) bool {
		a, b := ls[i], ls[j]
		switch by {
		case constants.SortExpiringSoon:
			return a.ExpiryTime.Before(b.ExpiryTime)
		case constants.SortQuantityHigh:
			return a.Quantity > b.Quantity
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
}

// ListLocations returns the distinct pickup locations of available listings.
func (en *Engine) ListLocations(ctx context.Context) ([]string, error) {
	locs, err := en.Store.DistinctLocations(ctx, constants.ListingAvailable)
	if err != nil {
		return nil, storeError("list locations", StepQueryListings, err)
	}
	return locs, nil
}

// ListEvents returns the lifecycle history of one of the donor's listings, oldest first.
func (en *Engine) ListEvents(ctx context.Context, donor *Principal, listingID uuid.UUID) ([]domain.ListingEvent, error) {
	const op = "list listing events"
	if err := requireDonor(op, donor); err != nil {
		return nil, err
	}
	listing, err := loadListing(ctx, en.Store, op, listingID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(op, donor, listing); err != nil {
		return nil, err
	}
	events, err := en.Store.ListEvents(ctx, listing.ID)
	if err != nil {
		return nil, storeError(op, StepQueryEvents, err)
	}
	return events, nil
}
