package lifecycle

import (
	"context"
	"errors"
	"sort"

	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestFilter selects requests. At least one field must be set.
type RequestFilter struct {
	RecipientID *uuid.UUID
	ListingID   *uuid.UUID
	// DonorID selects requests made against that donor's listings.
	DonorID *uuid.UUID
	Status  string
}

// CreateRequest files a pending request by recipient for quantity of a listing.
func (en *Engine) CreateRequest(ctx context.Context, recipient *Principal, listingID uuid.UUID, quantity int) (uuid.UUID, error) {
	const op = "create request"
	if recipient == nil {
		return uuid.Nil, with(op, ErrNotSignedIn)
	}
	if !recipient.IsRecipient() {
		return uuid.Nil, with(op, ErrDonorsCannotRequest)
	}
	if quantity <= 0 {
		return uuid.Nil, with(op, ErrInvalidQuantity)
	}
	listing, err := loadListing(ctx, en.Store, op, listingID)
	if err != nil {
		return uuid.Nil, err
	}
	if listing.Status != constants.ListingAvailable {
		return uuid.Nil, with(op, ErrListingNotAvailable)
	}
	if listing.Expired(en.now()) {
		return uuid.Nil, with(op, ErrListingExpired)
	}
	if en.Policy.CapToRemaining {
		_, accepted, err := acceptedRequests(ctx, en.Store, op, listing.ID)
		if err != nil {
			return uuid.Nil, err
		}
		if quantity > Remaining(listing.Quantity, accepted) {
			return uuid.Nil, validationError(op, "Requested quantity exceeds the remaining quantity")
		}
	}

	req := &domain.Request{
		ID:                uuid.New(),
		ListingID:         listing.ID,
		RecipientID:       recipient.ID,
		RequestedQuantity: quantity,
		Status:            constants.RequestPending,
	}
	if err := en.Store.InsertRequest(ctx, req); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return uuid.Nil, with(op, ErrListingNotFound)
		}
		return uuid.Nil, storeError(op, StepInsertRequest, err)
	}
	log.Info().Str("request_id", req.ID.String()).Str("listing_id", listing.ID.String()).
		Int("quantity", quantity).Msg("request created")

	rid, recipientID := req.ID, recipient.ID
	en.record(ctx, Event{
		Type:        EventRequested,
		ListingID:   listing.ID,
		RequestID:   &rid,
		ActorID:     recipient.ID,
		DonorID:     listing.DonorID,
		RecipientID: &recipientID,
		Data:        map[string]interface{}{"requested_quantity": quantity, "title": listing.Title},
	})
	return req.ID, nil
}

// SetRequestStatus dispatches a donor decision to AcceptRequest or RejectRequest.
func (en *Engine) SetRequestStatus(ctx context.Context, donor *Principal, requestID uuid.UUID, status string) error {
	switch status {
	case constants.RequestAccepted:
		return en.AcceptRequest(ctx, donor, requestID)
	case constants.RequestRejected:
		return en.RejectRequest(ctx, donor, requestID)
	}
	return with("set request status", ErrInvalidStatus)
}

// AcceptRequest marks a pending request accepted and, per the reservation policy,
// reserves its listing in the same transaction. Re-accepting is a no-op.
func (en *Engine) AcceptRequest(ctx context.Context, donor *Principal, requestID uuid.UUID) error {
	const op = "accept request"
	if err := requireDonor(op, donor); err != nil {
		return err
	}

	var (
		req      *domain.Request
		listing  *domain.Listing
		noop     bool
		reserved bool
		total    int
	)
	err := en.Store.WithinTx(ctx, func(tx Store) error {
		var err error
		if req, err = loadRequest(ctx, tx, op, requestID); err != nil {
			return err
		}
		if listing, err = loadListing(ctx, tx, op, req.ListingID); err != nil {
			return err
		}
		if err := requireOwner(op, donor, listing); err != nil {
			return err
		}
		switch req.Status {
		case constants.RequestAccepted:
			noop = true
			return nil
		case constants.RequestRejected:
			return with(op, ErrRequestRejected)
		}
		if listing.Status == constants.ListingCompleted {
			return with(op, ErrListingNotAvailable)
		}

		_, accepted, err := acceptedRequests(ctx, tx, op, listing.ID)
		if err != nil {
			return err
		}
		total = accepted + req.RequestedQuantity
		if en.Policy.CapToRemaining && total > listing.Quantity {
			return with(op, ErrExceedsRemaining)
		}
		if err := tx.UpdateRequestStatus(ctx, req.ID, constants.RequestAccepted); err != nil {
			return storeError(op, StepUpdateRequest, err)
		}
		if listing.Status == constants.ListingAvailable && en.Policy.Reserves(listing.Quantity, total) {
			status := constants.ListingReserved
			if err := tx.UpdateListing(ctx, listing.ID, ListingUpdate{Status: &status}); err != nil {
				return storeError(op, StepUpdateListing, err)
			}
			reserved = true
		}
		return nil
	})
	if err != nil {
		if KindOf(err) == "" {
			err = storeError(op, StepUpdateRequest, err)
		}
		if k := KindOf(err); k == KindStore {
			log.Error().Err(err).Str("request_id", requestID.String()).Msg("accept request failed")
		} else {
			log.Warn().Str("request_id", requestID.String()).Str("reason", MessageOf(err)).Msg("accept request refused")
		}
		return err
	}
	if noop {
		return nil
	}

	log.Info().Str("request_id", req.ID.String()).Str("listing_id", listing.ID.String()).
		Int("accepted_total", total).Bool("reserved", reserved).Msg("request accepted")
	rid, recipientID := req.ID, req.RecipientID
	en.record(ctx, Event{
		Type:        EventAccepted,
		ListingID:   listing.ID,
		RequestID:   &rid,
		ActorID:     donor.ID,
		DonorID:     listing.DonorID,
		RecipientID: &recipientID,
		Data: map[string]interface{}{
			"requested_quantity": req.RequestedQuantity,
			"accepted_total":     total,
			"title":              listing.Title,
		},
	})
	if reserved {
		en.record(ctx, Event{
			Type:      EventReserved,
			ListingID: listing.ID,
			ActorID:   donor.ID,
			DonorID:   listing.DonorID,
			Data: map[string]interface{}{
				"policy":         string(en.Policy.Reservation),
				"accepted_total": total,
			},
		})
	}
	return nil
}

// RejectRequest marks a pending request rejected. Re-rejecting is a no-op; the listing
// is not touched.
func (en *Engine) RejectRequest(ctx context.Context, donor *Principal, requestID uuid.UUID) error {
	const op = "reject request"
	if err := requireDonor(op, donor); err != nil {
		return err
	}
	req, err := loadRequest(ctx, en.Store, op, requestID)
	if err != nil {
		return err
	}
	listing, err := loadListing(ctx, en.Store, op, req.ListingID)
	if err != nil {
		return err
	}
	if err := requireOwner(op, donor, listing); err != nil {
		return err
	}
	switch req.Status {
	case constants.RequestRejected:
		return nil
	case constants.RequestAccepted:
		return with(op, ErrRequestAccepted)
	}
	if err := en.Store.UpdateRequestStatus(ctx, req.ID, constants.RequestRejected); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return with(op, ErrRequestNotFound)
		}
		return storeError(op, StepUpdateRequest, err)
	}
	log.Info().Str("request_id", req.ID.String()).Str("listing_id", listing.ID.String()).Msg("request rejected")

	rid, recipientID := req.ID, req.RecipientID
	en.record(ctx, Event{
		Type:        EventRejected,
		ListingID:   listing.ID,
		RequestID:   &rid,
		ActorID:     donor.ID,
		DonorID:     listing.DonorID,
		RecipientID: &recipientID,
		Data:        map[string]interface{}{"title": listing.Title},
	})
	return nil
}

// ListRequests returns the requests matching f, newest first.
func (en *Engine) ListRequests(ctx context.Context, f RequestFilter) ([]domain.Request, error) {
	const op = "list requests"
	if f.RecipientID == nil && f.ListingID == nil && f.DonorID == nil {
		return nil, with(op, ErrFilterRequired)
	}
	q := RequestQuery{RecipientID: f.RecipientID, ListingID: f.ListingID, DonorID: f.DonorID}
	if f.Status != "" && f.Status != "all" {
		switch f.Status {
		case constants.RequestPending, constants.RequestAccepted, constants.RequestRejected:
			q.Statuses = []string{f.Status}
		default:
			return nil, validationError(op, "Invalid request status filter")
		}
	}
	reqs, err := en.Store.FindRequests(ctx, q)
	if err != nil {
		return nil, storeError(op, StepQueryRequests, err)
	}
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
	return reqs, nil
}
