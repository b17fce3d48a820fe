package lifecycle_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateListing_Valid(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())

	id := f.createListing(t, 10)

	l := f.listing(t, id)
	assert.Equal(t, constants.ListingAvailable, l.Status)
	assert.Equal(t, f.donor.ID, l.DonorID)
	assert.Equal(t, 10, l.Quantity)
	assert.False(t, l.CreatedAt.After(time.Now()))
	assert.Equal(t, []string{lifecycle.EventCreated}, f.pub.types())
}

func TestCreateListing_AppliesDefaultsAndTrims(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	in := f.fields(3)
	in.Title = "  Party trays  "
	in.Unit = ""
	in.EventType = ""

	id, err := f.engine.CreateListing(context.Background(), f.donor, in)
	require.NoError(t, err)

	l := f.listing(t, id)
	assert.Equal(t, "Party trays", l.Title)
	assert.Equal(t, constants.DefaultUnit, l.Unit)
	assert.Equal(t, constants.DefaultEventType, l.EventType)
}

func TestCreateListing_ExpiryMustBeFuture(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())

	for name, expiry := range map[string]time.Time{
		"past":  f.clock.t.Add(-time.Minute),
		"now":   f.clock.t,
		"unset": {},
	} {
		t.Run(name, func(t *testing.T) {
			in := f.fields(5)
			in.ExpiryTime = expiry
			_, err := f.engine.CreateListing(context.Background(), f.donor, in)
			require.Error(t, err)
			assert.Equal(t, lifecycle.KindValidation, lifecycle.KindOf(err))
			assert.ErrorIs(t, err, lifecycle.ErrExpiryNotFuture)
		})
	}
	assert.Equal(t, int64(0), f.count(t, &domain.Listing{}))
}

func TestCreateListing_InvalidFields(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())

	cases := map[string]struct {
		mutate func(*lifecycle.ListingFields)
		want   *lifecycle.Error
	}{
		"blank title":       {func(in *lifecycle.ListingFields) { in.Title = "   " }, lifecycle.ErrRequiredFields},
		"blank description": {func(in *lifecycle.ListingFields) { in.Description = "" }, lifecycle.ErrRequiredFields},
		"blank location":    {func(in *lifecycle.ListingFields) { in.Location = "\t" }, lifecycle.ErrRequiredFields},
		"zero quantity":     {func(in *lifecycle.ListingFields) { in.Quantity = 0 }, lifecycle.ErrInvalidQuantity},
		"unknown unit":      {func(in *lifecycle.ListingFields) { in.Unit = "litres" }, lifecycle.ErrInvalidUnit},
		"unknown event":     {func(in *lifecycle.ListingFields) { in.EventType = "funeral" }, lifecycle.ErrInvalidEventType},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := f.fields(5)
			tc.mutate(&in)
			_, err := f.engine.CreateListing(context.Background(), f.donor, in)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, lifecycle.KindValidation, lifecycle.KindOf(err))
		})
	}
}

// Scenario C.
func TestCreateListing_RecipientIsRejected(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())

	_, err := f.engine.CreateListing(context.Background(), f.r1, f.fields(5))
	assert.Equal(t, lifecycle.KindAuthorization, lifecycle.KindOf(err))
	assert.ErrorIs(t, err, lifecycle.ErrOnlyDonorsCanList)

	_, err = f.engine.CreateListing(context.Background(), nil, f.fields(5))
	assert.ErrorIs(t, err, lifecycle.ErrNotSignedIn)
	assert.Equal(t, int64(0), f.count(t, &domain.Listing{}))
}

// Scenario D.
func TestCreateListing_NegativeQuantityWritesNothing(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())

	_, err := f.engine.CreateListing(context.Background(), f.donor, f.fields(-5))
	assert.Equal(t, lifecycle.KindValidation, lifecycle.KindOf(err))
	assert.Equal(t, int64(0), f.count(t, &domain.Listing{}))
	assert.Equal(t, int64(0), f.count(t, &domain.ListingEvent{}))
	assert.Empty(t, f.pub.types())
}

// Scenario B.
func TestDeleteListing_NoRequests(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	id := f.createListing(t, 10)

	require.NoError(t, f.engine.DeleteListing(context.Background(), f.donor, id))
	assert.Equal(t, int64(0), f.count(t, &domain.Listing{}))
	assert.Equal(t, int64(0), f.count(t, &domain.Request{}))
	assert.Contains(t, f.pub.types(), lifecycle.EventDeleted)
}

func TestDeleteListing_CascadesPendingAndRejected(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)
	f.createRequest(t, f.r1, id, 2)
	rejected := f.createRequest(t, f.r2, id, 3)
	require.NoError(t, f.engine.RejectRequest(ctx, f.donor, rejected))

	require.NoError(t, f.engine.DeleteListing(ctx, f.donor, id))
	assert.Equal(t, int64(0), f.count(t, &domain.Listing{}))
	assert.Equal(t, int64(0), f.count(t, &domain.Request{}))
}

func TestDeleteListing_AcceptedRequestBlocks(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)
	req := f.createRequest(t, f.r1, id, 2)
	f.createRequest(t, f.r2, id, 3)
	require.NoError(t, f.engine.AcceptRequest(ctx, f.donor, req))

	err := f.engine.DeleteListing(ctx, f.donor, id)
	assert.Equal(t, lifecycle.KindConflict, lifecycle.KindOf(err))
	assert.ErrorIs(t, err, lifecycle.ErrHasAcceptedRequests)
	assert.Equal(t, "Cannot delete listing with accepted requests", lifecycle.MessageOf(err))
	assert.Equal(t, int64(1), f.count(t, &domain.Listing{}))
	assert.Equal(t, int64(2), f.count(t, &domain.Request{}))
}

func TestDeleteListing_OnlyOwner(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)

	err := f.engine.DeleteListing(ctx, f.other, id)
	assert.ErrorIs(t, err, lifecycle.ErrNotListingOwner)
	err = f.engine.DeleteListing(ctx, f.r1, id)
	assert.Equal(t, lifecycle.KindAuthorization, lifecycle.KindOf(err))
	err = f.engine.DeleteListing(ctx, f.donor, uuid.New())
	assert.ErrorIs(t, err, lifecycle.ErrListingNotFound)
	assert.Equal(t, int64(1), f.count(t, &domain.Listing{}))
}

func TestDeleteListing_PhaseOneFailureLeavesListing(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)
	f.createRequest(t, f.r1, id, 2)

	f.faults.failDeleteRequests = true
	err := f.engine.DeleteListing(ctx, f.donor, id)
	assert.Equal(t, lifecycle.KindStore, lifecycle.KindOf(err))
	assert.Equal(t, lifecycle.StepDeleteRequests, lifecycle.StepOf(err))
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, int64(1), f.count(t, &domain.Listing{}))
	assert.Equal(t, int64(1), f.count(t, &domain.Request{}))
}

func TestDeleteListing_PhaseTwoFailureIsPartial(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)
	f.createRequest(t, f.r1, id, 2)
	f.createRequest(t, f.r2, id, 2)

	f.faults.failDeleteListing = true
	err := f.engine.DeleteListing(ctx, f.donor, id)
	assert.Equal(t, lifecycle.KindPartialFailure, lifecycle.KindOf(err))
	assert.Equal(t, lifecycle.StepDeleteListing, lifecycle.StepOf(err))
	assert.Equal(t, int64(1), f.count(t, &domain.Listing{}))
	assert.Equal(t, int64(0), f.count(t, &domain.Request{}))

	// Retrying finishes the delete.
	f.faults.failDeleteListing = false
	require.NoError(t, f.engine.DeleteListing(ctx, f.donor, id))
	assert.Equal(t, int64(0), f.count(t, &domain.Listing{}))
}

func TestDeleteListing_AcceptDuringCascadeKeepsListing(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)
	req := f.createRequest(t, f.r1, id, 2)

	f.faults.beforeDeleteRequests = func(ctx context.Context) {
		require.NoError(t, f.faults.Store.UpdateRequestStatus(ctx, req, constants.RequestAccepted))
	}
	err := f.engine.DeleteListing(ctx, f.donor, id)
	assert.Equal(t, lifecycle.KindPartialFailure, lifecycle.KindOf(err))
	assert.Equal(t, lifecycle.StepDeleteListing, lifecycle.StepOf(err))

	assert.Equal(t, int64(1), f.count(t, &domain.Listing{}))
	var got domain.Request
	require.NoError(t, f.db.Where("id = ?", req).First(&got).Error)
	assert.Equal(t, constants.RequestAccepted, got.Status)
}

func TestEditListing(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)
	title, qty, unit := "Corporate lunch boxes", 12, "boxes"

	l, err := f.engine.EditListing(ctx, f.donor, id, lifecycle.ListingEdit{Title: &title, Quantity: &qty, Unit: &unit})
	require.NoError(t, err)
	assert.Equal(t, title, l.Title)
	assert.Equal(t, 12, l.Quantity)
	assert.Equal(t, "boxes", l.Unit)
	assert.Contains(t, f.pub.types(), lifecycle.EventUpdated)
}

func TestEditListing_Rules(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)
	current := f.listing(t, id)

	later := current.ExpiryTime.Add(time.Hour)
	_, err := f.engine.EditListing(ctx, f.donor, id, lifecycle.ListingEdit{ExpiryTime: &later})
	assert.ErrorIs(t, err, lifecycle.ErrExpiryImmutable)

	same := current.Title
	_, err = f.engine.EditListing(ctx, f.donor, id, lifecycle.ListingEdit{Title: &same, ExpiryTime: &current.ExpiryTime})
	assert.ErrorIs(t, err, lifecycle.ErrNoChanges)

	blank := "  "
	_, err = f.engine.EditListing(ctx, f.donor, id, lifecycle.ListingEdit{Location: &blank})
	assert.ErrorIs(t, err, lifecycle.ErrRequiredFields)

	zero := 0
	_, err = f.engine.EditListing(ctx, f.donor, id, lifecycle.ListingEdit{Quantity: &zero})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidQuantity)

	title := "Mine now"
	_, err = f.engine.EditListing(ctx, f.other, id, lifecycle.ListingEdit{Title: &title})
	assert.ErrorIs(t, err, lifecycle.ErrNotListingOwner)
}

func TestEditListing_ReservedIsLocked(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)
	req := f.createRequest(t, f.r1, id, 4)
	require.NoError(t, f.engine.AcceptRequest(ctx, f.donor, req))

	title := "Changed"
	_, err := f.engine.EditListing(ctx, f.donor, id, lifecycle.ListingEdit{Title: &title})
	assert.ErrorIs(t, err, lifecycle.ErrListingNotAvailable)
}

func TestEditListing_QuantityNotBelowAccepted(t *testing.T) {
	f := setupEngine(t, lifecycle.Policy{Reservation: lifecycle.ReserveWhenCovered, CapToRemaining: true})
	ctx := context.Background()
	id := f.createListing(t, 10)
	req := f.createRequest(t, f.r1, id, 6)
	require.NoError(t, f.engine.AcceptRequest(ctx, f.donor, req))

	five := 5
	_, err := f.engine.EditListing(ctx, f.donor, id, lifecycle.ListingEdit{Quantity: &five})
	assert.Equal(t, lifecycle.KindConflict, lifecycle.KindOf(err))

	eight := 8
	l, err := f.engine.EditListing(ctx, f.donor, id, lifecycle.ListingEdit{Quantity: &eight})
	require.NoError(t, err)
	assert.Equal(t, 8, l.Quantity)
}

func TestCompleteListing(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)

	err := f.engine.CompleteListing(ctx, f.donor, id)
	assert.ErrorIs(t, err, lifecycle.ErrListingNotReserved)

	req := f.createRequest(t, f.r1, id, 10)
	require.NoError(t, f.engine.AcceptRequest(ctx, f.donor, req))
	assert.ErrorIs(t, f.engine.CompleteListing(ctx, f.other, id), lifecycle.ErrNotListingOwner)

	require.NoError(t, f.engine.CompleteListing(ctx, f.donor, id))
	assert.Equal(t, constants.ListingCompleted, f.listing(t, id).Status)
	require.NoError(t, f.engine.CompleteListing(ctx, f.donor, id))
	assert.Contains(t, f.pub.types(), lifecycle.EventCompleted)
}

func TestListListings_ActiveOnlyHidesExpiredAndReserved(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()

	soon := f.fields(5)
	soon.ExpiryTime = f.clock.t.Add(10 * time.Minute)
	expiring, err := f.engine.CreateListing(ctx, f.donor, soon)
	require.NoError(t, err)
	open := f.createListing(t, 5)
	reserved := f.createListing(t, 5)
	req := f.createRequest(t, f.r1, reserved, 5)
	require.NoError(t, f.engine.AcceptRequest(ctx, f.donor, req))

	f.clock.t = f.clock.t.Add(30 * time.Minute)

	active, err := f.engine.ListListings(ctx, lifecycle.ListingFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open, active[0].ID)

	all, err := f.engine.ListListings(ctx, lifecycle.ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, l := range all {
		if l.ID == expiring {
			assert.True(t, l.Expired)
		}
		if l.ID == reserved {
			assert.Equal(t, int64(1), l.RequestCount)
		}
	}
}

func TestListListings_FiltersSearchAndSort(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()

	mk := func(title, event, location string, qty int, ttl time.Duration) uuid.UUID {
		in := f.fields(qty)
		in.Title, in.EventType, in.Location, in.ExpiryTime = title, event, location, f.clock.t.Add(ttl)
		id, err := f.engine.CreateListing(ctx, f.donor, in)
		require.NoError(t, err)
		return id
	}
	biryani := mk("Biryani", "wedding", "Kochi", 40, 3*time.Hour)
	sandwiches := mk("Sandwiches", "corporate", "Chennai", 15, time.Hour)
	cake := mk("Birthday cake", "party", "Kochi", 8, 2*time.Hour)

	byEvent, err := f.engine.ListListings(ctx, lifecycle.ListingFilter{EventType: "corporate"})
	require.NoError(t, err)
	require.Len(t, byEvent, 1)
	assert.Equal(t, sandwiches, byEvent[0].ID)

	byLocation, err := f.engine.ListListings(ctx, lifecycle.ListingFilter{Location: "Kochi", Sort: constants.SortQuantityHigh})
	require.NoError(t, err)
	require.Len(t, byLocation, 2)
	assert.Equal(t, biryani, byLocation[0].ID)
	assert.Equal(t, cake, byLocation[1].ID)

	search, err := f.engine.ListListings(ctx, lifecycle.ListingFilter{Search: "BIR", Sort: constants.SortExpiringSoon})
	require.NoError(t, err)
	require.Len(t, search, 2)
	assert.Equal(t, cake, search[0].ID)
	assert.Equal(t, biryani, search[1].ID)

	all, err := f.engine.ListListings(ctx, lifecycle.ListingFilter{EventType: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.engine.ListListings(ctx, lifecycle.ListingFilter{Sort: "cheapest"})
	assert.Equal(t, lifecycle.KindValidation, lifecycle.KindOf(err))
	_, err = f.engine.ListListings(ctx, lifecycle.ListingFilter{EventType: "funeral"})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidEventType)

	mine, err := f.engine.ListListings(ctx, lifecycle.ListingFilter{DonorID: &f.other.ID})
	require.NoError(t, err)
	assert.Empty(t, mine)

	locs, err := f.engine.ListLocations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chennai", "Kochi"}, locs)
}

func TestGetListing(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)
	f.createRequest(t, f.r1, id, 1)
	f.createRequest(t, f.r2, id, 1)

	got, err := f.engine.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.RequestCount)
	assert.False(t, got.Expired)

	_, err = f.engine.GetListing(ctx, uuid.New())
	assert.Equal(t, lifecycle.KindNotFound, lifecycle.KindOf(err))
}

func TestListEvents(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	id := f.createListing(t, 10)
	req := f.createRequest(t, f.r1, id, 10)
	require.NoError(t, f.engine.AcceptRequest(ctx, f.donor, req))

	events, err := f.engine.ListEvents(ctx, f.donor, id)
	require.NoError(t, err)
	var types []string
	for _, e := range events {
		types = append(types, e.EventType)
		assert.Equal(t, id, e.ListingID)
		if e.EventType == lifecycle.EventCreated {
			assert.True(t, strings.Contains(string(e.EventData), `"quantity":10`))
		}
	}
	assert.ElementsMatch(t, []string{
		lifecycle.EventCreated, lifecycle.EventRequested, lifecycle.EventAccepted, lifecycle.EventReserved,
	}, types)

	_, err = f.engine.ListEvents(ctx, f.other, id)
	assert.ErrorIs(t, err, lifecycle.ErrNotListingOwner)
}

func TestEventAppendFailureDoesNotFailOperation(t *testing.T) {
	f := setupEngine(t, lifecycle.DefaultPolicy())
	f.faults.failAppendEvent = true

	id := f.createListing(t, 10)
	assert.Equal(t, constants.ListingAvailable, f.listing(t, id).Status)
	assert.Equal(t, int64(0), f.count(t, &domain.ListingEvent{}))
	assert.Equal(t, []string{lifecycle.EventCreated}, f.pub.types())
}
