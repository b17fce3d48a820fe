// Package storetest is the behavioural contract shared by the lifecycle store
// implementations. Each store package runs it from its own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// UserStore is the account half of a store.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p domain.ProfileUpdate) error
}

// Store is what the suite needs from an implementation.
type Store interface {
	lifecycle.Store
	UserStore
}

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newListing(donor uuid.UUID, location string, qty int, expiry time.Time) *domain.Listing {
	return &domain.Listing{
		ID:          uuid.New(),
		DonorID:     donor,
		Title:       "Trays of pasta",
		Description: "Vegetarian",
		Quantity:    qty,
		Unit:        "trays",
		EventType:   "corporate",
		Location:    location,
		ExpiryTime:  expiry,
		Status:      constants.ListingAvailable,
	}
}

func newRequest(listing, recipient uuid.UUID, qty int) *domain.Request {
	return &domain.Request{
		ID:                uuid.New(),
		ListingID:         listing,
		RecipientID:       recipient,
		RequestedQuantity: qty,
		Status:            constants.RequestPending,
	}
}

// Run exercises s. newStore must return an empty store each call.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("listing round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		l := newListing(uuid.New(), "Pune", 6, base.Add(time.Hour))
		require.NoError(t, s.InsertListing(ctx, l))

		got, err := s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, l.DonorID, got.DonorID)
		assert.Equal(t, 6, got.Quantity)
		assert.True(t, got.ExpiryTime.Equal(l.ExpiryTime))
		assert.False(t, got.CreatedAt.IsZero())

		_, err = s.GetListing(ctx, uuid.New())
		assert.True(t, errors.Is(err, lifecycle.ErrRecordNotFound))
	})

	t.Run("listing update and delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		l := newListing(uuid.New(), "Pune", 6, base.Add(time.Hour))
		require.NoError(t, s.InsertListing(ctx, l))

		title, status := "Renamed", constants.ListingReserved
		require.NoError(t, s.UpdateListing(ctx, l.ID, lifecycle.ListingUpdate{Title: &title, Status: &status}))
		got, err := s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, constants.ListingReserved, got.Status)
		assert.Equal(t, "Vegetarian", got.Description)

		assert.True(t, errors.Is(s.UpdateListing(ctx, uuid.New(), lifecycle.ListingUpdate{Title: &title}), lifecycle.ErrRecordNotFound))
		require.NoError(t, s.DeleteListing(ctx, l.ID))
		assert.True(t, errors.Is(s.DeleteListing(ctx, l.ID), lifecycle.ErrRecordNotFound))
	})

	t.Run("find listings", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		donor := uuid.New()
		a := newListing(donor, "Pune", 6, base.Add(time.Hour))
		b := newListing(uuid.New(), "Delhi", 6, base.Add(-time.Hour))
		c := newListing(donor, "Delhi", 6, base.Add(2*time.Hour))
		c.EventType = "wedding"
		for _, l := range []*domain.Listing{a, b, c} {
			require.NoError(t, s.InsertListing(ctx, l))
		}

		byDonor, err := s.FindListings(ctx, lifecycle.ListingQuery{DonorID: &donor})
		require.NoError(t, err)
		assert.Len(t, byDonor, 2)

		live, err := s.FindListings(ctx, lifecycle.ListingQuery{ExpiresAfter: &base})
		require.NoError(t, err)
		assert.Len(t, live, 2)

		wedding, err := s.FindListings(ctx, lifecycle.ListingQuery{EventType: "wedding", Location: "Delhi"})
		require.NoError(t, err)
		require.Len(t, wedding, 1)
		assert.Equal(t, c.ID, wedding[0].ID)

		locs, err := s.DistinctLocations(ctx, constants.ListingAvailable)
		require.NoError(t, err)
		assert.Equal(t, []string{"Delhi", "Pune"}, locs)
	})

	t.Run("requests", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		donor, recipient := uuid.New(), uuid.New()
		l := newListing(donor, "Pune", 6, base.Add(time.Hour))
		other := newListing(uuid.New(), "Pune", 6, base.Add(time.Hour))
		require.NoError(t, s.InsertListing(ctx, l))
		require.NoError(t, s.InsertListing(ctx, other))

		r1 := newRequest(l.ID, recipient, 2)
		r2 := newRequest(l.ID, uuid.New(), 3)
		r3 := newRequest(other.ID, recipient, 1)
		for _, r := range []*domain.Request{r1, r2, r3} {
			require.NoError(t, s.InsertRequest(ctx, r))
		}
		require.NoError(t, s.UpdateRequestStatus(ctx, r1.ID, constants.RequestAccepted))
		assert.True(t, errors.Is(s.UpdateRequestStatus(ctx, uuid.New(), constants.RequestAccepted), lifecycle.ErrRecordNotFound))

		got, err := s.GetRequest(ctx, r1.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RequestAccepted, got.Status)
		_, err = s.GetRequest(ctx, uuid.New())
		assert.True(t, errors.Is(err, lifecycle.ErrRecordNotFound))

		mine, err := s.FindRequests(ctx, lifecycle.RequestQuery{RecipientID: &recipient})
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		inbox, err := s.FindRequests(ctx, lifecycle.RequestQuery{DonorID: &donor})
		require.NoError(t, err)
		assert.Len(t, inbox, 2)

		accepted, err := s.FindRequests(ctx, lifecycle.RequestQuery{ListingID: &l.ID, Statuses: []string{constants.RequestAccepted}})
		require.NoError(t, err)
		require.Len(t, accepted, 1)
		assert.Equal(t, r1.ID, accepted[0].ID)

		counts, err := s.CountRequests(ctx, []uuid.UUID{l.ID, other.ID, uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[l.ID])
		assert.Equal(t, int64(1), counts[other.ID])

		n, err := s.DeleteRequests(ctx, l.ID, []string{constants.RequestPending, constants.RequestRejected})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		left, err := s.FindRequests(ctx, lifecycle.RequestQuery{ListingID: &l.ID})
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, r1.ID, left[0].ID)
	})

	t.Run("request needs existing listing", func(t *testing.T) {
		s := newStore(t)
		err := s.InsertRequest(context.Background(), newRequest(uuid.New(), uuid.New(), 1))
		assert.Error(t, err)
	})

	t.Run("listing with requests cannot be deleted", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		l := newListing(uuid.New(), "Pune", 6, base.Add(time.Hour))
		require.NoError(t, s.InsertListing(ctx, l))
		r := newRequest(l.ID, uuid.New(), 2)
		require.NoError(t, s.InsertRequest(ctx, r))
		require.NoError(t, s.UpdateRequestStatus(ctx, r.ID, constants.RequestAccepted))

		err := s.DeleteListing(ctx, l.ID)
		require.Error(t, err)
		assert.False(t, errors.Is(err, lifecycle.ErrRecordNotFound))

		_, err = s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		got, err := s.GetRequest(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RequestAccepted, got.Status)
	})

	t.Run("rejects out of range rows", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		assert.Error(t, s.InsertListing(ctx, newListing(uuid.New(), "Pune", 0, base.Add(time.Hour))))
		bad := newListing(uuid.New(), "Pune", 6, base.Add(time.Hour))
		bad.Status = "expired"
		assert.Error(t, s.InsertListing(ctx, bad))

		l := newListing(uuid.New(), "Pune", 6, base.Add(time.Hour))
		require.NoError(t, s.InsertListing(ctx, l))
		assert.Error(t, s.InsertRequest(ctx, newRequest(l.ID, uuid.New(), 0)))

		r := newRequest(l.ID, uuid.New(), 1)
		require.NoError(t, s.InsertRequest(ctx, r))
		assert.Error(t, s.UpdateRequestStatus(ctx, r.ID, "cancelled"))
		got, err := s.GetRequest(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RequestPending, got.Status)
	})

	t.Run("events", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		listing, actor := uuid.New(), uuid.New()
		require.NoError(t, s.AppendEvent(ctx, &domain.ListingEvent{
			ListingID: listing, ActorID: &actor, EventType: "CREATED",
			EventData: datatypes.JSON(`{"quantity":6}`), CreatedAt: base,
		}))
		require.NoError(t, s.AppendEvent(ctx, &domain.ListingEvent{
			ListingID: listing, EventType: "DELETED", CreatedAt: base.Add(time.Minute),
		}))

		events, err := s.ListEvents(ctx, listing)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "CREATED", events[0].EventType)
		assert.JSONEq(t, `{"quantity":6}`, string(events[0].EventData))
		require.NotNil(t, events[0].ActorID)
		assert.Equal(t, actor, *events[0].ActorID)
		assert.Equal(t, "DELETED", events[1].EventType)
		assert.Nil(t, events[1].RequestID)
	})

	t.Run("transaction rollback", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		l := newListing(uuid.New(), "Pune", 6, base.Add(time.Hour))
		require.NoError(t, s.InsertListing(ctx, l))

		boom := errors.New("boom")
		err := s.WithinTx(ctx, func(tx lifecycle.Store) error {
			status := constants.ListingReserved
			require.NoError(t, tx.UpdateListing(ctx, l.ID, lifecycle.ListingUpdate{Status: &status}))
			return boom
		})
		assert.Equal(t, boom, err)
		got, err := s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.ListingAvailable, got.Status)

		require.NoError(t, s.WithinTx(ctx, func(tx lifecycle.Store) error {
			status := constants.ListingReserved
			return tx.UpdateListing(ctx, l.ID, lifecycle.ListingUpdate{Status: &status})
		}))
		got, err = s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.ListingReserved, got.Status)
	})

	t.Run("users", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := &domain.User{Email: " Ann@Example.com ", PasswordHash: "hash", Fullname: "Ann", UserType: constants.Recipient}
		require.NoError(t, s.CreateUser(ctx, u))
		require.NotEqual(t, uuid.Nil, u.UserID)

		got, err := s.FindUserByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.UserID, got.UserID)
		assert.Equal(t, "hash", got.PasswordHash)

		_, err = s.FindUserByEmail(ctx, "nobody@example.com")
		assert.True(t, errors.Is(err, lifecycle.ErrRecordNotFound))

		org, addr := "Food Bank", "12 Main St"
		require.NoError(t, s.UpdateProfile(ctx, u.UserID, domain.ProfileUpdate{OrganizationName: &org, Address: &addr}))
		got, err = s.FindUserByID(ctx, u.UserID)
		require.NoError(t, err)
		assert.Equal(t, "Food Bank", got.OrganizationName)
		assert.Equal(t, "12 Main St", got.Address)
		assert.Equal(t, "Ann", got.Fullname)

		assert.True(t, errors.Is(s.UpdateProfile(ctx, uuid.New(), domain.ProfileUpdate{Address: &addr}), lifecycle.ErrRecordNotFound))
	})
}
