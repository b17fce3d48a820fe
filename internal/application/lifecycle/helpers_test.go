package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/infrastructure/database"
	"foodshare-backend/internal/infrastructure/store/gormstore"
	"foodshare-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errInjected = errors.New("injected store failure")

// faultStore fails selected store calls; everything else goes to the wrapped store.
type faultStore struct {
	lifecycle.Store
	failDeleteRequests bool
	failDeleteListing  bool
	failAppendEvent    bool
	// beforeDeleteRequests runs ahead of the cascade, standing in for a concurrent writer.
	beforeDeleteRequests func(ctx context.Context)
}

func (f *faultStore) DeleteRequests(ctx context.Context, listingID uuid.UUID, statuses []string) (int64, error) {
	if f.failDeleteRequests {
		return 0, errInjected
	}
	if f.beforeDeleteRequests != nil {
		f.beforeDeleteRequests(ctx)
	}
	return f.Store.DeleteRequests(ctx, listingID, statuses)
}

func (f *faultStore) DeleteListing(ctx context.Context, id uuid.UUID) error {
	if f.failDeleteListing {
		return errInjected
	}
	return f.Store.DeleteListing(ctx, id)
}

func (f *faultStore) AppendEvent(ctx context.Context, e *domain.ListingEvent) error {
	if f.failAppendEvent {
		return errInjected
	}
	return f.Store.AppendEvent(ctx, e)
}

func (f *faultStore) WithinTx(ctx context.Context, fn func(tx lifecycle.Store) error) error {
	return f.Store.WithinTx(ctx, func(tx lifecycle.Store) error {
		return fn(&faultStore{
			Store:              tx,
			failDeleteRequests: f.failDeleteRequests,
			failDeleteListing:  f.failDeleteListing,
			failAppendEvent:    f.failAppendEvent,

			beforeDeleteRequests: f.beforeDeleteRequests,
		})
	})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []lifecycle.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e lifecycle.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type fixture struct {
	engine *lifecycle.Engine
	db     *gorm.DB
	faults *faultStore
	pub    *recordingPublisher
	clock  *clock
	donor  *lifecycle.Principal
	other  *lifecycle.Principal
	r1     *lifecycle.Principal
	r2     *lifecycle.Principal
}

func setupEngine(t *testing.T, policy lifecycle.Policy) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	faults := &faultStore{Store: gormstore.New(db)}
	pub := &recordingPublisher{}
	clk := &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	en := lifecycle.NewEngine(faults, policy, pub)
	en.Now = clk.now

	return &fixture{
		engine: en,
		db:     db,
		faults: faults,
		pub:    pub,
		clock:  clk,
		donor:  &lifecycle.Principal{ID: uuid.New(), Role: constants.Donor},
		other:  &lifecycle.Principal{ID: uuid.New(), Role: constants.Donor},
		r1:     &lifecycle.Principal{ID: uuid.New(), Role: constants.Recipient},
		r2:     &lifecycle.Principal{ID: uuid.New(), Role: constants.Recipient},
	}
}

func (f *fixture) fields(quantity int) lifecycle.ListingFields {
	return lifecycle.ListingFields{
		Title:       "Wedding buffet leftovers",
		Description: "Rice, curries and salads",
		Quantity:    quantity,
		Unit:        "portions",
		EventType:   "wedding",
		Location:    "Kochi",
		ExpiryTime:  f.clock.t.Add(time.Hour),
	}
}

func (f *fixture) createListing(t *testing.T, quantity int) uuid.UUID {
	t.Helper()
	id, err := f.engine.CreateListing(context.Background(), f.donor, f.fields(quantity))
	require.NoError(t, err)
	return id
}

func (f *fixture) createRequest(t *testing.T, who *lifecycle.Principal, listingID uuid.UUID, quantity int) uuid.UUID {
	t.Helper()
	id, err := f.engine.CreateRequest(context.Background(), who, listingID, quantity)
	require.NoError(t, err)
	return id
}

func (f *fixture) listing(t *testing.T, id uuid.UUID) domain.Listing {
	t.Helper()
	var l domain.Listing
	require.NoError(t, f.db.Where("id = ?", id).First(&l).Error)
	return l
}

func (f *fixture) request(t *testing.T, id uuid.UUID) domain.Request {
	t.Helper()
	var r domain.Request
	require.NoError(t, f.db.Where("id = ?", id).First(&r).Error)
	return r
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}
