// Package gormstore implements the lifecycle and user stores on GORM (Postgres in
// production, SQLite in tests).
package gormstore

import (
	"context"
	"errors"
	"time"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Ping checks the underlying connection pool.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lifecycle.ErrRecordNotFound
	}
	return err
}

// affected turns a zero-row write into ErrRecordNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return lifecycle.ErrRecordNotFound
	}
	return nil
}

func (s *Store) InsertListing(ctx context.Context, l *domain.Listing) error {
	return s.db(ctx).Create(l).Error
}

func (s *Store) GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	var l domain.Listing
	if err := s.db(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (s *Store) UpdateListing(ctx context.Context, id uuid.UUID, u lifecycle.ListingUpdate) error {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.Quantity != nil {
		updates["quantity"] = *u.Quantity
	}
	if u.Unit != nil {
		updates["unit"] = *u.Unit
	}
	if u.EventType != nil {
		updates["event_type"] = *u.EventType
	}
	if u.Location != nil {
		updates["location"] = *u.Location
	}
	if u.Status != nil {
		updates["status"] = *u.Status
	}
	return affected(s.db(ctx).Model(&domain.Listing{}).Where("id = ?", id).Updates(updates))
}

func (s *Store) DeleteListing(ctx context.Context, id uuid.UUID) error {
	return affected(s.db(ctx).Where("id = ?", id).Delete(&domain.Listing{}))
}

func (s *Store) FindListings(ctx context.Context, q lifecycle.ListingQuery) ([]domain.Listing, error) {
	tx := s.db(ctx).Model(&domain.Listing{})
	if q.DonorID != nil {
		tx = tx.Where("donor_id = ?", *q.DonorID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.EventType != "" {
		tx = tx.Where("event_type = ?", q.EventType)
	}
	if q.Location != "" {
		tx = tx.Where("location = ?", q.Location)
	}
	if q.ExpiresAfter != nil {
		tx = tx.Where("expiry_time > ?", q.ExpiresAfter.UTC())
	}
	var listings []domain.Listing
	if err := tx.Order("created_at DESC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *Store) DistinctLocations(ctx context.Context, status string) ([]string, error) {
	tx := s.db(ctx).Model(&domain.Listing{})
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var locs []string
	if err := tx.Distinct().Order("location").Pluck("location", &locs).Error; err != nil {
		return nil, err
	}
	return locs, nil
}

func (s *Store) InsertRequest(ctx context.Context, r *domain.Request) error {
	return s.db(ctx).Create(r).Error
}

func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	var r domain.Request
	if err := s.db(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Store) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	return affected(s.db(ctx).Model(&domain.Request{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}))
}

func (s *Store) DeleteRequests(ctx context.Context, listingID uuid.UUID, statuses []string) (int64, error) {
	tx := s.db(ctx).Where("listing_id = ?", listingID)
	if len(statuses) > 0 {
		tx = tx.Where("status IN ?", statuses)
	}
	res := tx.Delete(&domain.Request{})
	return res.RowsAffected, res.Error
}

func (s *Store) FindRequests(ctx context.Context, q lifecycle.RequestQuery) ([]domain.Request, error) {
	tx := s.db(ctx).Model(&domain.Request{})
	if q.RecipientID != nil {
		tx = tx.Where("recipient_id = ?", *q.RecipientID)
	}
	if q.ListingID != nil {
		tx = tx.Where("listing_id = ?", *q.ListingID)
	}
	if q.DonorID != nil {
		tx = tx.Where("listing_id IN (SELECT id FROM food_listings WHERE donor_id = ?)", *q.DonorID)
	}
	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", q.Statuses)
	}
	var reqs []domain.Request
	if err := tx.Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (s *Store) CountRequests(ctx context.Context, listingIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(listingIDs))
	if len(listingIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ListingID uuid.UUID
		N         int64
	}
	err := s.db(ctx).Model(&domain.Request{}).
		Select("listing_id, COUNT(*) AS n").
		Where("listing_id IN ?", listingIDs).
		Group("listing_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ListingID] = r.N
	}
	return counts, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *domain.ListingEvent) error {
	return s.db(ctx).Create(e).Error
}

func (s *Store) ListEvents(ctx context.Context, listingID uuid.UUID) ([]domain.ListingEvent, error) {
	var events []domain.ListingEvent
	if err := s.db(ctx).Where("listing_id = ?", listingID).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// WithinTx runs fn in a GORM transaction; fn must use only the Store it is given.
func (s *Store) WithinTx(ctx context.Context, fn func(tx lifecycle.Store) error) error {
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}
