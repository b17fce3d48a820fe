// Package sqlstore is a local SQLite store (sqlx over the pure-Go modernc driver) for
// running without Postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx *sqlx.Tx
}

// Open opens (or creates) the database at dsn and ensures the schema. Use ":memory:"
// for a throwaway database.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, q: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable (health checks).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return lifecycle.ErrRecordNotFound
	}
	return err
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return lifecycle.ErrRecordNotFound
	}
	return nil
}

type listingRow struct {
	ID          string `db:"id"`
	DonorID     string `db:"donor_id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Quantity    int    `db:"quantity"`
	Unit        string `db:"unit"`
	EventType   string `db:"event_type"`
	Location    string `db:"location"`
	ExpiryTime  int64  `db:"expiry_time"`
	Status      string `db:"status"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r listingRow) listing() (domain.Listing, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.Listing{}, err
	}
	donor, err := uuid.Parse(r.DonorID)
	if err != nil {
		return domain.Listing{}, err
	}
	return domain.Listing{
		ID:          id,
		DonorID:     donor,
		Title:       r.Title,
		Description: r.Description,
		Quantity:    r.Quantity,
		Unit:        r.Unit,
		EventType:   r.EventType,
		Location:    r.Location,
		ExpiryTime:  fromMillis(r.ExpiryTime),
		Status:      r.Status,
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}, nil
}

type requestRow struct {
	ID                string `db:"id"`
	ListingID         string `db:"listing_id"`
	RecipientID       string `db:"recipient_id"`
	RequestedQuantity int    `db:"requested_quantity"`
	Status            string `db:"status"`
	CreatedAt         int64  `db:"created_at"`
	UpdatedAt         int64  `db:"updated_at"`
}

func (r requestRow) request() (domain.Request, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.Request{}, err
	}
	listingID, err := uuid.Parse(r.ListingID)
	if err != nil {
		return domain.Request{}, err
	}
	recipientID, err := uuid.Parse(r.RecipientID)
	if err != nil {
		return domain.Request{}, err
	}
	return domain.Request{
		ID:                id,
		ListingID:         listingID,
		RecipientID:       recipientID,
		RequestedQuantity: r.RequestedQuantity,
		Status:            r.Status,
		CreatedAt:         fromMillis(r.CreatedAt),
		UpdatedAt:         fromMillis(r.UpdatedAt),
	}, nil
}

const listingCols = `id, donor_id, title, description, quantity, unit, event_type, location, expiry_time, status, created_at, updated_at`

const requestCols = `id, listing_id, recipient_id, requested_quantity, status, created_at, updated_at`

func (s *Store) InsertListing(ctx context.Context, l *domain.Listing) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO food_listings(`+listingCols+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID.String(), l.DonorID.String(), l.Title, l.Description, l.Quantity, l.Unit, l.EventType,
		l.Location, millis(l.ExpiryTime), l.Status, millis(l.CreatedAt), millis(l.UpdatedAt))
	return err
}

func (s *Store) GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	var row listingRow
	if err := sqlx.GetContext(ctx, s.q, &row, `SELECT `+listingCols+` FROM food_listings WHERE id = ?`, id.String()); err != nil {
		return nil, notFound(err)
	}
	l, err := row.listing()
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) UpdateListing(ctx context.Context, id uuid.UUID, u lifecycle.ListingUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{millis(time.Now())}
	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Quantity != nil {
		add("quantity", *u.Quantity)
	}
	if u.Unit != nil {
		add("unit", *u.Unit)
	}
	if u.EventType != nil {
		add("event_type", *u.EventType)
	}
	if u.Location != nil {
		add("location", *u.Location)
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	args = append(args, id.String())
	return affected(s.q.ExecContext(ctx, `UPDATE food_listings SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...))
}

func (s *Store) DeleteListing(ctx context.Context, id uuid.UUID) error {
	return affected(s.q.ExecContext(ctx, `DELETE FROM food_listings WHERE id = ?`, id.String()))
}

func (s *Store) FindListings(ctx context.Context, q lifecycle.ListingQuery) ([]domain.Listing, error) {
	var where []string
	var args []interface{}
	if q.DonorID != nil {
		where = append(where, "donor_id = ?")
		args = append(args, q.DonorID.String())
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.EventType != "" {
		where = append(where, "event_type = ?")
		args = append(args, q.EventType)
	}
	if q.Location != "" {
		where = append(where, "location = ?")
		args = append(args, q.Location)
	}
	if q.ExpiresAfter != nil {
		where = append(where, "expiry_time > ?")
		args = append(args, millis(*q.ExpiresAfter))
	}
	query := `SELECT ` + listingCols + ` FROM food_listings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	var rows []listingRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Listing, 0, len(rows))
	for _, r := range rows {
		l, err := r.listing()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *Store) DistinctLocations(ctx context.Context, status string) ([]string, error) {
	query := `SELECT DISTINCT location FROM food_listings`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	var locs []string
	if err := sqlx.SelectContext(ctx, s.q, &locs, query+` ORDER BY location`, args...); err != nil {
		return nil, err
	}
	return locs, nil
}

func (s *Store) InsertRequest(ctx context.Context, r *domain.Request) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO food_requests(`+requestCols+`)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.ListingID.String(), r.RecipientID.String(), r.RequestedQuantity, r.Status,
		millis(r.CreatedAt), millis(r.UpdatedAt))
	return err
}

func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	var row requestRow
	if err := sqlx.GetContext(ctx, s.q, &row, `SELECT `+requestCols+` FROM food_requests WHERE id = ?`, id.String()); err != nil {
		return nil, notFound(err)
	}
	r, err := row.request()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	return affected(s.q.ExecContext(ctx,
		`UPDATE food_requests SET status = ?, updated_at = ? WHERE id = ?`,
		status, millis(time.Now()), id.String()))
}

func (s *Store) DeleteRequests(ctx context.Context, listingID uuid.UUID, statuses []string) (int64, error) {
	query := `DELETE FROM food_requests WHERE listing_id = ?`
	args := []interface{}{listingID.String()}
	if len(statuses) > 0 {
		in, inArgs, err := sqlx.In(` AND status IN (?)`, statuses)
		if err != nil {
			return 0, err
		}
		query += in
		args = append(args, inArgs...)
	}
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) FindRequests(ctx context.Context, q lifecycle.RequestQuery) ([]domain.Request, error) {
	var where []string
	var args []interface{}
	if q.RecipientID != nil {
		where = append(where, "recipient_id = ?")
		args = append(args, q.RecipientID.String())
	}
	if q.ListingID != nil {
		where = append(where, "listing_id = ?")
		args = append(args, q.ListingID.String())
	}
	if q.DonorID != nil {
		where = append(where, "listing_id IN (SELECT id FROM food_listings WHERE donor_id = ?)")
		args = append(args, q.DonorID.String())
	}
	if len(q.Statuses) > 0 {
		in, inArgs, err := sqlx.In("status IN (?)", q.Statuses)
		if err != nil {
			return nil, err
		}
		where = append(where, in)
		args = append(args, inArgs...)
	}
	query := `SELECT ` + requestCols + ` FROM food_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	var rows []requestRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Request, 0, len(rows))
	for _, r := range rows {
		req, err := r.request()
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *Store) CountRequests(ctx context.Context, listingIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(listingIDs))
	if len(listingIDs) == 0 {
		return counts, nil
	}
	ids := make([]string, len(listingIDs))
	for i, id := range listingIDs {
		ids[i] = id.String()
	}
	query, args, err := sqlx.In(`
		SELECT listing_id, COUNT(*) AS n FROM food_requests
		WHERE listing_id IN (?) GROUP BY listing_id`, ids)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ListingID string `db:"listing_id"`
		N         int64  `db:"n"`
	}
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, r := range rows {
		id, err := uuid.Parse(r.ListingID)
		if err != nil {
			return nil, err
		}
		counts[id] = r.N
	}
	return counts, nil
}

// WithinTx runs fn in one SQLite transaction. Nested calls reuse the open transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx lifecycle.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Store{db: s.db, q: tx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
