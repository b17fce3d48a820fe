package sqlstore

import (
	"context"
	"database/sql"

	"foodshare-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/datatypes"
)

type eventRow struct {
	EventID   string         `db:"event_id"`
	ListingID string         `db:"listing_id"`
	RequestID sql.NullString `db:"request_id"`
	ActorID   sql.NullString `db:"actor_id"`
	EventType string         `db:"event_type"`
	EventData sql.NullString `db:"event_data"`
	CreatedAt int64          `db:"created_at"`
}

func nullUUID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func parseNullUUID(s sql.NullString) (*uuid.UUID, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *domain.ListingEvent) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	var data sql.NullString
	if len(e.EventData) > 0 {
		data = sql.NullString{String: string(e.EventData), Valid: true}
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO listing_events(event_id, listing_id, request_id, actor_id, event_type, event_data, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		e.EventID.String(), e.ListingID.String(), nullUUID(e.RequestID), nullUUID(e.ActorID),
		e.EventType, data, millis(e.CreatedAt))
	return err
}

func (s *Store) ListEvents(ctx context.Context, listingID uuid.UUID) ([]domain.ListingEvent, error) {
	var rows []eventRow
	err := sqlx.SelectContext(ctx, s.q, &rows, `
		SELECT event_id, listing_id, request_id, actor_id, event_type, event_data, created_at
		FROM listing_events WHERE listing_id = ? ORDER BY created_at, rowid`, listingID.String())
	if err != nil {
		return nil, err
	}
	out := make([]domain.ListingEvent, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.EventID)
		if err != nil {
			return nil, err
		}
		reqID, err := parseNullUUID(r.RequestID)
		if err != nil {
			return nil, err
		}
		actorID, err := parseNullUUID(r.ActorID)
		if err != nil {
			return nil, err
		}
		ev := domain.ListingEvent{
			EventID:   id,
			ListingID: listingID,
			RequestID: reqID,
			ActorID:   actorID,
			EventType: r.EventType,
			CreatedAt: fromMillis(r.CreatedAt),
		}
		if r.EventData.Valid {
			ev.EventData = datatypes.JSON(r.EventData.String)
		}
		out = append(out, ev)
	}
	return out, nil
}
