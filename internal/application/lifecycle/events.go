package lifecycle

import (
	"context"
	"encoding/json"
	"time"

	"foodshare-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// Listing event types recorded in the history and sent to publishers.
const (
	EventCreated   = "CREATED"
	EventUpdated   = "UPDATED"
	EventRequested = "REQUESTED"
	EventAccepted  = "ACCEPTED"
	EventRejected  = "REJECTED"
	EventReserved  = "RESERVED"
	EventCompleted = "COMPLETED"
	EventDeleted   = "DELETED"
)

// Event is a lifecycle transition handed to publishers after it was committed.
type Event struct {
	Type        string                 `json:"type"`
	ListingID   uuid.UUID              `json:"listing_id"`
	RequestID   *uuid.UUID             `json:"request_id,omitempty"`
	ActorID     uuid.UUID              `json:"actor_id"`
	DonorID     uuid.UUID              `json:"donor_id"`
	RecipientID *uuid.UUID             `json:"recipient_id,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	At          time.Time              `json:"at"`
}

// Publisher receives committed lifecycle events (message broker, email, ...).
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Publishers fans one event out to several publishers.
type Publishers []Publisher

func (ps Publishers) Publish(ctx context.Context, e Event) error {
	var first error
	for _, p := range ps {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// record appends e to the listing history and publishes it. Both are best-effort:
// the transition already happened, so failures are logged, not returned.
func (en *Engine) record(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = en.now()
	}
	data, _ := json.Marshal(e.Data)
	actor := e.ActorID
	row := &domain.ListingEvent{
		ListingID: e.ListingID,
		RequestID: e.RequestID,
		ActorID:   &actor,
		EventType: e.Type,
		EventData: datatypes.JSON(data),
		CreatedAt: e.At,
	}
	if err := en.Store.AppendEvent(ctx, row); err != nil {
		log.Error().Err(err).Str("listing_id", e.ListingID.String()).Str("event", e.Type).
			Msg("lifecycle: append listing event failed")
	}
	if en.Publisher == nil {
		return
	}
	if err := en.Publisher.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Str("listing_id", e.ListingID.String()).Str("event", e.Type).
			Msg("lifecycle: publish listing event failed")
	}
}
