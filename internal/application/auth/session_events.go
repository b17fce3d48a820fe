package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionEventsChannel is the Redis pub/sub channel carrying sign-in and sign-out notices.
const SessionEventsChannel = "auth:session_events"

const (
	SessionSignedIn  = "signed_in"
	SessionSignedOut = "signed_out"
)

// SessionEvent is one session change.
type SessionEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// PublishSessionEvent broadcasts ev. A nil Redis client makes it a no-op.
func (s *Service) PublishSessionEvent(ctx context.Context, ev SessionEvent) error {
	if s.Rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Rdb.Publish(ctx, SessionEventsChannel, b).Err()
}

// Subscribe returns a channel of session events. The channel is closed when ctx ends.
func (s *Service) Subscribe(ctx context.Context) (<-chan SessionEvent, error) {
	ps := s.Rdb.Subscribe(ctx, SessionEventsChannel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	out := make(chan SessionEvent)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Msg("auth: malformed session event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
