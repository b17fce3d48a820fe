package auth

import (
	"context"

	"foodshare-backend/internal/middleware"
)

// DestroyUserSessions deletes every session tracked for userID (session:<sid> keys and the
// user_sessions:<user_id> set) and broadcasts a sign-out for each. Returns how many were removed.
func (s *Service) DestroyUserSessions(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	key := middleware.UserSessionsPrefix + userID
	sessionIDs, err := s.Rdb.SMembers(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	keys := []string{key}
	for _, sid := range sessionIDs {
		keys = append(keys, middleware.SessionRedisPrefix+sid)
	}
	if err := s.Rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	for _, sid := range sessionIDs {
		_ = s.PublishSessionEvent(ctx, SessionEvent{Type: SessionSignedOut, UserID: userID, SessionID: sid})
	}
	return len(sessionIDs), nil
}
