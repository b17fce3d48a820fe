package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (m *memUsers) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = map[string]*domain.User{}
	}
	m.users[strings.ToLower(u.Email)] = u
	return nil
}

func (m *memUsers) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, lifecycle.ErrRecordNotFound
	}
	return u, nil
}

func newService(t *testing.T) *Service {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return &Service{Users: &memUsers{}, Rdb: rdb, Cost: bcrypt.MinCost}
}

func validSignUp() SignUpInput {
	return SignUpInput{Email: "Dana@Example.com", Password: "s3cret!pass", Fullname: "Dana Smith", Role: "donor"}
}

func TestSignUp_Success(t *testing.T) {
	s := newService(t)
	u, err := s.SignUp(context.Background(), validSignUp())
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", u.Email)
	assert.Equal(t, "donor", u.UserType)
	assert.NotEqual(t, "s3cret!pass", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret!pass")))
}

func TestSignUp_Validation(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*SignUpInput)
		want error
	}{
		{"missing email", func(in *SignUpInput) { in.Email = "" }, ErrEmailPasswordRequired},
		{"bad email", func(in *SignUpInput) { in.Email = "nope" }, ErrEmailFormat},
		{"weak password", func(in *SignUpInput) { in.Password = "short" }, ErrWeakPassword},
		{"bad name", func(in *SignUpInput) { in.Fullname = "R2D2" }, ErrInvalidFullname},
		{"bad role", func(in *SignUpInput) { in.Role = "admin" }, ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newService(t)
			in := validSignUp()
			tc.mod(&in)
			_, err := s.SignUp(context.Background(), in)
			assert.Equal(t, tc.want, err)
			assert.True(t, IsClientError(err))
		})
	}
}

func TestSignUp_EmailTaken(t *testing.T) {
	s := newService(t)
	_, err := s.SignUp(context.Background(), validSignUp())
	require.NoError(t, err)
	in := validSignUp()
	in.Email = "dana@example.com"
	_, err = s.SignUp(context.Background(), in)
	assert.Equal(t, ErrEmailTaken, err)
}

func TestSignIn(t *testing.T) {
	s := newService(t)
	_, err := s.SignUp(context.Background(), validSignUp())
	require.NoError(t, err)

	u, err := s.SignIn(context.Background(), LoginInput{Email: "dana@example.com", Password: "s3cret!pass"})
	require.NoError(t, err)
	assert.Equal(t, "Dana Smith", u.Fullname)

	_, err = s.SignIn(context.Background(), LoginInput{Email: "dana@example.com", Password: "wrong"})
	assert.Equal(t, ErrIncorrectPassword, err)

	_, err = s.SignIn(context.Background(), LoginInput{Email: "nobody@example.com", Password: "x"})
	assert.Equal(t, ErrInvalidEmail, err)

	_, err = s.SignIn(context.Background(), LoginInput{Email: "dana@example.com"})
	assert.Equal(t, ErrEmailPasswordRequired, err)
}

func TestVerifyUser(t *testing.T) {
	_, err := VerifyUser(nil)
	assert.Equal(t, ErrNotAuthenticated, err)

	_, err = VerifyUser(map[string]interface{}{"fullname": "Test"})
	assert.Equal(t, ErrNotAuthenticated, err)

	u, err := VerifyUser(map[string]interface{}{
		"user_id":  "550e8400-e29b-41d4-a716-446655440000",
		"fullname": "Test User",
		"email":    "test@example.com",
		"role":     "recipient",
	})
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", u.UserID)
	assert.Equal(t, "recipient", u.Role)
}

func TestSessionEvents(t *testing.T) {
	s := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, s.PublishSessionEvent(ctx, SessionEvent{Type: SessionSignedIn, UserID: "u1", SessionID: "s1"}))

	select {
	case ev := <-events:
		assert.Equal(t, SessionSignedIn, ev.Type)
		assert.Equal(t, "u1", ev.UserID)
		assert.False(t, ev.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no session event received")
	}

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestPublishSessionEvent_NoRedis(t *testing.T) {
	s := &Service{}
	assert.NoError(t, s.PublishSessionEvent(context.Background(), SessionEvent{Type: SessionSignedOut}))
}

func TestDestroyUserSessions(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	for _, sid := range []string{"a", "b"} {
		require.NoError(t, s.Rdb.Set(ctx, middleware.SessionRedisPrefix+sid, `{"user":{}}`, 0).Err())
		require.NoError(t, s.Rdb.SAdd(ctx, middleware.UserSessionsPrefix+"u1", sid).Err())
	}
	require.NoError(t, s.Rdb.Set(ctx, middleware.SessionRedisPrefix+"other", `{"user":{}}`, 0).Err())

	n, err := s.DestroyUserSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := s.Rdb.Exists(ctx, middleware.SessionRedisPrefix+"a", middleware.SessionRedisPrefix+"b",
		middleware.UserSessionsPrefix+"u1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), left)
	assert.Equal(t, int64(1), s.Rdb.Exists(ctx, middleware.SessionRedisPrefix+"other").Val())

	n, err = s.DestroyUserSessions(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}
