// Package handlertest builds a lifecycle engine on in-memory SQLite and fakes signed-in
// callers for handler tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/infrastructure/database"
	"foodshare-backend/internal/infrastructure/store/gormstore"
	"foodshare-backend/internal/middleware"
	"foodshare-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PrincipalHeader names the test header carrying "<role>:<uuid>".
const PrincipalHeader = "X-Test-Principal"

// NewStore returns a migrated GORM store on a private in-memory database.
func NewStore(t *testing.T) *gormstore.Store {
	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return gormstore.New(db)
}

// NewEngine returns an engine over NewStore with the default policy.
func NewEngine(t *testing.T) (*lifecycle.Engine, *gormstore.Store) {
	st := NewStore(t)
	en := lifecycle.NewEngine(st, lifecycle.DefaultPolicy(), nil)
	en.Now = func() time.Time { return time.Now().UTC() }
	return en, st
}

// SignIn puts the principal named by PrincipalHeader into the request, the way Session does.
func SignIn() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, id, ok := bytes.Cut([]byte(c.Get(PrincipalHeader)), []byte(":"))
		if ok {
			middleware.SetSessionUser(c, middleware.SessionUser{UserID: string(id), Role: string(role)})
		}
		return c.Next()
	}
}

// Donor and Recipient return a principal header value for a fresh user of that role.
func Donor() (uuid.UUID, string) {
	id := uuid.New()
	return id, constants.Donor + ":" + id.String()
}

func Recipient() (uuid.UUID, string) {
	id := uuid.New()
	return id, constants.Recipient + ":" + id.String()
}

// Do sends a JSON request as principal ("" for anonymous) and returns the response.
func Do(t *testing.T, app *fiber.App, method, path, principal string, body interface{}) *http.Response {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if principal != "" {
		req.Header.Set(PrincipalHeader, principal)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// Envelope is the decoded standard response body.
type Envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  struct {
		Message    string                 `json:"message"`
		StatusCode int                    `json:"statusCode"`
		Details    map[string]interface{} `json:"details"`
	} `json:"error"`
}

// Decode reads the envelope and, when data is non-nil, unmarshals its data into it.
func Decode(t *testing.T, resp *http.Response, data interface{}) Envelope {
	defer resp.Body.Close()
	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// SeedUser stores a user with the given id and role.
func SeedUser(t *testing.T, st *gormstore.Store, id uuid.UUID, role, address string) *domain.User {
	u := &domain.User{
		UserID: id, Email: id.String() + "@example.com", PasswordHash: "x",
		Fullname: "Test User", UserType: role, Address: address,
	}
	require.NoError(t, st.DB.Create(u).Error)
	return u
}
