package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "foodshare-backend/internal/application/auth"
	profilesvc "foodshare-backend/internal/application/profiles"
	"foodshare-backend/internal/interfaces/handlers/handlertest"
	"foodshare-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type client struct {
	t      *testing.T
	app    *fiber.App
	cookie *http.Cookie
}

func (c *client) do(method, path string, body interface{}) (*http.Response, handlertest.Envelope) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookieName {
			c.cookie = ck
		}
	}
	var env handlertest.Envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	resp.Body.Close()
	return resp, env
}

func setup(t *testing.T) (*fiber.App, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	engine, st := handlertest.NewEngine(t)
	app := New(Options{HealthAdminKey: "k", Session: middleware.SessionConfig{Secret: "router-secret"}}, Deps{
		Engine:   engine,
		Auth:     &authsvc.Service{Users: st, Rdb: rdb, Cost: bcrypt.MinCost},
		Profiles: &profilesvc.Service{Store: st},
		Rdb:      rdb,
		DB:       st,
	})
	return app, rdb
}

func signUp(t *testing.T, app *fiber.App, email, role string) *client {
	c := &client{t: t, app: app}
	resp, _ := c.do("POST", "/api/v1/auth/signup", map[string]string{
		"email": email, "password": "s3cret!pass", "fullname": "Test Person", "role": role,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NotNil(t, c.cookie)
	return c
}

func TestDonationFlow(t *testing.T) {
	app, _ := setup(t)
	donor := signUp(t, app, "donor@example.com", "donor")
	recipient := signUp(t, app, "rec@example.com", "recipient")

	resp, env := donor.do("POST", "/api/v1/listings", map[string]interface{}{
		"title": "Wedding rice", "description": "Ten trays", "quantity": "10",
		"event_type": "wedding", "location": "Springfield",
		"expiry_time": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var listing struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listing))

	resp, _ = recipient.do("POST", "/api/v1/listings", map[string]interface{}{"title": "x"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, env = recipient.do("POST", "/api/v1/requests", map[string]interface{}{"listing_id": listing.ID, "quantity": "4"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var req struct {
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &req))

	resp, _ = recipient.do("PATCH", "/api/v1/requests/"+req.RequestID+"/status", map[string]string{"status": "accepted"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = donor.do("PATCH", "/api/v1/requests/"+req.RequestID+"/status", map[string]string{"status": "accepted"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env = recipient.do("GET", "/api/v1/listings/"+listing.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got struct {
		Status       string `json:"status"`
		RequestCount int    `json:"request_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "reserved", got.Status)
	assert.Equal(t, 1, got.RequestCount)

	resp, env = donor.do("DELETE", "/api/v1/listings/"+listing.ID, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Cannot delete listing with accepted requests", env.Error.Message)

	resp, _ = donor.do("POST", "/api/v1/listings/"+listing.ID+"/complete", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env = donor.do("GET", "/api/v1/listings/"+listing.ID+"/events", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var events []struct {
		EventType string `json:"event_type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &events))
	assert.Len(t, events, 5)

	resp, env = recipient.do("GET", "/api/v1/requests/mine", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var mine []struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "accepted", mine[0].Status)
}

func TestAuthGuards(t *testing.T) {
	app, _ := setup(t)
	anon := &client{t: t, app: app}

	resp, _ := anon.do("GET", "/api/v1/listings", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = anon.do("GET", "/api/v1/profiles/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = anon.do("POST", "/api/v1/requests", map[string]string{})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = anon.do("GET", "/api/v1/listings/mine", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	donor := signUp(t, app, "donor@example.com", "donor")
	resp, _ = donor.do("GET", "/api/v1/profiles/me", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = donor.do("DELETE", "/api/v1/auth/logout", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = donor.do("GET", "/api/v1/auth/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHealthCountsAPIRequests(t *testing.T) {
	app, rdb := setup(t)
	anon := &client{t: t, app: app}
	anon.do("GET", "/api/v1/listings", nil)
	anon.do("GET", "/api/v1/listings/locations", nil)
	anon.do("GET", "/health/json", nil)

	total, err := rdb.Get(context.Background(), middleware.KeyReqTotal).Int()
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	req := httptest.NewRequest("GET", "/health/json", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
}
