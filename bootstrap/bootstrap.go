package bootstrap

import (
	"foodshare-backend/internal/app"
	"foodshare-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for the serverless entry point (api/ imports this package).
// Clients stay open for the life of the function instance.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	return a.Fiber, nil
}
