package router

import (
	"net/http"

	authsvc "foodshare-backend/internal/application/auth"
	healthsvc "foodshare-backend/internal/application/health"
	"foodshare-backend/internal/application/lifecycle"
	profilesvc "foodshare-backend/internal/application/profiles"
	authhandler "foodshare-backend/internal/interfaces/handlers/auth"
	healthhandler "foodshare-backend/internal/interfaces/handlers/health"
	lehandler "foodshare-backend/internal/interfaces/handlers/listingevents"
	listhandler "foodshare-backend/internal/interfaces/handlers/listings"
	profhandler "foodshare-backend/internal/interfaces/handlers/profiles"
	reqhandler "foodshare-backend/internal/interfaces/handlers/requests"
	"foodshare-backend/internal/middleware"
	"foodshare-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
)

// Deps are the constructed services the routes are wired to.
type Deps struct {
	Engine   *lifecycle.Engine
	Auth     *authsvc.Service
	Profiles *profilesvc.Service
	Rdb      *redis.Client
	// DB and Optional are probed by the health endpoints.
	DB       healthsvc.Pinger
	Optional map[string]healthsvc.Pinger
}

// Options are the HTTP-level settings taken from config.
type Options struct {
	Session             middleware.SessionConfig
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
}

// New builds the Fiber app with all global middleware and route registration.
func New(opts Options, d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: opts.FrontendURLEndsWith,
		DevPassword:   opts.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.Session(d.Rdb, opts.Session.Secret))
	app.Use(middleware.HealthMarker(d.Rdb))
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            d.Rdb,
		DB:             d.DB,
		Optional:       d.Optional,
		HealthAdminKey: opts.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	api := app.Group("/api/v1")

	ah := &authhandler.Handlers{Service: d.Auth, Rdb: d.Rdb, Config: opts.Session}
	ag := api.Group("/auth")
	ag.Post("/signup", ah.SignUp)
	ag.Post("/login", ah.Login)
	ag.Get("/me", ah.Me)
	ag.Delete("/logout", ah.Logout)
	ag.Delete("/sessions", ah.LogoutAll)

	ph := &profhandler.Handlers{Service: d.Profiles}
	pg := api.Group("/profiles", middleware.RequireAuth())
	pg.Get("/me", ph.Me)
	pg.Put("/me", ph.Update)

	lh := &listhandler.Handlers{Engine: d.Engine, Profiles: d.Profiles}
	leh := &lehandler.Handlers{Engine: d.Engine}
	lg := api.Group("/listings")
	lg.Get("/", lh.Browse)
	lg.Get("/locations", lh.Locations)
	lg.Get("/mine", middleware.AuthorizePermission(constants.ViewOwnListings), lh.Mine)
	lg.Get("/:listing_id", lh.Get)
	lg.Post("/", middleware.AuthorizePermission(constants.CreateListing), lh.CreateListing)
	lg.Put("/:listing_id", middleware.AuthorizePermission(constants.EditListing), lh.Edit)
	lg.Delete("/:listing_id", middleware.AuthorizePermission(constants.DeleteListing), lh.Delete)
	lg.Post("/:listing_id/complete", middleware.AuthorizePermission(constants.CompleteListing), lh.Complete)
	lg.Get("/:listing_id/events", middleware.AuthorizePermission(constants.ViewEvents), leh.List)

	rh := &reqhandler.Handlers{Engine: d.Engine}
	rg := api.Group("/requests", middleware.RequireAuth())
	rg.Post("/", rh.Create)
	rg.Get("/mine", rh.Mine)
	rg.Patch("/:request_id/status", middleware.AuthorizePermission(constants.DecideRequest), rh.SetStatus)

	return app
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
