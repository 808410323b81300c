package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"cems/internal/middleware"
	"cems/internal/model"
	"cems/internal/repository"
)

// RouterConfig carries optional per-route middleware supplied by the caller.
type RouterConfig struct {
	// AuthLimiter rate-limits the register and login endpoints when set.
	AuthLimiter fiber.Handler
}

// RegisterRoutes mounts the full API surface onto app. Session identity is
// resolved for every request; role and ownership checks sit on the routes
// and in the handlers.
func RegisterRoutes(app *fiber.App, h *Handler, store *session.Store, repo repository.Repository, cfg RouterConfig) {
	app.Use(middleware.SessionIdentity(store, repo))

	app.Get("/api/health", h.Health)

	auth := app.Group("/auth")
	if cfg.AuthLimiter != nil {
		auth.Post("/register", cfg.AuthLimiter, h.Register)
		auth.Post("/login", cfg.AuthLimiter, h.Login)
	} else {
		auth.Post("/register", h.Register)
		auth.Post("/login", h.Login)
	}
	auth.Post("/logout", h.Logout)
	auth.Get("/me", h.Me)

	users := app.Group("/users")
	users.Get("", middleware.RequireRole(model.RoleAdmin), h.ListUsers)
	users.Post("", middleware.RequireRole(model.RoleAdmin), h.CreateUser)
	users.Get("/:id", middleware.RequireAuthenticated(), h.GetUser)
	users.Patch("/:id", middleware.RequireAuthenticated(), h.UpdateUser)
	users.Delete("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteUser)

	events := app.Group("/events")
	events.Get("", h.ListEvents)
	events.Post("", middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin), h.CreateEvent)
	events.Get("/:id", h.GetEvent)
	events.Patch("/:id", middleware.RequireAuthenticated(), h.UpdateEvent)
	events.Delete("/:id", middleware.RequireAuthenticated(), h.DeleteEvent)
	events.Get("/:id/capacity", h.EventCapacity)
	events.Post("/:id/register", middleware.RequireRole(model.RoleStudent), h.RegisterForEvent)
	events.Get("/:id/report", middleware.RequireAuthenticated(), h.EventReport)

	registrations := app.Group("/registrations", middleware.RequireAuthenticated())
	registrations.Get("", h.ListRegistrations)
	registrations.Get("/:id", h.GetRegistration)
	registrations.Patch("/:id", h.UpdateRegistration)
	registrations.Delete("/:id", h.DeleteRegistration)

	app.Get("/admin/stats", middleware.RequireRole(model.RoleAdmin), h.Stats)
}
