package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"

	"cems/internal/middleware"
	"cems/internal/model"
	"cems/internal/repository"
	"cems/internal/validator"
)

type Handler struct {
	store    *session.Store
	repo     repository.Repository
	validate *validator.Validator
}

func NewHandler(store *session.Store, repo repository.Repository, validate *validator.Validator) Handler {
	return Handler{store: store, repo: repo, validate: validate}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.repo.HealthCheck(c.Context()); err != nil {
		slog.Error("Health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// currentUser returns the session identity; routes behind the auth
// middleware always have one.
func (h *Handler) currentUser(c *fiber.Ctx) (model.User, bool) {
	return middleware.CurrentUser(c)
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// repoError translates repository errors into the wire taxonomy.
func repoError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrRegistrationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicateIdentity),
		errors.Is(err, repository.ErrAlreadyRegistered),
		errors.Is(err, repository.ErrEventFull):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		slog.Error("Repository error", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func forbidden(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": message})
}

// canManageEvent reports whether the caller may modify the event or its
// registrations: admins always, organizers only for events they own and only
// while approved.
func canManageEvent(user model.User, event model.Event) bool {
	if user.Role == model.RoleAdmin {
		return true
	}
	return user.Role == model.RoleOrganizer && user.Approved && event.OrganizerID == user.ID
}
