package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"

	"cems/internal/model"
	"cems/internal/repository"
)

// UserContextKey is the fiber.Ctx locals key holding the resolved session
// identity as a model.User.
const UserContextKey = "current_user"

// SessionIdentity resolves the session cookie to a user row and stores it in
// the request locals. Requests without a valid session pass through
// unauthenticated; the role gates decide what that means per route.
func SessionIdentity(store *session.Store, repo repository.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			slog.Error("Failed to get session", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Session error",
			})
		}

		raw := sess.Get("user_id")
		if raw == nil {
			return c.Next()
		}

		idStr, ok := raw.(string)
		if !ok {
			return c.Next()
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return c.Next()
		}

		user, err := repo.GetUserByID(c.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				// Stale session for a deleted user.
				sess.Delete("user_id")
				if err := sess.Save(); err != nil {
					slog.Error("Failed to save session", "error", err)
				}
				return c.Next()
			}
			slog.Error("Failed to resolve session user", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		c.Locals(UserContextKey, user)
		return c.Next()
	}
}

// CurrentUser returns the session identity stored by SessionIdentity.
func CurrentUser(c *fiber.Ctx) (model.User, bool) {
	user, ok := c.Locals(UserContextKey).(model.User)
	return user, ok
}

// RequireAuthenticated rejects requests without a session identity.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}
		return c.Next()
	}
}

// RequireRole rejects requests whose session identity does not carry one of
// the given roles.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}
		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient privileges",
		})
	}
}
