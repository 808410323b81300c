package api

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cems/internal/model"
	"cems/internal/repository"
)

type RegisterRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=50"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	Name     string     `json:"name" validate:"required,max=100"`
	Role     model.Role `json:"role" validate:"required,oneof=student organizer"`
	Course   string     `json:"course" validate:"max=100"`
}

type LoginRequest struct {
	// Username also accepts the account's email address.
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account. Students are active immediately and get a
// session; organizers stay locked out until an admin approves them.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	user := model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		Approved:     req.Role != model.RoleOrganizer,
		Course:       req.Course,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.repo.CreateUser(c.Context(), user); err != nil {
		return repoError(c, err)
	}

	if user.Approved {
		if err := h.createSession(c, user); err != nil {
			return err
		}
	}

	slog.Info("User registered", "username", user.Username, "role", user.Role, "approved", user.Approved)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":          user,
		"needsApproval": !user.Approved,
	})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.repo.GetUserByIdentifier(c.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid username or password",
			})
		}
		return repoError(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid username or password",
		})
	}

	if user.Role == model.RoleOrganizer && !user.Approved {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Your organizer account is pending approval",
		})
	}

	if err := h.createSession(c, user); err != nil {
		return err
	}

	slog.Info("User logged in", "username", user.Username, "user_id", user.ID, "ip", c.IP())
	return c.JSON(fiber.Map{"user": user})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		slog.Error("Failed to get session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get session",
		})
	}

	userID := sess.Get("user_id")
	if err := sess.Destroy(); err != nil {
		slog.Error("Failed to destroy session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to destroy session",
		})
	}

	if userID != nil {
		slog.Info("User logged out", "user_id", userID)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me returns the current session identity, the rehydration point for a
// client restoring its state.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, ok := h.currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *Handler) createSession(c *fiber.Ctx, user model.User) error {
	sess, err := h.store.Get(c)
	if err != nil {
		slog.Error("Failed to get session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}
	sess.Set("user_id", user.ID.String())
	if err := sess.Save(); err != nil {
		slog.Error("Failed to save session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save session",
		})
	}
	return nil
}
