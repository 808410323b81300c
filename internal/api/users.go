package api

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cems/internal/model"
	"cems/internal/repository"
)

type CreateUserRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=50"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	Name     string     `json:"name" validate:"required,max=100"`
	Role     model.Role `json:"role" validate:"required,oneof=student organizer admin"`
	Approved *bool      `json:"approved"`
	Course   string     `json:"course" validate:"max=100"`
}

type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Course   *string `json:"course" validate:"omitempty,max=100"`
	Approved *bool   `json:"approved"`
}

// ListUsers is admin-only; supports role, approved and course filters.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	var filter repository.UserFilter

	if v := c.Query("role"); v != "" {
		role := model.Role(v)
		if !role.Valid() {
			return badRequest(c, "Invalid role filter")
		}
		filter.Role = &role
	}
	if v := c.Query("approved"); v != "" {
		approved, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "Invalid approved filter")
		}
		filter.Approved = &approved
	}
	if v := c.Query("course"); v != "" {
		filter.Course = &v
	}

	users, err := h.repo.ListUsers(c.Context(), filter)
	if err != nil {
		return repoError(c, err)
	}
	return c.JSON(users)
}

// GetUser returns a user row; callers may fetch themselves, admins anyone.
func (h *Handler) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	caller, _ := h.currentUser(c)
	if caller.Role != model.RoleAdmin && caller.ID != id {
		return forbidden(c, "Insufficient privileges")
	}

	user, err := h.repo.GetUserByID(c.Context(), id)
	if err != nil {
		return repoError(c, err)
	}
	return c.JSON(user)
}

// CreateUser is the admin path for provisioning accounts, including admins.
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
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

	approved := req.Role != model.RoleOrganizer
	if req.Approved != nil {
		approved = *req.Approved
	}

	user := model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		Approved:     approved,
		Course:       req.Course,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.repo.CreateUser(c.Context(), user); err != nil {
		return repoError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// UpdateUser merges a partial update into a user row. Users may edit their
// own profile; only admins may touch other rows or the approved flag (the
// organizer approval gate).
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	caller, _ := h.currentUser(c)
	if caller.Role != model.RoleAdmin && caller.ID != id {
		return forbidden(c, "Insufficient privileges")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Approved != nil && caller.Role != model.RoleAdmin {
		return forbidden(c, "Only admins can change approval status")
	}

	user, err := h.repo.GetUserByID(c.Context(), id)
	if err != nil {
		return repoError(c, err)
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(strings.ToLower(*req.Email))
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("Failed to hash password", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}
		user.PasswordHash = string(hash)
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Course != nil {
		user.Course = *req.Course
	}
	if req.Approved != nil {
		user.Approved = *req.Approved
	}

	if err := h.repo.UpdateUser(c.Context(), user); err != nil {
		return repoError(c, err)
	}

	slog.Info("User updated", "user_id", user.ID, "by", caller.ID)
	return c.JSON(user)
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	caller, _ := h.currentUser(c)
	if caller.ID == id {
		return badRequest(c, "Admins cannot delete their own account")
	}

	if err := h.repo.DeleteUser(c.Context(), id); err != nil {
		return repoError(c, err)
	}

	slog.Info("User deleted", "user_id", id, "by", caller.ID)
	return c.SendStatus(fiber.StatusNoContent)
}

// Stats serves the admin dashboard counters.
func (h *Handler) Stats(c *fiber.Ctx) error {
	stats, err := h.repo.Stats(c.Context())
	if err != nil {
		return repoError(c, err)
	}
	return c.JSON(stats)
}
