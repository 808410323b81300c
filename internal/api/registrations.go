package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cems/internal/model"
	"cems/internal/repository"
)

type UpdateRegistrationRequest struct {
	Status model.RegistrationStatus `json:"status" validate:"required,oneof=pending approved rejected"`
}

// ListRegistrations scopes results by role: students see their own rows,
// organizers the rows of events they own (eventId filter required), admins
// everything.
func (h *Handler) ListRegistrations(c *fiber.Ctx) error {
	var filter repository.RegistrationFilter

	if v := c.Query("eventId"); v != "" {
		eventID, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "Invalid eventId filter")
		}
		filter.EventID = &eventID
	}
	if v := c.Query("userId"); v != "" {
		userID, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "Invalid userId filter")
		}
		filter.UserID = &userID
	}
	if v := c.Query("status"); v != "" {
		status := model.RegistrationStatus(v)
		if !status.Valid() {
			return badRequest(c, "Invalid status filter")
		}
		filter.Status = &status
	}

	caller, _ := h.currentUser(c)
	switch caller.Role {
	case model.RoleAdmin:
		// unrestricted
	case model.RoleStudent:
		filter.UserID = &caller.ID
	case model.RoleOrganizer:
		if filter.EventID == nil {
			return badRequest(c, "eventId filter is required for organizers")
		}
		event, err := h.repo.GetEventByID(c.Context(), *filter.EventID)
		if err != nil {
			return repoError(c, err)
		}
		if !canManageEvent(caller, event) {
			return forbidden(c, "Insufficient privileges")
		}
	}

	registrations, err := h.repo.ListRegistrations(c.Context(), filter)
	if err != nil {
		return repoError(c, err)
	}
	return c.JSON(registrations)
}

func (h *Handler) GetRegistration(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid registration ID")
	}

	registration, err := h.repo.GetRegistrationByID(c.Context(), id)
	if err != nil {
		return repoError(c, err)
	}

	caller, _ := h.currentUser(c)
	if caller.ID != registration.UserID {
		event, err := h.repo.GetEventByID(c.Context(), registration.EventID)
		if err != nil {
			return repoError(c, err)
		}
		if !canManageEvent(caller, event) {
			return forbidden(c, "Insufficient privileges")
		}
	}
	return c.JSON(registration)
}

// UpdateRegistration overwrites the status field. Only the event's owning
// organizer or an admin may do so; transitions are unrestricted and
// re-reversible, so applying the same status twice is a no-op.
func (h *Handler) UpdateRegistration(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid registration ID")
	}

	var req UpdateRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	registration, err := h.repo.GetRegistrationByID(c.Context(), id)
	if err != nil {
		return repoError(c, err)
	}

	event, err := h.repo.GetEventByID(c.Context(), registration.EventID)
	if err != nil {
		return repoError(c, err)
	}

	caller, _ := h.currentUser(c)
	if !canManageEvent(caller, event) {
		return forbidden(c, "Insufficient privileges")
	}

	updated, err := h.repo.UpdateRegistrationStatus(c.Context(), id, req.Status)
	if err != nil {
		return repoError(c, err)
	}

	slog.Info("Registration status updated", "registration_id", id, "status", req.Status, "by", caller.ID)
	return c.JSON(updated)
}

// DeleteRegistration cancels a registration: the owning student
// unconditionally, otherwise the event's organizer or an admin.
func (h *Handler) DeleteRegistration(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid registration ID")
	}

	registration, err := h.repo.GetRegistrationByID(c.Context(), id)
	if err != nil {
		return repoError(c, err)
	}

	caller, _ := h.currentUser(c)
	if caller.ID != registration.UserID {
		event, err := h.repo.GetEventByID(c.Context(), registration.EventID)
		if err != nil {
			return repoError(c, err)
		}
		if !canManageEvent(caller, event) {
			return forbidden(c, "Insufficient privileges")
		}
	}

	if err := h.repo.DeleteRegistration(c.Context(), id); err != nil {
		return repoError(c, err)
	}

	slog.Info("Registration cancelled", "registration_id", id, "by", caller.ID)
	return c.SendStatus(fiber.StatusNoContent)
}
