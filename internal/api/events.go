package api

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cems/internal/model"
	"cems/internal/report"
	"cems/internal/repository"
)

type CreateEventRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date" validate:"required,event_date"`
	Time        string `json:"time" validate:"required,event_time"`
	Location    string `json:"location" validate:"required,max=200"`
	Category    string `json:"category" validate:"required,max=100"`
	MaxCapacity int    `json:"maxCapacity" validate:"required,gt=0"`
	Featured    bool   `json:"featured"`
	Image       string `json:"image" validate:"omitempty,url"`
	Course      string `json:"course" validate:"max=100"`
	// OrganizerID lets an admin create an event on behalf of an organizer.
	OrganizerID *uuid.UUID `json:"organizerId"`
}

type UpdateEventRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description"`
	Date        *string `json:"date" validate:"omitempty,event_date"`
	Time        *string `json:"time" validate:"omitempty,event_time"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	MaxCapacity *int    `json:"maxCapacity" validate:"omitempty,gt=0"`
	Featured    *bool   `json:"featured"`
	Image       *string `json:"image" validate:"omitempty,url"`
	Course      *string `json:"course" validate:"omitempty,max=100"`
}

// ListEvents is public; supports category, course, date, featured and
// organizerId equality filters plus a free-text search over title and
// description.
func (h *Handler) ListEvents(c *fiber.Ctx) error {
	var filter repository.EventFilter

	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := c.Query("course"); v != "" {
		filter.Course = &v
	}
	if v := c.Query("date"); v != "" {
		filter.Date = &v
	}
	if v := c.Query("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "Invalid featured filter")
		}
		filter.Featured = &featured
	}
	if v := c.Query("organizerId"); v != "" {
		organizerID, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "Invalid organizerId filter")
		}
		filter.OrganizerID = &organizerID
	}
	if v := c.Query("search"); v != "" {
		filter.Search = &v
	}

	events, err := h.repo.ListEvents(c.Context(), filter)
	if err != nil {
		return repoError(c, err)
	}
	return c.JSON(events)
}

func (h *Handler) GetEvent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid event ID")
	}

	event, err := h.repo.GetEventByID(c.Context(), id)
	if err != nil {
		return repoError(c, err)
	}
	return c.JSON(event)
}

// CreateEvent requires an approved organizer or an admin. The caller becomes
// the owning organizer unless an admin assigns one via organizerId.
func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	caller, _ := h.currentUser(c)
	if caller.Role == model.RoleOrganizer && !caller.Approved {
		return forbidden(c, "Your organizer account is pending approval")
	}

	var req CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	owner := caller
	if req.OrganizerID != nil && *req.OrganizerID != caller.ID {
		if caller.Role != model.RoleAdmin {
			return forbidden(c, "Only admins can assign an organizer")
		}
		assigned, err := h.repo.GetUserByID(c.Context(), *req.OrganizerID)
		if err != nil {
			return repoError(c, err)
		}
		if assigned.Role != model.RoleOrganizer {
			return badRequest(c, "organizerId must reference an organizer account")
		}
		owner = assigned
	}

	event := model.Event{
		ID:            uuid.New(),
		Title:         req.Title,
		Description:   req.Description,
		Date:          req.Date,
		Time:          req.Time,
		Location:      req.Location,
		Category:      req.Category,
		MaxCapacity:   req.MaxCapacity,
		Featured:      req.Featured,
		Image:         req.Image,
		Course:        req.Course,
		OrganizerID:   owner.ID,
		OrganizerName: owner.Name,
		CreatedAt:     time.Now().UTC(),
	}

	if err := h.repo.CreateEvent(c.Context(), event); err != nil {
		return repoError(c, err)
	}

	slog.Info("Event created", "event_id", event.ID, "organizer_id", event.OrganizerID, "by", caller.ID)
	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *Handler) UpdateEvent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid event ID")
	}

	event, err := h.repo.GetEventByID(c.Context(), id)
	if err != nil {
		return repoError(c, err)
	}

	caller, _ := h.currentUser(c)
	if !canManageEvent(caller, event) {
		return forbidden(c, "Insufficient privileges")
	}

	var req UpdateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Date != nil {
		event.Date = *req.Date
	}
	if req.Time != nil {
		event.Time = *req.Time
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.Category != nil {
		event.Category = *req.Category
	}
	if req.MaxCapacity != nil {
		event.MaxCapacity = *req.MaxCapacity
	}
	if req.Featured != nil {
		event.Featured = *req.Featured
	}
	if req.Image != nil {
		event.Image = *req.Image
	}
	if req.Course != nil {
		event.Course = *req.Course
	}

	if err := h.repo.UpdateEvent(c.Context(), event); err != nil {
		return repoError(c, err)
	}
	return c.JSON(event)
}

func (h *Handler) DeleteEvent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid event ID")
	}

	event, err := h.repo.GetEventByID(c.Context(), id)
	if err != nil {
		return repoError(c, err)
	}

	caller, _ := h.currentUser(c)
	if !canManageEvent(caller, event) {
		return forbidden(c, "Insufficient privileges")
	}

	if err := h.repo.DeleteEvent(c.Context(), id); err != nil {
		return repoError(c, err)
	}

	slog.Info("Event deleted", "event_id", id, "by", caller.ID)
	return c.SendStatus(fiber.StatusNoContent)
}

// EventCapacity reports how many seats are taken (non-rejected registrations)
// and how many remain, the numbers behind fill indicators.
func (h *Handler) EventCapacity(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid event ID")
	}

	event, err := h.repo.GetEventByID(c.Context(), id)
	if err != nil {
		return repoError(c, err)
	}

	taken, err := h.repo.ActiveRegistrationCount(c.Context(), id)
	if err != nil {
		return repoError(c, err)
	}

	remaining := event.MaxCapacity - taken
	if remaining < 0 {
		remaining = 0
	}
	return c.JSON(fiber.Map{
		"maxCapacity": event.MaxCapacity,
		"registered":  taken,
		"remaining":   remaining,
	})
}

// RegisterForEvent creates a pending registration for the calling student.
// Capacity and uniqueness are enforced atomically by the repository.
func (h *Handler) RegisterForEvent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid event ID")
	}

	caller, _ := h.currentUser(c)

	registration := model.Registration{
		ID:      uuid.New(),
		EventID: id,
		UserID:  caller.ID,
		// Snapshot the registrant's display fields; later profile edits do
		// not rewrite existing registrations.
		UserName:     caller.Name,
		UserEmail:    caller.Email,
		RegisteredAt: time.Now().UTC(),
		Status:       model.StatusPending,
	}

	created, err := h.repo.CreateRegistration(c.Context(), registration)
	if err != nil {
		return repoError(c, err)
	}

	slog.Info("Registration created", "registration_id", created.ID, "event_id", id, "user_id", caller.ID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

// EventReport builds the organizer/admin report for one event.
func (h *Handler) EventReport(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid event ID")
	}

	event, err := h.repo.GetEventByID(c.Context(), id)
	if err != nil {
		return repoError(c, err)
	}

	caller, _ := h.currentUser(c)
	if !canManageEvent(caller, event) {
		return forbidden(c, "Insufficient privileges")
	}

	registrations, err := h.repo.ListRegistrations(c.Context(), repository.RegistrationFilter{EventID: &id})
	if err != nil {
		return repoError(c, err)
	}
	users, err := h.repo.ListUsers(c.Context(), repository.UserFilter{})
	if err != nil {
		return repoError(c, err)
	}

	return c.JSON(report.ForEvent(event, registrations, users))
}
