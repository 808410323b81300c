package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"cems/internal/model"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")

	// ErrDuplicateIdentity is returned when a username or email is already
	// taken by another user row.
	ErrDuplicateIdentity = errors.New("username or email already exists")

	// ErrAlreadyRegistered is returned when a (event, user) pair already has
	// a registration row.
	ErrAlreadyRegistered = errors.New("user already registered for this event")

	// ErrEventFull is returned when the non-rejected registration count has
	// reached the event's capacity.
	ErrEventFull = errors.New("event is at capacity")
)

// UserFilter restricts ListUsers. Nil fields are ignored.
type UserFilter struct {
	Role     *model.Role
	Approved *bool
	Course   *string
}

// EventFilter restricts ListEvents. Nil fields are ignored. Search matches
// title and description case-insensitively.
type EventFilter struct {
	Category    *string
	Course      *string
	Date        *string
	Featured    *bool
	OrganizerID *uuid.UUID
	Search      *string
}

// RegistrationFilter restricts ListRegistrations. Nil fields are ignored.
type RegistrationFilter struct {
	EventID *uuid.UUID
	UserID  *uuid.UUID
	Status  *model.RegistrationStatus
}

// Repository is the persistence contract for the three record collections.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)
	// GetUserByIdentifier resolves a login identifier against both the
	// username and email columns.
	GetUserByIdentifier(ctx context.Context, identifier string) (model.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error)
	UpdateUser(ctx context.Context, user model.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Event operations
	CreateEvent(ctx context.Context, event model.Event) error
	GetEventByID(ctx context.Context, id uuid.UUID) (model.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error)
	UpdateEvent(ctx context.Context, event model.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	// Registration operations. CreateRegistration enforces the capacity and
	// uniqueness invariants atomically: the capacity check and the insert
	// happen in one transaction holding a row lock on the event.
	CreateRegistration(ctx context.Context, registration model.Registration) (model.Registration, error)
	GetRegistrationByID(ctx context.Context, id uuid.UUID) (model.Registration, error)
	ListRegistrations(ctx context.Context, filter RegistrationFilter) ([]model.Registration, error)
	UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status model.RegistrationStatus) (model.Registration, error)
	DeleteRegistration(ctx context.Context, id uuid.UUID) error

	// ActiveRegistrationCount counts non-rejected registrations for an
	// event, the number that occupies capacity.
	ActiveRegistrationCount(ctx context.Context, eventID uuid.UUID) (int, error)

	// Admin operations
	Stats(ctx context.Context) (model.AdminStats, error)

	HealthCheck(ctx context.Context) error
}
