package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cems/internal/model"
)

// MemoryRepository is an in-memory Repository with the same invariant
// semantics as the Postgres implementation. It backs the API tests and is
// handy for local experiments that do not need a database.
type MemoryRepository struct {
	mu            sync.Mutex
	users         map[uuid.UUID]model.User
	events        map[uuid.UUID]model.Event
	registrations map[uuid.UUID]model.Registration
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:         make(map[uuid.UUID]model.User),
		events:        make(map[uuid.UUID]model.Event),
		registrations: make(map[uuid.UUID]model.Registration),
	}
}

func (r *MemoryRepository) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return ErrDuplicateIdentity
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryRepository) GetUserByIdentifier(_ context.Context, identifier string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == identifier || user.Email == strings.ToLower(identifier) {
			return user, nil
		}
	}
	return model.User{}, ErrUserNotFound
}

func (r *MemoryRepository) ListUsers(_ context.Context, filter UserFilter) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := []model.User{}
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Approved != nil && user.Approved != *filter.Approved {
			continue
		}
		if filter.Course != nil && user.Course != *filter.Course {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

func (r *MemoryRepository) UpdateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	for id, existing := range r.users {
		if id == user.ID {
			continue
		}
		if existing.Username == user.Username || existing.Email == user.Email {
			return ErrDuplicateIdentity
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepository) DeleteUser(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, id)
	for regID, reg := range r.registrations {
		if reg.UserID == id {
			delete(r.registrations, regID)
		}
	}
	for eventID, event := range r.events {
		if event.OrganizerID == id {
			delete(r.events, eventID)
		}
	}
	return nil
}

func (r *MemoryRepository) CreateEvent(_ context.Context, event model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.ID] = event
	return nil
}

func (r *MemoryRepository) GetEventByID(_ context.Context, id uuid.UUID) (model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[id]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	return event, nil
}

func (r *MemoryRepository) ListEvents(_ context.Context, filter EventFilter) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := []model.Event{}
	for _, event := range r.events {
		if filter.Category != nil && event.Category != *filter.Category {
			continue
		}
		if filter.Course != nil && event.Course != *filter.Course {
			continue
		}
		if filter.Date != nil && event.Date != *filter.Date {
			continue
		}
		if filter.Featured != nil && event.Featured != *filter.Featured {
			continue
		}
		if filter.OrganizerID != nil && event.OrganizerID != *filter.OrganizerID {
			continue
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(event.Title), needle) &&
				!strings.Contains(strings.ToLower(event.Description), needle) {
				continue
			}
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *MemoryRepository) UpdateEvent(_ context.Context, event model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[event.ID]; !ok {
		return ErrEventNotFound
	}
	r.events[event.ID] = event
	return nil
}

func (r *MemoryRepository) DeleteEvent(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(r.events, id)
	for regID, reg := range r.registrations {
		if reg.EventID == id {
			delete(r.registrations, regID)
		}
	}
	return nil
}

func (r *MemoryRepository) CreateRegistration(_ context.Context, registration model.Registration) (model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[registration.EventID]
	if !ok {
		return model.Registration{}, ErrEventNotFound
	}

	taken := 0
	for _, reg := range r.registrations {
		if reg.EventID != registration.EventID {
			continue
		}
		if reg.UserID == registration.UserID {
			return model.Registration{}, ErrAlreadyRegistered
		}
		if reg.Status != model.StatusRejected {
			taken++
		}
	}
	if taken >= event.MaxCapacity {
		return model.Registration{}, ErrEventFull
	}

	r.registrations[registration.ID] = registration
	return registration, nil
}

func (r *MemoryRepository) GetRegistrationByID(_ context.Context, id uuid.UUID) (model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.registrations[id]
	if !ok {
		return model.Registration{}, ErrRegistrationNotFound
	}
	return reg, nil
}

func (r *MemoryRepository) ListRegistrations(_ context.Context, filter RegistrationFilter) ([]model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	registrations := []model.Registration{}
	for _, reg := range r.registrations {
		if filter.EventID != nil && reg.EventID != *filter.EventID {
			continue
		}
		if filter.UserID != nil && reg.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && reg.Status != *filter.Status {
			continue
		}
		registrations = append(registrations, reg)
	}
	return registrations, nil
}

func (r *MemoryRepository) UpdateRegistrationStatus(_ context.Context, id uuid.UUID, status model.RegistrationStatus) (model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.registrations[id]
	if !ok {
		return model.Registration{}, ErrRegistrationNotFound
	}
	reg.Status = status
	r.registrations[id] = reg
	return reg, nil
}

func (r *MemoryRepository) DeleteRegistration(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.registrations[id]; !ok {
		return ErrRegistrationNotFound
	}
	delete(r.registrations, id)
	return nil
}

func (r *MemoryRepository) ActiveRegistrationCount(_ context.Context, eventID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, reg := range r.registrations {
		if reg.EventID == eventID && reg.Status != model.StatusRejected {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) Stats(_ context.Context) (model.AdminStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats model.AdminStats
	stats.TotalUsers = len(r.users)
	for _, user := range r.users {
		switch user.Role {
		case model.RoleStudent:
			stats.Students++
		case model.RoleOrganizer:
			stats.Organizers++
			if user.Approved {
				stats.ApprovedOrganizers++
			} else {
				stats.PendingOrganizers++
			}
		case model.RoleAdmin:
			stats.Admins++
		}
	}
	stats.TotalEvents = len(r.events)
	stats.TotalRegistrations = len(r.registrations)
	for _, reg := range r.registrations {
		switch {
		case reg.Status.CountsAsApproved():
			stats.ApprovedRegistrations++
		case reg.Status == model.StatusPending:
			stats.PendingRegistrations++
		case reg.Status == model.StatusRejected:
			stats.RejectedRegistrations++
		}
	}
	return stats, nil
}

func (r *MemoryRepository) HealthCheck(context.Context) error {
	return nil
}
