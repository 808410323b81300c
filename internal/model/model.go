package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent   Role = "student"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

type RegistrationStatus string

const (
	StatusPending  RegistrationStatus = "pending"
	StatusApproved RegistrationStatus = "approved"
	StatusRejected RegistrationStatus = "rejected"
	// StatusConfirmed is accepted on rows imported from older data sets and
	// counts as approved wherever registrations are tallied. New
	// registrations always start as pending.
	StatusConfirmed RegistrationStatus = "confirmed"
)

func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusConfirmed:
		return true
	}
	return false
}

// CountsAsApproved reports whether a registration in this status occupies an
// approved seat.
func (s RegistrationStatus) CountsAsApproved() bool {
	return s == StatusApproved || s == StatusConfirmed
}

// User is a row in the users collection. Approved is meaningful only for
// organizers; students and admins are approved on creation.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Approved     bool      `json:"approved"`
	Course       string    `json:"course,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Event struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Time          string    `json:"time"` // HH:MM
	Location      string    `json:"location"`
	Category      string    `json:"category"`
	MaxCapacity   int       `json:"maxCapacity"`
	Featured      bool      `json:"featured"`
	Image         string    `json:"image,omitempty"`
	Course        string    `json:"course,omitempty"` // target audience, empty means all courses
	// OrganizerID is the owning user: usually an organizer, but an admin who
	// creates an event without assigning one owns it directly.
	OrganizerID   uuid.UUID `json:"organizerId"`
	OrganizerName string    `json:"organizerName"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Registration links a student to an event. UserName and UserEmail are
// snapshots taken at registration time and do not follow later profile edits.
type Registration struct {
	ID           uuid.UUID          `json:"id"`
	EventID      uuid.UUID          `json:"eventId"`
	UserID       uuid.UUID          `json:"userId"`
	UserName     string             `json:"userName"`
	UserEmail    string             `json:"userEmail"`
	RegisteredAt time.Time          `json:"registeredAt"`
	Status       RegistrationStatus `json:"status"`
}

// AdminStats is the system-wide summary shown on the admin dashboard.
type AdminStats struct {
	TotalUsers            int `json:"totalUsers"`
	Students              int `json:"students"`
	Organizers            int `json:"organizers"`
	ApprovedOrganizers    int `json:"approvedOrganizers"`
	PendingOrganizers     int `json:"pendingOrganizers"`
	Admins                int `json:"admins"`
	TotalEvents           int `json:"totalEvents"`
	TotalRegistrations    int `json:"totalRegistrations"`
	ApprovedRegistrations int `json:"approvedRegistrations"`
	PendingRegistrations  int `json:"pendingRegistrations"`
	RejectedRegistrations int `json:"rejectedRegistrations"`
}
