// Package report derives event summaries from registration and user
// collections in memory. It performs no I/O so callers decide how fresh the
// input slices are.
package report

import (
	"math"

	"github.com/google/uuid"

	"cems/internal/model"
)

// UnknownCourse is the bucket for registrants whose user row is missing or
// carries no course.
const UnknownCourse = "Unknown"

// Registrant pairs a registration with the course of the registered user,
// joined by user id.
type Registrant struct {
	Registration model.Registration `json:"registration"`
	Course       string             `json:"course"`
}

// EventReport summarises one event's registrations.
type EventReport struct {
	Event               model.Event             `json:"event"`
	ApprovedCount       int                     `json:"approvedCount"`
	PendingCount        int                     `json:"pendingCount"`
	RejectedCount       int                     `json:"rejectedCount"`
	TotalCount          int                     `json:"totalCount"`
	RemainingCapacity   int                     `json:"remainingCapacity"`
	CapacityFillPercent int                     `json:"capacityFillPercent"`
	Approved            []Registrant            `json:"approved"`
	ByCourse            map[string][]Registrant `json:"registrationsByCourse"`
}

// RemainingCapacity is maxCapacity minus the non-rejected registrations for
// the event. Rejected rows release their seat; pending ones hold it.
func RemainingCapacity(event model.Event, registrations []model.Registration) int {
	taken := 0
	for _, reg := range registrations {
		if reg.EventID == event.ID && reg.Status != model.StatusRejected {
			taken++
		}
	}
	remaining := event.MaxCapacity - taken
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ForEvent partitions the event's registrations by status, computes the
// capacity fill percentage over approved seats, and groups approved
// registrants by course.
func ForEvent(event model.Event, registrations []model.Registration, users []model.User) EventReport {
	courseByUser := make(map[uuid.UUID]string, len(users))
	for _, user := range users {
		courseByUser[user.ID] = user.Course
	}

	rep := EventReport{
		Event:    event,
		Approved: []Registrant{},
		ByCourse: map[string][]Registrant{},
	}

	for _, reg := range registrations {
		if reg.EventID != event.ID {
			continue
		}
		rep.TotalCount++

		switch {
		case reg.Status.CountsAsApproved():
			rep.ApprovedCount++
			course := courseByUser[reg.UserID]
			if course == "" {
				course = UnknownCourse
			}
			registrant := Registrant{Registration: reg, Course: course}
			rep.Approved = append(rep.Approved, registrant)
			rep.ByCourse[course] = append(rep.ByCourse[course], registrant)
		case reg.Status == model.StatusRejected:
			rep.RejectedCount++
		default:
			rep.PendingCount++
		}
	}

	rep.RemainingCapacity = RemainingCapacity(event, registrations)
	if event.MaxCapacity > 0 {
		rep.CapacityFillPercent = int(math.Round(100 * float64(rep.ApprovedCount) / float64(event.MaxCapacity)))
	}
	return rep
}
