package report_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"cems/internal/model"
	"cems/internal/report"
)

func testEvent(capacity int) model.Event {
	return model.Event{
		ID:          uuid.New(),
		Title:       "Tech Talk",
		MaxCapacity: capacity,
	}
}

func registration(eventID uuid.UUID, user model.User, status model.RegistrationStatus) model.Registration {
	return model.Registration{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		Status:    status,
	}
}

func student(course string) model.User {
	return model.User{
		ID:     uuid.New(),
		Name:   "Student",
		Role:   model.RoleStudent,
		Course: course,
	}
}

func TestForEventPartitionsByStatus(t *testing.T) {
	event := testEvent(10)
	users := []model.User{student("CS"), student("CS"), student("EE"), student("")}
	regs := []model.Registration{
		registration(event.ID, users[0], model.StatusApproved),
		registration(event.ID, users[1], model.StatusPending),
		registration(event.ID, users[2], model.StatusRejected),
		registration(event.ID, users[3], model.StatusApproved),
	}

	rep := report.ForEvent(event, regs, users)

	assert.Equal(t, 2, rep.ApprovedCount)
	assert.Equal(t, 1, rep.PendingCount)
	assert.Equal(t, 1, rep.RejectedCount)

	// Partition invariant: the buckets cover every registration exactly once.
	assert.Equal(t, rep.TotalCount, rep.ApprovedCount+rep.PendingCount+rep.RejectedCount)
	assert.Equal(t, len(regs), rep.TotalCount)
}

func TestForEventCapacityFill(t *testing.T) {
	event := testEvent(3)
	users := []model.User{student("CS")}
	regs := []model.Registration{
		registration(event.ID, users[0], model.StatusApproved),
	}

	rep := report.ForEvent(event, regs, users)

	// round(100 * 1/3) = 33
	assert.Equal(t, 33, rep.CapacityFillPercent)
	assert.Equal(t, 2, rep.RemainingCapacity)
}

func TestForEventGroupsApprovedByCourse(t *testing.T) {
	event := testEvent(10)
	cs1, cs2, ee := student("CS"), student("CS"), student("EE")
	noCourse := student("")
	users := []model.User{cs1, cs2, ee, noCourse}
	regs := []model.Registration{
		registration(event.ID, cs1, model.StatusApproved),
		registration(event.ID, cs2, model.StatusApproved),
		registration(event.ID, ee, model.StatusApproved),
		registration(event.ID, noCourse, model.StatusApproved),
	}

	rep := report.ForEvent(event, regs, users)

	assert.Len(t, rep.ByCourse["CS"], 2)
	assert.Len(t, rep.ByCourse["EE"], 1)
	assert.Len(t, rep.ByCourse[report.UnknownCourse], 1)
}

func TestForEventMissingUserRowBucketsUnknown(t *testing.T) {
	event := testEvent(5)
	ghost := student("CS")
	regs := []model.Registration{
		registration(event.ID, ghost, model.StatusApproved),
	}

	// The ghost's user row was deleted after registration.
	rep := report.ForEvent(event, regs, nil)

	assert.Len(t, rep.ByCourse[report.UnknownCourse], 1)
}

func TestForEventCountsConfirmedAsApproved(t *testing.T) {
	event := testEvent(5)
	user := student("CS")
	regs := []model.Registration{
		registration(event.ID, user, model.StatusConfirmed),
	}

	rep := report.ForEvent(event, regs, []model.User{user})

	assert.Equal(t, 1, rep.ApprovedCount)
	assert.Equal(t, rep.TotalCount, rep.ApprovedCount+rep.PendingCount+rep.RejectedCount)
}

func TestForEventIgnoresOtherEvents(t *testing.T) {
	event := testEvent(5)
	other := testEvent(5)
	user := student("CS")
	regs := []model.Registration{
		registration(event.ID, user, model.StatusApproved),
		registration(other.ID, user, model.StatusApproved),
	}

	rep := report.ForEvent(event, regs, []model.User{user})

	assert.Equal(t, 1, rep.TotalCount)
}

func TestRemainingCapacity(t *testing.T) {
	event := testEvent(2)
	a, b, c := student("CS"), student("CS"), student("CS")

	regs := []model.Registration{
		registration(event.ID, a, model.StatusApproved),
		registration(event.ID, b, model.StatusPending),
		registration(event.ID, c, model.StatusRejected),
	}

	// Pending holds the seat, rejected releases it.
	assert.Equal(t, 0, report.RemainingCapacity(event, regs))

	regs[1].Status = model.StatusRejected
	assert.Equal(t, 1, report.RemainingCapacity(event, regs))
}

func TestRemainingCapacityNeverNegative(t *testing.T) {
	event := testEvent(1)
	a, b := student("CS"), student("CS")
	regs := []model.Registration{
		registration(event.ID, a, model.StatusApproved),
		registration(event.ID, b, model.StatusApproved),
	}

	assert.Equal(t, 0, report.RemainingCapacity(event, regs))
}
