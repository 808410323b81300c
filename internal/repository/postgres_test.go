package repository_test

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cems/internal/database"
	"cems/internal/model"
	"cems/internal/repository"
)

// setupPostgres connects to the database named by CEMS_TEST_DATABASE_URL,
// runs the migrations and wipes all rows. Tests are skipped when the
// variable is unset so the suite stays runnable without a database.
func setupPostgres(t *testing.T) *repository.PostgresRepository {
	t.Helper()

	dsn := os.Getenv("CEMS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CEMS_TEST_DATABASE_URL not set")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := database.Database{DB: sqlDB}
	require.NoError(t, db.Migrate())

	_, err = sqlDB.Exec("TRUNCATE registrations, events, users CASCADE")
	require.NoError(t, err)

	return repository.NewPostgresRepository(db)
}

func insertUser(t *testing.T, repo repository.Repository, username string, role model.Role) model.User {
	t.Helper()

	user := model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@campus.test",
		PasswordHash: "x",
		Name:         "Test " + username,
		Role:         role,
		Approved:     true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.CreateUser(t.Context(), user))
	return user
}

func insertEvent(t *testing.T, repo repository.Repository, organizer model.User, capacity int) model.Event {
	t.Helper()

	event := model.Event{
		ID:            uuid.New(),
		Title:         "Career Fair",
		Description:   "Meet recruiters",
		Date:          time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02"),
		Time:          "10:00",
		Location:      "Sports Hall",
		Category:      "Career",
		MaxCapacity:   capacity,
		OrganizerID:   organizer.ID,
		OrganizerName: organizer.Name,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, repo.CreateEvent(t.Context(), event))
	return event
}

func TestPostgresDuplicateIdentity(t *testing.T) {
	repo := setupPostgres(t)
	insertUser(t, repo, "grace", model.RoleStudent)

	dup := model.User{
		ID:           uuid.New(),
		Username:     "grace",
		Email:        "different@campus.test",
		PasswordHash: "x",
		Name:         "Grace Clone",
		Role:         model.RoleStudent,
		Approved:     true,
		CreatedAt:    time.Now().UTC(),
	}
	err := repo.CreateUser(t.Context(), dup)
	assert.ErrorIs(t, err, repository.ErrDuplicateIdentity)
}

func TestPostgresUserLookupByIdentifier(t *testing.T) {
	repo := setupPostgres(t)
	user := insertUser(t, repo, "henry", model.RoleStudent)

	found, err := repo.GetUserByIdentifier(t.Context(), "henry")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	// Stored emails are lowercase; lookup tolerates any casing.
	found, err = repo.GetUserByIdentifier(t.Context(), "Henry@Campus.Test")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.GetUserByIdentifier(t.Context(), "nobody")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestPostgresRegistrationLifecycle(t *testing.T) {
	repo := setupPostgres(t)
	organizer := insertUser(t, repo, "org", model.RoleOrganizer)
	student := insertUser(t, repo, "stu", model.RoleStudent)
	event := insertEvent(t, repo, organizer, 10)

	created, err := repo.CreateRegistration(t.Context(), model.Registration{
		ID:           uuid.New(),
		EventID:      event.ID,
		UserID:       student.ID,
		UserName:     student.Name,
		UserEmail:    student.Email,
		RegisteredAt: time.Now().UTC(),
		Status:       model.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, created.Status)

	_, err = repo.CreateRegistration(t.Context(), model.Registration{
		ID:           uuid.New(),
		EventID:      event.ID,
		UserID:       student.ID,
		RegisteredAt: time.Now().UTC(),
		Status:       model.StatusPending,
	})
	assert.ErrorIs(t, err, repository.ErrAlreadyRegistered)

	updated, err := repo.UpdateRegistrationStatus(t.Context(), created.ID, model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)

	count, err := repo.ActiveRegistrationCount(t.Context(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rejected, err := repo.UpdateRegistrationStatus(t.Context(), created.ID, model.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)

	count, err = repo.ActiveRegistrationCount(t.Context(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "rejected rows release their seat")

	require.NoError(t, repo.DeleteRegistration(t.Context(), created.ID))
	err = repo.DeleteRegistration(t.Context(), created.ID)
	assert.ErrorIs(t, err, repository.ErrRegistrationNotFound)
}

// TestPostgresConcurrentRegistration races many students for a few seats and
// checks that exactly capacity-many registrations are created.
func TestPostgresConcurrentRegistration(t *testing.T) {
	repo := setupPostgres(t)
	organizer := insertUser(t, repo, "org", model.RoleOrganizer)

	const capacity = 5
	const contenders = 20
	event := insertEvent(t, repo, organizer, capacity)

	students := make([]model.User, contenders)
	for i := range students {
		students[i] = insertUser(t, repo, fmt.Sprintf("racer%02d", i), model.RoleStudent)
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i, student := range students {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = repo.CreateRegistration(t.Context(), model.Registration{
				ID:           uuid.New(),
				EventID:      event.ID,
				UserID:       student.ID,
				UserName:     student.Name,
				UserEmail:    student.Email,
				RegisteredAt: time.Now().UTC(),
				Status:       model.StatusPending,
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrEventFull)
	}
	assert.Equal(t, capacity, succeeded)

	count, err := repo.ActiveRegistrationCount(t.Context(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, capacity, count)
}

func TestPostgresEventFilters(t *testing.T) {
	repo := setupPostgres(t)
	organizer := insertUser(t, repo, "org", model.RoleOrganizer)

	first := insertEvent(t, repo, organizer, 10)
	first.Featured = true
	first.Title = "Spring Hackathon"
	require.NoError(t, repo.UpdateEvent(t.Context(), first))
	insertEvent(t, repo, organizer, 10)

	featured := true
	events, err := repo.ListEvents(t.Context(), repository.EventFilter{Featured: &featured})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, first.ID, events[0].ID)

	search := "hackathon"
	events, err = repo.ListEvents(t.Context(), repository.EventFilter{Search: &search})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, first.ID, events[0].ID)
}

func TestPostgresStats(t *testing.T) {
	repo := setupPostgres(t)
	organizer := insertUser(t, repo, "org", model.RoleOrganizer)
	student := insertUser(t, repo, "stu", model.RoleStudent)
	event := insertEvent(t, repo, organizer, 10)

	_, err := repo.CreateRegistration(t.Context(), model.Registration{
		ID:           uuid.New(),
		EventID:      event.ID,
		UserID:       student.ID,
		RegisteredAt: time.Now().UTC(),
		Status:       model.StatusPending,
	})
	require.NoError(t, err)

	stats, err := repo.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 1, stats.Organizers)
	assert.Equal(t, 1, stats.Students)
	assert.Equal(t, 1, stats.TotalEvents)
	assert.Equal(t, 1, stats.TotalRegistrations)
	assert.Equal(t, 1, stats.PendingRegistrations)
}
