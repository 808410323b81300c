package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"cems/internal/database"
	"cems/internal/model"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db database.Database
}

func NewPostgresRepository(db database.Database) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

const userColumns = "id, username, email, password_hash, name, role, approved, course, created_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var user model.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Name, &user.Role, &user.Approved, &user.Course, &user.CreatedAt)
	return user, err
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user model.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		user.ID, user.Username, user.Email, user.PasswordHash, user.Name,
		user.Role, user.Approved, user.Course, user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateIdentity
	}
	return err
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

// GetUserByIdentifier matches the username exactly or the email
// case-insensitively; emails are stored lowercased.
func (r *PostgresRepository) GetUserByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1 OR email = lower($1)", identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	var conditions []string
	var args []any

	if filter.Role != nil {
		args = append(args, *filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Approved != nil {
		args = append(args, *filter.Approved)
		conditions = append(conditions, fmt.Sprintf("approved = $%d", len(args)))
	}
	if filter.Course != nil {
		args = append(args, *filter.Course)
		conditions = append(conditions, fmt.Sprintf("course = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, user model.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = $1, email = $2, password_hash = $3, name = $4,
			role = $5, approved = $6, course = $7 WHERE id = $8`,
		user.Username, user.Email, user.PasswordHash, user.Name,
		user.Role, user.Approved, user.Course, user.ID)
	if isUniqueViolation(err) {
		return ErrDuplicateIdentity
	}
	if err != nil {
		return err
	}
	return checkAffected(res, ErrUserNotFound)
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	return checkAffected(res, ErrUserNotFound)
}

const eventColumns = "id, title, description, date, time, location, category, max_capacity, featured, image, course, organizer_id, organizer_name, created_at"

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var event model.Event
	err := row.Scan(&event.ID, &event.Title, &event.Description, &event.Date,
		&event.Time, &event.Location, &event.Category, &event.MaxCapacity,
		&event.Featured, &event.Image, &event.Course, &event.OrganizerID,
		&event.OrganizerName, &event.CreatedAt)
	return event, err
}

func (r *PostgresRepository) CreateEvent(ctx context.Context, event model.Event) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)",
		event.ID, event.Title, event.Description, event.Date, event.Time,
		event.Location, event.Category, event.MaxCapacity, event.Featured,
		event.Image, event.Course, event.OrganizerID, event.OrganizerName, event.CreatedAt)
	return err
}

func (r *PostgresRepository) GetEventByID(ctx context.Context, id uuid.UUID) (model.Event, error) {
	event, err := scanEvent(r.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, err
	}
	return event, nil
}

func (r *PostgresRepository) ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := "SELECT " + eventColumns + " FROM events"
	var conditions []string
	var args []any

	if filter.Category != nil {
		args = append(args, *filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Course != nil {
		args = append(args, *filter.Course)
		conditions = append(conditions, fmt.Sprintf("course = $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		conditions = append(conditions, fmt.Sprintf("featured = $%d", len(args)))
	}
	if filter.OrganizerID != nil {
		args = append(args, *filter.OrganizerID)
		conditions = append(conditions, fmt.Sprintf("organizer_id = $%d", len(args)))
	}
	if filter.Search != nil {
		args = append(args, "%"+*filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date, time"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *PostgresRepository) UpdateEvent(ctx context.Context, event model.Event) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET title = $1, description = $2, date = $3, time = $4,
			location = $5, category = $6, max_capacity = $7, featured = $8,
			image = $9, course = $10 WHERE id = $11`,
		event.Title, event.Description, event.Date, event.Time, event.Location,
		event.Category, event.MaxCapacity, event.Featured, event.Image,
		event.Course, event.ID)
	if err != nil {
		return err
	}
	return checkAffected(res, ErrEventNotFound)
}

func (r *PostgresRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return err
	}
	return checkAffected(res, ErrEventNotFound)
}

const registrationColumns = "id, event_id, user_id, user_name, user_email, registered_at, status"

func scanRegistration(row interface{ Scan(...any) error }) (model.Registration, error) {
	var reg model.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.UserName,
		&reg.UserEmail, &reg.RegisteredAt, &reg.Status)
	return reg, err
}

// CreateRegistration inserts a registration while holding a row lock on the
// event, so the capacity check and the insert cannot be interleaved with a
// concurrent registrant. The UNIQUE (event_id, user_id) constraint backs the
// one-registration-per-student rule.
func (r *PostgresRepository) CreateRegistration(ctx context.Context, registration model.Registration) (model.Registration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Registration{}, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var maxCapacity int
	err = tx.QueryRowContext(ctx,
		"SELECT max_capacity FROM events WHERE id = $1 FOR UPDATE",
		registration.EventID).Scan(&maxCapacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Registration{}, ErrEventNotFound
		}
		return model.Registration{}, err
	}

	var taken int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status <> $2",
		registration.EventID, model.StatusRejected).Scan(&taken)
	if err != nil {
		return model.Registration{}, err
	}
	if taken >= maxCapacity {
		return model.Registration{}, ErrEventFull
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO registrations ("+registrationColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		registration.ID, registration.EventID, registration.UserID,
		registration.UserName, registration.UserEmail,
		registration.RegisteredAt, registration.Status)
	if isUniqueViolation(err) {
		return model.Registration{}, ErrAlreadyRegistered
	}
	if err != nil {
		return model.Registration{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Registration{}, fmt.Errorf("failed to commit tx: %w", err)
	}
	return registration, nil
}

func (r *PostgresRepository) GetRegistrationByID(ctx context.Context, id uuid.UUID) (model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM registrations WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Registration{}, ErrRegistrationNotFound
		}
		return model.Registration{}, err
	}
	return reg, nil
}

func (r *PostgresRepository) ListRegistrations(ctx context.Context, filter RegistrationFilter) ([]model.Registration, error) {
	query := "SELECT " + registrationColumns + " FROM registrations"
	var conditions []string
	var args []any

	if filter.EventID != nil {
		args = append(args, *filter.EventID)
		conditions = append(conditions, fmt.Sprintf("event_id = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY registered_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registrations := []model.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		registrations = append(registrations, reg)
	}
	return registrations, rows.Err()
}

func (r *PostgresRepository) UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status model.RegistrationStatus) (model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx,
		"UPDATE registrations SET status = $1 WHERE id = $2 RETURNING "+registrationColumns,
		status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Registration{}, ErrRegistrationNotFound
		}
		return model.Registration{}, err
	}
	return reg, nil
}

func (r *PostgresRepository) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM registrations WHERE id = $1", id)
	if err != nil {
		return err
	}
	return checkAffected(res, ErrRegistrationNotFound)
}

func (r *PostgresRepository) ActiveRegistrationCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status <> $2",
		eventID, model.StatusRejected).Scan(&count)
	return count, err
}

func (r *PostgresRepository) Stats(ctx context.Context) (model.AdminStats, error) {
	var stats model.AdminStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE role = 'student'),
			(SELECT COUNT(*) FROM users WHERE role = 'organizer'),
			(SELECT COUNT(*) FROM users WHERE role = 'organizer' AND approved),
			(SELECT COUNT(*) FROM users WHERE role = 'organizer' AND NOT approved),
			(SELECT COUNT(*) FROM users WHERE role = 'admin'),
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM registrations),
			(SELECT COUNT(*) FROM registrations WHERE status IN ('approved', 'confirmed')),
			(SELECT COUNT(*) FROM registrations WHERE status = 'pending'),
			(SELECT COUNT(*) FROM registrations WHERE status = 'rejected')`).Scan(
		&stats.TotalUsers, &stats.Students, &stats.Organizers,
		&stats.ApprovedOrganizers, &stats.PendingOrganizers, &stats.Admins,
		&stats.TotalEvents, &stats.TotalRegistrations,
		&stats.ApprovedRegistrations, &stats.PendingRegistrations,
		&stats.RejectedRegistrations)
	return stats, err
}

func (r *PostgresRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func checkAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
