// Command seed fills the database with a small demo data set: one admin,
// two organizers (one still pending approval), a handful of students and a
// few events with registrations in every status.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cems/internal/config"
	"cems/internal/database"
	"cems/internal/logger"
	"cems/internal/model"
	"cems/internal/repository"
)

func main() {
	cfg := config.Load()
	logger.New(cfg)

	db, err := database.New(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	repo := repository.NewPostgresRepository(db)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		os.Exit(1)
	}

	newUser := func(username, name string, role model.Role, approved bool, course string) model.User {
		return model.User{
			ID:           uuid.New(),
			Username:     username,
			Email:        username + "@college.example",
			PasswordHash: string(hash),
			Name:         name,
			Role:         role,
			Approved:     approved,
			Course:       course,
			CreatedAt:    time.Now().UTC(),
		}
	}

	admin := newUser("admin", "Site Admin", model.RoleAdmin, true, "")
	organizer := newUser("organizer", "Olivia Organizer", model.RoleOrganizer, true, "")
	pendingOrg := newUser("neworganizer", "Nate Newcomer", model.RoleOrganizer, false, "")

	students := []model.User{
		newUser("alice", "Alice Anders", model.RoleStudent, true, "Computer Science"),
		newUser("bob", "Bob Brown", model.RoleStudent, true, "Physics"),
		newUser("carol", "Carol Chen", model.RoleStudent, true, "Computer Science"),
		newUser("dave", "Dave Diaz", model.RoleStudent, true, "Mathematics"),
	}

	users := append([]model.User{admin, organizer, pendingOrg}, students...)
	for _, user := range users {
		if err := repo.CreateUser(ctx, user); err != nil {
			slog.Error("Failed to create user", "username", user.Username, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("Seeded users", "count", len(users))

	newEvent := func(title, category, course string, daysAhead, capacity int, featured bool) model.Event {
		return model.Event{
			ID:            uuid.New(),
			Title:         title,
			Description:   fmt.Sprintf("%s organised by %s.", title, organizer.Name),
			Date:          time.Now().UTC().AddDate(0, 0, daysAhead).Format("2006-01-02"),
			Time:          "17:30",
			Location:      "Main Campus",
			Category:      category,
			MaxCapacity:   capacity,
			Featured:      featured,
			Course:        course,
			OrganizerID:   organizer.ID,
			OrganizerName: organizer.Name,
			CreatedAt:     time.Now().UTC(),
		}
	}

	events := []model.Event{
		newEvent("Spring Hackathon", "Technology", "Computer Science", 14, 3, true),
		newEvent("Career Fair", "Career", "", 30, 100, false),
		newEvent("Physics Colloquium", "Academic", "Physics", 7, 40, false),
	}
	for _, event := range events {
		if err := repo.CreateEvent(ctx, event); err != nil {
			slog.Error("Failed to create event", "title", event.Title, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("Seeded events", "count", len(events))

	register := func(event model.Event, student model.User, status model.RegistrationStatus) {
		created, err := repo.CreateRegistration(ctx, model.Registration{
			ID:           uuid.New(),
			EventID:      event.ID,
			UserID:       student.ID,
			UserName:     student.Name,
			UserEmail:    student.Email,
			RegisteredAt: time.Now().UTC(),
			Status:       model.StatusPending,
		})
		if err != nil {
			slog.Error("Failed to create registration", "event", event.Title, "user", student.Username, "error", err)
			os.Exit(1)
		}
		if status != model.StatusPending {
			if _, err := repo.UpdateRegistrationStatus(ctx, created.ID, status); err != nil {
				slog.Error("Failed to set registration status", "error", err)
				os.Exit(1)
			}
		}
	}

	register(events[0], students[0], model.StatusApproved)
	register(events[0], students[1], model.StatusPending)
	register(events[0], students[2], model.StatusRejected)
	register(events[1], students[0], model.StatusApproved)
	register(events[1], students[3], model.StatusApproved)
	register(events[2], students[1], model.StatusPending)

	slog.Info("Seed data created", "login_password", "password123")
}
