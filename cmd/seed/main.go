package main

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const (
	demoEmail    = "demo@taskboard.local"
	demoPassword = "demo-password"
	demoName     = "Demo User"
)

type seedTask struct {
	title       string
	description string
	status      model.TaskStatus
	priority    model.TaskPriority
	dueInDays   int // 0 means no due date
}

var seedTasks = []seedTask{
	{title: "Set up local environment", description: "MySQL, Redis, env vars", status: model.TaskStatusCompleted, priority: model.TaskPriorityHigh},
	{title: "Review sprint backlog", status: model.TaskStatusInProgress, priority: model.TaskPriorityMedium, dueInDays: 2},
	{title: "Write release notes", status: model.TaskStatusTodo, priority: model.TaskPriorityLow, dueInDays: 7},
	{title: "Plan next quarter", description: "Rough roadmap draft", status: model.TaskStatusTodo, priority: model.TaskPriorityMedium, dueInDays: 14},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	user, err := userRepo.FindByEmail(ctx, demoEmail)
	switch {
	case err == nil:
		log.Printf("Demo user %s already exists, skipping user creation", demoEmail)
	case errors.Is(err, gorm.ErrRecordNotFound):
		passwordHash, err := auth.NewHasher().Hash(demoPassword)
		if err != nil {
			log.Fatalf("Failed to hash demo password: %v", err)
		}
		name := demoName
		user = &model.User{
			Email:        demoEmail,
			PasswordHash: passwordHash,
			Name:         &name,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create demo user: %v", err)
		}
		log.Printf("Created demo user %s (password: %s)", demoEmail, demoPassword)
	default:
		log.Fatalf("Failed to look up demo user: %v", err)
	}

	_, total, err := taskRepo.List(ctx, repository.TaskQuery{
		UserID:  user.ID,
		OrderBy: "created_at desc",
		Limit:   1,
	})
	if err != nil {
		log.Fatalf("Failed to check existing tasks: %v", err)
	}
	if total > 0 {
		log.Printf("Demo user already has %d tasks, nothing to do", total)
		return
	}

	for _, st := range seedTasks {
		task := &model.Task{
			UserID:   user.ID,
			Title:    st.title,
			Status:   st.status,
			Priority: st.priority,
		}
		if st.description != "" {
			desc := st.description
			task.Description = &desc
		}
		if st.dueInDays > 0 {
			due := time.Now().AddDate(0, 0, st.dueInDays)
			task.DueDate = &due
		}
		if err := taskRepo.Create(ctx, task); err != nil {
			log.Fatalf("Failed to create task %q: %v", st.title, err)
		}
	}
	log.Printf("Seeded %d tasks for %s", len(seedTasks), demoEmail)
}
