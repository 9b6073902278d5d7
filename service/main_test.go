package service

import (
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"questboard/repository"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/ory/dockertest/v3"
)

var db *gorm.DB

var enumQueries = []string{
	`CREATE TYPE questboard.approval_status AS ENUM ('PENDING', 'APPROVED', 'REJECTED')`,
	`CREATE TYPE questboard.task_status AS ENUM ('DRAFT', 'PUBLISHED')`,
	`CREATE TYPE questboard.discount_type AS ENUM ('PERCENTAGE', 'FIXED')`,
}

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	// uses pool to try to connect to Docker
	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.Run("postgres", "17.2-alpine", []string{"POSTGRES_USER=postgres", "POSTGRES_PASSWORD=postgres", "DATABASE_NAME=postgres"})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}
	resource.Expire(600) // Tell docker to hard kill the container in 10 minutes
	sqlInfo := fmt.Sprintf(
		"host=localhost port=%s user=postgres password=postgres dbname=postgres sslmode=disable search_path=questboard",
		resource.GetPort("5432/tcp"))

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	if err := pool.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(sqlInfo), &gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				TablePrefix:   "questboard.",
				SingularTable: false,
			},
			Logger: logger.Default.LogMode(logger.Silent),
		})

		if err != nil {
			return err
		}
		db.Exec(`CREATE SCHEMA IF NOT EXISTS questboard`)
		for _, query := range enumQueries {
			x := db.Exec(query)
			if x.Error != nil {
				if strings.Contains(x.Error.Error(), "already exists") {
					continue
				}
			}
		}
		return db.AutoMigrate(
			&repository.User{},
			&repository.Task{},
			&repository.Submission{},
			&repository.PromoCode{},
			&repository.Category{},
			&repository.CategoryAccess{},
		)

	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	defer func() {
		if err := pool.Purge(resource); err != nil {
			log.Fatalf("Could not purge resource: %s", err)
		}
	}()
	m.Run()
}

func TearDown() {
	db.Exec("DELETE FROM questboard.category_accesses")
	db.Exec("DELETE FROM questboard.categories")
	db.Exec("DELETE FROM questboard.promo_codes")
	db.Exec("DELETE FROM questboard.submissions")
	db.Exec("DELETE FROM questboard.tasks")
	db.Exec("DELETE FROM questboard.users")
}

func createTestUser(t *testing.T, displayName string, permissions ...repository.Permission) *repository.User {
	t.Helper()
	user := &repository.User{
		Email:       displayName + "@example.com",
		DisplayName: displayName,
		Permissions: pq.StringArray(permissions),
		CreatedAt:   time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("could not create user: %s", err)
	}
	return user
}

func createTestTask(t *testing.T, title string, pointValue int, status repository.TaskStatus) *repository.Task {
	t.Helper()
	task := &repository.Task{
		Title:       title,
		Description: "test task",
		PointValue:  pointValue,
		Status:      status,
		CreatedAt:   time.Now(),
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("could not create task: %s", err)
	}
	return task
}
