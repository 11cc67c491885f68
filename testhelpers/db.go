package testhelpers

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
)

// SetupTestDB creates an isolated in-memory SQLite database with the full
// schema migrated. Each test name gets its own shared-cache database so
// parallel tests never see each other's rows.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(fmt.Sprintf("failed to open test database: %v", err))
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Topic{},
		&models.Subtopic{},
		&models.Test{},
		&models.Question{},
		&models.Duel{},
		&models.DuelResult{},
		&models.StudySession{},
		&models.SubtopicProgress{},
		&models.QuestionAnswer{},
	); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}
	return db
}

// SeedUser inserts a user with sane defaults and returns it.
func SeedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "hash",
		Role:         models.RoleStudent,
	}
	if err := db.Create(user).Error; err != nil {
		panic(fmt.Sprintf("failed to seed user %s: %v", username, err))
	}
	return user
}
