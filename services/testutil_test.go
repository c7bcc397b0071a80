package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/skillforest/lms-api/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Each sqlite :memory: connection is its own database; keep the pool at
	// one connection so every query sees the migrated schema
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Chapter{},
		&model.Lecture{},
		&model.CourseRating{},
		&model.Purchase{},
		&model.UserCourse{},
		&model.CourseProgress{},
		&model.LectureCompletion{},
		&model.JWTTokenBlacklist{},
		&model.PasswordResetToken{},
		&model.CronJobLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createStudent(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := model.User{Name: "Test Student", Email: email, Role: model.RoleStudent}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create student: %v", err)
	}
	return &user
}

func createEducator(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := model.User{Name: "Test Educator", Email: email, Role: model.RoleEducator}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create educator: %v", err)
	}
	return &user
}

// createCourse builds a course with two chapters: [10m, 20m] and [15m]
func createCourse(t *testing.T, db *gorm.DB, educatorID uint, price, discount float64) *model.Course {
	t.Helper()

	course := model.Course{
		EducatorID:      educatorID,
		Title:           "Test Course",
		Price:           price,
		DiscountPercent: discount,
		IsPublished:     true,
		Chapters: []model.Chapter{
			{
				Title:    "Chapter One",
				Position: 1,
				Lectures: []model.Lecture{
					{Title: "Lecture 1", DurationMinutes: 10, Position: 1, IsPreview: true},
					{Title: "Lecture 2", DurationMinutes: 20, Position: 2},
				},
			},
			{
				Title:    "Chapter Two",
				Position: 2,
				Lectures: []model.Lecture{
					{Title: "Lecture 3", DurationMinutes: 15, Position: 1},
				},
			},
		},
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("failed to create course: %v", err)
	}
	return &course
}

func enroll(t *testing.T, db *gorm.DB, userID, courseID uint) {
	t.Helper()

	if err := db.Create(&model.UserCourse{UserID: userID, CourseID: courseID}).Error; err != nil {
		t.Fatalf("failed to enroll user: %v", err)
	}
}

func createPendingPurchase(t *testing.T, db *gorm.DB, userID, courseID uint, amount float64) *model.Purchase {
	t.Helper()

	purchase := model.Purchase{
		Reference: uuid.NewString(),
		UserID:    userID,
		CourseID:  courseID,
		Amount:    amount,
		Currency:  "USD",
		Status:    model.PurchaseStatusPending,
	}
	if err := db.Create(&purchase).Error; err != nil {
		t.Fatalf("failed to create purchase: %v", err)
	}
	return &purchase
}
