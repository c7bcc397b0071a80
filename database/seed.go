package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/skillforest/lms-api/model"
	"github.com/skillforest/lms-api/utils/auth"
	"gorm.io/gorm"
)

// RunSeeds populates a development database with a small, realistic catalog.
// Seeding is idempotent: an existing educator account short-circuits the run.
func RunSeeds(db *gorm.DB) error {
	var existing model.User
	if err := db.Where("email = ?", "maya@skillforest.dev").First(&existing).Error; err == nil {
		fmt.Println("Seed data already present, skipping")
		return nil
	}

	password, err := auth.HashPassword("changeme123")
	if err != nil {
		return err
	}

	educator := model.User{
		Name:         "Maya Fernandes",
		Email:        "maya@skillforest.dev",
		PasswordHash: password,
		Role:         model.RoleEducator,
	}
	if err := db.Create(&educator).Error; err != nil {
		return err
	}
	fmt.Println("Created educator:", educator.Email)

	students := []model.User{
		{Name: "Arjun Patel", Email: "arjun@skillforest.dev", PasswordHash: password},
		{Name: "Lena Okafor", Email: "lena@skillforest.dev", PasswordHash: password},
	}
	if err := db.Create(&students).Error; err != nil {
		return err
	}
	fmt.Printf("Created %d students\n", len(students))

	course := model.Course{
		EducatorID:      educator.ID,
		Title:           "Practical PostgreSQL for Backend Developers",
		Description:     "Schema design, indexing and query tuning with real workloads.",
		Price:           1000,
		DiscountPercent: 20,
		IsPublished:     true,
		Chapters: []model.Chapter{
			{
				Title:    "Getting Started",
				Position: 1,
				Lectures: []model.Lecture{
					{Title: "Why Postgres", DurationMinutes: 10, IsPreview: true, Position: 1},
					{Title: "Installing and Connecting", DurationMinutes: 20, Position: 2},
				},
			},
			{
				Title:    "Indexing",
				Position: 2,
				Lectures: []model.Lecture{
					{Title: "B-Tree Internals", DurationMinutes: 15, Position: 1},
				},
			},
		},
	}
	if err := db.Create(&course).Error; err != nil {
		return err
	}
	fmt.Println("Created course:", course.Title)

	// One settled purchase so enrollment and progress flows have data
	purchase := model.Purchase{
		Reference: uuid.NewString(),
		UserID:    students[0].ID,
		CourseID:  course.ID,
		Amount:    800, // 1000 at 20% off
		Currency:  "USD",
		Status:    model.PurchaseStatusCompleted,
	}
	if err := db.Create(&purchase).Error; err != nil {
		return err
	}

	enrollment := model.UserCourse{
		UserID:     students[0].ID,
		CourseID:   course.ID,
		PurchaseID: purchase.ID,
	}
	if err := db.Create(&enrollment).Error; err != nil {
		return err
	}
	fmt.Println("Enrolled", students[0].Email, "in", course.Title)

	rating := model.CourseRating{
		CourseID: course.ID,
		UserID:   students[0].ID,
		Rating:   5,
	}
	if err := db.Create(&rating).Error; err != nil {
		return err
	}

	return nil
}
