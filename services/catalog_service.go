package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/skillforest/lms-api/apperr"
	"github.com/skillforest/lms-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogService owns course content and ratings
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// NewLectureInput describes one lecture of a new course
type NewLectureInput struct {
	Title           string `json:"title" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gte=1"`
	ContentURL      string `json:"content_url"`
	IsPreview       bool   `json:"is_preview"`
}

// NewChapterInput describes one chapter of a new course
type NewChapterInput struct {
	Title    string            `json:"title" validate:"required"`
	Lectures []NewLectureInput `json:"lectures" validate:"dive"`
}

// NewCourseInput describes a course to create
type NewCourseInput struct {
	Title           string            `json:"title" validate:"required,min=3"`
	Description     string            `json:"description"`
	Price           float64           `json:"price" validate:"gte=0"`
	DiscountPercent float64           `json:"discount_percent" validate:"gte=0,lte=100"`
	ThumbnailURL    string            `json:"thumbnail_url"`
	Chapters        []NewChapterInput `json:"chapters" validate:"dive"`
}

// CreateCourse creates a course with its full chapter/lecture tree. Only
// educators may create courses; chapter and lecture ordering follows the
// input order.
func (s *CatalogService) CreateCourse(ctx context.Context, educatorID uint, in NewCourseInput) (*model.Course, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.InvalidInput("course title is required")
	}
	if in.Price < 0 {
		return nil, apperr.InvalidInput("price must not be negative")
	}
	if in.DiscountPercent < 0 || in.DiscountPercent > 100 {
		return nil, apperr.InvalidInput("discount must be between 0 and 100")
	}

	var educator model.User
	if err := s.db.WithContext(ctx).First(&educator, educatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("educator %d not found", educatorID)
		}
		return nil, err
	}
	if !educator.IsEducator() {
		return nil, apperr.Forbidden("only educators can publish courses")
	}

	course := model.Course{
		EducatorID:      educatorID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		ThumbnailURL:    in.ThumbnailURL,
		Price:           in.Price,
		DiscountPercent: in.DiscountPercent,
		IsPublished:     true,
	}
	for ci, ch := range in.Chapters {
		chapter := model.Chapter{Title: ch.Title, Position: ci + 1}
		for li, lec := range ch.Lectures {
			chapter.Lectures = append(chapter.Lectures, model.Lecture{
				Title:           lec.Title,
				DurationMinutes: lec.DurationMinutes,
				ContentURL:      lec.ContentURL,
				IsPreview:       lec.IsPreview,
				Position:        li + 1,
			})
		}
		course.Chapters = append(course.Chapters, chapter)
	}

	// Create cascades the associations inside one transaction
	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		return nil, err
	}

	return &course, nil
}

// ListCourses returns all published courses with their content and ratings
func (s *CatalogService) ListCourses(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := s.db.WithContext(ctx).
		Where("is_published = ?", true).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Chapters.Lectures", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Ratings").
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

// ListByEducator returns all courses owned by an educator
func (s *CatalogService) ListByEducator(ctx context.Context, educatorID uint) ([]model.Course, error) {
	var courses []model.Course
	err := s.db.WithContext(ctx).
		Where("educator_id = ?", educatorID).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Chapters.Lectures", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Ratings").
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

// GetCourse loads a single course with its content tree and ratings
func (s *CatalogService) GetCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Chapters.Lectures", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Ratings").
		Preload("Educator").
		First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("course %d not found", courseID)
		}
		return nil, err
	}
	return &course, nil
}

// UpsertRating records a user's 1-5 rating for a course, overwriting any
// earlier rating from the same user. Only enrolled users may rate.
func (s *CatalogService) UpsertRating(ctx context.Context, courseID, userID uint, rating int) error {
	if rating < 1 || rating > 5 {
		return apperr.InvalidInput("rating must be between 1 and 5")
	}

	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("course %d not found", courseID)
		}
		return err
	}

	var enrolled int64
	if err := s.db.WithContext(ctx).Model(&model.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&enrolled).Error; err != nil {
		return err
	}
	if enrolled == 0 {
		return apperr.Forbidden("user has not purchased this course")
	}

	// Atomic upsert by (course_id, user_id); concurrent submissions from
	// different users cannot drop each other's rows.
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(&model.CourseRating{
		CourseID: courseID,
		UserID:   userID,
		Rating:   rating,
	}).Error
}

// ChapterDurationMinutes sums the lecture durations of one chapter
func ChapterDurationMinutes(ch *model.Chapter) int {
	total := 0
	for _, lec := range ch.Lectures {
		total += lec.DurationMinutes
	}
	return total
}

// CourseDurationMinutes sums all lecture durations of a course
func CourseDurationMinutes(c *model.Course) int {
	total := 0
	for i := range c.Chapters {
		total += ChapterDurationMinutes(&c.Chapters[i])
	}
	return total
}

// CourseLectureCount counts lectures across all chapters
func CourseLectureCount(c *model.Course) int {
	count := 0
	for _, ch := range c.Chapters {
		count += len(ch.Lectures)
	}
	return count
}

// AverageRating returns the arithmetic mean of all ratings rounded to one
// decimal, or 0 when the course has no ratings.
func AverageRating(c *model.Course) float64 {
	if len(c.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range c.Ratings {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(c.Ratings))
	return math.Round(mean*10) / 10
}
