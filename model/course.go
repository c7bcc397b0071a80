package model

import (
	"time"

	"gorm.io/gorm"
)

// Course is a purchasable piece of content owned by an educator. Content is an
// ordered tree: course -> chapters -> lectures.
type Course struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	EducatorID      uint           `gorm:"not null;index" json:"educator_id"`
	Title           string         `gorm:"not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	ThumbnailURL    string         `gorm:"type:varchar(512)" json:"thumbnail_url"`
	Price           float64        `gorm:"not null" json:"price"`
	DiscountPercent float64        `gorm:"default:0" json:"discount_percent"` // 0-100
	IsPublished     bool           `gorm:"default:true" json:"is_published"`

	// Relationships
	Educator    User           `gorm:"foreignKey:EducatorID" json:"educator,omitempty"`
	Chapters    []Chapter      `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"chapters,omitempty"`
	Ratings     []CourseRating `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"ratings,omitempty"`
	Enrollments []UserCourse   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// Chapter is an ordered group of lectures within a course
type Chapter struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	Title     string         `gorm:"not null" json:"title"`
	Position  int            `gorm:"not null" json:"position"`

	// Relationships
	Lectures []Lecture `gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE" json:"lectures,omitempty"`
}

// Lecture is a single unit of content with a duration in minutes.
// Non-preview content URLs are hidden from users who are not enrolled.
type Lecture struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	ChapterID       uint           `gorm:"not null;index" json:"chapter_id"`
	Title           string         `gorm:"not null" json:"title"`
	DurationMinutes int            `gorm:"not null" json:"duration_minutes"`
	ContentURL      string         `gorm:"type:varchar(512)" json:"content_url,omitempty"`
	IsPreview       bool           `gorm:"default:false" json:"is_preview"`
	Position        int            `gorm:"not null" json:"position"`
}

// CourseRating holds one user's 1-5 score for a course. The (course, user)
// unique index gives upsert-by-key semantics: resubmission overwrites.
type CourseRating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_course_user_rating" json:"course_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_course_user_rating" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"` // 1-5
}

// TableName specifies the table name for CourseRating
func (CourseRating) TableName() string {
	return "course_ratings"
}
