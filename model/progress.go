package model

import (
	"time"

	"gorm.io/gorm"
)

// CourseProgress tracks which lectures a user has completed in a course.
// Created lazily on the first completed lecture for the (user, course) pair.
type CourseProgress struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_user_course_progress" json:"user_id"`
	CourseID  uint           `gorm:"not null;uniqueIndex:idx_user_course_progress" json:"course_id"`

	// Relationships
	Completions []LectureCompletion `gorm:"foreignKey:ProgressID;constraint:OnDelete:CASCADE" json:"completions,omitempty"`
}

// TableName specifies the table name for CourseProgress
func (CourseProgress) TableName() string {
	return "course_progresses"
}

// LectureCompletion is one completed lecture inside a CourseProgress. The
// (progress, lecture) unique index gives set semantics: re-completing a
// lecture is a no-op, not an error.
type LectureCompletion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProgressID  uint      `gorm:"not null;uniqueIndex:idx_progress_lecture" json:"progress_id"`
	LectureID   uint      `gorm:"not null;uniqueIndex:idx_progress_lecture" json:"lecture_id"`
	CompletedAt time.Time `gorm:"autoCreateTime" json:"completed_at"`
}

// TableName specifies the table name for LectureCompletion
func (LectureCompletion) TableName() string {
	return "lecture_completions"
}
