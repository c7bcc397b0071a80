package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Students are promoted to educators explicitly and never demoted.
const (
	RoleStudent  = "student"
	RoleEducator = "educator"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"` // stored lowercased
	PasswordHash string         `gorm:"type:text" json:"-"`                // empty for provider-synced accounts
	Name         string         `gorm:"not null" json:"name"`
	ImageURL     string         `gorm:"type:varchar(512)" json:"image_url"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Enrollments     []UserCourse        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
	AuthoredCourses []Course            `gorm:"foreignKey:EducatorID" json:"-"`
	Purchases       []Purchase          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Ratings         []CourseRating      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist  []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsEducator reports whether the user may author courses.
func (u *User) IsEducator() bool {
	return u.Role == RoleEducator
}

// UserCourse records an enrollment. It is the single source of truth for the
// user<->course relationship; both "my enrolled courses" and "students of this
// course" are read from these rows, so neither side can be observed half-updated.
type UserCourse struct {
	UserID     uint  `gorm:"primaryKey" json:"user_id"`
	CourseID   uint  `gorm:"primaryKey" json:"course_id"`
	PurchaseID uint  `gorm:"index" json:"purchase_id"`
	EnrolledAt int64 `gorm:"autoCreateTime" json:"enrolled_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for UserCourse
func (UserCourse) TableName() string {
	return "user_courses"
}
