package model

import (
	"time"

	"gorm.io/gorm"
)

// Purchase statuses. pending -> completed and pending -> failed are the only
// legal transitions; both end states are terminal.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

// Purchase records a payment intent linking a user to a course. Amount is
// computed from the course price and discount at creation time and never
// recomputed, even if the course price changes later.
type Purchase struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Reference         string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"` // id shared with the payment gateway
	UserID            uint           `gorm:"not null;index" json:"user_id"`
	CourseID          uint           `gorm:"not null;index" json:"course_id"`
	Amount            float64        `gorm:"not null" json:"amount"`
	Currency          string         `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Status            string         `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	CheckoutSessionID string         `gorm:"type:varchar(100)" json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Purchase
func (Purchase) TableName() string {
	return "purchases"
}
