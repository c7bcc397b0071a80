package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/skillforest/lms-api/apperr"
	"github.com/skillforest/lms-api/model"
	"github.com/skillforest/lms-api/services/payment"
	"gorm.io/gorm"
)

// CheckoutGateway is the slice of the payment client the purchase flow needs
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, in payment.CheckoutInput) (*payment.CheckoutSession, error)
}

// PurchaseService opens purchases against the payment gateway
type PurchaseService struct {
	db       *gorm.DB
	gateway  CheckoutGateway
	currency string
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(db *gorm.DB, gateway CheckoutGateway, currency string) *PurchaseService {
	if currency == "" {
		currency = "USD"
	}
	return &PurchaseService{db: db, gateway: gateway, currency: currency}
}

// RoundAmount rounds a monetary amount to 2 decimal places
func RoundAmount(x float64) float64 {
	return math.Round(x*100) / 100
}

// PurchaseAmount applies the course discount to its price. The result is
// fixed on the purchase row at initiation and never recomputed.
func PurchaseAmount(c *model.Course) float64 {
	return RoundAmount(c.Price - c.Price*c.DiscountPercent/100)
}

// CheckoutResult is what Initiate hands back to the handler layer
type CheckoutResult struct {
	Purchase    *model.Purchase `json:"purchase"`
	CheckoutURL string          `json:"checkout_url"`
}

// Initiate creates a pending purchase and opens a gateway checkout session.
// origin is the frontend origin used for the redirect URLs.
func (s *PurchaseService) Initiate(ctx context.Context, userID, courseID uint, origin string) (*CheckoutResult, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %d not found", userID)
		}
		return nil, err
	}

	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("course %d not found", courseID)
		}
		return nil, err
	}

	var enrolled int64
	if err := s.db.WithContext(ctx).Model(&model.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&enrolled).Error; err != nil {
		return nil, err
	}
	if enrolled > 0 {
		return nil, apperr.Conflict("user is already enrolled in this course")
	}

	purchase := model.Purchase{
		Reference: uuid.NewString(),
		UserID:    userID,
		CourseID:  courseID,
		Amount:    PurchaseAmount(&course),
		Currency:  s.currency,
		Status:    model.PurchaseStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&purchase).Error; err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutInput{
		Reference:   purchase.Reference,
		Amount:      purchase.Amount,
		Currency:    purchase.Currency,
		Description: fmt.Sprintf("Course: %s", course.Title),
		CustomerID:  strconv.FormatUint(uint64(userID), 10),
		SuccessURL:  origin + "/loading/my-enrollments",
		CancelURL:   origin + "/",
	})
	if err != nil {
		// The pending row stays; the expiry cron fails it if the user never
		// retries.
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&purchase).
		Update("checkout_session_id", session.ID).Error; err != nil {
		return nil, err
	}
	purchase.CheckoutSessionID = session.ID

	return &CheckoutResult{Purchase: &purchase, CheckoutURL: session.URL}, nil
}

// GetByReference loads a purchase by its gateway-shared reference
func (s *PurchaseService) GetByReference(ctx context.Context, reference string) (*model.Purchase, error) {
	var purchase model.Purchase
	err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("purchase %s not found", reference)
		}
		return nil, err
	}
	return &purchase, nil
}

// ListByUser returns a user's purchases, newest first
func (s *PurchaseService) ListByUser(ctx context.Context, userID uint) ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Course").
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}
