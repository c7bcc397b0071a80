package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/skillforest/lms-api/apperr"
	"github.com/skillforest/lms-api/model"
	"github.com/skillforest/lms-api/utils/cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentService settles purchases and maintains the user<->course
// enrollment rows. Completion is the only path that creates an enrollment.
type EnrollmentService struct {
	db    *gorm.DB
	cache *cache.RedisCache // optional, used for webhook dedup locks
	email *EmailService     // optional, best-effort confirmation mail
}

// NewEnrollmentService creates a new enrollment service. cache and email may
// be nil; the database transitions alone are already safe.
func NewEnrollmentService(db *gorm.DB, redisCache *cache.RedisCache, email *EmailService) *EnrollmentService {
	return &EnrollmentService{db: db, cache: redisCache, email: email}
}

// CompletionResult reports what CompletePurchase did
type CompletionResult struct {
	Purchase         *model.Purchase
	AlreadyCompleted bool
}

// CompletePurchase flips a pending purchase to completed and enrolls the
// buyer, atomically. Re-delivered webhooks for an already-completed purchase
// return AlreadyCompleted=true without touching anything; a failed purchase
// cannot be completed.
func (s *EnrollmentService) CompletePurchase(ctx context.Context, reference string) (*CompletionResult, error) {
	// Short redis lock to collapse concurrent deliveries of the same webhook
	// before they hit the database. The CAS below is the real guard.
	if s.cache != nil {
		lockKey := "purchase_complete:" + reference
		ok, err := s.cache.SetNX(ctx, lockKey, "1", 30*time.Second)
		if err == nil && ok {
			defer s.cache.Delete(ctx, lockKey)
		}
	}

	var purchase model.Purchase
	result := &CompletionResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reference = ?", reference).First(&purchase).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("purchase %s not found", reference)
			}
			return err
		}

		if purchase.Status == model.PurchaseStatusCompleted {
			result.AlreadyCompleted = true
			return nil
		}
		if purchase.Status == model.PurchaseStatusFailed {
			return apperr.Conflict("purchase %s already failed", reference)
		}

		// Compare-and-swap on the pending status. Of two racing completions,
		// exactly one sees RowsAffected == 1.
		res := tx.Model(&model.Purchase{}).
			Where("id = ? AND status = ?", purchase.ID, model.PurchaseStatusPending).
			Update("status", model.PurchaseStatusCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			result.AlreadyCompleted = true
			return nil
		}
		purchase.Status = model.PurchaseStatusCompleted

		// Enrollment rides in the same transaction so a crash cannot leave a
		// completed purchase without its enrollment. DoNothing keeps a manual
		// re-enroll from erroring out.
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.UserCourse{
			UserID:     purchase.UserID,
			CourseID:   purchase.CourseID,
			PurchaseID: purchase.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	result.Purchase = &purchase

	if !result.AlreadyCompleted {
		s.sendConfirmation(ctx, &purchase)
	}

	return result, nil
}

// FailPurchase flips a pending purchase to failed. Failing an already-failed
// purchase is a no-op; failing a completed one is a conflict.
func (s *EnrollmentService) FailPurchase(ctx context.Context, reference string) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("purchase %s not found", reference)
		}
		return nil, err
	}

	switch purchase.Status {
	case model.PurchaseStatusFailed:
		return &purchase, nil
	case model.PurchaseStatusCompleted:
		return nil, apperr.Conflict("purchase %s already completed", reference)
	}

	res := s.db.WithContext(ctx).Model(&model.Purchase{}).
		Where("id = ? AND status = ?", purchase.ID, model.PurchaseStatusPending).
		Update("status", model.PurchaseStatusFailed)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race to a concurrent completion
		return nil, apperr.Conflict("purchase %s is no longer pending", reference)
	}
	purchase.Status = model.PurchaseStatusFailed

	return &purchase, nil
}

// IsEnrolled reports whether a user owns a course
func (s *EnrollmentService) IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// ListEnrolledCourses returns the courses a user is enrolled in, newest
// enrollment first
func (s *EnrollmentService) ListEnrolledCourses(ctx context.Context, userID uint) ([]model.Course, error) {
	var courses []model.Course
	err := s.db.WithContext(ctx).
		Joins("JOIN user_courses ON user_courses.course_id = courses.id").
		Where("user_courses.user_id = ?", userID).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Chapters.Lectures", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Ratings").
		Order("user_courses.enrolled_at DESC").
		Find(&courses).Error
	return courses, err
}

// EnrolledStudents returns the users enrolled in a course
func (s *EnrollmentService) EnrolledStudents(ctx context.Context, courseID uint) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Joins("JOIN user_courses ON user_courses.user_id = users.id").
		Where("user_courses.course_id = ?", courseID).
		Order("user_courses.enrolled_at DESC").
		Find(&users).Error
	return users, err
}

func (s *EnrollmentService) sendConfirmation(ctx context.Context, purchase *model.Purchase) {
	if s.email == nil || !s.email.IsConfigured() {
		return
	}

	var user model.User
	var course model.Course
	if err := s.db.WithContext(ctx).First(&user, purchase.UserID).Error; err != nil {
		return
	}
	if err := s.db.WithContext(ctx).First(&course, purchase.CourseID).Error; err != nil {
		return
	}

	if err := s.email.SendEnrollmentConfirmation(user.Email, user.Name, course.Title); err != nil {
		log.Printf("enrollment confirmation email to %s failed: %v", user.Email, err)
	}
}
