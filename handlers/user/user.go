// Package user exposes the student-side endpoints: enrollments, purchases,
// progress and ratings.
package user

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skillforest/lms-api/services"
	"github.com/skillforest/lms-api/utils/middleware"
	"github.com/skillforest/lms-api/utils/response"
	"gorm.io/gorm"
)

// UserHandler serves the authenticated student's operations
type UserHandler struct {
	catalogService    *services.CatalogService
	purchaseService   *services.PurchaseService
	enrollmentService *services.EnrollmentService
	progressService   *services.ProgressService
	appURL            string
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB, purchaseService *services.PurchaseService, enrollmentService *services.EnrollmentService, appURL string) *UserHandler {
	return &UserHandler{
		catalogService:    services.NewCatalogService(db),
		purchaseService:   purchaseService,
		enrollmentService: enrollmentService,
		progressService:   services.NewProgressService(db),
		appURL:            appURL,
	}
}

// ListEnrollments returns the courses the user is enrolled in
func (h *UserHandler) ListEnrollments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courses, err := h.enrollmentService.ListEnrolledCourses(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, courses)
}

// PurchaseRequest starts a checkout for one course
type PurchaseRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
}

// InitiatePurchase creates a pending purchase and returns the gateway
// checkout URL to redirect the user to
func (h *UserHandler) InitiatePurchase(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CourseID == 0 {
		return response.BadRequest(c, "course_id is required")
	}

	origin := c.Get("Origin")
	if origin == "" {
		origin = h.appURL
	}

	result, err := h.purchaseService.Initiate(c.Context(), userID, req.CourseID, origin)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, result)
}

// ListPurchases returns the user's purchase history
func (h *UserHandler) ListPurchases(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	purchases, err := h.purchaseService.ListByUser(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, purchases)
}

// ProgressRequest marks one lecture as completed
type ProgressRequest struct {
	LectureID uint `json:"lecture_id" validate:"required"`
}

// MarkLectureComplete records lecture completion for the calling user
func (h *UserHandler) MarkLectureComplete(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req ProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.LectureID == 0 {
		return response.BadRequest(c, "lecture_id is required")
	}

	alreadyComplete, err := h.progressService.MarkLectureComplete(c.Context(), userID, uint(courseID), req.LectureID)
	if err != nil {
		return response.FromError(c, err)
	}

	if alreadyComplete {
		return response.SuccessWithMessage(c, "Lecture already completed", nil)
	}
	return response.SuccessWithMessage(c, "Lecture marked as completed", nil)
}

// GetProgress reports the user's progress through one course
func (h *UserHandler) GetProgress(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	report, err := h.progressService.GetProgress(c.Context(), userID, uint(courseID))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, report)
}

// RatingRequest submits or overwrites a course rating
type RatingRequest struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=5"`
}

// RateCourse records the user's rating for a course
func (h *UserHandler) RateCourse(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.catalogService.UpsertRating(c.Context(), uint(courseID), userID, req.Rating); err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Rating saved", nil)
}
