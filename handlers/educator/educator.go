// Package educator exposes educator-side course management.
package educator

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/skillforest/lms-api/model"
	"github.com/skillforest/lms-api/services"
	"github.com/skillforest/lms-api/services/media"
	"github.com/skillforest/lms-api/utils/middleware"
	"github.com/skillforest/lms-api/utils/response"
	"github.com/skillforest/lms-api/utils/validation"
	"gorm.io/gorm"
)

// EducatorHandler serves educator-only operations
type EducatorHandler struct {
	db                *gorm.DB
	identityService   *services.IdentityService
	catalogService    *services.CatalogService
	enrollmentService *services.EnrollmentService
	spacesClient      *media.SpacesClient // nil when media storage is not configured
	validator         *validation.Validator
}

// NewEducatorHandler creates a new educator handler
func NewEducatorHandler(db *gorm.DB, enrollmentService *services.EnrollmentService, spacesClient *media.SpacesClient) *EducatorHandler {
	return &EducatorHandler{
		db:                db,
		identityService:   services.NewIdentityService(db),
		catalogService:    services.NewCatalogService(db),
		enrollmentService: enrollmentService,
		spacesClient:      spacesClient,
		validator:         validation.NewValidator(),
	}
}

// BecomeEducator promotes the calling user to the educator role. Calling it
// again as an educator is a no-op success.
func (h *EducatorHandler) BecomeEducator(c *fiber.Ctx) error {
	email, ok := middleware.GetUserEmail(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	user, err := h.identityService.PromoteToEducator(c.Context(), email)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "You can now publish courses", fiber.Map{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	})
}

// CreateCourse creates a course from a multipart form. The course payload
// rides in the "courseData" field as JSON, matching the frontend's FormData
// shape; an optional "image" field carries the thumbnail.
func (h *EducatorHandler) CreateCourse(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseData := c.FormValue("courseData")
	if courseData == "" {
		return response.BadRequest(c, "courseData is required")
	}

	var in services.NewCourseInput
	if err := json.Unmarshal([]byte(courseData), &in); err != nil {
		return response.BadRequest(c, "Invalid courseData JSON")
	}

	if err := h.validator.ValidateStruct(in); err != nil {
		return response.ValidationError(c, err)
	}

	if file, err := c.FormFile("image"); err == nil {
		if h.spacesClient == nil {
			return response.BadRequest(c, "Media storage is not configured")
		}
		content, err := file.Open()
		if err != nil {
			return response.InternalServerError(c, "Failed to open thumbnail")
		}
		defer content.Close()

		url, err := h.spacesClient.UploadThumbnail(
			c.Context(),
			file.Filename,
			file.Header.Get("Content-Type"),
			file.Size,
			content,
		)
		if err != nil {
			return response.FromError(c, err)
		}
		in.ThumbnailURL = url
	}

	course, err := h.catalogService.CreateCourse(c.Context(), userID, in)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, course)
}

// ListMyCourses returns the calling educator's courses
func (h *EducatorHandler) ListMyCourses(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courses, err := h.catalogService.ListByEducator(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, courses)
}

// DashboardData summarizes an educator's business
type DashboardData struct {
	TotalCourses     int64            `json:"total_courses"`
	TotalEnrollments int64            `json:"total_enrollments"`
	TotalEarnings    float64          `json:"total_earnings"`
	Courses          []model.Course   `json:"courses"`
	RecentPurchases  []model.Purchase `json:"recent_purchases"`
}

// Dashboard aggregates enrollments and earnings across the educator's courses
func (h *EducatorHandler) Dashboard(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courses, err := h.catalogService.ListByEducator(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}

	data := DashboardData{
		TotalCourses:    int64(len(courses)),
		Courses:         courses,
		RecentPurchases: []model.Purchase{},
	}

	courseIDs := make([]uint, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}
	if len(courseIDs) == 0 {
		return response.Success(c, data)
	}

	if err := h.db.Model(&model.UserCourse{}).
		Where("course_id IN ?", courseIDs).
		Count(&data.TotalEnrollments).Error; err != nil {
		return response.InternalServerError(c, "Failed to count enrollments")
	}

	var earnings *float64
	if err := h.db.Model(&model.Purchase{}).
		Select("SUM(amount)").
		Where("course_id IN ? AND status = ?", courseIDs, model.PurchaseStatusCompleted).
		Scan(&earnings).Error; err != nil {
		return response.InternalServerError(c, "Failed to sum earnings")
	}
	if earnings != nil {
		data.TotalEarnings = services.RoundAmount(*earnings)
	}

	if err := h.db.
		Where("course_id IN ? AND status = ?", courseIDs, model.PurchaseStatusCompleted).
		Preload("User").Preload("Course").
		Order("updated_at DESC").
		Limit(10).
		Find(&data.RecentPurchases).Error; err != nil {
		return response.InternalServerError(c, "Failed to load purchases")
	}

	return response.Success(c, data)
}

// EnrolledStudents lists the students of one of the educator's courses
func (h *EducatorHandler) EnrolledStudents(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.catalogService.GetCourse(c.Context(), uint(courseID))
	if err != nil {
		return response.FromError(c, err)
	}
	if course.EducatorID != userID {
		return response.Forbidden(c, "You do not own this course")
	}

	students, err := h.enrollmentService.EnrolledStudents(c.Context(), course.ID)
	if err != nil {
		return response.FromError(c, err)
	}

	type studentView struct {
		ID       uint   `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		ImageURL string `json:"image_url,omitempty"`
	}

	views := make([]studentView, 0, len(students))
	for _, s := range students {
		views = append(views, studentView{ID: s.ID, Name: s.Name, Email: s.Email, ImageURL: s.ImageURL})
	}

	return response.Success(c, views)
}
