// Package course exposes the public catalog endpoints.
package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skillforest/lms-api/model"
	"github.com/skillforest/lms-api/services"
	"github.com/skillforest/lms-api/utils/middleware"
	"github.com/skillforest/lms-api/utils/response"
	"gorm.io/gorm"
)

// CourseHandler serves catalog reads
type CourseHandler struct {
	catalogService    *services.CatalogService
	enrollmentService *services.EnrollmentService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, enrollmentService *services.EnrollmentService) *CourseHandler {
	return &CourseHandler{
		catalogService:    services.NewCatalogService(db),
		enrollmentService: enrollmentService,
	}
}

// CourseSummary is the catalog-list shape of a course
type CourseSummary struct {
	ID              uint    `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	ThumbnailURL    string  `json:"thumbnail_url"`
	Price           float64 `json:"price"`
	DiscountPercent float64 `json:"discount_percent"`
	EducatorID      uint    `json:"educator_id"`
	DurationMinutes int     `json:"duration_minutes"`
	LectureCount    int     `json:"lecture_count"`
	AverageRating   float64 `json:"average_rating"`
	RatingCount     int     `json:"rating_count"`
}

// LectureView is a lecture as seen by a (possibly unenrolled) user
type LectureView struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
	IsPreview       bool   `json:"is_preview"`
	Position        int    `json:"position"`
	ContentURL      string `json:"content_url,omitempty"`
}

// ChapterView is a chapter with its lectures and summed duration
type ChapterView struct {
	ID              uint          `json:"id"`
	Title           string        `json:"title"`
	Position        int           `json:"position"`
	DurationMinutes int           `json:"duration_minutes"`
	Lectures        []LectureView `json:"lectures"`
}

// CourseDetail is the full catalog shape of one course
type CourseDetail struct {
	CourseSummary
	EducatorName string        `json:"educator_name,omitempty"`
	IsEnrolled   bool          `json:"is_enrolled"`
	Chapters     []ChapterView `json:"chapters"`
}

func toSummary(c *model.Course) CourseSummary {
	return CourseSummary{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		ThumbnailURL:    c.ThumbnailURL,
		Price:           c.Price,
		DiscountPercent: c.DiscountPercent,
		EducatorID:      c.EducatorID,
		DurationMinutes: services.CourseDurationMinutes(c),
		LectureCount:    services.CourseLectureCount(c),
		AverageRating:   services.AverageRating(c),
		RatingCount:     len(c.Ratings),
	}
}

// toDetail builds the detail view. Content URLs of non-preview lectures are
// stripped unless the viewer is enrolled.
func toDetail(c *model.Course, enrolled bool) CourseDetail {
	detail := CourseDetail{
		CourseSummary: toSummary(c),
		EducatorName:  c.Educator.Name,
		IsEnrolled:    enrolled,
		Chapters:      []ChapterView{},
	}

	for i := range c.Chapters {
		ch := &c.Chapters[i]
		view := ChapterView{
			ID:              ch.ID,
			Title:           ch.Title,
			Position:        ch.Position,
			DurationMinutes: services.ChapterDurationMinutes(ch),
			Lectures:        []LectureView{},
		}
		for _, lec := range ch.Lectures {
			lv := LectureView{
				ID:              lec.ID,
				Title:           lec.Title,
				DurationMinutes: lec.DurationMinutes,
				IsPreview:       lec.IsPreview,
				Position:        lec.Position,
			}
			if enrolled || lec.IsPreview {
				lv.ContentURL = lec.ContentURL
			}
			view.Lectures = append(view.Lectures, lv)
		}
		detail.Chapters = append(detail.Chapters, view)
	}

	return detail
}

// ListCourses returns all published courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	courses, err := h.catalogService.ListCourses(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}

	summaries := make([]CourseSummary, 0, len(courses))
	for i := range courses {
		summaries = append(summaries, toSummary(&courses[i]))
	}

	return response.Success(c, summaries)
}

// GetCourse returns one course with its full content tree
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.catalogService.GetCourse(c.Context(), uint(courseID))
	if err != nil {
		return response.FromError(c, err)
	}

	enrolled := false
	if userID, ok := middleware.GetUserID(c); ok {
		enrolled, err = h.enrollmentService.IsEnrolled(c.Context(), userID, course.ID)
		if err != nil {
			return response.FromError(c, err)
		}
		// An educator always sees their own content
		if !enrolled && course.EducatorID == userID {
			enrolled = true
		}
	}

	return response.Success(c, toDetail(course, enrolled))
}
