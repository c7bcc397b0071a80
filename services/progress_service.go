package services

import (
	"context"
	"errors"
	"math"

	"github.com/skillforest/lms-api/apperr"
	"github.com/skillforest/lms-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressService tracks per-user lecture completion within a course
type ProgressService struct {
	db *gorm.DB
}

// NewProgressService creates a new progress service
func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

// ProgressReport summarizes a user's progress through one course. The
// completed count never exceeds the live lecture total, even when lectures
// were removed after the user completed them.
type ProgressReport struct {
	CourseID        uint    `json:"course_id"`
	CompletedCount  int     `json:"completed_count"`
	TotalLectures   int     `json:"total_lectures"`
	PercentComplete float64 `json:"percent_complete"`
	LectureIDs      []uint  `json:"lecture_ids"`
}

// MarkLectureComplete records that a user finished a lecture. Marking the
// same lecture twice is a no-op; alreadyComplete reports which case happened.
// The caller must be enrolled and the lecture must belong to the course.
func (s *ProgressService) MarkLectureComplete(ctx context.Context, userID, courseID, lectureID uint) (alreadyComplete bool, err error) {
	var enrolled int64
	if err := s.db.WithContext(ctx).Model(&model.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&enrolled).Error; err != nil {
		return false, err
	}
	if enrolled == 0 {
		return false, apperr.Forbidden("user is not enrolled in this course")
	}

	var belongs int64
	if err := s.db.WithContext(ctx).Model(&model.Lecture{}).
		Joins("JOIN chapters ON chapters.id = lectures.chapter_id AND chapters.deleted_at IS NULL").
		Where("lectures.id = ? AND chapters.course_id = ?", lectureID, courseID).
		Count(&belongs).Error; err != nil {
		return false, err
	}
	if belongs == 0 {
		return false, apperr.NotFound("lecture %d not found in course %d", lectureID, courseID)
	}

	progress := model.CourseProgress{UserID: userID, CourseID: courseID}
	if err := s.db.WithContext(ctx).
		Where(model.CourseProgress{UserID: userID, CourseID: courseID}).
		FirstOrCreate(&progress).Error; err != nil {
		return false, err
	}

	// Set semantics: the unique (progress_id, lecture_id) index absorbs
	// concurrent duplicate marks; RowsAffected tells the two cases apart.
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.LectureCompletion{
			ProgressID: progress.ID,
			LectureID:  lectureID,
		})
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 0, nil
}

// GetProgress reports a user's completion state for a course
func (s *ProgressService) GetProgress(ctx context.Context, userID, courseID uint) (*ProgressReport, error) {
	var enrolled int64
	if err := s.db.WithContext(ctx).Model(&model.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&enrolled).Error; err != nil {
		return nil, err
	}
	if enrolled == 0 {
		return nil, apperr.Forbidden("user is not enrolled in this course")
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Lecture{}).
		Joins("JOIN chapters ON chapters.id = lectures.chapter_id AND chapters.deleted_at IS NULL").
		Where("chapters.course_id = ?", courseID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	report := &ProgressReport{CourseID: courseID, TotalLectures: int(total), LectureIDs: []uint{}}

	var progress model.CourseProgress
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return report, nil
		}
		return nil, err
	}

	// Count only completions whose lecture still exists in the course, so the
	// numerator cannot outgrow the denominator after content edits.
	if err := s.db.WithContext(ctx).Model(&model.LectureCompletion{}).
		Joins("JOIN lectures ON lectures.id = lecture_completions.lecture_id AND lectures.deleted_at IS NULL").
		Joins("JOIN chapters ON chapters.id = lectures.chapter_id AND chapters.deleted_at IS NULL").
		Where("lecture_completions.progress_id = ? AND chapters.course_id = ?", progress.ID, courseID).
		Pluck("lecture_completions.lecture_id", &report.LectureIDs).Error; err != nil {
		return nil, err
	}
	report.CompletedCount = len(report.LectureIDs)

	if report.TotalLectures > 0 {
		pct := float64(report.CompletedCount) / float64(report.TotalLectures) * 100
		report.PercentComplete = math.Round(pct*10) / 10
	}

	return report, nil
}
