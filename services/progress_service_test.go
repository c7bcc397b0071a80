package services

import (
	"context"
	"errors"
	"testing"

	"github.com/skillforest/lms-api/apperr"
	"github.com/skillforest/lms-api/model"
)

func progressFixture(t *testing.T) (*ProgressService, *model.Course, *model.User, context.Context) {
	t.Helper()

	db := newTestDB(t)
	svc := NewProgressService(db)

	educator := createEducator(t, db, "prog-seller@example.com")
	course := createCourse(t, db, educator.ID, 100, 0)
	student := createStudent(t, db, "prog-student@example.com")
	enroll(t, db, student.ID, course.ID)

	return svc, course, student, context.Background()
}

func TestMarkLectureComplete(t *testing.T) {
	svc, course, student, ctx := progressFixture(t)
	lecture := course.Chapters[0].Lectures[0]

	already, err := svc.MarkLectureComplete(ctx, student.ID, course.ID, lecture.ID)
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if already {
		t.Error("first mark reported alreadyComplete")
	}

	// Set semantics: marking again changes nothing
	already, err = svc.MarkLectureComplete(ctx, student.ID, course.ID, lecture.ID)
	if err != nil {
		t.Fatalf("second mark failed: %v", err)
	}
	if !already {
		t.Error("second mark should report alreadyComplete")
	}

	report, err := svc.GetProgress(ctx, student.ID, course.ID)
	if err != nil {
		t.Fatalf("get progress failed: %v", err)
	}
	if report.CompletedCount != 1 {
		t.Errorf("completed = %d, want 1", report.CompletedCount)
	}
	if report.TotalLectures != 3 {
		t.Errorf("total = %d, want 3", report.TotalLectures)
	}
	// 1/3 = 33.3%
	if report.PercentComplete != 33.3 {
		t.Errorf("percent = %v, want 33.3", report.PercentComplete)
	}
}

func TestMarkLectureCompleteGuards(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db)
	ctx := context.Background()

	educator := createEducator(t, db, "guard-prog@example.com")
	course := createCourse(t, db, educator.ID, 100, 0)
	other := createCourse(t, db, educator.ID, 100, 0)
	student := createStudent(t, db, "guard-prog-student@example.com")

	lecture := course.Chapters[0].Lectures[0]

	// Not enrolled
	if _, err := svc.MarkLectureComplete(ctx, student.ID, course.ID, lecture.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("unenrolled mark: got %v, want ErrForbidden", err)
	}

	enroll(t, db, student.ID, course.ID)

	// Lecture from a different course
	foreign := other.Chapters[0].Lectures[0]
	if _, err := svc.MarkLectureComplete(ctx, student.ID, course.ID, foreign.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign lecture: got %v, want ErrNotFound", err)
	}

	// Unknown lecture
	if _, err := svc.MarkLectureComplete(ctx, student.ID, course.ID, 9999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown lecture: got %v, want ErrNotFound", err)
	}
}

func TestGetProgressEmpty(t *testing.T) {
	svc, course, student, ctx := progressFixture(t)

	report, err := svc.GetProgress(ctx, student.ID, course.ID)
	if err != nil {
		t.Fatalf("get progress failed: %v", err)
	}
	if report.CompletedCount != 0 || report.PercentComplete != 0 {
		t.Errorf("fresh progress = %+v, want zeros", report)
	}
	if report.TotalLectures != 3 {
		t.Errorf("total = %d, want 3", report.TotalLectures)
	}
}

func TestGetProgressForbiddenWhenUnenrolled(t *testing.T) {
	svc, course, _, ctx := progressFixture(t)

	_, err := svc.GetProgress(ctx, 9999, course.ID)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
}

func TestProgressClipsRemovedLectures(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db)
	ctx := context.Background()

	educator := createEducator(t, db, "clip-seller@example.com")
	course := createCourse(t, db, educator.ID, 100, 0)
	student := createStudent(t, db, "clip-student@example.com")
	enroll(t, db, student.ID, course.ID)

	// Complete two of three lectures
	l1 := course.Chapters[0].Lectures[0]
	l2 := course.Chapters[0].Lectures[1]
	if _, err := svc.MarkLectureComplete(ctx, student.ID, course.ID, l1.ID); err != nil {
		t.Fatalf("mark 1 failed: %v", err)
	}
	if _, err := svc.MarkLectureComplete(ctx, student.ID, course.ID, l2.ID); err != nil {
		t.Fatalf("mark 2 failed: %v", err)
	}

	report, err := svc.GetProgress(ctx, student.ID, course.ID)
	if err != nil {
		t.Fatalf("get progress failed: %v", err)
	}
	if report.CompletedCount != 2 || report.TotalLectures != 3 {
		t.Fatalf("progress = %d/%d, want 2/3", report.CompletedCount, report.TotalLectures)
	}
	if report.PercentComplete != 66.7 {
		t.Errorf("percent = %v, want 66.7", report.PercentComplete)
	}

	// Educator deletes a completed lecture; the count clips to what exists
	if err := db.Delete(&model.Lecture{}, l2.ID).Error; err != nil {
		t.Fatalf("delete lecture failed: %v", err)
	}

	report, err = svc.GetProgress(ctx, student.ID, course.ID)
	if err != nil {
		t.Fatalf("get progress after delete failed: %v", err)
	}
	if report.TotalLectures != 2 {
		t.Errorf("total after delete = %d, want 2", report.TotalLectures)
	}
	if report.CompletedCount != 1 {
		t.Errorf("completed after delete = %d, want 1", report.CompletedCount)
	}
	if report.PercentComplete != 50 {
		t.Errorf("percent after delete = %v, want 50", report.PercentComplete)
	}
}
