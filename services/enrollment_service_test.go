package services

import (
	"context"
	"errors"
	"testing"

	"github.com/skillforest/lms-api/apperr"
	"github.com/skillforest/lms-api/model"
)

func TestCompletePurchaseEnrolls(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db, nil, nil)
	ctx := context.Background()

	educator := createEducator(t, db, "complete-seller@example.com")
	course := createCourse(t, db, educator.ID, 100, 0)
	buyer := createStudent(t, db, "complete-buyer@example.com")
	purchase := createPendingPurchase(t, db, buyer.ID, course.ID, 100)

	result, err := svc.CompletePurchase(ctx, purchase.Reference)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if result.AlreadyCompleted {
		t.Error("first completion reported AlreadyCompleted")
	}
	if result.Purchase.Status != model.PurchaseStatusCompleted {
		t.Errorf("status = %q, want completed", result.Purchase.Status)
	}

	enrolled, err := svc.IsEnrolled(ctx, buyer.ID, course.ID)
	if err != nil {
		t.Fatalf("IsEnrolled failed: %v", err)
	}
	if !enrolled {
		t.Error("buyer is not enrolled after completion")
	}
}

func TestCompletePurchaseIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db, nil, nil)
	ctx := context.Background()

	educator := createEducator(t, db, "idem-seller@example.com")
	course := createCourse(t, db, educator.ID, 100, 0)
	buyer := createStudent(t, db, "idem-buyer@example.com")
	purchase := createPendingPurchase(t, db, buyer.ID, course.ID, 100)

	if _, err := svc.CompletePurchase(ctx, purchase.Reference); err != nil {
		t.Fatalf("first complete failed: %v", err)
	}

	// Re-delivered webhook: acknowledged, nothing duplicated
	result, err := svc.CompletePurchase(ctx, purchase.Reference)
	if err != nil {
		t.Fatalf("second complete failed: %v", err)
	}
	if !result.AlreadyCompleted {
		t.Error("second completion should report AlreadyCompleted")
	}

	var enrollments int64
	db.Model(&model.UserCourse{}).
		Where("user_id = ? AND course_id = ?", buyer.ID, course.ID).
		Count(&enrollments)
	if enrollments != 1 {
		t.Errorf("enrollment rows = %d, want 1", enrollments)
	}
}

func TestCompleteUnknownPurchase(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db, nil, nil)

	_, err := svc.CompletePurchase(context.Background(), "no-such-reference")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestFailPurchaseTransitions(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db, nil, nil)
	ctx := context.Background()

	educator := createEducator(t, db, "fail-seller@example.com")
	course := createCourse(t, db, educator.ID, 100, 0)
	buyer := createStudent(t, db, "fail-buyer@example.com")
	purchase := createPendingPurchase(t, db, buyer.ID, course.ID, 100)

	failed, err := svc.FailPurchase(ctx, purchase.Reference)
	if err != nil {
		t.Fatalf("fail failed: %v", err)
	}
	if failed.Status != model.PurchaseStatusFailed {
		t.Errorf("status = %q, want failed", failed.Status)
	}

	// Failing again is a no-op
	if _, err := svc.FailPurchase(ctx, purchase.Reference); err != nil {
		t.Errorf("re-fail errored: %v", err)
	}

	// A failed purchase cannot be completed
	if _, err := svc.CompletePurchase(ctx, purchase.Reference); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("complete after fail: got %v, want ErrConflict", err)
	}

	// No enrollment leaked
	enrolled, _ := svc.IsEnrolled(ctx, buyer.ID, course.ID)
	if enrolled {
		t.Error("failed purchase produced an enrollment")
	}
}

func TestFailCompletedPurchaseConflicts(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db, nil, nil)
	ctx := context.Background()

	educator := createEducator(t, db, "late-seller@example.com")
	course := createCourse(t, db, educator.ID, 100, 0)
	buyer := createStudent(t, db, "late-buyer@example.com")
	purchase := createPendingPurchase(t, db, buyer.ID, course.ID, 100)

	if _, err := svc.CompletePurchase(ctx, purchase.Reference); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if _, err := svc.FailPurchase(ctx, purchase.Reference); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("fail after complete: got %v, want ErrConflict", err)
	}
}

func TestListEnrolledCourses(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db, nil, nil)
	ctx := context.Background()

	educator := createEducator(t, db, "list-seller@example.com")
	first := createCourse(t, db, educator.ID, 100, 0)
	second := createCourse(t, db, educator.ID, 200, 0)
	buyer := createStudent(t, db, "list-buyer@example.com")

	enroll(t, db, buyer.ID, first.ID)
	enroll(t, db, buyer.ID, second.ID)

	courses, err := svc.ListEnrolledCourses(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(courses) != 2 {
		t.Errorf("enrolled courses = %d, want 2", len(courses))
	}

	students, err := svc.EnrolledStudents(ctx, first.ID)
	if err != nil {
		t.Fatalf("students failed: %v", err)
	}
	if len(students) != 1 || students[0].ID != buyer.ID {
		t.Errorf("students of course = %+v", students)
	}
}
