package services

import (
	"context"
	"errors"
	"testing"

	"github.com/skillforest/lms-api/apperr"
	"github.com/skillforest/lms-api/model"
)

func TestCourseAggregates(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	educator := createEducator(t, db, "agg@example.com")
	created := createCourse(t, db, educator.ID, 500, 0)

	course, err := svc.GetCourse(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get course failed: %v", err)
	}

	if got := CourseDurationMinutes(course); got != 45 {
		t.Errorf("duration = %d, want 45", got)
	}
	if got := CourseLectureCount(course); got != 3 {
		t.Errorf("lecture count = %d, want 3", got)
	}
	if got := ChapterDurationMinutes(&course.Chapters[0]); got != 30 {
		t.Errorf("chapter 1 duration = %d, want 30", got)
	}
}

func TestAverageRating(t *testing.T) {
	course := &model.Course{}
	if got := AverageRating(course); got != 0 {
		t.Errorf("empty ratings average = %v, want 0", got)
	}

	course.Ratings = []model.CourseRating{{Rating: 4}, {Rating: 5}, {Rating: 4}}
	// 13/3 = 4.333... rounds to 4.3
	if got := AverageRating(course); got != 4.3 {
		t.Errorf("average = %v, want 4.3", got)
	}

	course.Ratings = append(course.Ratings, model.CourseRating{Rating: 5})
	// 18/4 = 4.5
	if got := AverageRating(course); got != 4.5 {
		t.Errorf("average = %v, want 4.5", got)
	}
}

func TestCreateCourseValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()

	educator := createEducator(t, db, "creator@example.com")
	student := createStudent(t, db, "student@example.com")

	cases := []struct {
		name string
		in   NewCourseInput
		want error
	}{
		{"blank title", NewCourseInput{Title: "  ", Price: 10}, apperr.ErrInvalidInput},
		{"negative price", NewCourseInput{Title: "Go", Price: -1}, apperr.ErrInvalidInput},
		{"discount over 100", NewCourseInput{Title: "Go", Price: 10, DiscountPercent: 120}, apperr.ErrInvalidInput},
	}
	for _, tc := range cases {
		if _, err := svc.CreateCourse(ctx, educator.ID, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}

	// Students cannot publish
	_, err := svc.CreateCourse(ctx, student.ID, NewCourseInput{Title: "Nope", Price: 10})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("student create: got %v, want ErrForbidden", err)
	}
}

func TestCreateCoursePositions(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	educator := createEducator(t, db, "positions@example.com")

	course, err := svc.CreateCourse(context.Background(), educator.ID, NewCourseInput{
		Title: "Ordered Course",
		Price: 100,
		Chapters: []NewChapterInput{
			{Title: "Intro", Lectures: []NewLectureInput{
				{Title: "Hello", DurationMinutes: 5},
				{Title: "Setup", DurationMinutes: 10},
			}},
			{Title: "Advanced", Lectures: []NewLectureInput{
				{Title: "Deep Dive", DurationMinutes: 30},
			}},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	loaded, err := svc.GetCourse(context.Background(), course.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(loaded.Chapters) != 2 {
		t.Fatalf("chapter count = %d, want 2", len(loaded.Chapters))
	}
	if loaded.Chapters[0].Position != 1 || loaded.Chapters[1].Position != 2 {
		t.Error("chapter positions do not follow input order")
	}
	if loaded.Chapters[0].Lectures[1].Position != 2 {
		t.Error("lecture positions do not follow input order")
	}
}

func TestUpsertRating(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()

	educator := createEducator(t, db, "rated@example.com")
	course := createCourse(t, db, educator.ID, 100, 0)
	student := createStudent(t, db, "rater@example.com")
	enroll(t, db, student.ID, course.ID)

	if err := svc.UpsertRating(ctx, course.ID, student.ID, 3); err != nil {
		t.Fatalf("first rating failed: %v", err)
	}

	// Resubmission overwrites instead of adding a row
	if err := svc.UpsertRating(ctx, course.ID, student.ID, 5); err != nil {
		t.Fatalf("second rating failed: %v", err)
	}

	var ratings []model.CourseRating
	db.Where("course_id = ?", course.ID).Find(&ratings)
	if len(ratings) != 1 {
		t.Fatalf("rating rows = %d, want 1", len(ratings))
	}
	if ratings[0].Rating != 5 {
		t.Errorf("stored rating = %d, want 5", ratings[0].Rating)
	}
}

func TestUpsertRatingGuards(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()

	educator := createEducator(t, db, "guards@example.com")
	course := createCourse(t, db, educator.ID, 100, 0)
	stranger := createStudent(t, db, "stranger@example.com")

	if err := svc.UpsertRating(ctx, course.ID, stranger.ID, 0); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("rating 0: got %v, want ErrInvalidInput", err)
	}
	if err := svc.UpsertRating(ctx, course.ID, stranger.ID, 6); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("rating 6: got %v, want ErrInvalidInput", err)
	}
	if err := svc.UpsertRating(ctx, 9999, stranger.ID, 4); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing course: got %v, want ErrNotFound", err)
	}
	if err := svc.UpsertRating(ctx, course.ID, stranger.ID, 4); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("unenrolled rater: got %v, want ErrForbidden", err)
	}
}

func TestListCoursesOnlyPublished(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)

	educator := createEducator(t, db, "published@example.com")
	createCourse(t, db, educator.ID, 100, 0)

	draft := model.Course{EducatorID: educator.ID, Title: "Draft", Price: 50}
	if err := db.Create(&draft).Error; err != nil {
		t.Fatalf("failed to create draft: %v", err)
	}
	// The column defaults to published, so unpublish explicitly
	if err := db.Model(&draft).Update("is_published", false).Error; err != nil {
		t.Fatalf("failed to unpublish draft: %v", err)
	}

	courses, err := svc.ListCourses(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(courses) != 1 {
		t.Errorf("published courses = %d, want 1", len(courses))
	}

	// The educator still sees both
	mine, err := svc.ListByEducator(context.Background(), educator.ID)
	if err != nil {
		t.Fatalf("list by educator failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("educator courses = %d, want 2", len(mine))
	}
}
