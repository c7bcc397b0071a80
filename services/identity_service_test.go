package services

import (
	"context"
	"errors"
	"testing"

	"github.com/skillforest/lms-api/apperr"
	"github.com/skillforest/lms-api/model"
)

func TestRegisterIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db)
	ctx := context.Background()

	first, created, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "")
	if err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if !created {
		t.Error("first register should report created=true")
	}
	if first.Role != model.RoleStudent {
		t.Errorf("new user role = %q, want %q", first.Role, model.RoleStudent)
	}

	// Same email again, different name and casing: nothing changes
	second, created, err := svc.Register(ctx, "Someone Else", "ADA@Example.COM", "")
	if err != nil {
		t.Fatalf("second register failed: %v", err)
	}
	if created {
		t.Error("second register should report created=false")
	}
	if second.ID != first.ID {
		t.Errorf("second register returned user %d, want %d", second.ID, first.ID)
	}
	if second.Name != "Ada Lovelace" {
		t.Errorf("existing user name was mutated to %q", second.Name)
	}

	var count int64
	db.Model(&model.User{}).Count(&count)
	if count != 1 {
		t.Errorf("user count = %d, want 1", count)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "No Email", "not-an-email", ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad email: got %v, want ErrInvalidInput", err)
	}
	if _, _, err := svc.Register(ctx, "   ", "ok@example.com", ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("blank name: got %v, want ErrInvalidInput", err)
	}
}

func TestPromoteToEducator(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db)
	ctx := context.Background()

	user := createStudent(t, db, "promo@example.com")

	promoted, err := svc.PromoteToEducator(ctx, "Promo@Example.com")
	if err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if promoted.Role != model.RoleEducator {
		t.Errorf("role = %q, want %q", promoted.Role, model.RoleEducator)
	}

	// Promoting an educator again is a no-op success
	again, err := svc.PromoteToEducator(ctx, user.Email)
	if err != nil {
		t.Fatalf("second promote failed: %v", err)
	}
	if again.Role != model.RoleEducator {
		t.Errorf("role after re-promote = %q", again.Role)
	}

	var stored model.User
	db.First(&stored, user.ID)
	if stored.Role != model.RoleEducator {
		t.Errorf("stored role = %q, want educator", stored.Role)
	}
}

func TestPromoteUnknownEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db)

	_, err := svc.PromoteToEducator(context.Background(), "ghost@example.com")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestFindByEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewIdentityService(db)
	ctx := context.Background()

	user := createStudent(t, db, "find@example.com")

	found, err := svc.FindByEmail(ctx, "FIND@example.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("found user %d, want %d", found.ID, user.ID)
	}

	if _, err := svc.FindByEmail(ctx, "missing@example.com"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
