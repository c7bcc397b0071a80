package services

import (
	"context"
	"errors"
	"strings"

	"github.com/skillforest/lms-api/apperr"
	"github.com/skillforest/lms-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdentityService owns user records and role assignment. Emails are the
// natural key: they are lowercased at this boundary so lookups are
// case-insensitive everywhere.
type IdentityService struct {
	db *gorm.DB
}

// NewIdentityService creates a new identity service
func NewIdentityService(db *gorm.DB) *IdentityService {
	return &IdentityService{db: db}
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user on first sight of an email and returns the existing
// record unchanged on every later call. A repeated registration is the
// expected upsert path, not a conflict; created reports which case happened.
func (s *IdentityService) Register(ctx context.Context, name, email, imageURL string) (*model.User, bool, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, false, apperr.InvalidInput("invalid email address")
	}
	if strings.TrimSpace(name) == "" {
		return nil, false, apperr.InvalidInput("name is required")
	}

	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user = model.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		ImageURL: imageURL,
		Role:     model.RoleStudent,
	}

	// Two concurrent first registrations race on the unique email index; the
	// loser re-reads the winner's row.
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&user).Error; err != nil {
		return nil, false, err
	}
	if user.ID == 0 {
		if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
			return nil, false, err
		}
		return &user, false, nil
	}

	return &user, true, nil
}

// PromoteToEducator sets role = educator for the user with the given email.
// Promoting an educator again is a no-op success; demotion does not exist.
func (s *IdentityService) PromoteToEducator(ctx context.Context, email string) (*model.User, error) {
	email = NormalizeEmail(email)

	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %s not found", email)
		}
		return nil, err
	}

	if user.IsEducator() {
		return &user, nil
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("role", model.RoleEducator).Error; err != nil {
		return nil, err
	}
	user.Role = model.RoleEducator

	return &user, nil
}

// FindByEmail looks up a user by email, case-insensitively
func (s *IdentityService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %s not found", email)
		}
		return nil, err
	}
	return &user, nil
}
