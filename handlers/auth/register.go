package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skillforest/lms-api/model"
	"github.com/skillforest/lms-api/services"
	authutil "github.com/skillforest/lms-api/utils/auth"
	"github.com/skillforest/lms-api/utils/middleware"
	"github.com/skillforest/lms-api/utils/response"
	"github.com/skillforest/lms-api/utils/validation"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	identityService      *services.IdentityService
	emailService         *services.EmailService
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	appURL               string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, bruteForceProtection *middleware.BruteForceProtection, emailService *services.EmailService, appURL string) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		identityService:      services.NewIdentityService(db),
		emailService:         emailService,
		jwtManager:           jwtManager,
		blacklistService:     authutil.NewBlacklistService(db),
		bruteForceProtection: bruteForceProtection,
		appURL:               appURL,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty"` // optional for provider-synced accounts
	ImageURL string `json:"image_url,omitempty"`
}

// RegisterResponse represents a successful registration response
type RegisterResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresIn    int          `json:"expires_in,omitempty"` // in seconds
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		ImageURL:  user.ImageURL,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// Register handles user registration. Registration is idempotent by email:
// re-registering an existing address returns the existing account untouched
// instead of a conflict, so identity-provider sync can replay safely.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.Name == "" {
		return response.BadRequest(c, "Email and name are required")
	}

	if !validation.ValidateEmail(req.Email) {
		return response.BadRequest(c, "Invalid email format")
	}

	if req.Password != "" && !authutil.IsPasswordValid(req.Password) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	user, created, err := h.identityService.Register(c.Context(), req.Name, req.Email, req.ImageURL)
	if err != nil {
		return response.FromError(c, err)
	}

	if !created {
		// Existing account: no mutation, no fresh tokens
		return response.SuccessWithMessage(c, "User already exists", RegisterResponse{
			User: toUserResponse(user),
		})
	}

	if req.Password != "" {
		hashedPassword, err := authutil.HashPassword(req.Password)
		if err != nil {
			return response.InternalServerError(c, "Failed to process password")
		}
		if err := h.db.Model(user).Update("password_hash", hashedPassword).Error; err != nil {
			return response.InternalServerError(c, "Failed to store credentials")
		}
	}

	accessToken, _, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}

	refreshToken, _, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	res := RegisterResponse{
		User:         toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    h.jwtManager.AccessTokenExpirySeconds(),
	}

	return response.Created(c, res)
}
