package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skillforest/lms-api/config"
	"github.com/skillforest/lms-api/database"
	"github.com/skillforest/lms-api/handlers"
	auth_handlers "github.com/skillforest/lms-api/handlers/auth"
	course_handlers "github.com/skillforest/lms-api/handlers/course"
	educator_handlers "github.com/skillforest/lms-api/handlers/educator"
	payment_handlers "github.com/skillforest/lms-api/handlers/payment"
	user_handlers "github.com/skillforest/lms-api/handlers/user"
	"github.com/skillforest/lms-api/services"
	"github.com/skillforest/lms-api/services/media"
	"github.com/skillforest/lms-api/services/payment"
	"github.com/skillforest/lms-api/utils/auth"
	"github.com/skillforest/lms-api/utils/cache"
	"github.com/skillforest/lms-api/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	getEnv, err := config.Get()
	if err != nil {
		log.Fatal("Failed to load configuration")
	}

	jwtSecret := getEnv.JWT_SECRET
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := getEnv.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "skillforest-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs brute force protection and webhook dedup locks; the app
	// still runs without it
	redisURL := getEnv.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// External collaborators
	paymentClient := payment.NewClient(
		getEnv.PAYMENT_GATEWAY_URL,
		getEnv.PAYMENT_API_KEY,
		getEnv.PAYMENT_WEBHOOK_SECRET,
		0,
	)

	var spacesClient *media.SpacesClient
	if getEnv.SPACES_ACCESS_KEY != "" {
		spacesClient, err = media.NewSpacesClient(media.SpacesConfig{
			AccessKey: getEnv.SPACES_ACCESS_KEY,
			SecretKey: getEnv.SPACES_SECRET_KEY,
			Bucket:    getEnv.SPACES_BUCKET,
			Region:    getEnv.SPACES_REGION,
			Endpoint:  getEnv.SPACES_ENDPOINT,
			CDNURL:    getEnv.SPACES_CDN_URL,
		})
		if err != nil {
			log.Printf("Warning: Failed to create Spaces client: %v. Thumbnail uploads will be disabled.", err)
		}
	}

	// Domain services
	emailService := services.NewEmailService()
	purchaseService := services.NewPurchaseService(db, paymentClient, getEnv.CURRENCY)
	enrollmentService := services.NewEnrollmentService(db, redisCache, emailService)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, emailService, getEnv.APP_URL)
	courseHandler := course_handlers.NewCourseHandler(db, enrollmentService)
	educatorHandler := educator_handlers.NewEducatorHandler(db, enrollmentService, spacesClient)
	userHandler := user_handlers.NewUserHandler(db, purchaseService, enrollmentService, getEnv.APP_URL)
	webhookHandler := payment_handlers.NewWebhookHandler(paymentClient, enrollmentService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)

	// Auth routes (protected)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Public catalog; a token, when present, unlocks enrolled content
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:id", authMiddleware.Optional(), courseHandler.GetCourse)

	// Student routes (protected)
	userGroup := api.Group("/user", authMiddleware.Required())
	userGroup.Get("/enrollments", userHandler.ListEnrollments)
	userGroup.Post("/purchases", userHandler.InitiatePurchase)
	userGroup.Get("/purchases", userHandler.ListPurchases)
	userGroup.Post("/courses/:id/progress", userHandler.MarkLectureComplete)
	userGroup.Get("/courses/:id/progress", userHandler.GetProgress)
	userGroup.Post("/courses/:id/rating", userHandler.RateCourse)

	// Becoming an educator only needs a valid login; everything else in the
	// group needs the role
	api.Post("/educator/become", authMiddleware.Required(), educatorHandler.BecomeEducator)

	educatorGroup := api.Group("/educator", authMiddleware.RequireEducator())
	educatorGroup.Post("/courses", educatorHandler.CreateCourse)
	educatorGroup.Get("/courses", educatorHandler.ListMyCourses)
	educatorGroup.Get("/dashboard", educatorHandler.Dashboard)
	educatorGroup.Get("/courses/:id/students", educatorHandler.EnrolledStudents)

	// Gateway webhook (authenticated by signature, not JWT)
	api.Post("/payments/webhook", webhookHandler.HandleWebhook)
}
