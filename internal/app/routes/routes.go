package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuspulse/server/internal/app/controllers"
	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	clubController *controllers.ClubController,
	eventController *controllers.EventController,
	registrationController *controllers.RegistrationController,
	fileController *controllers.FileController,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/verify-email", authController.VerifyEmail)
		auth.POST("/resend-otp", authController.ResendOTP)
		auth.POST("/check-user-exists", authController.CheckUserExists)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
	}

	// --- Public browse routes ---
	v1.GET("/clubs", clubController.GetClubs)
	v1.GET("/clubs/:id", clubController.GetClubByID)
	v1.GET("/events", eventController.GetEvents)
	v1.GET("/events/:id", eventController.GetEventByID)
	v1.GET("/files/:id", fileController.GetFile)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/me", authController.GetProfile)

		// Club application pipeline, organizer only
		clubs := authenticated.Group("/clubs")
		clubsOrganizer := clubs.Group("")
		clubsOrganizer.Use(authMiddleware.RoleRequired(models.UserTypeOrganizer))
		{
			clubsOrganizer.POST("", clubController.CreateClub)
			clubsOrganizer.POST("/verify-faculty", clubController.VerifyFaculty)
			clubsOrganizer.POST("/resend-faculty-otp", clubController.ResendFacultyOTP)
			clubsOrganizer.GET("/me", clubController.GetMyClub)
		}

		// Admin review seam
		clubsAdmin := clubs.Group("")
		clubsAdmin.Use(authMiddleware.RoleRequired(models.UserTypeAdmin))
		{
			clubsAdmin.PATCH("/:id/status", clubController.UpdateStatus)
		}

		// Event management requires an approved club
		events := authenticated.Group("/events")
		eventsVerified := events.Group("")
		eventsVerified.Use(
			authMiddleware.RoleRequired(models.UserTypeOrganizer),
			authMiddleware.ClubVerificationRequired(),
		)
		{
			eventsVerified.POST("", eventController.CreateEvent)
			eventsVerified.PUT("/:id", eventController.UpdateEvent)
			eventsVerified.DELETE("/:id", eventController.DeleteEvent)
			eventsVerified.POST("/:id/attendance", eventController.MarkAttendance)
			eventsVerified.GET("/:id/registrations", registrationController.GetEventRegistrations)
		}

		// Students sign up for events
		events.POST("/:id/register",
			authMiddleware.RoleRequired(models.UserTypeStudent),
			registrationController.RegisterForEvent)

		registrations := authenticated.Group("/registrations")
		{
			registrations.GET("/me", registrationController.GetMyRegistrations)
			registrations.POST("/:id/payment-proof", registrationController.UploadPaymentProof)
			registrations.GET("/:id/qr", registrationController.GetQRCode)
			registrations.PATCH("/:id/status",
				authMiddleware.RoleRequired(models.UserTypeOrganizer),
				registrationController.UpdateStatus)
		}

		// Payment QR images are uploaded ahead of event creation
		authenticated.POST("/files/payment-qr",
			authMiddleware.RoleRequired(models.UserTypeOrganizer),
			fileController.UploadPaymentQR)
	}
}
