package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/campuspulse/server/internal/app/controllers"
	appMigrations "github.com/campuspulse/server/internal/app/migrations"
	appRepos "github.com/campuspulse/server/internal/app/repositories"
	appRoutes "github.com/campuspulse/server/internal/app/routes"
	appServices "github.com/campuspulse/server/internal/app/services"
	"github.com/campuspulse/server/internal/config"
	"github.com/campuspulse/server/internal/db"
	appMiddleware "github.com/campuspulse/server/internal/middleware"
	pkgAuth "github.com/campuspulse/server/internal/pkg/auth"
	"github.com/campuspulse/server/internal/pkg/email"
	"github.com/campuspulse/server/internal/pkg/filestorage"
	"github.com/campuspulse/server/internal/pkg/helpers"
	"github.com/campuspulse/server/internal/pkg/logger"
	"github.com/campuspulse/server/internal/pkg/qr"
	"github.com/campuspulse/server/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService            *appServices.AuthService
	ClubService            *appServices.ClubService
	EventService           *appServices.EventService
	RegistrationService    *appServices.RegistrationService
	FileService            *appServices.FileService
	AuthController         *appControllers.AuthController
	ClubController         *appControllers.ClubController
	EventController        *appControllers.EventController
	RegistrationController *appControllers.RegistrationController
	FileController         *appControllers.FileController
	AuthMiddleware         *appMiddleware.AuthMiddleware
	Repos                  *appRepos.Repositories
	JWTService             *pkgAuth.JWTService
	EmailService           email.EmailService
	QRSigner               *qr.Signer
	FileStorage            filestorage.FileStorage
	Logger                 zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join("configs", "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(context.Background(), migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, cfg, lgr); err != nil {
		// Seeding failure is not fatal for startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	// File storage base URL must match the static file serving path
	var err error
	baseURL := cfg.Server.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Server.Port
	}
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, baseURL+"/uploads")
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.EmailService = email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		AppName:   cfg.SMTP.FromName,
	}, lgr)

	deps.QRSigner = qr.NewSigner(cfg.QR.Secret)

	registrationTTL := helpers.ParseDuration(cfg.OTP.RegistrationTTL, 10*time.Minute)
	facultyTTL := helpers.ParseDuration(cfg.OTP.FacultyTTL, 15*time.Minute)
	resendInterval := helpers.ParseDuration(cfg.OTP.ResendInterval, 60*time.Second)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.PendingRegistrationRepository,
		deps.Repos.ClubRepository,
		deps.Repos.TokenRepository,
		deps.JWTService,
		deps.EmailService,
		cfg.College.Name,
		cfg.College.EmailDomain,
		registrationTTL,
		resendInterval,
		cfg.OTP.AllowTestBypass,
		lgr,
	)

	deps.ClubService = appServices.NewClubService(
		deps.Repos.ClubRepository,
		deps.Repos.UserRepository,
		deps.Repos.FileRepository,
		deps.FileStorage,
		deps.EmailService,
		cfg.College.Name,
		facultyTTL,
		resendInterval,
		cfg.OTP.AllowTestBypass,
		lgr,
	)

	deps.EventService = appServices.NewEventService(
		deps.Repos.EventRepository,
		deps.Repos.ClubRepository,
		deps.Repos.RegistrationRepository,
		deps.Repos.FileRepository,
		deps.QRSigner,
		lgr,
	)

	deps.RegistrationService = appServices.NewRegistrationService(
		deps.Repos.RegistrationRepository,
		deps.Repos.EventRepository,
		deps.Repos.UserRepository,
		deps.Repos.FileRepository,
		deps.FileStorage,
		deps.QRSigner,
		lgr,
	)

	deps.FileService = appServices.NewFileService(deps.Repos.FileRepository, deps.FileStorage, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Repos.UserRepository)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.ClubController = appControllers.NewClubController(deps.ClubService, lgr)
	deps.EventController = appControllers.NewEventController(deps.EventService, lgr)
	deps.RegistrationController = appControllers.NewRegistrationController(deps.RegistrationService, lgr)
	deps.FileController = appControllers.NewFileController(deps.FileService, lgr)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.ClubController,
		deps.EventController,
		deps.RegistrationController,
		deps.FileController,
		deps.AuthMiddleware,
	)

	return router
}
