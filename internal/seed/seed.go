package seed

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/campuspulse/server/internal/app/models"
	appRepos "github.com/campuspulse/server/internal/app/repositories"
	"github.com/campuspulse/server/internal/config"
	pkgAuth "github.com/campuspulse/server/internal/pkg/auth"
)

const defaultAdminEmail = "admin@campuspulse.app"

// CreateDefaultData seeds the bootstrap admin account if it doesn't exist.
// The password comes from ADMIN_PASSWORD; without it no admin is created,
// which keeps accidental default credentials out of real deployments.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)

	exists, err := userRepo.EmailExists(ctx, defaultAdminEmail)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking for existing admin account")
		return err
	}
	if exists {
		lgr.Debug().Str("email", defaultAdminEmail).Msg("Admin account already present, skipping seed")
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		lgr.Warn().Msg("ADMIN_PASSWORD not set, skipping admin account seed")
		return nil
	}

	hashed, err := pkgAuth.HashPassword(password)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return err
	}

	admin := &appModels.User{
		Name:     "Platform Admin",
		Email:    defaultAdminEmail,
		Password: hashed,
		UserType: appModels.UserTypeAdmin,
		College:  cfg.College.Name,
	}

	id, err := userRepo.Create(ctx, admin)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating admin account")
		return err
	}

	lgr.Info().Int64("userID", id).Str("email", defaultAdminEmail).Msg("Seeded admin account")
	return nil
}
