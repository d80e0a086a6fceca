package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository                *UserRepository
	PendingRegistrationRepository *PendingRegistrationRepository
	ClubRepository                *ClubRepository
	EventRepository               *EventRepository
	RegistrationRepository        *RegistrationRepository
	TokenRepository               *TokenRepository
	FileRepository                *FileRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:                NewUserRepository(db),
		PendingRegistrationRepository: NewPendingRegistrationRepository(db),
		ClubRepository:                NewClubRepository(db),
		EventRepository:               NewEventRepository(db),
		RegistrationRepository:        NewRegistrationRepository(db),
		TokenRepository:               NewTokenRepository(db),
		FileRepository:                NewFileRepository(db),
	}
}
