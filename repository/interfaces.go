package repository

import (
	"context"

	"userManagement/models"
)

// UserStore defines operations on User entities. UserRepository is the
// database-backed implementation; handlers depend on this interface.
type UserStore interface {
	Search(ctx context.Context, value string) ([]models.User, error)
	Create(ctx context.Context, username, email, password string) (*models.User, error)
	Update(ctx context.Context, u *models.User) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

var _ UserStore = (*UserRepository)(nil)
