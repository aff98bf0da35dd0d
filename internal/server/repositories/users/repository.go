package users

import (
	"context"

	"github.com/abidm-bit/riceKrispies/internal/server/models"
)

// Repository stores user accounts. Create must reject a duplicate email with
// common.ErrorAlreadyExists atomically; lookups of unknown users return
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}
