package keys

import (
	"context"

	"github.com/abidm-bit/riceKrispies/internal/server/models"
)

// Repository owns the key pool. Claim is the only operation that mutates an
// existing key: it burns one unburned key for userID in a single atomic step,
// or returns common.ErrNoAvailableKeys leaving the pool untouched.
type Repository interface {
	Claim(ctx context.Context, userID int64) (*models.Key, error)
	InsertBatch(ctx context.Context, tokens []string) (int64, error)
	CountUnburned(ctx context.Context) (int64, error)
}
