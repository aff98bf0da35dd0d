package repomanager

import (
	"context"

	"github.com/abidm-bit/riceKrispies/internal/server/repositories/keys"
	"github.com/abidm-bit/riceKrispies/internal/server/repositories/users"
)

// RepositoryManager hands out the repositories of one storage backend and
// owns its lifecycle.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Keys() keys.Repository
	Ping(ctx context.Context) error
	Close() error
}
