package repomanager

import (
	"context"

	"github.com/abidm-bit/riceKrispies/internal/server/repositories/keys"
	"github.com/abidm-bit/riceKrispies/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. Used when no
// database DSN is configured.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
	keys  *keys.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users: users.NewMemoryRepository(),
		keys:  keys.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *MemoryRepositoryManager) Keys() keys.Repository { return m.keys }

func (m *MemoryRepositoryManager) Ping(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
