package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/abidm-bit/riceKrispies/internal/common"
	"github.com/abidm-bit/riceKrispies/internal/server/models"
	"github.com/abidm-bit/riceKrispies/internal/server/repositories/repomanager"
)

// KeyService hands out one-time keys.
type KeyService struct {
	repomanager repomanager.RepositoryManager
}

func NewKeyService(m repomanager.RepositoryManager) *KeyService {
	return &KeyService{repomanager: m}
}

// Allocate burns one unburned key for userID. It fails with
// common.ErrNoAvailableKeys when the pool is empty and never retries.
func (s *KeyService) Allocate(ctx context.Context, userID int64) (*models.Key, error) {
	if userID <= 0 {
		return nil, common.ErrorValidation
	}

	k, err := s.repomanager.Keys().Claim(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNoAvailableKeys) {
			return nil, common.ErrNoAvailableKeys
		}
		return nil, fmt.Errorf("%w: claim key: %v", common.ErrorInternal, err)
	}
	return k, nil
}

// Available reports how many keys can still be allocated.
func (s *KeyService) Available(ctx context.Context) (int64, error) {
	return s.repomanager.Keys().CountUnburned(ctx)
}
