// Package keys provides the key pool repositories. The PostgreSQL variant
// claims keys with a single conditional UPDATE; the in-memory variant uses one
// mutex-guarded critical section.
package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abidm-bit/riceKrispies/internal/common"
	"github.com/abidm-bit/riceKrispies/internal/dbx"
	"github.com/abidm-bit/riceKrispies/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Claim burns an arbitrary unburned key for userID. Rows locked by a
// concurrent claim are skipped, so two callers never receive the same key.
func (r *PostgresRepository) Claim(ctx context.Context, userID int64) (*models.Key, error) {
	query :=
		`UPDATE all_keys SET burned = TRUE, burned_by = $1
		 WHERE key = (
		   SELECT key FROM all_keys
		   WHERE burned = FALSE
		   LIMIT 1
		   FOR UPDATE SKIP LOCKED
		 ) AND burned = FALSE
		 RETURNING key, burned, burned_by`

	key := &models.Key{}
	var burnedBy sql.NullInt64

	err := r.db.QueryRowContext(ctx, query, userID).Scan(&key.Token, &key.Burned, &burnedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNoAvailableKeys
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if burnedBy.Valid {
		id := burnedBy.Int64
		key.BurnedBy = &id
	}

	return key, nil
}

// InsertBatch adds unburned keys in one transaction. Tokens that already exist
// are skipped; the number of rows actually inserted is returned.
func (r *PostgresRepository) InsertBatch(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	query :=
		`INSERT INTO all_keys (key, burned) VALUES ($1, FALSE)
		 ON CONFLICT (key) DO NOTHING`

	var inserted int64
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, token := range tokens {
			res, err := tx.ExecContext(ctx, query, token)
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

func (r *PostgresRepository) CountUnburned(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM all_keys WHERE burned = FALSE`

	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
