package keyloader

import (
	"context"
	"fmt"

	"github.com/abidm-bit/riceKrispies/internal/logging"
	"golang.org/x/time/rate"
)

const (
	DefaultBatchSize = 1000
	DefaultBatchRPS  = 10
)

// Inserter stores a batch of unburned keys and reports how many were new.
type Inserter interface {
	InsertBatch(ctx context.Context, tokens []string) (int64, error)
}

// Result summarizes one load.
type Result struct {
	Read     int
	Inserted int64
	Batches  int
}

// Loader inserts keys in fixed-size batches, at most rps batches per second.
type Loader struct {
	store     Inserter
	batchSize int
	limiter   *rate.Limiter
	logger    logging.Logger
}

func NewLoader(store Inserter, batchSize int, rps float64, l logging.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if rps <= 0 {
		rps = DefaultBatchRPS
	}
	if l == nil {
		l = logging.Discard()
	}
	return &Loader{
		store:     store,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    l.With("module", "keyloader"),
	}
}

// Load inserts tokens. Keys already present are skipped by the store. On
// error the returned Result covers the batches committed so far.
func (l *Loader) Load(ctx context.Context, tokens []string) (Result, error) {
	res := Result{Read: len(tokens)}

	for start := 0; start < len(tokens); start += l.batchSize {
		end := min(start+l.batchSize, len(tokens))

		if err := l.limiter.Wait(ctx); err != nil {
			return res, err
		}

		n, err := l.store.InsertBatch(ctx, tokens[start:end])
		if err != nil {
			return res, fmt.Errorf("insert batch %d: %w", res.Batches+1, err)
		}
		res.Inserted += n
		res.Batches++

		l.logger.Debug(ctx, "batch inserted", "batch", res.Batches, "size", end-start, "inserted", n)
	}

	l.logger.Info(ctx, "keys loaded", "read", res.Read, "inserted", res.Inserted, "batches", res.Batches)
	return res, nil
}

// LoadSource parses the CSV at source (path or s3:// URI) and loads it.
func (l *Loader) LoadSource(ctx context.Context, source string, s3cfg S3Config) (Result, error) {
	rc, err := Open(ctx, source, s3cfg)
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	tokens, err := ParseCSV(rc)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", source, err)
	}
	return l.Load(ctx, tokens)
}
