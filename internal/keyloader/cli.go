package keyloader

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/abidm-bit/riceKrispies/internal/flagx"
	"github.com/abidm-bit/riceKrispies/internal/logging"
	"github.com/abidm-bit/riceKrispies/internal/server/config"
	"github.com/abidm-bit/riceKrispies/internal/server/repositories/repomanager"
)

// Options are the keyloader's own flags. Database and S3 settings come from
// the server configuration (same JSON file and flags).
type Options struct {
	Source    string
	Generate  int
	Out       string
	BatchSize int
	BatchRPS  float64
}

func parseOptions(args []string) (Options, error) {
	o := Options{BatchSize: DefaultBatchSize, BatchRPS: DefaultBatchRPS}

	fs := flag.NewFlagSet("keyloader", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.Source, "source", "", "CSV path or s3://bucket/object to import")
	fs.IntVar(&o.Generate, "generate", 0, "number of keys to generate")
	fs.StringVar(&o.Out, "out", "", "output file for generated keys (stdout when empty)")
	fs.IntVar(&o.BatchSize, "batch-size", o.BatchSize, "keys per insert transaction")
	fs.Float64Var(&o.BatchRPS, "batch-rps", o.BatchRPS, "batches per second")

	if err := fs.Parse(flagx.FilterArgs(args, "source", "generate", "out", "batch-size", "batch-rps")); err != nil {
		return o, err
	}
	if (o.Source == "") == (o.Generate <= 0) {
		return o, errors.New("exactly one of -source or -generate is required")
	}
	return o, nil
}

// openStore is a seam for tests.
var openStore = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required to import keys (-d)")
	}
	return repomanager.OpenPostgres(ctx, dsn)
}

// Run executes the keyloader with command-line args (without the program
// name). Generated keys go to -out or stdout.
func Run(ctx context.Context, args []string, stdout io.Writer, log logging.Logger) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	if opts.Generate > 0 {
		return generate(opts, stdout)
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	l := NewLoader(store.Keys(), opts.BatchSize, opts.BatchRPS, log)
	res, err := l.LoadSource(ctx, opts.Source, S3Config{
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "read %d keys, inserted %d in %d batches\n", res.Read, res.Inserted, res.Batches)
	return nil
}

func generate(opts Options, stdout io.Writer) (err error) {
	keys, err := Generate(opts.Generate)
	if err != nil {
		return err
	}

	w := stdout
	if opts.Out != "" {
		var f *os.File
		f, err = os.Create(opts.Out)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return WriteCSV(w, keys)
}
