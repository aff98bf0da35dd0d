// Command keyloader generates product keys or imports a key CSV (local file
// or s3://bucket/object) into the key pool.
//
//	keyloader -generate 100000 -out keys.csv
//	keyloader -source s3://vault/keys.csv -d postgres://... -u admin -p secret -e http://127.0.0.1:9000
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/abidm-bit/riceKrispies/internal/keyloader"
	"github.com/abidm-bit/riceKrispies/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logging.NewJSONLogger(os.Stderr, "info")

	if err := keyloader.Run(ctx, os.Args[1:], os.Stdout, log); err != nil {
		log.Error(ctx, "keyloader failed", "error", err)
		stop()
		os.Exit(1)
	}
}
