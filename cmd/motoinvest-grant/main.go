// Command motoinvest-grant gives an email access to the app for a number of
// days, creating or extending its authorization record.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"motoinvest/internal/backend"
	"motoinvest/internal/cli"
	"motoinvest/internal/config"
	"motoinvest/internal/core"
	"motoinvest/internal/log"
	"motoinvest/internal/store"
)

type options struct {
	email string
	days  int
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("motoinvest-grant", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.email, "email", "", "email to authorize")
	fs.IntVar(&opts.days, "days", 30, "days of access from now")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.email = strings.TrimSpace(opts.email)
	if !strings.Contains(opts.email, "@") {
		return options{}, errors.New("-email must be a valid address")
	}
	if opts.days < 1 || opts.days > 3660 {
		return options{}, fmt.Errorf("-days %d: must be between 1 and 3660", opts.days)
	}
	return opts, nil
}

// grant writes an authorization that expires days after now.
func grant(ctx context.Context, st store.AuthorizationStore, opts options, now time.Time) (core.AuthorizationRecord, error) {
	rec := core.AuthorizationRecord{
		Email:     strings.ToLower(opts.email),
		ExpiresAt: now.UTC().AddDate(0, 0, opts.days),
	}
	if err := st.UpsertAuthorization(ctx, rec); err != nil {
		return core.AuthorizationRecord{}, fmt.Errorf("save authorization: %w", err)
	}
	return rec, nil
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentAuth)

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Error("Invalid arguments", log.FieldError, err)
		os.Exit(2)
	}

	backendCfg, err := backend.FromAppConfig(config.Load())
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	if backendCfg.Type == backend.MemoryBackend {
		logger.Error("Memory backend does not persist authorizations; set DATA_BACKEND to sqlite or postgres")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", log.FieldError, err)
		os.Exit(1)
	}
	defer result.Close()

	rec, err := grant(ctx, result.Store, opts, time.Now())
	if err != nil {
		logger.Error("Grant failed", log.FieldError, err, "email", opts.email)
		result.Close()
		os.Exit(1)
	}
	logger.Info("Access granted", "email", rec.Email, "expires_at", rec.ExpiresAt.Format(time.RFC3339))
}
