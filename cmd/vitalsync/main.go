// Command vitalsync syncs a local health store to the vitalsync API.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"

	"github.com/youngmin9/vitalsync/internal/adapters/driven/api"
	"github.com/youngmin9/vitalsync/internal/adapters/driven/auth"
	"github.com/youngmin9/vitalsync/internal/adapters/driven/config/file"
	"github.com/youngmin9/vitalsync/internal/adapters/driven/healthstore/filestore"
	"github.com/youngmin9/vitalsync/internal/adapters/driven/storage/sqlite"
	"github.com/youngmin9/vitalsync/internal/adapters/driving/cli"
	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
	"github.com/youngmin9/vitalsync/internal/core/services"
	"github.com/youngmin9/vitalsync/internal/logger"
)

// Set via ldflags.
var version = "dev"

const keyFile = "secret.key"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return errors.Wrap(err, "opening config")
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return err
	}
	logger.SetEnabled(settings.LogsEnabled)

	home, err := os.UserHomeDir()
	if err != nil {
		return errors.Wrap(err, "getting home directory")
	}
	dataDir := settings.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(home, ".vitalsync", "data")
	}
	healthDir := settings.HealthDir
	if healthDir == "" {
		healthDir = filepath.Join(home, ".vitalsync", "health")
	}

	passphrase, err := loadPassphrase(dataDir)
	if err != nil {
		return err
	}
	store, err := sqlite.NewStore(dataDir, passphrase)
	if err != nil {
		return errors.Wrap(err, "opening state database")
	}
	defer store.Close()

	secure := store.SecureStore()
	client := services.Shared(func() *services.Client {
		return services.NewClient(services.ClientConfig{
			SecureStore: secure,
			SyncStore:   store.SyncStateStore(),
			Health:      filestore.New(healthDir),
			Session:     auth.NewRotatingToken(secure, auth.NewHTTPExchanger()),
			StaticAuth: func(key string) driven.AuthStrategy {
				return auth.NewStaticKey(key)
			},
			NewAPIClient: func(env domain.Environment, strategy driven.AuthStrategy) driven.APIClient {
				return api.NewClient(env, strategy)
			},
		})
	})
	defer client.Close()

	restored, err := client.Restore(ctx)
	if err != nil {
		logger.Warn("could not restore session: %v", err)
	} else if restored {
		logger.Debug("restored session from %s", dataDir)
	}

	cli.SetVersion(version)
	cli.SetClient(client)
	cli.SetSettingsService(settingsService)
	cli.SetSchedulerFactory(func(cfg domain.SchedulerConfig) driving.Scheduler {
		return services.NewScheduler(cfg, client)
	})
	return cli.Execute(ctx)
}

// loadPassphrase returns the key protecting the state database. It comes
// from VITALSYNC_PASSPHRASE or a key file generated on first run.
func loadPassphrase(dataDir string) ([]byte, error) {
	if p := os.Getenv("VITALSYNC_PASSPHRASE"); p != "" {
		return []byte(p), nil
	}

	path := filepath.Join(dataDir, keyFile)
	data, err := os.ReadFile(path)
	if err == nil {
		key := strings.TrimSpace(string(data))
		if key == "" {
			return nil, errors.Newf("key file %s is empty", path)
		}
		return []byte(key), nil
	}
	if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "reading key file")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, errors.Wrap(err, "generating key")
	}
	key := hex.EncodeToString(raw)
	if err := os.WriteFile(path, []byte(key+"\n"), 0600); err != nil {
		return nil, errors.Wrap(err, "writing key file")
	}
	return []byte(key), nil
}
