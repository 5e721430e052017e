// Command docask answers questions about uploaded documents using a
// generative backend with file-grounded citations.
package main

import (
	"fmt"
	"os"
	"time"

	gemini "github.com/docask/docask-cli/internal/adapters/driven/backend/gemini"
	configfile "github.com/docask/docask-cli/internal/adapters/driven/config/file"
	storagefile "github.com/docask/docask-cli/internal/adapters/driven/storage/file"
	"github.com/docask/docask-cli/internal/adapters/driven/storage/sqlite"
	"github.com/docask/docask-cli/internal/adapters/driving/cli"
	"github.com/docask/docask-cli/internal/core/ports/driven"
	"github.com/docask/docask-cli/internal/core/services"
	"github.com/docask/docask-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	registryStore, err := newRegistryStore(configStore)
	if err != nil {
		return fmt.Errorf("opening store registry: %w", err)
	}

	// The backend stays nil until an API key is configured; commands
	// that need it report that instead of failing at startup.
	var backend driven.GenerativeBackend
	if apiKey := configStore.APIKey(); apiKey != "" {
		backend, err = gemini.NewBackend(gemini.Config{
			APIKey:  apiKey,
			BaseURL: configStore.GetString(configfile.KeyBaseURL),
			Timeout: time.Duration(configStore.RequestTimeoutSeconds()) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("configuring backend: %w", err)
		}
	}

	var promptStore driven.PromptStore
	if ps, err := configfile.NewPromptStore(""); err != nil {
		logger.Warn("Prompt store unavailable, using built-in prompts: %v", err)
	} else {
		promptStore = ps
	}

	registry := services.NewRegistryService(registryStore, backend)
	cache := services.NewHandleCache(backend, nil,
		time.Duration(configStore.CacheTTLMinutes())*time.Minute)
	query := services.NewQueryService(registry, cache, backend, promptStore, configStore.Model())
	upload := services.NewUploadService(registry, backend, configStore.MaxFileSizeBytes())

	cli.Init(cli.Services{
		Registry:     registry,
		Query:        query,
		Upload:       upload,
		Backend:      backend,
		Config:       configStore,
		DefaultStore: configStore.DefaultStoreName(),
	})

	return cli.Execute(version)
}

// newRegistryStore opens the registry persistence selected in config.
func newRegistryStore(cfg *configfile.ConfigStore) (driven.RegistryStore, error) {
	switch backend := cfg.RegistryBackend(); backend {
	case "sqlite":
		return sqlite.NewRegistryStore("")
	case "file", "":
		return storagefile.NewRegistryStore(cfg.GetString(configfile.KeyRegistryPath))
	default:
		return nil, fmt.Errorf("unknown registry backend %q", backend)
	}
}
