package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	configfile "github.com/docask/docask-cli/internal/adapters/driven/config/file"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the API key, default model, default store and
other options. Settings live in ` + "`~/.docask/config.toml`" + `.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value and persists it immediately.

Common keys:
  model                  - default generation model
  default_store          - store used when --store is not given
  max_file_size_mb       - upload size limit
  cache_ttl_minutes      - file handle cache freshness window
  registry_backend       - "file" or "sqlite"`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeyCmd = &cobra.Command{
	Use:   "key",
	Short: "Set the API key",
	Long: `Prompts for the API key without echoing it and stores it in the
config file. The DOCASK_API_KEY and GEMINI_API_KEY environment
variables override the stored key.`,
	RunE: runSettingsKey,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Backend]")
	if key := configStore.APIKey(); key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
	cmd.Printf("  Model: %s\n", configStore.Model())
	cmd.Printf("  Request timeout: %ds\n", configStore.RequestTimeoutSeconds())
	cmd.Println()

	cmd.Println("[Documents]")
	cmd.Printf("  Default store: %s\n", configStore.DefaultStoreName())
	cmd.Printf("  Max file size: %d MB\n", configStore.MaxFileSizeBytes()/(1024*1024))
	cmd.Printf("  Handle cache TTL: %d minutes\n", configStore.CacheTTLMinutes())
	cmd.Println()

	cmd.Println("[Registry]")
	cmd.Printf("  Backend: %s\n", configStore.RegistryBackend())
	cmd.Printf("  Config file: %s\n", configStore.Path())
	cmd.Println()

	if backendService != nil {
		cmd.Print("Backend connectivity... ")
		if err := backendService.Ping(context.Background()); err != nil {
			cmd.Printf("FAILED: %v\n", err)
		} else {
			cmd.Println("OK")
		}
	} else {
		cmd.Println("Backend not configured. Run 'docask settings key' to set an API key.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, value := args[0], args[1]
	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("save setting: %w", err)
	}

	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsKey(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Print("Enter API key: ")
	key := readPassword()
	cmd.Println()
	if key == "" {
		return errors.New("API key must not be empty")
	}

	if err := configStore.Set(configfile.KeyAPIKey, key); err != nil {
		return fmt.Errorf("save API key: %w", err)
	}

	cmd.Println("API key saved.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
