package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Config keys.
const (
	KeyAPIKey          = "api_key"
	KeyBaseURL         = "base_url"
	KeyModel           = "model"
	KeyDefaultStore    = "default_store"
	KeyMaxFileSizeMB   = "max_file_size_mb"
	KeyCacheTTLMinutes = "cache_ttl_minutes"
	KeyRequestTimeout  = "request_timeout_seconds"
	KeyRegistryBackend = "registry_backend"
	KeyRegistryPath    = "registry_path"
)

// Setting defaults applied when the config file does not set a key.
const (
	DefaultModel           = "gemini-2.5-flash"
	DefaultStore           = "rag-documents"
	DefaultMaxFileSizeMB   = 100
	DefaultCacheTTLMinutes = 60
	DefaultRequestTimeout  = 120
	DefaultRegistryBackend = "file"
)

// Environment variables that override the stored API key, checked in
// order.
var apiKeyEnvVars = []string{"DOCASK_API_KEY", "GEMINI_API_KEY"}

// ConfigStore is a TOML-backed settings store. Configuration lives in
// a single file within the docask config directory; nested tables are
// flattened into dot-notation keys.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a TOML config store.
// If configDir is empty, defaults to ~/.docask/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".docask")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}

	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	// TOML integers are parsed as int64
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}

	b, ok := val.(bool)
	if !ok {
		return false
	}
	return b
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.data)
	if err != nil {
		return err
	}

	// Restricted permissions: the file may hold the API key.
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, start empty
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}

	if loaded == nil {
		loaded = make(map[string]any)
	}

	s.data = flattenMap(loaded, "")
	return nil
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// APIKey returns the API key, with environment variables taking
// precedence over the stored value.
func (s *ConfigStore) APIKey() string {
	for _, env := range apiKeyEnvVars {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return s.GetString(KeyAPIKey)
}

// Model returns the configured model name or the default.
func (s *ConfigStore) Model() string {
	if m := s.GetString(KeyModel); m != "" {
		return m
	}
	return DefaultModel
}

// DefaultStoreName returns the configured default store name.
func (s *ConfigStore) DefaultStoreName() string {
	if name := s.GetString(KeyDefaultStore); name != "" {
		return name
	}
	return DefaultStore
}

// MaxFileSizeBytes returns the upload size limit in bytes.
func (s *ConfigStore) MaxFileSizeBytes() uint64 {
	mb := s.GetInt(KeyMaxFileSizeMB)
	if mb <= 0 {
		mb = DefaultMaxFileSizeMB
	}
	return uint64(mb) * 1024 * 1024
}

// CacheTTLMinutes returns the handle cache TTL in minutes.
func (s *ConfigStore) CacheTTLMinutes() int {
	if m := s.GetInt(KeyCacheTTLMinutes); m > 0 {
		return m
	}
	return DefaultCacheTTLMinutes
}

// RequestTimeoutSeconds returns the backend request timeout.
func (s *ConfigStore) RequestTimeoutSeconds() int {
	if t := s.GetInt(KeyRequestTimeout); t > 0 {
		return t
	}
	return DefaultRequestTimeout
}

// RegistryBackend returns "file" or "sqlite".
func (s *ConfigStore) RegistryBackend() string {
	if b := s.GetString(KeyRegistryBackend); b != "" {
		return b
	}
	return DefaultRegistryBackend
}
