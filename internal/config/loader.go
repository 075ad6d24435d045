package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
	appDirName        = "sitin"
)

// Load reads configuration from the default file location and the
// environment. See LoadWithFile.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile loads configuration from a YAML file, then overrides it with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (AIRTABLE_API_KEY, PINECONE_INDEX_NAME, ...)
//  2. YAML config file (~/.config/sitin/config.yaml)
//  3. Defaults
//
// The file must live under ~/.config/sitin/ or /etc/sitin/, be 0600 or 0400,
// and be at most 1MB. A missing file is not an error.
//
// Environment variables split at the first underscore into section and field:
//
//	AIRTABLE_API_KEY      -> airtable.api_key
//	PINECONE_INDEX_NAME   -> pinecone.index_name
//	SCHEDULE_UPCOMING_WINDOW -> schedule.upcoming_window
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", appDirName, "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envKey maps SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(s)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// readConfigFile opens the file once and validates it through the open
// descriptor so the checked file is the one that is read.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// validateConfigPath checks that path resolves inside an allowed directory.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// Not created yet.
		resolved = absPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	for _, dir := range []string{
		filepath.Join(home, ".config", appDirName),
		filepath.Join("/etc", appDirName),
	} {
		if resolved == dir || strings.HasPrefix(resolved, dir+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("config file must be in ~/.config/%s/ or /etc/%s/", appDirName, appDirName)
}

func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// applyDefaults fills zero values.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Airtable.BaseURL == "" {
		cfg.Airtable.BaseURL = "https://api.airtable.com/v0"
	}
	if cfg.Airtable.CoursesTable == "" {
		cfg.Airtable.CoursesTable = "Courses"
	}
	if cfg.Airtable.SectionsTable == "" {
		cfg.Airtable.SectionsTable = "Sections"
	}
	if cfg.Airtable.RequestsPerSecond == 0 {
		cfg.Airtable.RequestsPerSecond = 5
	}

	if cfg.Vector.Provider == "" {
		cfg.Vector.Provider = "pinecone"
	}
	if cfg.Vector.TopK == 0 {
		cfg.Vector.TopK = 10
	}
	if cfg.Vector.DisplayCount == 0 {
		cfg.Vector.DisplayCount = 3
	}

	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "courses"
	}
	if cfg.Chromem.Path == "" {
		cfg.Chromem.Path = filepath.Join(".", "data", "chromem")
	}
	if cfg.Chromem.Collection == "" {
		cfg.Chromem.Collection = "courses"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		if cfg.Embedding.Provider == "fastembed" {
			cfg.Embedding.Model = "BAAI/bge-small-en-v1.5"
		} else {
			cfg.Embedding.Model = "text-embedding-ada-002"
		}
	}

	if cfg.Chat.Provider == "" {
		cfg.Chat.Provider = "openai"
	}
	if cfg.Chat.Model == "" {
		switch cfg.Chat.Provider {
		case "anthropic":
			cfg.Chat.Model = "claude-sonnet-4-5-20250929"
		case "gemini":
			cfg.Chat.Model = "gemini-2.5-flash"
		default:
			cfg.Chat.Model = "gpt-4-turbo-preview"
		}
	}
	if cfg.Chat.Temperature == nil {
		t := 0.7
		cfg.Chat.Temperature = &t
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = 2048
	}

	if cfg.Schedule.UpcomingWindow == 0 {
		cfg.Schedule.UpcomingWindow = Duration(2 * time.Hour)
	}
	if cfg.Schedule.RefreshInterval == 0 {
		cfg.Schedule.RefreshInterval = Duration(15 * time.Minute)
	}
	if cfg.Schedule.ReclassifyInterval == 0 {
		cfg.Schedule.ReclassifyInterval = Duration(time.Minute)
	}

	if cfg.Assistant.Timeout == 0 {
		cfg.Assistant.Timeout = Duration(60 * time.Second)
	}

	if cfg.Index.ManifestPath == "" {
		cfg.Index.ManifestPath = filepath.Join(".", "data", "index.db")
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 100
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
}
