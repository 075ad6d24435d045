// Package config provides configuration loading for sitin.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Validate and the Require* checks.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the complete sitin configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Airtable  AirtableConfig  `koanf:"airtable"`
	Vector    VectorConfig    `koanf:"vector"`
	Pinecone  PineconeConfig  `koanf:"pinecone"`
	Qdrant    QdrantConfig    `koanf:"qdrant"`
	Chromem   ChromemConfig   `koanf:"chromem"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Chat      ChatConfig      `koanf:"chat"`
	OpenAI    ProviderKey     `koanf:"openai"`
	Anthropic ProviderKey     `koanf:"anthropic"`
	Gemini    ProviderKey     `koanf:"gemini"`
	Schedule  ScheduleConfig  `koanf:"schedule"`
	Assistant AssistantConfig `koanf:"assistant"`
	Privacy   PrivacyConfig   `koanf:"privacy"`
	Index     IndexConfig     `koanf:"index"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// AirtableConfig identifies the bases and tables holding course data.
// BaseID is shared by every table; the per-table base IDs override it, so
// courses and sections may live in separate bases.
type AirtableConfig struct {
	APIKey             Secret  `koanf:"api_key"`
	BaseID             string  `koanf:"base_id"`
	CoursesBaseID      string  `koanf:"courses_base_id"`
	SectionsBaseID     string  `koanf:"sections_base_id"`
	DescriptionsBaseID string  `koanf:"descriptions_base_id"`
	BaseURL            string  `koanf:"base_url"`
	CoursesTable       string  `koanf:"courses_table"`
	SectionsTable      string  `koanf:"sections_table"`
	DescriptionsTable  string  `koanf:"descriptions_table"`
	RequestsPerSecond  float64 `koanf:"requests_per_second"`
}

// DefaultBase is the base used for any table without its own base ID.
func (a AirtableConfig) DefaultBase() string {
	if a.BaseID != "" {
		return a.BaseID
	}
	return a.CoursesBaseID
}

// VectorConfig selects the vector index backend and retrieval sizes.
type VectorConfig struct {
	// Provider is one of "pinecone", "qdrant", "chromem".
	Provider     string `koanf:"provider"`
	TopK         int    `koanf:"top_k"`
	DisplayCount int    `koanf:"display_count"`
}

// PineconeConfig configures the hosted Pinecone index.
type PineconeConfig struct {
	APIKey    Secret `koanf:"api_key"`
	IndexName string `koanf:"index_name"`
	// Host is the index data-plane host, e.g. https://courses-abc123.svc.pinecone.io
	Host      string `koanf:"host"`
	Namespace string `koanf:"namespace"`
}

// QdrantConfig configures the Qdrant gRPC backend.
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	APIKey     Secret `koanf:"api_key"`
	UseTLS     bool   `koanf:"use_tls"`
	Collection string `koanf:"collection"`
}

// ChromemConfig configures the embedded chromem-go backend.
type ChromemConfig struct {
	Path       string `koanf:"path"`
	Compress   bool   `koanf:"compress"`
	Collection string `koanf:"collection"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of "openai", "fastembed".
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	CacheDir string `koanf:"cache_dir"`
}

// ChatConfig selects the chat completion provider. Temperature is a pointer
// so an explicit 0 survives defaulting.
type ChatConfig struct {
	// Provider is one of "openai", "anthropic", "gemini".
	Provider    string   `koanf:"provider"`
	Model       string   `koanf:"model"`
	BaseURL     string   `koanf:"base_url"`
	Temperature *float64 `koanf:"temperature"`
	MaxTokens   int      `koanf:"max_tokens"`
}

// ProviderKey carries a single provider API key.
type ProviderKey struct {
	APIKey Secret `koanf:"api_key"`
}

// ScheduleConfig controls live/upcoming classification. Times are always
// read in the campus zone, schedule.Pacific.
type ScheduleConfig struct {
	UpcomingWindow     Duration `koanf:"upcoming_window"`
	RefreshInterval    Duration `koanf:"refresh_interval"`
	ReclassifyInterval Duration `koanf:"reclassify_interval"`
}

// AssistantConfig bounds a single chat request.
type AssistantConfig struct {
	Timeout Duration `koanf:"timeout"`
}

// PrivacyConfig controls scrubbing of chat text.
type PrivacyConfig struct {
	Disabled bool `koanf:"disabled"`
}

// IndexConfig configures the vector indexer.
type IndexConfig struct {
	ManifestPath string `koanf:"manifest_path"`
	BatchSize    int    `koanf:"batch_size"`
}

// LoggingConfig is mapped onto logging.Config by the binaries.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig is mapped onto telemetry.Config by the binaries.
type TelemetryConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	Protocol string `koanf:"protocol"`
	Insecure bool   `koanf:"insecure"`
}

var (
	vectorProviders    = map[string]bool{"pinecone": true, "qdrant": true, "chromem": true}
	embeddingProviders = map[string]bool{"openai": true, "fastembed": true}
	chatProviders      = map[string]bool{"openai": true, "anthropic": true, "gemini": true}
)

// Validate checks structural settings. Missing credentials are reported by
// the Require* methods so binaries only demand what they wire.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be 1-65535, got %d", ErrInvalidConfig, c.Server.Port)
	}
	if !vectorProviders[c.Vector.Provider] {
		return fmt.Errorf("%w: unknown vector.provider %q", ErrInvalidConfig, c.Vector.Provider)
	}
	if !embeddingProviders[c.Embedding.Provider] {
		return fmt.Errorf("%w: unknown embedding.provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
	if !chatProviders[c.Chat.Provider] {
		return fmt.Errorf("%w: unknown chat.provider %q", ErrInvalidConfig, c.Chat.Provider)
	}
	if c.Vector.TopK < 1 {
		return fmt.Errorf("%w: vector.top_k must be positive", ErrInvalidConfig)
	}
	if c.Vector.DisplayCount < 1 || c.Vector.DisplayCount > c.Vector.TopK {
		return fmt.Errorf("%w: vector.display_count must be between 1 and top_k (%d)", ErrInvalidConfig, c.Vector.TopK)
	}
	if t := c.Chat.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("%w: chat.temperature must be between 0 and 2", ErrInvalidConfig)
	}
	if c.Schedule.UpcomingWindow.Duration() <= 0 {
		return fmt.Errorf("%w: schedule.upcoming_window must be positive", ErrInvalidConfig)
	}
	if c.Schedule.ReclassifyInterval.Duration() < time.Second {
		return fmt.Errorf("%w: schedule.reclassify_interval must be at least 1s", ErrInvalidConfig)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("%w: logging.format must be 'json' or 'console', got %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// RequireAirtable reports missing record-store settings.
func (c *Config) RequireAirtable() error {
	var missing []string
	if !c.Airtable.APIKey.IsSet() {
		missing = append(missing, "airtable.api_key")
	}
	if c.Airtable.BaseID == "" && (c.Airtable.CoursesBaseID == "" || c.Airtable.SectionsBaseID == "") {
		missing = append(missing, "airtable.base_id")
	}
	if c.Airtable.CoursesTable == "" {
		missing = append(missing, "airtable.courses_table")
	}
	if c.Airtable.SectionsTable == "" {
		missing = append(missing, "airtable.sections_table")
	}
	return missingErr(missing)
}

// RequireAssistant reports missing settings for the answering pipeline:
// the vector backend, the embedding provider and the chat provider.
func (c *Config) RequireAssistant() error {
	var missing []string
	switch c.Vector.Provider {
	case "pinecone":
		if !c.Pinecone.APIKey.IsSet() {
			missing = append(missing, "pinecone.api_key")
		}
		if c.Pinecone.Host == "" {
			missing = append(missing, "pinecone.host")
		}
	case "qdrant":
		if c.Qdrant.Host == "" {
			missing = append(missing, "qdrant.host")
		}
	case "chromem":
		if c.Chromem.Path == "" {
			missing = append(missing, "chromem.path")
		}
	}
	if c.Embedding.Provider == "openai" && !c.OpenAI.APIKey.IsSet() {
		missing = append(missing, "openai.api_key")
	}
	switch c.Chat.Provider {
	case "openai":
		if !c.OpenAI.APIKey.IsSet() {
			missing = append(missing, "openai.api_key")
		}
	case "anthropic":
		if !c.Anthropic.APIKey.IsSet() {
			missing = append(missing, "anthropic.api_key")
		}
	case "gemini":
		if !c.Gemini.APIKey.IsSet() {
			missing = append(missing, "gemini.api_key")
		}
	}
	return missingErr(dedupe(missing))
}

func missingErr(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %v", ErrInvalidConfig, missing)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
