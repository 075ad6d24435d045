package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func ptr[T any](v T) *T { return &v }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "unknown chat provider", mutate: func(c *Config) { c.Chat.Provider = "llama" }, wantErr: "chat.provider"},
		{name: "display count above top k", mutate: func(c *Config) { c.Vector.DisplayCount = 11 }, wantErr: "display_count"},
		{name: "zero temperature is valid", mutate: func(c *Config) { c.Chat.Temperature = ptr(0.0) }},
		{name: "temperature out of range", mutate: func(c *Config) { c.Chat.Temperature = ptr(3.0) }, wantErr: "temperature"},
		{name: "reclassify too fast", mutate: func(c *Config) { c.Schedule.ReclassifyInterval = Duration(time.Millisecond) }, wantErr: "reclassify_interval"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireAirtable(t *testing.T) {
	cfg := validConfig()
	err := cfg.RequireAirtable()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "airtable.api_key")
	assert.Contains(t, err.Error(), "airtable.base_id")

	cfg.Airtable.APIKey = "pat123"
	cfg.Airtable.BaseID = "app123"
	assert.NoError(t, cfg.RequireAirtable())
	assert.Equal(t, "app123", cfg.Airtable.DefaultBase())
}

func TestRequireAirtable_PerTableBases(t *testing.T) {
	cfg := validConfig()
	cfg.Airtable.APIKey = "pat123"
	cfg.Airtable.CoursesBaseID = "appCourses"
	err := cfg.RequireAirtable()
	require.Error(t, err, "sections still need a base")
	assert.Contains(t, err.Error(), "airtable.base_id")

	cfg.Airtable.SectionsBaseID = "appSections"
	assert.NoError(t, cfg.RequireAirtable())
	assert.Equal(t, "appCourses", cfg.Airtable.DefaultBase())
}

func TestRequireAssistant(t *testing.T) {
	cfg := validConfig()
	err := cfg.RequireAssistant()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinecone.api_key")
	assert.Contains(t, err.Error(), "openai.api_key")

	cfg.Pinecone.APIKey = "pc"
	cfg.Pinecone.Host = "https://courses.svc.pinecone.io"
	cfg.OpenAI.APIKey = "sk"
	assert.NoError(t, cfg.RequireAssistant())

	cfg.Chat.Provider = "anthropic"
	err = cfg.RequireAssistant()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.api_key")
}

func TestSecret_NeverPrints(t *testing.T) {
	s := Secret("sk-live-abc")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.NotContains(t, fmt.Sprintf("%#v", s), "sk-live")
	assert.Equal(t, "sk-live-abc", s.Value())

	b, err := json.Marshal(struct {
		Key Secret `json:"key"`
	}{Key: s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"[REDACTED]"}`, string(b))

	assert.False(t, Secret("").IsSet())
	assert.Equal(t, "", Secret("").String())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("2h")))
	assert.Equal(t, 2*time.Hour, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-1m")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
