package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/config"
	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
	"github.com/fyrsmithlabs/sitin/internal/services"
)

type emptySource struct{}

func (emptySource) Sections(context.Context) ([]catalog.Section, error)         { return nil, nil }
func (emptySource) Courses(context.Context) ([]catalog.Course, error)           { return nil, nil }
func (emptySource) Descriptions(context.Context) ([]catalog.Description, error) { return nil, nil }

func TestStartTasks_RunInCampusZone(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)

	reg := services.NewRegistry(services.Options{Catalog: catalog.NewStore(emptySource{}, nil)})
	tasks, err := startTasks(cfg, reg, logging.NewNop())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, schedule.Pacific, task.Next().Location())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, task := range tasks {
		require.NoError(t, task.Stop(ctx))
	}
}

func TestEverySpec(t *testing.T) {
	assert.Equal(t, "@every 1m0s", everySpec(time.Minute))
	assert.Equal(t, "@every 15m0s", everySpec(15*time.Minute))
}

func TestLoadEnv(t *testing.T) {
	assert.NoError(t, loadEnv(""))
	assert.NoError(t, loadEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SITIND_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("SITIND_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("SITIND_TEST_VALUE"))

	require.NoError(t, loadEnv(path))
	assert.Equal(t, "from-file", os.Getenv("SITIND_TEST_VALUE"))
}

func TestLoadEnv_KeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SITIND_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("SITIND_TEST_VALUE", "from-env")

	require.NoError(t, loadEnv(path))
	assert.Equal(t, "from-env", os.Getenv("SITIND_TEST_VALUE"))
}

func TestRun_NothingConfigured(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"AIRTABLE_API_KEY", "AIRTABLE_BASE_ID", "OPENAI_API_KEY",
		"PINECONE_API_KEY", "PINECONE_HOST", "VECTOR_PROVIDER", "CHAT_PROVIDER",
	} {
		t.Setenv(key, "")
	}

	err := run(context.Background(), options{envFile: ""})
	require.ErrorIs(t, err, errNothingToServe)
	assert.Contains(t, err.Error(), "airtable.api_key")
}
