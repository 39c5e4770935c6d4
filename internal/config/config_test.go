package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CADENCE_CONFIG_FILE", "CADENCE_PORT", "CADENCE_GCP_PROJECT",
		"CADENCE_GCP_LOCATION", "CADENCE_MODEL_NAME", "CADENCE_EMBED_MODEL",
		"CADENCE_STORAGE_BACKEND", "CADENCE_SQLITE_PATH", "CADENCE_USE_MOCK_LLM",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultsWithMockLLM(t *testing.T) {
	clearEnv(t)
	t.Setenv("CADENCE_USE_MOCK_LLM", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.ModelName)
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.True(t, cfg.UseMockLLM)
}

func TestLoadRequiresProjectWithoutMock(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CADENCE_GCP_PROJECT")
}

func TestLoadFirestoreRequiresProject(t *testing.T) {
	clearEnv(t)
	t.Setenv("CADENCE_USE_MOCK_LLM", "true")
	t.Setenv("CADENCE_STORAGE_BACKEND", "firestore")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firestore")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"port: \"9000\"\ngcp_project_id: from-file\nuse_mock_llm: true\n",
	), 0o600))

	t.Setenv("CADENCE_CONFIG_FILE", path)
	t.Setenv("CADENCE_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port, "env wins over file")
	assert.Equal(t, "from-file", cfg.GCPProjectID)
	assert.True(t, cfg.UseMockLLM)
}

func TestLoadBadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a string"), 0o600))
	t.Setenv("CADENCE_CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}
