package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	GCPProjectID string `yaml:"gcp_project_id"`
	GCPLocation  string `yaml:"gcp_location"`
	ModelName    string `yaml:"model_name"`
	EmbedModel   string `yaml:"embed_model"`

	StorageBackend string `yaml:"storage_backend"` // "memory", "sqlite" or "firestore"
	SQLitePath     string `yaml:"sqlite_path"`

	UseMockLLM bool `yaml:"use_mock_llm"` // true = mock model, useful for dev
}

func defaults() *Config {
	return &Config{
		Port:           "8080",
		GCPLocation:    "us-central1",
		ModelName:      "gemini-2.5-flash",
		EmbedModel:     "gemini-embedding-001",
		StorageBackend: "memory",
		SQLitePath:     "cadence.db",
	}
}

// Load builds the config from defaults, an optional YAML file named by
// CADENCE_CONFIG_FILE, and environment variables, in that order (env
// wins).
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CADENCE_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg.Port, "CADENCE_PORT")
	applyEnv(&cfg.GCPProjectID, "CADENCE_GCP_PROJECT")
	applyEnv(&cfg.GCPLocation, "CADENCE_GCP_LOCATION")
	applyEnv(&cfg.ModelName, "CADENCE_MODEL_NAME")
	applyEnv(&cfg.EmbedModel, "CADENCE_EMBED_MODEL")
	applyEnv(&cfg.StorageBackend, "CADENCE_STORAGE_BACKEND")
	applyEnv(&cfg.SQLitePath, "CADENCE_SQLITE_PATH")
	if v := os.Getenv("CADENCE_USE_MOCK_LLM"); v != "" {
		cfg.UseMockLLM = v == "1" || v == "true" || v == "TRUE"
	}

	if cfg.StorageBackend == "firestore" && cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("CADENCE_GCP_PROJECT is required for the firestore backend")
	}
	if !cfg.UseMockLLM && cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("CADENCE_GCP_PROJECT is required unless CADENCE_USE_MOCK_LLM is set")
	}

	return cfg, nil
}

func applyEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
