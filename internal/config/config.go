package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvAPIKeys holds a comma-separated credential list that overrides the
// config file. Keeping credentials out of the file is the normal setup.
const EnvAPIKeys = "CONTENTGEN_API_KEYS"

// ProjectConfig holds project-level settings loaded from contentgen.yml.
type ProjectConfig struct {
	OutputDir   string   `yaml:"outputDir,omitempty"`
	Endpoint    string   `yaml:"endpoint,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	APIKeys     []string `yaml:"apiKeys,omitempty"`
	MaxAttempts int      `yaml:"maxAttempts,omitempty"`
	Verbose     bool     `yaml:"verbose,omitempty"`
}

// Load attempts to read contentgen.yml or contentgen.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists. Credentials from the environment override the file.
func Load(dir string) (*ProjectConfig, error) {
	cfg := &ProjectConfig{}
	for _, name := range []string{"contentgen.yml", "contentgen.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		break
	}
	if keys := envKeys(); len(keys) > 0 {
		cfg.APIKeys = keys
	}
	return cfg, nil
}

func envKeys() []string {
	raw := os.Getenv(EnvAPIKeys)
	if raw == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
