package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/keepice/pkg/errors"
)

const (
	// DirName is the folder searched for by FindConfigDir
	DirName = "config"
	// FileName is the connectors configuration file inside DirName
	FileName = "connectors_config.yaml"
)

// Load reads a connectors configuration file, substitutes environment
// variables, applies defaults and validates the result.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
			WithDetail("path", filePath)
	}
	return Parse(data)
}

// Parse decodes YAML content into a validated Config
func Parse(data []byte) (*Config, error) {
	content := substituteEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid configuration")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid configuration")
	}
	return &cfg, nil
}

// LoadDefault locates the config folder starting at the working directory
// and loads connectors_config.yaml from it.
func LoadDefault() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to resolve working directory")
	}
	dir, err := FindConfigDir(wd)
	if err != nil {
		return nil, err
	}
	return Load(filepath.Join(dir, FileName))
}

// FindConfigDir returns the first directory named "config" found in start
// or any of its parents.
func FindConfigDir(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfigNotFound, "failed to resolve start path")
	}

	for {
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.New(errors.ErrorTypeConfigNotFound, "config folder not found").
		WithDetail("start", start)
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
