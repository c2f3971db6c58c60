// FILE: src/internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

func defaults() *Config {
	return &Config{
		Logging: DefaultLogConfig(),
		Source: SourceConfig{
			Type:         "gen",
			DefaultEvent: "Log",
			Gen: &GenSourceConfig{
				Batches:      10,
				RowsPerBatch: 100,
				AttrsPerRow:  4,
				Events:       []string{"AppLog"},
			},
		},
		Export: ExportConfig{
			MaxBatchBytes: 1 << 20,
			MaxBatchRows:  4096,
			Compression:   true,
		},
		Upload: UploadConfig{
			Transport:       "file",
			Directory:       "./out",
			MaxConcurrent:   4,
			QueueSize:       256,
			MaxRetries:      3,
			RetryDelayMS:    100,
			MaxRetryDelayMS: 5000,
			RetryBackoff:    2.0,
			RetryJitter:     0.1,
			TimeoutSeconds:  30,
		},
		StatusIntervalSeconds: 30,
	}
}

// LoadWithCLI builds the configuration from defaults, the TOML file,
// ARROWSHIP_* environment variables and CLI arguments, in ascending
// precedence order.
func LoadWithCLI(cliArgs []string) (*Config, error) {
	configPath := GetConfigPath()

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix("ARROWSHIP_").
		WithFile(configPath).
		WithArgs(cliArgs).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig, ""); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	return finalConfig, validateConfig(finalConfig)
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = "ARROWSHIP_" + env
	return env
}

// GetConfigPath resolves the configuration file location from the
// environment, falling back to ~/.config/arrowship.toml.
func GetConfigPath() string {
	if configFile := os.Getenv("ARROWSHIP_CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv("ARROWSHIP_CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv("ARROWSHIP_CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "arrowship.toml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "arrowship.toml")
	}

	return "arrowship.toml"
}
