package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations; when no file
// exists at all, defaults apply with paths resolved against the working
// directory.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, err
	}
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		cfg := Defaults()
		cfg.BaseDir = cwd
		resolvePaths(cfg, cwd)
		return cfg, nil
	}

	// Get absolute path and directory for resolving relative paths
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Interpolate environment variables
	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.BaseDir = baseDir
	resolvePaths(cfg, baseDir)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolvePaths anchors relative paths at baseDir, leaving ":memory:" alone.
func resolvePaths(cfg *Config, baseDir string) {
	if cfg.Content.DataFile != "" && !filepath.IsAbs(cfg.Content.DataFile) {
		cfg.Content.DataFile = filepath.Join(baseDir, cfg.Content.DataFile)
	}
	if cfg.Content.ConfigsDir != "" && !filepath.IsAbs(cfg.Content.ConfigsDir) {
		cfg.Content.ConfigsDir = filepath.Join(baseDir, cfg.Content.ConfigsDir)
	}
	if cfg.Search.Index != "" && cfg.Search.Index != ":memory:" && !filepath.IsAbs(cfg.Search.Index) {
		cfg.Search.Index = filepath.Join(baseDir, cfg.Search.Index)
	}
	for i := range cfg.Watch.Paths {
		if !filepath.IsAbs(cfg.Watch.Paths[i]) {
			cfg.Watch.Paths[i] = filepath.Join(baseDir, cfg.Watch.Paths[i])
		}
	}
}

// Validate checks the configuration for errors, reporting all of them at once.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Content.DataFile == "" {
		errs = append(errs, "content.data_file is required")
	}

	if cfg.Search.Limit < 1 {
		errs = append(errs, fmt.Sprintf("search.limit must be positive, got %d", cfg.Search.Limit))
	}

	if len(cfg.Table.Values) == 0 {
		errs = append(errs, "table.values must list at least one seed value")
	}
	for i, v := range cfg.Table.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Sprintf("table.values[%d] must be a finite number", i))
		}
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, "watch.debounce cannot be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > SLIDERULE_CONFIG env > ./sliderule.yaml > ~/.config/sliderule/sliderule.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("SLIDERULE_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("SLIDERULE_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat("sliderule.yaml"); err == nil {
		return "sliderule.yaml", nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "sliderule", "sliderule.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	// No config file anywhere is fine; defaults apply.
	return "", nil
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := string(parts[1])
		value := getenv(varName)

		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}
