package config

import "time"

// Config represents the complete Sliderule configuration
type Config struct {
	BaseDir string        `yaml:"-"` // Directory containing config file, for resolving relative paths
	Content ContentConfig `yaml:"content"`
	Search  SearchConfig  `yaml:"search"`
	Table   TableConfig   `yaml:"table"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// ContentConfig holds the calculator catalog locations
type ContentConfig struct {
	DataFile   string `yaml:"data_file"`   // CSV catalog of calculators (default: "./data/calc.csv")
	ConfigsDir string `yaml:"configs_dir"` // Directory of standalone config JSON files (default: "./data/configs")
}

// SearchConfig holds the search index settings
type SearchConfig struct {
	Index string `yaml:"index"` // Path to SQLite search index, or ":memory:" (default: ":memory:")
	Limit int    `yaml:"limit"` // Maximum results per query (default: 20)
}

// TableConfig holds conversion table generation settings
type TableConfig struct {
	Values []float64 `yaml:"values"` // Seed values for conversion tables
}

// WatchConfig holds dev watcher settings
type WatchConfig struct {
	Paths    StringOrSlice `yaml:"paths"`    // Extra paths to watch besides the data file
	Debounce time.Duration `yaml:"debounce"` // Quiet period before reload (default: 300ms)
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Quiet bool   `yaml:"quiet"` // suppress progress output
}

// StringOrSlice supports YAML fields that can be either a string or a slice of strings
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler to handle both string and []string
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var slice []string
	if err := unmarshal(&slice); err != nil {
		return err
	}
	*s = slice
	return nil
}

// Contains checks if the slice contains the given string
func (s StringOrSlice) Contains(str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Content: ContentConfig{
			DataFile:   "./data/calc.csv",
			ConfigsDir: "./data/configs",
		},
		Search: SearchConfig{
			Index: ":memory:",
			Limit: 20,
		},
		Table: TableConfig{
			Values: []float64{1, 2, 5, 10, 20, 50, 100},
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
