// Package config provides configuration management for go-cstest.
package config

import (
	"github.com/randomizedcoder/go-cstest/internal/settings"
)

// Config holds all configuration options for the test runner.
type Config struct {
	// Project layout
	Interpreter      string `yaml:"interpreter"` // "" = run scripts directly
	QuicktestPath    string `yaml:"quicktest_path"`
	RandomtestPath   string `yaml:"randomtest_path"`
	ChoicescriptPath string `yaml:"choicescript_path"`
	ScenesPath       string `yaml:"scenes_path"`
	ImagesPath       string `yaml:"images_path"`
	WorkspaceRoot    string `yaml:"workspace_root"` // "" = no workspace; documents cannot be saved

	// Randomtest
	Randomtest RandomtestConfig `yaml:"randomtest"`

	// Document display
	OpenCommand string `yaml:"open_command"` // "" = print the path

	// Observability
	LogFormat   string `yaml:"log_format"` // json, text
	LogLevel    string `yaml:"log_level"`
	Verbose     bool   `yaml:"verbose"`
	MetricsAddr string `yaml:"metrics_addr"` // "" = no /metrics server
	MetricsFile string `yaml:"metrics_file"` // "" = no dump at exit

	// Diagnostic modes
	PrintCmd      bool `yaml:"print_cmd"`
	SkipPreflight bool `yaml:"skip_preflight"`
}

// RandomtestConfig is the configured randomtest settings block.
type RandomtestConfig struct {
	Iterations                 uint64 `yaml:"iterations"`
	Seed                       uint64 `yaml:"seed"`
	ShowFullText               bool   `yaml:"show_full_text"`
	AvoidUsedOptions           bool   `yaml:"avoid_used_options"`
	ShowChoices                bool   `yaml:"show_choices"`
	ShowCoverage               bool   `yaml:"show_coverage"`
	PutResultsInDocument       string `yaml:"put_results_in_document"` // always, fulltext, never
	PutResultsInUniqueDocument bool   `yaml:"put_results_in_unique_document"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Project layout
		Interpreter:      "node",
		QuicktestPath:    "quicktest.js",
		RandomtestPath:   "randomtest.js",
		ChoicescriptPath: ".",
		ScenesPath:       "web/mygame/scenes",
		ImagesPath:       "web/mygame",
		WorkspaceRoot:    ".",

		// Randomtest
		Randomtest: RandomtestConfig{
			Iterations:           10,
			Seed:                 0,
			ShowFullText:         false,
			AvoidUsedOptions:     true,
			ShowChoices:          true,
			ShowCoverage:         true,
			PutResultsInDocument: string(settings.DocumentFulltext),
		},

		// Observability
		LogFormat: "text",
		LogLevel:  "info",
	}
}

// RandomtestSettings returns the configured randomtest settings.
// PutResultsInDocument is left for the resolver to derive.
func (c *Config) RandomtestSettings() settings.Settings {
	r := c.Randomtest
	return settings.Settings{
		Iterations:                 r.Iterations,
		Seed:                       r.Seed,
		ShowFullText:               r.ShowFullText,
		AvoidUsedOptions:           r.AvoidUsedOptions,
		ShowChoices:                r.ShowChoices,
		ShowCoverage:               r.ShowCoverage,
		PutResultsInUniqueDocument: r.PutResultsInUniqueDocument,
	}
}

// DocumentMode returns the configured document mode. An invalid value reads
// as never; Validate reports it.
func (c *Config) DocumentMode() settings.DocumentMode {
	m, err := settings.ParseDocumentMode(c.Randomtest.PutResultsInDocument)
	if err != nil {
		return settings.DocumentNever
	}
	return m
}

var _ settings.ConfigSurface = (*Config)(nil)
