package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randomizedcoder/go-cstest/internal/settings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing every problem found.
func Validate(cfg *Config) error {
	var errs []error

	// Script paths are required
	if cfg.QuicktestPath == "" {
		errs = append(errs, ValidationError{Field: "quicktest_path", Message: "is required"})
	}
	if cfg.RandomtestPath == "" {
		errs = append(errs, ValidationError{Field: "randomtest_path", Message: "is required"})
	}

	// Project paths are passed through as arguments; empty would shift them
	if cfg.ChoicescriptPath == "" {
		errs = append(errs, ValidationError{Field: "choicescript_path", Message: "is required"})
	}
	if cfg.ScenesPath == "" {
		errs = append(errs, ValidationError{Field: "scenes_path", Message: "is required"})
	}

	if _, err := settings.ParseDocumentMode(cfg.Randomtest.PutResultsInDocument); err != nil {
		errs = append(errs, ValidationError{
			Field:   "randomtest.put_results_in_document",
			Message: fmt.Sprintf("must be one of: always, fulltext, never (got %q)", cfg.Randomtest.PutResultsInDocument),
		})
	}

	// Log format must be valid
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be json or text (got %q)", cfg.LogFormat),
		})
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be debug, info, warn or error (got %q)", cfg.LogLevel),
		})
	}

	if cfg.MetricsAddr != "" && !strings.Contains(cfg.MetricsAddr, ":") {
		errs = append(errs, ValidationError{
			Field:   "metrics_addr",
			Message: fmt.Sprintf("must be host:port (got %q)", cfg.MetricsAddr),
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
