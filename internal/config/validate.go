package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/stensonb/cloud-agent/internal/logging"
	"github.com/stensonb/cloud-agent/internal/validation"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate validates the entire configuration.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if err := validation.ValidateAbsPath(c.ContextPath); err != nil {
		errs = append(errs, ValidationError{Field: "context_path", Message: err.Error()})
	}
	if err := validation.ValidateAbsPath(c.StatePath); err != nil {
		errs = append(errs, ValidationError{Field: "state_path", Message: err.Error()})
	}
	if c.MetricsTextfile != "" {
		if err := validation.ValidateAbsPath(c.MetricsTextfile); err != nil {
			errs = append(errs, ValidationError{Field: "metrics_textfile", Message: err.Error()})
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, ValidationError{Field: "log_level", Message: err.Error()})
	}

	if s := c.Syslog; s != nil {
		if s.Host == "" {
			errs = append(errs, ValidationError{Field: "syslog.host", Message: "must not be empty"})
		}
		if err := validation.ValidatePortNumber(s.Port); err != nil {
			errs = append(errs, ValidationError{Field: "syslog.port", Message: err.Error()})
		}
		if err := validation.ValidateAllowlist(s.Protocol, []string{"udp", "tcp"}); err != nil {
			errs = append(errs, ValidationError{Field: "syslog.protocol", Message: err.Error()})
		}
	}

	if c.Watch != nil && c.Watch.Debounce != "" {
		d, err := time.ParseDuration(c.Watch.Debounce)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{Field: "watch.debounce", Message: err.Error()})
		case d <= 0:
			errs = append(errs, ValidationError{Field: "watch.debounce", Message: "must be positive"})
		}
	}

	return errs
}
