package config

import (
	"strings"

	errs "github.com/wangguanran/Tools/internal/errors"
)

// Validate checks the configuration for values the binaries cannot work with.
func (c *Config) Validate() error {
	if c.Tool == "" {
		return errs.New(errs.CodeInvalidConfig, "tool name cannot be empty")
	}

	if len(c.Profiles) == 0 {
		return errs.New(errs.CodeInvalidConfig, "at least one profile is required")
	}

	for key, p := range c.Profiles {
		if err := validateProfile(key, p); err != nil {
			return err
		}
	}

	return validateSettings(&c.Sync)
}

// validateProfile checks a single profile record.
func validateProfile(key string, p Profile) error {
	if key == "" {
		return errs.New(errs.CodeInvalidConfig, "profile key cannot be empty")
	}

	if p.Label == "" {
		return errs.Newf(errs.CodeInvalidConfig, "profile %q: label cannot be empty", key)
	}

	if !IsUNCPath(p.Resource) {
		return errs.Newf(errs.CodeInvalidConfig,
			"profile %q: resource %q is not a UNC path (expected \\\\host\\share\\...)", key, p.Resource)
	}

	if p.Destination == "" {
		return errs.Newf(errs.CodeInvalidConfig, "profile %q: destination cannot be empty", key)
	}

	return nil
}

// validateSettings checks the engine tuning block.
func validateSettings(s *SyncSettings) error {
	if s.Timeout <= 0 {
		return errs.New(errs.CodeInvalidConfig, "sync.timeout must be positive")
	}
	if s.MaxRetries < 0 {
		return errs.New(errs.CodeInvalidConfig, "sync.max_retries cannot be negative")
	}
	if s.RetryDelay < 0 {
		return errs.New(errs.CodeInvalidConfig, "sync.retry_delay cannot be negative")
	}
	if s.ReconnectWait <= 0 {
		return errs.New(errs.CodeInvalidConfig, "sync.reconnect_wait must be positive")
	}
	if s.PollInterval <= 0 {
		return errs.New(errs.CodeInvalidConfig, "sync.poll_interval must be positive")
	}
	if s.SettlingDelay < 0 {
		return errs.New(errs.CodeInvalidConfig, "sync.settling_delay cannot be negative")
	}
	if s.Concurrency < 1 {
		return errs.New(errs.CodeInvalidConfig, "sync.concurrency must be at least 1")
	}
	return nil
}

// IsUNCPath reports whether s looks like \\host\share or deeper.
func IsUNCPath(s string) bool {
	if !strings.HasPrefix(s, `\\`) {
		return false
	}

	// host and share must both be present and non-empty
	rest := s[2:]
	parts := strings.Split(rest, `\`)
	if len(parts) < 2 {
		return false
	}
	return parts[0] != "" && parts[1] != ""
}
