package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"json": true, "console": true}
)

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate API config
	if c.API.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Message: "analysis service URL is required",
		})
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Message: "invalid analysis service URL",
		})
	}

	if !strings.HasPrefix(c.API.UploadPath, "/") {
		errors = append(errors, ValidationError{
			Field:   "api.upload_path",
			Message: "upload_path must start with /",
		})
	}

	if c.API.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "api.timeout",
			Message: "timeout must not be negative",
		})
	}

	if c.API.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "api.rate_limit",
			Message: "rate_limit must not be negative",
		})
	}

	// Validate Server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if !strings.HasPrefix(c.Server.FilesPath, "/") || c.Server.FilesPath == "/" {
		errors = append(errors, ValidationError{
			Field:   "server.files_path",
			Message: fmt.Sprintf("invalid files path: %q", c.Server.FilesPath),
		})
	}

	// Validate Log config
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level: %s", c.Log.Level),
		})
	}

	if !validFormats[c.Log.Format] {
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Message: "format must be json or console",
		})
	}

	return errors
}
