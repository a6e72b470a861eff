package config

import (
	"fmt"
	"strings"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate reports every invalid field. An empty result means the config is usable.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	required := []struct {
		field string
		value string
	}{
		{"paths.output_dir", c.Paths.OutputDir},
		{"paths.debug_dir", c.Paths.DebugDir},
		{"paths.debug_file", c.Paths.DebugFile},
		{"paths.rerun_list", c.Paths.RerunList},
		{"paths.input_dir", c.Paths.InputDir},
		{"paths.render_dir", c.Paths.RenderDir},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, ValidationError{
				Field:   r.field,
				Message: "must not be empty",
			})
		}
	}

	if strings.ContainsAny(c.Paths.DebugFile, `/\`) {
		errs = append(errs, ValidationError{
			Field:   "paths.debug_file",
			Message: "must be a file name, not a path",
		})
	}

	if c.Audit.MinSourcesPerPage < 0 {
		errs = append(errs, ValidationError{
			Field:   "audit.min_sources_per_page",
			Message: "must not be negative",
		})
	}
	if c.Audit.MaxSourcesPerPage < c.Audit.MinSourcesPerPage {
		errs = append(errs, ValidationError{
			Field:   "audit.max_sources_per_page",
			Message: "must be greater than or equal to min_sources_per_page",
		})
	}

	if c.Render.Zoom <= 0 {
		errs = append(errs, ValidationError{
			Field:   "render.zoom",
			Message: "must be positive",
		})
	}
	if strings.TrimSpace(c.Render.Pdftoppm) == "" {
		errs = append(errs, ValidationError{
			Field:   "render.pdftoppm",
			Message: "rasterizer binary is required",
		})
	}

	return errs
}
