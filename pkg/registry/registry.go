// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"

	"ai2c-dataviz/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Find returns the activity bound to a task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Missing lists the task types that have no activity entry.
func (r *ActivityRegistry) Missing(taskTypes ...string) []string {
	out := make([]string, 0)
	for _, tt := range taskTypes {
		if _, ok := r.Find(tt); !ok {
			out = append(out, tt)
		}
	}
	return out
}

// Validate reports every problem in the registry, not just the first.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	var errs error
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, a := range r.Activities {
		if a.ID == "" {
			errs = multierr.Append(errs, fmt.Errorf("activity missing required field: ID"))
			continue
		}
		if ids[a.ID] {
			errs = multierr.Append(errs, fmt.Errorf("duplicate activity ID: %s", a.ID))
		}
		ids[a.ID] = true

		if a.DisplayName == "" {
			errs = multierr.Append(errs, fmt.Errorf("activity %s missing required field: DisplayName", a.ID))
		}
		if a.Category == "" {
			errs = multierr.Append(errs, fmt.Errorf("activity %s missing required field: Category", a.ID))
		}
		if a.TaskType == "" {
			errs = multierr.Append(errs, fmt.Errorf("activity %s missing required field: TaskType", a.ID))
		} else {
			if taskTypes[a.TaskType] {
				errs = multierr.Append(errs, fmt.Errorf("duplicate task type: %s", a.TaskType))
			}
			taskTypes[a.TaskType] = true
			if err := validation.ValidateActivityNaming(a.TaskType); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("activity %s has invalid timeout %q", a.ID, a.Timeout))
			}
		}
		if a.Retries < 0 {
			errs = multierr.Append(errs, fmt.Errorf("activity %s has negative retries", a.ID))
		}
	}
	return errs
}

// CompileSchemas compiles the input schema of every activity that declares one.
func (r *ActivityRegistry) CompileSchemas() (map[string]*validation.Schema, error) {
	out := make(map[string]*validation.Schema, len(r.Activities))
	var errs error
	for _, a := range r.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		s, err := validation.Compile(a.InputSchema)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("activity %s: %w", a.ID, err))
			continue
		}
		out[a.TaskType] = s
	}
	return out, errs
}

// TimeoutDuration parses Timeout, falling back when it is empty or invalid.
func (a *Activity) TimeoutDuration(fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
