package editor

import (
	"errors"
	"fmt"

	"formcraft/internal/model"
)

// CheckIntegrity reports every broken invariant of the form: duplicate
// field or step ids, step references to missing fields and duplicate
// option values. It returns nil for a consistent form.
func CheckIntegrity(form model.Form) error {
	var errs []error

	fields := make(map[string]struct{}, len(form.Fields))
	for _, field := range form.Fields {
		if _, dup := fields[field.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate field id %s", field.ID))
		}
		fields[field.ID] = struct{}{}
		if err := checkOptions(field.Options); err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", field.ID, err))
		}
	}

	steps := make(map[string]struct{}, len(form.Steps))
	for _, step := range form.Steps {
		if _, dup := steps[step.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate step id %s", step.ID))
		}
		steps[step.ID] = struct{}{}
		for _, id := range step.Fields {
			if _, ok := fields[id]; !ok {
				errs = append(errs, fmt.Errorf("step %s: %w: %s", step.ID, model.ErrDanglingReference, id))
			}
		}
	}

	return errors.Join(errs...)
}
