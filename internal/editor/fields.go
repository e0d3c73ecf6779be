package editor

import (
	"fmt"

	"formcraft/internal/model"
)

// AddField appends a new field with a fresh id to the form. The field is
// not placed into any step.
func AddField(form model.Form, spec model.FieldSpec) (model.Form, string, error) {
	if !spec.Type.Valid() {
		return form, "", fmt.Errorf("%w: unknown type %q", model.ErrInvalidField, spec.Type)
	}
	field := model.FormField{
		ID:          model.NewID(),
		Type:        spec.Type,
		Label:       spec.Label,
		Placeholder: spec.Placeholder,
		HelpText:    spec.HelpText,
		Required:    spec.Required,
	}
	if spec.Validation != nil {
		rule := spec.Validation.Clone()
		field.Validation = &rule
	}
	if spec.Type.HasOptions() {
		if err := checkOptions(spec.Options); err != nil {
			return form, "", err
		}
		field.Options = append([]model.FieldOption{}, spec.Options...)
	}

	out := form.Clone()
	out.Fields = append(out.Fields, field)
	out.UpdatedAt = now()
	return out, field.ID, nil
}

// UpdateField merges patch into the field with the given id
func UpdateField(form model.Form, fieldID string, patch model.FieldPatch) (model.Form, error) {
	i := form.FieldIndex(fieldID)
	if i < 0 {
		return form, fmt.Errorf("update %s: %w", fieldID, model.ErrFieldNotFound)
	}

	out := form.Clone()
	field := &out.Fields[i]
	if patch.Label != nil {
		field.Label = *patch.Label
	}
	if patch.Placeholder != nil {
		field.Placeholder = *patch.Placeholder
	}
	if patch.HelpText != nil {
		field.HelpText = *patch.HelpText
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.Validation != nil {
		rule := patch.Validation.Clone()
		field.Validation = &rule
	}
	if patch.Options != nil && field.Type.HasOptions() {
		if err := checkOptions(patch.Options); err != nil {
			return form, err
		}
		field.Options = append([]model.FieldOption{}, patch.Options...)
	}
	out.UpdatedAt = now()
	return out, nil
}

// DeleteField removes the field and every step reference to it
func DeleteField(form model.Form, fieldID string) (model.Form, error) {
	i := form.FieldIndex(fieldID)
	if i < 0 {
		return form, fmt.Errorf("delete %s: %w", fieldID, model.ErrFieldNotFound)
	}

	out := form.Clone()
	out.Fields = append(out.Fields[:i], out.Fields[i+1:]...)
	for s := range out.Steps {
		out.Steps[s].Fields = without(out.Steps[s].Fields, fieldID)
	}
	out.UpdatedAt = now()
	return out, nil
}

// ReorderFields moves the element at from to position to. With a step id
// the step's field references are reordered, otherwise the form's fields.
func ReorderFields(form model.Form, from, to int, stepID string) (model.Form, error) {
	if stepID == "" {
		n := len(form.Fields)
		if err := checkMove(from, to, n); err != nil {
			return form, err
		}
		out := form.Clone()
		out.Fields = move(out.Fields, from, to)
		out.UpdatedAt = now()
		return out, nil
	}

	s := form.StepIndex(stepID)
	if s < 0 {
		return form, fmt.Errorf("reorder in %s: %w", stepID, model.ErrStepNotFound)
	}
	if err := checkMove(from, to, len(form.Steps[s].Fields)); err != nil {
		return form, err
	}
	out := form.Clone()
	out.Steps[s].Fields = move(out.Steps[s].Fields, from, to)
	out.UpdatedAt = now()
	return out, nil
}

func checkMove(from, to, n int) error {
	if from < 0 || from >= n {
		return &model.IndexError{Op: "reorder from", Index: from, Len: n}
	}
	if to < 0 || to >= n {
		return &model.IndexError{Op: "reorder to", Index: to, Len: n}
	}
	return nil
}

func checkOptions(options []model.FieldOption) error {
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if _, dup := seen[opt.Value]; dup {
			return fmt.Errorf("%w: %q", model.ErrDuplicateOption, opt.Value)
		}
		seen[opt.Value] = struct{}{}
	}
	return nil
}
