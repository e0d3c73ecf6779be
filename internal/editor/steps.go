package editor

import (
	"fmt"

	"formcraft/internal/model"
)

const firstStepTitle = "Step 1"

// AddStep appends an empty step and switches the form to multi-step mode
func AddStep(form model.Form, title string) (model.Form, string, error) {
	step := model.FormStep{ID: model.NewID(), Title: title, Fields: []string{}}
	out := form.Clone()
	out.Steps = append(out.Steps, step)
	out.IsMultiStep = true
	out.UpdatedAt = now()
	return out, step.ID, nil
}

// UpdateStep merges patch into the step with the given id. A replacement
// field list may only reference existing fields.
func UpdateStep(form model.Form, stepID string, patch model.StepPatch) (model.Form, error) {
	s := form.StepIndex(stepID)
	if s < 0 {
		return form, fmt.Errorf("update %s: %w", stepID, model.ErrStepNotFound)
	}

	out := form.Clone()
	step := &out.Steps[s]
	if patch.Title != nil {
		step.Title = *patch.Title
	}
	if patch.Description != nil {
		step.Description = *patch.Description
	}
	if patch.Fields != nil {
		for _, id := range patch.Fields {
			if form.FieldIndex(id) < 0 {
				return form, fmt.Errorf("%w: %s", model.ErrDanglingReference, id)
			}
		}
		step.Fields = append([]string{}, patch.Fields...)
	}
	out.UpdatedAt = now()
	return out, nil
}

// DeleteStep drops the step. Its fields stay in the form. Removing the
// last step leaves multi-step mode.
func DeleteStep(form model.Form, stepID string) (model.Form, error) {
	s := form.StepIndex(stepID)
	if s < 0 {
		return form, fmt.Errorf("delete %s: %w", stepID, model.ErrStepNotFound)
	}

	out := form.Clone()
	out.Steps = append(out.Steps[:s], out.Steps[s+1:]...)
	if len(out.Steps) == 0 {
		out.IsMultiStep = false
	}
	out.UpdatedAt = now()
	return out, nil
}

// PlaceField moves a field into a step at index, removing it from every
// other step. An index equal to the step length appends.
func PlaceField(form model.Form, fieldID, stepID string, index int) (model.Form, error) {
	if form.FieldIndex(fieldID) < 0 {
		return form, fmt.Errorf("place %s: %w", fieldID, model.ErrFieldNotFound)
	}
	s := form.StepIndex(stepID)
	if s < 0 {
		return form, fmt.Errorf("place in %s: %w", stepID, model.ErrStepNotFound)
	}

	out := form.Clone()
	for i := range out.Steps {
		out.Steps[i].Fields = without(out.Steps[i].Fields, fieldID)
	}
	ids := out.Steps[s].Fields
	if index < 0 || index > len(ids) {
		return form, &model.IndexError{Op: "place", Index: index, Len: len(ids) + 1}
	}
	out.Steps[s].Fields = insertAt(ids, index, fieldID)
	out.UpdatedAt = now()
	return out, nil
}

// ToggleMultiStep converts between single and multi-step layouts.
//
// Going to single-step rebuilds the field list from the steps in order,
// so fields no step references are dropped. Going to multi-step puts
// every field into one step; an empty form is left unchanged.
func ToggleMultiStep(form model.Form) (model.Form, error) {
	if form.IsMultiStep {
		out := form.Clone()
		fields := make([]model.FormField, 0, len(form.Fields))
		seen := make(map[string]struct{}, len(form.Fields))
		for _, step := range form.Steps {
			for _, field := range form.StepFields(step) {
				if _, dup := seen[field.ID]; dup {
					continue
				}
				seen[field.ID] = struct{}{}
				fields = append(fields, field.Clone())
			}
		}
		out.Fields = fields
		out.Steps = []model.FormStep{}
		out.IsMultiStep = false
		out.UpdatedAt = now()
		return out, nil
	}

	if len(form.Fields) == 0 {
		return form, nil
	}
	ids := make([]string, len(form.Fields))
	for i, field := range form.Fields {
		ids[i] = field.ID
	}
	out := form.Clone()
	out.Steps = []model.FormStep{{ID: model.NewID(), Title: firstStepTitle, Fields: ids}}
	out.IsMultiStep = true
	out.UpdatedAt = now()
	return out, nil
}
