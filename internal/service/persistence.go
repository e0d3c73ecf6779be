package service

import (
	"context"
	"fmt"
	"time"

	"formcraft/internal/model"
	"formcraft/internal/schema"

	"go.uber.org/zap"
)

// SaveForm upserts the open form into the gateway and returns its id
func (b *Builder) SaveForm(ctx context.Context) (string, error) {
	form, ok := b.CurrentForm()
	if !ok {
		return "", model.ErrNoForm
	}
	if err := b.gateway.SaveForm(ctx, form); err != nil {
		return "", fmt.Errorf("failed to save form: %w", err)
	}
	b.log.Info("Form saved", zap.String("form_id", form.ID))
	return form.ID, nil
}

// LoadFormByID looks up a stored form. ok is false when none has that id.
func (b *Builder) LoadFormByID(ctx context.Context, id string) (model.Form, bool, error) {
	form, ok, err := b.gateway.GetForm(ctx, id)
	if err != nil {
		return model.Form{}, false, fmt.Errorf("failed to load form: %w", err)
	}
	return form, ok, nil
}

// ListForms returns every stored form
func (b *Builder) ListForms(ctx context.Context) ([]model.Form, error) {
	forms, err := b.gateway.ListForms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	return forms, nil
}

// SaveResponse appends a response for formID without checking that the
// form exists
func (b *Builder) SaveResponse(ctx context.Context, formID string, data map[string]model.Value) (model.FormResponse, error) {
	copied := make(map[string]model.Value, len(data))
	for k, v := range data {
		copied[k] = v
	}
	resp := model.FormResponse{
		ID:          model.NewID(),
		FormID:      formID,
		Data:        copied,
		SubmittedAt: time.Now().UTC(),
	}
	if err := b.gateway.AppendResponse(ctx, resp); err != nil {
		return model.FormResponse{}, fmt.Errorf("failed to save response: %w", err)
	}
	b.metrics.RecordResponse()
	b.log.Info("Response saved", zap.String("form_id", formID), zap.String("response_id", resp.ID))
	return resp, nil
}

// GetResponses returns the responses submitted to formID
func (b *Builder) GetResponses(ctx context.Context, formID string) ([]model.FormResponse, error) {
	responses, err := b.gateway.ListResponses(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, nil
}

// SaveTemplate stores the shape of the open form as a named template
func (b *Builder) SaveTemplate(ctx context.Context, name, description string) (model.FormTemplate, error) {
	form, ok := b.CurrentForm()
	if !ok {
		return model.FormTemplate{}, model.ErrNoForm
	}
	tpl := model.FormTemplate{
		ID:          model.NewID(),
		Name:        name,
		Description: description,
		Form:        form.Shape(),
	}
	if err := b.gateway.AppendTemplate(ctx, tpl); err != nil {
		return model.FormTemplate{}, fmt.Errorf("failed to save template: %w", err)
	}
	b.log.Info("Template saved", zap.String("template_id", tpl.ID), zap.String("name", name))
	return tpl, nil
}

// LoadTemplate opens a fresh form instantiated from the template
func (b *Builder) LoadTemplate(tpl model.FormTemplate) model.Form {
	form := tpl.Form.Instantiate(model.NewID(), time.Now().UTC())
	b.open(form)
	b.log.Info("Template loaded", zap.String("template_id", tpl.ID), zap.String("form_id", form.ID))
	return form
}

// GetTemplates returns every stored template
func (b *Builder) GetTemplates(ctx context.Context) ([]model.FormTemplate, error) {
	templates, err := b.gateway.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// ValidateStep validates data against the fields of a step of the open
// form, or against every field when stepID is empty
func (b *Builder) ValidateStep(stepID string, data map[string]model.Value) (schema.Errors, bool, error) {
	form, ok := b.CurrentForm()
	if !ok {
		return nil, false, model.ErrNoForm
	}
	fields := form.Fields
	if stepID != "" {
		step, found := form.Step(stepID)
		if !found {
			return nil, false, fmt.Errorf("validate %s: %w", stepID, model.ErrStepNotFound)
		}
		fields = form.StepFields(step)
	}
	errs, valid := b.validator.ValidateFields(fields, data)
	return errs, valid, nil
}

// SubmitError carries the per-field failures of a rejected submission
type SubmitError struct {
	Errors schema.Errors
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%d field(s) failed validation", len(e.Errors))
}

func (e *SubmitError) Unwrap() error {
	return model.ErrInvalidSubmission
}

// Submit validates data against a stored form and stores it as a response.
// A value of the wrong shape fails with ErrInvalidSubmission; failed field
// rules fail with a *SubmitError listing every field.
func (b *Builder) Submit(ctx context.Context, formID string, data map[string]model.Value) (model.FormResponse, error) {
	form, ok, err := b.LoadFormByID(ctx, formID)
	if err != nil {
		return model.FormResponse{}, err
	}
	if !ok {
		return model.FormResponse{}, fmt.Errorf("submit %s: %w", formID, model.ErrFormNotFound)
	}

	if err := b.shapes.ValidateShape(ctx, form, data); err != nil {
		b.metrics.RecordValidationFailure()
		return model.FormResponse{}, err
	}
	if errs, valid := b.validator.ValidateFields(form.Fields, data); !valid {
		b.metrics.RecordValidationFailure()
		b.log.Debug("Submission rejected", zap.String("form_id", formID), zap.Int("errors", len(errs)))
		return model.FormResponse{}, &SubmitError{Errors: errs}
	}

	return b.SaveResponse(ctx, formID, data)
}

// LoadTemplateByID opens a fresh form from the stored template with that id
func (b *Builder) LoadTemplateByID(ctx context.Context, id string) (model.Form, bool, error) {
	templates, err := b.GetTemplates(ctx)
	if err != nil {
		return model.Form{}, false, err
	}
	for _, tpl := range templates {
		if tpl.ID == id {
			return b.LoadTemplate(tpl), true, nil
		}
	}
	return model.Form{}, false, nil
}
