package model

import (
	"strings"
	"time"
)

// FieldType represents the kind of input a field renders
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeDropdown FieldType = "dropdown"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeDate     FieldType = "date"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeNumber   FieldType = "number"
	FieldTypeRadio    FieldType = "radio"
)

// FieldTypes lists every supported field type in palette order.
var FieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeTextarea,
	FieldTypeDropdown,
	FieldTypeCheckbox,
	FieldTypeDate,
	FieldTypeEmail,
	FieldTypePhone,
	FieldTypeNumber,
	FieldTypeRadio,
}

// Valid reports whether t is one of the known field types
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether fields of this type carry an option list
func (t FieldType) HasOptions() bool {
	return t == FieldTypeDropdown || t == FieldTypeRadio || t == FieldTypeCheckbox
}

// PreviewMode represents the device frame used by the builder preview
type PreviewMode string

const (
	PreviewDesktop PreviewMode = "desktop"
	PreviewTablet  PreviewMode = "tablet"
	PreviewMobile  PreviewMode = "mobile"
)

// Theme represents the UI color scheme preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// SaveStatus represents the outcome of the latest auto-save
type SaveStatus string

const (
	SaveStatusSaved  SaveStatus = "saved"
	SaveStatusSaving SaveStatus = "saving"
	SaveStatusError  SaveStatus = "error"
)

// ValidationRule holds optional constraints attached to a field.
// Required duplicates FormField.Required and Message is reserved.
type ValidationRule struct {
	Required  bool   `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength *int   `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
}

// FieldOption is a selectable choice of a dropdown, radio or checkbox field
type FieldOption struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// FormField is a single input definition
type FormField struct {
	ID          string          `json:"id" yaml:"id"`
	Type        FieldType       `json:"type" yaml:"type"`
	Label       string          `json:"label" yaml:"label"`
	Placeholder string          `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText    string          `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Required    bool            `json:"required,omitempty" yaml:"required,omitempty"`
	Validation  *ValidationRule `json:"validation,omitempty" yaml:"validation,omitempty"`
	Options     []FieldOption   `json:"options,omitempty" yaml:"options,omitempty"`
}

// FieldSpec describes a field to be added; the id is generated on insert.
type FieldSpec struct {
	Type        FieldType       `json:"type"`
	Label       string          `json:"label"`
	Placeholder string          `json:"placeholder,omitempty"`
	HelpText    string          `json:"helpText,omitempty"`
	Required    bool            `json:"required,omitempty"`
	Validation  *ValidationRule `json:"validation,omitempty"`
	Options     []FieldOption   `json:"options,omitempty"`
}

// FieldPatch is a partial field update. Nil members are left untouched.
// The field type cannot be patched.
type FieldPatch struct {
	Label       *string         `json:"label,omitempty"`
	Placeholder *string         `json:"placeholder,omitempty"`
	HelpText    *string         `json:"helpText,omitempty"`
	Required    *bool           `json:"required,omitempty"`
	Validation  *ValidationRule `json:"validation,omitempty"`
	Options     []FieldOption   `json:"options,omitempty"`
}

// FormStep is an ordered wizard page referencing fields by id
type FormStep struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []string `json:"fields" yaml:"fields"`
}

// StepPatch is a partial step update. A non-nil Fields replaces the id list.
type StepPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Fields      []string `json:"fields,omitempty"`
}

// Form is the document being authored
type Form struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []FormField `json:"fields"`
	Steps       []FormStep  `json:"steps"`
	IsMultiStep bool        `json:"isMultiStep"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// FormPatch is a partial update of the form details
type FormPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// FormShape is a form without identity, as stored in a template
type FormShape struct {
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FormField `json:"fields" yaml:"fields"`
	Steps       []FormStep  `json:"steps" yaml:"steps"`
	IsMultiStep bool        `json:"isMultiStep" yaml:"isMultiStep"`
}

// FormResponse is one completed submission
type FormResponse struct {
	ID          string           `json:"id"`
	FormID      string           `json:"formId"`
	Data        map[string]Value `json:"data"`
	SubmittedAt time.Time        `json:"submittedAt"`
}

// FormTemplate is a named, reusable form shape
type FormTemplate struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Form        FormShape `json:"form" yaml:"form"`
}

// Field returns the field with the given id
func (f Form) Field(id string) (FormField, bool) {
	for _, field := range f.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return FormField{}, false
}

// FieldIndex returns the position of a field in Fields, or -1
func (f Form) FieldIndex(id string) int {
	for i, field := range f.Fields {
		if field.ID == id {
			return i
		}
	}
	return -1
}

// Step returns the step with the given id
func (f Form) Step(id string) (FormStep, bool) {
	if i := f.StepIndex(id); i >= 0 {
		return f.Steps[i], true
	}
	return FormStep{}, false
}

// StepIndex returns the position of a step in Steps, or -1
func (f Form) StepIndex(id string) int {
	for i, step := range f.Steps {
		if step.ID == id {
			return i
		}
	}
	return -1
}

// StepFields resolves a step's field ids, skipping ids with no field.
func (f Form) StepFields(step FormStep) []FormField {
	fields := make([]FormField, 0, len(step.Fields))
	for _, id := range step.Fields {
		if field, ok := f.Field(id); ok {
			fields = append(fields, field)
		}
	}
	return fields
}

// Shape strips identity and timestamps from the form
func (f Form) Shape() FormShape {
	c := f.Clone()
	return FormShape{
		Title:       c.Title,
		Description: c.Description,
		Fields:      c.Fields,
		Steps:       c.Steps,
		IsMultiStep: c.IsMultiStep,
	}
}

// Clone returns a deep copy so that edits never alias a history snapshot.
func (f Form) Clone() Form {
	out := f
	out.Fields = cloneFields(f.Fields)
	out.Steps = cloneSteps(f.Steps)
	return out
}

// Instantiate builds a live form from a template shape
func (s FormShape) Instantiate(id string, now time.Time) Form {
	return Form{
		ID:          id,
		Title:       s.Title,
		Description: s.Description,
		Fields:      cloneFields(s.Fields),
		Steps:       cloneSteps(s.Steps),
		IsMultiStep: s.IsMultiStep,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy of the field
func (f FormField) Clone() FormField {
	out := f
	if f.Validation != nil {
		v := f.Validation.Clone()
		out.Validation = &v
	}
	if f.Options != nil {
		out.Options = append([]FieldOption(nil), f.Options...)
	}
	return out
}

// Clone returns a deep copy of the rule
func (r ValidationRule) Clone() ValidationRule {
	out := r
	if r.MinLength != nil {
		n := *r.MinLength
		out.MinLength = &n
	}
	if r.MaxLength != nil {
		n := *r.MaxLength
		out.MaxLength = &n
	}
	return out
}

// ShareLink returns the public fill-in URL of a form
func ShareLink(origin, formID string) string {
	return strings.TrimRight(origin, "/") + "/form/" + formID
}

func cloneFields(in []FormField) []FormField {
	out := make([]FormField, len(in))
	for i, field := range in {
		out[i] = field.Clone()
	}
	return out
}

func cloneSteps(in []FormStep) []FormStep {
	out := make([]FormStep, len(in))
	for i, step := range in {
		out[i] = step
		out[i].Fields = append([]string{}, step.Fields...)
	}
	return out
}
