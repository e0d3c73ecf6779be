package service

import (
	"context"
	"errors"
	"testing"

	"formcraft/internal/editor"
	"formcraft/internal/model"
	"formcraft/internal/observability"
	"formcraft/internal/schema"
	"formcraft/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const emailPattern = `^[^@\s]+@[^@\s]+\.[^@\s]+$`

func newTestBuilder(t *testing.T) (*Builder, *storage.KVGateway) {
	t.Helper()
	gw := storage.NewKVGateway(storage.NewMemoryKV())
	return NewBuilder(gw, nil, nil, nil, zap.NewNop()), gw
}

func currentForm(t *testing.T, b *Builder) model.Form {
	t.Helper()
	form, ok := b.CurrentForm()
	require.True(t, ok)
	require.NoError(t, editor.CheckIntegrity(form))
	return form
}

func TestBuilder_CreateFormResetsHistory(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.CreateForm("First", "")
	_, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "A"})
	require.NoError(t, err)
	require.True(t, b.CanUndo())

	form := b.CreateForm("Second", "desc")
	assert.False(t, b.CanUndo())
	assert.False(t, b.CanRedo())
	assert.Equal(t, "Second", currentForm(t, b).Title)
	assert.Equal(t, form.ID, currentForm(t, b).ID)
	assert.Empty(t, currentForm(t, b).Fields)
}

func TestBuilder_UndoRedo(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.CreateForm("Form", "")

	a, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "A"})
	require.NoError(t, err)
	_, err = b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "B"})
	require.NoError(t, err)
	assert.False(t, b.CanRedo())

	require.True(t, b.Undo())
	assert.Len(t, currentForm(t, b).Fields, 1)
	assert.True(t, b.CanRedo())

	_, err = b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "C"})
	require.NoError(t, err)
	assert.False(t, b.CanRedo())

	state := b.State()
	assert.Equal(t, 3, state.HistoryLen)
	assert.Equal(t, 2, state.HistoryIndex)
	labels := []string{}
	for _, f := range state.Form.Fields {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"A", "C"}, labels)
	assert.Equal(t, a, state.Form.Fields[0].ID)

	require.True(t, b.Undo())
	require.True(t, b.Undo())
	assert.False(t, b.Undo())
	assert.Empty(t, currentForm(t, b).Fields)
	require.True(t, b.Redo())
	assert.Len(t, currentForm(t, b).Fields, 1)
}

func TestBuilder_NoFormOpen(t *testing.T) {
	b, _ := newTestBuilder(t)

	_, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "A"})
	assert.ErrorIs(t, err, model.ErrNoForm)
	assert.ErrorIs(t, b.ToggleMultiStep(), model.ErrNoForm)
	assert.False(t, b.Undo())
	assert.False(t, b.CanUndo())

	_, err = b.SaveForm(context.Background())
	assert.ErrorIs(t, err, model.ErrNoForm)
	_, err = b.SaveTemplate(context.Background(), "x", "")
	assert.ErrorIs(t, err, model.ErrNoForm)
	assert.Nil(t, b.State().Form)
}

func TestBuilder_UnknownIDsAreNoops(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.CreateForm("Form", "")

	label := "x"
	assert.NoError(t, b.UpdateField("missing", model.FieldPatch{Label: &label}))
	assert.NoError(t, b.DeleteField("missing"))
	assert.NoError(t, b.DeleteStep("missing"))
	assert.NoError(t, b.ReorderFields(0, 0, "missing"))
	assert.False(t, b.CanUndo(), "no-ops must not enter history")
}

func TestBuilder_IndexErrorsAreReturned(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.CreateForm("Form", "")
	_, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "A"})
	require.NoError(t, err)

	err = b.ReorderFields(0, 5, "")
	assert.ErrorIs(t, err, model.ErrIndexOutOfRange)
	assert.Equal(t, 2, b.State().HistoryLen)
}

func TestBuilder_UnchangedActionSkipsHistory(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.CreateForm("Form", "")
	require.NoError(t, b.ToggleMultiStep())
	assert.False(t, b.CanUndo())
	assert.False(t, currentForm(t, b).IsMultiStep)
}

func TestBuilder_StepActions(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.CreateForm("Form", "")
	a, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "A"})
	require.NoError(t, err)
	c, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "C"})
	require.NoError(t, err)

	require.NoError(t, b.ToggleMultiStep())
	form := currentForm(t, b)
	require.Len(t, form.Steps, 1)
	first := form.Steps[0].ID

	second, err := b.AddStep("Two")
	require.NoError(t, err)
	require.NoError(t, b.PlaceField(c, second, 0))
	title := "Renamed"
	require.NoError(t, b.UpdateStep(second, model.StepPatch{Title: &title}))

	form = currentForm(t, b)
	assert.Equal(t, []string{a}, form.Steps[0].Fields)
	assert.Equal(t, []string{c}, form.Steps[1].Fields)
	assert.Equal(t, "Renamed", form.Steps[1].Title)

	require.NoError(t, b.DeleteStep(first))
	require.NoError(t, b.DeleteStep(second))
	form = currentForm(t, b)
	assert.False(t, form.IsMultiStep)
	assert.Len(t, form.Fields, 2)
}

func TestBuilder_DeleteClearsSelection(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.CreateForm("Form", "")
	id, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "A"})
	require.NoError(t, err)

	b.SelectField(id)
	assert.Equal(t, id, b.State().SelectedFieldID)

	require.NoError(t, b.DeleteField(id))
	assert.Empty(t, b.State().SelectedFieldID)

	b.SelectField("ghost")
	assert.Empty(t, b.State().SelectedFieldID)
}

func TestBuilder_NotifiesObservers(t *testing.T) {
	b, _ := newTestBuilder(t)
	var states []State
	unsubscribe := b.Subscribe(func(s State) { states = append(states, s) })

	b.CreateForm("Form", "")
	_, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "A"})
	require.NoError(t, err)
	b.SetDragging(true)
	require.NoError(t, b.SetPreviewMode(model.PreviewMobile))
	b.Undo()

	require.Len(t, states, 5)
	assert.False(t, states[0].CanUndo)
	assert.True(t, states[1].CanUndo)
	assert.True(t, states[2].IsDragging)
	assert.Equal(t, model.PreviewMobile, states[3].PreviewMode)
	assert.True(t, states[4].CanRedo)

	// Snapshots handed to observers are detached from the store.
	states[1].Form.Fields[0].Label = "mutated"
	require.True(t, b.Redo())
	assert.Equal(t, "A", b.State().Form.Fields[0].Label)
	require.Len(t, states, 6)

	unsubscribe()
	b.CloseForm()
	assert.Len(t, states, 6)
}

func TestBuilder_PreviewAndTheme(t *testing.T) {
	ctx := context.Background()
	b, gw := newTestBuilder(t)

	assert.Error(t, b.SetPreviewMode("watch"))
	assert.Equal(t, model.PreviewDesktop, b.State().PreviewMode)

	require.NoError(t, b.SetTheme(ctx, model.ThemeDark))
	assert.Equal(t, model.ThemeDark, b.State().Theme)
	stored, err := gw.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeDark, stored)

	assert.Error(t, b.SetTheme(ctx, "neon"))

	other := NewBuilder(gw, nil, nil, nil, nil)
	require.NoError(t, other.RestoreTheme(ctx))
	assert.Equal(t, model.ThemeDark, other.State().Theme)
}

func TestBuilder_SaveAndOpen(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t)
	form := b.CreateForm("Survey", "")
	_, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "A"})
	require.NoError(t, err)

	id, err := b.SaveForm(ctx)
	require.NoError(t, err)
	assert.Equal(t, form.ID, id)

	// Saving again upserts.
	title := "Survey v2"
	require.NoError(t, b.UpdateForm(model.FormPatch{Title: &title}))
	_, err = b.SaveForm(ctx)
	require.NoError(t, err)
	forms, err := b.ListForms(ctx)
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, "Survey v2", forms[0].Title)

	b.CloseForm()
	assert.False(t, b.HasForm())

	opened, ok, err := b.OpenForm(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Survey v2", opened.Title)
	assert.False(t, b.CanUndo())
	assert.Len(t, currentForm(t, b).Fields, 1)

	_, ok, err = b.OpenForm(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, id, currentForm(t, b).ID)
}

func TestBuilder_Templates(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t)
	original := b.CreateForm("Contact", "Get in touch")
	_, err := b.AddField(model.FieldSpec{Type: model.FieldTypeEmail, Label: "Email"})
	require.NoError(t, err)

	tpl, err := b.SaveTemplate(ctx, "Contact", "Contact form")
	require.NoError(t, err)
	assert.Equal(t, "Contact", tpl.Form.Title)
	require.Len(t, tpl.Form.Fields, 1)

	templates, err := b.GetTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)

	form := b.LoadTemplate(templates[0])
	assert.NotEqual(t, original.ID, form.ID)
	assert.Equal(t, "Get in touch", form.Description)
	assert.False(t, b.CanUndo())
	assert.Empty(t, b.State().SelectedFieldID)
	assert.Len(t, currentForm(t, b).Fields, 1)
}

func TestBuilder_ContactScenario(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t)

	form := b.CreateForm("Contact", "")
	nameID, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "Name", Required: true})
	require.NoError(t, err)
	emailID, err := b.AddField(model.FieldSpec{
		Type:       model.FieldTypeEmail,
		Label:      "Email",
		Required:   true,
		Validation: &model.ValidationRule{Pattern: emailPattern},
	})
	require.NoError(t, err)

	errs, ok, err := b.ValidateStep("", map[string]model.Value{
		nameID:  model.String(""),
		emailID: model.String("x"),
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Name is required", errs[nameID])
	assert.Equal(t, "Please enter a valid email address", errs[emailID])

	data := map[string]model.Value{
		nameID:  model.String("Ann"),
		emailID: model.String("a@b.com"),
	}
	errs, ok, err = b.ValidateStep("", data)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, errs)

	resp, err := b.SaveResponse(ctx, form.ID, data)
	require.NoError(t, err)

	responses, err := b.GetResponses(ctx, form.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, resp.ID, responses[0].ID)
	assert.Equal(t, model.String("Ann"), responses[0].Data[nameID])
}

func TestBuilder_ValidateStepScopesToStep(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.CreateForm("Form", "")
	a, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "A", Required: true})
	require.NoError(t, err)
	_, err = b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "B", Required: true})
	require.NoError(t, err)
	step, err := b.AddStep("One")
	require.NoError(t, err)
	require.NoError(t, b.PlaceField(a, step, 0))

	errs, ok, err := b.ValidateStep(step, map[string]model.Value{a: model.String("ok")})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, errs)

	_, _, err = b.ValidateStep("ghost", nil)
	assert.ErrorIs(t, err, model.ErrStepNotFound)
}

func TestBuilder_Submit(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t)
	reg := prometheus.NewRegistry()
	metrics := observability.InitMetrics(reg)
	b.SetMetrics(metrics)

	form := b.CreateForm("Order", "")
	qty, err := b.AddField(model.FieldSpec{Type: model.FieldTypeNumber, Label: "Qty", Required: true})
	require.NoError(t, err)
	tags, err := b.AddField(model.FieldSpec{
		Type:    model.FieldTypeCheckbox,
		Label:   "Extras",
		Options: []model.FieldOption{{Label: "Gift wrap", Value: "gift"}},
	})
	require.NoError(t, err)
	_, err = b.SaveForm(ctx)
	require.NoError(t, err)

	resp, err := b.Submit(ctx, form.ID, map[string]model.Value{
		qty:  model.Number(0),
		tags: model.List("gift"),
	})
	require.NoError(t, err)
	assert.Equal(t, form.ID, resp.FormID)

	_, err = b.Submit(ctx, form.ID, map[string]model.Value{qty: model.Null()})
	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr))
	assert.Equal(t, schema.Errors{qty: "Qty is required"}, submitErr.Errors)
	assert.ErrorIs(t, err, model.ErrInvalidSubmission)

	_, err = b.Submit(ctx, form.ID, map[string]model.Value{qty: model.Number(1), tags: model.String("gift")})
	assert.ErrorIs(t, err, model.ErrInvalidSubmission)
	assert.False(t, errors.As(err, &submitErr))

	_, err = b.Submit(ctx, "missing", nil)
	assert.ErrorIs(t, err, model.ErrFormNotFound)

	responses, err := b.GetResponses(ctx, form.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResponsesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ValidationFailuresTotal))
}

func TestBuilder_HistoryDepth(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.SetHistoryDepth(2)
	b.CreateForm("Form", "")
	for i := 0; i < 3; i++ {
		_, err := b.AddField(model.FieldSpec{Type: model.FieldTypeText, Label: "F"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, b.State().HistoryLen)
	require.True(t, b.Undo())
	assert.False(t, b.Undo())
	assert.Len(t, currentForm(t, b).Fields, 2)
}
