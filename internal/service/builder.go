package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"formcraft/internal/editor"
	"formcraft/internal/history"
	"formcraft/internal/model"
	"formcraft/internal/observability"
	"formcraft/internal/pubsub"
	"formcraft/internal/schema"
	"formcraft/internal/storage"

	"go.uber.org/zap"
)

// ChannelState is the bus channel carrying builder state after each change
const ChannelState = "builder.state"

// State is a read-only snapshot of the builder
type State struct {
	Form            *model.Form       `json:"form"`
	SelectedFieldID string            `json:"selectedFieldId,omitempty"`
	PreviewMode     model.PreviewMode `json:"previewMode"`
	Theme           model.Theme       `json:"theme"`
	IsDragging      bool              `json:"isDragging"`
	CanUndo         bool              `json:"canUndo"`
	CanRedo         bool              `json:"canRedo"`
	HistoryIndex    int               `json:"historyIndex"`
	HistoryLen      int               `json:"historyLen"`
}

// Builder holds the form being edited, its undo history and the UI flags,
// and exposes every edit as an action. Actions are serialized; observers
// are notified after each change on the caller's goroutine.
type Builder struct {
	mu        sync.Mutex
	gateway   storage.Gateway
	validator *schema.Validator
	shapes    *schema.Compiler
	bus       *pubsub.Bus[State]
	log       *zap.Logger
	metrics   *observability.Metrics
	maxDepth  int

	history  *history.History[model.Form]
	selected string
	preview  model.PreviewMode
	theme    model.Theme
	dragging bool
}

func NewBuilder(gateway storage.Gateway, validator *schema.Validator, shapes *schema.Compiler, bus *pubsub.Bus[State], log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	if validator == nil {
		validator = schema.NewValidator(nil)
	}
	if shapes == nil {
		shapes = schema.NewCompilerWithCache(0)
	}
	if bus == nil {
		bus = pubsub.New[State](log)
	}
	return &Builder{
		gateway:   gateway,
		validator: validator,
		shapes:    shapes,
		bus:       bus,
		log:       log,
		preview:   model.PreviewDesktop,
		theme:     model.ThemeLight,
	}
}

// SetMetrics sets the metrics sink
func (b *Builder) SetMetrics(m *observability.Metrics) {
	b.metrics = m
}

// SetHistoryDepth caps the undo history of forms opened afterwards
func (b *Builder) SetHistoryDepth(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxDepth = n
}

// Subscribe calls fn with the new state after every change
func (b *Builder) Subscribe(fn func(State)) func() {
	return b.bus.Subscribe(ChannelState, func(_ string, s State) { fn(s) })
}

// State returns a snapshot of the builder
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// CurrentForm returns a copy of the open form
func (b *Builder) CurrentForm() (model.Form, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.history == nil {
		return model.Form{}, false
	}
	return b.history.Current().Clone(), true
}

// HasForm reports whether a form is open
func (b *Builder) HasForm() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history != nil
}

// CreateForm opens a new empty form with a fresh history
func (b *Builder) CreateForm(title, description string) model.Form {
	now := time.Now().UTC()
	form := model.Form{
		ID:          model.NewID(),
		Title:       title,
		Description: description,
		Fields:      []model.FormField{},
		Steps:       []model.FormStep{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.open(form)
	b.log.Info("Form created", zap.String("form_id", form.ID), zap.String("title", title))
	return form
}

// LoadForm opens form with a fresh history
func (b *Builder) LoadForm(form model.Form) {
	b.open(form.Clone())
	b.log.Info("Form loaded", zap.String("form_id", form.ID))
}

// OpenForm loads a stored form by id and opens it
func (b *Builder) OpenForm(ctx context.Context, id string) (model.Form, bool, error) {
	form, ok, err := b.LoadFormByID(ctx, id)
	if err != nil || !ok {
		return model.Form{}, ok, err
	}
	b.LoadForm(form)
	return form, true, nil
}

// CloseForm discards the open form, its history and the selection
func (b *Builder) CloseForm() {
	b.mu.Lock()
	if b.history == nil {
		b.mu.Unlock()
		return
	}
	b.history = nil
	b.selected = ""
	b.dragging = false
	state := b.stateLocked()
	b.mu.Unlock()

	b.metrics.SetHistoryDepth(0)
	b.log.Info("Form closed")
	b.publish(state)
}

func (b *Builder) open(form model.Form) {
	b.mu.Lock()
	b.history = history.New(form, b.maxDepth)
	b.selected = ""
	b.dragging = false
	state := b.stateLocked()
	b.mu.Unlock()

	b.metrics.SetHistoryDepth(1)
	b.publish(state)
}

// UpdateForm edits the title and description
func (b *Builder) UpdateForm(patch model.FormPatch) error {
	return b.apply("update_form", func(f model.Form) (model.Form, error) {
		return editor.UpdateDetails(f, patch)
	})
}

// AddField appends a field and returns its id
func (b *Builder) AddField(spec model.FieldSpec) (string, error) {
	var id string
	err := b.apply("add_field", func(f model.Form) (model.Form, error) {
		out, newID, err := editor.AddField(f, spec)
		id = newID
		return out, err
	})
	return id, err
}

func (b *Builder) UpdateField(fieldID string, patch model.FieldPatch) error {
	return b.apply("update_field", func(f model.Form) (model.Form, error) {
		return editor.UpdateField(f, fieldID, patch)
	})
}

// DeleteField removes a field from the form and its steps
func (b *Builder) DeleteField(fieldID string) error {
	return b.apply("delete_field", func(f model.Form) (model.Form, error) {
		return editor.DeleteField(f, fieldID)
	})
}

func (b *Builder) ReorderFields(from, to int, stepID string) error {
	return b.apply("reorder_fields", func(f model.Form) (model.Form, error) {
		return editor.ReorderFields(f, from, to, stepID)
	})
}

// AddStep appends a step and returns its id
func (b *Builder) AddStep(title string) (string, error) {
	var id string
	err := b.apply("add_step", func(f model.Form) (model.Form, error) {
		out, newID, err := editor.AddStep(f, title)
		id = newID
		return out, err
	})
	return id, err
}

func (b *Builder) UpdateStep(stepID string, patch model.StepPatch) error {
	return b.apply("update_step", func(f model.Form) (model.Form, error) {
		return editor.UpdateStep(f, stepID, patch)
	})
}

func (b *Builder) DeleteStep(stepID string) error {
	return b.apply("delete_step", func(f model.Form) (model.Form, error) {
		return editor.DeleteStep(f, stepID)
	})
}

// PlaceField moves a field into a step at index
func (b *Builder) PlaceField(fieldID, stepID string, index int) error {
	return b.apply("place_field", func(f model.Form) (model.Form, error) {
		return editor.PlaceField(f, fieldID, stepID, index)
	})
}

func (b *Builder) ToggleMultiStep() error {
	return b.apply("toggle_multi_step", editor.ToggleMultiStep)
}

// apply runs an editing operation against the open form and commits the
// result. Unknown field or step ids make the action a no-op.
func (b *Builder) apply(action string, op func(model.Form) (model.Form, error)) error {
	b.mu.Lock()
	if b.history == nil {
		b.mu.Unlock()
		b.metrics.RecordAction(action, "no_form")
		return model.ErrNoForm
	}

	current := b.history.Current()
	next, err := op(current)
	if err != nil {
		b.mu.Unlock()
		if errors.Is(err, model.ErrNotFound) {
			b.metrics.RecordAction(action, "not_found")
			b.log.Warn("Ignoring edit of unknown element", zap.String("action", action), zap.Error(err))
			return nil
		}
		b.metrics.RecordAction(action, "error")
		return fmt.Errorf("%s: %w", action, err)
	}
	if reflect.DeepEqual(current, next) {
		b.mu.Unlock()
		b.metrics.RecordAction(action, "unchanged")
		return nil
	}

	b.history.Commit(next)
	b.dropStaleSelectionLocked()
	state := b.stateLocked()
	depth := b.history.Len()
	b.mu.Unlock()

	b.metrics.RecordAction(action, "ok")
	b.metrics.SetHistoryDepth(depth)
	b.log.Debug("Action committed",
		zap.String("action", action),
		zap.String("form_id", next.ID),
		zap.Int("history_index", state.HistoryIndex))
	b.publish(state)
	return nil
}

// Undo steps back in history. It reports false when there is nothing to undo.
func (b *Builder) Undo() bool {
	return b.travel("undo", func(h *history.History[model.Form]) bool {
		_, ok := h.Undo()
		return ok
	})
}

// Redo steps forward in history. It reports false when there is nothing to redo.
func (b *Builder) Redo() bool {
	return b.travel("redo", func(h *history.History[model.Form]) bool {
		_, ok := h.Redo()
		return ok
	})
}

func (b *Builder) travel(action string, move func(*history.History[model.Form]) bool) bool {
	b.mu.Lock()
	if b.history == nil || !move(b.history) {
		b.mu.Unlock()
		return false
	}
	b.dropStaleSelectionLocked()
	state := b.stateLocked()
	b.mu.Unlock()

	b.metrics.RecordAction(action, "ok")
	b.log.Debug("History moved", zap.String("action", action), zap.Int("history_index", state.HistoryIndex))
	b.publish(state)
	return true
}

func (b *Builder) CanUndo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history != nil && b.history.CanUndo()
}

func (b *Builder) CanRedo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history != nil && b.history.CanRedo()
}

// SelectField selects a field of the open form; an empty id clears the
// selection. Unknown ids are ignored.
func (b *Builder) SelectField(fieldID string) {
	b.update(func() bool {
		if fieldID != "" && (b.history == nil || b.history.Current().FieldIndex(fieldID) < 0) {
			return false
		}
		if b.selected == fieldID {
			return false
		}
		b.selected = fieldID
		return true
	})
}

// SetPreviewMode switches the preview device frame
func (b *Builder) SetPreviewMode(mode model.PreviewMode) error {
	switch mode {
	case model.PreviewDesktop, model.PreviewTablet, model.PreviewMobile:
	default:
		return fmt.Errorf("%w: unknown preview mode %q", model.ErrInvalidField, mode)
	}
	b.update(func() bool {
		changed := b.preview != mode
		b.preview = mode
		return changed
	})
	return nil
}

// SetDragging flags an ongoing drag in the canvas
func (b *Builder) SetDragging(dragging bool) {
	b.update(func() bool {
		changed := b.dragging != dragging
		b.dragging = dragging
		return changed
	})
}

// SetTheme stores the theme preference
func (b *Builder) SetTheme(ctx context.Context, theme model.Theme) error {
	if theme != model.ThemeLight && theme != model.ThemeDark {
		return fmt.Errorf("%w: unknown theme %q", model.ErrInvalidField, theme)
	}
	if err := b.gateway.SetTheme(ctx, theme); err != nil {
		return fmt.Errorf("failed to store theme: %w", err)
	}
	b.update(func() bool {
		changed := b.theme != theme
		b.theme = theme
		return changed
	})
	return nil
}

// RestoreTheme reads the stored theme preference into the state
func (b *Builder) RestoreTheme(ctx context.Context) error {
	theme, err := b.gateway.Theme(ctx)
	if err != nil {
		return fmt.Errorf("failed to load theme: %w", err)
	}
	b.update(func() bool {
		changed := b.theme != theme
		b.theme = theme
		return changed
	})
	return nil
}

func (b *Builder) update(fn func() bool) {
	b.mu.Lock()
	if !fn() {
		b.mu.Unlock()
		return
	}
	state := b.stateLocked()
	b.mu.Unlock()
	b.publish(state)
}

func (b *Builder) dropStaleSelectionLocked() {
	if b.selected != "" && b.history.Current().FieldIndex(b.selected) < 0 {
		b.selected = ""
	}
}

func (b *Builder) stateLocked() State {
	s := State{
		SelectedFieldID: b.selected,
		PreviewMode:     b.preview,
		Theme:           b.theme,
		IsDragging:      b.dragging,
	}
	if b.history != nil {
		form := b.history.Current().Clone()
		s.Form = &form
		s.CanUndo = b.history.CanUndo()
		s.CanRedo = b.history.CanRedo()
		s.HistoryIndex = b.history.Index()
		s.HistoryLen = b.history.Len()
	}
	return s
}

func (b *Builder) publish(state State) {
	b.bus.Publish(ChannelState, state)
}
