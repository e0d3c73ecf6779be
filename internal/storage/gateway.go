package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"formcraft/internal/model"
)

// Keys of the persisted collections
const (
	KeyForms     = "form-builder-forms"
	KeyResponses = "form-builder-responses"
	KeyTemplates = "form-builder-templates"
	KeyTheme     = "form-builder-theme"
)

// Gateway persists forms, responses, templates and the theme preference
type Gateway interface {
	SaveForm(ctx context.Context, form model.Form) error
	GetForm(ctx context.Context, id string) (model.Form, bool, error)
	ListForms(ctx context.Context) ([]model.Form, error)
	AppendResponse(ctx context.Context, resp model.FormResponse) error
	ListResponses(ctx context.Context, formID string) ([]model.FormResponse, error)
	AppendTemplate(ctx context.Context, tpl model.FormTemplate) error
	ListTemplates(ctx context.Context) ([]model.FormTemplate, error)
	Theme(ctx context.Context) (model.Theme, error)
	SetTheme(ctx context.Context, theme model.Theme) error
}

// KVGateway keeps each collection as a JSON array under a single key.
// Read-modify-write cycles are serialized within the process.
type KVGateway struct {
	mu sync.Mutex
	kv KV
}

func NewKVGateway(kv KV) *KVGateway {
	return &KVGateway{kv: kv}
}

// SaveForm replaces the stored form with the same id or appends it
func (g *KVGateway) SaveForm(ctx context.Context, form model.Form) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var forms []model.Form
	if err := g.load(ctx, KeyForms, &forms); err != nil {
		return err
	}
	replaced := false
	for i := range forms {
		if forms[i].ID == form.ID {
			forms[i] = form
			replaced = true
			break
		}
	}
	if !replaced {
		forms = append(forms, form)
	}
	return g.store(ctx, KeyForms, forms)
}

func (g *KVGateway) GetForm(ctx context.Context, id string) (model.Form, bool, error) {
	forms, err := g.ListForms(ctx)
	if err != nil {
		return model.Form{}, false, err
	}
	for _, form := range forms {
		if form.ID == id {
			return form, true, nil
		}
	}
	return model.Form{}, false, nil
}

func (g *KVGateway) ListForms(ctx context.Context) ([]model.Form, error) {
	forms := []model.Form{}
	if err := g.load(ctx, KeyForms, &forms); err != nil {
		return nil, err
	}
	return forms, nil
}

func (g *KVGateway) AppendResponse(ctx context.Context, resp model.FormResponse) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var responses []model.FormResponse
	if err := g.load(ctx, KeyResponses, &responses); err != nil {
		return err
	}
	return g.store(ctx, KeyResponses, append(responses, resp))
}

// ListResponses returns the responses of formID in submission order.
// An empty formID lists every response.
func (g *KVGateway) ListResponses(ctx context.Context, formID string) ([]model.FormResponse, error) {
	var responses []model.FormResponse
	if err := g.load(ctx, KeyResponses, &responses); err != nil {
		return nil, err
	}
	out := make([]model.FormResponse, 0, len(responses))
	for _, r := range responses {
		if formID == "" || r.FormID == formID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (g *KVGateway) AppendTemplate(ctx context.Context, tpl model.FormTemplate) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var templates []model.FormTemplate
	if err := g.load(ctx, KeyTemplates, &templates); err != nil {
		return err
	}
	return g.store(ctx, KeyTemplates, append(templates, tpl))
}

func (g *KVGateway) ListTemplates(ctx context.Context) ([]model.FormTemplate, error) {
	templates := []model.FormTemplate{}
	if err := g.load(ctx, KeyTemplates, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// Theme returns the stored theme, light when none was set
func (g *KVGateway) Theme(ctx context.Context) (model.Theme, error) {
	raw, ok, err := g.kv.Get(ctx, KeyTheme)
	if err != nil {
		return "", fmt.Errorf("load theme: %w", err)
	}
	if !ok || len(raw) == 0 {
		return model.ThemeLight, nil
	}
	return model.Theme(raw), nil
}

func (g *KVGateway) SetTheme(ctx context.Context, theme model.Theme) error {
	if err := g.kv.Set(ctx, KeyTheme, []byte(theme)); err != nil {
		return fmt.Errorf("store theme: %w", err)
	}
	return nil
}

func (g *KVGateway) load(ctx context.Context, key string, dst any) error {
	raw, ok, err := g.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (g *KVGateway) store(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := g.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}
