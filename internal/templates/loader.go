// Package templates reads form templates from YAML files.
package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"formcraft/internal/editor"
	"formcraft/internal/model"
	"formcraft/internal/storage"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LoadDir reads every *.yaml and *.yml file of dir
func LoadDir(dir string) ([]model.FormTemplate, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads every *.yaml and *.yml file at the root of fsys, in file
// name order. Each file holds one template.
func LoadFS(fsys fs.FS) ([]model.FormTemplate, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("templates: reading directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []model.FormTemplate
	seen := make(map[string]string)
	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("templates: reading %s: %w", entry.Name(), err)
		}
		var tpl model.FormTemplate
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("templates: parsing %s: %w", entry.Name(), err)
		}
		if err := Validate(tpl); err != nil {
			return nil, fmt.Errorf("templates: %s: %w", entry.Name(), err)
		}
		if prev, dup := seen[tpl.ID]; dup {
			return nil, fmt.Errorf("templates: %s: id %q already defined in %s", entry.Name(), tpl.ID, prev)
		}
		seen[tpl.ID] = entry.Name()
		out = append(out, tpl)
	}
	return out, nil
}

// Validate checks that a template can be instantiated into a consistent form
func Validate(tpl model.FormTemplate) error {
	var errs []error
	if tpl.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if tpl.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	for _, field := range tpl.Form.Fields {
		if !field.Type.Valid() {
			errs = append(errs, fmt.Errorf("field %s: %w: unknown type %q", field.ID, model.ErrInvalidField, field.Type))
		}
	}
	if err := editor.CheckIntegrity(tpl.Form.Instantiate(tpl.ID, time.Time{})); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Seed appends the templates the gateway does not hold yet, by id, and
// returns how many were added
func Seed(ctx context.Context, gw storage.Gateway, templates []model.FormTemplate, log *zap.Logger) (int, error) {
	existing, err := gw.ListTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list templates: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, tpl := range existing {
		known[tpl.ID] = struct{}{}
	}

	added := 0
	for _, tpl := range templates {
		if _, ok := known[tpl.ID]; ok {
			continue
		}
		if err := gw.AppendTemplate(ctx, tpl); err != nil {
			return added, fmt.Errorf("failed to store template %s: %w", tpl.ID, err)
		}
		known[tpl.ID] = struct{}{}
		added++
		log.Info("Template seeded", zap.String("template_id", tpl.ID), zap.String("name", tpl.Name))
	}
	return added, nil
}
