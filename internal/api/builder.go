package api

import (
	"encoding/json"
	"net/http"

	"formcraft/internal/model"

	"github.com/go-chi/chi/v5"
)

func (d Dependencies) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.Builder.State())
}

func (d Dependencies) writeState(w http.ResponseWriter, code int) {
	writeJSON(w, code, d.Builder.State())
}

func (d Dependencies) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON: "+err.Error(), d.Log)
		return false
	}
	return true
}

func (d Dependencies) createForm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if !d.decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "title is required", d.Log)
		return
	}
	d.Builder.CreateForm(req.Title, req.Description)
	d.writeState(w, http.StatusCreated)
}

func (d Dependencies) updateForm(w http.ResponseWriter, r *http.Request) {
	var patch model.FormPatch
	if !d.decode(w, r, &patch) {
		return
	}
	if err := d.Builder.UpdateForm(patch); err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) closeForm(w http.ResponseWriter, r *http.Request) {
	d.Builder.CloseForm()
	w.WriteHeader(http.StatusNoContent)
}

func (d Dependencies) openForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, ok, err := d.Builder.OpenForm(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "not_found", "form not found: "+id, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) addField(w http.ResponseWriter, r *http.Request) {
	var spec model.FieldSpec
	if !d.decode(w, r, &spec) {
		return
	}
	id, err := d.Builder.AddField(spec)
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":    id,
		"state": d.Builder.State(),
	})
}

func (d Dependencies) updateField(w http.ResponseWriter, r *http.Request) {
	var patch model.FieldPatch
	if !d.decode(w, r, &patch) {
		return
	}
	if err := d.Builder.UpdateField(chi.URLParam(r, "fieldID"), patch); err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) deleteField(w http.ResponseWriter, r *http.Request) {
	if err := d.Builder.DeleteField(chi.URLParam(r, "fieldID")); err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) reorderFields(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   int    `json:"from"`
		To     int    `json:"to"`
		StepID string `json:"stepId"`
	}
	if !d.decode(w, r, &req) {
		return
	}
	if err := d.Builder.ReorderFields(req.From, req.To, req.StepID); err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) addStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !d.decode(w, r, &req) {
		return
	}
	id, err := d.Builder.AddStep(req.Title)
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":    id,
		"state": d.Builder.State(),
	})
}

func (d Dependencies) updateStep(w http.ResponseWriter, r *http.Request) {
	var patch model.StepPatch
	if !d.decode(w, r, &patch) {
		return
	}
	if err := d.Builder.UpdateStep(chi.URLParam(r, "stepID"), patch); err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) deleteStep(w http.ResponseWriter, r *http.Request) {
	if err := d.Builder.DeleteStep(chi.URLParam(r, "stepID")); err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) placeField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FieldID string `json:"fieldId"`
		Index   int    `json:"index"`
	}
	if !d.decode(w, r, &req) {
		return
	}
	if err := d.Builder.PlaceField(req.FieldID, chi.URLParam(r, "stepID"), req.Index); err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) toggleMultiStep(w http.ResponseWriter, r *http.Request) {
	if err := d.Builder.ToggleMultiStep(); err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) undo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applied": d.Builder.Undo(),
		"state":   d.Builder.State(),
	})
}

func (d Dependencies) redo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applied": d.Builder.Redo(),
		"state":   d.Builder.State(),
	})
}

func (d Dependencies) selectField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FieldID string `json:"fieldId"`
	}
	if !d.decode(w, r, &req) {
		return
	}
	d.Builder.SelectField(req.FieldID)
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) setPreviewMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode model.PreviewMode `json:"mode"`
	}
	if !d.decode(w, r, &req) {
		return
	}
	if err := d.Builder.SetPreviewMode(req.Mode); err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) setDragging(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dragging bool `json:"dragging"`
	}
	if !d.decode(w, r, &req) {
		return
	}
	d.Builder.SetDragging(req.Dragging)
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) setTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme model.Theme `json:"theme"`
	}
	if !d.decode(w, r, &req) {
		return
	}
	if err := d.Builder.SetTheme(r.Context(), req.Theme); err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}

func (d Dependencies) saveForm(w http.ResponseWriter, r *http.Request) {
	// Save through the auto-saver when present so its status reflects
	// manual saves as well.
	if d.AutoSaver != nil {
		if err := d.AutoSaver.SaveNow(r.Context()); err != nil {
			writeServiceError(w, err, d.Log)
			return
		}
		form, _ := d.Builder.CurrentForm()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":       form.ID,
			"autosave": d.AutoSaver.Status(),
		})
		return
	}

	id, err := d.Builder.SaveForm(r.Context())
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (d Dependencies) autosaveStatus(w http.ResponseWriter, r *http.Request) {
	if d.AutoSaver == nil {
		WriteError(w, http.StatusNotFound, "not_found", "auto-save is disabled", d.Log)
		return
	}
	writeJSON(w, http.StatusOK, d.AutoSaver.Status())
}

func (d Dependencies) validateStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StepID string                 `json:"stepId"`
		Data   map[string]model.Value `json:"data"`
	}
	if !d.decode(w, r, &req) {
		return
	}
	errs, ok, err := d.Builder.ValidateStep(req.StepID, req.Data)
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":  ok,
		"errors": errs,
	})
}

func (d Dependencies) saveTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !d.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "name is required", d.Log)
		return
	}
	tpl, err := d.Builder.SaveTemplate(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (d Dependencies) loadTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, ok, err := d.Builder.LoadTemplateByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "not_found", "template not found: "+id, d.Log)
		return
	}
	d.writeState(w, http.StatusOK)
}
