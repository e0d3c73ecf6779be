package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"formcraft/internal/model"
	"formcraft/internal/report"

	"github.com/go-chi/chi/v5"
)

type formResponse struct {
	model.Form
	ShareLink string `json:"shareLink,omitempty"`
}

func (d Dependencies) listForms(w http.ResponseWriter, r *http.Request) {
	forms, err := d.Builder.ListForms(r.Context())
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"forms": forms})
}

func (d Dependencies) getForm(w http.ResponseWriter, r *http.Request) {
	form, ok := d.storedForm(w, r)
	if !ok {
		return
	}
	resp := formResponse{Form: form}
	if d.PublicOrigin != "" {
		resp.ShareLink = model.ShareLink(d.PublicOrigin, form.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d Dependencies) submitResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data map[string]model.Value `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON: "+err.Error(), d.Log)
		return
	}

	resp, err := d.Builder.Submit(r.Context(), chi.URLParam(r, "id"), req.Data)
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (d Dependencies) listResponses(w http.ResponseWriter, r *http.Request) {
	form, ok := d.storedForm(w, r)
	if !ok {
		return
	}
	responses, err := d.Builder.GetResponses(r.Context(), form.ID)
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"responses": responses})
}

func (d Dependencies) exportResponses(w http.ResponseWriter, r *http.Request) {
	form, ok := d.storedForm(w, r)
	if !ok {
		return
	}
	responses, err := d.Builder.GetResponses(r.Context(), form.ID)
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(form)))
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, form, responses); err != nil {
		d.Log.Sugar().Warnw("CSV export interrupted", "form_id", form.ID, "error", err)
	}
}

func (d Dependencies) analytics(w http.ResponseWriter, r *http.Request) {
	form, ok := d.storedForm(w, r)
	if !ok {
		return
	}
	responses, err := d.Builder.GetResponses(r.Context(), form.ID)
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, report.Analyze(form, responses, time.Now()))
}

func (d Dependencies) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := d.Builder.GetTemplates(r.Context())
	if err != nil {
		writeServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

func (d Dependencies) storedForm(w http.ResponseWriter, r *http.Request) (model.Form, bool) {
	id := chi.URLParam(r, "id")
	form, ok, err := d.Builder.LoadFormByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, d.Log)
		return model.Form{}, false
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "not_found", "form not found: "+id, d.Log)
		return model.Form{}, false
	}
	return form, true
}
