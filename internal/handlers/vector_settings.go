package handlers

import (
	"net/http"

	"github.com/7flash/argilla/internal/models"
	"github.com/7flash/argilla/internal/policy"
)

// ListDatasetVectorSettings lists the vector settings of a dataset
func (h *DatasetHandler) ListDatasetVectorSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dataset := h.datasetFromPath(w, r)
	if dataset == nil || !h.authorize(w, user, policy.VectorSettings.List(dataset)) {
		return
	}

	items, err := h.service.ListVectorSettings(r.Context(), dataset)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

// CreateDatasetVectorSettings declares a vector space on a draft dataset
func (h *DatasetHandler) CreateDatasetVectorSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok || !h.authorize(w, user, policy.VectorSettings.Create()) {
		return
	}
	dataset := h.datasetFromPath(w, r)
	if dataset == nil {
		return
	}

	var req models.VectorSettingsCreate
	if !decodeJSON(w, r, &req) {
		return
	}

	vs, err := h.service.CreateVectorSettings(r.Context(), dataset, req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, vs)
}

// vectorSettingsFromPath loads the {id} vector settings, writing the error response when it returns nil
func (h *DatasetHandler) vectorSettingsFromPath(w http.ResponseWriter, r *http.Request) *models.VectorSettings {
	id, ok := pathID(w, r)
	if !ok {
		return nil
	}
	vs, err := h.service.GetVectorSettings(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return nil
	}
	return vs
}

// UpdateVectorSettings renames vector settings; only the title can change
func (h *DatasetHandler) UpdateVectorSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok || !h.authorize(w, user, policy.VectorSettings.Update()) {
		return
	}
	vs := h.vectorSettingsFromPath(w, r)
	if vs == nil {
		return
	}

	var req models.VectorSettingsUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateVectorSettings(r.Context(), vs, req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteVectorSettings removes vector settings and returns them
func (h *DatasetHandler) DeleteVectorSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok || !h.authorize(w, user, policy.VectorSettings.Delete()) {
		return
	}
	vs := h.vectorSettingsFromPath(w, r)
	if vs == nil {
		return
	}

	if err := h.service.DeleteVectorSettings(r.Context(), vs); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, vs)
}
