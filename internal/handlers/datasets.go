package handlers

import (
	"net/http"
	"strconv"

	"github.com/7flash/argilla/internal/middleware"
	"github.com/7flash/argilla/internal/models"
	"github.com/7flash/argilla/internal/policy"
	"github.com/7flash/argilla/internal/services/datasets"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DatasetHandler handles dataset, record and vector settings requests
type DatasetHandler struct {
	service *datasets.Service
	logger  *zap.Logger
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service *datasets.Service, log *zap.Logger) *DatasetHandler {
	return &DatasetHandler{service: service, logger: log}
}

// RegisterRoutes registers dataset routes on the given router.
// The router should already have the /api/v1 prefix and the auth middleware.
func (h *DatasetHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me/datasets", h.ListCurrentUserDatasets).Methods("GET")
	r.HandleFunc("/me/datasets/{id}/records", h.ListCurrentUserDatasetRecords).Methods("GET")
	r.HandleFunc("/me/datasets/{id}/metrics", h.GetDatasetMetricsForCurrentUser).Methods("GET")

	r.HandleFunc("/datasets", h.CreateDataset).Methods("POST")
	r.HandleFunc("/datasets/{id}", h.GetDataset).Methods("GET")
	r.HandleFunc("/datasets/{id}", h.DeleteDataset).Methods("DELETE")
	r.HandleFunc("/datasets/{id}/fields", h.ListDatasetFields).Methods("GET")
	r.HandleFunc("/datasets/{id}/fields", h.CreateDatasetField).Methods("POST")
	r.HandleFunc("/datasets/{id}/questions", h.ListDatasetQuestions).Methods("GET")
	r.HandleFunc("/datasets/{id}/questions", h.CreateDatasetQuestion).Methods("POST")
	r.HandleFunc("/datasets/{id}/records", h.CreateDatasetRecords).Methods("POST")
	r.HandleFunc("/datasets/{id}/publish", h.PublishDataset).Methods("PUT")

	r.HandleFunc("/datasets/{id}/vectors-settings", h.ListDatasetVectorSettings).Methods("GET")
	r.HandleFunc("/datasets/{id}/vectors-settings", h.CreateDatasetVectorSettings).Methods("POST")
	r.HandleFunc("/vectors-settings/{id}", h.UpdateVectorSettings).Methods("PATCH")
	r.HandleFunc("/vectors-settings/{id}", h.DeleteVectorSettings).Methods("DELETE")

	r.HandleFunc("/records/{id}/responses", h.CreateRecordResponse).Methods("POST")
}

// currentUser returns the authenticated user or writes a 401
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := middleware.UserFromContext(r)
	if user == nil {
		middleware.RespondUnauthenticated(w)
		return nil, false
	}
	return user, true
}

// authorize checks an action and writes the 403 when denied
func (h *DatasetHandler) authorize(w http.ResponseWriter, user *models.User, action policy.Action) bool {
	if err := policy.Authorize(user, action); err != nil {
		respondServiceError(w, h.logger, err)
		return false
	}
	return true
}

// datasetFromPath loads the {id} dataset, writing the error response when it returns nil
func (h *DatasetHandler) datasetFromPath(w http.ResponseWriter, r *http.Request) *models.Dataset {
	id, ok := pathID(w, r)
	if !ok {
		return nil
	}
	dataset, err := h.service.GetDataset(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return nil
	}
	return dataset
}

// readableDataset loads the {id} dataset and checks the user may read it
func (h *DatasetHandler) readableDataset(w http.ResponseWriter, r *http.Request, user *models.User) *models.Dataset {
	dataset := h.datasetFromPath(w, r)
	if dataset == nil {
		return nil
	}
	if !h.authorize(w, user, policy.Dataset.Get(dataset)) {
		return nil
	}
	return dataset
}

// ListCurrentUserDatasets lists the datasets visible to the caller
func (h *DatasetHandler) ListCurrentUserDatasets(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok || !h.authorize(w, user, policy.Dataset.List()) {
		return
	}

	items, err := h.service.ListDatasets(r.Context(), user)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

// GetDataset returns one dataset
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dataset := h.readableDataset(w, r, user)
	if dataset == nil {
		return
	}
	respondJSON(w, http.StatusOK, dataset)
}

// ListDatasetFields lists the fields of a dataset
func (h *DatasetHandler) ListDatasetFields(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dataset := h.readableDataset(w, r, user)
	if dataset == nil {
		return
	}

	items, err := h.service.ListFields(r.Context(), dataset)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ListDatasetQuestions lists the questions of a dataset
func (h *DatasetHandler) ListDatasetQuestions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dataset := h.readableDataset(w, r, user)
	if dataset == nil {
		return
	}

	items, err := h.service.ListQuestions(r.Context(), dataset)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

// queryInt reads a non-negative integer query parameter
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ListCurrentUserDatasetRecords pages through records, optionally with the
// caller's responses
func (h *DatasetHandler) ListCurrentUserDatasetRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var include []models.RecordInclude
	for _, inc := range r.URL.Query()["include"] {
		if models.RecordInclude(inc) != models.RecordIncludeResponses {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "include must be one of [responses]")
			return
		}
		include = append(include, models.RecordInclude(inc))
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "offset must be a non-negative integer")
		return
	}
	limit, ok := queryInt(r, "limit", datasets.ListRecordsLimitDefault)
	if !ok || limit < 1 || limit > datasets.ListRecordsLimitMax {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be an integer between 1 and 1000")
		return
	}

	dataset := h.readableDataset(w, r, user)
	if dataset == nil {
		return
	}

	page, err := h.service.ListUserRecords(r.Context(), dataset, user, include, offset, limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GetDatasetMetricsForCurrentUser returns record and response counts for the caller
func (h *DatasetHandler) GetDatasetMetricsForCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dataset := h.readableDataset(w, r, user)
	if dataset == nil {
		return
	}

	metrics, err := h.service.Metrics(r.Context(), dataset, user)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// CreateDataset creates a draft dataset
func (h *DatasetHandler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok || !h.authorize(w, user, policy.Dataset.Create()) {
		return
	}

	var req models.DatasetCreate
	if !decodeJSON(w, r, &req) {
		return
	}

	dataset, err := h.service.CreateDataset(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, dataset)
}

// CreateDatasetField adds a field to a draft dataset
func (h *DatasetHandler) CreateDatasetField(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok || !h.authorize(w, user, policy.Dataset.CreateField()) {
		return
	}
	dataset := h.datasetFromPath(w, r)
	if dataset == nil {
		return
	}

	var req models.FieldCreate
	if !decodeJSON(w, r, &req) {
		return
	}

	field, err := h.service.CreateField(r.Context(), dataset, req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, field)
}

// CreateDatasetQuestion adds a question to a draft dataset
func (h *DatasetHandler) CreateDatasetQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok || !h.authorize(w, user, policy.Dataset.CreateQuestion()) {
		return
	}
	dataset := h.datasetFromPath(w, r)
	if dataset == nil {
		return
	}

	var req models.QuestionCreate
	if !decodeJSON(w, r, &req) {
		return
	}

	question, err := h.service.CreateQuestion(r.Context(), dataset, req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, question)
}

// CreateDatasetRecords adds a batch of records to a published dataset
func (h *DatasetHandler) CreateDatasetRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok || !h.authorize(w, user, policy.Dataset.CreateRecords()) {
		return
	}
	dataset := h.datasetFromPath(w, r)
	if dataset == nil {
		return
	}

	var req models.RecordsCreate
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.CreateRecords(r.Context(), dataset, user, req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublishDataset moves a dataset from draft to ready
func (h *DatasetHandler) PublishDataset(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok || !h.authorize(w, user, policy.Dataset.Publish()) {
		return
	}
	dataset := h.datasetFromPath(w, r)
	if dataset == nil {
		return
	}

	published, err := h.service.PublishDataset(r.Context(), dataset)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, published)
}

// DeleteDataset removes a dataset and returns it
func (h *DatasetHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok || !h.authorize(w, user, policy.Dataset.Delete()) {
		return
	}
	dataset := h.datasetFromPath(w, r)
	if dataset == nil {
		return
	}

	if err := h.service.DeleteDataset(r.Context(), dataset); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, dataset)
}

// CreateRecordResponse stores the caller's response to a record
func (h *DatasetHandler) CreateRecordResponse(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	record, err := h.service.GetRecord(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	dataset, err := h.service.GetDataset(r.Context(), record.DatasetID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if !h.authorize(w, user, policy.Record.CreateResponse(dataset)) {
		return
	}

	var req models.ResponseCreate
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.service.CreateResponse(r.Context(), record, user, req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, response)
}
