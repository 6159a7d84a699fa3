package etl

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/order-etl/pkg/common/logger"
	"github.com/synaptica-ai/order-etl/pkg/common/models"
	"github.com/synaptica-ai/order-etl/pkg/orders"
	"github.com/synaptica-ai/order-etl/pkg/runs"
	"github.com/synaptica-ai/order-etl/pkg/storage"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/invoke", h.handleInvoke).Methods(http.MethodPost)
	router.HandleFunc("/runs", h.handleRecent).Methods(http.MethodGet)
	router.HandleFunc("/runs/{id}", h.handleRun).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var event models.TriggerEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		logger.Log.WithError(err).Warn("invalid trigger payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Handle(r.Context(), event)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Log.WithError(err).Error("order batch invocation failed")
		}
		writeJSON(w, status, models.InvocationResult{StatusCode: status, Body: err.Error()})
		return
	}

	writeJSON(w, result.StatusCode, result)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidTrigger):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound
	case orders.IsParseError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	if !h.service.TrackingEnabled() {
		http.Error(w, "run tracking disabled", http.StatusNotImplemented)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.service.RecentRuns(r.Context(), limit)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list runs")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []runs.Run{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *HTTPHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	if !h.service.TrackingEnabled() {
		http.Error(w, "run tracking disabled", http.StatusNotImplemented)
		return
	}

	id := mux.Vars(r)["id"]
	run, err := h.service.Run(r.Context(), id)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch run")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
