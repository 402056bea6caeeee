package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/careview/platform/pkg/common/logger"
	"github.com/careview/platform/pkg/common/models"
	"github.com/careview/platform/pkg/poller"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
	pollers map[string]*poller.Poller
	// baseCtx outlives individual requests; pollers started from a request
	// must not die with it.
	baseCtx context.Context
}

func NewHandler(baseCtx context.Context, service *Service, pollers map[string]*poller.Poller) *Handler {
	return &Handler{service: service, pollers: pollers, baseCtx: baseCtx}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/datasets", h.handleListDatasets).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{kind}", h.handleGetDataset).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{kind}/refresh", h.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/datasets/{kind}/history", h.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{kind}/polling/start", h.handleStartPolling).Methods(http.MethodPost)
	r.HandleFunc("/datasets/{kind}/polling/stop", h.handleStopPolling).Methods(http.MethodPost)
}

func (h *Handler) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	items := make([]models.DatasetInfo, 0, len(h.service.Kinds()))
	for _, kind := range h.service.Kinds() {
		table, refreshedAt, _ := h.service.Snapshot(kind)
		view, _ := h.service.Catalog().View(kind)

		info := models.DatasetInfo{
			Kind:    kind,
			Title:   view.Title,
			Rows:    len(table.Records),
			Polling: string(poller.StateIdle),
		}
		if p, ok := h.pollers[kind]; ok {
			info.Polling = string(p.State())
		}
		if !refreshedAt.IsZero() {
			t := refreshedAt
			info.RefreshedAt = &t
		}
		items = append(items, info)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	table, refreshedAt, ok := h.service.Snapshot(kind)
	if !ok {
		http.Error(w, "dataset not found", http.StatusNotFound)
		return
	}

	view, _ := h.service.Catalog().View(kind)
	records := Filter(table.Records, r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, Render(kind, view, records, refreshedAt))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	if _, _, ok := h.service.Snapshot(kind); !ok {
		http.Error(w, "dataset not found", http.StatusNotFound)
		return
	}

	summary, err := h.service.Refresh(r.Context(), kind)
	if err != nil {
		logger.WithDataset(kind).WithError(err).Error("Manual refresh failed")
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{"refresh": summary})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"refresh": summary})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	if _, _, ok := h.service.Snapshot(kind); !ok {
		http.Error(w, "dataset not found", http.StatusNotFound)
		return
	}
	if h.service.repo == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": []RefreshModel{}})
		return
	}

	limit := parseLimit(r, 50)
	rows, err := h.service.repo.RecentRefreshes(r.Context(), kind, limit)
	if err != nil {
		logger.WithDataset(kind).WithError(err).Error("Failed to list refresh history")
		http.Error(w, "failed to list history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": rows})
}

func (h *Handler) handleStartPolling(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	p, ok := h.pollers[kind]
	if !ok {
		http.Error(w, "dataset not found", http.StatusNotFound)
		return
	}
	p.Start(h.baseCtx)
	writeJSON(w, http.StatusOK, map[string]interface{}{"dataset": kind, "polling": string(p.State())})
}

func (h *Handler) handleStopPolling(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	p, ok := h.pollers[kind]
	if !ok {
		http.Error(w, "dataset not found", http.StatusNotFound)
		return
	}
	p.Stop()
	writeJSON(w, http.StatusOK, map[string]interface{}{"dataset": kind, "polling": string(p.State())})
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Error("Failed to encode response")
	}
}
