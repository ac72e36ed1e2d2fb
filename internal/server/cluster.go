package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/classify/internal/models"
	"github.com/desertthunder/classify/internal/services"
	"github.com/desertthunder/classify/internal/shared"
)

// clusterEngineHeader reports whether the remote service or the in-process fallback answered.
const clusterEngineHeader = "X-Cluster-Engine"

// ClusterHandler forwards track features to the clustering service.
type ClusterHandler struct {
	clusterer services.Clusterer
	logger    *log.Logger
}

func NewClusterHandler(clusterer services.Clusterer, logger *log.Logger) *ClusterHandler {
	return &ClusterHandler{clusterer: clusterer, logger: logger}
}

func (h *ClusterHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/clustering/cluster", Protected: true, Summary: "cluster tracks by audio features", Handler: h},
	}
}

// ServeHTTP passes a successful service response through verbatim.
func (h *ClusterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.ClusterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tracks == nil {
		writeError(w, http.StatusBadRequest, "Tracks array is required")
		return
	}

	resp, err := h.clusterer.Cluster(r.Context(), req)
	switch {
	case errors.Is(err, shared.ErrServiceUnavailable):
		h.logger.Error("clustering service unreachable", "error", err)
		writeErrorDetails(w, http.StatusServiceUnavailable, "Clustering service unavailable", err.Error())
		return
	case errors.Is(err, shared.ErrInvalidInput):
		writeErrorDetails(w, http.StatusBadRequest, "Clustering failed", err.Error())
		return
	case err != nil:
		h.logger.Error("clustering failed", "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	if !resp.OK() {
		h.logger.Warn("clustering service rejected request", "status", resp.StatusCode)
		writeErrorDetails(w, resp.StatusCode, "Clustering failed", details(resp.Body))
		return
	}

	engine := "service"
	if resp.Local {
		engine = "local"
	}
	h.logger.Debug("clustered tracks", "tracks", len(req.Tracks), "engine", engine)
	w.Header().Set(clusterEngineHeader, engine)
	writeRaw(w, resp.StatusCode, resp.Body)
}

// details embeds a JSON body as-is and anything else as a string.
func details(body []byte) any {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
