package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/classify/internal/models"
	"github.com/desertthunder/classify/internal/services"
)

// DescriptionHandler generates playlist names and descriptions.
type DescriptionHandler struct {
	describer services.Describer
	logger    *log.Logger
}

func NewDescriptionHandler(describer services.Describer, logger *log.Logger) *DescriptionHandler {
	return &DescriptionHandler{describer: describer, logger: logger}
}

func (h *DescriptionHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/openai/generate-description", Summary: "playlist name and description from genre, energy, valence", Handler: h},
	}
}

func (h *DescriptionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.DescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Genre == "" || req.Energy == nil || req.Valence == nil {
		writeError(w, http.StatusBadRequest, "Genre, energy, and valence are required.")
		return
	}

	desc, err := h.describer.Describe(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to generate description", "genre", req.Genre, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, desc)
}
