package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/classify/internal/services"
)

// TagHandler proxies Last.fm top tag lookups.
type TagHandler struct {
	tagger services.Tagger
	logger *log.Logger
}

func NewTagHandler(tagger services.Tagger, logger *log.Logger) *TagHandler {
	return &TagHandler{tagger: tagger, logger: logger}
}

func (h *TagHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/lastfm/tags", Summary: "Last.fm top tags for ?artist=&track=", Handler: h},
	}
}

func (h *TagHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	artist := strings.TrimSpace(r.URL.Query().Get("artist"))
	track := strings.TrimSpace(r.URL.Query().Get("track"))
	if artist == "" || track == "" {
		writeError(w, http.StatusBadRequest, "Artist and track are required.")
		return
	}

	tags, err := h.tagger.TopTags(r.Context(), artist, track)
	if err != nil {
		h.logger.Error("failed to fetch top tags", "artist", artist, "track", track, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch top tags.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}
