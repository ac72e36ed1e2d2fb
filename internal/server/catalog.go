package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/classify/internal/services"
	"github.com/desertthunder/classify/internal/shared"
)

// maxFeatureIDs caps /tracks/features?ids= at one upstream batch.
const maxFeatureIDs = 100

// CatalogHandler proxies playlist, profile and audio feature reads for the bearer token's owner.
type CatalogHandler struct {
	catalog services.Catalog
	logger  *log.Logger
}

func NewCatalogHandler(catalog services.Catalog, logger *log.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/playlists", Protected: true, Summary: "all playlists of the current user", Handler: http.HandlerFunc(h.Playlists)},
		{Method: http.MethodGet, Path: "/playlists/user-profile", Protected: true, Summary: "current user profile", Handler: http.HandlerFunc(h.UserProfile)},
		{Method: http.MethodGet, Path: "/playlists/{playlist_id}/{resource}", Protected: true, Summary: "every track of a playlist, or features/{id} for one track's audio features", Handler: http.HandlerFunc(h.PlaylistResource)},
		{Method: http.MethodGet, Path: "/playlists/{playlist_id}/tracks/features", Protected: true, Summary: "playlist tracks with audio features", Handler: http.HandlerFunc(h.PlaylistFeatures)},
		{Method: http.MethodGet, Path: "/tracks/features", Protected: true, Summary: "audio features for up to 100 ids", Handler: http.HandlerFunc(h.SeveralTrackFeatures)},
		{Method: http.MethodGet, Path: "/tracks/{id}/features", Protected: true, Summary: "audio features of one track", Handler: http.HandlerFunc(h.TrackFeatures)},
	}
}

func (h *CatalogHandler) Playlists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.catalog.Playlists(r.Context(), AccessToken(r.Context()))
	if err != nil {
		h.fail(w, err, "Failed to fetch playlists")
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

func (h *CatalogHandler) UserProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.catalog.UserProfile(r.Context(), AccessToken(r.Context()))
	if err != nil {
		h.fail(w, err, "Failed to fetch user profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// PlaylistResource serves /playlists/{playlist_id}/tracks and /playlists/features/{id}.
// The two overlap at /playlists/features/tracks, which [http.ServeMux] refuses to register separately.
func (h *CatalogHandler) PlaylistResource(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.PathValue("playlist_id") == "features":
		r.SetPathValue("id", r.PathValue("resource"))
		h.TrackFeatures(w, r)
	case r.PathValue("resource") == "tracks":
		h.PlaylistTracks(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *CatalogHandler) PlaylistTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.catalog.PlaylistTracks(r.Context(), AccessToken(r.Context()), r.PathValue("playlist_id"))
	if err != nil {
		h.fail(w, err, "Failed to fetch playlist tracks")
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (h *CatalogHandler) PlaylistFeatures(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.catalog.PlaylistTracksWithFeatures(r.Context(), AccessToken(r.Context()), r.PathValue("playlist_id"))
	if err != nil {
		h.fail(w, err, "Failed to fetch playlist features")
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (h *CatalogHandler) TrackFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := h.catalog.AudioFeatures(r.Context(), AccessToken(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, err, "Failed to fetch track features")
		return
	}
	writeJSON(w, http.StatusOK, features)
}

func (h *CatalogHandler) SeveralTrackFeatures(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for id := range strings.SplitSeq(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	switch {
	case len(ids) == 0:
		writeError(w, http.StatusBadRequest, "Track IDs are required.")
		return
	case len(ids) > maxFeatureIDs:
		writeError(w, http.StatusBadRequest, "At most 100 track IDs are allowed.")
		return
	}

	features, err := h.catalog.SeveralAudioFeatures(r.Context(), AccessToken(r.Context()), ids)
	if err != nil {
		h.fail(w, err, "Failed to fetch track features")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audio_features": features})
}

// fail surfaces an upstream 401 as 401 so the client can refresh and an upstream 404 as 404;
// everything else is a 500.
func (h *CatalogHandler) fail(w http.ResponseWriter, err error, message string) {
	h.logger.Error(message, "error", err)

	switch {
	case errors.Is(err, shared.ErrTokenExpired):
		writeText(w, http.StatusUnauthorized, "Access token expired")
	case errors.Is(err, shared.ErrPlaylistNotFound), errors.Is(err, shared.ErrTrackNotFound):
		writeText(w, http.StatusNotFound, "Not found")
	default:
		writeText(w, http.StatusInternalServerError, message)
	}
}
