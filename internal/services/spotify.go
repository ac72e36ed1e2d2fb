// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/classify/internal/models"
	"github.com/desertthunder/classify/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// playlistPageSize is the largest page the playlist tracks endpoint serves.
	playlistPageSize = 100
	// libraryPageSize is the largest page the /me/playlists endpoint serves.
	libraryPageSize = 50
	// featuresBatchSize is the most IDs /audio-features accepts per call.
	featuresBatchSize = 100
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       Owner               `json:"owner"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	Images      []SpotifyImage      `json:"images"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

// SpotifyPlaylistItem is a playlist entry. Track is nil for removed or local-only items.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPlaylistTracksPage is one page of /playlists/{id}/tracks.
type SpotifyPlaylistTracksPage struct {
	Items  []SpotifyPlaylistItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
	Next   *string               `json:"next"`
}

// SpotifyService implements [Catalog] against the Spotify Web API.
//
// It holds no user state: every call carries the caller's bearer token.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a catalog client. Empty baseURL and nil client fall back to the public API and [http.DefaultClient].
func NewSpotifyService(baseURL string, client *http.Client) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SpotifyService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// doRequest performs an authenticated GET against the Spotify API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, token, endpoint string, result any) error {
	if token == "" {
		return fmt.Errorf("%w: missing access token", shared.ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Service: "spotify", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context, token string) (*models.UserProfile, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, token, "/me", &user); err != nil {
		return nil, err
	}

	return &models.UserProfile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
		Followers:   user.Followers.Total,
		Image:       firstImage(user.Images),
	}, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, token string, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 || limit > libraryPageSize {
		limit = libraryPageSize
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, token, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Playlists retrieves all playlists for the authenticated user, following next links.
func (s *SpotifyService) Playlists(ctx context.Context, token string) ([]models.Playlist, error) {
	playlists := []models.Playlist{}
	offset := 0

	for {
		response, err := s.UserPlaylists(ctx, token, libraryPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, sp := range response.Items {
			playlists = append(playlists, models.Playlist{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				Owner:       sp.Owner.DisplayName,
				Public:      sp.Public,
				TrackCount:  sp.Tracks.Total,
				Image:       firstImage(sp.Images),
			})
		}

		if response.Next == nil || len(response.Items) == 0 {
			break
		}
		offset += libraryPageSize
	}

	return playlists, nil
}

// PlaylistTracksPage retrieves one page of a playlist's items.
func (s *SpotifyService) PlaylistTracksPage(ctx context.Context, token, playlistID string, offset int) (*SpotifyPlaylistTracksPage, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), playlistPageSize, offset)

	var page SpotifyPlaylistTracksPage
	if err := s.doRequest(ctx, token, endpoint, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// PlaylistTracks requests pages of 100 by offset until the reported total is exhausted.
//
// Items without a track are dropped. The first failing page fails the whole call.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, token, playlistID string) ([]models.Track, error) {
	tracks := []models.Track{}

	for offset := 0; ; offset += playlistPageSize {
		page, err := s.PlaylistTracksPage(ctx, token, playlistID, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			tracks = append(tracks, toTrack(item.Track))
		}

		if len(page.Items) == 0 || offset+playlistPageSize >= page.Total {
			break
		}
	}

	return tracks, nil
}

// PlaylistTracksWithFeatures fetches the playlist's tracks, then their audio features in batches.
func (s *SpotifyService) PlaylistTracksWithFeatures(ctx context.Context, token, playlistID string) ([]models.TrackWithFeatures, error) {
	tracks, err := s.PlaylistTracks(ctx, token, playlistID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}

	features, err := s.SeveralAudioFeatures(ctx, token, ids)
	if err != nil {
		return nil, err
	}

	result := make([]models.TrackWithFeatures, len(tracks))
	for i, t := range tracks {
		result[i] = models.TrackWithFeatures{Track: t, Features: features[i]}
	}

	return result, nil
}

// AudioFeatures retrieves the audio features of a single track.
func (s *SpotifyService) AudioFeatures(ctx context.Context, token, trackID string) (*models.AudioFeatures, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track ID", shared.ErrMissingArgument)
	}

	var features models.AudioFeatures
	if err := s.doRequest(ctx, token, "/audio-features/"+url.PathEscape(trackID), &features); err != nil {
		return nil, err
	}

	return &features, nil
}

// SeveralAudioFeatures retrieves audio features for trackIDs, sequentially in batches of 100.
//
// The result is positionally aligned with trackIDs.
func (s *SpotifyService) SeveralAudioFeatures(ctx context.Context, token string, trackIDs []string) ([]*models.AudioFeatures, error) {
	result := make([]*models.AudioFeatures, 0, len(trackIDs))

	for start := 0; start < len(trackIDs); start += featuresBatchSize {
		end := min(start+featuresBatchSize, len(trackIDs))
		batch := trackIDs[start:end]

		endpoint := "/audio-features?ids=" + url.QueryEscape(strings.Join(batch, ","))

		var response struct {
			AudioFeatures []*models.AudioFeatures `json:"audio_features"`
		}
		if err := s.doRequest(ctx, token, endpoint, &response); err != nil {
			return nil, err
		}

		for i := range batch {
			var f *models.AudioFeatures
			if i < len(response.AudioFeatures) {
				f = response.AudioFeatures[i]
			}
			result = append(result, f)
		}
	}

	return result, nil
}

func toTrack(t *SpotifyTrack) models.Track {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}

	return models.Track{
		ID:         t.ID,
		Name:       t.Name,
		Artist:     strings.Join(names, ", "),
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
	}
}

func firstImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
