package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/classify/internal/models"
	"github.com/desertthunder/classify/internal/shared"
)

// Catalog reads playlists, tracks, profile and audio features on behalf of the caller's access token.
type Catalog interface {
	// UserProfile retrieves the profile of the token's owner.
	UserProfile(ctx context.Context, token string) (*models.UserProfile, error)

	// Playlists retrieves every playlist of the token's owner.
	Playlists(ctx context.Context, token string) ([]models.Playlist, error)

	// PlaylistTracks retrieves every track of a playlist, page by page.
	PlaylistTracks(ctx context.Context, token, playlistID string) ([]models.Track, error)

	// PlaylistTracksWithFeatures retrieves every track of a playlist together with its audio features.
	PlaylistTracksWithFeatures(ctx context.Context, token, playlistID string) ([]models.TrackWithFeatures, error)

	// AudioFeatures retrieves the audio features of one track.
	AudioFeatures(ctx context.Context, token, trackID string) (*models.AudioFeatures, error)

	// SeveralAudioFeatures retrieves audio features for many tracks; unknown IDs yield nil entries.
	SeveralAudioFeatures(ctx context.Context, token string, trackIDs []string) ([]*models.AudioFeatures, error)
}

// TokenExchanger trades an authorization code or a refresh token for provider tokens.
type TokenExchanger interface {
	// Exchange requires exactly one of code and refreshToken.
	Exchange(ctx context.Context, code, refreshToken string) (*models.TokenResponse, error)
}

// Describer generates a playlist name and description.
type Describer interface {
	Describe(ctx context.Context, req models.DescriptionRequest) (*models.Description, error)
}

// Tagger looks up social tags for an artist/track pair.
type Tagger interface {
	TopTags(ctx context.Context, artist, track string) ([]models.Tag, error)
}

// Clusterer assigns tracks to clusters.
type Clusterer interface {
	Cluster(ctx context.Context, req models.ClusterRequest) (*ClusterResponse, error)
}

// APIError is a non-2xx response from an upstream service.
//
// errors.Is(err, [shared.ErrAPIRequest]) holds for every APIError; a 401 also matches [shared.ErrTokenExpired].
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API error: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrTokenExpired:
		return e.StatusCode == 401
	case shared.ErrPlaylistNotFound, shared.ErrTrackNotFound:
		return e.StatusCode == 404
	}
	return false
}
