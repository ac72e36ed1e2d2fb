// package models defines the request and response payloads passed between the frontend, this backend and upstream providers.
//
// Nothing here is persisted; every value lives for a single HTTP exchange.
package models

// Playlist is the reshaped form of a provider playlist.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
	Public      bool   `json:"public"`
	TrackCount  int    `json:"track_count"`
	Image       string `json:"image,omitempty"`
}

// Track is the reshaped form of a playlist item. Artist joins every artist name with ", ".
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	DurationMS int    `json:"duration_ms"`
}

// AudioFeatures holds the provider's audio analysis for one track.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Loudness         float64 `json:"loudness"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	DurationMS       int     `json:"duration_ms"`
}

// TrackWithFeatures pairs a track with its audio features (nil when the provider has none).
type TrackWithFeatures struct {
	Track
	Features *AudioFeatures `json:"features"`
}

// UserProfile is the reshaped current-user profile.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
	Followers   int    `json:"followers"`
	Image       string `json:"image,omitempty"`
}

// Tag is a social tag attached to a track.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	URL   string `json:"url,omitempty"`
}

// DescriptionRequest carries the inputs for playlist name/description generation.
//
// Energy and Valence are pointers so a zero value can be told apart from a missing one.
type DescriptionRequest struct {
	Genre   string   `json:"genre"`
	Energy  *float64 `json:"energy"`
	Valence *float64 `json:"valence"`
}

// Description is a generated playlist name and description.
type Description struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ClusterFeatures are the audio features used to build one clustering row.
type ClusterFeatures struct {
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Tempo        float64 `json:"tempo"`
	Acousticness float64 `json:"acousticness"`
}

// ClusterTrack is a track submitted for clustering.
type ClusterTrack struct {
	Name     string          `json:"name"`
	Artists  string          `json:"artists"`
	Genres   []string        `json:"genres"`
	Features ClusterFeatures `json:"features"`
}

// ClusterRequest is the body accepted by the clustering endpoint.
type ClusterRequest struct {
	Tracks    []ClusterTrack `json:"tracks"`
	Algorithm string         `json:"algorithm"`
	Clusters  int            `json:"n_clusters,omitempty"`
}

// TrackMetadata accompanies each feature row sent to the clustering service.
type TrackMetadata struct {
	Name   string   `json:"name"`
	Artist string   `json:"artist"`
	Genres []string `json:"genres"`
}

// ClusterResult is the assignment shape returned by both the external service and local k-means.
type ClusterResult struct {
	Labels         []int       `json:"labels"`
	ClusterCenters [][]float64 `json:"cluster_centers"`
}

// TokenResponse is what the provider returns from its token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Row returns the feature row in the order the clustering service expects:
// danceability, energy, valence, tempo, acousticness.
func (t ClusterTrack) Row() []float64 {
	f := t.Features
	return []float64{f.Danceability, f.Energy, f.Valence, f.Tempo, f.Acousticness}
}

// Metadata returns the track metadata sent alongside the feature row.
func (t ClusterTrack) Metadata() TrackMetadata {
	genres := t.Genres
	if genres == nil {
		genres = []string{}
	}
	return TrackMetadata{Name: t.Name, Artist: t.Artists, Genres: genres}
}
