package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/desertthunder/classify/internal/shared"
	tu "github.com/desertthunder/classify/internal/testing"
)

func spotifyTrack(i int) map[string]any {
	return map[string]any{
		"id":          fmt.Sprintf("t%d", i),
		"name":        fmt.Sprintf("Track %d", i),
		"duration_ms": 1000 * i,
		"artists":     []map[string]string{{"id": "a1", "name": "Artist One"}, {"id": "a2", "name": "Artist Two"}},
		"album":       map[string]string{"id": "al", "name": "Album"},
	}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			srv := NewSpotifyService("", nil)

			if srv.baseURL != spotifyBaseURL {
				t.Errorf("expected baseURL %s, got %s", spotifyBaseURL, srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Trailing Slash Trimmed", func(t *testing.T) {
			srv := NewSpotifyService("http://example.com/v1/", nil)
			if srv.baseURL != "http://example.com/v1" {
				t.Errorf("expected trimmed baseURL, got %s", srv.baseURL)
			}
		})
	})

	t.Run("doRequest", func(t *testing.T) {
		t.Run("Sends Bearer Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer abc" {
					t.Errorf("expected 'Bearer abc', got %q", got)
				}
				json.NewEncoder(w).Encode(map[string]any{
					"id":           "user1",
					"display_name": "User One",
					"followers":    map[string]int{"total": 7},
					"images":       []map[string]string{{"url": "http://img/1"}},
				})
			}))
			defer server.Close()

			profile, err := NewSpotifyService(server.URL, nil).UserProfile(context.Background(), "abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if profile.ID != "user1" || profile.DisplayName != "User One" {
				t.Errorf("unexpected profile: %+v", profile)
			}
			if profile.Followers != 7 {
				t.Errorf("expected 7 followers, got %d", profile.Followers)
			}
			if profile.Image != "http://img/1" {
				t.Errorf("expected first image url, got %s", profile.Image)
			}
		})

		t.Run("Missing Token", func(t *testing.T) {
			_, err := NewSpotifyService("http://example.com", nil).UserProfile(context.Background(), "")
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("Unauthorized Maps To Token Expired", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"status":401,"message":"The access token expired"}}`, http.StatusUnauthorized)
			}))
			defer server.Close()

			_, err := NewSpotifyService(server.URL, nil).Playlists(context.Background(), "expired")
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected APIError with status 401, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			_, err := NewSpotifyService(server.URL, nil).UserProfile(context.Background(), "abc")
			if errors.Is(err, shared.ErrTokenExpired) {
				t.Error("500 must not be reported as an expired token")
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			_, err := NewSpotifyService("http://example.com", client).UserProfile(context.Background(), "abc")
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Invalid JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			}))
			defer server.Close()

			_, err := NewSpotifyService(server.URL, nil).UserProfile(context.Background(), "abc")
			if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
				t.Errorf("expected decode error, got %v", err)
			}
		})
	})

	t.Run("Playlists Follows Next", func(t *testing.T) {
		var offsets []string
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/playlists" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if limit := r.URL.Query().Get("limit"); limit != "50" {
				t.Errorf("expected limit 50, got %s", limit)
			}

			offset := r.URL.Query().Get("offset")
			offsets = append(offsets, offset)

			var next any
			name := "second"
			if offset == "0" {
				next = server.URL + "/me/playlists?offset=50&limit=50"
				name = "first"
			}

			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"id":     name,
					"name":   name,
					"owner":  map[string]string{"display_name": "Owner"},
					"tracks": map[string]int{"total": 12},
				}},
				"total": 2,
				"next":  next,
			})
		}))
		defer server.Close()

		playlists, err := NewSpotifyService(server.URL, nil).Playlists(context.Background(), "abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(playlists))
		}
		if playlists[0].ID != "first" || playlists[1].ID != "second" {
			t.Errorf("unexpected order: %+v", playlists)
		}
		if playlists[0].Owner != "Owner" || playlists[0].TrackCount != 12 {
			t.Errorf("unexpected reshape: %+v", playlists[0])
		}
		if strings.Join(offsets, ",") != "0,50" {
			t.Errorf("expected offsets 0,50, got %v", offsets)
		}
	})

	t.Run("PlaylistTracks", func(t *testing.T) {
		t.Run("Pages Until Total", func(t *testing.T) {
			const total = 250
			var offsets []int

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/playlists/p1/tracks" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if limit := r.URL.Query().Get("limit"); limit != "100" {
					t.Errorf("expected limit 100, got %s", limit)
				}

				offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
				offsets = append(offsets, offset)

				var items []map[string]any
				for i := offset; i < min(offset+100, total); i++ {
					items = append(items, map[string]any{"track": spotifyTrack(i)})
				}
				json.NewEncoder(w).Encode(map[string]any{"items": items, "total": total})
			}))
			defer server.Close()

			tracks, err := NewSpotifyService(server.URL, nil).PlaylistTracks(context.Background(), "abc", "p1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(tracks) != total {
				t.Errorf("expected %d tracks, got %d", total, len(tracks))
			}
			if fmt.Sprint(offsets) != "[0 100 200]" {
				t.Errorf("expected offsets [0 100 200], got %v", offsets)
			}
			if tracks[0].Artist != "Artist One, Artist Two" {
				t.Errorf("expected joined artists, got %s", tracks[0].Artist)
			}
			if tracks[249].ID != "t249" {
				t.Errorf("expected last track t249, got %s", tracks[249].ID)
			}
		})

		t.Run("Drops Null Tracks", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items":[{"track":null},{"track":{"id":"t1","name":"One","artists":[],"album":{}}}],"total":2}`))
			}))
			defer server.Close()

			tracks, err := NewSpotifyService(server.URL, nil).PlaylistTracks(context.Background(), "abc", "p1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 1 || tracks[0].ID != "t1" {
				t.Errorf("expected only t1, got %+v", tracks)
			}
		})

		t.Run("Empty Playlist Stops", func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Write([]byte(`{"items":[],"total":0}`))
			}))
			defer server.Close()

			tracks, err := NewSpotifyService(server.URL, nil).PlaylistTracks(context.Background(), "abc", "p1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 0 || tracks == nil {
				t.Errorf("expected empty non-nil slice, got %#v", tracks)
			}
			if calls != 1 {
				t.Errorf("expected 1 call, got %d", calls)
			}
		})

		t.Run("Page Failure Fails Whole Call", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("offset") == "100" {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				var items []map[string]any
				for i := range 100 {
					items = append(items, map[string]any{"track": spotifyTrack(i)})
				}
				json.NewEncoder(w).Encode(map[string]any{"items": items, "total": 150})
			}))
			defer server.Close()

			tracks, err := NewSpotifyService(server.URL, nil).PlaylistTracks(context.Background(), "abc", "p1")
			if err == nil {
				t.Fatal("expected error")
			}
			if tracks != nil {
				t.Errorf("expected no partial result, got %d tracks", len(tracks))
			}
		})
	})

	t.Run("SeveralAudioFeatures Batches By 100", func(t *testing.T) {
		var batches []int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/audio-features" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			ids := strings.Split(r.URL.Query().Get("ids"), ",")
			batches = append(batches, len(ids))

			features := make([]any, len(ids))
			for i, id := range ids {
				if id == "t120" {
					continue
				}
				features[i] = map[string]any{"id": id, "energy": 0.5}
			}
			json.NewEncoder(w).Encode(map[string]any{"audio_features": features})
		}))
		defer server.Close()

		ids := make([]string, 150)
		for i := range ids {
			ids[i] = fmt.Sprintf("t%d", i)
		}

		features, err := NewSpotifyService(server.URL, nil).SeveralAudioFeatures(context.Background(), "abc", ids)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if fmt.Sprint(batches) != "[100 50]" {
			t.Errorf("expected batches [100 50], got %v", batches)
		}
		if len(features) != 150 {
			t.Fatalf("expected 150 entries, got %d", len(features))
		}
		if features[120] != nil {
			t.Error("expected nil entry for unknown track")
		}
		if features[149] == nil || features[149].ID != "t149" {
			t.Errorf("expected t149 features, got %+v", features[149])
		}
	})

	t.Run("AudioFeatures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/audio-features/t1" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"id":"t1","danceability":0.7,"tempo":120.5}`))
		}))
		defer server.Close()

		srv := NewSpotifyService(server.URL, nil)
		features, err := srv.AudioFeatures(context.Background(), "abc", "t1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if features.Danceability != 0.7 || features.Tempo != 120.5 {
			t.Errorf("unexpected features: %+v", features)
		}

		if _, err := srv.AudioFeatures(context.Background(), "abc", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("PlaylistTracksWithFeatures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/playlists/p1/tracks":
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{{"track": spotifyTrack(1)}, {"track": spotifyTrack(2)}},
					"total": 2,
				})
			case "/audio-features":
				if ids := r.URL.Query().Get("ids"); ids != "t1,t2" {
					t.Errorf("expected ids t1,t2, got %s", ids)
				}
				w.Write([]byte(`{"audio_features":[{"id":"t1","valence":0.3},null]}`))
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		tracks, err := NewSpotifyService(server.URL, nil).PlaylistTracksWithFeatures(context.Background(), "abc", "p1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].Features == nil || tracks[0].Features.Valence != 0.3 {
			t.Errorf("expected t1 features, got %+v", tracks[0].Features)
		}
		if tracks[1].Features != nil {
			t.Errorf("expected nil features for t2, got %+v", tracks[1].Features)
		}
	})
}
