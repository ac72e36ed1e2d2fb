package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/classify/internal/models"
	"github.com/desertthunder/classify/internal/shared"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const lastFMBaseURL = "http://ws.audioscrobbler.com/2.0/"

// TagCache stores top tags keyed by [shared.NormalizeTrackKey].
//
// Get reports found=false for missing or expired entries.
type TagCache interface {
	Get(ctx context.Context, key string) (tags []models.Tag, found bool, err error)
	Put(ctx context.Context, key, artist, track string, tags []models.Tag) error
}

// LastFMService implements [Tagger] against the Last.fm track.getTopTags method.
type LastFMService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      TagCache
	logger     *log.Logger
}

// LastFMOption configures a [LastFMService].
type LastFMOption func(*LastFMService)

// WithTagCache serves repeated lookups from cache.
func WithTagCache(cache TagCache) LastFMOption {
	return func(s *LastFMService) { s.cache = cache }
}

// WithLastFMLogger sets the logger used for cache failures.
func WithLastFMLogger(logger *log.Logger) LastFMOption {
	return func(s *LastFMService) { s.logger = logger }
}

// NewLastFMService creates a tag client. requestsPerSecond <= 0 disables throttling.
func NewLastFMService(cfg shared.LastFMConfig, client *http.Client, opts ...LastFMOption) (*LastFMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: lastfm api_key", shared.ErrMissingCredentials)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = lastFMBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	s := &LastFMService{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}

	return s, nil
}

// TopTags returns the top tags for a track, consulting the cache first when one is configured.
//
// A track with no tags yields an empty, non-nil slice.
func (s *LastFMService) TopTags(ctx context.Context, artist, track string) ([]models.Tag, error) {
	if artist == "" || track == "" {
		return nil, shared.WrapErr(shared.ErrInvalidInput, "artist and track are required")
	}

	key := shared.NormalizeTrackKey(artist, track)
	if s.cache != nil {
		tags, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("tag cache read failed", "key", key, "error", err)
		} else if found {
			return tags, nil
		}
	}

	tags, err := s.fetchTopTags(ctx, artist, track)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, artist, track, tags); err != nil {
			s.logger.Warn("tag cache write failed", "key", key, "error", err)
		}
	}

	return tags, nil
}

func (s *LastFMService) fetchTopTags(ctx context.Context, artist, track string) ([]models.Tag, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("method", "track.getTopTags")
	params.Set("api_key", s.apiKey)
	params.Set("artist", artist)
	params.Set("track", track)
	params.Set("format", "json")
	params.Set("autocorrect", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Service: "lastfm", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return ParseTopTags(body)
}

// ParseTopTags reads toptags.tag, which Last.fm encodes as an array, a lone object, or omits entirely.
//
// A payload carrying a Last.fm error code is returned as an [*APIError].
func ParseTopTags(body []byte) ([]models.Tag, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON")
	}

	if code := gjson.GetBytes(body, "error"); code.Exists() {
		return nil, &APIError{
			Service:    "lastfm",
			StatusCode: http.StatusBadGateway,
			Body:       fmt.Sprintf("error %d: %s", code.Int(), gjson.GetBytes(body, "message").String()),
		}
	}

	tags := []models.Tag{}
	toTag := func(v gjson.Result) {
		name := v.Get("name").String()
		if name == "" {
			return
		}
		tags = append(tags, models.Tag{
			Name:  name,
			Count: int(v.Get("count").Int()),
			URL:   v.Get("url").String(),
		})
	}

	result := gjson.GetBytes(body, "toptags.tag")
	switch {
	case result.IsArray():
		result.ForEach(func(_, v gjson.Result) bool {
			toTag(v)
			return true
		})
	case result.IsObject():
		toTag(result)
	}

	return tags, nil
}
