// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/classify/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// MockCatalog is a test double for [services.Catalog].
//
// Each method returns the matching field, or Err when set. Tokens seen are recorded.
type MockCatalog struct {
	Profile   *models.UserProfile
	Lists     []models.Playlist
	Tracks    []models.Track
	Enriched  []models.TrackWithFeatures
	Features  *models.AudioFeatures
	BatchFeat []*models.AudioFeatures
	Err       error

	mu     sync.Mutex
	Tokens []string
	IDs    []string
}

func (m *MockCatalog) record(token string, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens = append(m.Tokens, token)
	m.IDs = append(m.IDs, ids...)
}

func (m *MockCatalog) UserProfile(ctx context.Context, token string) (*models.UserProfile, error) {
	m.record(token)
	return m.Profile, m.Err
}

func (m *MockCatalog) Playlists(ctx context.Context, token string) ([]models.Playlist, error) {
	m.record(token)
	return m.Lists, m.Err
}

func (m *MockCatalog) PlaylistTracks(ctx context.Context, token, playlistID string) ([]models.Track, error) {
	m.record(token, playlistID)
	return m.Tracks, m.Err
}

func (m *MockCatalog) PlaylistTracksWithFeatures(ctx context.Context, token, playlistID string) ([]models.TrackWithFeatures, error) {
	m.record(token, playlistID)
	return m.Enriched, m.Err
}

func (m *MockCatalog) AudioFeatures(ctx context.Context, token, trackID string) (*models.AudioFeatures, error) {
	m.record(token, trackID)
	return m.Features, m.Err
}

func (m *MockCatalog) SeveralAudioFeatures(ctx context.Context, token string, trackIDs []string) ([]*models.AudioFeatures, error) {
	m.record(token, trackIDs...)
	return m.BatchFeat, m.Err
}

// MockTokenExchanger is a test double for [services.TokenExchanger].
type MockTokenExchanger struct {
	Response *models.TokenResponse
	Err      error

	Code         string
	RefreshToken string
}

func (m *MockTokenExchanger) Exchange(ctx context.Context, code, refreshToken string) (*models.TokenResponse, error) {
	m.Code, m.RefreshToken = code, refreshToken
	return m.Response, m.Err
}

// MockDescriber is a test double for [services.Describer].
type MockDescriber struct {
	Result  *models.Description
	Err     error
	Request models.DescriptionRequest
}

func (m *MockDescriber) Describe(ctx context.Context, req models.DescriptionRequest) (*models.Description, error) {
	m.Request = req
	return m.Result, m.Err
}

// MockTagger is a test double for [services.Tagger].
type MockTagger struct {
	Tags   []models.Tag
	Err    error
	Artist string
	Track  string
}

func (m *MockTagger) TopTags(ctx context.Context, artist, track string) ([]models.Tag, error) {
	m.Artist, m.Track = artist, track
	return m.Tags, m.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// MustMemoryDB opens a private in-memory SQLite database closed at test cleanup.
//
// The pool is pinned to one connection so every query sees the same database.
func MustMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
