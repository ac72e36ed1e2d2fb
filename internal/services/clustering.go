package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/desertthunder/classify/internal/models"
	"github.com/desertthunder/classify/internal/shared"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

const (
	AlgorithmKMeans = "kmeans"
	AlgorithmLocal  = "local"

	// tempoScale brings tempo (BPM) into roughly the same range as the unit-interval features.
	tempoScale = 200.0
)

// ClusterResponse is the clustering outcome handed back to the HTTP layer.
//
// For delegated requests StatusCode and Body are the service's, verbatim.
type ClusterResponse struct {
	StatusCode int
	Body       []byte
	Local      bool
}

// OK reports whether the status is 2xx.
func (r *ClusterResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ClusterPayload is the body POSTed to {url}/cluster.
type ClusterPayload struct {
	Features      [][]float64            `json:"features"`
	TrackMetadata []models.TrackMetadata `json:"track_metadata"`
	Algorithm     string                 `json:"algorithm"`
	Clusters      int                    `json:"n_clusters"`
}

// ClusteringService implements [Clusterer].
//
// With an [APIService] it delegates to the external service; without one, or when the
// request asks for [AlgorithmLocal], it runs k-means in-process.
type ClusteringService struct {
	api      *APIService
	defaultK int
}

// NewClusteringService creates a clustering client. A nil api disables delegation.
func NewClusteringService(api *APIService, defaultK int) *ClusteringService {
	if defaultK <= 0 {
		defaultK = 5
	}
	return &ClusteringService{api: api, defaultK: defaultK}
}

// BuildPayload converts submitted tracks into the external service's request body.
func BuildPayload(req models.ClusterRequest, defaultK int) ClusterPayload {
	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = AlgorithmKMeans
	}
	k := req.Clusters
	if k <= 0 {
		k = defaultK
	}

	payload := ClusterPayload{
		Features:      make([][]float64, len(req.Tracks)),
		TrackMetadata: make([]models.TrackMetadata, len(req.Tracks)),
		Algorithm:     algorithm,
		Clusters:      k,
	}
	for i, t := range req.Tracks {
		payload.Features[i] = t.Row()
		payload.TrackMetadata[i] = t.Metadata()
	}
	return payload
}

// Cluster assigns req.Tracks to clusters.
func (s *ClusteringService) Cluster(ctx context.Context, req models.ClusterRequest) (*ClusterResponse, error) {
	if req.Tracks == nil {
		return nil, shared.WrapErr(shared.ErrInvalidInput, "tracks array is required")
	}

	if s.api == nil || strings.EqualFold(req.Algorithm, AlgorithmLocal) {
		return s.clusterLocal(req)
	}

	resp, err := s.api.PostJSON(ctx, "/cluster", BuildPayload(req, s.defaultK))
	if err != nil {
		if isUnreachable(err) {
			return nil, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
		}
		return nil, err
	}

	return &ClusterResponse{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

func (s *ClusteringService) clusterLocal(req models.ClusterRequest) (*ClusterResponse, error) {
	result, err := KMeans(req.Tracks, req.Clusters, s.defaultK)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode clustering result: %w", err)
	}

	return &ClusterResponse{StatusCode: 200, Body: body, Local: true}, nil
}

// trackPoint is a feature row that remembers which submitted track it came from.
type trackPoint struct {
	index  int
	coords clusters.Coordinates
}

func (p trackPoint) Coordinates() clusters.Coordinates {
	return p.coords
}

func (p trackPoint) Distance(point clusters.Coordinates) float64 {
	return p.coords.Distance(point)
}

// KMeans partitions tracks into k clusters in-process.
//
// k <= 0 uses defaultK; k is capped at the number of tracks. Tempo is scaled down by 200
// for distance calculations and scaled back up in the returned centers.
func KMeans(tracks []models.ClusterTrack, k, defaultK int) (*models.ClusterResult, error) {
	if len(tracks) == 0 {
		return nil, shared.WrapErr(shared.ErrInvalidInput, "at least one track is required")
	}
	if k <= 0 {
		k = defaultK
	}
	k = min(max(k, 1), len(tracks))

	var observations clusters.Observations
	for i, t := range tracks {
		row := t.Row()
		row[3] /= tempoScale
		observations = append(observations, trackPoint{index: i, coords: row})
	}

	partition, err := kmeans.New().Partition(observations, k)
	if err != nil {
		return nil, fmt.Errorf("k-means partition failed: %w", err)
	}

	result := &models.ClusterResult{
		Labels:         make([]int, len(tracks)),
		ClusterCenters: make([][]float64, len(partition)),
	}
	for label, c := range partition {
		center := memberMean(c)
		if len(center) > 3 {
			center[3] *= tempoScale
		}
		result.ClusterCenters[label] = center

		for _, o := range c.Observations {
			if p, ok := o.(trackPoint); ok {
				result.Labels[p.index] = label
			}
		}
	}

	return result, nil
}

// memberMean averages the cluster's members. Center is not recomputed after the final assignment.
func memberMean(c clusters.Cluster) []float64 {
	if len(c.Observations) == 0 {
		center := make([]float64, len(c.Center))
		copy(center, c.Center)
		return center
	}

	center := make([]float64, len(c.Observations[0].Coordinates()))
	for _, o := range c.Observations {
		for i, v := range o.Coordinates() {
			center[i] += v
		}
	}
	for i := range center {
		center[i] /= float64(len(c.Observations))
	}
	return center
}

// isUnreachable reports whether err means the service could not be reached at all.
func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
