// Package services implements the upstream clients the HTTP layer proxies to.
//
// # Catalog
//
// [SpotifyService] implements [Catalog] against the Spotify Web API. It is stateless:
// the caller's bearer token travels with every call. Playlist tracks are fetched
// sequentially in pages of 100 and audio features in batches of 100.
//
// # Tokens
//
// [TokenService] implements [TokenExchanger] with [oauth2.Config], authenticating to the
// accounts service with HTTP Basic client credentials.
//
// # Descriptions
//
// [OpenAIService] implements [Describer] over an OpenAI-compatible chat completions endpoint
// and parses the two-line "Playlist Name:" / "Description:" reply with [ParseDescription].
//
// # Tags
//
// [LastFMService] implements [Tagger]. Requests are throttled with a [rate.Limiter] and
// may be served from a [TagCache]. The toptags.tag field is read with gjson because
// Last.fm returns an array, a single object, or nothing depending on the tag count.
//
// # Clustering
//
// [ClusteringService] implements [Clusterer]. It forwards feature rows to an external
// clustering service through [APIService], or partitions them in-process with k-means.
//
// # Error Handling
//
// Non-2xx upstream responses surface as [*APIError]:
//   - [shared.ErrAPIRequest] : any upstream failure status
//   - [shared.ErrTokenExpired] : upstream returned 401
//   - [shared.ErrServiceUnavailable] : clustering service could not be reached
//   - [shared.ErrMalformedCompletion] : completion text did not match the expected format
package services
