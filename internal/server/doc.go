// Package server provides HTTP routing, middleware and the handlers of the Classify backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers
// [http.ServeMux] method patterns ("GET /playlists/{playlist_id}/tracks") and composes
// [Middleware] with alice chains. Global middleware wraps the whole mux, so CORS preflights
// and 404s pass through it as well.
//
// # Handler Interface
//
// Handlers implement [Handler] by listing their [Route] values. A route marked Protected is
// wrapped with [RequireBearer], which accepts "Authorization: Bearer <token>" or an
// access_token cookie and stores the token for [AccessToken].
//
// # Endpoints
//
//   - [AuthHandler] : OAuth callback, token refresh, logout (cookies)
//   - [CatalogHandler] : playlists, profile, playlist tracks, audio features
//   - [TagHandler] : Last.fm top tags
//   - [DescriptionHandler] : generated playlist names and descriptions
//   - [ClusterHandler] : clustering service proxy
//   - [StatusHandler] : welcome message and health check
//
// [New] wires them together. A handler whose upstream client is missing still has its
// routes registered; they answer 503 until the client is configured.
package server
