// Package repositories implements SQLite persistence.
//
// The only persisted data is the Last.fm tag cache:
//   - [TagCacheRepository] : top tags keyed by normalized "artist|track", expired by age
//
// Rows are written with UTC timestamps so age comparisons can run in SQL.
package repositories
