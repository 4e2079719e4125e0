// Package repositories implements SQLite persistence for client-side state.
//
// Key Implementations:
//   - [TokenStore] : durable token pair backing the session (implements session.Store)
//   - [RecentFestivalRepository] : the recently viewed festivals list, newest first, deduplicated and capped
//
// Every multi-row write runs in a single transaction via [withTx].
package repositories
