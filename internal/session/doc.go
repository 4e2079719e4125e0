// Package session owns the authentication state of the client.
//
// A single [Manager] holds the access and refresh tokens and the cached profile, and persists the tokens
// through a [Store]. [Transport] decorates outgoing API requests with the bearer token and recovers from
// 401 responses by refreshing once and resending the request. Concurrent 401s share one refresh, and
// when recovery is impossible the session is cleared and the expiry hooks run exactly once.
package session
