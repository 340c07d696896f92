// Package auth manages the Blizzard API bearer token.
//
// # Token Lifecycle
//
// [TokenManager] owns the OAuth2 client-credentials grant against the Battle.net token endpoint.
// The most recent token lives in a [TokenStore] owned by the caller (normally one [MemoryStore] built in main).
//
// A cached token is returned without a network call while now < expiry - [ExpiryBuffer].
// Otherwise one refresh is performed: concurrent callers share it through [singleflight.Group].
//
// # Credentials
//
// BLIZZARD_CLIENT_ID and BLIZZARD_CLIENT_SECRET are read from the environment at fetch time, never cached.
// A missing value fails with [shared.ErrConfiguration]; endpoint failures wrap [shared.ErrUpstreamAuth]
// with the upstream status and body preserved. No retries are performed.
package auth
