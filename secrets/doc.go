// Package secrets implements the session registry: issuance and
// one-time redemption of short-lived client secrets.
//
// A secret binds a resolved SessionConfig snapshot to an opaque `ek_`
// token with a fixed TTL. Redemption atomically checks existence and
// expiry, then deletes the entry, so exactly one concurrent redeem
// wins. Expired, unknown, and already-redeemed secrets all fail with
// the same INVALID_SECRET error; callers cannot tell them apart.
package secrets
