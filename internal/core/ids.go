package core

// UserID identifies one user of the workspace. The signaling relay and the
// call engine both key their per-peer state by it.
type UserID string

// CallID is an opaque, server-assigned identifier of one active call.
type CallID string

// Polite reports whether the local side plays the polite role against the
// remote side during offer collisions. The ordering is total and stable, so
// both processes compute the same answer for a pair without coordination.
func Polite(local, remote UserID) bool {
	return local > remote
}
