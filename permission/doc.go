// Package permission provides the closed permission-key registry, the named
// boolean permission set, and the binder-side effective-view helpers used by
// menugate authorization checks.
//
// # Key model
//
// Permissions travel on the wire as a mapping of key → boolean, so the set is
// a named map rather than a packed bitmask. The key universe is closed: keys
// are assigned by [Registry.Register] before [Registry.Freeze] and are stable
// for the lifetime of the process. Unknown keys received from the backend are
// dropped during normalization instead of failing the whole set.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. It provides
// the equality comparison the authorization cache uses to decide whether a
// reconciliation actually changed anything.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import menugate, token, or session.
//   - Accept new keys after the registry is frozen.
package permission
