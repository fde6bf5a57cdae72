// Package session owns the persisted session record: the authenticated
// identity, its permission set, and the bearer credential derived from it.
//
// The record lives under a single well-known Redis key in the JSON layout the
// admin client has always used, so the stored blob stays readable by the
// other tools that inspect it. It is replaced wholesale on every save; the
// store never patches individual fields.
//
// # What this package must NOT do
//
//   - Mint or validate credentials (package token).
//   - Decide when a record is refreshed (the credential manager does).
//   - Import menugate.
package session
