// Package stores provides the Redis-backed durable stores behind the
// gateway's offline behavior: the ordered pending-mutation list and the
// keyed entity-snapshot cache.
//
// # Design
//
// The pending list is a single well-known Redis list of JSON records; order
// is the enqueue order and an absent key reads as an empty list. Snapshots
// are whole JSON blobs replaced wholesale on every successful fetch, never
// patched field by field.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT replay mutations, decide
// fallback behavior, or talk to the backend — those responsibilities belong
// to the root package.
//
// # What this package must NOT do
//
//   - Import menugate or any sibling internal package.
//   - Reorder pending records.
//   - Partially update a snapshot.
package stores
