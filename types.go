package menugate

import (
	"time"

	"github.com/mostafamohamed123hf/menugate/permission"
)

// ChangeType classifies a queued mutation for replay bookkeeping and
// supersession checks.
type ChangeType string

const (
	// ChangeSetRole assigns a role value. Replay is idempotent: applying the
	// same assignment twice yields the same end state.
	ChangeSetRole ChangeType = "set-role"
	// ChangeCreate records an entity creation.
	ChangeCreate ChangeType = "create"
	// ChangeUpdate records an entity update.
	ChangeUpdate ChangeType = "update"
	// ChangeDelete records an entity deletion.
	ChangeDelete ChangeType = "delete"
)

// Request describes one backend call issued through [Gateway.Call].
//
// Request instances are intended to be configured per call and then treated as immutable.
type Request struct {
	// Method is the HTTP method; GET when empty.
	Method string
	// Path is joined to the configured base URL.
	Path string
	// Body is JSON-encoded when non-nil.
	Body any
	// Timeout overrides the gateway default when positive.
	Timeout time.Duration
	// Paths lists candidate extraction paths for the response payload,
	// evaluated in order; the first non-empty match wins. When empty the
	// whole decoded body is returned as Data.
	Paths []string
}

// Mutation is a write whose confirmation could not (or might not) be obtained
// from the server. It carries enough to replay the same effect later.
type Mutation struct {
	ID         string
	EntityID   string
	Change     ChangeType
	Method     string
	Path       string
	Body       any
	EnqueuedAt time.Time
}

// ReadResult is returned by [Gateway.ReadThrough].
type ReadResult struct {
	// Data is the fresh payload, or the last cached snapshot when Stale.
	Data any
	// Stale marks data served from the snapshot store after a failed fetch.
	Stale bool
}

// FlushReport summarizes one pending-queue flush.
type FlushReport struct {
	// Attempted counts mutations whose replay was actually issued.
	Attempted int
	// Replayed counts mutations confirmed and removed from the queue.
	Replayed int
	// Suppressed is true when another flush was already in flight and this
	// invocation was a no-op.
	Suppressed bool
}

// AuthzState is the lifecycle state of the authorization cache.
type AuthzState uint8

const (
	// AuthzUninitialized means no permission set has been fetched yet.
	AuthzUninitialized AuthzState = iota
	// AuthzSynced means the cached set matched the server within the
	// reconcile interval.
	AuthzSynced
	// AuthzStale means the reconcile interval elapsed or an external trigger
	// fired and a fresh fetch has not completed yet.
	AuthzStale
	// AuthzDestroyed is terminal; entered on logout.
	AuthzDestroyed
)

// PermissionListener receives the full new permission set after a
// reconciliation detected a change. Delivery is synchronous, best-effort
// fan-out; late subscribers read [AuthzCache.Current] on subscription.
type PermissionListener func(permission.Set)
