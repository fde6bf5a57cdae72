package menugate

import "errors"

var (
	// ErrNoSession is returned when a credential is requested and no session
	// record exists to derive one from.
	ErrNoSession = errors.New("no session record")
	// ErrNoSnapshot is the explicit empty-result marker returned when a read
	// fails and no cached snapshot exists for its key.
	ErrNoSnapshot = errors.New("no cached snapshot")
	// ErrGatewayNotReady is returned when a method is called on a nil or
	// unbuilt gateway.
	ErrGatewayNotReady = errors.New("gateway not initialized")
	// ErrAuthzDestroyed is returned when the authorization cache is used
	// after logout tore it down.
	ErrAuthzDestroyed = errors.New("authorization cache destroyed")
	// ErrQueueUnavailable is returned when the pending mutation queue's
	// durable store cannot be reached.
	ErrQueueUnavailable = errors.New("pending queue unavailable")
	// ErrMutationInvalid is returned when a mutation misses the fields
	// required to replay it later.
	ErrMutationInvalid = errors.New("invalid mutation")
)
