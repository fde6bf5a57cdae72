package menugate

import "context"

// SnapshotMutator transforms the current cached snapshot into its
// optimistically updated form. current is nil when no snapshot exists yet.
type SnapshotMutator func(current any) any

// ReadThrough attempts the fetch through the request gateway and degrades to
// the last cached snapshot for key on any non-success envelope. When neither
// fresh data nor a snapshot exists it returns [ErrNoSnapshot] — an explicit
// empty-result marker, never a silent nil. On success the snapshot for key
// is overwritten wholesale.
//
// Concurrent reads for the same key are collapsed into one backend call.
func (g *Gateway) ReadThrough(ctx context.Context, key string, req Request) (ReadResult, error) {
	if g == nil {
		return ReadResult{}, ErrGatewayNotReady
	}

	value, err, _ := g.reads.Do(key, func() (any, error) {
		return g.readThrough(ctx, key, req)
	})
	if err != nil {
		return ReadResult{}, err
	}
	return value.(ReadResult), nil
}

func (g *Gateway) readThrough(ctx context.Context, key string, req Request) (ReadResult, error) {
	env := g.Call(ctx, req)
	if env.Success {
		// Snapshot persistence is best-effort: a broken local store must
		// not turn a successful fetch into a failure.
		_ = g.snapshotStore.Put(ctx, key, env.Data)
		return ReadResult{Data: env.Data}, nil
	}

	cached, err := g.snapshotStore.Get(ctx, key)
	if err != nil {
		g.metrics.Inc(MetricSnapshotMiss)
		return ReadResult{}, ErrNoSnapshot
	}

	g.metrics.Inc(MetricSnapshotServed)
	return ReadResult{Data: cached, Stale: true}, nil
}

// WriteOptimistic applies the mutator to the cached snapshot immediately, so
// the UI reflects the change without waiting on the network, then attempts
// the remote call described by the mutation. Recoverable failures (offline,
// timeout, network) enqueue the mutation for later replay; unauthorized and
// server failures are surfaced through the envelope so the caller can react.
// The optimistic local state is never rolled back automatically.
//
// On a confirmed write, queued mutations superseded by it (same entity, same
// change type) are removed.
func (g *Gateway) WriteOptimistic(ctx context.Context, key string, apply SnapshotMutator, mut Mutation) (Envelope, error) {
	if g == nil {
		return failEnvelope(KindServer, ErrGatewayNotReady.Error()), ErrGatewayNotReady
	}
	if mut.EntityID == "" || mut.Change == "" || mut.Path == "" {
		return failEnvelope(KindServer, ErrMutationInvalid.Error()), ErrMutationInvalid
	}

	if apply != nil {
		// Absent snapshot mutates from nil; the mutator decides the seed.
		current, _ := g.snapshotStore.Get(ctx, key)
		_ = g.snapshotStore.Put(ctx, key, apply(current))
	}

	method := mut.Method
	if method == "" {
		method = "POST"
	}
	env := g.Call(ctx, Request{
		Method: method,
		Path:   mut.Path,
		Body:   mut.Body,
	})

	if env.Success {
		// A confirmed write makes older queued assignments to the same
		// entity redundant.
		_ = g.queue.dropSuperseded(ctx, mut.EntityID, mut.Change)
		return env, nil
	}

	if !env.Recoverable() {
		return env, nil
	}

	if _, err := g.queue.enqueue(ctx, mut); err != nil {
		return env, err
	}
	return env, nil
}
