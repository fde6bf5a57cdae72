package menugate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mostafamohamed123hf/menugate/internal/stores"
)

// replayData is the changeData blob persisted with each pending record: the
// method, path, and body needed to replay the same effect later.
type replayData struct {
	Method string          `json:"method"`
	Path   string          `json:"path"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// pendingQueue wraps the durable pending store with replay logic. A flush
// spans one network suspension point per mutation, so an explicit in-flight
// guard is the one place this package needs its own "in progress" flag.
type pendingQueue struct {
	store   *stores.PendingStore
	metrics *Metrics

	// call is the request gateway; indirected for tests and to avoid an
	// initialization cycle with Gateway.
	call func(context.Context, Request) Envelope

	flushing atomic.Bool
}

func newPendingQueue(store *stores.PendingStore, metrics *Metrics, call func(context.Context, Request) Envelope) *pendingQueue {
	return &pendingQueue{
		store:   store,
		metrics: metrics,
		call:    call,
	}
}

func (q *pendingQueue) enqueue(ctx context.Context, mut Mutation) (Mutation, error) {
	if mut.EntityID == "" || mut.Change == "" || mut.Path == "" {
		return Mutation{}, ErrMutationInvalid
	}

	if mut.ID == "" {
		mut.ID = uuid.NewString()
	}
	if mut.EnqueuedAt.IsZero() {
		mut.EnqueuedAt = time.Now()
	}

	data, err := encodeReplayData(mut)
	if err != nil {
		return Mutation{}, err
	}

	rec := &stores.PendingRecord{
		ID:         mut.ID,
		EntityID:   mut.EntityID,
		ChangeType: string(mut.Change),
		ChangeData: data,
		Timestamp:  mut.EnqueuedAt,
	}
	if err := q.store.Append(ctx, rec); err != nil {
		return Mutation{}, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	q.metrics.Inc(MetricMutationQueued)
	return mut, nil
}

func (q *pendingQueue) list(ctx context.Context) ([]Mutation, error) {
	recs, err := q.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	out := make([]Mutation, 0, len(recs))
	for _, rec := range recs {
		out = append(out, decodeMutation(rec))
	}
	return out, nil
}

// flush replays queued mutations in enqueue order, removing only the ones
// the server confirmed. A second invocation observed while one is running is
// a no-op; without the guard a reconnect event racing a periodic timer could
// double-apply a mutation.
func (q *pendingQueue) flush(ctx context.Context) (FlushReport, error) {
	if !q.flushing.CompareAndSwap(false, true) {
		q.metrics.Inc(MetricFlushSuppressed)
		return FlushReport{Suppressed: true}, nil
	}
	defer q.flushing.Store(false)

	q.metrics.Inc(MetricFlushRuns)

	recs, err := q.store.List(ctx)
	if err != nil {
		return FlushReport{}, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	var report FlushReport
	for _, rec := range recs {
		mut := decodeMutation(rec)

		env := q.call(ctx, Request{
			Method: mut.Method,
			Path:   mut.Path,
			Body:   mut.Body,
		})

		if env.Kind == KindOffline {
			// The gate closed again; every remaining replay would fail the
			// same way.
			break
		}

		report.Attempted++
		if !env.Success {
			q.metrics.Inc(MetricMutationRetained)
			continue
		}

		if err := q.store.Remove(ctx, rec.ID); err != nil {
			return report, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
		}
		q.metrics.Inc(MetricMutationReplayed)
		report.Replayed++
	}

	return report, nil
}

// dropSuperseded removes queued mutations made redundant by a newer
// confirmed write to the same entity with the same change type. Set-role is
// a value assignment, so an older queued assignment has nothing left to say.
func (q *pendingQueue) dropSuperseded(ctx context.Context, entityID string, change ChangeType) error {
	recs, err := q.store.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	for _, rec := range recs {
		if rec.EntityID != entityID || rec.ChangeType != string(change) {
			continue
		}
		if err := q.store.Remove(ctx, rec.ID); err != nil {
			return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
		}
	}
	return nil
}

func encodeReplayData(mut Mutation) (json.RawMessage, error) {
	var body json.RawMessage
	if mut.Body != nil {
		encoded, err := json.Marshal(mut.Body)
		if err != nil {
			return nil, err
		}
		body = encoded
	}

	method := mut.Method
	if method == "" {
		method = "POST"
	}

	return json.Marshal(replayData{
		Method: method,
		Path:   mut.Path,
		Body:   body,
	})
}

func decodeMutation(rec stores.PendingRecord) Mutation {
	mut := Mutation{
		ID:         rec.ID,
		EntityID:   rec.EntityID,
		Change:     ChangeType(rec.ChangeType),
		EnqueuedAt: rec.Timestamp,
	}

	var data replayData
	if err := json.Unmarshal(rec.ChangeData, &data); err == nil {
		mut.Method = data.Method
		mut.Path = data.Path
		if len(data.Body) > 0 {
			mut.Body = data.Body
		}
	}

	return mut
}

/*
====================================
GATEWAY QUEUE SURFACE
====================================
*/

// Enqueue records a mutation whose confirmation could not be obtained from
// the server. It returns the stored mutation with its assigned id and
// enqueue time.
func (g *Gateway) Enqueue(ctx context.Context, mut Mutation) (Mutation, error) {
	if g == nil {
		return Mutation{}, ErrGatewayNotReady
	}
	return g.queue.enqueue(ctx, mut)
}

// Flush replays pending mutations in enqueue order. Confirmed mutations are
// removed individually; failed ones stay queued in their original relative
// order. A flush already in flight makes this invocation a no-op.
func (g *Gateway) Flush(ctx context.Context) (FlushReport, error) {
	if g == nil {
		return FlushReport{}, ErrGatewayNotReady
	}
	return g.queue.flush(ctx)
}

// Pending lists the queued mutations in enqueue order. An empty queue is an
// empty list, never an error.
func (g *Gateway) Pending(ctx context.Context) ([]Mutation, error) {
	if g == nil {
		return nil, ErrGatewayNotReady
	}
	return g.queue.list(ctx)
}
