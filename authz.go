package menugate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mostafamohamed123hf/menugate/permission"
	"github.com/mostafamohamed123hf/menugate/session"
)

// permissionFetch retrieves the current user's permission set from the
// server.
type permissionFetch func(ctx context.Context) (permission.Set, error)

// AuthzCache holds the current user's permission set and keeps it reconciled
// against the server: on a fixed interval, on explicit triggers, and on
// matching external change notifications. Reconciliation follows a "last
// reconciliation wins" rule — there is no merging.
//
// State machine: Uninitialized → Synced ↔ Stale, with terminal Destroyed on
// logout. Reconciliation failures leave the state at Stale and keep the
// existing set; stale-but-present data beats no data.
type AuthzCache struct {
	cfg      AuthzConfig
	fetch    permissionFetch
	store    *session.Store
	registry *permission.Registry
	metrics  *Metrics

	mu       sync.Mutex
	state    AuthzState
	current  permission.Set
	lastSync time.Time
	subs     map[uint64]PermissionListener
	nextSub  uint64

	trigger   chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newAuthzCache(cfg AuthzConfig, fetch permissionFetch, store *session.Store, registry *permission.Registry, metrics *Metrics) *AuthzCache {
	return &AuthzCache{
		cfg:      cfg,
		fetch:    fetch,
		store:    store,
		registry: registry,
		metrics:  metrics,
		state:    AuthzUninitialized,
		subs:     make(map[uint64]PermissionListener),
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// start launches the reconciliation poller. The timer is re-armed after each
// attempt, so a process suspended past the interval reconciles immediately
// on resume instead of waiting a full extra period.
func (a *AuthzCache) start() {
	a.wg.Add(1)
	go a.run()
}

func (a *AuthzCache) run() {
	defer a.wg.Done()

	timer := time.NewTimer(a.cfg.ReconcileInterval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			a.markStale()
			a.reconcileOnce()
		case <-a.trigger:
			a.markStale()
			a.reconcileOnce()
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-a.done:
			return
		}
		timer.Reset(a.cfg.ReconcileInterval)
	}
}

func (a *AuthzCache) reconcileOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.FetchTimeout)
	defer cancel()
	_ = a.Reconcile(ctx)
}

func (a *AuthzCache) markStale() {
	a.mu.Lock()
	if a.state == AuthzSynced {
		a.state = AuthzStale
	}
	a.mu.Unlock()
}

// State returns the cache's lifecycle state.
func (a *AuthzCache) State() AuthzState {
	if a == nil {
		return AuthzDestroyed
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Current returns a copy of the cached permission set. Late subscribers call
// this on subscription; they receive nothing retroactively.
func (a *AuthzCache) Current() permission.Set {
	if a == nil {
		return permission.Set{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current.Clone()
}

// LastSync returns when the last successful reconciliation completed.
func (a *AuthzCache) LastSync() time.Time {
	if a == nil {
		return time.Time{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSync
}

// Subscribe registers a listener for permission-set changes and returns its
// deterministic unsubscribe handle. Delivery is synchronous best-effort
// fan-out; a listener that needs the current value reads [AuthzCache.Current]
// first.
func (a *AuthzCache) Subscribe(fn PermissionListener) (unsubscribe func()) {
	if a == nil || fn == nil {
		return func() {}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == AuthzDestroyed {
		return func() {}
	}

	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn

	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

// Trigger schedules a reconciliation outside the fixed interval, e.g. after
// another part of the system wrote a permission change. Non-blocking; a
// trigger already pending is collapsed.
func (a *AuthzCache) Trigger() {
	if a == nil {
		return
	}
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// Reconcile fetches the permission set and applies the outcome: a changed
// set overwrites the session record's copy and notifies subscribers; an
// identical set emits nothing; a failed fetch leaves the state at Stale and
// keeps the existing set.
func (a *AuthzCache) Reconcile(ctx context.Context) error {
	if a == nil {
		return ErrAuthzDestroyed
	}
	if a.State() == AuthzDestroyed {
		return ErrAuthzDestroyed
	}

	fetched, err := a.fetch(ctx)
	if err != nil {
		a.metrics.Inc(MetricReconcileFailed)
		a.mu.Lock()
		if a.state == AuthzSynced {
			a.state = AuthzStale
		}
		a.mu.Unlock()
		return err
	}

	a.apply(ctx, fetched)
	return nil
}

// ApplyExternalChange applies a permission change announced elsewhere in the
// system. When the announced identity matches the session's (compared after
// coercion to a common string form, since one side may arrive numeric), the
// set is applied immediately without waiting for the next poll; otherwise it
// is a no-op.
func (a *AuthzCache) ApplyExternalChange(ctx context.Context, identity any, set permission.Set) (bool, error) {
	if a == nil || a.State() == AuthzDestroyed {
		return false, ErrAuthzDestroyed
	}

	rec, err := a.store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}

	if coerceID(identity) != coerceID(rec.UserID) {
		return false, nil
	}

	a.apply(ctx, set)
	return true, nil
}

// Destroy stops the poller, drops every subscriber, and moves the cache to
// its terminal state. Safe to call more than once.
func (a *AuthzCache) Destroy() {
	if a == nil {
		return
	}
	a.closeOnce.Do(func() {
		close(a.done)
	})
	a.wg.Wait()

	a.mu.Lock()
	a.state = AuthzDestroyed
	a.subs = make(map[uint64]PermissionListener)
	a.current = nil
	a.mu.Unlock()
}

// apply installs a fetched set: normalize, compare by value, persist on
// change, fan out on change, stay quiet when equal.
func (a *AuthzCache) apply(ctx context.Context, fetched permission.Set) {
	next := a.registry.Normalize(fetched)

	a.mu.Lock()
	if a.state == AuthzDestroyed {
		a.mu.Unlock()
		return
	}

	changed := a.state == AuthzUninitialized || !a.current.Equal(next)
	notifyChange := !a.current.Equal(next)

	a.current = next
	a.state = AuthzSynced
	a.lastSync = time.Now()

	var listeners []PermissionListener
	if notifyChange {
		listeners = make([]PermissionListener, 0, len(a.subs))
		for _, fn := range a.subs {
			listeners = append(listeners, fn)
		}
	}
	a.mu.Unlock()

	if changed {
		a.persist(ctx, next)
	}

	if notifyChange {
		a.metrics.Inc(MetricReconcileChanged)
		for _, fn := range listeners {
			fn(next.Clone())
		}
	} else {
		a.metrics.Inc(MetricReconcileUnchanged)
	}
}

// persist overwrites the session record's permission set. Best-effort: a
// store failure leaves the in-memory cache authoritative until the next
// reconciliation.
func (a *AuthzCache) persist(ctx context.Context, set permission.Set) {
	rec, err := a.store.Load(ctx)
	if err != nil {
		return
	}
	rec.Permissions = set.Clone()
	_ = a.store.Save(ctx, rec)
}

// coerceID normalizes an identity to a comparable string. The reconciled
// systems disagree on identifier representation (one may send a JSON number
// where the other holds a string), so comparison happens after coercion.
func coerceID(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		if value == math.Trunc(value) && !math.IsInf(value, 0) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}

/*
====================================
GATEWAY AUTHZ FETCH
====================================
*/

// authzFetch is the reconciliation fetcher wired into the cache: one gateway
// call against the permissions endpoint, payload located through the
// configured extraction paths.
func (g *Gateway) authzFetch(ctx context.Context) (permission.Set, error) {
	env := g.Call(ctx, Request{
		Method:  http.MethodGet,
		Path:    g.config.Authz.PermissionsPath,
		Timeout: g.config.Authz.FetchTimeout,
		Paths:   g.config.Authz.ExtractPaths,
	})
	if !env.Success {
		return nil, fmt.Errorf("permissions fetch failed: %s (%s)", env.Message, env.Kind)
	}

	return permissionSetFromPayload(env.Data), nil
}

// permissionSetFromPayload converts a decoded payload to a permission set.
// Non-boolean values are ignored; shape drift must not poison the cache.
func permissionSetFromPayload(payload any) permission.Set {
	obj, ok := payload.(map[string]any)
	if !ok {
		return permission.Set{}
	}

	set := make(permission.Set, len(obj))
	for key, raw := range obj {
		if granted, ok := raw.(bool); ok {
			set[key] = granted
		}
	}
	return set
}
