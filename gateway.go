package menugate

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mostafamohamed123hf/menugate/internal/stores"
	"github.com/mostafamohamed123hf/menugate/permission"
	"github.com/mostafamohamed123hf/menugate/session"
)

// Gateway is the facade every collaborator calls. It owns the request
// gateway, the credential manager, the connectivity monitor, the pending
// mutation queue, the fallback resolution chain, and the authorization
// cache.
//
// Gateway instances are built once through [Builder.Build] and are safe for
// concurrent use afterwards.
type Gateway struct {
	config     Config
	httpClient *http.Client
	registry   *permission.Registry
	monitor    *Monitor
	metrics    *Metrics

	sessionStore  *session.Store
	snapshotStore *stores.SnapshotStore
	pendingStore  *stores.PendingStore

	cred  *credentialManager
	queue *pendingQueue
	reads singleflight.Group

	// authzMu guards replacement of the cache across logout/login cycles;
	// the cache itself is internally synchronized.
	authzMu sync.Mutex
	authz   *AuthzCache
}

// Close tears down background work: the authorization cache's poller stops
// and its state becomes terminal.
func (g *Gateway) Close() {
	if g == nil {
		return
	}
	g.authzMu.Lock()
	cache := g.authz
	g.authzMu.Unlock()
	cache.Destroy()
}

// Connectivity returns the monitor so the embedding platform can feed
// online/offline transitions into it.
func (g *Gateway) Connectivity() *Monitor {
	if g == nil {
		return nil
	}
	return g.monitor
}

// MetricsSnapshot copies the gateway's counters.
func (g *Gateway) MetricsSnapshot() MetricsSnapshot {
	if g == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return g.metrics.Snapshot()
}

// Authz returns the authorization cache currently owned by the gateway.
func (g *Gateway) Authz() *AuthzCache {
	if g == nil {
		return nil
	}
	g.authzMu.Lock()
	defer g.authzMu.Unlock()
	return g.authz
}

/*
====================================
SESSION SURFACE
====================================
*/

// Session loads the persisted session record.
func (g *Gateway) Session(ctx context.Context) (*session.Record, error) {
	if g == nil {
		return nil, ErrGatewayNotReady
	}
	return g.sessionStore.Load(ctx)
}

// SetSession persists the record (normalizing its permission set against the
// closed key registry) and revives the authorization cache when a previous
// logout destroyed it. Used at initial login and by reconciliation.
func (g *Gateway) SetSession(ctx context.Context, rec *session.Record) error {
	if g == nil {
		return ErrGatewayNotReady
	}
	if rec == nil {
		return ErrNoSession
	}

	saved := rec.Clone()
	saved.Permissions = g.registry.Normalize(saved.Permissions)
	if err := g.sessionStore.Save(ctx, saved); err != nil {
		return err
	}

	g.authzMu.Lock()
	if g.authz == nil || g.authz.State() == AuthzDestroyed {
		g.authz = newAuthzCache(g.config.Authz, g.authzFetch, g.sessionStore, g.registry, g.metrics)
		g.authz.start()
	}
	g.authzMu.Unlock()

	return nil
}

// ClearSession destroys the session record and the authorization cache. The
// gateway itself never calls this: logout is always a caller decision.
func (g *Gateway) ClearSession(ctx context.Context) error {
	if g == nil {
		return ErrGatewayNotReady
	}

	g.authzMu.Lock()
	cache := g.authz
	g.authzMu.Unlock()
	cache.Destroy()

	return g.sessionStore.Delete(ctx)
}
