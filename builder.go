package menugate

import (
	"context"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/mostafamohamed123hf/menugate/internal/stores"
	"github.com/mostafamohamed123hf/menugate/permission"
	"github.com/mostafamohamed123hf/menugate/session"
	"github.com/mostafamohamed123hf/menugate/token"
)

// Builder assembles a [Gateway]. Configure it during initialization and call
// [Builder.Build] exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	httpClient  *http.Client
	monitor     *Monitor
	permissions []string

	built bool
}

// New creates a [Builder] seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration tree.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing every durable store (session record,
// pending queue, snapshots). Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithBaseURL sets the backend origin requests are joined to.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.Gateway.BaseURL = baseURL
	return b
}

// WithHTTPClient overrides the transport. The default client carries no
// global timeout; per-call deadlines come from the request gateway.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithConnectivity installs an externally owned monitor; platform code feeds
// transitions into it. Without one the gateway starts its own, assumed
// online.
func (b *Builder) WithConnectivity(m *Monitor) *Builder {
	b.monitor = m
	return b
}

// WithPermissions overrides the closed permission-key universe. Defaults to
// [permission.DefaultKeys].
func (b *Builder) WithPermissions(keys []string) *Builder {
	b.permissions = keys
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires every component, and starts the
// authorization cache's poller. The builder is single-use.
func (b *Builder) Build() (*Gateway, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- PERMISSION REGISTRY --------
	keys := b.permissions
	if len(keys) == 0 {
		keys = permission.DefaultKeys
	}
	registry := permission.NewRegistry()
	for _, key := range keys {
		if err := registry.Register(key); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	// -------- DURABLE STORES --------
	sessionStore := session.NewStore(b.redis, cfg.Session.RedisKey)
	snapshotStore := stores.NewSnapshotStore(b.redis, cfg.Snapshot.RedisPrefix)
	pendingStore := stores.NewPendingStore(b.redis, cfg.Queue.RedisKey)

	// -------- CREDENTIALS --------
	tokens, err := token.NewManager(token.Config{
		Secret:   cloneBytes(cfg.Credential.Secret),
		Lifetime: cfg.Credential.Lifetime,
		Issuer:   cfg.Credential.Issuer,
	})
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics(cfg.Metrics)

	monitor := b.monitor
	if monitor == nil {
		monitor = NewMonitor()
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	gateway := &Gateway{
		config:        cfg,
		httpClient:    httpClient,
		registry:      registry,
		monitor:       monitor,
		metrics:       metrics,
		sessionStore:  sessionStore,
		snapshotStore: snapshotStore,
		pendingStore:  pendingStore,
	}

	gateway.cred = newCredentialManager(tokens, sessionStore, metrics)
	gateway.queue = newPendingQueue(pendingStore, metrics, gateway.Call)
	gateway.authz = newAuthzCache(cfg.Authz, gateway.authzFetch, sessionStore, registry, metrics)
	gateway.authz.start()

	// Regained connectivity replays the queue exactly once per flip.
	monitor.setReconnectHook(func() {
		_, _ = gateway.Flush(context.Background())
	})

	b.built = true

	return gateway, nil
}
