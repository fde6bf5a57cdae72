package menugate

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config defines the gateway configuration tree.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Gateway    GatewayConfig
	Credential CredentialConfig
	Authz      AuthzConfig
	Queue      QueueConfig
	Session    SessionConfig
	Snapshot   SnapshotConfig
	Metrics    MetricsConfig
}

/*
====================================
GATEWAY CONFIG
====================================
*/

// GatewayConfig controls the request gateway's transport behavior.
//
// GatewayConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GatewayConfig struct {
	// BaseURL is the backend origin every Request.Path is joined to.
	BaseURL string
	// DefaultTimeout bounds data-heavy calls. Default 30s.
	DefaultTimeout time.Duration
	// ProbeTimeout bounds availability probes. Default 5s.
	ProbeTimeout time.Duration
	// ProbePath is the availability endpoint. Default "/health".
	ProbePath string
	// AuthScheme prefixes the credential in the Authorization header.
	// Default "Bearer".
	AuthScheme string
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig controls bearer-credential synthesis.
//
// CredentialConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CredentialConfig struct {
	// Secret signs the self-issued credential.
	Secret []byte
	// Lifetime of a synthesized credential. Default 24h.
	Lifetime time.Duration
	// Issuer claim stamped into minted credentials.
	Issuer string
}

/*
====================================
AUTHZ CONFIG
====================================
*/

// AuthzConfig controls the authorization cache.
//
// AuthzConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuthzConfig struct {
	// ReconcileInterval is the fixed staleness window. Default 60s.
	ReconcileInterval time.Duration
	// PermissionsPath is the endpoint serving the current permission set.
	// Default "/auth/permissions".
	PermissionsPath string
	// ExtractPaths are the candidate payload locations, in order.
	// Default ["data.permissions", "permissions", "data"].
	ExtractPaths []string
	// FetchTimeout bounds a reconciliation fetch. Default 5s.
	FetchTimeout time.Duration
}

/*
====================================
STORE CONFIG
====================================
*/

// QueueConfig names the pending-mutation list's well-known Redis key.
type QueueConfig struct {
	RedisKey string
}

// SessionConfig names the session record's well-known Redis key.
type SessionConfig struct {
	RedisKey string
}

// SnapshotConfig names the snapshot store's Redis key prefix.
type SnapshotConfig struct {
	RedisPrefix string
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the atomic counter set.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration tree [New] seeds a builder with:
// 30s data timeout, 5s probe timeout, 24h credential lifetime, 60s
// reconcile interval, and the historical extraction paths for the
// permissions endpoint.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			DefaultTimeout: 30 * time.Second,
			ProbeTimeout:   5 * time.Second,
			ProbePath:      "/health",
			AuthScheme:     "Bearer",
		},
		Credential: CredentialConfig{
			Lifetime: 24 * time.Hour,
			Issuer:   "menugate",
		},
		Authz: AuthzConfig{
			ReconcileInterval: 60 * time.Second,
			PermissionsPath:   "/auth/permissions",
			ExtractPaths:      []string{"data.permissions", "permissions", "data"},
			FetchTimeout:      5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for internally inconsistent or unusable
// values. It is called by [Builder.Build].
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gateway.BaseURL) == "" {
		return errors.New("gateway BaseURL required")
	}
	parsed, err := url.Parse(c.Gateway.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("gateway BaseURL must be an absolute URL")
	}
	if c.Gateway.DefaultTimeout <= 0 {
		return errors.New("gateway DefaultTimeout must be positive")
	}
	if c.Gateway.ProbeTimeout <= 0 {
		return errors.New("gateway ProbeTimeout must be positive")
	}
	if len(c.Credential.Secret) == 0 {
		return errors.New("credential Secret required")
	}
	if c.Credential.Lifetime <= 0 {
		return errors.New("credential Lifetime must be positive")
	}
	if c.Authz.ReconcileInterval <= 0 {
		return errors.New("authz ReconcileInterval must be positive")
	}
	if c.Authz.FetchTimeout <= 0 {
		return errors.New("authz FetchTimeout must be positive")
	}
	if strings.TrimSpace(c.Authz.PermissionsPath) == "" {
		return errors.New("authz PermissionsPath required")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Credential.Secret = cloneBytes(cfg.Credential.Secret)
	if cfg.Authz.ExtractPaths != nil {
		out.Authz.ExtractPaths = make([]string, len(cfg.Authz.ExtractPaths))
		copy(out.Authz.ExtractPaths, cfg.Authz.ExtractPaths)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
