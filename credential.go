package menugate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mostafamohamed123hf/menugate/session"
	"github.com/mostafamohamed123hf/menugate/token"
)

// credentialManager owns the bearer credential: it validates the stored one
// against its encoded expiry and synthesizes a replacement from the session
// record when expired or absent. Every successful refresh rewrites the
// persisted session record.
type credentialManager struct {
	tokens  *token.Manager
	store   *session.Store
	metrics *Metrics

	// mu serializes refreshes so two overlapping calls cannot mint two
	// diverging credentials for the same record.
	mu sync.Mutex

	now func() time.Time
}

func newCredentialManager(tokens *token.Manager, store *session.Store, metrics *Metrics) *credentialManager {
	return &credentialManager{
		tokens:  tokens,
		store:   store,
		metrics: metrics,
		now:     time.Now,
	}
}

// getValidCredential returns the stored credential when it is still inside
// its encoded expiry and synthesizes a replacement otherwise. It fails with
// [ErrNoSession] when no session record exists.
func (c *credentialManager) getValidCredential(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.load(ctx)
	if err != nil {
		return "", err
	}

	now := c.now()
	if rec.Token != "" && !rec.Expired(now) && c.tokens.Valid(rec.Token, now) {
		c.metrics.Inc(MetricCredentialReused)
		return rec.Token, nil
	}

	return c.refreshLocked(ctx, rec)
}

// refresh forces credential regeneration, extending the record's expiry by
// the configured lifetime from now.
func (c *credentialManager) refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.load(ctx)
	if err != nil {
		return "", err
	}

	return c.refreshLocked(ctx, rec)
}

func (c *credentialManager) refreshLocked(ctx context.Context, rec *session.Record) (string, error) {
	signed, expiresAt, err := c.tokens.Mint(rec.UserID, string(rec.Role), c.now())
	if err != nil {
		return "", err
	}

	rec.Token = signed
	rec.ExpiresAt = expiresAt
	if err := c.store.Save(ctx, rec); err != nil {
		return "", err
	}

	c.metrics.Inc(MetricCredentialMinted)
	return signed, nil
}

func (c *credentialManager) load(ctx context.Context) (*session.Record, error) {
	rec, err := c.store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	return rec, nil
}

/*
====================================
GATEWAY CREDENTIAL SURFACE
====================================
*/

// Credential returns a valid bearer credential, synthesizing one from the
// session record when the stored credential is absent or expired.
//
// Credential may return [ErrNoSession] when no session record exists.
func (g *Gateway) Credential(ctx context.Context) (string, error) {
	if g == nil {
		return "", ErrGatewayNotReady
	}
	return g.cred.getValidCredential(ctx)
}

// RefreshCredential forces regeneration and extends the session record's
// expiry by the configured lifetime from now. Callers typically invoke it
// after an unauthorized envelope, then retry the original call at most once.
func (g *Gateway) RefreshCredential(ctx context.Context) (string, error) {
	if g == nil {
		return "", ErrGatewayNotReady
	}
	return g.cred.refresh(ctx)
}
