package menugate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mostafamohamed123hf/menugate/session"
)

func TestCredentialNoSession(t *testing.T) {
	gateway, _ := newTestGateway(t, okHandler(`{}`))

	_, err := gateway.Credential(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestCredentialSynthesizedFromExpiredRecord(t *testing.T) {
	gateway, _ := newTestGateway(t, okHandler(`{}`))
	ctx := context.Background()

	// Session with an expiry in the past, as left behind by yesterday's
	// login.
	err := gateway.sessionStore.Save(ctx, &session.Record{
		UserID:     "u1",
		Role:       session.RoleAdministrator,
		IsLoggedIn: true,
		ExpiresAt:  time.Now().Add(-time.Hour),
		Token:      "stale-token",
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cred, err := gateway.Credential(ctx)
	if err != nil {
		t.Fatalf("Credential failed: %v", err)
	}
	if cred == "" || cred == "stale-token" {
		t.Fatalf("expected a freshly synthesized credential, got %q", cred)
	}

	rec, err := gateway.Session(ctx)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	want := time.Now().Add(24 * time.Hour)
	if diff := rec.ExpiresAt.Sub(want); diff > 5*time.Second || diff < -5*time.Second {
		t.Fatalf("expected expiry near now+24h, got %v", rec.ExpiresAt)
	}
	if rec.Token != cred {
		t.Fatal("expected refresh to rewrite the persisted record")
	}
}

func TestCredentialReusedWhileValid(t *testing.T) {
	gateway, _ := newTestGateway(t, okHandler(`{}`))
	ctx := context.Background()

	seedSession(t, gateway)

	first, err := gateway.Credential(ctx)
	if err != nil {
		t.Fatalf("Credential failed: %v", err)
	}
	second, err := gateway.Credential(ctx)
	if err != nil {
		t.Fatalf("Credential failed: %v", err)
	}
	if first != second {
		t.Fatal("expected an unexpired credential to be reused")
	}

	snap := gateway.MetricsSnapshot()
	if snap.Counters[MetricCredentialReused] == 0 {
		t.Fatal("expected a credential reuse to be counted")
	}
}

func TestRefreshCredentialForcesRegeneration(t *testing.T) {
	gateway, _ := newTestGateway(t, okHandler(`{}`))
	ctx := context.Background()

	seedSession(t, gateway)

	first, err := gateway.Credential(ctx)
	if err != nil {
		t.Fatalf("Credential failed: %v", err)
	}

	// Minting twice within the same second can produce an identical token;
	// force distinct issue times.
	gateway.cred.now = func() time.Time { return time.Now().Add(2 * time.Second) }

	second, err := gateway.RefreshCredential(ctx)
	if err != nil {
		t.Fatalf("RefreshCredential failed: %v", err)
	}
	if second == first {
		t.Fatal("expected refresh to mint a distinct credential")
	}

	rec, err := gateway.Session(ctx)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if rec.Token != second {
		t.Fatal("expected persisted record to carry the refreshed credential")
	}
}
