package menugate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mostafamohamed123hf/menugate/permission"
	"github.com/mostafamohamed123hf/menugate/session"
)

func newTestGateway(t *testing.T, handler http.Handler, opts ...func(*Config)) (*Gateway, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := defaultConfig()
	cfg.Gateway.BaseURL = srv.URL
	cfg.Credential.Secret = []byte("test-secret")
	for _, opt := range opts {
		opt(&cfg)
	}

	gateway, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(gateway.Close)

	return gateway, mr
}

func adminRecord(uid string) *session.Record {
	return &session.Record{
		UserID:      uid,
		DisplayName: "Alice",
		Role:        session.RoleAdministrator,
		Permissions: permission.Set{permission.KeyAdminPanel: true},
		IsLoggedIn:  true,
		LoginTime:   time.Now(),
	}
}

func seedSession(t *testing.T, g *Gateway) {
	t.Helper()

	if err := g.SetSession(context.Background(), adminRecord("u1")); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}
}

// okHandler answers every request with a success envelope carrying data.
func okHandler(data string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":` + data + `}`))
	})
}

func TestBuilderRequiresRedis(t *testing.T) {
	_, err := New().WithBaseURL("http://localhost:1").Build()
	if err == nil {
		t.Fatal("expected Build without redis to fail")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := defaultConfig()
	cfg.Gateway.BaseURL = "http://localhost:1"
	cfg.Credential.Secret = []byte("test-secret")

	builder := New().WithConfig(cfg).WithRedis(rdb)

	gateway, err := builder.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer gateway.Close()

	if _, err := builder.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cases := []func(*Config){
		func(c *Config) { c.Gateway.BaseURL = "" },
		func(c *Config) { c.Gateway.BaseURL = "not-a-url" },
		func(c *Config) { c.Gateway.DefaultTimeout = 0 },
		func(c *Config) { c.Credential.Secret = nil },
		func(c *Config) { c.Credential.Lifetime = 0 },
		func(c *Config) { c.Authz.ReconcileInterval = 0 },
		func(c *Config) { c.Authz.PermissionsPath = "" },
	}

	for i, mutate := range cases {
		cfg := defaultConfig()
		cfg.Gateway.BaseURL = "http://localhost:1"
		cfg.Credential.Secret = []byte("test-secret")
		mutate(&cfg)

		if _, err := New().WithConfig(cfg).WithRedis(rdb).Build(); err == nil {
			t.Fatalf("case %d: expected invalid config to fail Build", i)
		}
	}
}

func TestSessionRoundTripAndClear(t *testing.T) {
	gateway, _ := newTestGateway(t, okHandler(`{}`))
	ctx := context.Background()

	seedSession(t, gateway)

	rec, err := gateway.Session(ctx)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if rec.UserID != "u1" || !rec.IsLoggedIn {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.Permissions) != len(permission.DefaultKeys) {
		t.Fatalf("expected normalized permission set, got %d keys", len(rec.Permissions))
	}

	if err := gateway.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	if _, err := gateway.Session(ctx); err == nil {
		t.Fatal("expected Session after ClearSession to fail")
	}
	if gateway.Authz().State() != AuthzDestroyed {
		t.Fatal("expected authz cache to be destroyed on logout")
	}
}

func TestSetSessionRevivesAuthzAfterLogout(t *testing.T) {
	gateway, _ := newTestGateway(t, okHandler(`{}`))
	ctx := context.Background()

	seedSession(t, gateway)
	if err := gateway.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}

	seedSession(t, gateway)
	if state := gateway.Authz().State(); state == AuthzDestroyed {
		t.Fatal("expected a fresh authz cache after re-login")
	}
}
