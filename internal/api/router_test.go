package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/service"
)

type memAdmins struct {
	byID map[string]*domain.Admin
}

func (m *memAdmins) FindByID(_ context.Context, id string) (*domain.Admin, error) {
	if a, ok := m.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrAdminNotFound
}

func (m *memAdmins) FindByEmail(_ context.Context, email string) (*domain.Admin, error) {
	for _, a := range m.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrAdminNotFound
}

func (m *memAdmins) Create(_ context.Context, a *domain.Admin) (*domain.Admin, error) {
	m.byID[a.ID] = a
	return a, nil
}

type memAgents struct {
	mu   sync.Mutex
	byID map[string]*domain.Agent
}

func (m *memAgents) FindByID(_ context.Context, id string) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrAgentNotFound
}

func (m *memAgents) FindByEmail(_ context.Context, email string) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrAgentNotFound
}

func (m *memAgents) Create(_ context.Context, a *domain.Agent) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[a.ID] = a
	return a, nil
}

func (m *memAgents) List(context.Context) ([]*domain.Agent, error) { return nil, nil }

func (m *memAgents) SetActive(_ context.Context, id string, active bool) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	a.IsActive = active
	return a, nil
}

func (m *memAgents) BindPassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return domain.ErrAgentNotFound
	}
	if a.PasswordHash != "" {
		return domain.ErrAlreadyProvisioned
	}
	a.PasswordHash = hash
	return nil
}

type routerFixture struct {
	server http.Handler
	tokens *service.Tokens
	agents *memAgents
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Now().UTC()
	admins := &memAdmins{byID: map[string]*domain.Admin{
		"adm1": {ID: "adm1", Email: "boss@dealer.com", Name: "Boss", PasswordHash: string(hash), Role: "superadmin", IsActive: true, CreatedAt: now},
	}}
	agents := &memAgents{byID: map[string]*domain.Agent{
		"agt1": {ID: "agt1", Email: "sam@dealer.com", Name: "Sam", Role: "agent", IsActive: true, CreatedAt: now},
		"agt2": {ID: "agt2", Email: "kim@dealer.com", Name: "Kim", Role: "agent", IsActive: false, CreatedAt: now},
	}}

	log := zerolog.Nop()
	tokens := service.NewTokens(service.TokenConfig{Secret: []byte("router-test-secret-0123456789"), TTL: time.Hour})

	e := NewRouter(Dependencies{
		Gateway:         service.NewGateway(tokens, admins, agents, log),
		Auth:            service.NewAuthService(admins, agents, tokens, log, service.WithBcryptCost(bcrypt.MinCost)),
		LoginRatePerMin: 100,
		Log:             log,
		Registry:        prometheus.NewRegistry(),
	})
	return &routerFixture{server: e, tokens: tokens, agents: agents}
}

func (f *routerFixture) do(method, path, authorization, body string) (int, map[string]any) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out
}

func (f *routerFixture) bearer(t *testing.T, id string, c domain.Capability) string {
	t.Helper()
	tok, err := f.tokens.Issue(id, c)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return "Bearer " + tok
}

func TestRouter_GatewayOrdering(t *testing.T) {
	f := newRouterFixture(t)
	adminToken := f.bearer(t, "adm1", domain.CapabilityAdmin)
	inactiveAgentToken := f.bearer(t, "agt2", domain.CapabilityAgent)
	ghostAgentToken := f.bearer(t, "agt404", domain.CapabilityAgent)

	tests := []struct {
		name     string
		path     string
		auth     string
		wantCode int
		wantMsg  string
	}{
		{"missing header", "/api/agent/me", "", http.StatusUnauthorized, "No token provided"},
		{"wrong scheme", "/api/agent/me", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, "No token provided"},
		{"garbage token", "/api/agent/me", "Bearer garbage", http.StatusUnauthorized, "Invalid or expired token"},
		{"garbage token on admin route", "/api/admin/me", "Bearer garbage", http.StatusUnauthorized, "Invalid or expired token"},
		{"admin token on agent route", "/api/agent/me", adminToken, http.StatusForbidden, "Access denied - agent access required"},
		{"inactive agent", "/api/agent/me", inactiveAgentToken, http.StatusUnauthorized, "Agent not found or inactive"},
		{"unknown agent", "/api/agent/me", ghostAgentToken, http.StatusUnauthorized, "Agent not found or inactive"},
		{"agent token on admin route", "/api/admin/agents", inactiveAgentToken, http.StatusForbidden, "Access denied - admin access required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := f.do(http.MethodGet, tt.path, tt.auth, "")
			if code != tt.wantCode {
				t.Fatalf("expected %d, got %d (%v)", tt.wantCode, code, body)
			}
			if body["error"] != tt.wantMsg {
				t.Fatalf("expected %q, got %v", tt.wantMsg, body["error"])
			}
		})
	}

	code, body := f.do(http.MethodGet, "/api/admin/me", adminToken, "")
	if code != http.StatusOK || body["id"] != "adm1" || body["type"] != "admin" {
		t.Fatalf("admin me: %d %v", code, body)
	}
}

func TestRouter_AgentFirstLoginBindsPassword(t *testing.T) {
	f := newRouterFixture(t)

	code, body := f.do(http.MethodPost, "/api/agent/login", "", `{"email":"Sam@Dealer.com","password":"first-pass"}`)
	if code != http.StatusOK {
		t.Fatalf("first login: %d %v", code, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("expected a token, got %v", body)
	}

	code, body = f.do(http.MethodGet, "/api/agent/me", "Bearer "+token, "")
	if code != http.StatusOK || body["id"] != "agt1" {
		t.Fatalf("agent me: %d %v", code, body)
	}

	code, body = f.do(http.MethodPost, "/api/agent/login", "", `{"email":"sam@dealer.com","password":"other-pass"}`)
	if code != http.StatusUnauthorized || body["error"] != "Invalid credentials" {
		t.Fatalf("second password must be rejected: %d %v", code, body)
	}

	code, _ = f.do(http.MethodPost, "/api/agent/login", "", `{"email":"sam@dealer.com","password":"first-pass"}`)
	if code != http.StatusOK {
		t.Fatalf("bound password must keep working, got %d", code)
	}

	// Deactivation applies to tokens that were already issued.
	if _, err := f.agents.SetActive(context.Background(), "agt1", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	code, body = f.do(http.MethodGet, "/api/agent/me", "Bearer "+token, "")
	if code != http.StatusUnauthorized || body["error"] != "Agent not found or inactive" {
		t.Fatalf("deactivated agent: %d %v", code, body)
	}
}

func TestRouter_AdminLoginAndHealth(t *testing.T) {
	f := newRouterFixture(t)

	code, body := f.do(http.MethodPost, "/api/admin/login", "", `{"email":"boss@dealer.com","password":"admin-pass"}`)
	if code != http.StatusOK || body["token"] == nil {
		t.Fatalf("admin login: %d %v", code, body)
	}

	code, body = f.do(http.MethodPost, "/api/admin/login", "", `{"email":"boss@dealer.com","password":"nope"}`)
	if code != http.StatusUnauthorized || body["error"] != "Invalid credentials" {
		t.Fatalf("bad admin login: %d %v", code, body)
	}

	code, _ = f.do(http.MethodGet, "/health", "", "")
	if code != http.StatusOK {
		t.Fatalf("liveness: %d", code)
	}
}
