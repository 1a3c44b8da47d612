package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	accountdomain "vidtube/backend/internal/account/domain"
	accounthandler "vidtube/backend/internal/account/handler"
	accountservice "vidtube/backend/internal/account/service"
	authhandler "vidtube/backend/internal/auth/handler"
	authservice "vidtube/backend/internal/auth/service"
	"vidtube/backend/internal/security"
	sessionrepo "vidtube/backend/internal/session/repository"

	"github.com/gofiber/fiber/v3"
)

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]*accountdomain.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: make(map[string]*accountdomain.Account)}
}

func (m *memAccounts) GetByID(ctx context.Context, id string) (*accountdomain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		a2 := *a
		return &a2, nil
	}
	return nil, nil
}

func (m *memAccounts) GetByUsernameOrEmail(ctx context.Context, identifier string) (*accountdomain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identifier = strings.ToLower(identifier)
	for _, a := range m.byID {
		if a.Username == identifier || a.Email == identifier {
			a2 := *a
			return &a2, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) Create(ctx context.Context, a *accountdomain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a2 := *a
	m.byID[a.ID] = &a2
	return nil
}

func (m *memAccounts) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		a.PasswordHash = passwordHash
	}
	return nil
}

func (m *memAccounts) UpdateProfile(ctx context.Context, id, displayName, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		a.DisplayName = displayName
		a.Email = email
	}
	return nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	codec, err := security.NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	accounts := newMemAccounts()
	slots := sessionrepo.NewMemoryRepository()
	hasher := security.NewHasher(bcrypt.MinCost, 4)

	auth := authservice.NewAuthService(accounts, slots, hasher, codec, nil)
	profile := accountservice.NewAccountService(accounts)

	return New(Deps{
		Auth:    authhandler.NewHandler(auth, false),
		Account: accounthandler.NewHandler(profile),
		Codec:   codec,
	})
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func registerAndLogin(t *testing.T, app *fiber.App) (accessToken, refreshToken string) {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":    "alice",
		"email":       "alice@example.com",
		"password":    "password1",
		"displayName": "Alice",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"identifier": "alice",
		"password":   "password1",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	accessToken, _ = body["accessToken"].(string)
	refreshToken, _ = body["refreshToken"].(string)
	if accessToken == "" || refreshToken == "" {
		t.Fatal("login response missing tokens")
	}
	return accessToken, refreshToken
}

func TestServer_RegisterLoginRefreshFlow(t *testing.T) {
	app := newTestApp(t)
	_, rt1 := registerAndLogin(t, app)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refreshToken": rt1,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	rt2, _ := body["refreshToken"].(string)
	if rt2 == "" || rt2 == rt1 {
		t.Fatal("refresh did not rotate the token")
	}

	// Replaying the old token is rejected.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refreshToken": rt1,
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("replayed refresh status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestServer_RefreshMalformedToken(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refreshToken": "garbage",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed refresh status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestServer_LoginBadCredentials(t *testing.T) {
	app := newTestApp(t)
	registerAndLogin(t, app)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"identifier": "alice",
		"password":   "wrong-password1",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestServer_MeRequiresAuth(t *testing.T) {
	app := newTestApp(t)
	at, _ := registerAndLogin(t, app)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/account/me", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated me status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/account/me", nil, map[string]string{
		"Authorization": "Bearer " + at,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated me status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["username"] != "alice" {
		t.Errorf("me username = %v, want alice", body["username"])
	}
}

func TestServer_LogoutInvalidatesSession(t *testing.T) {
	app := newTestApp(t)
	at, rt := registerAndLogin(t, app)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/logout", nil, map[string]string{
		"Authorization": "Bearer " + at,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refreshToken": rt,
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestServer_Healthz(t *testing.T) {
	app := newTestApp(t)
	resp := doJSON(t, app, http.MethodGet, "/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}
