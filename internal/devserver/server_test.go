package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/five82/sommelier/internal/api"
)

type testServer struct {
	dir      *Directory
	registry *MemoryRegistry
	client   *api.Client
	url      string
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	dir := SeedDirectory(nil)
	registry := NewMemoryRegistry(nil)
	srv := NewServer(dir, registry, NewTokens("test-secret", nil), time.Minute, nil)
	httpServer := httptest.NewServer(srv.Handler())
	t.Cleanup(httpServer.Close)

	client, err := api.NewClient(httpServer.URL, "device-test")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return testServer{dir: dir, registry: registry, client: client, url: httpServer.URL}
}

func TestServer_UniqueLoginConflicts(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	first, err := ts.client.Login(ctx, 1, true)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if first.User.Name != "Marco" {
		t.Fatalf("user = %+v, want Marco", first.User)
	}

	_, err = ts.client.Login(ctx, 1, true)
	if !api.IsStatus(err, http.StatusConflict) {
		t.Fatalf("second unique login err = %v, want 409", err)
	}

	// Without the uniqueness flag a second device may join.
	if _, err := ts.client.Login(ctx, 1, false); err != nil {
		t.Fatalf("non-unique login: %v", err)
	}
	live, _ := ts.registry.Live(ctx, 1)
	if live != 2 {
		t.Fatalf("live sessions = %d, want 2", live)
	}
}

func TestServer_LoginUnknownUser(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.client.Login(context.Background(), 99, false)
	if !api.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestServer_HeartbeatAfterForceDisconnect(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	resp, err := ts.client.Login(ctx, 3, true)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := ts.client.Heartbeat(ctx, 3, resp.SessionID); err != nil {
		t.Fatalf("heartbeat on live session: %v", err)
	}

	if err := ts.client.Logout(ctx, 3, ""); err != nil {
		t.Fatalf("force disconnect: %v", err)
	}

	err = ts.client.Heartbeat(ctx, 3, resp.SessionID)
	if !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("heartbeat err = %v, want 401", err)
	}

	// The slot is free again for a unique login.
	if _, err := ts.client.Login(ctx, 3, true); err != nil {
		t.Fatalf("login after disconnect: %v", err)
	}
}

func TestServer_HeartbeatRejectsForeignToken(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	resp, err := ts.client.Login(ctx, 3, false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := ts.client.Heartbeat(ctx, 4, resp.SessionID); !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("heartbeat with another user's token err = %v, want 401", err)
	}
	if err := ts.client.Heartbeat(ctx, 3, "garbage"); !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("heartbeat with garbage err = %v, want 401", err)
	}
}

func TestServer_HeartbeatAfterUserDeleted(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	resp, err := ts.client.Login(ctx, 5, false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.url+"/users/5", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete user: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", res.StatusCode)
	}

	err = ts.client.Heartbeat(ctx, 5, resp.SessionID)
	if !api.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("heartbeat err = %v, want 404", err)
	}

	users, err := ts.client.FetchUsers(ctx)
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	for _, u := range users {
		if u.ID == 5 {
			t.Fatalf("deleted user still listed: %+v", users)
		}
	}
}

func TestServer_LogoutClosesOnlyOwnSession(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	a, _ := ts.client.Login(ctx, 2, false)
	b, _ := ts.client.Login(ctx, 2, false)

	if err := ts.client.Logout(ctx, 2, a.SessionID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := ts.client.Heartbeat(ctx, 2, a.SessionID); !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("closed session heartbeat err = %v, want 401", err)
	}
	if err := ts.client.Heartbeat(ctx, 2, b.SessionID); err != nil {
		t.Fatalf("other session heartbeat: %v", err)
	}
}

func TestServer_PagellaRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	empty, err := ts.client.FetchPagella(ctx, 1)
	if err != nil {
		t.Fatalf("FetchPagella: %v", err)
	}
	if empty.Content != "" || !empty.ParsedUpdatedAt().IsZero() {
		t.Fatalf("fresh pagella = %+v, want empty with no timestamp", empty)
	}

	first, err := ts.client.SavePagella(ctx, 1, "Barolo: tar and roses", 1)
	if err != nil {
		t.Fatalf("SavePagella: %v", err)
	}
	second, err := ts.client.SavePagella(ctx, 1, "Barolo: tar and roses, long finish", 2)
	if err != nil {
		t.Fatalf("SavePagella: %v", err)
	}
	if !second.After(first) {
		t.Fatalf("timestamps not increasing: %v then %v", first, second)
	}

	got, err := ts.client.FetchPagella(ctx, 1)
	if err != nil {
		t.Fatalf("FetchPagella: %v", err)
	}
	if got.Content != "Barolo: tar and roses, long finish" {
		t.Fatalf("content = %q", got.Content)
	}
	if !got.ParsedUpdatedAt().Equal(second) {
		t.Fatalf("updatedAt = %v, want %v", got.ParsedUpdatedAt(), second)
	}

	other, err := ts.client.FetchPagella(ctx, 2)
	if err != nil {
		t.Fatalf("FetchPagella event 2: %v", err)
	}
	if other.Content != "" {
		t.Fatalf("event 2 content = %q, want empty", other.Content)
	}
}

func TestServer_PagellaUnknownEvent(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	if _, err := ts.client.FetchPagella(ctx, 42); !api.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("FetchPagella err = %v, want 404", err)
	}
	if _, err := ts.client.SavePagella(ctx, 42, "x", 1); !api.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("SavePagella err = %v, want 404", err)
	}
	if _, err := ts.client.SavePagella(ctx, 1, "x", 99); !api.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("SavePagella unknown user err = %v, want 400", err)
	}
}

func TestServer_DirectoryEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	events, err := ts.client.FetchEvents(ctx)
	if err != nil || len(events) != 2 {
		t.Fatalf("FetchEvents = %v, %v", events, err)
	}
	wines, err := ts.client.FetchWines(ctx, 2)
	if err != nil {
		t.Fatalf("FetchWines: %v", err)
	}
	if len(wines) != 2 || wines[0].Producer != "Benanti" {
		t.Fatalf("wines = %+v", wines)
	}
	if _, err := ts.client.FetchWines(ctx, 9); !api.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("FetchWines err = %v, want 404", err)
	}
}

func TestServer_EchoesRequestID(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.url+"/users", nil)
	req.Header.Set(api.RequestIDHeader, "req-123")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /users: %v", err)
	}
	_ = res.Body.Close()
	if got := res.Header.Get(api.RequestIDHeader); got != "req-123" {
		t.Fatalf("request id = %q, want req-123", got)
	}

	res, err = http.Get(ts.url + "/users/abc/login")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", res.StatusCode)
	}

	res, err = http.Post(ts.url+"/users/abc/login", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
}
