package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/auth"
	"github.com/aaronzipp/escape-room-live/internal/catalog"
	"github.com/aaronzipp/escape-room-live/internal/game"
	"github.com/aaronzipp/escape-room-live/internal/leaderboard"
	"github.com/aaronzipp/escape-room-live/internal/realtime"
	"github.com/aaronzipp/escape-room-live/internal/store"
)

const (
	testToken  = "123456:TEST-TOKEN"
	testSecret = "chat-secret"
)

type testEnv struct {
	srv   *httptest.Server
	ctx   *Context
	store *store.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemory()
	cat := catalog.Demo()
	reg := realtime.NewRegistry()
	lb, err := leaderboard.Open(filepath.Join(t.TempDir(), "leaderboard.db"))
	if err != nil {
		t.Fatalf("open leaderboard: %v", err)
	}
	t.Cleanup(func() { _ = lb.Close() })
	ctx := &Context{
		Store:      st,
		Gate:       auth.NewGate(st, auth.NewVerifier(testToken, auth.DefaultMaxAge), time.Hour),
		Manager:    game.NewManager(st, cat, reg, lb, time.Hour),
		Engine:     game.NewEngine(st, cat, reg, time.Hour),
		Registry:   reg,
		Upgrader:   NewUpgrader(),
		PublicURL:  "https://escape.example",
		ChatSecret: testSecret,
		Keepalive:  time.Hour,
	}
	mux := http.NewServeMux()
	ctx.Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, ctx: ctx, store: st}
}

func initDataFor(userID int64, name string) string {
	return auth.SignUser(testToken, userID, name, time.Now())
}

// do sends a request and decodes a JSON response into out when non-nil.
func (e *testEnv) do(t *testing.T, method, path string, headers map[string]string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func chatHeaders() map[string]string {
	return map[string]string{chatSecretHeader: testSecret}
}

// createGame runs the chat registration flow with Dana (1) and Avi (2).
func (e *testEnv) createGame(t *testing.T, chatID string) string {
	t.Helper()
	if code := e.do(t, http.MethodPost, "/api/chats/"+chatID+"/registration", chatHeaders(), map[string]string{"host_id": "1"}, nil); code != http.StatusOK {
		t.Fatalf("registration status %d", code)
	}
	for _, p := range []addPlayerRequest{{PlayerID: "1", Name: "Dana"}, {PlayerID: "2", Name: "Avi"}} {
		if code := e.do(t, http.MethodPost, "/api/chats/"+chatID+"/players", chatHeaders(), p, nil); code != http.StatusOK {
			t.Fatalf("add player status %d", code)
		}
	}
	var ready gameReadyResponse
	if code := e.do(t, http.MethodPost, "/api/chats/"+chatID+"/finish", chatHeaders(), nil, &ready); code != http.StatusOK {
		t.Fatalf("finish status %d", code)
	}
	return ready.GameID
}

func waitForSubscribers(t *testing.T, reg *realtime.Registry, gameID string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for reg.Count(gameID) < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers for %s, have %d", n, gameID, reg.Count(gameID))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	var body map[string]string
	if code := env.do(t, http.MethodGet, "/health", nil, nil, &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "ok" || body["store"] != "memory" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestChatFlow(t *testing.T) {
	env := newTestEnv(t)

	if code := env.do(t, http.MethodPost, "/api/chats/77/registration", nil, nil, nil); code != http.StatusForbidden {
		t.Fatalf("expected 403 without secret, got %d", code)
	}

	_ = env.do(t, http.MethodPost, "/api/chats/77/registration", chatHeaders(), nil, nil)
	var added addPlayerResponse
	env.do(t, http.MethodPost, "/api/chats/77/players", chatHeaders(), addPlayerRequest{PlayerID: "1", Name: "Dana"}, &added)
	if !added.Added {
		t.Fatal("expected first add to report added")
	}
	env.do(t, http.MethodPost, "/api/chats/77/players", chatHeaders(), addPlayerRequest{PlayerID: "1", Name: "Dana"}, &added)
	if added.Added || len(added.Players) != 1 {
		t.Fatalf("expected idempotent add, got %+v", added)
	}

	var ready gameReadyResponse
	if code := env.do(t, http.MethodPost, "/api/chats/77/finish", chatHeaders(), nil, &ready); code != http.StatusOK {
		t.Fatalf("finish status %d", code)
	}
	if ready.GameID == "" || ready.JoinURL != "https://escape.example/game?game_id="+url.QueryEscape(ready.GameID) {
		t.Fatalf("unexpected ready body: %+v", ready)
	}

	var errBody errorBody
	if code := env.do(t, http.MethodPost, "/api/chats/77/players", chatHeaders(), addPlayerRequest{PlayerID: "2", Name: "Avi"}, &errBody); code != http.StatusConflict {
		t.Fatalf("expected 409 after finish, got %d", code)
	}
	if errBody.Code != "CONFLICT" || errBody.Detail == "" {
		t.Fatalf("unexpected error body: %+v", errBody)
	}

	if code := env.do(t, http.MethodDelete, "/api/chats/77/game", chatHeaders(), nil, nil); code != http.StatusOK {
		t.Fatalf("end status %d", code)
	}
	if code := env.do(t, http.MethodGet, "/api/games/"+ready.GameID, nil, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected ended game gone, got %d", code)
	}
	if code := env.do(t, http.MethodPost, "/api/chats/abc/finish", chatHeaders(), nil, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad chat id, got %d", code)
	}
}

func TestGameStateAccess(t *testing.T) {
	env := newTestEnv(t)
	gameID := env.createGame(t, "5")

	var state map[string]any
	if code := env.do(t, http.MethodGet, "/api/games/"+gameID, nil, nil, &state); code != http.StatusOK {
		t.Fatalf("anonymous state: %d", code)
	}
	if players := state["players"].(map[string]any); len(players) != 2 {
		t.Fatalf("expected roster untouched, got %v", players)
	}
	if state["room_name"] != "Server Room" {
		t.Fatalf("unexpected room name %v", state["room_name"])
	}

	var errBody errorBody
	if code := env.do(t, http.MethodGet, "/api/games/missing", nil, nil, &errBody); code != http.StatusNotFound || errBody.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %d %+v", code, errBody)
	}

	bad := map[string]string{initDataHeader: "user=%7B%7D&auth_date=1&hash=00"}
	if code := env.do(t, http.MethodGet, "/api/games/"+gameID, bad, nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid credential, got %d", code)
	}

	late := map[string]string{initDataHeader: initDataFor(3, "Noa")}
	if code := env.do(t, http.MethodGet, "/api/games/"+gameID, late, nil, &state); code != http.StatusOK {
		t.Fatalf("late join: %d", code)
	}
	if players := state["players"].(map[string]any); players["3"] != "Noa" {
		t.Fatalf("expected late join on roster, got %v", players)
	}
}

func TestActionEndpoint(t *testing.T) {
	env := newTestEnv(t)
	gameID := env.createGame(t, "5")
	path := "/api/games/" + gameID + "/action"

	var errBody errorBody
	if code := env.do(t, http.MethodPost, path, nil, actionRequest{ItemID: "carpet", Answer: "x"}, &errBody); code != http.StatusBadRequest {
		t.Fatalf("examine: expected 400, got %d", code)
	}

	var res actionResponse
	env.do(t, http.MethodPost, path, nil, actionRequest{ItemID: "safe_1", Answer: "nope"}, &res)
	if res.Correct || !res.OK {
		t.Fatalf("wrong answer: %+v", res)
	}

	if code := env.do(t, http.MethodPost, path, nil, actionRequest{ItemID: "board_servers", Answer: "reboot"}, &errBody); code != http.StatusBadRequest {
		t.Fatalf("blocked: expected 400, got %d", code)
	}
	if errBody.Detail != "Set the clock to open the control panel." {
		t.Fatalf("unexpected block detail %q", errBody.Detail)
	}

	env.do(t, http.MethodPost, path, nil, actionRequest{ItemID: "safe_1", Answer: " Key ", SolverName: "Dana"}, &res)
	if !res.Correct || res.GameID != gameID {
		t.Fatalf("correct answer: %+v", res)
	}

	if code := env.do(t, http.MethodPost, path, nil, actionRequest{}, nil); code != http.StatusBadRequest {
		t.Fatalf("missing item: expected 400, got %d", code)
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	gameID := env.createGame(t, "5")
	base := "/api/games/" + gameID

	var first, second map[string]string
	env.do(t, http.MethodPost, base+"/start", nil, nil, &first)
	env.do(t, http.MethodPost, base+"/start", nil, nil, &second)
	if first["started_at"] == "" || first["started_at"] != second["started_at"] {
		t.Fatalf("expected stable start time, got %q then %q", first["started_at"], second["started_at"])
	}

	if code := env.do(t, http.MethodPost, base+"/door_opened", nil, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("door before solving: expected 400, got %d", code)
	}
	for _, req := range []actionRequest{
		{ItemID: "safe_1", Answer: "key"},
		{ItemID: "clock_1", Answer: "09:15"},
		{ItemID: "board_servers", Answer: "reboot"},
	} {
		env.do(t, http.MethodPost, base+"/action", nil, req, nil)
	}
	if code := env.do(t, http.MethodPost, base+"/door_opened", nil, nil, nil); code != http.StatusOK {
		t.Fatalf("door after solving: expected 200, got %d", code)
	}
	var state map[string]any
	env.do(t, http.MethodGet, base, nil, nil, &state)
	if state["door_opened"] != true {
		t.Fatalf("expected door_opened in state, got %v", state["door_opened"])
	}

	if code := env.do(t, http.MethodPost, base+"/time_up", nil, nil, nil); code != http.StatusOK {
		t.Fatalf("time up: %d", code)
	}
	if code := env.do(t, http.MethodGet, base, nil, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected game removed after time up, got %d", code)
	}
}

func TestJoinQR(t *testing.T) {
	env := newTestEnv(t)
	gameID := env.createGame(t, "5")

	resp, err := http.Get(env.srv.URL + "/api/games/" + gameID + "/qr")
	if err != nil {
		t.Fatalf("get qr: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected qr response: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if code := env.do(t, http.MethodGet, "/api/games/missing/qr", nil, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing game, got %d", code)
	}
}

func TestDecodeBodyRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	var v actionRequest
	if err := decodeBody(req, &v); err == nil {
		t.Fatal("expected decode error")
	}
}
