package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anubad-lang/anubad"
	"github.com/anubad-lang/anubad/internal/history"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	engine := anubad.NewWithLogger(anubad.DefaultConfig(), anubad.NewLoggerTo(io.Discard, false))
	ts := httptest.NewServer(New(engine, opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("Expected 200 ok, got %d %q", resp.StatusCode, body)
	}
}

func postRun(t *testing.T, url string, req RunRequest) (int, RunResponse) {
	t.Helper()
	payload, _ := json.Marshal(req)
	resp, err := http.Post(url+"/run", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp.StatusCode, out
}

func TestPostRun(t *testing.T) {
	ts := newTestServer(t, Options{})

	status, out := postRun(t, ts.URL, RunRequest{ID: "a1", Source: "দেখাও(৬ * ৭)"})
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if out.ID != "a1" || out.Kind != anubad.KindOutput {
		t.Errorf("Unexpected response: %+v", out)
	}
	if out.Display != "৪২\n\n"+anubad.CompletionBanner {
		t.Errorf("Unexpected display: %q", out.Display)
	}

	_, out = postRun(t, ts.URL, RunRequest{Source: "x = 1\nprint(y)"})
	if out.Kind != anubad.KindRuntimeError || out.Line != 2 || out.ID == "" {
		t.Errorf("Expected runtime error on line 2 with generated ID, got %+v", out)
	}
}

func TestPostRunDeepNesting(t *testing.T) {
	ts := newTestServer(t, Options{})

	source := "print(" + strings.Repeat("-", 500_000) + "1)"
	status, out := postRun(t, ts.URL, RunRequest{Source: source})
	if status != http.StatusOK || out.Kind != anubad.KindSyntaxError || out.Line != 1 {
		t.Errorf("Expected syntax error on line 1, got %d %+v", status, out)
	}

	status, _ = postRun(t, ts.URL, RunRequest{Source: "print(1)"})
	if status != http.StatusOK {
		t.Errorf("Expected server to keep serving, got %d", status)
	}
}

func TestPostRunRejects(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/run")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/run", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out RunResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != http.StatusBadRequest || out.Kind != KindBadRequest {
		t.Errorf("Expected bad request, got %d %+v", resp.StatusCode, out)
	}
}

func TestWebSocketRun(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ts := newTestServer(t, Options{History: store})
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	requests := []RunRequest{
		{ID: "1", Source: "print('hi')"},
		{ID: "2", Source: "if x\n    pass"},
		{ID: "3", Source: ""},
	}
	wantKinds := []string{anubad.KindOutput, anubad.KindSyntaxError, anubad.KindEmptyInput}
	for i, req := range requests {
		if err := conn.WriteJSON(req); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		var out RunResponse
		if err := conn.ReadJSON(&out); err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if out.ID != req.ID || out.Kind != wantKinds[i] {
			t.Errorf("Request %s: expected kind %s, got %+v", req.ID, wantKinds[i], out)
		}
		if out.HistoryID == "" {
			t.Errorf("Request %s: expected a history ID", req.ID)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	var out RunResponse
	if err := conn.ReadJSON(&out); err != nil || out.Kind != KindBadRequest {
		t.Errorf("Expected bad request response, got %+v (%v)", out, err)
	}
}

func TestWebSocketOrigin(t *testing.T) {
	ts := newTestServer(t, Options{AllowedOrigins: []string{"https://allowed.example"}})
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	header := http.Header{"Origin": []string{"https://evil.example"}}
	if _, _, err := websocket.DefaultDialer.Dial(wsURL, header); err == nil {
		t.Error("Expected disallowed origin to be rejected")
	}

	header.Set("Origin", "https://allowed.example")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("Expected allowed origin to connect: %v", err)
	}
	conn.Close()
}
