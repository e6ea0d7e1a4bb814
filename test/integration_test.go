//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/souentd/internal/auth"
	"github.com/user/souentd/internal/chat"
	"github.com/user/souentd/internal/engine"
	"github.com/user/souentd/internal/httpapi"
	"github.com/user/souentd/internal/state"
	"github.com/user/souentd/pkg/llm/mock"
)

func newStack(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	sessions, prefs, canon, err := state.NewStores(context.Background(), state.Options{
		StorageType: "file",
		DataDir:     dir,
		SessionTTL:  time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}

	builder, err := engine.NewContextBuilder("gpt-4", 8000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.New(engine.Options{
		Provider: mock.New(),
		Builder:  builder,
		Timeout:  5 * time.Second,
	})

	gate := auth.NewGate("advisory-key", "admin-key")
	orch := chat.New(chat.Options{
		Gate:     gate,
		Sessions: sessions,
		Prefs:    prefs,
		Canon:    canon,
		Engine:   eng,
	})

	srv := httpapi.NewServer(httpapi.Options{
		Orchestrator: orch,
		Gate:         gate,
		Prefs:        prefs,
		Canon:        canon,
		Info: httpapi.SystemInfo{
			AppName:     "Souent",
			Version:     "1.0.0",
			Environment: "test",
			Provider:    "mock",
			StorageType: "file",
		},
	})

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, client *http.Client, url string, body any, apiKey string) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	return resp, decoded
}

func getJSON(t *testing.T, client *http.Client, url string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	return resp, decoded
}

func TestEndToEndConversation(t *testing.T) {
	ts := newStack(t)
	client := ts.Client()

	resp, body := postJSON(t, client, ts.URL+"/api/v1/chat/message",
		map[string]any{"message": "hello from the integration suite"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	sessionID, _ := body["session_id"].(string)
	if !strings.HasPrefix(sessionID, "session_") {
		t.Fatalf("unexpected session id %q", sessionID)
	}
	if answer, _ := body["response"].(string); !strings.Contains(answer, "hello from the integration") {
		t.Errorf("expected mock echo, got %q", answer)
	}
	meta, _ := body["metadata"].(map[string]any)
	if meta["authorization_tier"] != "basic" {
		t.Errorf("expected basic tier, got %v", meta["authorization_tier"])
	}

	// Second turn on the same session.
	resp, _ = postJSON(t, client, ts.URL+"/api/v1/chat/message",
		map[string]any{"message": "second turn", "session_id": sessionID}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second turn: expected 200, got %d", resp.StatusCode)
	}

	resp, body = getJSON(t, client, ts.URL+"/api/v1/chat/history/"+sessionID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", resp.StatusCode)
	}
	if count, _ := body["message_count"].(float64); count != 4 {
		t.Errorf("expected 4 messages after two turns, got %v", body["message_count"])
	}
}

func TestEndToEndValidationAndTiers(t *testing.T) {
	ts := newStack(t)
	client := ts.Client()

	resp, body := postJSON(t, client, ts.URL+"/api/v1/chat/message",
		map[string]any{"message": ""}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty message: expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != "validation_error" {
		t.Errorf("expected validation_error, got %v", body["error"])
	}

	resp, body = postJSON(t, client, ts.URL+"/api/v1/chat/message",
		map[string]any{"message": "tier check"}, "advisory-key")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advisory turn: expected 200, got %d", resp.StatusCode)
	}
	meta, _ := body["metadata"].(map[string]any)
	if meta["authorization_tier"] != "advisory" {
		t.Errorf("expected advisory tier, got %v", meta["authorization_tier"])
	}
}

func TestEndToEndCanonProtection(t *testing.T) {
	ts := newStack(t)
	client := ts.Client()
	update := map[string]any{"system_knowledge": map[string]any{"note": "tampered"}}

	// Unauthenticated and advisory updates are refused.
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/memory/canon", jsonBody(t, update))
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("no key: expected 403, got %d", resp.StatusCode)
	}

	_, info := getJSON(t, client, ts.URL+"/api/v1/memory/canon/info")
	if info["version"] != "1.0.0" {
		t.Errorf("canon changed after rejected update: version %v", info["version"])
	}

	// Admin succeeds.
	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/api/v1/memory/canon", jsonBody(t, update))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "admin-key")
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin update: expected 200, got %d", resp.StatusCode)
	}

	_, info = getJSON(t, client, ts.URL+"/api/v1/memory/canon/info")
	if info["version"] != "1.0.1" {
		t.Errorf("expected version 1.0.1 after update, got %v", info["version"])
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestEndToEndSessionLifecycle(t *testing.T) {
	ts := newStack(t)
	client := ts.Client()

	resp, body := postJSON(t, client, ts.URL+"/api/v1/chat/session/new", map[string]any{}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("session/new: expected 200, got %d", resp.StatusCode)
	}
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatal("missing session id")
	}

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/chat/session/"+sessionID, nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("clear attempt %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}

	resp, _ = getJSON(t, client, fmt.Sprintf("%s/api/v1/chat/history/%s", ts.URL, sessionID))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after clear, got %d", resp.StatusCode)
	}
}
