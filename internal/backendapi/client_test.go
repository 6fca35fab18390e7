package backendapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	apierrors "alert-desk/pkg/errors"

	"github.com/rs/zerolog"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(func() string { return srv.URL }, zerolog.Nop())
}

func TestAcknowledge(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	if err := c.Acknowledge(context.Background(), "a1"); err != nil {
		t.Fatalf("ack failed: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/alerts/a1/ack/" {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotPath)
	}
}

func TestAcknowledgeBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "unknown alert"})
	}))
	defer srv.Close()

	err := newTestClient(srv).Acknowledge(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error for unsuccessful ack")
	}
	if !apierrors.IsKind(err, apierrors.KindAdminCall) {
		t.Fatalf("expected admin-call fault, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown alert") {
		t.Fatalf("expected backend error text, got %v", err)
	}
}

func TestCSRFTokenRidesMutatingCalls(t *testing.T) {
	var headers []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/settings/" {
			// Simulate the backend session handing out the CSRF cookie.
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok123", Path: "/"})
			json.NewEncoder(w).Encode(map[string]any{})
			return
		}
		headers = append(headers, r.Header.Get("X-CSRFToken"))
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	c := newTestClient(srv)

	// First a GET to pick up the cookie, then a mutating call.
	if _, err := c.FetchSettings(context.Background()); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if err := c.Acknowledge(context.Background(), "a1"); err != nil {
		t.Fatalf("ack failed: %v", err)
	}

	if len(headers) != 1 || headers[0] != "tok123" {
		t.Fatalf("expected CSRF header on mutating call, got %v", headers)
	}
}

func TestUploadSound(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"sound":   map[string]any{"id": 7, "name": "chime", "url": "/media/chime.wav"},
		})
	}))
	defer srv.Close()

	data := []byte{1, 2, 3, 4}
	sound, err := newTestClient(srv).UploadSound(context.Background(), "chime.wav", "chime", data)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if sound.ID != 7 || sound.Name != "chime" {
		t.Fatalf("unexpected sound: %+v", sound)
	}

	file, _ := body["file"].(string)
	prefix := "data:audio/wav;base64,"
	if !strings.HasPrefix(file, prefix) {
		t.Fatalf("expected data-uri payload, got %q", file)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(file, prefix))
	if err != nil || string(decoded) != string(data) {
		t.Fatalf("payload round-trip failed: %v", err)
	}
	if body["name"] != "chime.wav" || body["custom_name"] != "chime" {
		t.Fatalf("unexpected body fields: %+v", body)
	}
}

func TestDeleteSoundNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	err := newTestClient(srv).DeleteSound(context.Background(), 99)
	if err == nil {
		t.Fatal("expected error for missing sound")
	}
	if !apierrors.IsKind(err, apierrors.KindNotFound) {
		t.Fatalf("expected not-found fault, got %v", err)
	}
}

func TestListAlertsQuery(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{
			"alerts": []map[string]any{{"id": "a1", "status": "firing"}},
		})
	}))
	defer srv.Close()

	alerts, err := newTestClient(srv).ListAlerts(context.Background(), "firing", "critical", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].ID != "a1" {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
	if gotQuery.Get("status") != "firing" || gotQuery.Get("severity") != "critical" || gotQuery.Get("limit") != "10" {
		t.Fatalf("unexpected query: %v", gotQuery)
	}
}
