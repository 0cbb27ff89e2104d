package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	pkgerrors "github.com/alexalbu001/iguanas-jewelry-admin/pkg/errors"
)

func TestClientDecodesJSONAndSendsCredential(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/admin/ping" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "1" {
			t.Errorf("missing query parameter, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithSessionToken("tok-1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out struct {
		OK bool `json:"ok"`
	}
	query := url.Values{"q": []string{"1"}}
	if err := client.Get(context.Background(), "/admin/ping", query, &out); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !out.OK {
		t.Fatal("expected decoded body")
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
}

func TestClientPostSendsJSONBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	body := map[string]string{"filename": "ring.jpg"}
	if err := client.Post(context.Background(), "admin/upload", body, nil); err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
}

func TestClientNon2xxBecomesDependencyError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "kaput", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = client.Delete(context.Background(), "/admin/thing")
	if err == nil {
		t.Fatal("expected error for 500")
	}
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code, got %s", pkgerrors.CodeOf(err))
	}
}

func TestClient401FiresSessionClearHookOnce(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cleared := 0
	client, err := New(srv.URL, WithUnauthorizedHook(func() { cleared++ }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = client.Get(context.Background(), "/admin/images", nil, nil)
	if err == nil {
		t.Fatal("expected error for 401")
	}
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %s", pkgerrors.CodeOf(err))
	}
	if cleared != 1 {
		t.Fatalf("expected hook fired once, got %d", cleared)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := New("   "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
