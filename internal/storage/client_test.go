package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAPIClient_CreateSignedURL(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{
			"signedURL": "/object/sign/activos/img.png?token=abc",
		})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "service-key")
	url, err := c.CreateSignedURL(context.Background(), "activos", "img.png", 15*time.Minute)
	if err != nil {
		t.Fatalf("CreateSignedURL error = %v", err)
	}

	if gotPath != "/storage/v1/object/sign/activos/img.png" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer service-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotBody["expiresIn"] != 900 {
		t.Errorf("expiresIn = %d, want 900", gotBody["expiresIn"])
	}
	want := srv.URL + "/storage/v1/object/sign/activos/img.png?token=abc"
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}

func TestAPIClient_CreateSignedURL_Missing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "k")
	if _, err := c.CreateSignedURL(context.Background(), "activos", "perdido.png", time.Minute); err == nil {
		t.Error("expected error for missing object")
	}
}

func TestAPIClient_ObjectExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		if strings.HasSuffix(r.URL.Path, "/existe.png") {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "k")
	ctx := context.Background()

	if !c.ObjectExists(ctx, "activos", "existe.png") {
		t.Error("ObjectExists(existing) = false")
	}
	if c.ObjectExists(ctx, "activos", "perdido.png") {
		t.Error("ObjectExists(missing) = true")
	}
}

func TestAPIClient_URLConstruction(t *testing.T) {
	c := NewAPIClient("https://proj.supabase.co/", "k")

	if got := c.PublicURL("activos", "a/b.png"); got != "https://proj.supabase.co/storage/v1/object/public/activos/a/b.png" {
		t.Errorf("PublicURL = %q", got)
	}

	want := "https://proj.supabase.co/storage/v1/render/image/public/activos/a/b.png?width=200&quality=60&resize=contain"
	if got := c.TransformedPublicURL("activos", "a/b.png", 200, 60); got != want {
		t.Errorf("TransformedPublicURL = %q", got)
	}
}

func TestAPIClient_Upload(t *testing.T) {
	var gotUpsert, gotContentType, gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUpsert = r.Header.Get("x-upsert")
		gotContentType = r.Header.Get("Content-Type")
		b := make([]byte, 16)
		n, _ := r.Body.Read(b)
		gotBody = string(b[:n])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "k")
	err := c.Upload(context.Background(), "activos", "img.png", "image/png", strings.NewReader("PNGDATA"))
	if err != nil {
		t.Fatalf("Upload error = %v", err)
	}
	if gotUpsert != "true" || gotContentType != "image/png" || gotBody != "PNGDATA" {
		t.Errorf("upsert=%q contentType=%q body=%q", gotUpsert, gotContentType, gotBody)
	}
}
