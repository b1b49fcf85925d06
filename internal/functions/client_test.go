package functions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_CreateUser(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody CreateUserRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(CreateUserResponse{UserID: "u-123"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	out, err := c.CreateUser(context.Background(), "tok", CreateUserRequest{
		Email:    "ana@invenlab.es",
		Password: "secreto",
		Role:     "admin",
	})
	if err != nil {
		t.Fatalf("CreateUser error = %v", err)
	}

	if gotPath != "/functions/v1/create-user" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotBody.Email != "ana@invenlab.es" || gotBody.Role != "admin" {
		t.Errorf("body = %+v", gotBody)
	}
	if out.UserID != "u-123" {
		t.Errorf("UserID = %q", out.UserID)
	}
}

func TestClient_ErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "no autorizado"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.DeleteUser(context.Background(), "tok", "u-123")
	if err == nil {
		t.Fatal("expected error")
	}
	want := "delete-user: status 403: no autorizado"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestClient_ErrorWithoutPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.SyncCredentials(context.Background(), "", SyncCredentialsRequest{UserID: "u-1"})
	if err == nil || err.Error() != "sync-user-credentials: status 500" {
		t.Errorf("error = %v", err)
	}
}

func TestClient_LoginPrecheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PrecheckResponse{Allowed: false, RetryAfterSeconds: 30})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	out, err := c.LoginPrecheck(context.Background(), "tok", PrecheckRequest{Email: "ana@invenlab.es"})
	if err != nil {
		t.Fatalf("LoginPrecheck error = %v", err)
	}
	if out.Allowed || out.RetryAfterSeconds != 30 {
		t.Errorf("response = %+v", out)
	}
}

func TestClient_NoBearerHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(PrecheckResponse{Allowed: true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.LoginPrecheck(context.Background(), "", PrecheckRequest{Email: "x@y.es"}); err != nil {
		t.Fatalf("LoginPrecheck error = %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want unset", gotAuth)
	}
}
