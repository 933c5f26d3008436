package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz_console/internal/config"
	"quiz_console/internal/model"
)

func TestEndpointRejectedOnErrorStatusWithSuccessFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "duplicate"})
	}))
	defer srv.Close()

	client := NewBackendClient(config.BackendConfig{BaseURL: srv.URL + "/", TimeoutSeconds: 1}, srv.Client())
	ep := NewEndpoint[model.Category](client, "category", "/category", "")

	err := ep.Update(context.Background(), "1", model.CategoryPayload{NameEN: "a", NameVI: "b"})
	var re *BackendRejectedError
	if !errors.As(err, &re) || re.Status != http.StatusBadRequest {
		t.Fatalf("Update() = %v", err)
	}
}

func TestEndpointTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewBackendClient(config.BackendConfig{BaseURL: srv.URL, TimeoutSeconds: 1}, srv.Client())
	ep := NewEndpoint[model.Category](client, "category", "category", "")

	start := time.Now()
	_, err := ep.List(context.Background(), "")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("List() = %v, want TransportError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("timeout not applied")
	}
}

func TestEndpointCreateReturnsEntity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/question-set" || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Content-Type"))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": model.QuestionSet{ID: "9", NameEN: "x"}})
	}))
	defer srv.Close()

	client := NewBackendClient(config.BackendConfig{BaseURL: srv.URL, TimeoutSeconds: 1}, srv.Client())
	ep := NewEndpoint[model.QuestionSet](client, "question_set", "question-set", "")

	created, err := ep.Create(context.Background(), model.QuestionSetPayload{NameEN: "x", NameVI: "y"})
	if err != nil || created == nil || created.ID != "9" {
		t.Fatalf("Create() = %v, %v", created, err)
	}
}
