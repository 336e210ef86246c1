package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method: got %s, want GET", r.Method)
		}
		json.NewEncoder(w).Encode(map[string]any{"ready": true})
	}))
	defer srv.Close()

	var out struct {
		Ready bool `json:"ready"`
	}
	if err := GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !out.Ready {
		t.Error("ready not decoded")
	}
}

func TestPostJSON_SendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: got %q", ct)
		}
		data, _ := io.ReadAll(r.Body)
		if string(data) != `{"level":70}` {
			t.Errorf("body: got %s", data)
		}
		json.NewEncoder(w).Encode(map[string]int{"volume": 70})
	}))
	defer srv.Close()

	var out struct {
		Volume int `json:"volume"`
	}
	err := PostJSON(context.Background(), srv.URL, map[string]int{"level": 70}, &out)
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if out.Volume != 70 {
		t.Errorf("volume: got %d, want 70", out.Volume)
	}
}

func TestPostJSON_NilBodyAndOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"storage": "ok"})
	}))
	defer srv.Close()

	if err := PostJSON(context.Background(), srv.URL, nil, nil); err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "device busy"})
	}))
	defer srv.Close()

	err := PostJSON(context.Background(), srv.URL, nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error: got %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("status: got %d, want 409", apiErr.StatusCode)
	}
	if apiErr.Message != "device busy" {
		t.Errorf("message: got %q, want device busy", apiErr.Message)
	}
}
