package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_FetchTrips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loads" {
			t.Errorf("path = %q, want /loads", r.URL.Path)
		}
		if got := r.URL.Query().Get("owner"); got != "uid-1" {
			t.Errorf("owner = %q, want uid-1", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]Document{
			{"id": "a", "totalMiles": 350.0},
			{"id": "b", "miles": "420"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1")
	docs, err := c.FetchTrips(context.Background(), "uid-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("len(docs) = %d, want 2", len(docs))
	}
	if docs[0].ID() != "a" {
		t.Errorf("docs[0].ID() = %q, want a", docs[0].ID())
	}
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.FetchExpenses(context.Background(), "uid-1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestClient_Unavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "")
	_, err := c.FetchTrips(context.Background(), "uid-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestClient_PutTripSetsOwner(t *testing.T) {
	var received Document
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/loads/trip-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.PutTrip(context.Background(), "uid-1", "trip-1", Document{"totalCharge": 500})
	if err != nil {
		t.Fatal(err)
	}
	if received["owner"] != "uid-1" {
		t.Errorf("owner = %v, want uid-1", received["owner"])
	}
}

func TestNewClient_EmptyURL(t *testing.T) {
	if c := NewClient("  ", "key"); c != nil {
		t.Error("NewClient with blank URL should return nil")
	}
}
