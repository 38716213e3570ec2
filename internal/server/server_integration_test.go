package server

import (
	"bytes"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/shape"
	"github.com/ayusman/mudra/internal/state"
	"github.com/ayusman/mudra/internal/store"
)

func TestAPI_PoseWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	registry := pose.NewEstimator()
	srv := New(Config{Store: s, Poses: registry})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Create a pose
	createBody := `{"name": "flat", "points": [{"x": 0, "y": 0}, {"x": 80, "y": 119}, {"x": 159, "y": 0}],
		"labels": [{"label": "left", "from": 0, "to": 1}, {"label": "right", "from": 2, "to": 2}]}`
	resp, err := client.Post(ts.URL+"/api/poses", "application/json", bytes.NewBufferString(createBody))
	if err != nil {
		t.Fatalf("POST /api/poses error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if created.Name != "flat" {
		t.Errorf("created name = %s, want flat", created.Name)
	}
	if len(registry.Models()) != 1 {
		t.Errorf("expected the pose to be registered, got %d models", len(registry.Models()))
	}

	// 2. List poses
	resp, _ = client.Get(ts.URL + "/api/poses")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/poses status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var listed struct {
		Poses []struct {
			ID string `json:"id"`
		} `json:"poses"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Poses) != 1 {
		t.Fatalf("len(poses) = %d, want 1", len(listed.Poses))
	}

	// 3. Delete pose
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/poses/"+created.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	// 4. Verify deleted
	resp, _ = client.Get(ts.URL + "/api/poses/" + created.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}

// waitForClients polls until hub has n clients or the deadline passes.
func waitForClients(t *testing.T, hub *ShapeHub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, hub.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestShapeHub_Broadcast(t *testing.T) {
	hub := NewShapeHub()
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/shapes"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)

	sent := &shape.Result{
		Resolved: true,
		Channel:  "left",
		Frame:    7,
		Palm:     state.PalmEstimate{Center: image.Pt(80, 50), Radius: 14},
		Pose:     pose.OpenName,
	}
	if err := hub.Publish(sent); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got shape.Result
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.Channel != "left" || got.Frame != 7 || got.Pose != pose.OpenName {
		t.Errorf("unexpected result %+v", got)
	}
	if got.Palm != sent.Palm {
		t.Errorf("palm = %+v, want %+v", got.Palm, sent.Palm)
	}

	t.Run("late joiner gets the latest result", func(t *testing.T) {
		late, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		defer late.Close()

		late.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got shape.Result
		if err := late.ReadJSON(&got); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if got.Frame != 7 {
			t.Errorf("expected frame 7, got %d", got.Frame)
		}
	})

	if hub.Latest() != sent {
		t.Error("expected Latest() to return the published result")
	}
	if hub.Published() != 1 {
		t.Errorf("expected 1 published result, got %d", hub.Published())
	}
}
