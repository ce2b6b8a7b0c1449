package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/groundsegment/sattrack/internal/logging"
	"github.com/groundsegment/sattrack/model"
	"github.com/groundsegment/sattrack/orbit"
	"github.com/groundsegment/sattrack/registry"
	"github.com/groundsegment/sattrack/tracker"
)

// newLiveServer runs a full server with a replaying tracker anchored
// at the fixture epoch, ticking fast enough for tests to see frames.
func newLiveServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := registry.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, sat := range []model.Satellite{
		{Name: "ISS (ZARYA)", TLELine1: issLine1, TLELine2: issLine2},
		{Name: "NOAA 15", TLELine1: noaaLine1, TLELine2: noaaLine2},
	} {
		if _, err := store.Create(ctx, sat); err != nil {
			t.Fatalf("Create %s: %v", sat.Name, err)
		}
	}

	trk := tracker.NewTracker(store, orbit.NewEngine(),
		tracker.WithInterval(20*time.Millisecond),
		tracker.WithMode(tracker.Accelerated),
		tracker.WithStartTime(issEpoch),
	)
	runCtx, cancel := context.WithCancel(context.Background())
	done := trk.Start(runCtx)
	t.Cleanup(func() {
		cancel()
		<-done
	})

	srv := NewServer(store, orbit.NewEngine(), logging.Noop(), WithTracker(trk))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func dialLive(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing %s: %v", wsURL, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLiveStreamDeliversFrames(t *testing.T) {
	ts := newLiveServer(t)
	conn := dialLive(t, ts)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var frame LiveFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("reading first frame: %v", err)
	}
	if frame.Error != "" {
		t.Fatalf("unexpected frame error %q", frame.Error)
	}
	if frame.At.IsZero() {
		t.Fatalf("expected a stamped frame")
	}
	if len(frame.Results) != 2 {
		t.Fatalf("expected 2 tracked satellites, got %d", len(frame.Results))
	}
	for _, slot := range frame.Results {
		if slot.Position == nil || slot.Error != nil {
			t.Fatalf("slot %d should carry a position, got %+v", slot.NoradID, slot)
		}
	}

	var second LiveFrame
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("reading second frame: %v", err)
	}
	if second.At.Before(frame.At) {
		t.Fatalf("frames went backwards: %v then %v", frame.At, second.At)
	}
}

func TestLiveStreamMultipleClients(t *testing.T) {
	ts := newLiveServer(t)

	first := dialLive(t, ts)
	second := dialLive(t, ts)

	for i, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var frame LiveFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("client %d: reading frame: %v", i, err)
		}
		if len(frame.Results) != 2 {
			t.Fatalf("client %d: expected 2 results, got %d", i, len(frame.Results))
		}
	}
}

func TestLiveWithoutTracker(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/live")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "unavailable" {
		t.Fatalf("expected code unavailable, got %q", code)
	}
}

func TestLiveRejectsPlainRequest(t *testing.T) {
	ts := newLiveServer(t)

	resp, err := http.Get(ts.URL + "/api/live")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without an upgrade handshake, got %d", resp.StatusCode)
	}
}
