package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/groundsegment/sattrack/internal/logging"
	"github.com/groundsegment/sattrack/tracker"
)

const (
	// liveFrameBuffer bounds the per-connection queue. A client that
	// falls further behind loses frames rather than stalling the
	// tracker's notify loop.
	liveFrameBuffer = 8

	liveWriteTimeout = 10 * time.Second
)

// handleLive upgrades to a WebSocket and streams tracker snapshots,
// one JSON frame per tick, until the client disconnects.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.requestLogger(r)

	if s.trk == nil {
		writeError(ctx, w, log, fmt.Errorf("%w: live tracking disabled", ErrNotConfigured))
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the handshake error.
		log.Debug(ctx, "websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()
	log.Info(ctx, "live stream opened", logging.String("remote", conn.RemoteAddr().String()))

	frames := make(chan tracker.Snapshot, liveFrameBuffer)
	unsubscribe := s.trk.Subscribe(func(snap tracker.Snapshot) {
		select {
		case frames <- snap:
		default:
		}
	})
	defer unsubscribe()

	// The read loop exists only to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// New subscribers get the current picture without waiting a tick.
	if snap := s.trk.Snapshot(); !snap.At.IsZero() {
		if err := writeFrame(conn, snap); err != nil {
			log.Debug(ctx, "live stream write failed", logging.Err(err))
			return
		}
	}

	for {
		select {
		case snap := <-frames:
			if err := writeFrame(conn, snap); err != nil {
				log.Debug(ctx, "live stream write failed", logging.Err(err))
				return
			}
		case <-closed:
			log.Info(ctx, "live stream closed", logging.String("remote", conn.RemoteAddr().String()))
			return
		case <-ctx.Done():
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, snap tracker.Snapshot) error {
	if err := conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(liveFrameJSON(snap))
}
