package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julianshen/gitnote/internal/chat"
)

const snapshotBuffer = 256

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// streamTurn runs one chat turn and relays every published snapshot as an
// SSE "snapshot" event, ending with "done" or "error". A client that goes
// away stops receiving events; the turn itself runs to completion.
func (s *Server) streamTurn(w http.ResponseWriter, r *http.Request, sess *chat.Session, text string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Snapshots are cumulative, so dropping one under backpressure loses
	// nothing the next one does not carry.
	snaps := make(chan chat.Snapshot, snapshotBuffer)
	unsubscribe := sess.Subscribe(func(snap chat.Snapshot) {
		select {
		case snaps <- snap:
		default:
		}
	})
	defer unsubscribe()

	done := make(chan error, 1)
	go func() {
		done <- sess.Send(context.WithoutCancel(r.Context()), text)
	}()

	for {
		select {
		case snap := <-snaps:
			if err := writeEvent(w, flusher, "snapshot", newSnapshotResponse(snap)); err != nil {
				return
			}
		case err := <-done:
			unsubscribe()
			if !flushPending(w, flusher, snaps) {
				return
			}
			if err != nil {
				_ = writeEvent(w, flusher, "error", map[string]string{"error": err.Error()})
				return
			}
			_ = writeEvent(w, flusher, "done", newSnapshotResponse(sess.Snapshot()))
			return
		case <-r.Context().Done():
			return
		}
	}
}

// flushPending writes any snapshots still queued after the turn settled.
func flushPending(w http.ResponseWriter, flusher http.Flusher, snaps <-chan chat.Snapshot) bool {
	for {
		select {
		case snap := <-snaps:
			if err := writeEvent(w, flusher, "snapshot", newSnapshotResponse(snap)); err != nil {
				return false
			}
		default:
			return true
		}
	}
}
