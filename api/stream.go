/*
stream.go - Server-Sent Events bridge over the store's change feed

PURPOSE:
  The presentation layer re-renders from pushed snapshots instead of
  polling. This handler subscribes to Store.Watch for the lifetime of the
  request and forwards each insert/update as an SSE message:

    event: requisition | purchase_order
    data:  {"type":"updated", "requisition":{...}}

  Slow or disconnected clients simply miss events and re-list on reconnect;
  the feed is a render hint, not a source of truth.

SEE ALSO:
  - procure/store.go: Watch contract
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// StreamEvents serves the live change feed as Server-Sent Events.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	events, err := h.Store.Watch(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open change feed", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		name := "requisition"
		if ev.PurchaseOrder != nil {
			name = "purchase_order"
		}

		data, err := json.Marshal(ev)
		if err != nil {
			h.Log.Warn("failed to encode feed event", zap.Error(err))
			continue
		}

		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
		flusher.Flush()
	}
}
