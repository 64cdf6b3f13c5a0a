package port

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/errmap"
	"github.com/aelexs/timekeeper/pkg/protocol"
)

// events streams frames as server-sent events until the client goes away
// or the service closes the feed.
func (h *Handler) events(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		errmap.WriteStatus(w, http.StatusInternalServerError, "INTERNAL", "streaming unsupported")
		return
	}

	sub := h.svc.Subscribe()
	defer sub.Cancel()

	logger := h.logger.With(slog.String("subscriber_id", sub.ID))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ack, err := protocol.NewFrame(protocol.FrameTypeConnectionAck, protocol.ConnectionAck{
		SubscriberID:        sub.ID,
		HeartbeatIntervalMs: h.heartbeat.Milliseconds(),
	})
	if err != nil {
		logger.Error("build connection ack", slog.String("error", err.Error()))
		return
	}
	if err := writeEvent(w, ack); err != nil {
		return
	}
	flusher.Flush()

	logger.Debug("event stream opened")
	defer logger.Debug("event stream closed")

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case f, ok := <-sub.Frames:
			if !ok {
				return
			}
			if err := writeEvent(w, f); err != nil {
				return
			}
			flusher.Flush()

		case <-heartbeat.C:
			hb, err := protocol.NewFrame(protocol.FrameTypeHeartbeat, protocol.Heartbeat{
				Timestamp: domain.NowUTCMillis(h.clock),
			})
			if err != nil {
				continue
			}
			if err := writeEvent(w, hb); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent writes one frame in text/event-stream framing. The event name
// is the frame type and the data line is the whole frame.
func writeEvent(w http.ResponseWriter, f *protocol.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.Type, data)
	return err
}
