package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/feed"
	"fintrack/internal/log"
)

type streamItem struct {
	snap feed.Snapshot[aggregate.Dashboard]
	err  error
}

// handleStream sends the dashboard as a "dashboard" event now and after
// every change, plus a comment line every heartbeat to keep proxies from
// closing the connection. Load failures become "error" events.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	ctx := r.Context()
	user := userID(r)
	logger := log.FromContext(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logger.WarnContext(ctx, "Streaming not supported", "error", err)
		return
	}

	items := make(chan streamItem)
	go func() {
		defer close(items)
		for snap, err := range s.dash.Watch(ctx, user, parseCriteria(r.URL.Query())) {
			select {
			case items <- streamItem{snap: snap, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.InfoContext(ctx, "Stream opened", log.FieldUserID, user)
	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "Stream closed", log.FieldUserID, user)
			return
		case <-heartbeat.C:
			_, err = fmt.Fprint(w, ": ping\n\n")
		case it, ok := <-items:
			if !ok {
				return
			}
			err = writeEvent(ctx, w, it)
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			logger.DebugContext(ctx, "Stream write failed", "error", err)
			return
		}
	}
}

func writeEvent(ctx context.Context, w http.ResponseWriter, it streamItem) error {
	if it.err != nil {
		log.LogError(ctx, "Dashboard stream load failed", it.err, log.OpStream, nil)
		_, err := fmt.Fprint(w, "event: error\ndata: {\"error\":\"dashboard unavailable\"}\n\n")
		return err
	}
	data, err := json.Marshal(it.snap.Value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: dashboard\ndata: %s\n\n", it.snap.Seq, data)
	return err
}
