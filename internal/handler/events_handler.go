package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hitoshi/dreamjournal/internal/session"
)

// defaultEventBuffer はクライアントごとのイベントバッファ数。
const defaultEventBuffer = 8

// EventSubscriber はセッションイベントの購読インターフェース。
type EventSubscriber interface {
	Subscribe(l session.Listener) *session.Subscription
}

// EventsHandler はログインユーザー自身のセッションイベントを
// Server-Sent Eventsで配信するHTTPハンドラー。
type EventsHandler struct {
	subscriber EventSubscriber
	bufferSize int
}

// NewEventsHandler はEventsHandlerを生成する。
func NewEventsHandler(subscriber EventSubscriber) *EventsHandler {
	return &EventsHandler{subscriber: subscriber, bufferSize: defaultEventBuffer}
}

// forwardsTo はイベントを接続中のクライアントへ配信するかを判定する。
// SignedOutとTokenRefreshedは対象セッション自身の接続にのみ配信し、
// 同じユーザーの別ブラウザには配信しない。
func forwardsTo(e session.Event, identity *session.Identity) bool {
	if e.UserID != identity.UserID {
		return false
	}
	switch e.Type {
	case session.SignedOut, session.TokenRefreshed:
		return e.SessionID == identity.SessionID
	}
	return true
}

// Stream はリクエストが終了するまでイベントを配信する。
// バッファが満杯の場合、そのイベントは破棄する。
// GET /auth/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	identity, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	clientID := uuid.New().String()
	events := make(chan session.Event, h.bufferSize)

	sub := h.subscriber.Subscribe(func(e session.Event) {
		if !forwardsTo(e, identity) {
			return
		}
		select {
		case events <- e:
		default:
			slog.Warn("session event dropped",
				slog.String("client_id", clientID),
				slog.String("type", string(e.Type)),
			)
		}
	})
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	slog.Debug("sse client connected",
		slog.String("client_id", clientID),
		slog.String("user_id", identity.UserID),
	)

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("sse client disconnected", slog.String("client_id", clientID))
			return
		case e := <-events:
			data, err := json.Marshal(e)
			if err != nil {
				slog.Error("failed to encode session event", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}
