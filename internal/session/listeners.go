package session

import (
	"log/slog"

	"github.com/hitoshi/dreamjournal/internal/metrics"
)

// LogListener はイベントを構造化ログに出力するリスナーを返す。
func LogListener(logger *slog.Logger) Listener {
	return func(e Event) {
		logger.Info("session event",
			slog.String("type", string(e.Type)),
			slog.String("user_id", e.UserID),
		)
	}
}

// MetricsListener はイベント種別ごとの件数を記録するリスナーを返す。
func MetricsListener(recorder metrics.SessionRecorder) Listener {
	return func(e Event) {
		recorder.RecordSessionEvent(string(e.Type))
	}
}
