package server

import (
	"go.uber.org/zap"

	"github.com/crystal-mush/rpkit/pkg/events"
)

// eventLog records every bus event at debug level.
type eventLog struct {
	logger *zap.Logger
}

func (l eventLog) Receive(ev events.Event) {
	l.logger.Debug("event",
		zap.Stringer("type", ev.Type),
		zap.Int("source", int(ev.Source)),
		zap.Int("room", int(ev.Room)),
		zap.Int("player", int(ev.Player)),
		zap.String("language", ev.Language),
	)
}

func (eventLog) Closed() bool { return false }
