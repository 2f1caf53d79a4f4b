package event

import (
	"context"

	log "github.com/sirupsen/logrus"

	"beerstock/pkg/common/domain"
)

// LogDispatcher writes events to the log. Used when no broker is configured.
type LogDispatcher struct {
	logger log.FieldLogger
}

func NewLogDispatcher(logger log.FieldLogger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(_ context.Context, event domain.Event) error {
	d.logger.WithFields(log.Fields{
		"event":     event.Type(),
		"aggregate": event.AggregateID(),
		"payload":   event,
	}).Info("event dispatched")
	return nil
}
