package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/pixvault/pixvault/internal/model"
)

// queue is the slice of the tube queue the publisher needs.
type queue interface {
	Publish(tube string, body []byte) error
}

// Publisher serializes domain events and hands them to the queue,
// fire-and-forget. Delivery is best-effort: queue failures are logged, not
// retried and never surfaced to the caller.
type Publisher struct {
	queue queue
}

func New(q queue) *Publisher {
	return &Publisher{queue: q}
}

// Publish routes the event to its tube via the static event-name table and
// writes it asynchronously. An unknown event name or unserializable event
// is a programming error and is returned; everything past that point is
// log-only.
func (p *Publisher) Publish(event model.Event) error {
	tube, ok := model.EventTubes[event.EventName()]
	if !ok {
		return fmt.Errorf("no tube registered for event %q", event.EventName())
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %q: %w", event.EventName(), err)
	}

	go func() {
		if err := p.queue.Publish(tube, body); err != nil {
			zlog.Logger.Err(err).
				Str("tube", tube).
				Msg("failed to publish event")
			return
		}

		zlog.Logger.Info().
			Str("tube", tube).
			Str("event", event.EventName()).
			Msg("event published")
	}()

	return nil
}
