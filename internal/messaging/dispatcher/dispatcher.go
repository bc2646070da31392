package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixvault/pixvault/internal/infra/beanstalk"
)

// Handler processes one raw message read from a tube.
type Handler interface {
	Handle(ctx context.Context, body []byte) error
}

// queue is the slice of the tube queue the dispatcher needs.
type queue interface {
	Read(tube string) (beanstalk.Message, bool, error)
}

// Dispatcher polls every registered tube in a fixed round-robin and submits
// each received message to a shared worker pool. The poll loop never blocks
// on handler completion, and a handler failure never requeues the message:
// the job was already deleted at read time, so delivery is at-most-once.
type Dispatcher struct {
	queue    queue
	strategy retry.Strategy
	pool     *pool.Pool

	tubes    []string
	handlers map[string]Handler
}

// New creates a Dispatcher. maxWorkers bounds the worker pool; zero leaves
// it unbounded.
func New(q queue, strategy retry.Strategy, maxWorkers int) *Dispatcher {
	p := pool.New()
	if maxWorkers > 0 {
		p = p.WithMaxGoroutines(maxWorkers)
	}

	return &Dispatcher{
		queue:    q,
		strategy: strategy,
		pool:     p,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a tube. Tubes are polled in registration
// order. Must be called before Run.
func (d *Dispatcher) Register(tube string, h Handler) {
	if _, ok := d.handlers[tube]; !ok {
		d.tubes = append(d.tubes, tube)
	}
	d.handlers[tube] = h
}

// Run polls the registered tubes until the context is canceled, then waits
// for in-flight handlers to finish. Transient read failures are retried per
// the strategy and then backed off; they never stop the loop.
func (d *Dispatcher) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer d.pool.Wait()

	zlog.Logger.Info().
		Strs("tubes", d.tubes).
		Msg("starting dispatcher")

	for {
		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("shutdown signal received, stopping dispatcher")
			return
		}

		for _, tube := range d.tubes {
			var (
				msg beanstalk.Message
				ok  bool
			)
			err := retry.Do(func() error {
				var readErr error
				msg, ok, readErr = d.queue.Read(tube)
				return readErr
			}, d.strategy)

			if err != nil {
				zlog.Logger.Err(err).
					Str("tube", tube).
					Msg("failed to read message")
				time.Sleep(500 * time.Millisecond)
				continue
			}

			if !ok {
				continue
			}

			d.dispatch(ctx, tube, msg, d.handlers[tube])
		}
	}
}

// dispatch hands the message to the worker pool and returns immediately.
// Handler errors and panics are logged here and the message dropped; this
// is the only failure boundary of the async path.
func (d *Dispatcher) dispatch(ctx context.Context, tube string, msg beanstalk.Message, h Handler) {
	d.pool.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				zlog.Logger.Error().
					Str("tube", tube).
					Interface("panic", r).
					Msg("handler panicked")
			}
		}()

		if err := h.Handle(ctx, msg.Body); err != nil {
			zlog.Logger.Err(err).
				Str("tube", tube).
				Str("message", string(msg.Body)).
				Msg("failed to handle message")
			return
		}

		zlog.Logger.Info().
			Str("tube", tube).
			Msg("message handled successfully")
	})
}
