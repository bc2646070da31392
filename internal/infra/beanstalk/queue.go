// Package beanstalk wraps a beanstalkd connection as the named-tube job
// queue the messaging layer builds on: fire-and-forget puts and
// reserve-then-delete reads with a bounded blocking timeout.
package beanstalk

import (
	"errors"
	"fmt"
	"sync"
	"time"

	bs "github.com/beanstalkd/go-beanstalk"
)

// Job parameters for puts. TTR is generous because a reserved job is
// deleted immediately on read; it only bounds the window between reserve
// and delete.
const (
	putPriority = 1
	putDelay    = 0
	putTTR      = 5 * time.Second
)

// Message is one opaque UTF-8 payload read from a tube.
type Message struct {
	Body []byte
}

// Queue is a beanstalkd-backed tube queue. The underlying connection is not
// safe for concurrent use, so all operations serialize on a mutex; reads
// block the connection for at most the reserve timeout.
type Queue struct {
	mu             sync.Mutex
	conn           *bs.Conn
	reserveTimeout time.Duration
}

// Dial connects to the beanstalkd server. reserveTimeout bounds how long a
// Read blocks when a tube is empty.
func Dial(addr string, reserveTimeout time.Duration) (*Queue, error) {
	conn, err := bs.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to beanstalkd at %s: %w", addr, err)
	}

	return &Queue{conn: conn, reserveTimeout: reserveTimeout}, nil
}

// Publish puts a message onto the named tube.
func (q *Queue) Publish(tube string, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := bs.NewTube(q.conn, tube)
	if _, err := t.Put(body, putPriority, putDelay, putTTR); err != nil {
		return fmt.Errorf("failed to put job on tube %s: %w", tube, err)
	}

	return nil
}

// Read reserves the next job on the tube, blocking up to the reserve
// timeout, and deletes it before returning. An empty tube returns ok ==
// false rather than blocking indefinitely. Deleting before the handler runs
// makes delivery at-most-once: a crash after Read loses the message.
func (q *Queue) Read(tube string) (Message, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ts := bs.NewTubeSet(q.conn, tube)

	id, body, err := ts.Reserve(q.reserveTimeout)
	if err != nil {
		if isTimeout(err) {
			return Message{}, false, nil
		}
		return Message{}, false, fmt.Errorf("failed to reserve job on tube %s: %w", tube, err)
	}

	if err := q.conn.Delete(id); err != nil {
		return Message{}, false, fmt.Errorf("failed to delete job %d on tube %s: %w", id, tube, err)
	}

	return Message{Body: body}, true, nil
}

func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.conn.Close()
}

func isTimeout(err error) bool {
	var connErr bs.ConnError
	if errors.As(err, &connErr) {
		return errors.Is(connErr.Err, bs.ErrTimeout)
	}

	return errors.Is(err, bs.ErrTimeout)
}
