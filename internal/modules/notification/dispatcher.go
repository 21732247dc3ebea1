package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"studiobooking/internal/domain"
	"studiobooking/internal/pkg/metrics"
)

var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrClosed    = errors.New("notification dispatcher is closed")
)

const deliverTimeout = 5 * time.Second

type job struct {
	ctx       context.Context
	event     string
	recipient int64
	payload   map[string]any
}

// Dispatcher is the booking engine's Notifier. Notify only enqueues; a
// fixed pool of workers stores each notification and hands it to the
// broadcaster.
type Dispatcher struct {
	repo Repository
	bc   Broadcaster
	log  *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

func NewDispatcher(repo Repository, bc Broadcaster, log *zap.Logger, queueSize int) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		repo:  repo,
		bc:    bc,
		log:   log,
		queue: make(chan job, queueSize),
	}
}

// Start launches the workers. Call Close to drain and stop them.
func (d *Dispatcher) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range d.queue {
				d.deliver(j)
			}
		}()
	}
}

// Notify never blocks: when the queue is full the event is dropped and
// ErrQueueFull returned.
func (d *Dispatcher) Notify(ctx context.Context, event string, recipient int64, payload map[string]any) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	j := job{
		ctx:       context.WithoutCancel(ctx),
		event:     event,
		recipient: recipient,
		payload:   payload,
	}
	select {
	case d.queue <- j:
		return nil
	default:
		metrics.NotificationsDispatched.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// Close stops accepting events, delivers what is queued and waits for the
// workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, deliverTimeout)
	defer cancel()

	title, body := render(j.event, j.payload)
	n := &domain.Notification{
		UserID: j.recipient,
		Type:   j.event,
		Title:  title,
		Body:   body,
		Data:   j.payload,
	}

	if err := d.repo.Create(ctx, n); err != nil {
		metrics.NotificationsDispatched.WithLabelValues("store_failed").Inc()
		d.log.Warn("store notification failed",
			zap.String("event", j.event),
			zap.Int64("recipient", j.recipient),
			zap.Error(err),
		)
		return
	}

	if d.bc != nil {
		if err := d.bc.Publish(ctx, n); err != nil {
			metrics.NotificationsDispatched.WithLabelValues("publish_failed").Inc()
			d.log.Warn("publish notification failed",
				zap.Int64("notification_id", n.ID),
				zap.Error(err),
			)
			return
		}
	}
	metrics.NotificationsDispatched.WithLabelValues("delivered").Inc()
}
