package event

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler delivers one notification to an outbound channel. Handlers
// are fire-and-forget: a failing handler is logged and never blocks the
// others or the operation that produced the notification.
type Handler interface {
	Handle(n Notification) error
}

// Collector is the write side seen by engine operations: stash a
// notification until the enclosing request settles.
type Collector interface {
	Collect(ctx context.Context, n Notification)
}

// Dispatcher collects notifications during an engine operation and
// releases them only once the enclosing request committed. Delivery
// order matches collection order.
type Dispatcher interface {
	Collector
	FlushOnCommit()
	DiscardOnRollback()
}

// BufferedDispatcher 请求内缓冲的通知分发器，一次请求一个实例
type BufferedDispatcher struct {
	mu       sync.Mutex
	pending  []Notification
	handlers []Handler
	logger   *zap.Logger
}

func NewBufferedDispatcher(logger *zap.Logger, handlers ...Handler) *BufferedDispatcher {
	return &BufferedDispatcher{handlers: handlers, logger: logger}
}

func (d *BufferedDispatcher) Collect(_ context.Context, n Notification) {
	d.mu.Lock()
	d.pending = append(d.pending, n)
	d.mu.Unlock()
}

// FlushOnCommit delivers every pending notification in collection order,
// isolating handler failures from each other.
func (d *BufferedDispatcher) FlushOnCommit() {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, n := range batch {
		for _, h := range d.handlers {
			d.deliver(h, n)
		}
	}
}

// DiscardOnRollback drops everything collected since the last flush.
func (d *BufferedDispatcher) DiscardOnRollback() {
	d.mu.Lock()
	d.pending = nil
	d.mu.Unlock()
}

// Pending 当前缓冲数量，仅用于观测
func (d *BufferedDispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *BufferedDispatcher) deliver(h Handler, n Notification) {
	defer func() {
		if r := recover(); r != nil && d.logger != nil {
			d.logger.Error("notification handler panic",
				zap.String("type", n.Type), zap.Any("panic", r))
		}
	}()
	if err := h.Handle(n); err != nil && d.logger != nil {
		d.logger.Error("notification handler failed",
			zap.String("type", n.Type),
			zap.String("client_id", n.ClientID),
			zap.Error(err))
	}
}
