package event

import "context"

type ctxKey struct{}

// NewContext 把请求级分发器挂到上下文，通知边界中间件负责写入
func NewContext(ctx context.Context, d Dispatcher) context.Context {
	return context.WithValue(ctx, ctxKey{}, d)
}

// FromContext 取请求级分发器；上下文没有时返回 nil
func FromContext(ctx context.Context) Dispatcher {
	d, _ := ctx.Value(ctxKey{}).(Dispatcher)
	return d
}

// ContextDispatcher routes each notification to the dispatcher bound to
// the request context, so concurrent requests never share a buffer.
// Services hold one ContextDispatcher for the process; the per-request
// buffer comes in through ctx. Calls outside a request boundary fall
// back to Fallback, or are dropped when none is set.
type ContextDispatcher struct {
	Fallback Dispatcher
}

func (c ContextDispatcher) Collect(ctx context.Context, n Notification) {
	if d := FromContext(ctx); d != nil {
		d.Collect(ctx, n)
		return
	}
	if c.Fallback != nil {
		c.Fallback.Collect(ctx, n)
	}
}
