package eventbus

import (
	"context"
	"runtime/debug"
	"sync"

	"taskmgr/pkg/logx"
)

// Bus is a synchronous, in-process, typed publish/subscribe channel.
//
// Contract:
//   - Publish calls every subscriber on the caller's goroutine, in
//     subscription order, before returning.
//   - Publish never panics: a panicking subscriber is recovered and logged,
//     and delivery continues with the remaining subscribers.
//
// Subscribers are expected to be registered once at startup; Subscribe after
// the first Publish is safe but events published earlier are not replayed.
type Bus[T any] struct {
	name string
	log  logx.Logger

	mu   sync.RWMutex
	subs []func(context.Context, T)
}

func New[T any](name string, log logx.Logger) *Bus[T] {
	return &Bus[T]{name: name, log: log}
}

func (b *Bus[T]) Subscribe(fn func(ctx context.Context, e T)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
}

func (b *Bus[T]) Publish(ctx context.Context, e T) {
	// Snapshot subscribers so Publish doesn't hold locks while calling out.
	b.mu.RLock()
	subs := append(([]func(context.Context, T))(nil), b.subs...)
	b.mu.RUnlock()

	for _, fn := range subs {
		b.deliver(ctx, fn, e)
	}
}

func (b *Bus[T]) deliver(ctx context.Context, fn func(context.Context, T), e T) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event subscriber panicked",
				logx.String("bus", b.name),
				logx.Any("panic", r),
				logx.Stack(string(debug.Stack())),
			)
		}
	}()
	fn(ctx, e)
}
