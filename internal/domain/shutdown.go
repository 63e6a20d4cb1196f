package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// ShutdownHandler is one link of a ShutdownChain.
type ShutdownHandler func(ctx context.Context) error

type namedHandler struct {
	name string
	fn   ShutdownHandler
}

// ShutdownChain runs handlers in registration order at session end. A
// handler handles, then defers to the next: errors and panics are logged and
// never stop the chain.
type ShutdownChain struct {
	mu       sync.Mutex
	handlers []namedHandler
	once     sync.Once
}

// NewShutdownChain constructs an empty chain.
func NewShutdownChain() *ShutdownChain {
	return &ShutdownChain{}
}

// Register appends a handler. Handlers registered after Run are ignored.
func (c *ShutdownChain) Register(name string, fn ShutdownHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers = append(c.handlers, namedHandler{name: name, fn: fn})
}

// Run invokes every handler once. Later calls do nothing. It reports how many
// handlers failed.
func (c *ShutdownChain) Run(ctx context.Context) int {
	failed := 0

	c.once.Do(func() {
		c.mu.Lock()
		handlers := append([]namedHandler(nil), c.handlers...)
		c.mu.Unlock()

		for _, h := range handlers {
			if err := runHandler(ctx, h); err != nil {
				slog.Error("Shutdown handler failed", "handler", h.name, "error", err)
				failed++
			}
		}
	})

	return failed
}

func runHandler(ctx context.Context, h namedHandler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	return h.fn(ctx)
}
