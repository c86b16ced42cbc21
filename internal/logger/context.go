package logger

import (
	"context"
	"log/slog"
	"sync"
)

type requestAttrsKey struct{}

type requestAttrs struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// WithRequestAttrs returns a context that collects attributes added further
// down the handler chain, so an outer request logger can report them.
func WithRequestAttrs(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestAttrsKey{}, &requestAttrs{})
}

// AddRequestAttrs records attrs on the request context. It is a no-op when
// the context was not prepared with WithRequestAttrs.
func AddRequestAttrs(ctx context.Context, attrs ...slog.Attr) {
	bag, ok := ctx.Value(requestAttrsKey{}).(*requestAttrs)
	if !ok {
		return
	}
	bag.mu.Lock()
	defer bag.mu.Unlock()
	bag.attrs = append(bag.attrs, attrs...)
}

// RequestAttrs returns a copy of the attributes recorded on ctx.
func RequestAttrs(ctx context.Context) []slog.Attr {
	bag, ok := ctx.Value(requestAttrsKey{}).(*requestAttrs)
	if !ok {
		return nil
	}
	bag.mu.Lock()
	defer bag.mu.Unlock()
	return append([]slog.Attr(nil), bag.attrs...)
}
