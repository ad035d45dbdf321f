package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrBufferFull is returned when Async cannot accept another event.
var ErrBufferFull = errors.New("audit buffer full")

// Async hands events to a background goroutine so request latency does not
// depend on the sink. Run must be started for events to be delivered.
type Async struct {
	next   Publisher
	inbox  chan Event
	logger *slog.Logger
	onDrop func(reason string)
}

func NewAsync(next Publisher, size int, logger *slog.Logger, onDrop func(reason string)) *Async {
	if size <= 0 {
		size = 1024
	}
	if onDrop == nil {
		onDrop = func(string) {}
	}
	return &Async{next: next, inbox: make(chan Event, size), logger: logger, onDrop: onDrop}
}

// Emit enqueues without blocking.
func (a *Async) Emit(_ context.Context, event Event) error {
	select {
	case a.inbox <- event:
		return nil
	default:
		a.onDrop("buffer_full")
		return ErrBufferFull
	}
}

// Run delivers queued events until ctx is done, then drains what is left
// within drainTimeout.
func (a *Async) Run(ctx context.Context, drainTimeout time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			a.drain(drainTimeout)
			return nil
		case event := <-a.inbox:
			a.deliver(ctx, event)
		}
	}
}

func (a *Async) drain(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for {
		select {
		case event := <-a.inbox:
			a.deliver(ctx, event)
		default:
			return
		}
	}
}

func (a *Async) deliver(ctx context.Context, event Event) {
	if err := a.next.Emit(ctx, event); err != nil {
		a.logger.WarnContext(ctx, "audit event not delivered",
			"error", err,
			"action", string(event.Action),
			"request_id", event.RequestID,
		)
	}
}
