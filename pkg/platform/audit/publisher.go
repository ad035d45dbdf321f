package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LogPublisher writes events as structured audit log lines. It is the
// default sink when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	args := []any{
		"event", string(event.Action),
		"log_type", "audit",
		"timestamp", event.Timestamp,
	}
	if event.UserID != "" {
		args = append(args, "user_id", event.UserID)
	}
	if event.Subject != "" {
		args = append(args, "subject", event.Subject)
	}
	if event.RequestID != "" {
		args = append(args, "request_id", event.RequestID)
	}
	if event.Device != "" {
		args = append(args, "device", event.Device)
	}
	for k, v := range event.Attrs {
		args = append(args, k, v)
	}
	p.logger.InfoContext(ctx, string(event.Action), args...)
	return nil
}

// Recorder keeps events in memory. Tests use it to assert on emitted events.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything emitted so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Actions lists the recorded actions in emission order.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

// Fanout emits to every publisher and returns the first error.
type Fanout []Publisher

func (f Fanout) Emit(ctx context.Context, event Event) error {
	var first error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
