package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink receives finalized audit events.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher stamps events and hands them to a buffered worker so domain code
// never blocks on the audit pipeline. A full buffer drops the event with a
// log line rather than stalling a registration.
type Publisher struct {
	logger *slog.Logger
	inbox  chan Event
}

func NewPublisher(logger *slog.Logger, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		logger: logger,
		inbox:  make(chan Event, buffer),
	}
}

// Emit enqueues an event, assigning ID and timestamp when missing.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action, "subject_id", event.SubjectID)
	}
}

// Worker drains the publisher's inbox into a sink. Run it under an errgroup
// next to the HTTP server; it returns when ctx is cancelled and the inbox is
// flushed.
type Worker struct {
	publisher *Publisher
	sink      Sink
	logger    *slog.Logger
}

func NewWorker(publisher *Publisher, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{publisher: publisher, sink: sink, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case event := <-w.publisher.inbox:
			w.deliver(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	// Bounded flush with a fresh context; the request context is gone.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-w.publisher.inbox:
			w.deliver(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) deliver(ctx context.Context, event Event) {
	if err := w.sink.Publish(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "audit publish failed",
			"error", err, "action", event.Action, "event_id", event.ID)
	}
}

// MemorySink collects events for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a snapshot of everything published so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// LogSink writes audit events to the application log. Used when Kafka is not
// configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"event_id", event.ID,
		"action", event.Action,
		"subject_id", event.SubjectID,
		"actor", event.Actor,
	)
	return nil
}
