package event

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Type identifies a category of event.
type Type string

// Known event types.
const (
	ArtistImported    Type = "artist.imported"
	ReleaseCreated    Type = "release.created"
	ReleaseReplaced   Type = "release.replaced"
	ReleaseDuplicated Type = "release.duplicated"
	ReleaseUnchanged  Type = "release.unchanged"
	ReleaseSkipped    Type = "release.skipped"
	ImportCompleted   Type = "import.completed"
)

// Event represents something that happened during an import.
type Event struct {
	Type      Type           `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Handler is a function that processes an event.
type Handler func(Event)

// Publisher accepts events. *Bus implements it; Discard drops everything.
type Publisher interface {
	Publish(e Event)
}

type discard struct{}

func (discard) Publish(Event) {}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

// Bus is an in-process event bus backed by a buffered channel.
type Bus struct {
	ch       chan Event
	mu       sync.RWMutex
	subs     map[Type][]Handler
	all      []Handler
	logger   *slog.Logger
	done     chan struct{}
	finished chan struct{}
	started  atomic.Bool
	stopped  bool
}

// NewBus creates a new event bus with the given buffer size.
func NewBus(logger *slog.Logger, bufSize int) *Bus {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &Bus{
		ch:       make(chan Event, bufSize),
		subs:     make(map[Type][]Handler),
		logger:   logger,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Subscribe registers a handler for the given event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[t] = append(b.subs[t], h)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish sends an event to the bus. Non-blocking; drops with a warning if the buffer is full.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	select {
	case b.ch <- e:
	default:
		b.logger.Warn("event bus full, dropping event", "type", string(e.Type))
	}
}

// Start begins draining the channel and dispatching events to subscribers.
// Call this in a goroutine. It blocks until Stop is called. Start returns
// immediately if Stop already drained the bus.
func (b *Bus) Start() {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	defer close(b.finished)
	for {
		select {
		case e := <-b.ch:
			b.dispatch(e)
		case <-b.done:
			b.drain()
			return
		}
	}
}

// Stop signals the bus to stop processing events and returns once the
// buffer has been drained. If Start never ran, Stop drains it itself.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.stopped {
		b.stopped = true
		close(b.done)
	}
	b.mu.Unlock()

	if b.started.CompareAndSwap(false, true) {
		b.drain()
		close(b.finished)
		return
	}
	<-b.finished
}

func (b *Bus) drain() {
	for {
		select {
		case e := <-b.ch:
			b.dispatch(e)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(e Event) {
	b.mu.RLock()
	handlers := append(append([]Handler(nil), b.subs[e.Type]...), b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panicked", "type", string(e.Type), "panic", r)
				}
			}()
			h(e)
		}()
	}
}

// LogHandler returns a handler that writes every event to logger.
func LogHandler(logger *slog.Logger) Handler {
	return func(e Event) {
		attrs := make([]any, 0, len(e.Data)+1)
		attrs = append(attrs, slog.String("event", string(e.Type)))
		for k, v := range e.Data {
			attrs = append(attrs, slog.Any(k, v))
		}
		logger.Info("import event", attrs...)
	}
}
