// Package sse streams task change notifications to browsers over Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event is a named SSE message with a JSON payload.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types emitted by PublishTaskEvent.
const (
	TypeSummaryUpdated = "summary.updated"
	taskTypePrefix     = "task."
)

// DefaultSummaryThrottle is used when NewBroker is given no positive throttle.
const DefaultSummaryThrottle = 2 * time.Second

type taskEventReq struct {
	kind string
	id   int64
}

// Broker fans events out to connected clients.
//
// A single loop goroutine owns the client set and the summary throttle
// timestamp. Public methods talk to it over channels.
type Broker struct {
	summaryMin time.Duration
	heartbeat  time.Duration
	now        func() time.Time

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	taskEventCh   chan taskEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithHeartbeat makes ServeHTTP write a comment line every d so proxies keep
// idle streams open. Zero disables heartbeats.
func WithHeartbeat(d time.Duration) BrokerOption {
	return func(b *Broker) { b.heartbeat = d }
}

// WithClock sets the time source for summary throttling.
func WithClock(now func() time.Time) BrokerOption {
	return func(b *Broker) { b.now = now }
}

// NewBroker starts a broker. summary.updated is emitted at most once per
// summaryThrottle; task events that fall inside the window are covered by one
// trailing summary.updated when it closes.
func NewBroker(summaryThrottle time.Duration, opts ...BrokerOption) *Broker {
	if summaryThrottle <= 0 {
		summaryThrottle = DefaultSummaryThrottle
	}

	b := &Broker{
		summaryMin:    summaryThrottle,
		now:           time.Now,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		taskEventCh:   make(chan taskEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, o := range opts {
		o(b)
	}

	go b.run()
	return b
}

func encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		lastSummary time.Time
		trailing    *time.Timer
		trailingC   <-chan time.Time
	)

	broadcast := func(event Event) {
		raw, err := encode(event)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// slow client, drop
			}
		}
	}

	emitSummary := func() {
		lastSummary = b.now()
		broadcast(Event{Type: TypeSummaryUpdated, Data: map[string]string{}})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.taskEventCh:
			broadcast(Event{Type: taskTypePrefix + req.kind, Data: map[string]int64{"id": req.id}})

			now := b.now()
			switch {
			case lastSummary.IsZero() || now.Sub(lastSummary) >= b.summaryMin:
				if trailing != nil {
					trailing.Stop()
					trailingC = nil
				}
				emitSummary()
			case trailingC == nil:
				trailing = time.NewTimer(b.summaryMin - now.Sub(lastSummary))
				trailingC = trailing.C
			}

		case <-trailingC:
			trailingC = nil
			emitSummary()

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishTaskEvent broadcasts task.<kind> for the task id followed by a
// throttled summary.updated. Its signature matches taskservice.Notifier.
func (b *Broker) PublishTaskEvent(kind string, id int64) {
	if b.closed.Load() {
		return
	}
	select {
	case b.taskEventCh <- taskEventReq{kind: kind, id: id}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
