package storefront

import "sync"

// Frame is one named fragment for the tab. Event names the sse-swap slot.
type Frame struct {
	Event string
	Data  string
}

// Outbox buffers frames for a tab that may be slow or not yet connected.
// When full, the oldest frame is dropped.
type Outbox struct {
	mu      sync.Mutex
	frames  []Frame
	max     int
	dropped int
	ready   chan struct{}
	done    chan struct{}
	closed  bool
}

func NewOutbox(max int) *Outbox {
	if max <= 0 {
		max = 256
	}
	return &Outbox{
		max:   max,
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (o *Outbox) Push(f Frame) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if len(o.frames) >= o.max {
		o.frames = o.frames[1:]
		o.dropped++
	}
	o.frames = append(o.frames, f)
	o.mu.Unlock()

	select {
	case o.ready <- struct{}{}:
	default:
	}
}

// Drain takes every buffered frame.
func (o *Outbox) Drain() []Frame {
	o.mu.Lock()
	defer o.mu.Unlock()
	frames := o.frames
	o.frames = nil
	return frames
}

// Ready fires after a Push; receivers then Drain.
func (o *Outbox) Ready() <-chan struct{} {
	return o.ready
}

func (o *Outbox) Done() <-chan struct{} {
	return o.done
}

func (o *Outbox) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.done)
	}
}
