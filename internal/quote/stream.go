package quote

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultDebounce = time.Millisecond * 300

type Result[Out any] struct {
	Generation uint64
	Value      Out
	Err        error
}

type streamConfig struct {
	debounce time.Duration
}

type StreamOption func(*streamConfig)

func WithDebounce(d time.Duration) StreamOption {
	return func(c *streamConfig) { c.debounce = d }
}

// Stream coalesces rapid submissions on the trailing edge. Every submission
// bumps the generation; a result is committed only if no newer submission
// arrived while it was computed. In-flight calls are never aborted, their
// results are dropped.
type Stream[In, Out any] struct {
	ctx      context.Context
	fn       func(context.Context, In) (Out, error)
	debounce time.Duration

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	closed     bool

	commitMu  sync.Mutex
	latest    *Result[Out]
	listeners []func(Result[Out])

	discarded atomic.Uint64
}

func NewStream[In, Out any](ctx context.Context, fn func(context.Context, In) (Out, error), opts ...StreamOption) *Stream[In, Out] {
	cfg := streamConfig{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Stream[In, Out]{
		ctx:      ctx,
		fn:       fn,
		debounce: cfg.debounce,
	}
}

// Subscribe registers a listener for committed results. Listeners run with
// the commit lock held and must not call Latest.
func (s *Stream[In, Out]) Subscribe(listener func(Result[Out])) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Submit schedules a computation for in and returns its generation.
func (s *Stream[In, Out]) Submit(in In) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if s.closed {
		return s.generation
	}
	generation := s.generation
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(generation, in)
	})
	return generation
}

func (s *Stream[In, Out]) superseded(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || generation != s.generation
}

func (s *Stream[In, Out]) run(generation uint64, in In) {
	if s.superseded(generation) {
		s.discarded.Add(1)
		return
	}

	value, err := s.fn(s.ctx, in)

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.superseded(generation) || s.ctx.Err() != nil {
		s.discarded.Add(1)
		return
	}
	result := Result[Out]{Generation: generation, Value: value, Err: err}
	s.latest = &result
	for _, listener := range s.listeners {
		listener(result)
	}
}

// Latest returns the last committed result.
func (s *Stream[In, Out]) Latest() (Result[Out], bool) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.latest == nil {
		return Result[Out]{}, false
	}
	return *s.latest, true
}

// Discarded returns how many submissions were dropped as superseded.
func (s *Stream[In, Out]) Discarded() uint64 {
	return s.discarded.Load()
}

// Close stops pending work. Results computing at the time are dropped.
func (s *Stream[In, Out]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
}
