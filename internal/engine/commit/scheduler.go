// Package commit turns answer edits into draft writes and decides when a
// continuous edit has settled.
//
// Immediate edits (choice clicks, toggles, blur or enter on text) write the
// draft and raise a focus intent right away. Continuous edits (slider drags)
// write the draft on every event but only report a settle once no further
// event for the same link arrived within the debounce delay.
package commit

import (
	"errors"
	"sync"
	"time"

	"assessment_backend/internal/engine/answer"

	"github.com/benbjohnson/clock"
)

const DefaultDelay = time.Second

var ErrClosed = errors.New("commit scheduler closed")

// Writer receives every draft mutation. The draft store satisfies it.
type Writer interface {
	SetAnswer(linkID int, v answer.Value) error
}

// Intent is a focus side effect: Advance moves to the next question,
// otherwise the edited question stays centred.
type Intent struct {
	LinkID  int
	Advance bool
}

// Settled is delivered once a continuous burst has gone quiet. Generation
// identifies the scheduler context the burst belonged to.
type Settled struct {
	LinkID     int
	Value      answer.Value
	Generation uint64
}

type Option func(*Scheduler)

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.delay = d
		}
	}
}

func OnSettle(fn func(Settled)) Option {
	return func(s *Scheduler) { s.onSettle = fn }
}

func OnIntent(fn func(Intent)) Option {
	return func(s *Scheduler) { s.onIntent = fn }
}

type pending struct {
	timer *clock.Timer
	value answer.Value
}

type Scheduler struct {
	writer   Writer
	clock    clock.Clock
	delay    time.Duration
	onSettle func(Settled)
	onIntent func(Intent)

	mu         sync.Mutex
	timers     map[int]*pending
	generation uint64
	closed     bool
	stale      int
}

func New(w Writer, opts ...Option) *Scheduler {
	s := &Scheduler{
		writer: w,
		clock:  clock.New(),
		delay:  DefaultDelay,
		timers: make(map[int]*pending),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDelay changes the debounce delay for bursts started afterwards.
func (s *Scheduler) SetDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Immediate writes the draft and raises a focus intent. A pending
// continuous burst on the same link is superseded and will not settle.
func (s *Scheduler) Immediate(linkID int, v answer.Value, advance bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.cancelLocked(linkID)
	s.mu.Unlock()

	if err := s.writer.SetAnswer(linkID, v); err != nil {
		return err
	}
	if s.onIntent != nil {
		s.onIntent(Intent{LinkID: linkID, Advance: advance})
	}
	return nil
}

// Continuous writes the draft and restarts the link's debounce timer.
func (s *Scheduler) Continuous(linkID int, v answer.Value) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	if err := s.writer.SetAnswer(linkID, v); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.cancelLocked(linkID)
	p := &pending{value: v}
	gen := s.generation
	p.timer = s.clock.AfterFunc(s.delay, func() { s.fire(linkID, p, gen) })
	s.timers[linkID] = p
	return nil
}

func (s *Scheduler) fire(linkID int, p *pending, gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.generation || s.timers[linkID] != p {
		s.stale++
		s.mu.Unlock()
		return
	}
	delete(s.timers, linkID)
	fn := s.onSettle
	s.mu.Unlock()

	if fn != nil {
		fn(Settled{LinkID: linkID, Value: p.value, Generation: gen})
	}
}

func (s *Scheduler) cancelLocked(linkID int) {
	if p, ok := s.timers[linkID]; ok {
		p.timer.Stop()
		delete(s.timers, linkID)
	}
}

// Cancel drops a pending burst on linkID without settling it.
func (s *Scheduler) Cancel(linkID int) {
	s.mu.Lock()
	s.cancelLocked(linkID)
	s.mu.Unlock()
}

// Reset cancels every pending timer and starts a new generation. Timers that
// already fired but have not run yet are dropped when they do.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	for id := range s.timers {
		s.cancelLocked(id)
	}
	s.generation++
	s.mu.Unlock()
}

// Close resets the scheduler and rejects further edits.
func (s *Scheduler) Close() {
	s.Reset()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// PendingBursts reports how many links are still waiting to settle.
func (s *Scheduler) PendingBursts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// StaleFires counts timer callbacks that ran after being superseded or torn
// down. They never reach the settle handler.
func (s *Scheduler) StaleFires() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}
