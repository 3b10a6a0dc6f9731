package commit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"assessment_backend/internal/engine/answer"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingWriter struct {
	mu     sync.Mutex
	writes []answer.Value
	err    error
}

func (w *recordingWriter) SetAnswer(_ int, v answer.Value) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.writes = append(w.writes, v)
	return nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}

func newTestScheduler(t *testing.T, w Writer) (*Scheduler, *clock.Mock, chan Settled) {
	t.Helper()
	mock := clock.NewMock()
	settled := make(chan Settled, 16)
	s := New(w,
		WithClock(mock),
		OnSettle(func(ev Settled) { settled <- ev }),
	)
	t.Cleanup(s.Close)
	return s, mock, settled
}

func expectSettle(t *testing.T, ch <-chan Settled) Settled {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no settle callback")
	}
	return Settled{}
}

func expectNoSettle(t *testing.T, ch <-chan Settled) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected settle callback: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_BurstSettlesOnceWithLastValue(t *testing.T) {
	w := &recordingWriter{}
	s, mock, settled := newTestScheduler(t, w)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Continuous(7, answer.Scale(i)))
		mock.Add(200 * time.Millisecond)
	}
	expectNoSettle(t, settled)
	assert.Equal(t, 5, w.count(), "every drag event writes the draft")

	mock.Add(DefaultDelay)
	ev := expectSettle(t, settled)
	assert.Equal(t, 7, ev.LinkID)
	assert.Equal(t, 5, ev.Value.ScaleValue())
	expectNoSettle(t, settled)
	assert.Equal(t, 0, s.PendingBursts())
}

func TestScheduler_SpacedEventsSettleEach(t *testing.T) {
	s, mock, settled := newTestScheduler(t, &recordingWriter{})

	require.NoError(t, s.Continuous(1, answer.Scale(10)))
	mock.Add(DefaultDelay + time.Millisecond)
	assert.Equal(t, 10, expectSettle(t, settled).Value.ScaleValue())

	require.NoError(t, s.Continuous(1, answer.Scale(20)))
	mock.Add(DefaultDelay + time.Millisecond)
	assert.Equal(t, 20, expectSettle(t, settled).Value.ScaleValue())
	expectNoSettle(t, settled)
}

func TestScheduler_LinksDebounceIndependently(t *testing.T) {
	s, mock, settled := newTestScheduler(t, &recordingWriter{})

	require.NoError(t, s.Continuous(1, answer.Scale(1)))
	mock.Add(600 * time.Millisecond)
	require.NoError(t, s.Continuous(2, answer.Scale(2)))
	mock.Add(500 * time.Millisecond)

	assert.Equal(t, 1, expectSettle(t, settled).LinkID)
	expectNoSettle(t, settled)

	mock.Add(500 * time.Millisecond)
	assert.Equal(t, 2, expectSettle(t, settled).LinkID)
}

func TestScheduler_TeardownPreventsStaleSettle(t *testing.T) {
	w := &recordingWriter{}
	s, mock, settled := newTestScheduler(t, w)

	require.NoError(t, s.Continuous(1, answer.Scale(3)))
	gen := s.Generation()
	s.Reset()
	assert.Greater(t, s.Generation(), gen)

	mock.Add(5 * DefaultDelay)
	expectNoSettle(t, settled)
	assert.Equal(t, 1, w.count(), "no write after teardown")
	assert.Equal(t, 0, s.StaleFires())

	s.Close()
	assert.ErrorIs(t, s.Continuous(1, answer.Scale(4)), ErrClosed)
	assert.ErrorIs(t, s.Immediate(1, answer.Scale(4), false), ErrClosed)
	assert.Equal(t, 1, w.count())
}

func TestScheduler_OldGenerationFireIsDropped(t *testing.T) {
	s, mock, settled := newTestScheduler(t, &recordingWriter{})

	require.NoError(t, s.Continuous(1, answer.Scale(6)))
	s.mu.Lock()
	p := s.timers[1]
	gen := s.generation
	s.mu.Unlock()
	require.NotNil(t, p)

	s.fire(1, p, gen-1)
	expectNoSettle(t, settled)
	assert.Equal(t, 1, s.StaleFires())

	// the burst is still pending under the current generation
	mock.Add(DefaultDelay + time.Millisecond)
	ev := expectSettle(t, settled)
	assert.Equal(t, 6, ev.Value.ScaleValue())
	assert.Equal(t, gen, ev.Generation)
	assert.Equal(t, 1, s.StaleFires())
}

func TestScheduler_ImmediateRaisesIntentAndSupersedesBurst(t *testing.T) {
	mock := clock.NewMock()
	settled := make(chan Settled, 4)
	var intents []Intent
	w := &recordingWriter{}
	s := New(w,
		WithClock(mock),
		OnSettle(func(ev Settled) { settled <- ev }),
		OnIntent(func(in Intent) { intents = append(intents, in) }),
	)
	defer s.Close()

	require.NoError(t, s.Continuous(4, answer.Scale(2)))
	require.NoError(t, s.Immediate(4, answer.Scale(5), true))
	require.NoError(t, s.Immediate(5, answer.Text("typing"), false))

	mock.Add(2 * DefaultDelay)
	expectNoSettle(t, settled)
	assert.Equal(t, []Intent{{LinkID: 4, Advance: true}, {LinkID: 5, Advance: false}}, intents)
	assert.Equal(t, 3, w.count())
}

func TestScheduler_WriterErrorSkipsTimer(t *testing.T) {
	boom := errors.New("boom")
	s, mock, settled := newTestScheduler(t, &recordingWriter{err: boom})

	assert.ErrorIs(t, s.Continuous(1, answer.Scale(1)), boom)
	assert.Equal(t, 0, s.PendingBursts())
	mock.Add(2 * DefaultDelay)
	expectNoSettle(t, settled)
}

func TestScheduler_CustomDelay(t *testing.T) {
	mock := clock.NewMock()
	settled := make(chan Settled, 4)
	s := New(&recordingWriter{}, WithClock(mock), WithDelay(250*time.Millisecond),
		OnSettle(func(ev Settled) { settled <- ev }))
	defer s.Close()

	require.NoError(t, s.Continuous(1, answer.Scale(1)))
	mock.Add(250 * time.Millisecond)
	expectSettle(t, settled)
}
