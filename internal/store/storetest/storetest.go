// Package storetest holds the behavioural contract every store.Store backend must satisfy.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/pollchat/internal/store"
)

// Factory opens an empty store that reads time from clock.
type Factory func(t *testing.T, clock store.Clock) store.Store

// StepClock is a deterministic clock that advances by step on every reading.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock returns a clock starting at start.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{now: start.UTC(), step: step}
}

// Now returns the current reading and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Set moves the clock to t.
func (c *StepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

var epoch = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// Run executes the full contract against the backend produced by open.
func Run(t *testing.T, open Factory) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, open Factory)
	}{
		{"ListEmpty", testListEmpty},
		{"SendThenList", testSendThenList},
		{"EditThenList", testEditThenList},
		{"UpdateSameTextRefreshesTimestamp", testUpdateSameText},
		{"UpdateNeverPrecedesCreatedAt", testUpdateClockBehind},
		{"DeleteThenList", testDeleteThenList},
		{"UnknownID", testUnknownID},
		{"ValidationRejection", testValidationRejection},
		{"OrderedByCreatedAt", testOrderedByCreatedAt},
		{"TiesBrokenByID", testTiesBrokenByID},
		{"EditKeepsPosition", testEditKeepsPosition},
		{"IDsNeverReused", testIDsNeverReused},
		{"DuplicateCreatesAreKept", testDuplicateCreates},
		{"ConcurrentCreates", testConcurrentCreates},
		{"IDsFollowCreationOrder", testIDsFollowCreationOrder},
		{"ConcurrentUpdatesLastWriteWins", testConcurrentUpdates},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, open)
		})
	}
}

func testListEmpty(t *testing.T, open Factory) {
	st := open(t, NewStepClock(epoch, time.Millisecond).Now)

	msgs, err := st.ListMessages(context.Background())
	require.NoError(t, err)
	require.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func testSendThenList(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, time.Millisecond).Now)

	created, err := st.CreateMessage(ctx, "Alice", "hi")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	msgs, err := st.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, created.ID, msgs[0].ID)
	assert.Equal(t, "Alice", msgs[0].Sender)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.True(t, msgs[0].CreatedAt.Equal(msgs[0].UpdatedAt))
	assert.True(t, msgs[0].CreatedAt.Equal(epoch))
}

func testEditThenList(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, time.Second).Now)

	m, err := st.CreateMessage(ctx, "Alice", "hi")
	require.NoError(t, err)

	updated, err := st.UpdateMessage(ctx, m.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, m.ID, updated.ID)
	assert.Equal(t, "hello", updated.Text)
	assert.Equal(t, "Alice", updated.Sender)

	msgs, err := st.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.True(t, msgs[0].CreatedAt.Equal(m.CreatedAt), "created_at must not change")
	assert.True(t, msgs[0].UpdatedAt.After(msgs[0].CreatedAt))
}

func testUpdateSameText(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, time.Second).Now)

	m, err := st.CreateMessage(ctx, "Alice", "hi")
	require.NoError(t, err)

	first, err := st.UpdateMessage(ctx, m.ID, "same")
	require.NoError(t, err)
	second, err := st.UpdateMessage(ctx, m.ID, "same")
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func testUpdateClockBehind(t *testing.T, open Factory) {
	ctx := context.Background()
	clock := NewStepClock(epoch, 0)
	st := open(t, clock.Now)

	m, err := st.CreateMessage(ctx, "Alice", "hi")
	require.NoError(t, err)

	clock.Set(epoch.Add(-time.Hour))
	updated, err := st.UpdateMessage(ctx, m.ID, "edited")
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
}

func testDeleteThenList(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, time.Millisecond).Now)

	keep, err := st.CreateMessage(ctx, "Bob", "stays")
	require.NoError(t, err)
	m, err := st.CreateMessage(ctx, "Alice", "goes")
	require.NoError(t, err)

	require.NoError(t, st.DeleteMessage(ctx, m.ID))

	msgs, err := st.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, keep.ID, msgs[0].ID)

	require.ErrorIs(t, st.DeleteMessage(ctx, m.ID), store.ErrNotFound)
	_, err = st.UpdateMessage(ctx, m.ID, "zombie")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testUnknownID(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, time.Millisecond).Now)

	_, err := st.UpdateMessage(ctx, 4242, "text")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, st.DeleteMessage(ctx, 4242), store.ErrNotFound)
}

func testValidationRejection(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, time.Millisecond).Now)

	m, err := st.CreateMessage(ctx, "Alice", "original")
	require.NoError(t, err)
	before, err := st.ListMessages(ctx)
	require.NoError(t, err)

	_, err = st.CreateMessage(ctx, "", "hello")
	assert.True(t, store.IsValidation(err), "empty sender: %v", err)
	_, err = st.CreateMessage(ctx, "Alice", "")
	assert.True(t, store.IsValidation(err), "empty text: %v", err)
	_, err = st.CreateMessage(ctx, "   ", "hello")
	assert.True(t, store.IsValidation(err), "blank sender: %v", err)
	_, err = st.UpdateMessage(ctx, m.ID, "")
	assert.True(t, store.IsValidation(err), "empty update: %v", err)
	_, err = st.UpdateMessage(ctx, m.ID, " \n ")
	assert.True(t, store.IsValidation(err), "blank update: %v", err)

	after, err := st.ListMessages(ctx)
	require.NoError(t, err)
	assertSameMessages(t, before, after)
}

func testOrderedByCreatedAt(t *testing.T, open Factory) {
	ctx := context.Background()
	clock := NewStepClock(epoch, 0)
	st := open(t, clock.Now)

	// Wall clock jumps around between creates.
	offsets := []time.Duration{3 * time.Second, 0, 2 * time.Second, time.Second}
	for i, off := range offsets {
		clock.Set(epoch.Add(off))
		_, err := st.CreateMessage(ctx, "Alice", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	msgs, err := st.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, len(offsets))
	assertSorted(t, msgs)

	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"m1", "m3", "m2", "m0"}, texts)
}

func testTiesBrokenByID(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, 0).Now)

	var ids []int64
	for i := range 5 {
		m, err := st.CreateMessage(ctx, "Alice", fmt.Sprintf("tie %d", i))
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	msgs, err := st.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, len(ids))
	for i, m := range msgs {
		assert.Equal(t, ids[i], m.ID)
	}
	assertSorted(t, msgs)
}

func testEditKeepsPosition(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, time.Second).Now)

	a, err := st.CreateMessage(ctx, "Alice", "first")
	require.NoError(t, err)
	b, err := st.CreateMessage(ctx, "Bob", "second")
	require.NoError(t, err)

	_, err = st.UpdateMessage(ctx, a.ID, "first, edited later")
	require.NoError(t, err)

	msgs, err := st.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, a.ID, msgs[0].ID)
	assert.Equal(t, b.ID, msgs[1].ID)
}

func testIDsNeverReused(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, time.Millisecond).Now)

	seen := make(map[int64]struct{})
	var last *store.Message
	for i := range 3 {
		m, err := st.CreateMessage(ctx, "Alice", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		seen[m.ID] = struct{}{}
		last = m
	}

	require.NoError(t, st.DeleteMessage(ctx, last.ID))

	m, err := st.CreateMessage(ctx, "Alice", "after delete")
	require.NoError(t, err)
	_, reused := seen[m.ID]
	assert.False(t, reused, "id %d was reused", m.ID)
	assert.Greater(t, m.ID, last.ID)
}

func testDuplicateCreates(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, time.Millisecond).Now)

	// A retried send is a second create; nothing deduplicates it.
	first, err := st.CreateMessage(ctx, "Alice", "are you there?")
	require.NoError(t, err)
	second, err := st.CreateMessage(ctx, "Alice", "are you there?")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	msgs, err := st.ListMessages(ctx)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func testConcurrentCreates(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, time.Microsecond).Now)

	const writers = 32
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := st.CreateMessage(ctx, fmt.Sprintf("user-%d", i), "hello")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	msgs, err := st.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, writers)
	assertSorted(t, msgs)

	ids := make(map[int64]struct{}, writers)
	for _, m := range msgs {
		ids[m.ID] = struct{}{}
	}
	assert.Len(t, ids, writers)
}

func testIDsFollowCreationOrder(t *testing.T, open Factory) {
	ctx := context.Background()
	step := NewStepClock(epoch, time.Microsecond)
	// A slow clock widens the gap between reading the time and assigning the id.
	slow := func() time.Time {
		now := step.Now()
		time.Sleep(time.Millisecond)
		return now
	}
	st := open(t, slow)

	const writers = 24
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := st.CreateMessage(ctx, fmt.Sprintf("user-%d", i), "hello")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs, err := st.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, writers)
	for i := 1; i < len(msgs); i++ {
		assert.Greater(t, msgs[i].ID, msgs[i-1].ID, "id order disagrees with created_at order at position %d", i)
	}
}

func testConcurrentUpdates(t *testing.T, open Factory) {
	ctx := context.Background()
	st := open(t, NewStepClock(epoch, time.Microsecond).Now)

	m, err := st.CreateMessage(ctx, "Alice", "v0")
	require.NoError(t, err)

	const writers = 16
	texts := make(map[string]struct{}, writers)
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		text := fmt.Sprintf("v%d", i+1)
		texts[text] = struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.UpdateMessage(ctx, m.ID, text)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	msgs, err := st.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	_, ok := texts[msgs[0].Text]
	assert.True(t, ok, "final text %q was never written", msgs[0].Text)
}

func assertSorted(t *testing.T, msgs []*store.Message) {
	t.Helper()
	for i := 1; i < len(msgs); i++ {
		prev, cur := msgs[i-1], msgs[i]
		if cur.CreatedAt.Before(prev.CreatedAt) {
			t.Fatalf("message %d (created %s) listed after %d (created %s)", cur.ID, cur.CreatedAt, prev.ID, prev.CreatedAt)
		}
		if cur.CreatedAt.Equal(prev.CreatedAt) && cur.ID < prev.ID {
			t.Fatalf("tie on created_at not broken by id: %d listed after %d", cur.ID, prev.ID)
		}
	}
}

func assertSameMessages(t *testing.T, want, got []*store.Message) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Sender, got[i].Sender)
		assert.Equal(t, want[i].Text, got[i].Text)
		assert.True(t, want[i].UpdatedAt.Equal(got[i].UpdatedAt))
	}
}
