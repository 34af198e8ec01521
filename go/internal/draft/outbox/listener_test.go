package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	rows    []OutboxEvent
	sent    map[uuid.UUID]int
	markErr error
}

func newFakeSource(rows ...OutboxEvent) *fakeSource {
	return &fakeSource{rows: rows, sent: map[uuid.UUID]int{}}
}

func (s *fakeSource) FetchByID(_ context.Context, id uuid.UUID) (*OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ID == id && s.sent[id] == 0 {
			cp := r
			return &cp, nil
		}
	}
	return nil, ErrNotPending
}

func (s *fakeSource) FetchUnsent(_ context.Context, limit int) ([]OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []OutboxEvent
	for _, r := range s.rows {
		if s.sent[r.ID] == 0 && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeSource) MarkSent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.sent[id]++
	return nil
}

func (s *fakeSource) sentCount(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[id]
}

type fakePublisher struct {
	mu        sync.Mutex
	published []uuid.UUID
	failures  map[uuid.UUID]int // remaining failures per event
}

func (p *fakePublisher) Publish(_ context.Context, ev OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures[ev.ID] > 0 {
		p.failures[ev.ID]--
		return errors.New("bus unavailable")
	}
	p.published = append(p.published, ev.ID)
	return nil
}

func testListener(src Source, pub Publisher) *Listener {
	cfg := DefaultListenerConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.MaxRetries = 2
	cfg.BatchSize = 10
	return &Listener{source: src, publisher: pub, cfg: cfg}
}

func outboxRow() OutboxEvent {
	return OutboxEvent{
		ID:        uuid.New(),
		DraftID:   uuid.New(),
		EventType: "PickCommitted",
		Payload:   []byte(`{}`),
		CreatedAt: time.Now(),
	}
}

func TestListener_HandleNotification(t *testing.T) {
	ctx := context.Background()
	row := outboxRow()
	src := newFakeSource(row)
	pub := &fakePublisher{}
	l := testListener(src, pub)

	require.NoError(t, l.handleNotification(ctx, row.ID.String()))
	assert.Equal(t, []uuid.UUID{row.ID}, pub.published)
	assert.Equal(t, 1, src.sentCount(row.ID), "row is marked sent exactly once")

	// a second notification for a relayed row is a no-op
	require.NoError(t, l.handleNotification(ctx, row.ID.String()))
	assert.Len(t, pub.published, 1)

	assert.Error(t, l.handleNotification(ctx, "not-a-uuid"))
}

func TestListener_RetriesThenGivesUp(t *testing.T) {
	ctx := context.Background()
	flaky, dead := outboxRow(), outboxRow()
	src := newFakeSource(flaky, dead)
	pub := &fakePublisher{failures: map[uuid.UUID]int{flaky.ID: 2, dead.ID: 10}}
	l := testListener(src, pub)

	require.NoError(t, l.handleNotification(ctx, flaky.ID.String()))
	assert.Equal(t, 1, src.sentCount(flaky.ID))

	err := l.handleNotification(ctx, dead.ID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Zero(t, src.sentCount(dead.ID))
}

func TestListener_ProcessUnsentSkipsFailures(t *testing.T) {
	ctx := context.Background()
	a, b, c := outboxRow(), outboxRow(), outboxRow()
	src := newFakeSource(a, b, c)
	pub := &fakePublisher{failures: map[uuid.UUID]int{b.ID: 10}}
	l := testListener(src, pub)

	require.NoError(t, l.processUnsent(ctx))
	assert.Equal(t, []uuid.UUID{a.ID, c.ID}, pub.published)
	assert.Equal(t, 1, src.sentCount(a.ID))
	assert.Zero(t, src.sentCount(b.ID))
	assert.Equal(t, 1, src.sentCount(c.ID))

	// the failed row is retried on the next pass
	pub.failures[b.ID] = 0
	require.NoError(t, l.processUnsent(ctx))
	assert.Equal(t, 1, src.sentCount(b.ID))
}

func TestListener_MarkSentFailureLeavesRowPending(t *testing.T) {
	ctx := context.Background()
	row := outboxRow()
	src := newFakeSource(row)
	src.markErr = errors.New("connection reset")
	l := testListener(src, &fakePublisher{})

	err := l.handleNotification(ctx, row.ID.String())
	require.Error(t, err)

	unsent, err := src.FetchUnsent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, unsent, 1)
}

func TestOutboxEvent_Envelope(t *testing.T) {
	row := outboxRow()
	env := row.Envelope()
	assert.Equal(t, row.ID, env.EventID)
	assert.Equal(t, row.DraftID, env.DraftID)
	assert.EqualValues(t, row.EventType, env.EventType)
	assert.Equal(t, time.UTC, env.Timestamp.Location())
}
