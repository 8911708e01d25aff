package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eviction records one grace-expiry callback invocation.
type eviction struct {
	playerID string
	roomCode string
}

// evictRecorder collects eviction callbacks safely across goroutines.
type evictRecorder struct {
	mu     sync.Mutex
	evicts []eviction
	ch     chan eviction
}

func newEvictRecorder() *evictRecorder {
	return &evictRecorder{ch: make(chan eviction, 8)}
}

func (e *evictRecorder) fn(playerID, roomCode string) {
	e.mu.Lock()
	e.evicts = append(e.evicts, eviction{playerID, roomCode})
	e.mu.Unlock()
	e.ch <- eviction{playerID, roomCode}
}

func (e *evictRecorder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.evicts)
}

func TestDirectoryCreateAndResolve(t *testing.T) {
	rec := newEvictRecorder()
	d := NewDirectory(time.Minute, rec.fn, nil)

	d.Create("tok1", "p1", "ABC234")
	playerID, roomCode, err := d.Resolve("tok1")
	require.NoError(t, err)
	assert.Equal(t, "p1", playerID)
	assert.Equal(t, "ABC234", roomCode)

	_, _, err = d.Resolve("unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDirectoryCreateDiscardsPriorSessionForIdentity(t *testing.T) {
	rec := newEvictRecorder()
	d := NewDirectory(time.Minute, rec.fn, nil)

	d.Create("tok1", "p1", "ABC234")
	d.Create("tok2", "p1", "ABC234")

	_, _, err := d.Resolve("tok1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = d.Resolve("tok2")
	assert.NoError(t, err)
	assert.Equal(t, 1, d.SessionCount())
}

func TestDirectoryAttachReplacesAndClosesPriorHandle(t *testing.T) {
	rec := newEvictRecorder()
	d := NewDirectory(time.Minute, rec.fn, nil)
	d.Create("tok1", "p1", "ABC234")

	first := NewHandle("c1", 4)
	require.NoError(t, d.Attach("tok1", first))

	second := NewHandle("c2", 4)
	require.NoError(t, d.Attach("tok1", second))
	assert.True(t, first.IsClosed())

	conn, ok := d.ConnFor("p1")
	require.True(t, ok)
	assert.Same(t, Conn(second), conn)

	assert.ErrorIs(t, d.Attach("nope", NewHandle("c3", 4)), ErrSessionNotFound)
}

func TestDirectoryGraceExpiryEvictsExactlyOnce(t *testing.T) {
	rec := newEvictRecorder()
	d := NewDirectory(20*time.Millisecond, rec.fn, nil)
	d.Create("tok1", "p1", "ABC234")

	conn := NewHandle("c1", 4)
	require.NoError(t, d.Attach("tok1", conn))
	d.Detach("tok1", conn)

	select {
	case ev := <-rec.ch:
		assert.Equal(t, eviction{"p1", "ABC234"}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("eviction callback did not fire")
	}

	_, _, err := d.Resolve("tok1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, d.SessionCount())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count(), "grace expiry must evict exactly once")
}

func TestDirectoryReattachCancelsGrace(t *testing.T) {
	rec := newEvictRecorder()
	d := NewDirectory(30*time.Millisecond, rec.fn, nil)
	d.Create("tok1", "p1", "ABC234")

	conn := NewHandle("c1", 4)
	require.NoError(t, d.Attach("tok1", conn))
	d.Detach("tok1", conn)

	require.NoError(t, d.Attach("tok1", NewHandle("c2", 4)))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count(), "reattachment within grace must cancel the eviction")
	_, _, err := d.Resolve("tok1")
	assert.NoError(t, err)
}

func TestDirectoryStaleDetachIsIgnored(t *testing.T) {
	rec := newEvictRecorder()
	d := NewDirectory(20*time.Millisecond, rec.fn, nil)
	d.Create("tok1", "p1", "ABC234")

	old := NewHandle("c1", 4)
	require.NoError(t, d.Attach("tok1", old))
	fresh := NewHandle("c2", 4)
	require.NoError(t, d.Attach("tok1", fresh))

	// The old connection's teardown races the takeover; it must not start
	// a grace period against the fresh connection.
	d.Detach("tok1", old)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	conn, ok := d.ConnFor("p1")
	require.True(t, ok)
	assert.Same(t, Conn(fresh), conn)
}

func TestDirectoryRemoveSkipsCallbackAndClosesHandle(t *testing.T) {
	rec := newEvictRecorder()
	d := NewDirectory(20*time.Millisecond, rec.fn, nil)
	d.Create("tok1", "p1", "ABC234")

	conn := NewHandle("c1", 4)
	require.NoError(t, d.Attach("tok1", conn))

	d.Remove("p1")
	assert.True(t, conn.IsClosed())
	assert.Equal(t, 0, d.SessionCount())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count(), "explicit removal must not trigger the eviction callback")
}

func TestDirectoryRemoveDuringGrace(t *testing.T) {
	rec := newEvictRecorder()
	d := NewDirectory(20*time.Millisecond, rec.fn, nil)
	d.Create("tok1", "p1", "ABC234")

	conn := NewHandle("c1", 4)
	require.NoError(t, d.Attach("tok1", conn))
	d.Detach("tok1", conn)
	d.Remove("p1")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestDirectoryConnForDisconnectedIdentity(t *testing.T) {
	rec := newEvictRecorder()
	d := NewDirectory(time.Minute, rec.fn, nil)
	d.Create("tok1", "p1", "ABC234")

	_, ok := d.ConnFor("p1")
	assert.False(t, ok)

	conn := NewHandle("c1", 4)
	require.NoError(t, d.Attach("tok1", conn))
	d.Detach("tok1", conn)
	_, ok = d.ConnFor("p1")
	assert.False(t, ok)
}

func TestDirectoryTouchRefreshesLastSeen(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := newEvictRecorder()
	d := NewDirectory(time.Minute, rec.fn, func() time.Time { return clock })

	d.Create("tok1", "p1", "ABC234")
	clock = clock.Add(time.Hour)
	d.Touch("tok1")

	d.mu.Lock()
	lastSeen := d.sessions["tok1"].lastSeen
	d.mu.Unlock()
	assert.Equal(t, clock, lastSeen)
}
