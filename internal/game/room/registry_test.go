package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/spyfall/internal/game/random"
)

func newTestRegistry(t *testing.T, nowFn func() time.Time) *Registry {
	t.Helper()
	return NewRegistry(testCatalog(t), testSettings(), random.NewCryptoSource(), nowFn)
}

func TestRegistryCreateAndGet(t *testing.T) {
	reg := newTestRegistry(t, nil)

	r, err := reg.Create(NewPlayer("p1", "Alice"))
	require.NoError(t, err)
	assert.Len(t, r.Code(), codeLength)

	got, err := reg.Get(r.Code())
	require.NoError(t, err)
	assert.Same(t, r, got)

	byPlayer, err := reg.GetByPlayer("p1")
	require.NoError(t, err)
	assert.Same(t, r, byPlayer)

	_, err = reg.Get("ZZZZZZ")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = reg.GetByPlayer("nobody")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryUniqueCodes(t *testing.T) {
	reg := newTestRegistry(t, nil)

	codes := make(map[string]bool)
	for i := 0; i < 20; i++ {
		r, err := reg.Create(NewPlayer("host"+string(rune('a'+i)), "Host"))
		require.NoError(t, err)
		assert.False(t, codes[r.Code()], "duplicate join code %q", r.Code())
		codes[r.Code()] = true
	}
	assert.Equal(t, 20, reg.RoomCount())
}

func TestRegistryTrackAndRelease(t *testing.T) {
	reg := newTestRegistry(t, nil)

	r, err := reg.Create(NewPlayer("p1", "Alice"))
	require.NoError(t, err)
	require.NoError(t, r.Join(NewPlayer("p2", "Bob")))
	reg.Track("p2", r.Code())

	got, err := reg.GetByPlayer("p2")
	require.NoError(t, err)
	assert.Same(t, r, got)

	_, err = r.RemovePlayer("p2")
	require.NoError(t, err)
	reg.Release("p2")
	_, err = reg.GetByPlayer("p2")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, 1, reg.RoomCount(), "non-empty room survives a member's release")

	_, err = r.RemovePlayer("p1")
	require.NoError(t, err)
	reg.Release("p1")
	assert.Equal(t, 0, reg.RoomCount(), "emptied room is removed")
}

func TestRegistryRemoveUnbindsPlayers(t *testing.T) {
	reg := newTestRegistry(t, nil)

	r, err := reg.Create(NewPlayer("p1", "Alice"))
	require.NoError(t, err)
	require.NoError(t, r.Join(NewPlayer("p2", "Bob")))
	reg.Track("p2", r.Code())

	reg.Remove(r.Code())
	_, err = reg.Get(r.Code())
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = reg.GetByPlayer("p1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = reg.GetByPlayer("p2")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistrySweepInactive(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg := newTestRegistry(t, func() time.Time { return clock })

	stale, err := reg.Create(NewPlayer("p1", "Alice"))
	require.NoError(t, err)

	clock = clock.Add(2 * time.Hour)
	fresh, err := reg.Create(NewPlayer("p2", "Bob"))
	require.NoError(t, err)

	swept := reg.SweepInactive(clock.Add(-time.Hour))
	require.Len(t, swept, 1)
	assert.Same(t, stale, swept[0])

	_, err = reg.Get(stale.Code())
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = reg.GetByPlayer("p1")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	got, err := reg.Get(fresh.Code())
	require.NoError(t, err)
	assert.Same(t, fresh, got)
}

func TestRegistrySweepSparesActiveRooms(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg := newTestRegistry(t, func() time.Time { return clock })

	r, err := reg.Create(NewPlayer("p1", "Alice"))
	require.NoError(t, err)

	// Activity keeps refreshing the room past the cutoff.
	clock = clock.Add(2 * time.Hour)
	_, err = r.ToggleReady("p1")
	require.NoError(t, err)

	swept := reg.SweepInactive(clock.Add(-time.Hour))
	assert.Empty(t, swept)
	assert.Equal(t, 1, reg.RoomCount())
}
