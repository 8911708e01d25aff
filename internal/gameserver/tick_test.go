package gameserver

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/spyfall/internal/game/room"
)

func TestTickManagerInvokesCallbacks(t *testing.T) {
	tm := NewTickManager(20 * time.Millisecond)
	called := make(chan struct{}, 1)
	tm.Register("probe", func() {
		select {
		case called <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	tm.Start(ctx)

	select {
	case <-called:
	case <-ctx.Done():
		t.Fatal("tick callback not invoked within timeout")
	}
}

func TestTickManagerUnregisterStopsCallback(t *testing.T) {
	tm := NewTickManager(20 * time.Millisecond)
	var count atomic.Int64
	tm.Register("probe", func() { count.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tm.Start(ctx)

	time.Sleep(60 * time.Millisecond)
	tm.Unregister("probe")
	after := count.Load()
	time.Sleep(60 * time.Millisecond)
	assert.LessOrEqual(t, count.Load(), after+1, "tick continued after unregister")
}

func TestTickManagerRequiresPositiveInterval(t *testing.T) {
	assert.Panics(t, func() { NewTickManager(0) })
}

func TestCheckRoundTimersIgnoresUntimedRounds(t *testing.T) {
	f := newFixture(t, time.Minute)
	host, _, _, code := fullLobby(t, f)

	seconds := 0
	f.dispatcher.Handle(host.Client, Command{Type: OpStartRound, DurationSeconds: &seconds})
	host.drain(t)

	f.dispatcher.CheckRoundTimers()
	r, err := f.registry.Get(code)
	require.NoError(t, err)
	assert.Equal(t, room.PhaseRound, r.Phase())
	assert.Empty(t, host.drain(t))
}

func TestCheckRoundTimersResolvesExpiredRounds(t *testing.T) {
	f := newFixture(t, time.Minute)
	host, _, _, code := fullLobby(t, f)

	seconds := 1
	f.dispatcher.Handle(host.Client, Command{Type: OpStartRound, DurationSeconds: &seconds})
	host.drain(t)

	time.Sleep(1100 * time.Millisecond)
	f.dispatcher.CheckRoundTimers()

	r, err := f.registry.Get(code)
	require.NoError(t, err)
	assert.Equal(t, room.PhaseResults, r.Phase())

	ev := host.last(t)
	assert.Equal(t, EventRoundResolved, ev.Type)
	assert.Equal(t, room.ReasonTimeUp, ev.Game.Results.Reason)
}

func TestSweepInactiveRoomsDestroysSessions(t *testing.T) {
	f := newFixture(t, time.Minute)
	host, code := createRoom(t, f, "Alice")

	f.dispatcher.SweepInactiveRooms(time.Hour)
	_, err := f.registry.Get(code)
	assert.NoError(t, err, "active room survives the sweep")

	// A zero idle timeout makes every room stale.
	f.dispatcher.SweepInactiveRooms(0)
	_, err = f.registry.Get(code)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
	_, _, err = f.sessions.Resolve(host.token)
	assert.Error(t, err)
}
