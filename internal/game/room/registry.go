package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/cory-johannsen/spyfall/internal/game/pack"
	"github.com/cory-johannsen/spyfall/internal/game/random"
)

// Registry maps join codes to live rooms and identities to the room they
// belong to, and reaps rooms that have gone idle. It is a constructed
// service, not a package global, so tests instantiate isolated registries.
// All methods are safe for concurrent use; per-room mutation stays behind
// each Room's own lock.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room  // code → room
	byPlayer map[string]string // identity ID → code

	catalog  *pack.Catalog
	settings Settings
	rng      random.Source
	now      func() time.Time
}

// NewRegistry creates an empty Registry. nowFn may be nil (defaults to
// time.Now).
//
// Precondition: catalog and rng must be non-nil.
func NewRegistry(catalog *pack.Catalog, settings Settings, rng random.Source, nowFn func() time.Time) *Registry {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Registry{
		rooms:    make(map[string]*Room),
		byPlayer: make(map[string]string),
		catalog:  catalog,
		settings: settings,
		rng:      rng,
		now:      nowFn,
	}
}

// Create makes a new room in the lobby phase with host as its only member
// and registers it under a fresh join code.
//
// Postcondition: Returns the room; Get(room.Code()) and
// GetByPlayer(host.ID) both resolve to it.
func (g *Registry) Create(host *Player) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code, err := g.uniqueCodeLocked()
	if err != nil {
		return nil, err
	}
	r := New(code, host, g.catalog, g.settings, g.rng, g.now)
	g.rooms[code] = r
	g.byPlayer[host.ID] = code
	return r, nil
}

// uniqueCodeLocked draws join codes until one misses the live-room set.
func (g *Registry) uniqueCodeLocked() (string, error) {
	for attempt := 0; attempt < 64; attempt++ {
		code := generateCode(g.rng)
		if _, taken := g.rooms[code]; !taken {
			return code, nil
		}
	}
	// 31^6 codes; only reachable when the code space is all but full.
	return "", fmt.Errorf("registry: failed to allocate a unique join code")
}

// Get returns the room with the given join code.
//
// Postcondition: Returns ErrRoomNotFound when no such room exists.
func (g *Registry) Get(code string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// GetByPlayer returns the room the identity currently belongs to.
//
// Postcondition: Returns ErrRoomNotFound when the identity is not tracked.
func (g *Registry) GetByPlayer(playerID string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	code, ok := g.byPlayer[playerID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	r, ok := g.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Track binds an identity to the room it joined.
func (g *Registry) Track(playerID, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.byPlayer[playerID] = code
}

// Release unbinds an identity that left its room. The containing room is
// removed when its roster has emptied.
func (g *Registry) Release(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code, ok := g.byPlayer[playerID]
	if !ok {
		return
	}
	delete(g.byPlayer, playerID)
	if r, ok := g.rooms[code]; ok && r.Size() == 0 {
		delete(g.rooms, code)
	}
}

// Remove deletes the room and every identity binding into it.
func (g *Registry) Remove(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(code)
}

func (g *Registry) removeLocked(code string) {
	r, ok := g.rooms[code]
	if !ok {
		return
	}
	for _, id := range r.PlayerIDs() {
		delete(g.byPlayer, id)
	}
	delete(g.rooms, code)
}

// SweepInactive removes every room whose last activity predates the cutoff,
// regardless of roster size, and returns the removed rooms so the caller can
// release the contained identities' session records.
//
// Postcondition: No remaining room has LastActivityAt before cutoff.
func (g *Registry) SweepInactive(cutoff time.Time) []*Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	var swept []*Room
	for code, r := range g.rooms {
		if r.LastActivityAt().Before(cutoff) {
			swept = append(swept, r)
			g.removeLocked(code)
		}
	}
	return swept
}

// Rooms returns a snapshot of every live room.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, r)
	}
	return out
}

// RoomCount returns the number of live rooms.
func (g *Registry) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
