package session

import (
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned when a token resolves to no live session.
var ErrSessionNotFound = errors.New("session: not found")

// EvictFunc is invoked when a disconnected identity's grace period elapses
// without reattachment. It runs outside the directory lock; the dispatcher
// uses it to remove the player from their room and broadcast the departure.
type EvictFunc func(playerID, roomCode string)

// record is one session: the binding of a client-held token to an identity
// and room, plus the current live connection handle.
type record struct {
	token    string
	playerID string
	roomCode string
	lastSeen time.Time
	conn     Conn
}

// Directory tracks all live sessions and owns the reconnect grace period.
// The connection handle is the one field legitimately written from two
// racing triggers (a new connection attaching vs. the grace timer firing);
// both paths serialize behind the directory lock, and a grace timer is
// cancelled exactly once, either by reattachment or by its own firing.
// All methods are safe for concurrent use.
type Directory struct {
	mu       sync.Mutex
	sessions map[string]*record // token → record
	byPlayer map[string]string  // playerID → token
	// graceSeq invalidates pending timers: each Detach bumps the
	// identity's generation and a firing timer evicts only when its
	// captured generation is still current.
	graceSeq map[string]int
	timers   map[string]*time.Timer

	grace   time.Duration
	onEvict EvictFunc
	now     func() time.Time
}

// NewDirectory creates an empty Directory with the given grace period.
// nowFn may be nil (defaults to time.Now).
//
// Precondition: grace must be > 0; onEvict must be non-nil.
func NewDirectory(grace time.Duration, onEvict EvictFunc, nowFn func() time.Time) *Directory {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Directory{
		sessions: make(map[string]*record),
		byPlayer: make(map[string]string),
		graceSeq: make(map[string]int),
		timers:   make(map[string]*time.Timer),
		grace:    grace,
		onEvict:  onEvict,
		now:      nowFn,
	}
}

// Create registers a session binding token to the identity and room. Any
// prior session for the same identity is discarded (its token stops
// resolving and any pending grace timer is cancelled).
func (d *Directory) Create(token, playerID, roomCode string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if old, ok := d.byPlayer[playerID]; ok {
		delete(d.sessions, old)
		d.cancelGraceLocked(playerID)
	}
	d.sessions[token] = &record{
		token:    token,
		playerID: playerID,
		roomCode: roomCode,
		lastSeen: d.now(),
	}
	d.byPlayer[playerID] = token
}

// Resolve returns the identity and room bound to token.
//
// Postcondition: Returns ErrSessionNotFound for unknown tokens.
func (d *Directory) Resolve(token string) (playerID, roomCode string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.sessions[token]
	if !ok {
		return "", "", ErrSessionNotFound
	}
	return rec.playerID, rec.roomCode, nil
}

// Attach binds a live connection handle to the session and cancels any
// pending grace timer for its identity. A previously attached handle is
// closed first.
//
// Postcondition: Returns ErrSessionNotFound for unknown tokens; otherwise
// the identity will not be evicted while the handle stays attached.
func (d *Directory) Attach(token string, conn Conn) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.sessions[token]
	if !ok {
		return ErrSessionNotFound
	}
	if rec.conn != nil && rec.conn != conn {
		_ = rec.conn.Close()
	}
	rec.conn = conn
	rec.lastSeen = d.now()
	d.cancelGraceLocked(rec.playerID)
	return nil
}

// Detach clears the session's connection handle and starts the grace timer.
// Starting a new timer cancels any prior one for the same identity; if the
// period elapses without a reattachment the session is deleted and the
// eviction callback runs.
//
// The conn argument guards against a stale detach: when non-nil and a
// different handle has since attached to the session, the call is a no-op.
func (d *Directory) Detach(token string, conn Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.sessions[token]
	if !ok {
		return
	}
	if conn != nil && rec.conn != nil && rec.conn != conn {
		return
	}
	rec.conn = nil
	rec.lastSeen = d.now()

	playerID := rec.playerID
	d.cancelGraceLocked(playerID)
	d.graceSeq[playerID]++
	seq := d.graceSeq[playerID]
	d.timers[playerID] = time.AfterFunc(d.grace, func() {
		d.expireGrace(playerID, seq)
	})
}

// expireGrace is the grace-timer body: it evicts the identity iff the timer
// generation is still current and no connection reattached.
func (d *Directory) expireGrace(playerID string, seq int) {
	d.mu.Lock()
	if d.graceSeq[playerID] != seq {
		d.mu.Unlock()
		return
	}
	delete(d.timers, playerID)
	delete(d.graceSeq, playerID)

	token, ok := d.byPlayer[playerID]
	if !ok {
		d.mu.Unlock()
		return
	}
	rec := d.sessions[token]
	if rec == nil || rec.conn != nil {
		d.mu.Unlock()
		return
	}
	roomCode := rec.roomCode
	delete(d.sessions, token)
	delete(d.byPlayer, playerID)
	d.mu.Unlock()

	// Outside the lock: the callback walks back into rooms and may call
	// Remove on this directory.
	d.onEvict(playerID, roomCode)
}

// CancelGrace stops any pending grace timer for the identity without
// touching the session itself.
func (d *Directory) CancelGrace(playerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelGraceLocked(playerID)
}

// cancelGraceLocked invalidates the identity's pending timer, if any. The
// generation counter only ever increments while the identity is tracked; a
// timer that already fired and is waiting on the lock must never observe its
// own generation again.
func (d *Directory) cancelGraceLocked(playerID string) {
	if t, ok := d.timers[playerID]; ok {
		t.Stop()
		delete(d.timers, playerID)
	}
	d.graceSeq[playerID]++
}

// Remove destroys the identity's session explicitly (the player left or was
// removed). The eviction callback does not run; the handle, if attached, is
// closed.
func (d *Directory) Remove(playerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelGraceLocked(playerID)
	delete(d.graceSeq, playerID)
	token, ok := d.byPlayer[playerID]
	if !ok {
		return
	}
	if rec := d.sessions[token]; rec != nil && rec.conn != nil {
		_ = rec.conn.Close()
	}
	delete(d.sessions, token)
	delete(d.byPlayer, playerID)
}

// ConnFor returns the identity's live connection handle.
//
// Postcondition: Returns (nil, false) when the identity has no session or is
// currently disconnected.
func (d *Directory) ConnFor(playerID string) (Conn, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	token, ok := d.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	rec := d.sessions[token]
	if rec == nil || rec.conn == nil {
		return nil, false
	}
	return rec.conn, true
}

// Touch refreshes the session's last-seen timestamp.
func (d *Directory) Touch(token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rec, ok := d.sessions[token]; ok {
		rec.lastSeen = d.now()
	}
}

// SessionCount returns the number of live sessions.
func (d *Directory) SessionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}
