package gameserver

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spyfall/internal/game/room"
	"github.com/cory-johannsen/spyfall/internal/game/session"
)

// Client is the per-connection state the dispatcher tracks: the connection
// handle plus the session binding established by create/join/reconnect.
// A Client is driven by a single read loop; its fields are not shared.
type Client struct {
	conn     session.Conn
	token    string
	playerID string
}

// NewClient wraps a connection handle for dispatching.
func NewClient(conn session.Conn) *Client {
	return &Client{conn: conn}
}

// Dispatcher routes inbound commands to the owning room, applies the
// boundary-level authorization the room does not (host-only early end,
// host-only removal, self-target checks), and fans resulting events out to
// every member's connection with per-viewer projections.
type Dispatcher struct {
	registry *room.Registry
	sessions *session.Directory
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher over the given registry and session
// directory.
//
// Precondition: registry, sessions, and logger must be non-nil. The
// directory's eviction callback must be wired to EvictPlayer.
func NewDispatcher(registry *room.Registry, sessions *session.Directory, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		sessions: sessions,
		logger:   logger,
	}
}

// Handle processes one inbound command for the client. Every command yields
// either a success event or an explicit rejection; nothing is silently
// dropped.
func (d *Dispatcher) Handle(c *Client, cmd Command) {
	if c.token != "" {
		d.sessions.Touch(c.token)
	}

	switch cmd.Type {
	case OpCreateRoom:
		d.handleCreate(c, cmd)
	case OpJoinRoom:
		d.handleJoin(c, cmd)
	case OpReconnect:
		d.handleReconnect(c, cmd)
	case OpLeaveRoom:
		d.handleLeave(c, cmd)
	default:
		d.handleInRoom(c, cmd)
	}
}

// handleInRoom covers every operation that requires an established room
// membership.
func (d *Dispatcher) handleInRoom(c *Client, cmd Command) {
	r, err := d.registry.GetByPlayer(c.playerID)
	if err != nil {
		d.reject(c, cmd, err)
		return
	}

	switch cmd.Type {
	case OpSetReady:
		_, err := r.ToggleReady(c.playerID)
		if err != nil {
			d.reject(c, cmd, err)
			return
		}
		d.broadcast(r, Event{Type: EventReadyChanged, PlayerID: c.playerID})

	case OpSetLocationPacks:
		if _, err := r.SetLocationPacks(c.playerID, cmd.PackIDs); err != nil {
			d.reject(c, cmd, err)
			return
		}
		d.broadcast(r, Event{Type: EventPacksChanged, PlayerID: c.playerID})

	case OpSetRoundDuration:
		if cmd.DurationSeconds == nil {
			d.reject(c, cmd, &room.Rejection{Code: "invalid-duration", Reason: "durationSeconds is required"})
			return
		}
		if err := r.SetRoundDuration(c.playerID, time.Duration(*cmd.DurationSeconds)*time.Second); err != nil {
			d.reject(c, cmd, err)
			return
		}
		d.broadcast(r, Event{Type: EventSettingsChanged, PlayerID: c.playerID})

	case OpStartRound:
		var opts room.StartOptions
		if cmd.DurationSeconds != nil {
			dur := time.Duration(*cmd.DurationSeconds) * time.Second
			opts.RoundDuration = &dur
		}
		if _, err := r.StartRound(c.playerID, opts); err != nil {
			d.reject(c, cmd, err)
			return
		}
		d.broadcast(r, Event{Type: EventRoundStarted})

	case OpCallForVote:
		_, votingStarted, err := r.CallForVote(c.playerID)
		if err != nil {
			d.reject(c, cmd, err)
			return
		}
		d.broadcast(r, Event{Type: EventVoteCallChanged, PlayerID: c.playerID})
		if votingStarted {
			d.broadcast(r, Event{Type: EventVotingStarted})
		}

	case OpRecordVote:
		results, err := r.RecordVote(c.playerID, cmd.TargetID)
		if err != nil {
			d.reject(c, cmd, err)
			return
		}
		d.broadcast(r, Event{Type: EventVoteRecorded, PlayerID: c.playerID})
		if results != nil {
			d.broadcast(r, Event{Type: EventRoundResolved})
		}

	case OpBeginSpyGuess:
		if err := r.BeginSpyGuess(c.playerID); err != nil {
			d.reject(c, cmd, err)
			return
		}
		d.broadcast(r, Event{Type: EventSpyGuessing, PlayerID: c.playerID})

	case OpMakeSpyGuess:
		if _, err := r.MakeSpyGuess(c.playerID, cmd.Guess); err != nil {
			d.reject(c, cmd, err)
			return
		}
		d.broadcast(r, Event{Type: EventRoundResolved, PlayerID: c.playerID})

	case OpEndRoundEarly:
		if c.playerID != r.HostID() {
			d.reject(c, cmd, room.ErrNotHost)
			return
		}
		if _, err := r.EndRoundEarly(room.ReasonHostEnded); err != nil {
			d.reject(c, cmd, err)
			return
		}
		d.broadcast(r, Event{Type: EventRoundResolved})

	case OpReturnToLobby:
		if err := r.ReturnToLobby(c.playerID); err != nil {
			d.reject(c, cmd, err)
			return
		}
		d.broadcast(r, Event{Type: EventReturnedToLobby})

	case OpPromoteHost:
		if err := r.PromoteHost(c.playerID, cmd.TargetID); err != nil {
			d.reject(c, cmd, err)
			return
		}
		d.broadcast(r, Event{Type: EventHostChanged, NewHostID: cmd.TargetID})

	case OpRemovePlayer:
		d.handleRemove(c, cmd, r)

	default:
		d.reject(c, cmd, &room.Rejection{Code: "unknown-operation", Reason: "unknown operation " + cmd.Type})
	}
}

func (d *Dispatcher) handleCreate(c *Client, cmd Command) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		d.reject(c, cmd, &room.Rejection{Code: "invalid-name", Reason: "display name must not be empty"})
		return
	}

	playerID := uuid.NewString()
	token := cmd.Token
	if token == "" {
		token = uuid.NewString()
	}

	host := room.NewPlayer(playerID, name)
	r, err := d.registry.Create(host)
	if err != nil {
		d.reject(c, cmd, err)
		return
	}
	d.sessions.Create(token, playerID, r.Code())
	_ = d.sessions.Attach(token, c.conn)
	c.token = token
	c.playerID = playerID

	d.logger.Info("room created",
		zap.String("room", r.Code()),
		zap.String("host", playerID),
	)
	view := r.View(playerID)
	d.send(c, Event{Type: EventRoomCreated, Token: token, PlayerID: playerID, Game: &view})
}

func (d *Dispatcher) handleJoin(c *Client, cmd Command) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		d.reject(c, cmd, &room.Rejection{Code: "invalid-name", Reason: "display name must not be empty"})
		return
	}

	r, err := d.registry.Get(strings.ToUpper(strings.TrimSpace(cmd.RoomCode)))
	if err != nil {
		d.reject(c, cmd, err)
		return
	}

	playerID := uuid.NewString()
	p := room.NewPlayer(playerID, name)
	if err := r.Join(p); err != nil {
		d.reject(c, cmd, err)
		return
	}
	d.registry.Track(playerID, r.Code())

	token := cmd.Token
	if token == "" {
		token = uuid.NewString()
	}
	d.sessions.Create(token, playerID, r.Code())
	_ = d.sessions.Attach(token, c.conn)
	c.token = token
	c.playerID = playerID

	d.logger.Info("player joined",
		zap.String("room", r.Code()),
		zap.String("player", playerID),
	)
	view := r.View(playerID)
	d.send(c, Event{Type: EventRoomJoined, Token: token, PlayerID: playerID, Game: &view})
	d.broadcast(r, Event{Type: EventRosterChanged, PlayerID: playerID})
}

func (d *Dispatcher) handleReconnect(c *Client, cmd Command) {
	playerID, roomCode, err := d.sessions.Resolve(cmd.Token)
	if err != nil {
		d.send(c, Event{Type: EventReconnectFailed, Code: "session-not-found", Message: "session not found"})
		return
	}
	r, err := d.registry.Get(roomCode)
	if err != nil {
		d.send(c, Event{Type: EventReconnectFailed, Code: room.RejectionCode(err), Message: err.Error()})
		return
	}
	if err := d.sessions.Attach(cmd.Token, c.conn); err != nil {
		d.send(c, Event{Type: EventReconnectFailed, Code: "session-not-found", Message: "session not found"})
		return
	}
	c.token = cmd.Token
	c.playerID = playerID

	d.logger.Info("player reconnected",
		zap.String("room", roomCode),
		zap.String("player", playerID),
	)
	view := r.View(playerID)
	d.send(c, Event{Type: EventReconnectSucceeded, PlayerID: playerID, Game: &view})
}

func (d *Dispatcher) handleLeave(c *Client, cmd Command) {
	r, err := d.registry.GetByPlayer(c.playerID)
	if err != nil {
		d.reject(c, cmd, err)
		return
	}
	playerID := c.playerID
	d.sessions.Remove(playerID)
	c.token = ""
	c.playerID = ""

	d.removeFromRoom(r, playerID, EventRosterChanged)
}

// handleRemove is the host-initiated removal: host-only, cannot target the
// host themselves; the removed player's session is destroyed, which also
// closes their connection.
func (d *Dispatcher) handleRemove(c *Client, cmd Command, r *room.Room) {
	if c.playerID != r.HostID() {
		d.reject(c, cmd, room.ErrNotHost)
		return
	}
	if cmd.TargetID == c.playerID {
		d.reject(c, cmd, room.ErrCannotTargetSelf)
		return
	}
	if _, err := d.registry.GetByPlayer(cmd.TargetID); err != nil {
		d.reject(c, cmd, room.ErrPlayerNotFound)
		return
	}

	d.sessions.Remove(cmd.TargetID)
	d.removeFromRoom(r, cmd.TargetID, EventPlayerRemoved)
}

// EvictPlayer is the session directory's grace-expiry callback: the
// disconnected identity did not return in time and leaves its room. Runs on
// the timer goroutine; room mutation serializes behind the room's own lock.
func (d *Dispatcher) EvictPlayer(playerID, roomCode string) {
	r, err := d.registry.Get(roomCode)
	if err != nil {
		return
	}
	d.logger.Info("player evicted after grace period",
		zap.String("room", roomCode),
		zap.String("player", playerID),
	)
	d.removeFromRoom(r, playerID, EventPlayerRemoved)
}

// removeFromRoom applies a roster removal and its boundary side effects:
// registry release, departure broadcast, and the explicit spy-left round
// resolution when the removed player held the spy role mid-round.
func (d *Dispatcher) removeFromRoom(r *room.Room, playerID, eventType string) {
	out, err := r.RemovePlayer(playerID)
	if err != nil {
		d.registry.Release(playerID)
		return
	}
	d.registry.Release(playerID)

	if out.RosterSize == 0 {
		d.logger.Info("room emptied", zap.String("room", r.Code()))
		return
	}

	d.broadcast(r, Event{Type: eventType, PlayerID: playerID, NewHostID: out.NewHostID})
	if out.WasSpy {
		if _, err := r.EndRoundEarly(room.ReasonSpyLeft); err == nil {
			d.broadcast(r, Event{Type: EventRoundResolved})
		}
	}
}

// Disconnected is invoked by the transport when a client's connection
// closes. Disconnection is not an error and not a departure: it opens the
// reconnect grace period; only its expiry changes the roster.
func (d *Dispatcher) Disconnected(c *Client) {
	if c.token == "" {
		return
	}
	d.logger.Debug("connection detached",
		zap.String("player", c.playerID),
	)
	d.sessions.Detach(c.token, c.conn)
}

// reject reports a synchronous refusal to the requester with its
// machine-readable reason code.
func (d *Dispatcher) reject(c *Client, cmd Command, err error) {
	d.send(c, Event{Type: EventRejected, Op: cmd.Type, Code: room.RejectionCode(err), Message: err.Error()})
}

// send pushes one event to a single client.
func (d *Dispatcher) send(c *Client, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		d.logger.Error("marshalling event", zap.Error(err))
		return
	}
	if err := c.conn.Push(data); err != nil {
		d.logger.Debug("push failed", zap.Error(err))
	}
}

// broadcast fans an event out to every room member with that member's own
// projection attached. Disconnected members are skipped; they receive fresh
// state on reconnect.
func (d *Dispatcher) broadcast(r *room.Room, ev Event) {
	for _, playerID := range r.PlayerIDs() {
		conn, ok := d.sessions.ConnFor(playerID)
		if !ok {
			continue
		}
		view := r.View(playerID)
		ev := ev
		ev.Game = &view
		data, err := json.Marshal(ev)
		if err != nil {
			d.logger.Error("marshalling event", zap.Error(err))
			return
		}
		if err := conn.Push(data); err != nil {
			d.logger.Debug("push failed",
				zap.String("player", playerID),
				zap.Error(err),
			)
		}
	}
}
