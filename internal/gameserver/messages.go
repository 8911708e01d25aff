// Package gameserver provides the dispatcher boundary around the room
// engine: the wire envelopes, the WebSocket acceptor, the per-room event
// fan-out, and the periodic ticks that drive round timers and idle-room
// sweeps.
package gameserver

import "github.com/cory-johannsen/spyfall/internal/game/room"

// Inbound operation names.
const (
	OpCreateRoom       = "create-room"
	OpJoinRoom         = "join-room"
	OpReconnect        = "reconnect"
	OpSetReady         = "set-ready"
	OpSetLocationPacks = "set-location-packs"
	OpSetRoundDuration = "set-round-duration"
	OpStartRound       = "start-round"
	OpCallForVote      = "call-for-vote"
	OpRecordVote       = "record-vote"
	OpBeginSpyGuess    = "begin-spy-guess"
	OpMakeSpyGuess     = "make-spy-guess"
	OpEndRoundEarly    = "end-round-early"
	OpReturnToLobby    = "return-to-lobby"
	OpPromoteHost      = "promote-host"
	OpRemovePlayer     = "remove-player"
	OpLeaveRoom        = "leave-room"
)

// Outbound event names.
const (
	EventRoomCreated        = "room-created"
	EventRoomJoined         = "room-joined"
	EventReconnectSucceeded = "reconnect-succeeded"
	EventReconnectFailed    = "reconnect-failed"
	EventRosterChanged      = "roster-changed"
	EventReadyChanged       = "ready-changed"
	EventPacksChanged       = "packs-changed"
	EventSettingsChanged    = "settings-changed"
	EventRoundStarted       = "round-started"
	EventVoteCallChanged    = "vote-call-changed"
	EventVotingStarted      = "voting-started"
	EventVoteRecorded       = "vote-recorded"
	EventSpyGuessing        = "spy-guessing-started"
	EventRoundResolved      = "round-resolved"
	EventReturnedToLobby    = "returned-to-lobby"
	EventHostChanged        = "host-changed"
	EventPlayerRemoved      = "player-removed"
	EventRejected           = "rejected"
)

// Command is the JSON envelope received from clients. Type selects the
// operation; the remaining fields are operation-specific.
type Command struct {
	Type string `json:"type"`
	// Token is the client-held session secret (create/join/reconnect).
	Token string `json:"token,omitempty"`
	// Name is the display name (create/join).
	Name string `json:"name,omitempty"`
	// RoomCode is the join code (join).
	RoomCode string `json:"roomCode,omitempty"`
	// PackIDs selects location packs (set-location-packs).
	PackIDs []string `json:"packIds,omitempty"`
	// DurationSeconds sets the round length; 0 = untimed
	// (set-round-duration, start-round override).
	DurationSeconds *int `json:"durationSeconds,omitempty"`
	// TargetID names another player (record-vote, promote-host,
	// remove-player).
	TargetID string `json:"targetId,omitempty"`
	// Guess is the spy's location guess (make-spy-guess).
	Guess string `json:"guess,omitempty"`
}

// Event is the JSON envelope pushed to clients. Game always carries the
// per-viewer projection of the room the event happened in, so no event
// reveals state its receiver may not see.
type Event struct {
	Type string `json:"type"`
	// Op echoes the rejected operation (rejected only).
	Op string `json:"op,omitempty"`
	// Code is the machine-readable rejection reason (rejected,
	// reconnect-failed).
	Code string `json:"code,omitempty"`
	// Message is the human-readable rejection reason.
	Message string `json:"message,omitempty"`
	// Token is the session secret issued on create/join.
	Token string `json:"token,omitempty"`
	// PlayerID identifies the acting or affected player.
	PlayerID string `json:"playerId,omitempty"`
	// NewHostID identifies the promoted host (host-changed,
	// player-removed).
	NewHostID string `json:"newHostId,omitempty"`
	// Game is the per-viewer room projection.
	Game *room.View `json:"game,omitempty"`
}
