package room

// Rejection is a synchronous refusal of an inbound operation: a precondition
// violation or a failed lookup. Rejections carry a machine-readable code for
// the dispatcher to relay to the requester; they are never retried and never
// mutate room state.
type Rejection struct {
	// Code is the stable machine-readable reason identifier.
	Code string
	// Reason is a human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return "room: " + r.Reason
}

// Sentinel rejections. Matched with errors.Is; each inbound operation either
// succeeds or returns exactly one of these (or an internal error for
// invariant failures).
var (
	ErrRoomNotJoinable   = &Rejection{Code: "room-not-joinable", Reason: "cannot join a room once its round has started"}
	ErrRoomFull          = &Rejection{Code: "room-full", Reason: "room is at maximum capacity"}
	ErrWrongPhase        = &Rejection{Code: "wrong-phase", Reason: "operation not allowed in the current phase"}
	ErrNotHost           = &Rejection{Code: "not-host", Reason: "only the host may perform this operation"}
	ErrNotSpy            = &Rejection{Code: "not-spy", Reason: "only the spy may perform this operation"}
	ErrSpyCannotCallVote = &Rejection{Code: "spy-cannot-call-vote", Reason: "the spy cannot call for a vote"}
	ErrPlayersNotReady   = &Rejection{Code: "players-not-ready", Reason: "not enough ready players to start a round"}
	ErrPlayerNotFound    = &Rejection{Code: "player-not-found", Reason: "no such player in this room"}
	ErrRoomNotFound      = &Rejection{Code: "room-not-found", Reason: "no room with that code"}
	ErrCannotTargetSelf  = &Rejection{Code: "cannot-target-self", Reason: "operation cannot target the requester"}
)

// RejectionCode returns the machine-readable code for err when it is a
// Rejection, or "internal" otherwise.
func RejectionCode(err error) string {
	if r, ok := err.(*Rejection); ok {
		return r.Code
	}
	return "internal"
}
