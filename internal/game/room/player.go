package room

// Player is a durable participant identity within one room, independent of
// any single connection attempt. The containing Room owns the struct; no
// other component mutates it.
type Player struct {
	// ID is the opaque unique identity token (a UUID in practice).
	ID string
	// Name is the display name chosen at join time.
	Name string
	// Ready reports lobby readiness for the next round.
	Ready bool
	// IsSpy is true for exactly one roster member while a round is live.
	IsSpy bool
	// HasVoted reports whether the player has a vote currently recorded.
	HasVoted bool
	// VotedFor is the identity the current vote targets; empty when
	// HasVoted is false.
	VotedFor string
}

// NewPlayer creates an unready player with the given identity and name.
func NewPlayer(id, name string) *Player {
	return &Player{ID: id, Name: name}
}

// resetForRound clears per-round state at the start of a new round.
func (p *Player) resetForRound() {
	p.IsSpy = false
	p.HasVoted = false
	p.VotedFor = ""
}
