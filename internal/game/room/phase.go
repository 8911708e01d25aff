// Package room provides the authoritative state machine for one Spyfall
// session: the roster, round lifecycle, vote tally, and per-viewer
// projections, plus the registry that maps join codes to live rooms.
package room

import "fmt"

// Phase is a stage in the room lifecycle.
type Phase int

// Room lifecycle phases. A room cycles Lobby → Round → {SpyGuessing, Voting}
// → Results → Lobby; Round may also resolve directly to Results on time
// expiry, an early end, or the spy leaving.
const (
	PhaseLobby Phase = iota
	PhaseRound
	PhaseSpyGuessing
	PhaseVoting
	PhaseResults
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseRound:
		return "round"
	case PhaseSpyGuessing:
		return "spy-guessing"
	case PhaseVoting:
		return "voting"
	case PhaseResults:
		return "results"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler so views serialize phases
// by name rather than ordinal.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, the inverse of
// MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "lobby":
		*p = PhaseLobby
	case "round":
		*p = PhaseRound
	case "spy-guessing":
		*p = PhaseSpyGuessing
	case "voting":
		*p = PhaseVoting
	case "results":
		*p = PhaseResults
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// inRound reports whether p is one of the phases where a round is live and
// exactly one roster member holds the spy role.
func (p Phase) inRound() bool {
	switch p {
	case PhaseRound, PhaseSpyGuessing, PhaseVoting:
		return true
	case PhaseLobby, PhaseResults:
		return false
	default:
		return false
	}
}
