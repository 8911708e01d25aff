package room

import (
	"strings"
	"time"
)

// EndReason identifies the trigger that resolved a round.
type EndReason string

// Round end reasons. Every resolution path funnels through one of these.
const (
	ReasonVoting    EndReason = "voting"
	ReasonSpyGuess  EndReason = "spy-guess"
	ReasonTimeUp    EndReason = "time-up"
	ReasonHostEnded EndReason = "host-ended"
	ReasonSpyLeft   EndReason = "spy-left"
)

// Results is the immutable outcome snapshot of one resolved round. It is
// computed exactly once when the round resolves and retained until the next
// return to lobby; readers never recompute the winner from live state.
type Results struct {
	// Reason is the trigger that resolved the round.
	Reason EndReason `json:"reason"`
	// SpyID is the identity that held the spy role.
	SpyID string `json:"spyId"`
	// Location is the secret location of the round.
	Location string `json:"location"`
	// Votes maps identity ID to received vote count at resolution time.
	Votes map[string]int `json:"votes"`
	// MostVotedID is the tally winner, or empty when no votes were cast.
	MostVotedID string `json:"mostVotedId"`
	// HasVotes reports whether any vote was cast.
	HasVotes bool `json:"hasVotes"`
	// SpyWon reports the round outcome for the spy side.
	SpyWon bool `json:"spyWon"`
	// SpyGuess is the spy's location guess; empty unless Reason is
	// ReasonSpyGuess.
	SpyGuess string `json:"spyGuess,omitempty"`
	// SpyGuessedCorrectly reports whether SpyGuess matched Location.
	SpyGuessedCorrectly bool `json:"spyGuessedCorrectly"`
	// EndedAt is the instant the round resolved.
	EndedAt time.Time `json:"endedAt"`
}

// mostVoted returns the identity with the highest tally count. Ties break
// toward the target whose entry entered the tally first, so order must list
// tally keys in first-vote order. Returns "" when the tally is empty.
func mostVoted(tally map[string]int, order []string) string {
	winner := ""
	best := -1
	for _, id := range order {
		if count := tally[id]; count > best {
			best = count
			winner = id
		}
	}
	return winner
}

// guessMatches reports whether the spy's guess names the location,
// case-insensitively.
func guessMatches(guess, location string) bool {
	return guess != "" && strings.EqualFold(guess, location)
}
