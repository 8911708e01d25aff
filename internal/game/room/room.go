package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/cory-johannsen/spyfall/internal/game/pack"
	"github.com/cory-johannsen/spyfall/internal/game/random"
)

// Settings holds the tunables a Room is created with.
type Settings struct {
	// MinPlayers is the roster size required to leave the lobby.
	MinPlayers int
	// MaxPlayers is the roster capacity.
	MaxPlayers int
	// RoundsLimit is the advertised number of rounds per game. Rounds
	// accumulate toward it across returns to lobby; it is reported, not
	// enforced.
	RoundsLimit int
	// RoundDuration is the default round length; 0 = untimed.
	RoundDuration time.Duration
}

// StartOptions carries optional overrides supplied with a start-round request.
type StartOptions struct {
	// RoundDuration, when non-nil, replaces the room's round duration for
	// this and subsequent rounds (0 = untimed).
	RoundDuration *time.Duration
}

// RemoveOutcome describes the side effects of removing a roster member, so
// the caller can decide whether follow-up transitions are needed.
type RemoveOutcome struct {
	// WasHost reports whether the removed player held the host role.
	WasHost bool
	// NewHostID is the promoted host after removal; empty when the roster
	// emptied or the host did not change.
	NewHostID string
	// WasSpy reports whether the removed player held the spy role in a
	// live round. The caller decides whether to end the round; removal
	// itself never resolves it.
	WasSpy bool
	// RosterSize is the roster size after removal.
	RosterSize int
}

// Room is the authoritative state machine for one game session. All exported
// methods serialize behind one mutex, giving the single-actor ordering the
// engine requires: operations on a room never interleave their mutations,
// and the periodic timer check is just another serialized operation.
type Room struct {
	mu sync.Mutex

	code   string
	hostID string

	// roster preserves insertion order; host succession promotes the
	// longest-tenured member.
	roster []*Player
	byID   map[string]*Player

	phase       Phase
	roundIndex  int
	roundsLimit int

	catalog       *pack.Catalog
	selectedPacks []string
	usedLocations map[string]struct{}

	activeLocation string
	roundDuration  time.Duration
	roundStartedAt time.Time

	voteCallers map[string]struct{}
	// tally maps identity ID to received votes; tallyOrder lists tally
	// keys in first-vote order because winner ties break toward the
	// earliest entry and Go map iteration is unordered.
	tally      map[string]int
	tallyOrder []string

	results *Results

	lastActivity time.Time

	minPlayers int
	maxPlayers int

	rng random.Source
	now func() time.Time
}

// New creates a Room in the lobby phase with host as its only, unready
// member and the catalog's default pack selected. It never fails.
//
// Precondition: code must be unique among live rooms (the registry owns
// this); host, catalog, and rng must be non-nil; nowFn may be nil (defaults
// to time.Now).
func New(code string, host *Player, catalog *pack.Catalog, settings Settings, rng random.Source, nowFn func() time.Time) *Room {
	if nowFn == nil {
		nowFn = time.Now
	}
	r := &Room{
		code:          code,
		hostID:        host.ID,
		byID:          map[string]*Player{host.ID: host},
		roster:        []*Player{host},
		phase:         PhaseLobby,
		roundsLimit:   settings.RoundsLimit,
		catalog:       catalog,
		selectedPacks: []string{catalog.DefaultID()},
		usedLocations: make(map[string]struct{}),
		roundDuration: settings.RoundDuration,
		voteCallers:   make(map[string]struct{}),
		tally:         make(map[string]int),
		minPlayers:    settings.MinPlayers,
		maxPlayers:    settings.MaxPlayers,
		rng:           rng,
		now:           nowFn,
	}
	r.lastActivity = r.now()
	return r
}

// Code returns the join code.
func (r *Room) Code() string {
	return r.code
}

// HostID returns the current host's identity ID.
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// Phase returns the current lifecycle phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// RoundIndex returns the number of rounds started so far.
func (r *Room) RoundIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roundIndex
}

// PlayerIDs returns the roster identity IDs in insertion order.
func (r *Room) PlayerIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.roster))
	for _, p := range r.roster {
		ids = append(ids, p.ID)
	}
	return ids
}

// Size returns the roster size.
func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roster)
}

// LastActivityAt returns the time of the last state-changing operation.
func (r *Room) LastActivityAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// SpyID returns the identity holding the spy role, or "" outside a round.
func (r *Room) SpyID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.spyIDLocked()
}

func (r *Room) spyIDLocked() string {
	for _, p := range r.roster {
		if p.IsSpy {
			return p.ID
		}
	}
	return ""
}

func (r *Room) touch() {
	r.lastActivity = r.now()
}

// Join adds a player to the roster, unready.
//
// Postcondition: Returns ErrRoomNotJoinable outside the lobby, ErrRoomFull
// at capacity, or nil with the player appended in tenure order.
func (r *Room) Join(p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseLobby {
		return ErrRoomNotJoinable
	}
	if len(r.roster) >= r.maxPlayers {
		return ErrRoomFull
	}
	if _, exists := r.byID[p.ID]; exists {
		return fmt.Errorf("room %s: player %q already joined", r.code, p.ID)
	}

	p.Ready = false
	r.byID[p.ID] = p
	r.roster = append(r.roster, p)
	r.touch()
	return nil
}

// ToggleReady flips the player's lobby readiness.
//
// Postcondition: Returns the new readiness, or ErrPlayerNotFound.
func (r *Room) ToggleReady(playerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[playerID]
	if !ok {
		return false, ErrPlayerNotFound
	}
	p.Ready = !p.Ready
	r.touch()
	return p.Ready, nil
}

// SetLocationPacks replaces the selected packs. Host-only, lobby-only.
// Unknown pack IDs are dropped; an empty valid selection falls back to the
// catalog default.
//
// Postcondition: Returns the effective selection or a rejection.
func (r *Room) SetLocationPacks(requesterID string, packIDs []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID {
		return nil, ErrNotHost
	}
	if r.phase != PhaseLobby {
		return nil, ErrWrongPhase
	}

	valid := r.catalog.FilterValid(packIDs)
	if len(valid) == 0 {
		valid = []string{r.catalog.DefaultID()}
	}
	r.selectedPacks = valid
	r.touch()
	return append([]string(nil), r.selectedPacks...), nil
}

// SetRoundDuration sets the round length for subsequent rounds. Host-only,
// lobby-only. 0 means untimed.
func (r *Room) SetRoundDuration(requesterID string, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID {
		return ErrNotHost
	}
	if r.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if d < 0 {
		return fmt.Errorf("room %s: negative round duration %v", r.code, d)
	}
	r.roundDuration = d
	r.touch()
	return nil
}

// allReadyLocked reports whether the roster meets the minimum size and every
// member is ready.
func (r *Room) allReadyLocked() bool {
	if len(r.roster) < r.minPlayers {
		return false
	}
	for _, p := range r.roster {
		if !p.Ready {
			return false
		}
	}
	return true
}

// StartRound begins a new round: one uniformly random unused location from
// the selected packs, one uniformly random spy, cleared votes and callers.
// Host-only; requires every member ready and at least MinPlayers present.
//
// Postcondition: On success the phase is Round, the round index has
// incremented, and exactly one roster member has the spy role.
func (r *Room) StartRound(requesterID string, opts StartOptions) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID {
		return 0, ErrNotHost
	}
	if r.phase != PhaseLobby {
		return 0, ErrWrongPhase
	}
	if !r.allReadyLocked() {
		return 0, ErrPlayersNotReady
	}
	if opts.RoundDuration != nil {
		if *opts.RoundDuration < 0 {
			return 0, fmt.Errorf("room %s: negative round duration %v", r.code, *opts.RoundDuration)
		}
		r.roundDuration = *opts.RoundDuration
	}

	for _, p := range r.roster {
		p.resetForRound()
	}
	r.voteCallers = make(map[string]struct{})
	r.tally = make(map[string]int)
	r.tallyOrder = nil
	r.results = nil

	r.activeLocation = r.pickLocationLocked()
	r.usedLocations[r.activeLocation] = struct{}{}
	r.roster[r.rng.Intn(len(r.roster))].IsSpy = true

	r.roundIndex++
	r.phase = PhaseRound
	r.roundStartedAt = r.now()
	r.touch()
	return r.roundIndex, nil
}

// pickLocationLocked selects a location uniformly from the unused pool of
// the selected packs, resetting the pool when it is exhausted.
func (r *Room) pickLocationLocked() string {
	all := r.catalog.LocationsFor(r.selectedPacks)
	unused := make([]string, 0, len(all))
	for _, loc := range all {
		if _, used := r.usedLocations[loc]; !used {
			unused = append(unused, loc)
		}
	}
	if len(unused) == 0 {
		r.usedLocations = make(map[string]struct{})
		unused = all
	}
	return unused[r.rng.Intn(len(unused))]
}

// CallForVote records a non-spy member's call for a vote. Set semantics:
// repeated calls by the same player are ignored. Once two distinct callers
// accumulate, the phase moves to Voting.
//
// Postcondition: Returns the caller set and whether voting just started, or
// a rejection (ErrWrongPhase, ErrPlayerNotFound, ErrSpyCannotCallVote).
func (r *Room) CallForVote(playerID string) (callers []string, votingStarted bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseRound {
		return nil, false, ErrWrongPhase
	}
	p, ok := r.byID[playerID]
	if !ok {
		return nil, false, ErrPlayerNotFound
	}
	if p.IsSpy {
		return nil, false, ErrSpyCannotCallVote
	}

	r.voteCallers[playerID] = struct{}{}
	if len(r.voteCallers) >= 2 {
		r.phase = PhaseVoting
		votingStarted = true
	}
	r.touch()
	return r.voteCallerIDsLocked(), votingStarted, nil
}

// voteCallerIDsLocked returns the caller set in roster order.
func (r *Room) voteCallerIDsLocked() []string {
	ids := make([]string, 0, len(r.voteCallers))
	for _, p := range r.roster {
		if _, ok := r.voteCallers[p.ID]; ok {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// RecordVote records or changes a member's vote for a suspected spy. Votes
// are mutable: a voter switching targets has the prior vote removed first,
// so the tally always sums to the number of distinct voters. Allowed in
// Round and Voting only. Once every non-spy member has a recorded vote the
// round resolves with reason "voting" and the Results snapshot is returned.
//
// Postcondition: Returns (nil, nil) when the vote was recorded without
// resolving, (results, nil) on resolution, or a rejection.
func (r *Room) RecordVote(voterID, targetID string) (*Results, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseRound && r.phase != PhaseVoting {
		return nil, ErrWrongPhase
	}
	voter, ok := r.byID[voterID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if _, ok := r.byID[targetID]; !ok {
		return nil, ErrPlayerNotFound
	}

	if voter.HasVoted && voter.VotedFor == targetID {
		// Re-vote for the same target: idempotent.
		return nil, nil
	}
	if voter.HasVoted {
		r.dropVoteLocked(voter.VotedFor)
	}
	voter.HasVoted = true
	voter.VotedFor = targetID
	if _, exists := r.tally[targetID]; !exists {
		r.tallyOrder = append(r.tallyOrder, targetID)
	}
	r.tally[targetID]++
	r.touch()

	for _, p := range r.roster {
		if !p.IsSpy && !p.HasVoted {
			return nil, nil
		}
	}
	return r.resolveLocked(ReasonVoting, "")
}

// dropVoteLocked removes one received vote from targetID, deleting the tally
// entry (and its first-seen slot) when the count reaches zero.
func (r *Room) dropVoteLocked(targetID string) {
	if r.tally[targetID] > 1 {
		r.tally[targetID]--
		return
	}
	delete(r.tally, targetID)
	for i, id := range r.tallyOrder {
		if id == targetID {
			r.tallyOrder = append(r.tallyOrder[:i], r.tallyOrder[i+1:]...)
			break
		}
	}
}

// BeginSpyGuess moves the round into the spy's guessing phase, gating the
// candidate-location reveal. Spy-only; only from Round.
func (r *Room) BeginSpyGuess(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseRound {
		return ErrWrongPhase
	}
	p, ok := r.byID[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if !p.IsSpy {
		return ErrNotSpy
	}
	r.phase = PhaseSpyGuessing
	r.touch()
	return nil
}

// MakeSpyGuess resolves the round with the spy's location guess. Spy-only;
// allowed in Round and SpyGuessing. The spy wins iff the guess matches the
// active location case-insensitively.
func (r *Room) MakeSpyGuess(playerID, guess string) (*Results, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseRound && r.phase != PhaseSpyGuessing {
		return nil, ErrWrongPhase
	}
	p, ok := r.byID[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if !p.IsSpy {
		return nil, ErrNotSpy
	}
	return r.resolveLocked(ReasonSpyGuess, guess)
}

// CheckRoundTimer resolves the round with reason "time-up" when the round
// clock has expired. It is a no-op outside the Round phase (a timer firing
// during SpyGuessing or later is ignored) and for untimed rounds.
//
// Postcondition: Returns (results, true) iff the round resolved on this call.
func (r *Room) CheckRoundTimer(now time.Time) (*Results, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseRound {
		return nil, false
	}
	clock := RoundClock{StartedAt: r.roundStartedAt, Duration: r.roundDuration}
	if !clock.Expired(now) {
		return nil, false
	}
	res, err := r.resolveLocked(ReasonTimeUp, "")
	if err != nil {
		return nil, false
	}
	return res, true
}

// EndRoundEarly resolves a live round immediately with the given reason.
// Used for host-initiated ends and for the spy leaving mid-round; callers
// enforce who may invoke it.
//
// Postcondition: Returns the Results snapshot, or ErrWrongPhase when no
// round is live.
func (r *Room) EndRoundEarly(reason EndReason) (*Results, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.phase.inRound() {
		return nil, ErrWrongPhase
	}
	return r.resolveLocked(reason, "")
}

// resolveLocked is the single outcome-computation path shared by every
// resolution trigger. It snapshots the tally, determines the winner side,
// moves the phase to Results, and strips the spy role from the roster.
//
// Invariant on entry: exactly one roster member has the spy role.
func (r *Room) resolveLocked(reason EndReason, guess string) (*Results, error) {
	spyID := r.spyIDLocked()
	if spyID == "" {
		// Programming defect; fatal to this operation, isolated to this room.
		return nil, fmt.Errorf("room %s: resolving round with no spy assigned", r.code)
	}

	winner := mostVoted(r.tally, r.tallyOrder)

	votes := make(map[string]int, len(r.tally))
	for id, n := range r.tally {
		votes[id] = n
	}

	res := &Results{
		Reason:      reason,
		SpyID:       spyID,
		Location:    r.activeLocation,
		Votes:       votes,
		MostVotedID: winner,
		HasVotes:    len(votes) > 0,
		EndedAt:     r.now(),
	}
	if reason == ReasonSpyGuess {
		res.SpyGuess = guess
		res.SpyGuessedCorrectly = guessMatches(guess, r.activeLocation)
		res.SpyWon = res.SpyGuessedCorrectly
	} else {
		// Zero votes cast always favors the spy: winner is "" != spyID.
		res.SpyWon = winner != spyID
	}

	for _, p := range r.roster {
		p.IsSpy = false
	}
	r.phase = PhaseResults
	r.results = res
	r.touch()
	return res, nil
}

// ReturnToLobby moves the room back to the lobby, clearing votes, callers,
// readiness, and the retained results. Any member may invoke it from
// Results; only the host may invoke it from any other phase. The round
// counter is not reset.
func (r *Room) ReturnToLobby(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[requesterID]; !ok {
		return ErrPlayerNotFound
	}
	if r.phase != PhaseResults && requesterID != r.hostID {
		return ErrNotHost
	}

	for _, p := range r.roster {
		p.Ready = false
		p.IsSpy = false
		p.HasVoted = false
		p.VotedFor = ""
	}
	r.voteCallers = make(map[string]struct{})
	r.tally = make(map[string]int)
	r.tallyOrder = nil
	r.results = nil
	r.activeLocation = ""
	r.phase = PhaseLobby
	r.touch()
	return nil
}

// PromoteHost transfers the host role. Host-only; the target must be another
// roster member.
func (r *Room) PromoteHost(requesterID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID {
		return ErrNotHost
	}
	if requesterID == targetID {
		return ErrCannotTargetSelf
	}
	if _, ok := r.byID[targetID]; !ok {
		return ErrPlayerNotFound
	}
	r.hostID = targetID
	r.touch()
	return nil
}

// RemovePlayer removes a member in any phase, dropping their received and
// cast votes and their vote call. Voters whose vote targeted the removed
// player revert to unvoted. A departing host is succeeded by the
// longest-tenured remaining member. Removal never resolves the round itself:
// when the outcome reports WasSpy during a live round, the caller invokes
// EndRoundEarly(ReasonSpyLeft) explicitly.
//
// Postcondition: Returns the removal outcome, or ErrPlayerNotFound.
func (r *Room) RemovePlayer(playerID string) (RemoveOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[playerID]
	if !ok {
		return RemoveOutcome{}, ErrPlayerNotFound
	}

	out := RemoveOutcome{
		WasHost: playerID == r.hostID,
		WasSpy:  p.IsSpy && r.phase.inRound(),
	}

	// Drop the vote they cast.
	if p.HasVoted {
		r.dropVoteLocked(p.VotedFor)
	}
	// Drop votes they received and reset the voters behind them.
	if _, had := r.tally[playerID]; had {
		delete(r.tally, playerID)
		for i, id := range r.tallyOrder {
			if id == playerID {
				r.tallyOrder = append(r.tallyOrder[:i], r.tallyOrder[i+1:]...)
				break
			}
		}
	}
	for _, member := range r.roster {
		if member.HasVoted && member.VotedFor == playerID {
			member.HasVoted = false
			member.VotedFor = ""
		}
	}
	delete(r.voteCallers, playerID)

	delete(r.byID, playerID)
	for i, member := range r.roster {
		if member.ID == playerID {
			r.roster = append(r.roster[:i], r.roster[i+1:]...)
			break
		}
	}

	if out.WasHost && len(r.roster) > 0 {
		r.hostID = r.roster[0].ID
		out.NewHostID = r.hostID
	}
	out.RosterSize = len(r.roster)
	r.touch()
	return out, nil
}
