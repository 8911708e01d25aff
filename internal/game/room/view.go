package room

// PlayerView is the roster entry every viewer may see.
type PlayerView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Ready         bool   `json:"ready"`
	HasVoted      bool   `json:"hasVoted"`
	VotesReceived int    `json:"votesReceived"`
}

// PackView describes one selectable location pack for lobby display.
type PackView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	LocationCount int    `json:"locationCount"`
	Selected      bool   `json:"selected"`
}

// View is the projection of room state a single viewer is allowed to see.
// The secret location is shown to non-spy members during a live round and to
// everyone once results are in; the spy's identity and the full tally are
// revealed only in the Results snapshot; the candidate-location list is
// shown to the spy only while guessing.
type View struct {
	Code                 string       `json:"code"`
	Phase                Phase        `json:"phase"`
	HostID               string       `json:"hostId"`
	Players              []PlayerView `json:"players"`
	Round                int          `json:"round"`
	RoundsLimit          int          `json:"roundsLimit"`
	VoteCallers          []string     `json:"voteCallers"`
	RoundDurationSeconds int          `json:"roundDurationSeconds"`
	RemainingSeconds     int          `json:"remainingSeconds"`
	Packs                []PackView   `json:"packs,omitempty"`
	IsSpy                bool         `json:"isSpy"`
	Location             string       `json:"location,omitempty"`
	CandidateLocations   []string     `json:"candidateLocations,omitempty"`
	Results              *Results     `json:"results,omitempty"`
}

// View projects the room for the given viewer. An empty viewerID (or an ID
// not in the roster) yields the fully public projection with no secrets.
func (r *Room) View(viewerID string) View {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := View{
		Code:                 r.code,
		Phase:                r.phase,
		HostID:               r.hostID,
		Round:                r.roundIndex,
		RoundsLimit:          r.roundsLimit,
		VoteCallers:          r.voteCallerIDsLocked(),
		RoundDurationSeconds: int(r.roundDuration.Seconds()),
	}

	v.Players = make([]PlayerView, 0, len(r.roster))
	for _, p := range r.roster {
		v.Players = append(v.Players, PlayerView{
			ID:            p.ID,
			Name:          p.Name,
			Ready:         p.Ready,
			HasVoted:      p.HasVoted,
			VotesReceived: r.tally[p.ID],
		})
	}

	if r.phase == PhaseRound || r.phase == PhaseSpyGuessing || r.phase == PhaseVoting {
		clock := RoundClock{StartedAt: r.roundStartedAt, Duration: r.roundDuration}
		v.RemainingSeconds = int(clock.Remaining(r.now()).Seconds())
	}

	if r.phase == PhaseLobby {
		v.Packs = r.packViewsLocked()
	}

	viewer, member := r.byID[viewerID]
	if member {
		v.IsSpy = viewer.IsSpy
		if !viewer.IsSpy && r.phase.inRound() {
			v.Location = r.activeLocation
		}
		if viewer.IsSpy && r.phase == PhaseSpyGuessing {
			v.CandidateLocations = r.catalog.LocationsFor(r.selectedPacks)
		}
	}

	if r.phase == PhaseResults && r.results != nil {
		v.Results = r.results
		v.Location = r.results.Location
	}

	return v
}

// packViewsLocked lists every catalog pack with its selection flag.
func (r *Room) packViewsLocked() []PackView {
	selected := make(map[string]bool, len(r.selectedPacks))
	for _, id := range r.selectedPacks {
		selected[id] = true
	}
	var views []PackView
	for _, id := range r.catalog.IDs() {
		p, _ := r.catalog.Get(id)
		views = append(views, PackView{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			LocationCount: len(p.Locations),
			Selected:      selected[id],
		})
	}
	return views
}
