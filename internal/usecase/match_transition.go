package usecase

import "github.com/riskibarqy/cricket-battle/internal/domain/match"

type TransitionKind string

const (
	TransitionWentLive      TransitionKind = "went_live"
	TransitionOverCompleted TransitionKind = "over_completed"
	TransitionFinished      TransitionKind = "finished"
)

// Transition is one event derived from a before/after pair of a match record.
type Transition struct {
	Kind    TransitionKind
	MatchID string
	// Over and Innings identify the completed over for TransitionOverCompleted.
	Over    int
	Innings int
}

// MatchChange is a stored-record change notification.
type MatchChange struct {
	Before match.Match `json:"before"`
	After  match.Match `json:"after"`
}

// ClassifyTransition lists every event a match update carries, in dispatch
// order. A jump of several overs between snapshots yields one event per
// completed over. When an innings closes, the overs left in it are completed
// up to the final figure on the scorecard, or just the over in progress when
// the scorecard has no row for it.
func ClassifyTransition(before, after match.Match) []Transition {
	matchID := after.ID
	if matchID == "" {
		matchID = before.ID
	}

	var out []Transition
	if before.Status != match.StatusLive && after.Status == match.StatusLive {
		out = append(out, Transition{Kind: TransitionWentLive, MatchID: matchID})
	}

	from, to := completedOvers(before, after)
	for over := from; over < to; over++ {
		out = append(out, Transition{Kind: TransitionOverCompleted, MatchID: matchID, Over: over, Innings: inningsNumber(before)})
	}

	if before.Status != match.StatusFinished && after.Status == match.StatusFinished {
		out = append(out, Transition{Kind: TransitionFinished, MatchID: matchID})
	}
	return out
}

// completedOvers returns the half-open range of overs of before's innings
// that the change completes.
func completedOvers(before, after match.Match) (int, int) {
	from := before.Innings.CurrentOver
	switch {
	case sameInnings(before, after):
		return from, after.Innings.CurrentOver
	case before.Status != match.StatusLive || inningsNumber(after) < inningsNumber(before):
		return 0, 0
	}
	if final, _, ok := closedInnings(before, after); ok {
		return from, final
	}
	return from, from + 1
}

// closedInnings reads the final over count and runs of before's innings from
// after's scorecard. A part-bowled last over counts.
func closedInnings(before, after match.Match) (int, int, bool) {
	idx := inningsNumber(before) - 1
	if idx < 0 || idx >= len(after.Scorecard) {
		return 0, 0, false
	}
	row := after.Scorecard[idx]
	over, ball := match.SplitOvers(row.Overs)
	if ball > 0 {
		over++
	}
	return over, row.Runs, true
}

func sameInnings(before, after match.Match) bool {
	return inningsNumber(before) == inningsNumber(after)
}

func inningsNumber(m match.Match) int {
	if m.Innings.Number <= 0 {
		return 1
	}
	return m.Innings.Number
}
