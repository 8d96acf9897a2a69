package leaderboard

import (
	"fmt"
	"time"
)

// ContributionKind tells which counter a credit bumps.
type ContributionKind string

const (
	ContributionPrediction ContributionKind = "PREDICTION"
	ContributionBattle     ContributionKind = "BATTLE"
)

// Scope is either the global board of a match or one private room.
type Scope struct {
	RoomID string
}

var GlobalScope = Scope{}

func RoomScope(roomID string) Scope {
	return Scope{RoomID: roomID}
}

func (s Scope) IsGlobal() bool {
	return s.RoomID == ""
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return "room:" + s.RoomID
}

// Entry is one user's row on a match board. Rank stays 0 until a ranking
// pass writes it.
type Entry struct {
	MatchID     string
	Scope       Scope
	UserID      string
	TotalPoints int
	Predictions int
	Battles     int
	Rank        int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Credit is a single increment applied to an entry.
type Credit struct {
	MatchID string
	Scope   Scope
	UserID  string
	Points  int
	Kind    ContributionKind
	At      time.Time
}

func (c Credit) Validate() error {
	if c.MatchID == "" {
		return fmt.Errorf("credit match id is required")
	}
	if c.UserID == "" {
		return fmt.Errorf("credit user id is required")
	}
	if c.Points < 0 {
		return fmt.Errorf("credit points must not be negative: %d", c.Points)
	}
	switch c.Kind {
	case ContributionPrediction, ContributionBattle:
	default:
		return fmt.Errorf("unknown contribution kind: %s", c.Kind)
	}
	return nil
}

// Counters returns the prediction and battle increments of the credit.
func (c Credit) Counters() (int, int) {
	if c.Kind == ContributionBattle {
		return 0, 1
	}
	return 1, 0
}

// RankPosition is a computed rank for one user.
type RankPosition struct {
	UserID string
	Rank   int
}
