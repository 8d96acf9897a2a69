package battle

import (
	"errors"
	"fmt"
	"time"
)

// Type is the head-to-head category a pick competes in.
type Type string

const (
	TypeBatterVsBatter         Type = "BATTER_VS_BATTER"
	TypeBowlerVsBowler         Type = "BOWLER_VS_BOWLER"
	TypeAllRounderVsAllRounder Type = "ALLROUNDER_VS_ALLROUNDER"
)

var AllTypes = map[Type]struct{}{
	TypeBatterVsBatter:         {},
	TypeBowlerVsBowler:         {},
	TypeAllRounderVsAllRounder: {},
}

var (
	ErrUnknownType         = errors.New("unknown battle type")
	ErrChangeWindowClosed  = errors.New("battle changes only allowed during first innings of a live match")
	ErrNoReferenceStanding = errors.New("no previous leaderboard standing found")
	ErrChangesExhausted    = errors.New("battle changes exhausted")
	ErrAlreadyChanged      = errors.New("battle pick was already changed")
	ErrBattleLocked        = errors.New("battle picks are locked")
	ErrSamePlayer          = errors.New("new player must differ from current pick")
	ErrPlayerNotInMatch    = errors.New("player is not part of the match squads")
	ErrPickNotFound        = errors.New("battle pick not found")
)

type SelectedPlayer struct {
	PlayerID string
	Name     string
	Team     string
}

// Battle is one pick. RoomID is empty for the global scope.
type Battle struct {
	MatchID          string
	RoomID           string
	UserID           string
	Type             Type
	Player           SelectedPlayer
	Points           int
	Resolved         bool
	ResolvedAt       *time.Time
	Changed          bool
	ChangedAt        *time.Time
	PreviousPlayerID string
	SubmittedAt      time.Time
}

// Key identifies a battle pick.
type Key struct {
	MatchID string
	RoomID  string
	UserID  string
	Type    Type
}

func (b Battle) Key() Key {
	return Key{MatchID: b.MatchID, RoomID: b.RoomID, UserID: b.UserID, Type: b.Type}
}

func (b Battle) IsGlobal() bool {
	return b.RoomID == ""
}

func (b Battle) Validate() error {
	if b.MatchID == "" {
		return fmt.Errorf("battle match id is required")
	}
	if b.UserID == "" {
		return fmt.Errorf("battle user id is required")
	}
	if _, ok := AllTypes[b.Type]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, b.Type)
	}
	if b.Player.PlayerID == "" {
		return fmt.Errorf("battle player id is required")
	}
	return nil
}

// ChangesAllowedForRank maps the previous-match rank to the number of
// pick changes a user may make.
func ChangesAllowedForRank(rank int) int {
	switch rank {
	case 1:
		return 3
	case 2:
		return 2
	case 3:
		return 1
	default:
		return 0
	}
}
