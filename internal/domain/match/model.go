package match

import (
	"math"
	"strings"
	"time"
)

// Status is the lifecycle state of a match. It only moves forward:
// SCHEDULED -> LIVE -> FINISHED.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusFinished  Status = "FINISHED"
)

type Format string

const (
	FormatT20  Format = "T20"
	FormatODI  Format = "ODI"
	FormatTest Format = "TEST"
)

type PlayerRole string

const (
	RoleBatter     PlayerRole = "BATTER"
	RoleBowler     PlayerRole = "BOWLER"
	RoleAllRounder PlayerRole = "ALL_ROUNDER"
)

const (
	// PredictionLockLead is how long after start time predictions stay open.
	PredictionLockLead = 5 * time.Minute
	// BattleLockLead mirrors the provider feed convention of 50 balls x 6 seconds.
	BattleLockLead = 50 * 6 * time.Second
)

type Team struct {
	Name     string
	ImageURL string
}

type SquadPlayer struct {
	PlayerID string
	Name     string
	Role     PlayerRole
	ImageURL string
}

// InningsScore is one row of the scorecard.
type InningsScore struct {
	Team    string
	Runs    int
	Wickets int
	Overs   float64
}

// Innings is the live snapshot of the innings in progress.
type Innings struct {
	Number      int
	Team        string
	Runs        int
	Wickets     int
	CurrentOver int
	CurrentBall int
	// OverRuns holds runs per completed over, keyed by over number.
	OverRuns map[int]int
}

// PlayerPerformance is the per-player statistic line of a match.
type PlayerPerformance struct {
	PlayerID     string
	Runs         int
	BallsFaced   int
	Fours        int
	Sixes        int
	Wickets      int
	OversBowled  float64
	RunsConceded int
	Maidens      int
	Catches      int
}

// Match is the canonical record shared by every component.
type Match struct {
	ID                 string
	Team1              Team
	Team2              Team
	SeriesName         string
	Format             Format
	Venue              string
	TossWinner         string
	TossDecision       string
	StartTime          time.Time
	Status             Status
	Scorecard          []InningsScore
	Innings            Innings
	Squad1             []SquadPlayer
	Squad2             []SquadPlayer
	Performances       map[string]PlayerPerformance
	PredictionLockTime *time.Time
	BattlesLockTime    *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NormalizeStatus(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "live":
		return StatusLive
	case "completed", "finished":
		return StatusFinished
	default:
		return StatusScheduled
	}
}

func NormalizeRole(value string) PlayerRole {
	role := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.Contains(role, "bat"):
		return RoleBatter
	case strings.Contains(role, "bowl"):
		return RoleBowler
	default:
		return RoleAllRounder
	}
}

// SplitOvers derives the current over and ball from a provider overs figure:
// the whole part is the over, the fraction scaled by six is the ball.
func SplitOvers(overs float64) (int, int) {
	if overs <= 0 {
		return 0, 0
	}
	whole := math.Floor(overs)
	ball := int(math.Round((overs - whole) * 6))
	return int(whole), ball
}

func (m Match) IsLive() bool {
	return m.Status == StatusLive
}

func (m Match) IsFinished() bool {
	return m.Status == StatusFinished
}

// PredictionDeadline is the persisted lock time, falling back to start plus lead.
func (m Match) PredictionDeadline() time.Time {
	if m.PredictionLockTime != nil {
		return *m.PredictionLockTime
	}
	return m.StartTime.Add(PredictionLockLead)
}

func (m Match) BattleDeadline() time.Time {
	if m.BattlesLockTime != nil {
		return *m.BattlesLockTime
	}
	return m.StartTime.Add(BattleLockLead)
}

// FindSquadPlayer looks a player up in both squads.
func (m Match) FindSquadPlayer(playerID string) (SquadPlayer, bool) {
	for _, item := range m.Squad1 {
		if item.PlayerID == playerID {
			return item, true
		}
	}
	for _, item := range m.Squad2 {
		if item.PlayerID == playerID {
			return item, true
		}
	}
	return SquadPlayer{}, false
}

// RunsInOver returns the runs recorded for a completed over of the live innings.
func (in Innings) RunsInOver(over int) (int, bool) {
	if in.OverRuns == nil {
		return 0, false
	}
	runs, ok := in.OverRuns[over]
	return runs, ok
}

func (m Match) Clone() Match {
	out := m
	out.Scorecard = append([]InningsScore(nil), m.Scorecard...)
	out.Squad1 = append([]SquadPlayer(nil), m.Squad1...)
	out.Squad2 = append([]SquadPlayer(nil), m.Squad2...)
	if m.Innings.OverRuns != nil {
		out.Innings.OverRuns = make(map[int]int, len(m.Innings.OverRuns))
		for k, v := range m.Innings.OverRuns {
			out.Innings.OverRuns[k] = v
		}
	}
	if m.Performances != nil {
		out.Performances = make(map[string]PlayerPerformance, len(m.Performances))
		for k, v := range m.Performances {
			out.Performances[k] = v
		}
	}
	if m.PredictionLockTime != nil {
		v := *m.PredictionLockTime
		out.PredictionLockTime = &v
	}
	if m.BattlesLockTime != nil {
		v := *m.BattlesLockTime
		out.BattlesLockTime = &v
	}
	return out
}
