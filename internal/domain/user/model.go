package user

import "time"

// Principal is the authenticated caller resolved from an access token.
type Principal struct {
	UserID string
	Email  string
}

type QuizStats struct {
	TotalAttempted    int
	CorrectAnswers    int
	CurrentStreak     int
	LastQuizAt        *time.Time
	LastCorrectDay    string
	TotalCrownsEarned int
	// Month is the YYYY-MM the monthly fields below belong to.
	Month           string
	PerfectDays     []string
	CrownsThisMonth int
}

type BattleStats struct {
	// TotalBattles counts reported match outcomes, so it equals Wins + Losses.
	TotalBattles      int
	Wins              int
	Losses            int
	TotalCrownsEarned int
	Month             string
	// RecordedMatches are the matches already reported this month.
	RecordedMatches []string
	// WonMatches are the matches won this month.
	WonMatches      []string
	CrownsThisMonth int
}

// User is the player profile with its progress counters.
type User struct {
	ID              string
	DisplayName     string
	DeviceToken     string
	Points          int
	Crowns          int
	XP              int
	PreviousMatchID string
	LastMatchID     string
	Quiz            QuizStats
	Battle          BattleStats
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u User) Clone() User {
	out := u
	out.Quiz.PerfectDays = append([]string(nil), u.Quiz.PerfectDays...)
	if u.Quiz.LastQuizAt != nil {
		v := *u.Quiz.LastQuizAt
		out.Quiz.LastQuizAt = &v
	}
	out.Battle.RecordedMatches = append([]string(nil), u.Battle.RecordedMatches...)
	out.Battle.WonMatches = append([]string(nil), u.Battle.WonMatches...)
	return out
}

// TrackMatch records participation in a match. Moving to a new match shifts
// the last one into PreviousMatchID.
func (u *User) TrackMatch(matchID string) bool {
	if matchID == "" || u.LastMatchID == matchID {
		return false
	}
	if u.LastMatchID != "" {
		u.PreviousMatchID = u.LastMatchID
	}
	u.LastMatchID = matchID
	return true
}

func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
