package user

import "time"

const (
	MaxCrownsPerSourcePerMonth = 3
	QuizDaysPerCrown           = 10
	BattleWinsPerCrown         = 10

	CorrectAnswerXP  = 5
	QuizCrownXPBonus = 50
	MatchChampionXP  = 100
	// BattleXPPerPoint scales resolved battle points into xp.
	BattleXPPerPoint = 2
)

type QuizOutcome struct {
	NewPerfectDay bool
	PerfectDays   int
	CrownAwarded  bool
}

type BattleOutcome struct {
	Duplicate    bool
	MonthlyWins  int
	CrownAwarded bool
}

// RecordQuizAnswer applies one quiz attempt. A crown is awarded when a newly
// recorded correct day brings the month count to a multiple of
// QuizDaysPerCrown and the month's quiz crowns are still under the cap.
func (u *User) RecordQuizAnswer(correct bool, at time.Time) QuizOutcome {
	q := &u.Quiz
	month := MonthKey(at)
	if q.Month != month {
		q.Month = month
		q.PerfectDays = nil
		q.CrownsThisMonth = 0
	}

	q.TotalAttempted++
	ts := at
	q.LastQuizAt = &ts

	out := QuizOutcome{PerfectDays: len(q.PerfectDays)}
	if !correct {
		return out
	}

	q.CorrectAnswers++
	u.XP += CorrectAnswerXP

	day := DayKey(at)
	if contains(q.PerfectDays, day) {
		return out
	}

	if q.LastCorrectDay == DayKey(at.AddDate(0, 0, -1)) {
		q.CurrentStreak++
	} else {
		q.CurrentStreak = 1
	}
	q.LastCorrectDay = day

	q.PerfectDays = append(q.PerfectDays, day)
	out.NewPerfectDay = true
	out.PerfectDays = len(q.PerfectDays)

	if out.PerfectDays%QuizDaysPerCrown == 0 && q.CrownsThisMonth < MaxCrownsPerSourcePerMonth {
		q.CrownsThisMonth++
		q.TotalCrownsEarned++
		u.Crowns++
		u.XP += QuizCrownXPBonus
		out.CrownAwarded = true
	}
	return out
}

// RecordBattleResult applies a reported battle outcome for a match. A match
// already reported this month is ignored so redelivery cannot double count.
func (u *User) RecordBattleResult(matchID string, won bool, at time.Time) BattleOutcome {
	b := &u.Battle
	month := MonthKey(at)
	if b.Month != month {
		b.Month = month
		b.RecordedMatches = nil
		b.WonMatches = nil
		b.CrownsThisMonth = 0
	}

	if contains(b.RecordedMatches, matchID) {
		return BattleOutcome{Duplicate: true, MonthlyWins: len(b.WonMatches)}
	}
	b.RecordedMatches = append(b.RecordedMatches, matchID)
	b.TotalBattles++

	if !won {
		b.Losses++
		return BattleOutcome{MonthlyWins: len(b.WonMatches)}
	}

	b.Wins++
	b.WonMatches = append(b.WonMatches, matchID)
	out := BattleOutcome{MonthlyWins: len(b.WonMatches)}
	if out.MonthlyWins%BattleWinsPerCrown == 0 && b.CrownsThisMonth < MaxCrownsPerSourcePerMonth {
		b.CrownsThisMonth++
		b.TotalCrownsEarned++
		u.Crowns++
		out.CrownAwarded = true
	}
	return out
}

// ApplyResolvedBattle credits the points of a resolved global battle. Battle
// counters move only through RecordBattleResult.
func (u *User) ApplyResolvedBattle(points int) {
	u.Points += points
	u.XP += points * BattleXPPerPoint
}

// AwardMatchChampion grants the champion crown and xp.
func (u *User) AwardMatchChampion() {
	u.Crowns++
	u.XP += MatchChampionXP
}
