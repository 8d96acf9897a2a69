package user

import (
	"fmt"
	"testing"
	"time"
)

func dayOf(month time.Month, day int) time.Time {
	return time.Date(2026, month, day, 9, 0, 0, 0, time.UTC)
}

func TestRecordQuizAnswerCrownThresholds(t *testing.T) {
	t.Parallel()

	u := User{ID: "u1"}
	for day := 1; day <= 9; day++ {
		out := u.RecordQuizAnswer(true, dayOf(time.March, day))
		if out.CrownAwarded {
			t.Fatalf("no crown expected before 10 days, got one on day %d", day)
		}
	}
	if u.Crowns != 0 {
		t.Fatalf("unexpected crowns after 9 days: got=%d want=0", u.Crowns)
	}

	out := u.RecordQuizAnswer(true, dayOf(time.March, 10))
	if !out.CrownAwarded || u.Crowns != 1 {
		t.Fatalf("expected crown on 10th day, crowns=%d", u.Crowns)
	}
	if u.Quiz.CrownsThisMonth != 1 {
		t.Fatalf("unexpected monthly quiz crowns: got=%d want=1", u.Quiz.CrownsThisMonth)
	}

	for day := 11; day <= 19; day++ {
		if out := u.RecordQuizAnswer(true, dayOf(time.March, day)); out.CrownAwarded {
			t.Fatalf("no crown expected on day %d", day)
		}
	}
	if out := u.RecordQuizAnswer(true, dayOf(time.March, 20)); !out.CrownAwarded {
		t.Fatalf("expected second crown on 20th day")
	}

	wantXP := 20*CorrectAnswerXP + 2*QuizCrownXPBonus
	if u.XP != wantXP {
		t.Fatalf("unexpected xp: got=%d want=%d", u.XP, wantXP)
	}
}

func TestRecordQuizAnswerSameDayCountsOnce(t *testing.T) {
	t.Parallel()

	u := User{ID: "u1"}
	for i := 0; i < 12; i++ {
		u.RecordQuizAnswer(true, dayOf(time.April, 1).Add(time.Duration(i)*time.Minute))
	}
	if len(u.Quiz.PerfectDays) != 1 {
		t.Fatalf("unexpected perfect days: got=%d want=1", len(u.Quiz.PerfectDays))
	}
	if u.Quiz.TotalAttempted != 12 || u.Quiz.CorrectAnswers != 12 {
		t.Fatalf("unexpected attempt counters: %+v", u.Quiz)
	}
	if u.Crowns != 0 {
		t.Fatalf("unexpected crowns: got=%d want=0", u.Crowns)
	}
}

func TestRecordQuizAnswerIncorrectDoesNotAddDay(t *testing.T) {
	t.Parallel()

	u := User{ID: "u1"}
	out := u.RecordQuizAnswer(false, dayOf(time.May, 3))
	if out.NewPerfectDay || len(u.Quiz.PerfectDays) != 0 {
		t.Fatalf("incorrect answer must not record a day: %+v", u.Quiz)
	}
	if u.XP != 0 || u.Quiz.TotalAttempted != 1 {
		t.Fatalf("unexpected state after incorrect answer: xp=%d attempted=%d", u.XP, u.Quiz.TotalAttempted)
	}
}

func TestRecordQuizAnswerMonthlyCap(t *testing.T) {
	t.Parallel()

	u := User{ID: "u1"}
	u.Quiz.Month = "2026-01"
	u.Quiz.CrownsThisMonth = MaxCrownsPerSourcePerMonth
	for day := 1; day <= 31; day++ {
		if out := u.RecordQuizAnswer(true, dayOf(time.January, day)); out.CrownAwarded {
			t.Fatalf("cap reached, no crown expected on day %d", day)
		}
	}

	capped := User{ID: "u2"}
	awarded := 0
	for i := 0; i < 40; i++ {
		day := i%31 + 1
		if out := capped.RecordQuizAnswer(true, dayOf(time.January, day)); out.CrownAwarded {
			awarded++
		}
	}
	if awarded > MaxCrownsPerSourcePerMonth {
		t.Fatalf("monthly cap exceeded: got=%d", awarded)
	}
	if awarded != 3 {
		t.Fatalf("unexpected quiz crowns in a full month: got=%d want=3", awarded)
	}
}

func TestRecordQuizAnswerResetsOnNewMonth(t *testing.T) {
	t.Parallel()

	u := User{ID: "u1"}
	for day := 1; day <= 10; day++ {
		u.RecordQuizAnswer(true, dayOf(time.June, day))
	}
	u.RecordQuizAnswer(true, dayOf(time.July, 1))
	if u.Quiz.Month != "2026-07" || len(u.Quiz.PerfectDays) != 1 || u.Quiz.CrownsThisMonth != 0 {
		t.Fatalf("expected month reset, got %+v", u.Quiz)
	}
	if u.Quiz.TotalCrownsEarned != 1 {
		t.Fatalf("lifetime crowns must survive month reset: got=%d", u.Quiz.TotalCrownsEarned)
	}
}

func TestRecordBattleResult(t *testing.T) {
	t.Parallel()

	u := User{ID: "u1"}
	at := dayOf(time.August, 2)
	for i := 1; i <= 9; i++ {
		if out := u.RecordBattleResult(fmt.Sprintf("m%d", i), true, at); out.CrownAwarded {
			t.Fatalf("no crown expected at %d wins", i)
		}
	}
	out := u.RecordBattleResult("m10", true, at)
	if !out.CrownAwarded || u.Crowns != 1 {
		t.Fatalf("expected crown at 10 wins, crowns=%d", u.Crowns)
	}
	if out := u.RecordBattleResult("m11", true, at); out.CrownAwarded {
		t.Fatalf("no crown expected at 11 wins")
	}

	dup := u.RecordBattleResult("m11", true, at)
	if !dup.Duplicate {
		t.Fatalf("expected duplicate report to be ignored")
	}
	if u.Battle.Wins != 11 || u.Battle.TotalBattles != 11 {
		t.Fatalf("unexpected counters: wins=%d total=%d", u.Battle.Wins, u.Battle.TotalBattles)
	}

	u.RecordBattleResult("m12", false, at)
	if u.Battle.Losses != 1 {
		t.Fatalf("unexpected losses: got=%d want=1", u.Battle.Losses)
	}
}

func TestRecordBattleResultMonthlyCap(t *testing.T) {
	t.Parallel()

	u := User{ID: "u1"}
	at := dayOf(time.September, 5)
	awarded := 0
	for i := 1; i <= 45; i++ {
		if out := u.RecordBattleResult(fmt.Sprintf("m%d", i), true, at); out.CrownAwarded {
			awarded++
		}
	}
	if awarded != MaxCrownsPerSourcePerMonth {
		t.Fatalf("unexpected battle crowns: got=%d want=%d", awarded, MaxCrownsPerSourcePerMonth)
	}
}

func TestApplyResolvedBattle(t *testing.T) {
	t.Parallel()

	u := User{ID: "u1", Points: 10, XP: 4}
	u.ApplyResolvedBattle(30)
	if u.Points != 40 || u.XP != 64 || u.Battle.TotalBattles != 0 {
		t.Fatalf("unexpected user after resolution: points=%d xp=%d battles=%d", u.Points, u.XP, u.Battle.TotalBattles)
	}
}

func TestResolvedAndReportedBattleCountsOnce(t *testing.T) {
	t.Parallel()

	u := User{ID: "u1"}
	u.ApplyResolvedBattle(12)
	u.ApplyResolvedBattle(8)
	u.RecordBattleResult("m1", true, dayOf(time.September, 5))
	if u.Battle.TotalBattles != 1 || u.Battle.TotalBattles != u.Battle.Wins+u.Battle.Losses {
		t.Fatalf("battles: got=%d want=1 (wins=%d losses=%d)", u.Battle.TotalBattles, u.Battle.Wins, u.Battle.Losses)
	}
}
