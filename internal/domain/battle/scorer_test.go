package battle

import (
	"testing"

	"github.com/riskibarqy/cricket-battle/internal/domain/match"
)

func scorerMatch() match.Match {
	return match.Match{
		ID:     "m1",
		Team1:  match.Team{Name: "India"},
		Team2:  match.Team{Name: "Australia"},
		Status: match.StatusFinished,
		Squad1: []match.SquadPlayer{
			{PlayerID: "kohli", Name: "Kohli", Role: match.RoleBatter},
			{PlayerID: "bumrah", Name: "Bumrah", Role: match.RoleBowler},
		},
		Squad2: []match.SquadPlayer{
			{PlayerID: "smith", Name: "Smith", Role: match.RoleBatter},
			{PlayerID: "starc", Name: "Starc", Role: match.RoleBowler},
		},
		Performances: map[string]match.PlayerPerformance{
			"kohli":  {PlayerID: "kohli", Runs: 55, Fours: 4, Sixes: 1},
			"smith":  {PlayerID: "smith", Runs: 55, Fours: 4, Sixes: 1},
			"bumrah": {PlayerID: "bumrah", Wickets: 3, Maidens: 1, Catches: 1},
		},
	}
}

func TestPerformanceScorerIsSymmetricAcrossTeams(t *testing.T) {
	t.Parallel()

	scorer := NewPerformanceScorer()
	m := scorerMatch()

	home := scorer.Score(Battle{Type: TypeBatterVsBatter, Player: SelectedPlayer{PlayerID: "kohli", Team: "India"}}, m)
	away := scorer.Score(Battle{Type: TypeBatterVsBatter, Player: SelectedPlayer{PlayerID: "smith", Team: "Australia"}}, m)
	if home != away {
		t.Fatalf("equal performances must score equally: home=%d away=%d", home, away)
	}

	// 4 participation + 55 runs + 4 fours + 2 for a six + 8 half century.
	if home != 73 {
		t.Fatalf("unexpected batter points: got=%d want=73", home)
	}
}

func TestPerformanceScorerRoles(t *testing.T) {
	t.Parallel()

	scorer := NewPerformanceScorer()
	m := scorerMatch()

	bowler := scorer.Score(Battle{Type: TypeBowlerVsBowler, Player: SelectedPlayer{PlayerID: "bumrah"}}, m)
	// 4 participation + 75 wickets + 8 haul + 12 maiden + 8 catch.
	if bowler != 107 {
		t.Fatalf("unexpected bowler points: got=%d want=107", bowler)
	}

	noStats := scorer.Score(Battle{Type: TypeBowlerVsBowler, Player: SelectedPlayer{PlayerID: "starc"}}, m)
	if noStats != 4 {
		t.Fatalf("unexpected participation points: got=%d want=4", noStats)
	}

	outsider := scorer.Score(Battle{Type: TypeBatterVsBatter, Player: SelectedPlayer{PlayerID: "ghost"}}, m)
	if outsider != 0 {
		t.Fatalf("player outside squads must score zero, got=%d", outsider)
	}
}

func TestChangesAllowedForRank(t *testing.T) {
	t.Parallel()

	want := map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 999: 0}
	for rank, allowed := range want {
		if got := ChangesAllowedForRank(rank); got != allowed {
			t.Fatalf("unexpected allowance for rank %d: got=%d want=%d", rank, got, allowed)
		}
	}
}
