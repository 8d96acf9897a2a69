package memory

import (
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
)

const (
	MatchIDIndiaAustralia = "seed-ind-aus-t20"
	MatchIDEnglandPak     = "seed-eng-pak-odi"
)

// SeedMatches returns fixtures for local runs with the memory backend. Start
// times are relative to now so predictions are open after boot.
func SeedMatches(now time.Time) []match.Match {
	now = now.UTC()
	start1 := now.Add(2 * time.Hour)
	start2 := now.Add(26 * time.Hour)

	return []match.Match{
		seedMatch(MatchIDIndiaAustralia, "India", "Australia", "Border-Gavaskar T20 Series", match.FormatT20, "Wankhede Stadium", start1,
			[]match.SquadPlayer{
				{PlayerID: "ind-rohit", Name: "Rohit Sharma", Role: match.RoleBatter},
				{PlayerID: "ind-kohli", Name: "Virat Kohli", Role: match.RoleBatter},
				{PlayerID: "ind-hardik", Name: "Hardik Pandya", Role: match.RoleAllRounder},
				{PlayerID: "ind-bumrah", Name: "Jasprit Bumrah", Role: match.RoleBowler},
			},
			[]match.SquadPlayer{
				{PlayerID: "aus-head", Name: "Travis Head", Role: match.RoleBatter},
				{PlayerID: "aus-smith", Name: "Steve Smith", Role: match.RoleBatter},
				{PlayerID: "aus-maxwell", Name: "Glenn Maxwell", Role: match.RoleAllRounder},
				{PlayerID: "aus-starc", Name: "Mitchell Starc", Role: match.RoleBowler},
			},
		),
		seedMatch(MatchIDEnglandPak, "England", "Pakistan", "Pakistan tour of England", match.FormatODI, "Lord's", start2,
			[]match.SquadPlayer{
				{PlayerID: "eng-root", Name: "Joe Root", Role: match.RoleBatter},
				{PlayerID: "eng-stokes", Name: "Ben Stokes", Role: match.RoleAllRounder},
				{PlayerID: "eng-wood", Name: "Mark Wood", Role: match.RoleBowler},
			},
			[]match.SquadPlayer{
				{PlayerID: "pak-babar", Name: "Babar Azam", Role: match.RoleBatter},
				{PlayerID: "pak-shadab", Name: "Shadab Khan", Role: match.RoleAllRounder},
				{PlayerID: "pak-shaheen", Name: "Shaheen Afridi", Role: match.RoleBowler},
			},
		),
	}
}

func SeedUsers(now time.Time) []user.User {
	now = now.UTC()
	return []user.User{
		{ID: "seed-user-1", DisplayName: "Cover Drive", CreatedAt: now, UpdatedAt: now},
		{ID: "seed-user-2", DisplayName: "Leg Spin", CreatedAt: now, UpdatedAt: now},
	}
}

func seedMatch(id, team1, team2, series string, format match.Format, venue string, start time.Time, squad1, squad2 []match.SquadPlayer) match.Match {
	predictionLock := start.Add(match.PredictionLockLead)
	battleLock := start.Add(match.BattleLockLead)
	return match.Match{
		ID:                 id,
		Team1:              match.Team{Name: team1},
		Team2:              match.Team{Name: team2},
		SeriesName:         series,
		Format:             format,
		Venue:              venue,
		TossDecision:       "BAT",
		StartTime:          start,
		Status:             match.StatusScheduled,
		Innings:            match.Innings{Number: 1},
		Squad1:             squad1,
		Squad2:             squad2,
		PredictionLockTime: &predictionLock,
		BattlesLockTime:    &battleLock,
		CreatedAt:          start.Add(-48 * time.Hour),
		UpdatedAt:          start.Add(-48 * time.Hour),
	}
}
