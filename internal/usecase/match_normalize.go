package usecase

import (
	"strings"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/match"
)

type ProviderKind string

const (
	ProviderCricAPI      ProviderKind = "cricapi"
	ProviderCricketData  ProviderKind = "cricketdata"
	ProviderESPNCricinfo ProviderKind = "espncricinfo"
)

const (
	defaultSeriesName   = "Unknown"
	defaultVenue        = "TBD"
	defaultTossDecision = "BAT"
)

// ExternalMatch is what every provider client decodes its feed into. Provider
// tags the source; the remaining fields use the provider's own wording and
// are mapped by NormalizeExternalMatch.
type ExternalMatch struct {
	Provider     ProviderKind
	ExternalID   string
	Team1        ExternalTeam
	Team2        ExternalTeam
	Format       string
	Status       string
	Venue        string
	Series       string
	StartTime    time.Time
	TossWinner   string
	TossDecision string
	Current      *ExternalInnings
	Performances []ExternalPerformance
}

type ExternalTeam struct {
	Name     string
	ImageURL string
	Squad    []ExternalSquadPlayer
}

type ExternalSquadPlayer struct {
	PlayerID string
	Name     string
	Role     string
	ImageURL string
}

type ExternalInnings struct {
	Number   int
	Runs     int
	Wickets  int
	Overs    float64
	OverRuns map[int]int
}

type ExternalPerformance struct {
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

// NormalizeExternalMatch maps a provider record onto the canonical match
// record. Missing values take fixed defaults.
func NormalizeExternalMatch(ext ExternalMatch) match.Match {
	out := match.Match{
		ID:           strings.TrimSpace(ext.ExternalID),
		Team1:        match.Team{Name: strings.TrimSpace(ext.Team1.Name), ImageURL: ext.Team1.ImageURL},
		Team2:        match.Team{Name: strings.TrimSpace(ext.Team2.Name), ImageURL: ext.Team2.ImageURL},
		SeriesName:   valueOr(ext.Series, defaultSeriesName),
		Format:       normalizeFormat(ext.Format),
		Venue:        valueOr(ext.Venue, defaultVenue),
		TossWinner:   strings.TrimSpace(ext.TossWinner),
		TossDecision: strings.ToUpper(valueOr(ext.TossDecision, defaultTossDecision)),
		StartTime:    ext.StartTime.UTC(),
		Status:       match.NormalizeStatus(ext.Status),
		Innings:      match.Innings{Number: 1},
		Squad1:       normalizeSquad(ext.Team1.Squad),
		Squad2:       normalizeSquad(ext.Team2.Squad),
	}

	predictionLock := out.StartTime.Add(match.PredictionLockLead)
	battleLock := out.StartTime.Add(match.BattleLockLead)
	out.PredictionLockTime = &predictionLock
	out.BattlesLockTime = &battleLock

	if cur := ext.Current; cur != nil {
		number := cur.Number
		if number <= 0 {
			number = 1
		}
		over, ball := match.SplitOvers(cur.Overs)
		out.Innings = match.Innings{
			Number:      number,
			Runs:        cur.Runs,
			Wickets:     cur.Wickets,
			CurrentOver: over,
			CurrentBall: ball,
		}
		if len(cur.OverRuns) > 0 {
			out.Innings.OverRuns = make(map[int]int, len(cur.OverRuns))
			for k, v := range cur.OverRuns {
				out.Innings.OverRuns[k] = v
			}
		}

		battingTeam := out.Team1.Name
		if number == 2 {
			battingTeam = out.Team2.Name
		}
		out.Innings.Team = battingTeam
		out.Scorecard = []match.InningsScore{{
			Team:    battingTeam,
			Runs:    cur.Runs,
			Wickets: cur.Wickets,
			Overs:   cur.Overs,
		}}
		if number == 2 {
			out.Scorecard = append([]match.InningsScore{{Team: out.Team1.Name}}, out.Scorecard...)
		}
	}

	if len(ext.Performances) > 0 {
		out.Performances = make(map[string]match.PlayerPerformance, len(ext.Performances))
		for _, p := range ext.Performances {
			if p.PlayerID == "" {
				continue
			}
			out.Performances[p.PlayerID] = match.PlayerPerformance{
				PlayerID:     p.PlayerID,
				Runs:         p.Runs,
				BallsFaced:   p.BallsFaced,
				Fours:        p.Fours,
				Sixes:        p.Sixes,
				Wickets:      p.Wickets,
				OversBowled:  p.OversBowled,
				RunsConceded: p.RunsConceded,
				Maidens:      p.Maidens,
				Catches:      p.Catches,
			}
		}
	}
	return out
}

// MergeMatch folds a freshly fetched record into the stored one. Status never
// moves backwards and fields the feed left empty keep their stored value.
// When exactly one over passed, the run delta fills the completed over if the
// feed did not report it.
func MergeMatch(stored, incoming match.Match) match.Match {
	out := incoming.Clone()
	out.CreatedAt = stored.CreatedAt
	if stored.PredictionLockTime != nil {
		v := *stored.PredictionLockTime
		out.PredictionLockTime = &v
	}
	if statusRank(stored.Status) > statusRank(out.Status) {
		out.Status = stored.Status
	}
	if len(out.Squad1) == 0 {
		out.Squad1 = append([]match.SquadPlayer(nil), stored.Squad1...)
	}
	if len(out.Squad2) == 0 {
		out.Squad2 = append([]match.SquadPlayer(nil), stored.Squad2...)
	}
	if len(out.Performances) == 0 && len(stored.Performances) > 0 {
		out.Performances = stored.Clone().Performances
	}
	if out.Venue == defaultVenue && stored.Venue != "" {
		out.Venue = stored.Venue
	}
	if out.SeriesName == defaultSeriesName && stored.SeriesName != "" {
		out.SeriesName = stored.SeriesName
	}
	if out.TossWinner == "" {
		out.TossWinner = stored.TossWinner
		if stored.TossDecision != "" {
			out.TossDecision = stored.TossDecision
		}
	}

	if inningsNumber(stored) == inningsNumber(out) {
		merged := make(map[int]int, len(stored.Innings.OverRuns)+len(out.Innings.OverRuns)+1)
		for k, v := range stored.Innings.OverRuns {
			merged[k] = v
		}
		for k, v := range out.Innings.OverRuns {
			merged[k] = v
		}
		if out.Innings.CurrentOver == stored.Innings.CurrentOver+1 {
			completed := stored.Innings.CurrentOver
			if _, ok := merged[completed]; !ok {
				delta := out.Innings.Runs - stored.Innings.Runs
				if delta < 0 {
					delta = 0
				}
				merged[completed] = delta
			}
		}
		if len(merged) > 0 {
			out.Innings.OverRuns = merged
		}
		if out.Innings.CurrentOver < stored.Innings.CurrentOver {
			out.Innings = stored.Clone().Innings
		}
	}

	if len(stored.Scorecard) > len(out.Scorecard) {
		rows := append([]match.InningsScore(nil), stored.Scorecard...)
		copy(rows, out.Scorecard)
		out.Scorecard = rows
	}
	return out
}

func statusRank(status match.Status) int {
	switch status {
	case match.StatusLive:
		return 1
	case match.StatusFinished:
		return 2
	default:
		return 0
	}
}

func normalizeFormat(value string) match.Format {
	switch match.Format(strings.ToUpper(strings.TrimSpace(value))) {
	case match.FormatODI:
		return match.FormatODI
	case match.FormatTest:
		return match.FormatTest
	default:
		return match.FormatT20
	}
}

func normalizeSquad(items []ExternalSquadPlayer) []match.SquadPlayer {
	if len(items) == 0 {
		return nil
	}
	out := make([]match.SquadPlayer, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.PlayerID) == "" {
			continue
		}
		out = append(out, match.SquadPlayer{
			PlayerID: strings.TrimSpace(item.PlayerID),
			Name:     strings.TrimSpace(item.Name),
			Role:     match.NormalizeRole(item.Role),
			ImageURL: item.ImageURL,
		})
	}
	return out
}

func valueOr(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
