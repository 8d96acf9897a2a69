package cricketprovider

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

const defaultCricketDataBaseURL = "https://api.cricketdata.com"

// CricketDataClient reads scheduled and live matches, including squads and
// player statistics, from the CricketData API.
type CricketDataClient struct {
	src *source
}

func NewCricketDataClient(cfg Config) *CricketDataClient {
	return &CricketDataClient{src: newSource(string(usecase.ProviderCricketData), defaultCricketDataBaseURL, cfg)}
}

func (c *CricketDataClient) Name() usecase.ProviderKind {
	return usecase.ProviderCricketData
}

func (c *CricketDataClient) FetchCurrentMatches(ctx context.Context) ([]usecase.ExternalMatch, error) {
	query := url.Values{}
	query.Add("status", "scheduled")
	query.Add("status", "live")

	raw, err := c.src.get(ctx, "/matches", query, map[string]string{
		"accept":    "application/json",
		"x-api-key": c.src.apiKey,
	})
	if err != nil {
		return nil, crerr.Wrap(err, "fetch cricketdata matches")
	}

	var envelope cricketDataEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, crerr.Wrap(err, "decode cricketdata payload")
	}

	out := make([]usecase.ExternalMatch, 0, len(envelope.Matches))
	for _, item := range envelope.Matches {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		out = append(out, item.toExternal())
	}
	return out, nil
}

type cricketDataEnvelope struct {
	Matches []cricketDataMatch `json:"matches"`
}

type cricketDataMatch struct {
	ID             string                  `json:"id"`
	Format         string                  `json:"format"`
	Status         string                  `json:"status"`
	StartDate      string                  `json:"startDate"`
	Venue          *cricketDataNamed       `json:"venue"`
	Series         *cricketDataNamed       `json:"series"`
	Toss           *cricketDataToss        `json:"toss"`
	Teams          []cricketDataTeam       `json:"teams"`
	CurrentInnings *cricketDataInnings     `json:"currentInnings"`
	PlayerStats    []cricketDataPlayerStat `json:"playerStats"`
}

type cricketDataNamed struct {
	Name string `json:"name"`
}

type cricketDataToss struct {
	Winner   string `json:"winner"`
	Decision string `json:"decision"`
}

type cricketDataTeam struct {
	Name    string              `json:"name"`
	FlagURL string              `json:"flagUrl"`
	Squad   []cricketDataPlayer `json:"squad"`
}

type cricketDataPlayer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ImageURL string `json:"imageUrl"`
}

type cricketDataInnings struct {
	Number  int     `json:"number"`
	Runs    int     `json:"runs"`
	Wickets int     `json:"wickets"`
	Overs   float64 `json:"overs"`
	// OverRuns is keyed by the zero-based over number as a string.
	OverRuns map[string]int `json:"overRuns"`
}

type cricketDataPlayerStat struct {
	PlayerID     string  `json:"playerId"`
	Runs         int     `json:"runs"`
	BallsFaced   int     `json:"ballsFaced"`
	Fours        int     `json:"fours"`
	Sixes        int     `json:"sixes"`
	Wickets      int     `json:"wickets"`
	Overs        float64 `json:"overs"`
	RunsConceded int     `json:"runsConceded"`
	Maidens      int     `json:"maidens"`
	Catches      int     `json:"catches"`
}

func (m cricketDataMatch) toExternal() usecase.ExternalMatch {
	ext := usecase.ExternalMatch{
		Provider:   usecase.ProviderCricketData,
		ExternalID: strings.TrimSpace(m.ID),
		Format:     m.Format,
		Status:     m.Status,
		StartTime:  parseProviderTime(m.StartDate),
	}
	if m.Venue != nil {
		ext.Venue = m.Venue.Name
	}
	if m.Series != nil {
		ext.Series = m.Series.Name
	}
	if m.Toss != nil {
		ext.TossWinner = m.Toss.Winner
		ext.TossDecision = strings.ToUpper(strings.TrimSpace(m.Toss.Decision))
	}
	if len(m.Teams) > 0 {
		ext.Team1 = m.Teams[0].toExternal()
	}
	if len(m.Teams) > 1 {
		ext.Team2 = m.Teams[1].toExternal()
	}

	if in := m.CurrentInnings; in != nil {
		current := &usecase.ExternalInnings{
			Number:  in.Number,
			Runs:    in.Runs,
			Wickets: in.Wickets,
			Overs:   in.Overs,
		}
		for key, runs := range in.OverRuns {
			over, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || over < 0 {
				continue
			}
			if current.OverRuns == nil {
				current.OverRuns = make(map[int]int, len(in.OverRuns))
			}
			current.OverRuns[over] = runs
		}
		ext.Current = current
	}

	for _, stat := range m.PlayerStats {
		if strings.TrimSpace(stat.PlayerID) == "" {
			continue
		}
		ext.Performances = append(ext.Performances, usecase.ExternalPerformance{
			PlayerID:     stat.PlayerID,
			Runs:         stat.Runs,
			BallsFaced:   stat.BallsFaced,
			Fours:        stat.Fours,
			Sixes:        stat.Sixes,
			Wickets:      stat.Wickets,
			OversBowled:  stat.Overs,
			RunsConceded: stat.RunsConceded,
			Maidens:      stat.Maidens,
			Catches:      stat.Catches,
		})
	}
	return ext
}

func (t cricketDataTeam) toExternal() usecase.ExternalTeam {
	out := usecase.ExternalTeam{Name: t.Name, ImageURL: t.FlagURL}
	for _, p := range t.Squad {
		out.Squad = append(out.Squad, usecase.ExternalSquadPlayer{
			PlayerID: p.ID,
			Name:     p.Name,
			Role:     p.Role,
			ImageURL: p.ImageURL,
		})
	}
	return out
}
