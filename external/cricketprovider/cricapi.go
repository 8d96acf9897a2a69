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

const defaultCricAPIBaseURL = "https://api.cricapi.com/v1"

// CricAPIClient reads the currentMatches feed of cricapi.com.
type CricAPIClient struct {
	src *source
}

func NewCricAPIClient(cfg Config) *CricAPIClient {
	return &CricAPIClient{src: newSource(string(usecase.ProviderCricAPI), defaultCricAPIBaseURL, cfg)}
}

func (c *CricAPIClient) Name() usecase.ProviderKind {
	return usecase.ProviderCricAPI
}

func (c *CricAPIClient) FetchCurrentMatches(ctx context.Context) ([]usecase.ExternalMatch, error) {
	query := url.Values{}
	query.Set("apikey", c.src.apiKey)
	query.Set("offset", "0")

	raw, err := c.src.get(ctx, "/currentMatches", query, map[string]string{"accept": "application/json"})
	if err != nil {
		return nil, crerr.Wrap(err, "fetch cricapi current matches")
	}

	var envelope cricAPIEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, crerr.Wrap(err, "decode cricapi payload")
	}
	if !strings.EqualFold(envelope.Status, "success") && envelope.Status != "" {
		return nil, crerr.Newf("cricapi returned status=%s reason=%s", envelope.Status, envelope.Reason)
	}

	out := make([]usecase.ExternalMatch, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		out = append(out, item.toExternal())
	}
	return out, nil
}

type cricAPIEnvelope struct {
	Status string         `json:"status"`
	Reason string         `json:"reason"`
	Data   []cricAPIMatch `json:"data"`
}

type cricAPIMatch struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	MatchType    string            `json:"matchType"`
	Status       string            `json:"status"`
	Venue        string            `json:"venue"`
	Series       string            `json:"series"`
	Date         string            `json:"date"`
	DateTimeGMT  string            `json:"dateTimeGMT"`
	Teams        []string          `json:"teams"`
	TeamInfo     []cricAPITeamInfo `json:"teamInfo"`
	Score        []cricAPIScore    `json:"score"`
	TossWinner   string            `json:"tossWinner"`
	TossChoice   string            `json:"tossChoice"`
	MatchStarted bool              `json:"matchStarted"`
	MatchEnded   bool              `json:"matchEnded"`
}

type cricAPITeamInfo struct {
	Name      string `json:"name"`
	ShortName string `json:"shortname"`
	Img       string `json:"img"`
}

type cricAPIScore struct {
	R      int     `json:"r"`
	W      int     `json:"w"`
	O      float64 `json:"o"`
	Inning string  `json:"inning"`
}

func (m cricAPIMatch) toExternal() usecase.ExternalMatch {
	ext := usecase.ExternalMatch{
		Provider:     usecase.ProviderCricAPI,
		ExternalID:   strings.TrimSpace(m.ID),
		Format:       m.MatchType,
		Status:       m.feedStatus(),
		Venue:        m.Venue,
		Series:       m.Series,
		StartTime:    parseProviderTime(m.DateTimeGMT, m.Date),
		TossWinner:   m.TossWinner,
		TossDecision: m.TossChoice,
	}
	if len(m.Teams) > 0 {
		ext.Team1.Name = m.Teams[0]
	}
	if len(m.Teams) > 1 {
		ext.Team2.Name = m.Teams[1]
	}
	for _, info := range m.TeamInfo {
		switch {
		case strings.EqualFold(info.Name, ext.Team1.Name):
			ext.Team1.ImageURL = info.Img
		case strings.EqualFold(info.Name, ext.Team2.Name):
			ext.Team2.ImageURL = info.Img
		}
	}

	// The last score row is the innings in progress.
	if n := len(m.Score); n > 0 {
		last := m.Score[n-1]
		ext.Current = &usecase.ExternalInnings{
			Number:  inningsNumber(last.Inning, n),
			Runs:    last.R,
			Wickets: last.W,
			Overs:   last.O,
		}
	}
	return ext
}

// feedStatus prefers the started/ended flags over the free-text status line.
func (m cricAPIMatch) feedStatus() string {
	switch {
	case m.MatchEnded:
		return "completed"
	case m.MatchStarted:
		return "live"
	default:
		return m.Status
	}
}

// inningsNumber reads "India Inning 2" style labels and falls back to the
// position of the row.
func inningsNumber(label string, position int) int {
	fields := strings.Fields(label)
	if len(fields) > 0 {
		if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil && n > 0 {
			return n
		}
	}
	if position > 2 {
		return 2
	}
	return position
}
