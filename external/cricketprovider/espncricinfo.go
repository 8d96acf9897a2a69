package cricketprovider

import (
	"bytes"
	"context"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

const defaultESPNCricinfoBaseURL = "https://www.espncricinfo.com"

var (
	scoreRegex = regexp.MustCompile(`^(\d+)(?:/(\d+))?`)
	oversRegex = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*ov`)
)

// ESPNCricinfoClient scrapes the live scores page. ESPNcricinfo has no public
// API, so the page's embedded data blob is read first and the plain match
// links are used when the blob is missing.
type ESPNCricinfoClient struct {
	src *source
}

func NewESPNCricinfoClient(cfg Config) *ESPNCricinfoClient {
	return &ESPNCricinfoClient{src: newSource(string(usecase.ProviderESPNCricinfo), defaultESPNCricinfoBaseURL, cfg)}
}

func (c *ESPNCricinfoClient) Name() usecase.ProviderKind {
	return usecase.ProviderESPNCricinfo
}

func (c *ESPNCricinfoClient) FetchCurrentMatches(ctx context.Context) ([]usecase.ExternalMatch, error) {
	raw, err := c.src.get(ctx, "/live-cricket-score", nil, map[string]string{
		"accept":     "text/html",
		"user-agent": "Mozilla/5.0 (compatible; cricket-battle/1.0)",
	})
	if err != nil {
		return nil, crerr.Wrap(err, "fetch espncricinfo live scores")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, crerr.Wrap(err, "parse espncricinfo html")
	}

	if blob := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text()); blob != "" {
		var page espnNextData
		if err := sonic.UnmarshalString(blob, &page); err != nil {
			c.src.logger.WarnContext(ctx, "espncricinfo data blob unreadable, falling back to links", "error", err)
		} else {
			out := make([]usecase.ExternalMatch, 0, len(page.Props.AppPageProps.Data.Content.Matches))
			for _, item := range page.Props.AppPageProps.Data.Content.Matches {
				if item.ObjectID == 0 {
					continue
				}
				out = append(out, item.toExternal())
			}
			return out, nil
		}
	}

	return parseMatchLinks(doc), nil
}

type espnNextData struct {
	Props struct {
		AppPageProps struct {
			Data struct {
				Content struct {
					Matches []espnMatch `json:"matches"`
				} `json:"content"`
			} `json:"data"`
		} `json:"appPageProps"`
	} `json:"props"`
}

type espnMatch struct {
	ObjectID  int64           `json:"objectId"`
	State     string          `json:"state"`
	Format    string          `json:"format"`
	StartTime string          `json:"startTime"`
	Ground    espnNamed       `json:"ground"`
	Series    espnNamed       `json:"series"`
	Teams     []espnMatchTeam `json:"teams"`
}

type espnNamed struct {
	Name     string `json:"name"`
	LongName string `json:"longName"`
}

type espnMatchTeam struct {
	IsLive    bool   `json:"isLive"`
	Score     string `json:"score"`
	ScoreInfo string `json:"scoreInfo"`
	Team      struct {
		LongName string `json:"longName"`
		ImageURL string `json:"imageUrl"`
	} `json:"team"`
}

func (m espnMatch) toExternal() usecase.ExternalMatch {
	ext := usecase.ExternalMatch{
		Provider:   usecase.ProviderESPNCricinfo,
		ExternalID: strconv.FormatInt(m.ObjectID, 10),
		Format:     m.Format,
		Status:     espnStatus(m.State),
		Venue:      firstNonEmpty(m.Ground.LongName, m.Ground.Name),
		Series:     firstNonEmpty(m.Series.LongName, m.Series.Name),
		StartTime:  parseProviderTime(m.StartTime),
	}
	if len(m.Teams) > 0 {
		ext.Team1 = usecase.ExternalTeam{Name: m.Teams[0].Team.LongName, ImageURL: m.Teams[0].Team.ImageURL}
	}
	if len(m.Teams) > 1 {
		ext.Team2 = usecase.ExternalTeam{Name: m.Teams[1].Team.LongName, ImageURL: m.Teams[1].Team.ImageURL}
	}

	batted := 0
	var current *espnMatchTeam
	for i := range m.Teams {
		team := &m.Teams[i]
		if strings.TrimSpace(team.Score) == "" {
			continue
		}
		batted++
		if current == nil || team.IsLive {
			current = team
		}
	}
	if current != nil {
		runs, wickets := parseScore(current.Score)
		ext.Current = &usecase.ExternalInnings{
			Number:  batted,
			Runs:    runs,
			Wickets: wickets,
			Overs:   parseOvers(current.ScoreInfo),
		}
	}
	return ext
}

func espnStatus(state string) string {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case "LIVE":
		return "live"
	case "POST", "RESULT":
		return "completed"
	default:
		return "scheduled"
	}
}

func parseScore(value string) (int, int) {
	match := scoreRegex.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return 0, 0
	}
	runs, _ := strconv.Atoi(match[1])
	wickets := 10
	if match[2] != "" {
		wickets, _ = strconv.Atoi(match[2])
	}
	return runs, wickets
}

func parseOvers(value string) float64 {
	match := oversRegex.FindStringSubmatch(value)
	if match == nil {
		return 0
	}
	overs, _ := strconv.ParseFloat(match[1], 64)
	return overs
}

// parseMatchLinks reads the bare match cards. They carry no score, so every
// match comes back scheduled with the team names only.
func parseMatchLinks(doc *goquery.Document) []usecase.ExternalMatch {
	var out []usecase.ExternalMatch
	doc.Find("a.match-item").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		id := path.Base(strings.TrimRight(href, "/"))
		if id == "" || id == "." || id == "/" {
			return
		}
		out = append(out, usecase.ExternalMatch{
			Provider:   usecase.ProviderESPNCricinfo,
			ExternalID: id,
			Team1:      usecase.ExternalTeam{Name: strings.TrimSpace(s.Find(".team-1").Text())},
			Team2:      usecase.ExternalTeam{Name: strings.TrimSpace(s.Find(".team-2").Text())},
			Status:     "scheduled",
		})
	})
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
