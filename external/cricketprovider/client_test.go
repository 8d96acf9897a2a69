package cricketprovider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/riskibarqy/cricket-battle/internal/platform/resilience"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		APIKey:     "secret-key",
		MaxRetries: 2,
		Logger:     logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}
}

func TestCricAPIClient_FetchCurrentMatches(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/currentMatches" || r.URL.Query().Get("apikey") != "secret-key" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"status":"success","data":[
			{"id":"c-1","matchType":"t20","status":"India need 40 runs","venue":"Wankhede","series":"Border Trophy",
			 "dateTimeGMT":"2026-03-10T14:00:00","teams":["India","Australia"],
			 "teamInfo":[{"name":"Australia","img":"https://img/aus.png"}],
			 "score":[{"r":181,"w":5,"o":20,"inning":"Australia Inning 1"},{"r":142,"w":3,"o":15.4,"inning":"India Inning 2"}],
			 "matchStarted":true,"matchEnded":false},
			{"id":"","teams":["X","Y"]}
		]}`))
	}))
	defer server.Close()

	got, err := NewCricAPIClient(testConfig(server.URL)).FetchCurrentMatches(context.Background())
	if err != nil {
		t.Fatalf("FetchCurrentMatches error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one match, got %d", len(got))
	}

	m := got[0]
	if m.Status != "live" || m.Team2.ImageURL != "https://img/aus.png" || !m.StartTime.Equal(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected match: %+v", m)
	}
	if m.Current == nil || m.Current.Number != 2 || m.Current.Runs != 142 || m.Current.Overs != 15.4 {
		t.Fatalf("unexpected current innings: %+v", m.Current)
	}
}

func TestCricketDataClient_FetchCurrentMatches(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "secret-key" {
			t.Errorf("missing api key header")
		}
		if statuses := r.URL.Query()["status"]; len(statuses) != 2 {
			t.Errorf("unexpected status filter: %v", statuses)
		}
		_, _ = w.Write([]byte(`{"matches":[{
			"id":"cd-9","format":"odi","status":"LIVE","startDate":"2026-03-10T09:30:00Z",
			"venue":{"name":"Eden Gardens"},"toss":{"winner":"India","decision":"bowl"},
			"teams":[
				{"name":"India","flagUrl":"https://img/ind.png","squad":[{"id":"p1","name":"Virat Kohli","role":"Batsman"}]},
				{"name":"England","squad":[{"id":"p2","name":"Mark Wood","role":"Bowler"}]}
			],
			"currentInnings":{"number":1,"runs":58,"wickets":1,"overs":9.3,"overRuns":{"7":6,"8":12,"x":3}},
			"playerStats":[{"playerId":"p1","runs":41,"fours":4,"sixes":1},{"playerId":""}]
		}]}`))
	}))
	defer server.Close()

	got, err := NewCricketDataClient(testConfig(server.URL)).FetchCurrentMatches(context.Background())
	if err != nil {
		t.Fatalf("FetchCurrentMatches error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one match, got %d", len(got))
	}

	m := got[0]
	if m.Venue != "Eden Gardens" || m.TossDecision != "BOWL" || len(m.Team1.Squad) != 1 || m.Team1.Squad[0].Role != "Batsman" {
		t.Fatalf("unexpected match: %+v", m)
	}
	if m.Current == nil || len(m.Current.OverRuns) != 2 || m.Current.OverRuns[8] != 12 {
		t.Fatalf("unexpected over runs: %+v", m.Current)
	}
	if len(m.Performances) != 1 || m.Performances[0].Runs != 41 {
		t.Fatalf("unexpected performances: %+v", m.Performances)
	}
}

func TestESPNCricinfoClient_ReadsEmbeddedData(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<script id="__NEXT_DATA__" type="application/json">{"props":{"appPageProps":{"data":{"content":{"matches":[
 {"objectId":1422,"state":"LIVE","format":"T20","startTime":"2026-03-10T14:00:00.000Z",
  "ground":{"name":"MCG"},"series":{"longName":"Big Bash League"},
  "teams":[
   {"score":"176/6","scoreInfo":"20 ov","team":{"longName":"Sydney Sixers"}},
   {"isLive":true,"score":"88/2","scoreInfo":"(10.3/20 ov, T:177)","team":{"longName":"Perth Scorchers"}}
  ]}
]}}}}}</script></body></html>`))
	}))
	defer server.Close()

	got, err := NewESPNCricinfoClient(testConfig(server.URL)).FetchCurrentMatches(context.Background())
	if err != nil {
		t.Fatalf("FetchCurrentMatches error: %v", err)
	}
	if len(got) != 1 || got[0].ExternalID != "1422" || got[0].Status != "live" || got[0].Series != "Big Bash League" {
		t.Fatalf("unexpected matches: %+v", got)
	}
	current := got[0].Current
	if current == nil || current.Number != 2 || current.Runs != 88 || current.Wickets != 2 || current.Overs != 10.3 {
		t.Fatalf("unexpected current innings: %+v", current)
	}
}

func TestESPNCricinfoClient_FallsBackToMatchLinks(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<a class="match-item" href="/series/ipl-2026/match/1501/"><span class="team-1">Mumbai</span><span class="team-2">Chennai</span></a>
<a class="match-item"><span class="team-1">No link</span></a>
</body></html>`))
	}))
	defer server.Close()

	got, err := NewESPNCricinfoClient(testConfig(server.URL)).FetchCurrentMatches(context.Background())
	if err != nil {
		t.Fatalf("FetchCurrentMatches error: %v", err)
	}
	if len(got) != 1 || got[0].ExternalID != "1501" || got[0].Team2.Name != "Chennai" || got[0].Status != "scheduled" {
		t.Fatalf("unexpected matches: %+v", got)
	}
}

func TestSource_RetriesThenOpensCircuit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewCricAPIClient(testConfig(server.URL))
	client.src.backoff = func(int) time.Duration { return time.Millisecond }

	if _, err := client.FetchCurrentMatches(context.Background()); err == nil {
		t.Fatalf("expected upstream failure")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}

	_, err := client.FetchCurrentMatches(context.Background())
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("open circuit must not reach upstream, got %d calls", got)
	}
}

func TestSource_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"reason":"bad key ` + r.URL.Query().Get("apikey") + `"}`))
	}))
	defer server.Close()

	_, err := NewCricAPIClient(testConfig(server.URL)).FetchCurrentMatches(context.Background())
	if err == nil || calls.Load() != 1 {
		t.Fatalf("expected single failed attempt, err=%v calls=%d", err, calls.Load())
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind    string
		apiKey  string
		want    usecase.ProviderKind
		wantErr bool
	}{
		{kind: "cricapi", apiKey: "k", want: usecase.ProviderCricAPI},
		{kind: " CricketData ", apiKey: "k", want: usecase.ProviderCricketData},
		{kind: "espncricinfo", want: usecase.ProviderESPNCricinfo},
		{kind: "cricapi", wantErr: true},
		{kind: "sportmonks", apiKey: "k", wantErr: true},
	}

	for _, tc := range tests {
		got, err := New(tc.kind, Config{APIKey: tc.apiKey})
		if tc.wantErr {
			if err == nil {
				t.Fatalf("kind=%q expected error", tc.kind)
			}
			continue
		}
		if err != nil {
			t.Fatalf("kind=%q unexpected error: %v", tc.kind, err)
		}
		if got.Name() != tc.want {
			t.Fatalf("kind=%q got provider %s", tc.kind, got.Name())
		}
	}
}
