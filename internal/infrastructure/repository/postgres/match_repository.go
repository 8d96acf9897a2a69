package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	qb "github.com/riskibarqy/cricket-battle/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match by id: %w", err)
	}

	item, err := matchFromRow(row)
	if err != nil {
		return match.Match{}, false, err
	}
	return item, true, nil
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		OrderBy("start_time", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchTableModel
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		item, err := matchFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Upsert locks the stored row, writes the new version and returns the old
// one, so the caller can diff the two without a lost update in between.
func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) (match.Match, bool, error) {
	insertModel, err := matchToInsertModel(item)
	if err != nil {
		return match.Match{}, false, err
	}

	var (
		prev    match.Match
		existed bool
	)
	err = withinTx(ctx, r.db, func(ctx context.Context, q sqlx.ExtContext) error {
		lockQuery, lockArgs, err := qb.Select("*").From("matches").Where(qb.Eq("id", item.ID)).ForUpdate().ToSQL()
		if err != nil {
			return fmt.Errorf("build lock match query: %w", err)
		}
		var row matchTableModel
		err = sqlx.GetContext(ctx, q, &row, lockQuery, lockArgs...)
		switch {
		case isNotFound(err):
		case err != nil:
			return fmt.Errorf("lock match row: %w", err)
		default:
			prev, err = matchFromRow(row)
			if err != nil {
				return err
			}
			existed = true
		}

		query, args, err := qb.InsertModel("matches", insertModel, `ON CONFLICT (id)
DO UPDATE SET
    team1_name = EXCLUDED.team1_name,
    team1_image_url = EXCLUDED.team1_image_url,
    team2_name = EXCLUDED.team2_name,
    team2_image_url = EXCLUDED.team2_image_url,
    series_name = EXCLUDED.series_name,
    format = EXCLUDED.format,
    venue = EXCLUDED.venue,
    toss_winner = EXCLUDED.toss_winner,
    toss_decision = EXCLUDED.toss_decision,
    start_time = EXCLUDED.start_time,
    status = EXCLUDED.status,
    scorecard = EXCLUDED.scorecard,
    innings = EXCLUDED.innings,
    squad1 = EXCLUDED.squad1,
    squad2 = EXCLUDED.squad2,
    performances = EXCLUDED.performances,
    prediction_lock_time = COALESCE(matches.prediction_lock_time, EXCLUDED.prediction_lock_time),
    battles_lock_time = EXCLUDED.battles_lock_time,
    updated_at = EXCLUDED.updated_at`)
		if err != nil {
			return fmt.Errorf("build upsert match query: %w", err)
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert match id=%s: %w", item.ID, err)
		}
		return nil
	})
	if err != nil {
		return match.Match{}, false, err
	}
	return prev, existed, nil
}

func (r *MatchRepository) SetPredictionLockTime(ctx context.Context, matchID string, lockAt time.Time) error {
	query, args, err := qb.Update("matches").
		Set("prediction_lock_time", lockAt.UTC()).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set prediction lock query: %w", err)
	}

	result, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set prediction lock time: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows set prediction lock: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("match not found: %s", matchID)
	}
	return nil
}

func matchFromRow(row matchTableModel) (match.Match, error) {
	item := match.Match{
		ID:                 row.ID,
		Team1:              match.Team{Name: row.Team1Name, ImageURL: row.Team1ImageURL},
		Team2:              match.Team{Name: row.Team2Name, ImageURL: row.Team2ImageURL},
		SeriesName:         row.SeriesName,
		Format:             match.Format(row.Format),
		Venue:              row.Venue,
		TossWinner:         row.TossWinner,
		TossDecision:       row.TossDecision,
		StartTime:          row.StartTime.UTC(),
		Status:             match.Status(row.Status),
		PredictionLockTime: nullTimeToTimePtr(row.PredictionLockTime),
		BattlesLockTime:    nullTimeToTimePtr(row.BattlesLockTime),
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
	}

	var scorecard []inningsScoreJSON
	if err := decodeJSONColumn(row.Scorecard, &scorecard); err != nil {
		return match.Match{}, fmt.Errorf("decode scorecard match=%s: %w", row.ID, err)
	}
	for _, s := range scorecard {
		item.Scorecard = append(item.Scorecard, match.InningsScore{Team: s.Team, Runs: s.Runs, Wickets: s.Wickets, Overs: s.Overs})
	}

	var innings inningsJSON
	if err := decodeJSONColumn(row.Innings, &innings); err != nil {
		return match.Match{}, fmt.Errorf("decode innings match=%s: %w", row.ID, err)
	}
	item.Innings = match.Innings{
		Number:      innings.Number,
		Team:        innings.Team,
		Runs:        innings.Runs,
		Wickets:     innings.Wickets,
		CurrentOver: innings.CurrentOver,
		CurrentBall: innings.CurrentBall,
	}
	if len(innings.OverRuns) > 0 {
		item.Innings.OverRuns = make(map[int]int, len(innings.OverRuns))
		for k, v := range innings.OverRuns {
			over, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			item.Innings.OverRuns[over] = v
		}
	}

	var err error
	if item.Squad1, err = decodeSquad(row.Squad1); err != nil {
		return match.Match{}, fmt.Errorf("decode squad1 match=%s: %w", row.ID, err)
	}
	if item.Squad2, err = decodeSquad(row.Squad2); err != nil {
		return match.Match{}, fmt.Errorf("decode squad2 match=%s: %w", row.ID, err)
	}

	var perfs map[string]performanceJSON
	if err := decodeJSONColumn(row.Performances, &perfs); err != nil {
		return match.Match{}, fmt.Errorf("decode performances match=%s: %w", row.ID, err)
	}
	if len(perfs) > 0 {
		item.Performances = make(map[string]match.PlayerPerformance, len(perfs))
		for playerID, p := range perfs {
			item.Performances[playerID] = match.PlayerPerformance{
				PlayerID:     playerID,
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
	return item, nil
}

func matchToInsertModel(item match.Match) (matchInsertModel, error) {
	scorecard := make([]inningsScoreJSON, 0, len(item.Scorecard))
	for _, s := range item.Scorecard {
		scorecard = append(scorecard, inningsScoreJSON{Team: s.Team, Runs: s.Runs, Wickets: s.Wickets, Overs: s.Overs})
	}
	innings := inningsJSON{
		Number:      item.Innings.Number,
		Team:        item.Innings.Team,
		Runs:        item.Innings.Runs,
		Wickets:     item.Innings.Wickets,
		CurrentOver: item.Innings.CurrentOver,
		CurrentBall: item.Innings.CurrentBall,
	}
	if len(item.Innings.OverRuns) > 0 {
		innings.OverRuns = make(map[string]int, len(item.Innings.OverRuns))
		for k, v := range item.Innings.OverRuns {
			innings.OverRuns[strconv.Itoa(k)] = v
		}
	}
	perfs := make(map[string]performanceJSON, len(item.Performances))
	for playerID, p := range item.Performances {
		perfs[playerID] = performanceJSON{
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

	columns := make([]string, 5)
	for i, v := range []any{scorecard, innings, encodeSquad(item.Squad1), encodeSquad(item.Squad2), perfs} {
		encoded, err := jsonColumn(v)
		if err != nil {
			return matchInsertModel{}, fmt.Errorf("encode match=%s column: %w", item.ID, err)
		}
		columns[i] = encoded
	}

	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	return matchInsertModel{
		ID:                 item.ID,
		Team1Name:          item.Team1.Name,
		Team1ImageURL:      item.Team1.ImageURL,
		Team2Name:          item.Team2.Name,
		Team2ImageURL:      item.Team2.ImageURL,
		SeriesName:         item.SeriesName,
		Format:             string(item.Format),
		Venue:              item.Venue,
		TossWinner:         item.TossWinner,
		TossDecision:       item.TossDecision,
		StartTime:          item.StartTime.UTC(),
		Status:             string(item.Status),
		Scorecard:          columns[0],
		Innings:            columns[1],
		Squad1:             columns[2],
		Squad2:             columns[3],
		Performances:       columns[4],
		PredictionLockTime: timePtrToNullTime(item.PredictionLockTime),
		BattlesLockTime:    timePtrToNullTime(item.BattlesLockTime),
		CreatedAt:          createdAt.UTC(),
		UpdatedAt:          updatedAt.UTC(),
	}, nil
}

func encodeSquad(items []match.SquadPlayer) []squadPlayerJSON {
	out := make([]squadPlayerJSON, 0, len(items))
	for _, p := range items {
		out = append(out, squadPlayerJSON{PlayerID: p.PlayerID, Name: p.Name, Role: string(p.Role), ImageURL: p.ImageURL})
	}
	return out
}

func decodeSquad(raw []byte) ([]match.SquadPlayer, error) {
	var items []squadPlayerJSON
	if err := decodeJSONColumn(raw, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]match.SquadPlayer, 0, len(items))
	for _, p := range items {
		out = append(out, match.SquadPlayer{PlayerID: p.PlayerID, Name: p.Name, Role: match.PlayerRole(p.Role), ImageURL: p.ImageURL})
	}
	return out, nil
}
