package leaderboard

import "sort"

// DenseRanks orders entries by total points and assigns dense ranks; equal
// totals share a rank and ties are listed by user id.
func DenseRanks(entries []Entry) []RankPosition {
	items := append([]Entry(nil), entries...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].TotalPoints != items[j].TotalPoints {
			return items[i].TotalPoints > items[j].TotalPoints
		}
		return items[i].UserID < items[j].UserID
	})

	out := make([]RankPosition, 0, len(items))
	rank := 0
	prev := 0
	for i, item := range items {
		if i == 0 || item.TotalPoints != prev {
			rank++
			prev = item.TotalPoints
		}
		out = append(out, RankPosition{UserID: item.UserID, Rank: rank})
	}
	return out
}
