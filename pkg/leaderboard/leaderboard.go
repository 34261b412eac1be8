// Package leaderboard ranks competition participants by PnL. Scores live in
// a Redis sorted set so the ranking survives simulator restarts and can be
// served straight from ZREVRANGE.
package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Entry struct {
	UserID string  `json:"userId"`
	PnL    float64 `json:"pnl"`
}

// Scorer is what the position tracker needs; Leaderboard is the Redis
// implementation.
type Scorer interface {
	UpdateUserPnL(ctx context.Context, competitionID, userID string, pnl float64) error
}

type Leaderboard struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Leaderboard {
	return &Leaderboard{rdb: rdb}
}

func key(competitionID string) string {
	return fmt.Sprintf("leaderboard:%s", competitionID)
}

func (l *Leaderboard) UpdateUserPnL(ctx context.Context, competitionID, userID string, pnl float64) error {
	return l.rdb.ZAdd(ctx, key(competitionID), redis.Z{
		Score:  pnl,
		Member: userID,
	}).Err()
}

// Top returns the best-ranked users, highest PnL first.
func (l *Leaderboard) Top(ctx context.Context, competitionID string, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	zs, err := l.rdb.ZRevRangeWithScores(ctx, key(competitionID), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		userID, _ := z.Member.(string)
		entries = append(entries, Entry{UserID: userID, PnL: z.Score})
	}
	return entries, nil
}

// UserRank is 1-based; ok=false when the user has no score yet.
func (l *Leaderboard) UserRank(ctx context.Context, competitionID, userID string) (int64, bool, error) {
	rank, err := l.rdb.ZRevRank(ctx, key(competitionID), userID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rank + 1, true, nil
}
