package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"wordrush/backend/internal/models"
)

const soloKey = "wordrush:leaderboard:solo"

// Leaderboard mirrors solo scores into a redis sorted set for cheap rank
// reads. The gorm LeaderboardEntry row stays authoritative: the mirror is
// rebuilt-on-write and a missing member just means "no rank yet".
type Leaderboard struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Leaderboard {
	return &Leaderboard{rdb: rdb}
}

func soloMember(runID uint) string {
	return fmt.Sprintf("run:%d", runID)
}

// RecordSolo mirrors one leaderboard entry into the sorted set.
func (l *Leaderboard) RecordSolo(entry models.LeaderboardEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return l.rdb.ZAdd(ctx, soloKey, &redis.Z{
		Score:  float64(entry.Score),
		Member: soloMember(entry.RunID),
	}).Err()
}

// SoloRank returns the 1-based rank of a run, best score first. The second
// return is false when the run has no mirrored entry.
func (l *Leaderboard) SoloRank(ctx context.Context, runID uint) (int64, bool, error) {
	rank, err := l.rdb.ZRevRank(ctx, soloKey, soloMember(runID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rank + 1, true, nil
}
