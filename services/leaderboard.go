package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/oyolcinar/dus-backend-sub003/models"
)

const leaderboardKey = "duels:leaderboard"

// streakCap bounds the streak share of the composite score so it can
// never eat into a whole win.
const streakCap = 99999

// LeaderboardCache mirrors the duel leaderboard into a Redis sorted set.
// Score packs wins and losing streak into one number
// (wins*100000 - streak) so ZREVRANGE reproduces the store ordering:
// duelsWon DESC, currentLosingStreak ASC. Members are zero-padded user
// ids; for equal scores ZREVRANGE returns members in reverse
// lexicographic order, which is id DESC — the same documented tiebreak
// the store query uses.
type LeaderboardCache struct {
	rdb *redis.Client
}

func NewLeaderboardCache(rdb *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{rdb: rdb}
}

func boardScore(u *models.User) float64 {
	streak := u.CurrentLosingStreak
	if streak > streakCap {
		streak = streakCap
	}
	return float64(u.DuelsWon*100000 - streak)
}

func boardMember(userID int64) string {
	return fmt.Sprintf("%012d", userID)
}

// Update pushes the current scores for the given users. Users who have
// not completed a duel yet stay off the board.
func (lc *LeaderboardCache) Update(ctx context.Context, users ...models.User) error {
	members := make([]redis.Z, 0, len(users))
	for i := range users {
		if users[i].TotalDuels == 0 {
			continue
		}
		members = append(members, redis.Z{
			Score:  boardScore(&users[i]),
			Member: boardMember(users[i].ID),
		})
	}
	if len(members) == 0 {
		return nil
	}
	return lc.rdb.ZAdd(ctx, leaderboardKey, members...).Err()
}

// Rebuild atomically replaces the whole board.
func (lc *LeaderboardCache) Rebuild(ctx context.Context, users []models.User) error {
	members := make([]redis.Z, 0, len(users))
	for i := range users {
		if users[i].TotalDuels == 0 {
			continue
		}
		members = append(members, redis.Z{
			Score:  boardScore(&users[i]),
			Member: boardMember(users[i].ID),
		})
	}

	_, err := lc.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, leaderboardKey)
		if len(members) > 0 {
			pipe.ZAdd(ctx, leaderboardKey, members...)
		}
		return nil
	})
	return err
}

// Page returns the user ids for one leaderboard window plus the total
// population on the board.
func (lc *LeaderboardCache) Page(ctx context.Context, limit, offset int) ([]int64, int64, error) {
	total, err := lc.rdb.ZCard(ctx, leaderboardKey).Result()
	if err != nil {
		return nil, 0, err
	}

	entries, err := lc.rdb.ZRevRangeWithScores(ctx, leaderboardKey,
		int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		member, ok := e.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, total, nil
}
