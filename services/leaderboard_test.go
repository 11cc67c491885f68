package services_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/services"
)

func makeBoard(t *testing.T) *services.LeaderboardCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return services.NewLeaderboardCache(rdb)
}

func boardUser(id, wins, streak int64) models.User {
	return models.User{
		ID:                  id,
		TotalDuels:          wins + streak + 1,
		DuelsWon:            wins,
		CurrentLosingStreak: streak,
	}
}

func TestLeaderboardCache_PageOrdering(t *testing.T) {
	board := makeBoard(t)
	ctx := context.Background()

	err := board.Update(ctx,
		boardUser(1, 5, 0),
		boardUser(2, 8, 2),
		boardUser(3, 8, 0),
		boardUser(4, 2, 1),
	)
	require.NoError(t, err)

	ids, total, err := board.Page(ctx, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 4, total)

	// duelsWon DESC, currentLosingStreak ASC: 3 (8/0), 2 (8/2), 1 (5/0), 4 (2/1).
	require.Equal(t, []int64{3, 2, 1, 4}, ids)
}

func TestLeaderboardCache_TiebreakIDDesc(t *testing.T) {
	board := makeBoard(t)
	ctx := context.Background()

	err := board.Update(ctx,
		boardUser(10, 4, 1),
		boardUser(11, 4, 1),
		boardUser(12, 4, 1),
	)
	require.NoError(t, err)

	ids, _, err := board.Page(ctx, 10, 0)
	require.NoError(t, err)

	// Identical score: zero-padded members in reverse lex order is id DESC,
	// matching the store query's tiebreak.
	require.Equal(t, []int64{12, 11, 10}, ids)
}

func TestLeaderboardCache_Pagination(t *testing.T) {
	board := makeBoard(t)
	ctx := context.Background()

	users := make([]models.User, 0, 15)
	for i := int64(1); i <= 15; i++ {
		users = append(users, boardUser(i, 100-i, 0))
	}
	require.NoError(t, board.Update(ctx, users...))

	first, total, err := board.Page(ctx, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 15, total)
	require.Len(t, first, 10)

	second, _, err := board.Page(ctx, 10, 10)
	require.NoError(t, err)
	require.Len(t, second, 5)

	seen := map[int64]bool{}
	for _, id := range append(first, second...) {
		require.False(t, seen[id], "user %d appeared on both pages", id)
		seen[id] = true
	}
}

func TestLeaderboardCache_SkipsUsersWithoutDuels(t *testing.T) {
	board := makeBoard(t)
	ctx := context.Background()

	require.NoError(t, board.Update(ctx, models.User{ID: 7, TotalDuels: 0}))

	_, total, err := board.Page(ctx, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
}

func TestLeaderboardCache_RebuildReplaces(t *testing.T) {
	board := makeBoard(t)
	ctx := context.Background()

	require.NoError(t, board.Update(ctx, boardUser(1, 5, 0), boardUser(2, 3, 0)))

	// The rebuild drops user 2 entirely instead of leaving a stale entry.
	require.NoError(t, board.Rebuild(ctx, []models.User{boardUser(1, 6, 0)}))

	ids, total, err := board.Page(ctx, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, []int64{1}, ids)
}
