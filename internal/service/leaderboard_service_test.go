package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/repository"
	"campus_engage_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) seedClaim(t *testing.T, userID, landmarkID uint, coinValue int) {
	t.Helper()
	require.NoError(t, e.claims.Insert(e.db, &model.CoinClaim{
		UserID:      userID,
		LandmarkID:  landmarkID,
		Attempt:     1,
		CollectedAt: time.Now(),
		CoinValue:   coinValue,
	}))
}

func TestGetLeaderboardRankingAndTiebreak(t *testing.T) {
	env := newTestEnv(t)

	landmarks := make([]*model.Landmark, 4)
	for i := range landmarks {
		landmarks[i] = env.createRewardLandmark(t, fmt.Sprintf("LB%d", i+1), 0, nil)
	}
	users := make([]*model.User, 4)
	for i := range users {
		users[i] = env.createUser(t, fmt.Sprintf("board%d", i+1))
	}

	// board2 与 board3 同为 80 分，board2 先集满
	env.seedClaim(t, users[1].ID, landmarks[0].ID, 80)
	env.seedClaim(t, users[2].ID, landmarks[1].ID, 80)
	env.seedClaim(t, users[0].ID, landmarks[2].ID, 50)
	env.seedClaim(t, users[3].ID, landmarks[3].ID, 30)

	page, err := env.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)
	require.Len(t, page.Entries, 4)

	assert.Equal(t, 1, page.Entries[0].Rank)
	assert.Equal(t, "board2", page.Entries[0].Username)
	assert.Equal(t, 80, page.Entries[0].CoinCount)
	assert.NotEmpty(t, page.Entries[0].LatestCollectedAt)

	assert.Equal(t, 2, page.Entries[1].Rank)
	assert.Equal(t, "board3", page.Entries[1].Username)

	assert.Equal(t, "board1", page.Entries[2].Username)
	assert.Equal(t, "board4", page.Entries[3].Username)
}

func TestGetLeaderboardPagination(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 5; i++ {
		landmark := env.createRewardLandmark(t, fmt.Sprintf("PG%d", i+1), 0, nil)
		user := env.createUser(t, fmt.Sprintf("pager%d", i+1))
		env.seedClaim(t, user.ID, landmark.ID, 100-i*10)
	}

	page, err := env.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	require.Len(t, page.Entries, 2)

	// 第二页从第 3 名开始
	assert.Equal(t, 3, page.Entries[0].Rank)
	assert.Equal(t, 80, page.Entries[0].CoinCount)
	assert.Equal(t, 4, page.Entries[1].Rank)
}

func TestGetLeaderboardScoped(t *testing.T) {
	env := newTestEnv(t)

	sponsored := env.createRewardLandmark(t, "SPN", 0, nil)
	other := env.createRewardLandmark(t, "OTH", 0, nil)

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	env.seedClaim(t, alice.ID, sponsored.ID, 7)
	env.seedClaim(t, bob.ID, other.ID, 9)

	page, err := env.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{
		Scope: repository.LeaderboardScope{SponsorID: *sponsored.SponsorID},
	})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "alice", page.Entries[0].Username)
	assert.Equal(t, 7, page.Entries[0].CoinCount)
}

func TestGetUserRank(t *testing.T) {
	env := newTestEnv(t)

	l1 := env.createRewardLandmark(t, "RKA", 0, nil)
	l2 := env.createRewardLandmark(t, "RKB", 0, nil)

	leader := env.createUser(t, "leader")
	runner := env.createUser(t, "runner")
	idle := env.createUser(t, "idler")

	env.seedClaim(t, leader.ID, l1.ID, 10)
	env.seedClaim(t, leader.ID, l2.ID, 10)
	env.seedClaim(t, runner.ID, l1.ID, 5)

	rank, err := env.leaderboard.GetUserRank(leader.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, rank.CoinCount)
	assert.EqualValues(t, 1, rank.Rank)

	rank, err = env.leaderboard.GetUserRank(runner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, rank.Rank)

	_, err = env.leaderboard.GetUserRank(idle.ID)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestLeaderboardWorksWithoutCache(t *testing.T) {
	env := newTestEnv(t)
	landmark := env.createRewardLandmark(t, "NOC", 0, nil)
	user := env.createUser(t, "solo")
	env.seedClaim(t, user.ID, landmark.ID, 3)

	// Redis 为空时读穿透直接落库，两次结果一致
	for i := 0; i < 2; i++ {
		page, err := env.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{})
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
		assert.Equal(t, 3, page.Entries[0].CoinCount)
	}

	env.leaderboard.Invalidate(context.Background())
}
