package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"campus_engage_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Name:     "User " + username,
		Email:    username + "@example.edu",
		Password: "x",
		Role:     model.Student,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedLandmark(t *testing.T, db *gorm.DB, name string, mutate func(*model.Landmark)) *model.Landmark {
	t.Helper()
	landmark := &model.Landmark{
		NameEN:    name,
		Latitude:  13.736717,
		Longitude: 100.523186,
		Radius:    50,
		OneTime:   true,
		CoinValue: 1,
		Active:    true,
	}
	if mutate != nil {
		mutate(landmark)
	}
	require.NoError(t, db.Create(landmark).Error)
	return landmark
}

func insertClaim(t *testing.T, db *gorm.DB, repo *ClaimRepository, userID, landmarkID uint, attempt, coinValue int) *model.CoinClaim {
	t.Helper()
	claim := &model.CoinClaim{
		UserID:      userID,
		LandmarkID:  landmarkID,
		Attempt:     attempt,
		CollectedAt: time.Now(),
		CoinValue:   coinValue,
	}
	require.NoError(t, repo.Insert(db, claim))
	return claim
}

func TestClaimInsertDuplicateKey(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaimRepository(db)
	user := seedUser(t, db, "dupuser")
	landmark := seedLandmark(t, db, "Library", nil)

	insertClaim(t, db, repo, user.ID, landmark.ID, 1, 1)

	err := repo.Insert(db, &model.CoinClaim{
		UserID:      user.ID,
		LandmarkID:  landmark.ID,
		Attempt:     1,
		CollectedAt: time.Now(),
		CoinValue:   1,
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// 同一地标的下一次 attempt 不冲突
	err = repo.Insert(db, &model.CoinClaim{
		UserID:      user.ID,
		LandmarkID:  landmark.ID,
		Attempt:     2,
		CollectedAt: time.Now(),
		CoinValue:   1,
	})
	assert.NoError(t, err)
}

func TestClaimConcurrentInsertExactlyOneWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaimRepository(db)
	user := seedUser(t, db, "racer")
	landmark := seedLandmark(t, db, "Fountain", nil)

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	duplicates := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Insert(db, &model.CoinClaim{
				UserID:      user.ID,
				LandmarkID:  landmark.ID,
				Attempt:     1,
				CollectedAt: time.Now(),
				CoinValue:   1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, gorm.ErrDuplicatedKey):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, duplicates)

	var count int64
	require.NoError(t, db.Model(&model.CoinClaim{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestClaimFindLatestAndCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaimRepository(db)
	user := seedUser(t, db, "walker")
	landmark := seedLandmark(t, db, "Gate", func(l *model.Landmark) { l.OneTime = false })

	_, err := repo.FindLatest(user.ID, landmark.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	insertClaim(t, db, repo, user.ID, landmark.ID, 1, 1)
	insertClaim(t, db, repo, user.ID, landmark.ID, 2, 1)
	insertClaim(t, db, repo, user.ID, landmark.ID, 3, 1)

	latest, err := repo.FindLatest(user.ID, landmark.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Attempt)

	count, err := repo.CountByUser(user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestAggregateLeaderboardOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaimRepository(db)

	users := make([]*model.User, 4)
	for i := range users {
		users[i] = seedUser(t, db, fmt.Sprintf("player%d", i+1))
	}
	landmarks := make([]*model.Landmark, 4)
	for i := range landmarks {
		landmarks[i] = seedLandmark(t, db, fmt.Sprintf("Spot %d", i+1), nil)
	}

	// player2 和 player3 同为 80 分，player2 先集满，应排在前面
	insertClaim(t, db, repo, users[1].ID, landmarks[0].ID, 1, 80)
	insertClaim(t, db, repo, users[2].ID, landmarks[1].ID, 1, 80)
	insertClaim(t, db, repo, users[0].ID, landmarks[2].ID, 1, 50)
	insertClaim(t, db, repo, users[3].ID, landmarks[3].ID, 1, 30)

	rows, total, err := repo.AggregateLeaderboard(LeaderboardScope{}, 0, 10, SortRank, "")
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, rows, 4)

	assert.Equal(t, users[1].ID, rows[0].UserID)
	assert.Equal(t, 80, rows[0].CoinCount)
	assert.Equal(t, users[2].ID, rows[1].UserID)
	assert.Equal(t, 80, rows[1].CoinCount)
	assert.Equal(t, users[0].ID, rows[2].UserID)
	assert.Equal(t, users[3].ID, rows[3].UserID)
}

func TestAggregateLeaderboardScopes(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaimRepository(db)

	sponsor := &model.Sponsor{NameEN: "Campus Cafe", Active: true}
	require.NoError(t, db.Create(sponsor).Error)

	sponsored := seedLandmark(t, db, "Cafe Corner", func(l *model.Landmark) { l.SponsorID = &sponsor.ID })
	plain := seedLandmark(t, db, "Old Tree", nil)

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	insertClaim(t, db, repo, alice.ID, sponsored.ID, 1, 5)
	insertClaim(t, db, repo, bob.ID, plain.ID, 1, 9)

	t.Run("landmark scope", func(t *testing.T) {
		rows, total, err := repo.AggregateLeaderboard(LeaderboardScope{LandmarkID: sponsored.ID}, 0, 10, SortRank, "")
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, alice.ID, rows[0].UserID)
	})

	t.Run("sponsor scope", func(t *testing.T) {
		rows, total, err := repo.AggregateLeaderboard(LeaderboardScope{SponsorID: sponsor.ID}, 0, 10, SortRank, "")
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, alice.ID, rows[0].UserID)
	})

	t.Run("search by username", func(t *testing.T) {
		rows, total, err := repo.AggregateLeaderboard(LeaderboardScope{}, 0, 10, SortRank, "bob")
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, bob.ID, rows[0].UserID)
	})
}

func TestUserStanding(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaimRepository(db)

	first := seedUser(t, db, "first")
	second := seedUser(t, db, "second")
	idle := seedUser(t, db, "idle")

	l1 := seedLandmark(t, db, "A", nil)
	l2 := seedLandmark(t, db, "B", nil)

	insertClaim(t, db, repo, first.ID, l1.ID, 1, 10)
	insertClaim(t, db, repo, first.ID, l2.ID, 1, 10)
	insertClaim(t, db, repo, second.ID, l1.ID, 1, 5)

	coins, rank, err := repo.UserStanding(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, coins)
	assert.EqualValues(t, 1, rank)

	coins, rank, err = repo.UserStanding(second.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, coins)
	assert.EqualValues(t, 2, rank)

	_, _, err = repo.UserStanding(idle.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
