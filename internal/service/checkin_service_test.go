package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectRewardThenCooldown(t *testing.T) {
	env := newTestEnv(t)
	landmark := env.createRewardLandmark(t, "TEA", 1, nil)
	user := env.createUser(t, "somchai")

	res, err := env.checkin.Collect(context.Background(), user.ID, CollectRequest{
		LandmarkID: landmark.ID,
		Latitude:   testLat,
		Longitude:  testLon,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessReward, res.Status)
	assert.Equal(t, "TEA000001", res.Code)
	assert.Equal(t, 1, res.CoinValue)

	// 紧接着的第二次被冷却拦截
	res, err = env.checkin.Collect(context.Background(), user.ID, CollectRequest{
		LandmarkID: landmark.ID,
		Latitude:   testLat,
		Longitude:  testLon,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCooldown, res.Status)
	assert.Greater(t, res.RemainingCooldownMs, int64(0))
	assert.LessOrEqual(t, res.RemainingCooldownMs, (24 * time.Hour).Milliseconds())
}

func TestCollectVisitWhenPoolExhausted(t *testing.T) {
	env := newTestEnv(t)
	landmark := env.createRewardLandmark(t, "POT", 1, nil)
	winner := env.createUser(t, "winner")
	late := env.createUser(t, "late")

	res, err := env.checkin.Collect(context.Background(), winner.ID, CollectRequest{
		LandmarkID: landmark.ID, Latitude: testLat, Longitude: testLon,
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccessReward, res.Status)

	// 池空后仍然记账，但不发奖励
	res, err = env.checkin.Collect(context.Background(), late.ID, CollectRequest{
		LandmarkID: landmark.ID, Latitude: testLat, Longitude: testLon,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessVisit, res.Status)
	assert.Empty(t, res.Code)

	claim, err := env.claims.FindLatest(late.ID, landmark.ID)
	require.NoError(t, err)
	assert.Nil(t, claim.EvoucherCodeID)
}

func TestCollectVisitWhenEvoucherExpired(t *testing.T) {
	env := newTestEnv(t)
	landmark := env.createRewardLandmark(t, "OLD", 5, nil)
	require.NoError(t, env.db.Model(&model.Evoucher{}).
		Where("id = ?", *landmark.EvoucherID).
		Update("expiration", time.Now().Add(-time.Hour)).Error)

	reloaded, err := env.landmarks.FindByID(landmark.ID)
	require.NoError(t, err)

	user := env.createUser(t, "tourist")
	res, err := env.checkin.Collect(context.Background(), user.ID, CollectRequest{
		LandmarkID: reloaded.ID, Latitude: testLat, Longitude: testLon,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessVisit, res.Status)

	// 过期券的码一个都不动
	remaining, err := env.codes.Remaining(*landmark.EvoucherID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, remaining)
}

func TestCollectGeofence(t *testing.T) {
	env := newTestEnv(t)
	landmark := env.createRewardLandmark(t, "FAR", 1, nil)
	user := env.createUser(t, "wanderer")

	t.Run("too far", func(t *testing.T) {
		res, err := env.checkin.Collect(context.Background(), user.ID, CollectRequest{
			LandmarkID: landmark.ID,
			Latitude:   testLat + 0.0005, // 约 55 米，半径 50 米之外
			Longitude:  testLon,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusTooFar, res.Status)
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		res, err := env.checkin.Collect(context.Background(), user.ID, CollectRequest{
			LandmarkID: landmark.ID,
			Latitude:   91,
			Longitude:  testLon,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusInvalidCoordinates, res.Status)
	})

	// 被拒绝的请求不产生台账
	_, err := env.claims.FindLatest(user.ID, landmark.ID)
	assert.Error(t, err)
}

func TestCollectOneTimeLandmark(t *testing.T) {
	env := newTestEnv(t)
	landmark := env.createRewardLandmark(t, "ONE", 2, func(l *model.Landmark) {
		l.OneTime = true
		l.CooldownMs = 0
	})
	user := env.createUser(t, "onetimer")

	res, err := env.checkin.Collect(context.Background(), user.ID, CollectRequest{
		LandmarkID: landmark.ID, Latitude: testLat, Longitude: testLon,
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccessReward, res.Status)

	// 冷却为零也挡不住终身一次
	res, err = env.checkin.Collect(context.Background(), user.ID, CollectRequest{
		LandmarkID: landmark.ID, Latitude: testLat, Longitude: testLon,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyCollected, res.Status)
}

func TestCollectRepeatableRewardsOnlyFirstAttempt(t *testing.T) {
	env := newTestEnv(t)
	landmark := env.createRewardLandmark(t, "REP", 5, func(l *model.Landmark) {
		l.CooldownMs = 0
	})
	user := env.createUser(t, "regular")

	res, err := env.checkin.Collect(context.Background(), user.ID, CollectRequest{
		LandmarkID: landmark.ID, Latitude: testLat, Longitude: testLon,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessReward, res.Status)

	// 第二次收集照常记账，但码池余量不变
	res, err = env.checkin.Collect(context.Background(), user.ID, CollectRequest{
		LandmarkID: landmark.ID, Latitude: testLat, Longitude: testLon,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessVisit, res.Status)

	remaining, err := env.codes.Remaining(*landmark.EvoucherID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, remaining)

	latest, err := env.claims.FindLatest(user.ID, landmark.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Attempt)
}

func TestCollectUnknownOrInactiveLandmark(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "lost")

	_, err := env.checkin.Collect(context.Background(), user.ID, CollectRequest{
		LandmarkID: 9999, Latitude: testLat, Longitude: testLon,
	})
	assert.ErrorIs(t, err, util.ErrLandmarkNotFound)

	landmark := env.createRewardLandmark(t, "OFF", 0, func(l *model.Landmark) { l.Active = false })
	_, err = env.checkin.Collect(context.Background(), user.ID, CollectRequest{
		LandmarkID: landmark.ID, Latitude: testLat, Longitude: testLon,
	})
	assert.ErrorIs(t, err, util.ErrLandmarkNotFound)
}

func TestCollectGlobalCap(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.CoinHunting.MaxCollections = 1

	first := env.createRewardLandmark(t, "CAPA", 1, nil)
	second := env.createRewardLandmark(t, "CAPB", 1, nil)
	user := env.createUser(t, "maxed")

	_, err := env.checkin.Collect(context.Background(), user.ID, CollectRequest{
		LandmarkID: first.ID, Latitude: testLat, Longitude: testLon,
	})
	require.NoError(t, err)

	_, err = env.checkin.Collect(context.Background(), user.ID, CollectRequest{
		LandmarkID: second.ID, Latitude: testLat, Longitude: testLon,
	})
	assert.ErrorIs(t, err, util.ErrCollectionLimit)
}

func TestCollectConcurrentSameUserExactlyOneClaim(t *testing.T) {
	env := newTestEnv(t)
	landmark := env.createRewardLandmark(t, "RACE", 10, nil)
	user := env.createUser(t, "doubletap")

	const workers = 12
	var wg sync.WaitGroup
	var mu sync.Mutex
	outcomes := map[CheckinStatus]int{}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.checkin.Collect(context.Background(), user.ID, CollectRequest{
				LandmarkID: landmark.ID, Latitude: testLat, Longitude: testLon,
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			outcomes[res.Status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	// 恰好一个成功，其余都被挡下，台账只有一行，只消耗一个码
	blocked := outcomes[StatusAlreadyCollected] + outcomes[StatusCooldown]
	assert.Equal(t, 1, outcomes[StatusSuccessReward])
	assert.Equal(t, workers-1, blocked)

	var count int64
	require.NoError(t, env.db.Model(&model.CoinClaim{}).
		Where("user_id = ? AND landmark_id = ?", user.ID, landmark.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	remaining, err := env.codes.Remaining(*landmark.EvoucherID)
	require.NoError(t, err)
	assert.EqualValues(t, 9, remaining)
}

func TestRetryClaimReplaysOwnWrite(t *testing.T) {
	env := newTestEnv(t)
	landmark := env.createRewardLandmark(t, "RPL", 1, nil)
	user := env.createUser(t, "flaky")

	start := time.Now().Add(-time.Millisecond)
	now := time.Now()

	// 模拟首次事务提交成功但响应丢失：台账已经写入
	code, err := env.codes.AllocateForUser(env.db, *landmark.EvoucherID, user.ID, now)
	require.NoError(t, err)
	require.NoError(t, env.claims.Insert(env.db, &model.CoinClaim{
		UserID:         user.ID,
		LandmarkID:     landmark.ID,
		Attempt:        1,
		CollectedAt:    now,
		EvoucherCodeID: &code.ID,
		CoinValue:      landmark.CoinValue,
	}))

	res, err := env.checkin.retryClaim(context.Background(), user.ID, landmark, 1, now, start, assert.AnError)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessReward, res.Status)
	assert.Equal(t, code.Code, res.Code)
}

func TestRetryClaimTreatsStaleClaimAsRace(t *testing.T) {
	env := newTestEnv(t)
	landmark := env.createRewardLandmark(t, "STL", 1, nil)
	user := env.createUser(t, "stale")

	// 早已存在的旧台账不属于本次请求
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, env.claims.Insert(env.db, &model.CoinClaim{
		UserID:      user.ID,
		LandmarkID:  landmark.ID,
		Attempt:     1,
		CollectedAt: old,
		CoinValue:   landmark.CoinValue,
	}))

	start := time.Now()
	res, err := env.checkin.retryClaim(context.Background(), user.ID, landmark, 1, time.Now(), start, assert.AnError)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyCollected, res.Status)
}
