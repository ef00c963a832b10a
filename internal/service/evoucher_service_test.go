package service

import (
	"testing"
	"time"

	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/repository"
	"campus_engage_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvoucherService(env *testEnv) *EvoucherService {
	return NewEvoucherService(env.evouchers, env.codes, repository.NewSponsorRepository(env.db))
}

func TestGenerateCodesValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newEvoucherService(env)
	landmark := env.createRewardLandmark(t, "GEN", 0, nil)

	codes, err := svc.GenerateCodes(*landmark.EvoucherID, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"GEN000001", "GEN000002", "GEN000003"}, codes)

	_, err = svc.GenerateCodes(*landmark.EvoucherID, 0)
	assert.Error(t, err)

	_, err = svc.GenerateCodes(9999, 1)
	assert.ErrorIs(t, err, util.ErrEvoucherNotFound)

	// 过期的券不能再补码
	require.NoError(t, env.db.Model(&model.Evoucher{}).
		Where("id = ?", *landmark.EvoucherID).
		Update("expiration", time.Now().Add(-time.Hour)).Error)
	_, err = svc.GenerateCodes(*landmark.EvoucherID, 1)
	assert.ErrorIs(t, err, util.ErrEvoucherExpired)
}

func TestUseCodeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := newEvoucherService(env)
	landmark := env.createRewardLandmark(t, "USE", 1, nil)

	owner := env.createUser(t, "owner")
	stranger := env.createUser(t, "stranger")

	code, err := env.codes.AllocateForUser(env.db, *landmark.EvoucherID, owner.ID, time.Now())
	require.NoError(t, err)

	t.Run("not the holder", func(t *testing.T) {
		_, err := svc.UseCode(code.ID, stranger.ID)
		assert.ErrorIs(t, err, util.ErrCodeNotOwned)
	})

	t.Run("holder redeems once", func(t *testing.T) {
		used, err := svc.UseCode(code.ID, owner.ID)
		require.NoError(t, err)
		assert.True(t, used.IsUsed)
		require.NotNil(t, used.UsedAt)
	})

	t.Run("second redemption rejected", func(t *testing.T) {
		_, err := svc.UseCode(code.ID, owner.ID)
		assert.ErrorIs(t, err, util.ErrCodeNotReusable)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.UseCode(9999, owner.ID)
		assert.ErrorIs(t, err, util.ErrCodeNotFound)
	})
}

func TestUseCodeExpiredEvoucher(t *testing.T) {
	env := newTestEnv(t)
	svc := newEvoucherService(env)
	landmark := env.createRewardLandmark(t, "EXP", 1, nil)

	owner := env.createUser(t, "expowner")
	code, err := env.codes.AllocateForUser(env.db, *landmark.EvoucherID, owner.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&model.Evoucher{}).
		Where("id = ?", *landmark.EvoucherID).
		Update("expiration", time.Now().Add(-time.Hour)).Error)

	_, err = svc.UseCode(code.ID, owner.ID)
	assert.ErrorIs(t, err, util.ErrCodeExpired)
}

func TestMyCodes(t *testing.T) {
	env := newTestEnv(t)
	svc := newEvoucherService(env)
	landmark := env.createRewardLandmark(t, "MINE", 2, nil)

	owner := env.createUser(t, "collector")
	_, err := env.codes.AllocateForUser(env.db, *landmark.EvoucherID, owner.ID, time.Now())
	require.NoError(t, err)

	codes, err := svc.MyCodes(owner.ID)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "MINE000001", codes[0].Code)
	require.NotNil(t, codes[0].Evoucher)
}
