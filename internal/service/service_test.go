package service

import (
	"testing"
	"time"

	"campus_engage_backend/internal/config"
	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/repository"
	"campus_engage_backend/pkg/database"
	"campus_engage_backend/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 曼谷市区的参考点，与地理围栏单测保持一致
const (
	testLat = 13.736717
	testLon = 100.523186
)

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	users       *repository.UserRepository
	landmarks   *repository.LandmarkRepository
	evouchers   *repository.EvoucherRepository
	codes       *repository.EvoucherCodeRepository
	claims      *repository.ClaimRepository
	checkin     *CheckinService
	leaderboard *LeaderboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{}
	cfg.CoinHunting.MaxCollections = 100
	cfg.CoinHunting.LeaderboardTTL = 30 * time.Second
	cfg.CoinHunting.LeaderboardLimit = 20

	env := &testEnv{
		db:        db,
		cfg:       cfg,
		users:     repository.NewUserRepository(db),
		landmarks: repository.NewLandmarkRepository(db),
		evouchers: repository.NewEvoucherRepository(db),
		codes:     repository.NewEvoucherCodeRepository(db),
		claims:    repository.NewClaimRepository(db),
	}
	env.leaderboard = NewLeaderboardService(env.claims, env.users, nil, cfg)
	env.checkin = NewCheckinService(env.landmarks, env.claims, env.codes, env.leaderboard, cfg, db)
	return env
}

func (e *testEnv) createUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Name:     "User " + username,
		Email:    username + "@example.edu",
		Password: "x",
		Role:     model.Student,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createSponsor(t *testing.T, name string) *model.Sponsor {
	t.Helper()
	sponsor := &model.Sponsor{NameEN: name, Active: true}
	require.NoError(t, e.db.Create(sponsor).Error)
	return sponsor
}

// createRewardLandmark 地标 + 电子券 + 码池一步到位
func (e *testEnv) createRewardLandmark(t *testing.T, acronym string, poolSize int, mutate func(*model.Landmark)) *model.Landmark {
	t.Helper()
	sponsor := e.createSponsor(t, acronym+" sponsor")

	evoucher := &model.Evoucher{
		SponsorID:  sponsor.ID,
		Acronym:    acronym,
		NameEN:     acronym + " voucher",
		Expiration: time.Now().Add(30 * 24 * time.Hour),
	}
	require.NoError(t, e.db.Create(evoucher).Error)

	if poolSize > 0 {
		_, err := e.codes.GenerateCodes(evoucher, poolSize)
		require.NoError(t, err)
	}

	landmark := &model.Landmark{
		NameEN:     acronym + " spot",
		Latitude:   testLat,
		Longitude:  testLon,
		Radius:     50,
		CooldownMs: (24 * time.Hour).Milliseconds(),
		OneTime:    false,
		CoinValue:  1,
		Active:     true,
		SponsorID:  &sponsor.ID,
		EvoucherID: &evoucher.ID,
	}
	if mutate != nil {
		mutate(landmark)
	}
	require.NoError(t, e.db.Create(landmark).Error)

	loaded, err := e.landmarks.FindByID(landmark.ID)
	require.NoError(t, err)
	return loaded
}
