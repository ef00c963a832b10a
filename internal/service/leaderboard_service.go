package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"campus_engage_backend/internal/config"
	"campus_engage_backend/internal/repository"
	"campus_engage_backend/internal/util"
	"campus_engage_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const leaderboardKeyPrefix = "leaderboard:"

type LeaderboardEntry struct {
	Rank              int    `json:"rank"`
	UserID            uint   `json:"userId"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	Avatar            string `json:"avatar"`
	CoinCount         int    `json:"coinCount"`
	LatestCollectedAt string `json:"latestCollectedAt"`
}

type LeaderboardPage struct {
	Entries []LeaderboardEntry `json:"entries"`
	Total   int64              `json:"total"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
}

type UserRank struct {
	UserID    uint  `json:"userId"`
	CoinCount int   `json:"coinCount"`
	Rank      int64 `json:"rank"`
}

type LeaderboardQuery struct {
	Scope  repository.LeaderboardScope
	Page   int
	Limit  int
	Sort   string
	Search string
}

// LeaderboardService 排行榜按请求从台账聚合，不维护物化计数。
// Redis 只做读穿透缓存，收集成功后整体失效
type LeaderboardService struct {
	ClaimRepo *repository.ClaimRepository
	UserRepo  *repository.UserRepository
	Redis     *redis.Client
	Cfg       *config.Config
}

func NewLeaderboardService(claimRepo *repository.ClaimRepository, userRepo *repository.UserRepository, rdb *redis.Client, cfg *config.Config) *LeaderboardService {
	return &LeaderboardService{
		ClaimRepo: claimRepo,
		UserRepo:  userRepo,
		Redis:     rdb,
		Cfg:       cfg,
	}
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, q LeaderboardQuery) (*LeaderboardPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = s.Cfg.CoinHunting.LeaderboardLimit
	}
	if q.Sort == "" {
		q.Sort = repository.SortRank
	}

	key := s.cacheKey(q)
	if page, ok := s.fromCache(ctx, key); ok {
		return page, nil
	}

	page, err := s.build(q)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, page)
	return page, nil
}

func (s *LeaderboardService) build(q LeaderboardQuery) (*LeaderboardPage, error) {
	offset := (q.Page - 1) * q.Limit
	rows, total, err := s.ClaimRepo.AggregateLeaderboard(q.Scope, offset, q.Limit, q.Sort, q.Search)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint, 0, len(rows))
	claimIDs := make([]uint, 0, len(rows))
	for _, row := range rows {
		userIDs = append(userIDs, row.UserID)
		claimIDs = append(claimIDs, row.LatestClaimID)
	}

	users, err := s.UserRepo.FindByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	claims, err := s.ClaimRepo.FindByIDs(claimIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entry := LeaderboardEntry{
			Rank:      offset + i + 1,
			UserID:    row.UserID,
			CoinCount: row.CoinCount,
		}
		if u, ok := users[row.UserID]; ok {
			entry.Username = u.Username
			entry.Name = u.Name
			entry.Avatar = u.Avatar
		}
		if c, ok := claims[row.LatestClaimID]; ok {
			entry.LatestCollectedAt = c.CollectedAt.Format("2006-01-02T15:04:05.000Z07:00")
		}
		entries = append(entries, entry)
	}

	return &LeaderboardPage{
		Entries: entries,
		Total:   total,
		Page:    q.Page,
		Limit:   q.Limit,
	}, nil
}

// GetUserRank 当前用户自己的名次，没有任何收集记录时返回 ErrUserNotFound
func (s *LeaderboardService) GetUserRank(userID uint) (*UserRank, error) {
	coinCount, rank, err := s.ClaimRepo.UserStanding(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &UserRank{UserID: userID, CoinCount: coinCount, Rank: rank}, nil
}

// Invalidate 收集成功后清掉所有排行榜缓存页。
// 缓存失效失败只记日志，不影响收集主流程
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	keys, err := s.Redis.Keys(ctx, leaderboardKeyPrefix+"*").Result()
	if err != nil {
		logger.Log.Warn("leaderboard cache scan failed", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.Redis.Del(ctx, keys...).Err(); err != nil {
		logger.Log.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}

func (s *LeaderboardService) cacheKey(q LeaderboardQuery) string {
	return fmt.Sprintf("%sl%d:s%d:p%d:n%d:%s:%s",
		leaderboardKeyPrefix, q.Scope.LandmarkID, q.Scope.SponsorID, q.Page, q.Limit, q.Sort, q.Search)
}

func (s *LeaderboardService) fromCache(ctx context.Context, key string) (*LeaderboardPage, bool) {
	if s.Redis == nil {
		return nil, false
	}
	raw, err := s.Redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("leaderboard cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var page LeaderboardPage
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return nil, false
	}
	return &page, true
}

func (s *LeaderboardService) toCache(ctx context.Context, key string, page *LeaderboardPage) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, raw, s.Cfg.CoinHunting.LeaderboardTTL).Err(); err != nil {
		logger.Log.Warn("leaderboard cache write failed", zap.Error(err))
	}
}
