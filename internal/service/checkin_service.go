package service

import (
	"context"
	"errors"
	"time"

	"campus_engage_backend/internal/config"
	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/repository"
	"campus_engage_backend/internal/util"
	"campus_engage_backend/pkg/logger"
	"campus_engage_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckinStatus 打卡结果的封闭枚举，controller 与客户端按此分流
type CheckinStatus string

const (
	StatusSuccessReward      CheckinStatus = "success_reward"
	StatusSuccessVisit       CheckinStatus = "success_visit"
	StatusTooFar             CheckinStatus = "too_far"
	StatusCooldown           CheckinStatus = "cooldown"
	StatusAlreadyCollected   CheckinStatus = "already_collected"
	StatusInvalidCoordinates CheckinStatus = "invalid_coordinates"
	StatusServiceUnavailable CheckinStatus = "service_unavailable"
)

// 重放判定的时间容差，吸收 DATETIME(3) 的截断误差
const replayTolerance = time.Second

type CollectRequest struct {
	LandmarkID uint    `json:"landmarkId" binding:"required"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

type CollectResult struct {
	Status              CheckinStatus `json:"status"`
	Code                string        `json:"code,omitempty"`
	CoinValue           int           `json:"coinValue,omitempty"`
	RemainingCooldownMs int64         `json:"remainingCooldownMs,omitempty"`
}

// CheckinService 打卡协调器：地理围栏 -> 冷却 -> 终身一次 -> 原子领取。
// 所有跨请求协调都压到存储层的唯一索引与条件更新上，进程内不加锁
type CheckinService struct {
	DB           *gorm.DB
	LandmarkRepo *repository.LandmarkRepository
	ClaimRepo    *repository.ClaimRepository
	CodeRepo     *repository.EvoucherCodeRepository
	Leaderboard  *LeaderboardService
	Cfg          *config.Config
}

func NewCheckinService(
	landmarkRepo *repository.LandmarkRepository,
	claimRepo *repository.ClaimRepository,
	codeRepo *repository.EvoucherCodeRepository,
	leaderboard *LeaderboardService,
	cfg *config.Config,
	db *gorm.DB,
) *CheckinService {
	return &CheckinService{
		DB:           db,
		LandmarkRepo: landmarkRepo,
		ClaimRepo:    claimRepo,
		CodeRepo:     codeRepo,
		Leaderboard:  leaderboard,
		Cfg:          cfg,
	}
}

func (s *CheckinService) Collect(ctx context.Context, userID uint, req CollectRequest) (*CollectResult, error) {
	start := time.Now()

	landmark, err := s.LandmarkRepo.FindByID(req.LandmarkID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLandmarkNotFound
	}
	if err != nil {
		return nil, err
	}
	if !landmark.Active {
		return nil, util.ErrLandmarkNotFound
	}

	if !util.ValidCoordinates(req.Latitude, req.Longitude) {
		return s.finish(&CollectResult{Status: StatusInvalidCoordinates}), nil
	}

	if !util.InRange(req.Latitude, req.Longitude, landmark.Latitude, landmark.Longitude, landmark.Radius) {
		return s.finish(&CollectResult{Status: StatusTooFar}), nil
	}

	latest, err := s.ClaimRepo.FindLatest(userID, landmark.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()

	if latest != nil {
		if util.IsOnCooldown(latest.CollectedAt, landmark.Cooldown(), now) {
			remaining := util.CooldownRemaining(latest.CollectedAt, landmark.Cooldown(), now)
			return s.finish(&CollectResult{
				Status:              StatusCooldown,
				RemainingCooldownMs: remaining.Milliseconds(),
			}), nil
		}
		// 终身一次的地标：冷却之外还有永久拦截
		if landmark.OneTime {
			return s.finish(&CollectResult{Status: StatusAlreadyCollected}), nil
		}
	}

	total, err := s.ClaimRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	if total >= int64(s.Cfg.CoinHunting.MaxCollections) {
		return nil, util.ErrCollectionLimit
	}

	attempt := 1
	if latest != nil {
		attempt = latest.Attempt + 1
	}

	res, err := s.attemptClaim(ctx, userID, landmark, attempt, now)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 在预检之后输掉了并发竞争，与预检拦截同等对待
		return s.finish(&CollectResult{Status: StatusAlreadyCollected}), nil
	}
	if err != nil {
		res, err = s.retryClaim(ctx, userID, landmark, attempt, now, start, err)
		if err != nil {
			logger.Log.Error("checkin claim failed after retry",
				zap.Uint("user", userID),
				zap.Uint("landmark", landmark.ID),
				zap.Error(err))
			return s.finish(&CollectResult{Status: StatusServiceUnavailable}), nil
		}
	}

	if s.Leaderboard != nil {
		s.Leaderboard.Invalidate(ctx)
	}

	return s.finish(res), nil
}

// retryClaim 存储层瞬时故障后的单次重试。
// 以 (userID, landmarkID, attempt) 为幂等键：重试发现记录已存在且
// 是本次请求窗口内写入的，按首次成功的结果重放，而不是当作竞争失败
func (s *CheckinService) retryClaim(ctx context.Context, userID uint, landmark *model.Landmark, attempt int, now, start time.Time, cause error) (*CollectResult, error) {
	logger.Log.Warn("claim transaction failed, retrying once",
		zap.Uint("user", userID),
		zap.Uint("landmark", landmark.ID),
		zap.Error(cause))

	// 超时可能发生在提交之后，先确认首次尝试是否已经落库
	if existing, ferr := s.ClaimRepo.FindByAttempt(userID, landmark.ID, attempt); ferr == nil &&
		existing.CollectedAt.After(start.Add(-replayTolerance)) {
		return s.replayOutcome(existing)
	}

	res, err := s.attemptClaim(ctx, userID, landmark, attempt, now)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, ferr := s.ClaimRepo.FindByAttempt(userID, landmark.ID, attempt)
		if ferr == nil && existing.CollectedAt.After(start.Add(-replayTolerance)) {
			return s.replayOutcome(existing)
		}
		return &CollectResult{Status: StatusAlreadyCollected}, nil
	}
	return res, err
}

// attemptClaim 领取的原子单元：码分配与台账写入同事务提交，
// 任何一步失败则整体回滚，码不会脱离台账单独流失
func (s *CheckinService) attemptClaim(ctx context.Context, userID uint, landmark *model.Landmark, attempt int, now time.Time) (*CollectResult, error) {
	var allocated *model.EvoucherCode

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		allocated = nil
		claim := &model.CoinClaim{
			UserID:      userID,
			LandmarkID:  landmark.ID,
			Attempt:     attempt,
			CollectedAt: now,
			CoinValue:   landmark.CoinValue,
		}

		// 奖励只随首次收集发放；码池耗尽或券已过期时降级为纯打卡
		if attempt == 1 && landmark.EvoucherID != nil &&
			landmark.Evoucher != nil && !landmark.Evoucher.Expired(now) {
			code, aerr := s.CodeRepo.AllocateForUser(tx, *landmark.EvoucherID, userID, now)
			switch {
			case errors.Is(aerr, util.ErrPoolExhausted):
				// 纯打卡，照常记账，避免客户端反复重试
			case aerr != nil:
				return aerr
			default:
				claim.EvoucherCodeID = &code.ID
				allocated = code
			}
		}

		return s.ClaimRepo.Insert(tx, claim)
	})
	if err != nil {
		return nil, err
	}

	if allocated != nil {
		return &CollectResult{
			Status:    StatusSuccessReward,
			Code:      allocated.Code,
			CoinValue: landmark.CoinValue,
		}, nil
	}
	return &CollectResult{
		Status:    StatusSuccessVisit,
		CoinValue: landmark.CoinValue,
	}, nil
}

// replayOutcome 依据已落库的台账还原首次请求的结果
func (s *CheckinService) replayOutcome(claim *model.CoinClaim) (*CollectResult, error) {
	if claim.EvoucherCodeID != nil {
		code, err := s.CodeRepo.FindByID(*claim.EvoucherCodeID)
		if err != nil {
			return nil, err
		}
		return &CollectResult{
			Status:    StatusSuccessReward,
			Code:      code.Code,
			CoinValue: claim.CoinValue,
		}, nil
	}
	return &CollectResult{
		Status:    StatusSuccessVisit,
		CoinValue: claim.CoinValue,
	}, nil
}

func (s *CheckinService) finish(res *CollectResult) *CollectResult {
	monitoring.CheckinCounter.WithLabelValues(string(res.Status)).Inc()
	return res
}
