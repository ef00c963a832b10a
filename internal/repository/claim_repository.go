package repository

import (
	"campus_engage_backend/internal/model"

	"gorm.io/gorm"
)

// ClaimRepository 收集台账的唯一写入方。
// 并发一致性交给 (user_id, landmark_id, attempt) 唯一索引裁决，
// 应用层不做 check-then-write
type ClaimRepository struct {
	DB *gorm.DB
}

func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{DB: db}
}

// Insert 在给定事务内写入一条台账。
// 撞唯一索引时 gorm 会翻译为 gorm.ErrDuplicatedKey，由调用方定性
func (r *ClaimRepository) Insert(tx *gorm.DB, claim *model.CoinClaim) error {
	return tx.Create(claim).Error
}

// FindLatest 用户在该地标最近的一条收集记录
func (r *ClaimRepository) FindLatest(userID, landmarkID uint) (*model.CoinClaim, error) {
	var claim model.CoinClaim
	err := r.DB.Where("user_id = ? AND landmark_id = ?", userID, landmarkID).
		Order("attempt DESC").
		First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *ClaimRepository) FindByAttempt(userID, landmarkID uint, attempt int) (*model.CoinClaim, error) {
	var claim model.CoinClaim
	err := r.DB.Where("user_id = ? AND landmark_id = ? AND attempt = ?", userID, landmarkID, attempt).
		First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *ClaimRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CoinClaim{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// FindWithPagination 管理端审计视图
func (r *ClaimRepository) FindWithPagination(offset, limit int, landmarkID, sponsorID, userID uint) ([]model.CoinClaim, int64, error) {
	var claims []model.CoinClaim
	var total int64

	query := r.DB.Model(&model.CoinClaim{})
	if landmarkID > 0 {
		query = query.Where("coin_claims.landmark_id = ?", landmarkID)
	}
	if sponsorID > 0 {
		query = query.Joins("JOIN landmarks ON landmarks.id = coin_claims.landmark_id").
			Where("landmarks.sponsor_id = ?", sponsorID)
	}
	if userID > 0 {
		query = query.Where("coin_claims.user_id = ?", userID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("coin_claims.collected_at DESC").
		Offset(offset).Limit(limit).
		Preload("User").
		Preload("Landmark").
		Preload("EvoucherCode").
		Find(&claims).Error
	if err != nil {
		return nil, 0, err
	}

	return claims, total, nil
}

// LeaderboardScope 排行榜范围：全局 / 单地标 / 单赞助商
type LeaderboardScope struct {
	LandmarkID uint
	SponsorID  uint
}

// AggRow 聚合中间行。latest_claim_id 随收集时间单调递增，
// 用它做同分排序可避免跨数据库比较时间聚合值
type AggRow struct {
	UserID        uint
	CoinCount     int
	LatestClaimID uint
}

const (
	SortRank              = "rank"
	SortCoinCount         = "coinCount"
	SortLatestCollectedAt = "latestCollectedAt"
)

func (r *ClaimRepository) leaderboardQuery(scope LeaderboardScope, search string) *gorm.DB {
	query := r.DB.Model(&model.CoinClaim{}).
		Joins("JOIN users ON users.id = coin_claims.user_id AND users.deleted_at IS NULL")

	if scope.LandmarkID > 0 {
		query = query.Where("coin_claims.landmark_id = ?", scope.LandmarkID)
	}
	if scope.SponsorID > 0 {
		query = query.Joins("JOIN landmarks ON landmarks.id = coin_claims.landmark_id").
			Where("landmarks.sponsor_id = ?", scope.SponsorID)
	}
	if search != "" {
		query = query.Where("users.username LIKE ? OR users.name LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	return query
}

// AggregateLeaderboard 从台账聚合排行：金币数降序，同分先到者优先
func (r *ClaimRepository) AggregateLeaderboard(scope LeaderboardScope, offset, limit int, sort, search string) ([]AggRow, int64, error) {
	var total int64
	err := r.leaderboardQuery(scope, search).
		Distinct("coin_claims.user_id").
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	query := r.leaderboardQuery(scope, search).
		Select("coin_claims.user_id AS user_id, SUM(coin_claims.coin_value) AS coin_count, MAX(coin_claims.id) AS latest_claim_id").
		Group("coin_claims.user_id")

	switch sort {
	case SortCoinCount:
		query = query.Order("coin_count DESC")
	case SortLatestCollectedAt:
		query = query.Order("latest_claim_id DESC")
	default: // rank
		query = query.Order("coin_count DESC, latest_claim_id ASC")
	}

	var rows []AggRow
	err = query.Offset(offset).Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// UserStanding 单个用户的总金币与名次
func (r *ClaimRepository) UserStanding(userID uint) (coinCount int, rank int64, err error) {
	var mine AggRow
	err = r.DB.Model(&model.CoinClaim{}).
		Select("coin_claims.user_id AS user_id, SUM(coin_claims.coin_value) AS coin_count, MAX(coin_claims.id) AS latest_claim_id").
		Where("coin_claims.user_id = ?", userID).
		Group("coin_claims.user_id").
		Scan(&mine).Error
	if err != nil {
		return 0, 0, err
	}
	if mine.UserID == 0 {
		return 0, 0, gorm.ErrRecordNotFound
	}

	sub := r.DB.Model(&model.CoinClaim{}).
		Select("coin_claims.user_id AS user_id, SUM(coin_claims.coin_value) AS coin_count, MAX(coin_claims.id) AS latest_claim_id").
		Group("coin_claims.user_id")

	var better int64
	err = r.DB.Table("(?) AS t", sub).
		Where("t.coin_count > ? OR (t.coin_count = ? AND t.latest_claim_id < ?)",
			mine.CoinCount, mine.CoinCount, mine.LatestClaimID).
		Count(&better).Error
	if err != nil {
		return 0, 0, err
	}

	return mine.CoinCount, better + 1, nil
}

// FindByIDs 取聚合行对应的台账记录，补全展示字段
func (r *ClaimRepository) FindByIDs(ids []uint) (map[uint]model.CoinClaim, error) {
	if len(ids) == 0 {
		return map[uint]model.CoinClaim{}, nil
	}
	var claims []model.CoinClaim
	err := r.DB.Where("id IN ?", ids).Find(&claims).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.CoinClaim, len(claims))
	for _, c := range claims {
		byID[c.ID] = c
	}
	return byID, nil
}
