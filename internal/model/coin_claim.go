package model

import "time"

// CoinClaim 用户在地标的收集台账，只增不删。
// (user_id, landmark_id, attempt) 上的唯一索引是并发打卡的裁决点：
// 同一对用户/地标的并发写入只会有一个成功
// swagger:model CoinClaim
type CoinClaim struct {
	BaseModel
	UserID         uint      `gorm:"not null;uniqueIndex:idx_user_landmark_attempt,priority:1" json:"userId"`
	LandmarkID     uint      `gorm:"not null;uniqueIndex:idx_user_landmark_attempt,priority:2;index" json:"landmarkId"`
	Attempt        int       `gorm:"not null;default:1;uniqueIndex:idx_user_landmark_attempt,priority:3" json:"attempt"`
	CollectedAt    time.Time `gorm:"not null;index" json:"collectedAt"`
	EvoucherCodeID *uint     `json:"evoucherCodeId,omitempty"` // 为空表示码池耗尽时的纯打卡
	CoinValue      int       `gorm:"not null;default:1" json:"coinValue"`

	User         User          `gorm:"foreignKey:UserID" json:"-"`
	Landmark     Landmark      `gorm:"foreignKey:LandmarkID" json:"-"`
	EvoucherCode *EvoucherCode `gorm:"foreignKey:EvoucherCodeID" json:"evoucherCode,omitempty"`
}

func (CoinClaim) TableName() string {
	return "coin_claims"
}
