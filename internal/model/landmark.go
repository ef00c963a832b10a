package model

import "time"

// Landmark 寻币活动的地标点位，由管理端维护，打卡引擎只读
// swagger:model Landmark
type Landmark struct {
	BaseModel
	NameEN     string  `gorm:"size:100;not null" json:"nameEn"`
	NameTH     string  `gorm:"size:100" json:"nameTh"`
	Hint       string  `gorm:"type:text" json:"hint"`
	Latitude   float64 `gorm:"not null" json:"latitude"`
	Longitude  float64 `gorm:"not null" json:"longitude"`
	Radius     float64 `gorm:"not null;default:50" json:"radius"` // 有效打卡半径（米）
	CooldownMs int64   `gorm:"not null;default:0" json:"cooldownMs"`
	OneTime    bool    `gorm:"default:true" json:"oneTime"` // 每人终身只能收集一次
	CoinValue  int     `gorm:"not null;default:1" json:"coinValue"`
	MapX       float64 `json:"mapX"` // 客户端地图贴图上的像素坐标
	MapY       float64 `json:"mapY"`
	ImageURL   string  `gorm:"size:255" json:"imageUrl"`
	Active     bool    `gorm:"default:true" json:"active"`
	SponsorID  *uint   `gorm:"index" json:"sponsorId,omitempty"`
	EvoucherID *uint   `gorm:"index" json:"evoucherId,omitempty"`

	Sponsor  *Sponsor  `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`
	Evoucher *Evoucher `gorm:"foreignKey:EvoucherID" json:"evoucher,omitempty"`
}

func (Landmark) TableName() string {
	return "landmarks"
}

func (l *Landmark) Cooldown() time.Duration {
	return time.Duration(l.CooldownMs) * time.Millisecond
}
