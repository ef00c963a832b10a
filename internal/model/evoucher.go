package model

import "time"

// Evoucher 电子代金券活动，码池的配置载体
// swagger:model Evoucher
type Evoucher struct {
	BaseModel
	SponsorID  uint      `gorm:"not null;index" json:"sponsorId"`
	Acronym    string    `gorm:"size:10;not null" json:"acronym"` // 兑换码前缀
	NameEN     string    `gorm:"size:100;not null" json:"nameEn"`
	NameTH     string    `gorm:"size:100" json:"nameTh"`
	Detail     string    `gorm:"type:text" json:"detail"`
	Expiration time.Time `gorm:"not null" json:"expiration"`

	Sponsor *Sponsor `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`
}

func (Evoucher) TableName() string {
	return "evouchers"
}

func (e *Evoucher) Expired(now time.Time) bool {
	return now.After(e.Expiration)
}
