package model

import "time"

// EvoucherCode 码池成员。user_id 为空表示未分配；
// 分配只能通过条件更新完成，同一个码不会发给两个人
// swagger:model EvoucherCode
type EvoucherCode struct {
	BaseModel
	Code       string     `gorm:"size:32;uniqueIndex;not null" json:"code"`
	EvoucherID uint       `gorm:"not null;index" json:"evoucherId"`
	UserID     *uint      `gorm:"index" json:"userId,omitempty"`
	ClaimedAt  *time.Time `json:"claimedAt,omitempty"`
	IsUsed     bool       `gorm:"default:false" json:"isUsed"`
	UsedAt     *time.Time `json:"usedAt,omitempty"`

	Evoucher *Evoucher `gorm:"foreignKey:EvoucherID" json:"evoucher,omitempty"`
	User     *User     `gorm:"foreignKey:UserID" json:"-"`
}

func (EvoucherCode) TableName() string {
	return "evoucher_codes"
}
