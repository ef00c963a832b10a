package model

// Sponsor 赞助商，拥有电子代金券活动和关联地标
// swagger:model Sponsor
type Sponsor struct {
	BaseModel
	NameEN  string `gorm:"size:100;not null" json:"nameEn"`
	NameTH  string `gorm:"size:100" json:"nameTh"`
	Detail  string `gorm:"type:text" json:"detail"`
	LogoURL string `gorm:"size:255" json:"logoUrl"`
	Active  bool   `gorm:"default:true" json:"active"`
}

func (Sponsor) TableName() string {
	return "sponsors"
}
