package repository

import (
	"campus_engage_backend/internal/model"

	"gorm.io/gorm"
)

type LandmarkRepository struct {
	DB *gorm.DB
}

func NewLandmarkRepository(db *gorm.DB) *LandmarkRepository {
	return &LandmarkRepository{DB: db}
}

func (r *LandmarkRepository) Create(landmark *model.Landmark) error {
	return r.DB.Create(landmark).Error
}

func (r *LandmarkRepository) FindByID(id uint) (*model.Landmark, error) {
	var landmark model.Landmark
	err := r.DB.Preload("Sponsor").Preload("Evoucher").First(&landmark, id).Error
	return &landmark, err
}

// FindActive 学生端地图展示用，只返回启用的地标
func (r *LandmarkRepository) FindActive() ([]model.Landmark, error) {
	var landmarks []model.Landmark
	err := r.DB.Where("active = ?", true).
		Preload("Sponsor").
		Order("id").
		Find(&landmarks).Error
	return landmarks, err
}

func (r *LandmarkRepository) FindWithPagination(offset, limit int, sponsorID uint, search string) ([]model.Landmark, int64, error) {
	var landmarks []model.Landmark
	var total int64

	query := r.DB.Model(&model.Landmark{})
	if sponsorID > 0 {
		query = query.Where("sponsor_id = ?", sponsorID)
	}
	if search != "" {
		query = query.Where("name_en LIKE ? OR name_th LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).
		Preload("Sponsor").
		Preload("Evoucher").
		Find(&landmarks).Error
	if err != nil {
		return nil, 0, err
	}

	return landmarks, total, nil
}

func (r *LandmarkRepository) Update(landmark *model.Landmark) error {
	return r.DB.Save(landmark).Error
}

func (r *LandmarkRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Landmark{}, id).Error
}
