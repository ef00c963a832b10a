package repository

import (
	"campus_engage_backend/internal/model"

	"gorm.io/gorm"
)

type SponsorRepository struct {
	DB *gorm.DB
}

func NewSponsorRepository(db *gorm.DB) *SponsorRepository {
	return &SponsorRepository{DB: db}
}

func (r *SponsorRepository) Create(sponsor *model.Sponsor) error {
	return r.DB.Create(sponsor).Error
}

func (r *SponsorRepository) FindByID(id uint) (*model.Sponsor, error) {
	var sponsor model.Sponsor
	err := r.DB.First(&sponsor, id).Error
	return &sponsor, err
}

func (r *SponsorRepository) FindWithPagination(offset, limit int, search string) ([]model.Sponsor, int64, error) {
	var sponsors []model.Sponsor
	var total int64

	query := r.DB.Model(&model.Sponsor{})
	if search != "" {
		query = query.Where("name_en LIKE ? OR name_th LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&sponsors).Error
	if err != nil {
		return nil, 0, err
	}

	return sponsors, total, nil
}

func (r *SponsorRepository) Update(sponsor *model.Sponsor) error {
	return r.DB.Save(sponsor).Error
}

func (r *SponsorRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Sponsor{}, id).Error
}
