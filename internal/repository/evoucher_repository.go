package repository

import (
	"campus_engage_backend/internal/model"

	"gorm.io/gorm"
)

type EvoucherRepository struct {
	DB *gorm.DB
}

func NewEvoucherRepository(db *gorm.DB) *EvoucherRepository {
	return &EvoucherRepository{DB: db}
}

func (r *EvoucherRepository) Create(evoucher *model.Evoucher) error {
	return r.DB.Create(evoucher).Error
}

func (r *EvoucherRepository) FindByID(id uint) (*model.Evoucher, error) {
	var evoucher model.Evoucher
	err := r.DB.Preload("Sponsor").First(&evoucher, id).Error
	return &evoucher, err
}

func (r *EvoucherRepository) FindAll() ([]model.Evoucher, error) {
	var evouchers []model.Evoucher
	err := r.DB.Preload("Sponsor").Order("id").Find(&evouchers).Error
	return evouchers, err
}

func (r *EvoucherRepository) FindWithPagination(offset, limit int, sponsorID uint) ([]model.Evoucher, int64, error) {
	var evouchers []model.Evoucher
	var total int64

	query := r.DB.Model(&model.Evoucher{})
	if sponsorID > 0 {
		query = query.Where("sponsor_id = ?", sponsorID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).
		Preload("Sponsor").
		Find(&evouchers).Error
	if err != nil {
		return nil, 0, err
	}

	return evouchers, total, nil
}

func (r *EvoucherRepository) Update(evoucher *model.Evoucher) error {
	return r.DB.Save(evoucher).Error
}

func (r *EvoucherRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Evoucher{}, id).Error
}
