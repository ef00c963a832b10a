package service

import (
	"errors"

	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/repository"
	"campus_engage_backend/internal/util"

	"gorm.io/gorm"
)

type LandmarkService struct {
	LandmarkRepo *repository.LandmarkRepository
	SponsorRepo  *repository.SponsorRepository
	EvoucherRepo *repository.EvoucherRepository
}

func NewLandmarkService(landmarkRepo *repository.LandmarkRepository, sponsorRepo *repository.SponsorRepository, evoucherRepo *repository.EvoucherRepository) *LandmarkService {
	return &LandmarkService{
		LandmarkRepo: landmarkRepo,
		SponsorRepo:  sponsorRepo,
		EvoucherRepo: evoucherRepo,
	}
}

// Create 新建地标，外键先行校验，给管理端可读的错误而不是数据库约束报错
func (s *LandmarkService) Create(landmark *model.Landmark) error {
	if err := s.checkRefs(landmark); err != nil {
		return err
	}
	if landmark.Radius <= 0 {
		landmark.Radius = 50
	}
	if landmark.CoinValue <= 0 {
		landmark.CoinValue = 1
	}
	return s.LandmarkRepo.Create(landmark)
}

func (s *LandmarkService) GetByID(id uint) (*model.Landmark, error) {
	landmark, err := s.LandmarkRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLandmarkNotFound
	}
	return landmark, err
}

// ListActive 学生端地图数据
func (s *LandmarkService) ListActive() ([]model.Landmark, error) {
	return s.LandmarkRepo.FindActive()
}

func (s *LandmarkService) List(page, limit int, sponsorID uint, search string) ([]model.Landmark, int64, error) {
	offset := (page - 1) * limit
	return s.LandmarkRepo.FindWithPagination(offset, limit, sponsorID, search)
}

func (s *LandmarkService) Update(id uint, updates *model.Landmark) (*model.Landmark, error) {
	landmark, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(updates); err != nil {
		return nil, err
	}

	landmark.NameEN = updates.NameEN
	landmark.NameTH = updates.NameTH
	landmark.Hint = updates.Hint
	landmark.Latitude = updates.Latitude
	landmark.Longitude = updates.Longitude
	landmark.CooldownMs = updates.CooldownMs
	landmark.OneTime = updates.OneTime
	landmark.MapX = updates.MapX
	landmark.MapY = updates.MapY
	landmark.Active = updates.Active
	landmark.SponsorID = updates.SponsorID
	landmark.EvoucherID = updates.EvoucherID
	if updates.Radius > 0 {
		landmark.Radius = updates.Radius
	}
	if updates.CoinValue > 0 {
		landmark.CoinValue = updates.CoinValue
	}
	if updates.ImageURL != "" {
		landmark.ImageURL = updates.ImageURL
	}

	if err := s.LandmarkRepo.Update(landmark); err != nil {
		return nil, err
	}
	return landmark, nil
}

func (s *LandmarkService) Delete(id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	return s.LandmarkRepo.Delete(id)
}

func (s *LandmarkService) checkRefs(landmark *model.Landmark) error {
	if landmark.SponsorID != nil {
		if _, err := s.SponsorRepo.FindByID(*landmark.SponsorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrSponsorNotFound
			}
			return err
		}
	}
	if landmark.EvoucherID != nil {
		if _, err := s.EvoucherRepo.FindByID(*landmark.EvoucherID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrEvoucherNotFound
			}
			return err
		}
	}
	return nil
}
