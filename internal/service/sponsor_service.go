package service

import (
	"errors"

	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/repository"
	"campus_engage_backend/internal/util"

	"gorm.io/gorm"
)

type SponsorService struct {
	SponsorRepo *repository.SponsorRepository
}

func NewSponsorService(sponsorRepo *repository.SponsorRepository) *SponsorService {
	return &SponsorService{SponsorRepo: sponsorRepo}
}

func (s *SponsorService) Create(sponsor *model.Sponsor) error {
	return s.SponsorRepo.Create(sponsor)
}

func (s *SponsorService) GetByID(id uint) (*model.Sponsor, error) {
	sponsor, err := s.SponsorRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSponsorNotFound
	}
	return sponsor, err
}

func (s *SponsorService) List(page, limit int, search string) ([]model.Sponsor, int64, error) {
	offset := (page - 1) * limit
	return s.SponsorRepo.FindWithPagination(offset, limit, search)
}

func (s *SponsorService) Update(id uint, updates *model.Sponsor) (*model.Sponsor, error) {
	sponsor, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	sponsor.NameEN = updates.NameEN
	sponsor.NameTH = updates.NameTH
	sponsor.Detail = updates.Detail
	sponsor.Active = updates.Active
	if updates.LogoURL != "" {
		sponsor.LogoURL = updates.LogoURL
	}

	if err := s.SponsorRepo.Update(sponsor); err != nil {
		return nil, err
	}
	return sponsor, nil
}

func (s *SponsorService) Delete(id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	return s.SponsorRepo.Delete(id)
}
