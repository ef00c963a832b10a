package service

import (
	"errors"
	"fmt"
	"time"

	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/repository"
	"campus_engage_backend/internal/util"
	"campus_engage_backend/pkg/logger"
	"campus_engage_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const generateBatchMax = 10000

type EvoucherService struct {
	EvoucherRepo *repository.EvoucherRepository
	CodeRepo     *repository.EvoucherCodeRepository
	SponsorRepo  *repository.SponsorRepository
}

func NewEvoucherService(evoucherRepo *repository.EvoucherRepository, codeRepo *repository.EvoucherCodeRepository, sponsorRepo *repository.SponsorRepository) *EvoucherService {
	return &EvoucherService{
		EvoucherRepo: evoucherRepo,
		CodeRepo:     codeRepo,
		SponsorRepo:  sponsorRepo,
	}
}

func (s *EvoucherService) Create(evoucher *model.Evoucher) error {
	if _, err := s.SponsorRepo.FindByID(evoucher.SponsorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrSponsorNotFound
		}
		return err
	}
	return s.EvoucherRepo.Create(evoucher)
}

func (s *EvoucherService) GetByID(id uint) (*model.Evoucher, error) {
	evoucher, err := s.EvoucherRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrEvoucherNotFound
	}
	return evoucher, err
}

func (s *EvoucherService) List(page, limit int, sponsorID uint) ([]model.Evoucher, int64, error) {
	offset := (page - 1) * limit
	return s.EvoucherRepo.FindWithPagination(offset, limit, sponsorID)
}

func (s *EvoucherService) Update(id uint, updates *model.Evoucher) (*model.Evoucher, error) {
	evoucher, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	evoucher.NameEN = updates.NameEN
	evoucher.NameTH = updates.NameTH
	evoucher.Detail = updates.Detail
	evoucher.Expiration = updates.Expiration
	// 前缀不允许改动，已发放的码都带着它

	if err := s.EvoucherRepo.Update(evoucher); err != nil {
		return nil, err
	}
	return evoucher, nil
}

func (s *EvoucherService) Delete(id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	return s.EvoucherRepo.Delete(id)
}

// GenerateCodes 为指定券批量补码，过期的券不再补
func (s *EvoucherService) GenerateCodes(evoucherID uint, count int) ([]string, error) {
	if count <= 0 || count > generateBatchMax {
		return nil, fmt.Errorf("invalid code count %d, must be between 1 and %d", count, generateBatchMax)
	}

	evoucher, err := s.GetByID(evoucherID)
	if err != nil {
		return nil, err
	}
	if evoucher.Expired(time.Now()) {
		return nil, util.ErrEvoucherExpired
	}

	return s.CodeRepo.GenerateCodes(evoucher, count)
}

func (s *EvoucherService) ListCodes(evoucherID uint, page, limit int) ([]model.EvoucherCode, int64, error) {
	if _, err := s.GetByID(evoucherID); err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	return s.CodeRepo.FindByEvoucher(evoucherID, offset, limit)
}

// MyCodes 用户通过打卡领到的所有兑换码
func (s *EvoucherService) MyCodes(userID uint) ([]model.EvoucherCode, error) {
	return s.CodeRepo.FindByUser(userID)
}

// UseCode 核销。只有持有人可以核销，且一个码只能翻转一次
func (s *EvoucherService) UseCode(codeID, userID uint) (*model.EvoucherCode, error) {
	code, err := s.CodeRepo.FindByID(codeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}

	if code.UserID == nil || *code.UserID != userID {
		return nil, util.ErrCodeNotOwned
	}
	if code.IsUsed {
		return nil, util.ErrCodeNotReusable
	}
	if code.Evoucher != nil && code.Evoucher.Expired(time.Now()) {
		return nil, util.ErrCodeExpired
	}

	now := time.Now()
	if err := s.CodeRepo.MarkUsed(codeID, now); err != nil {
		return nil, err
	}

	code.IsUsed = true
	code.UsedAt = &now
	return code, nil
}

func (s *EvoucherService) Remaining(evoucherID uint) (int64, error) {
	if _, err := s.GetByID(evoucherID); err != nil {
		return 0, err
	}
	return s.CodeRepo.Remaining(evoucherID)
}

// RefreshPoolGauges 码池余量上报，由后台定时任务驱动
func (s *EvoucherService) RefreshPoolGauges() {
	evouchers, err := s.EvoucherRepo.FindAll()
	if err != nil {
		logger.Log.Warn("pool gauge refresh failed", zap.Error(err))
		return
	}
	for _, e := range evouchers {
		remaining, err := s.CodeRepo.Remaining(e.ID)
		if err != nil {
			continue
		}
		monitoring.EvoucherRemaining.WithLabelValues(e.Acronym).Set(float64(remaining))
	}
}
