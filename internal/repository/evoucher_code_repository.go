package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"campus_engage_backend/internal/model"
	"campus_engage_backend/internal/util"

	"gorm.io/gorm"
)

// 单次分配允许的候选码争抢次数，超出按临时故障处理
const allocateMaxAttempts = 8

type EvoucherCodeRepository struct {
	DB *gorm.DB
}

func NewEvoucherCodeRepository(db *gorm.DB) *EvoucherCodeRepository {
	return &EvoucherCodeRepository{DB: db}
}

// AllocateForUser 以 CAS 方式占用一个未分配的兑换码。
// 先读候选再做条件更新，RowsAffected 为 0 说明该码刚被并发请求抢走，换下一个。
// 不允许先查余量再分配，分配只能 attempt-and-fail
func (r *EvoucherCodeRepository) AllocateForUser(tx *gorm.DB, evoucherID, userID uint, now time.Time) (*model.EvoucherCode, error) {
	for i := 0; i < allocateMaxAttempts; i++ {
		var code model.EvoucherCode
		err := tx.Where("evoucher_id = ? AND user_id IS NULL", evoucherID).
			Order("id").
			First(&code).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPoolExhausted
		}
		if err != nil {
			return nil, err
		}

		res := tx.Model(&model.EvoucherCode{}).
			Where("id = ? AND user_id IS NULL", code.ID).
			Updates(map[string]interface{}{
				"user_id":    userID,
				"claimed_at": now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			code.UserID = &userID
			code.ClaimedAt = &now
			return &code, nil
		}
	}

	return nil, fmt.Errorf("evoucher %d: allocation contention, giving up", evoucherID)
}

// Remaining 码池余量，仅用于观测，禁止作为分配前置判断
func (r *EvoucherCodeRepository) Remaining(evoucherID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.EvoucherCode{}).
		Where("evoucher_id = ? AND user_id IS NULL", evoucherID).
		Count(&count).Error
	return count, err
}

func (r *EvoucherCodeRepository) FindByID(id uint) (*model.EvoucherCode, error) {
	var code model.EvoucherCode
	err := r.DB.Preload("Evoucher").First(&code, id).Error
	return &code, err
}

func (r *EvoucherCodeRepository) FindByUser(userID uint) ([]model.EvoucherCode, error) {
	var codes []model.EvoucherCode
	err := r.DB.Where("user_id = ?", userID).
		Preload("Evoucher").
		Preload("Evoucher.Sponsor").
		Order("claimed_at DESC").
		Find(&codes).Error
	return codes, err
}

func (r *EvoucherCodeRepository) FindByEvoucher(evoucherID uint, offset, limit int) ([]model.EvoucherCode, int64, error) {
	var codes []model.EvoucherCode
	var total int64

	query := r.DB.Model(&model.EvoucherCode{}).Where("evoucher_id = ?", evoucherID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id").Offset(offset).Limit(limit).Find(&codes).Error
	if err != nil {
		return nil, 0, err
	}

	return codes, total, nil
}

// GenerateCodes 批量生成兑换码：前缀 + 六位流水号，跳过已占用的号段
func (r *EvoucherCodeRepository) GenerateCodes(evoucher *model.Evoucher, count int) ([]string, error) {
	var existing []model.EvoucherCode
	err := r.DB.Where("evoucher_id = ? AND code LIKE ?", evoucher.ID, evoucher.Acronym+"%").
		Find(&existing).Error
	if err != nil {
		return nil, err
	}

	existingNumbers := make(map[int]bool, len(existing))
	maxNumber := 0
	for _, c := range existing {
		n, perr := strconv.Atoi(strings.TrimPrefix(c.Code, evoucher.Acronym))
		if perr != nil {
			continue
		}
		existingNumbers[n] = true
		if n > maxNumber {
			maxNumber = n
		}
	}

	codes := make([]model.EvoucherCode, 0, count)
	generated := make([]string, 0, count)
	current := maxNumber + 1
	for len(codes) < count {
		if !existingNumbers[current] {
			code := fmt.Sprintf("%s%06d", evoucher.Acronym, current)
			codes = append(codes, model.EvoucherCode{
				Code:       code,
				EvoucherID: evoucher.ID,
			})
			generated = append(generated, code)
		}
		current++
	}

	if err := r.DB.Create(&codes).Error; err != nil {
		return nil, err
	}
	return generated, nil
}

// MarkUsed 核销，仅允许 未核销 -> 已核销 单向翻转
func (r *EvoucherCodeRepository) MarkUsed(codeID uint, now time.Time) error {
	res := r.DB.Model(&model.EvoucherCode{}).
		Where("id = ? AND is_used = ?", codeID, false).
		Updates(map[string]interface{}{
			"is_used": true,
			"used_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrCodeAlreadyUsed
	}
	return nil
}
