package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrPermissionDenied = errors.New("permission denied")

	ErrLandmarkNotFound = errors.New("landmark not found")
	ErrSponsorNotFound  = errors.New("sponsor not found")
	ErrEvoucherNotFound = errors.New("evoucher not found")
	ErrCodeNotFound     = errors.New("voucher code not found")

	ErrAlreadyClaimed  = errors.New("already collected this landmark")
	ErrPoolExhausted   = errors.New("no evoucher codes available")
	ErrCollectionLimit = errors.New("maximum coins collected")

	ErrCodeAlreadyUsed = errors.New("this voucher code has already been used")
	ErrCodeNotReusable = errors.New("cannot reuse a used voucher code")
	ErrCodeExpired     = errors.New("voucher code has expired")
	ErrCodeNotOwned    = errors.New("this voucher code is not assigned to you")
	ErrEvoucherExpired = errors.New("evoucher has expired")
)
