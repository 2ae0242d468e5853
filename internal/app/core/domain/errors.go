package domain

import "errors"

var (
	// ErrDuplicateUser 使用者名稱已存在
	ErrDuplicateUser = errors.New("username already exists")

	// ErrInvalidUsername 使用者名稱不可為空
	ErrInvalidUsername = errors.New("username must not be empty")

	// ErrInvalidAmount 金額無法解析或超出允許範圍
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUserNotFound 找不到帳戶
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientFunds 餘額不足
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotAuthenticated 操作未綁定已驗證的使用者
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnsupportedTransaction 非存款或提款的交易類型
	ErrUnsupportedTransaction = errors.New("unsupported transaction type")

	// ErrStoreClosed 帳本引擎已停止
	ErrStoreClosed = errors.New("account store closed")
)
