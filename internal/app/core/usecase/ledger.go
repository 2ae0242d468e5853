package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
)

// AccountStore 是帳戶與交易紀錄的儲存介面
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=ledger.go AccountStore
type AccountStore interface {
	// Create 建立帳戶 (含空的交易紀錄)，帳號重複回傳 ErrDuplicateUser
	Create(ctx context.Context, username, credential string, initialBalance decimal.Decimal) error
	// Get 取得帳戶快照
	Get(ctx context.Context, username string) (domain.Account, bool)
	// AdjustBalance 唯一的餘額異動入口
	AdjustBalance(ctx context.Context, username string, delta decimal.Decimal) (decimal.Decimal, error)
	// PostTransaction 在同一個臨界區內異動餘額並寫入交易紀錄
	PostTransaction(ctx context.Context, username string, rec domain.TransactionRecord) (decimal.Decimal, error)
	// History 由新到舊回傳交易紀錄
	History(ctx context.Context, username string) ([]domain.TransactionRecord, error)
}
