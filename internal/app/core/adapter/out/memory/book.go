package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
)

// Option 設定記憶體帳本
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock 替換交易時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// book 單一帳戶的帳本：帳戶、交易紀錄與已處理的交易
// 本身不加鎖，由外層 Store 保證同一時間只有一個寫入者
type book struct {
	account domain.Account
	// 由舊到新，對外回傳時反轉
	history []domain.TransactionRecord
	// 已處理過的交易
	processed map[uuid.UUID]struct{}
}

func newBook(username, credential string, balance decimal.Decimal) *book {
	return &book{
		account:   *domain.NewAccount(username, credential, balance),
		history:   make([]domain.TransactionRecord, 0),
		processed: make(map[uuid.UUID]struct{}),
	}
}

func validateNewAccount(username string, balance decimal.Decimal) error {
	if username == "" {
		return domain.ErrInvalidUsername
	}
	if balance.IsNegative() {
		return domain.ErrInvalidAmount
	}
	return nil
}

func (b *book) adjust(delta decimal.Decimal) (decimal.Decimal, error) {
	return b.account.Adjust(delta)
}

// post 異動餘額並寫入紀錄，兩者一起成功或一起失敗
//
// 參數:
//
//	rec: 交易紀錄 (Timestamp 由此寫入)
//	now: 目前時間
//
// 回傳:
//
//	decimal.Decimal: 交易後餘額
//	error: ErrInvalidAmount / ErrInsufficientFunds
func (b *book) post(rec domain.TransactionRecord, now time.Time) (decimal.Decimal, error) {
	if !rec.Amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	// Idempotency Check
	if _, ok := b.processed[rec.ID]; ok {
		return b.account.Balance, nil
	}

	balance, err := b.adjust(rec.Kind.Delta(rec.Amount))
	if err != nil {
		return decimal.Zero, err
	}

	// 時間不得早於上一筆
	if n := len(b.history); n > 0 && now.Before(b.history[n-1].Timestamp) {
		now = b.history[n-1].Timestamp
	}
	rec.Timestamp = now
	b.history = append(b.history, rec)
	b.processed[rec.ID] = struct{}{}
	return balance, nil
}

// newestFirst 回傳由新到舊的複本
func (b *book) newestFirst() []domain.TransactionRecord {
	out := make([]domain.TransactionRecord, len(b.history))
	for i, rec := range b.history {
		out[len(b.history)-1-i] = rec
	}
	return out
}
