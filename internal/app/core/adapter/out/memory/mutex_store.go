package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/usecase"
)

type lockedBook struct {
	mu sync.Mutex
	*book
}

// MutexStore 是一個使用 Mutex 實現的帳本
//
// 結構:
//
//	books: 帳號對應帳本，受 mu 保護 (只有開戶需要寫鎖)
//	每個帳本有自己的 Mutex，不同帳號的交易可以同時進行
type MutexStore struct {
	mu    sync.RWMutex
	books map[string]*lockedBook
	now   func() time.Time
}

// NewMutexStore 建立一個新的 MutexStore 實例
func NewMutexStore(opts ...Option) *MutexStore {
	o := newOptions(opts)
	return &MutexStore{
		books: make(map[string]*lockedBook),
		now:   o.now,
	}
}

func (m *MutexStore) lookup(username string) (*lockedBook, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[username]
	return b, ok
}

// Create 建立帳戶與空的交易紀錄
//
// 參數:
//
//	ctx: 上下文
//	username: 帳號
//	credential: PIN
//	initialBalance: 初始餘額
//
// 回傳:
//
//	error: ErrDuplicateUser / ErrInvalidAmount
func (m *MutexStore) Create(ctx context.Context, username, credential string, initialBalance decimal.Decimal) error {
	if err := validateNewAccount(username, initialBalance); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[username]; ok {
		return domain.ErrDuplicateUser
	}
	m.books[username] = &lockedBook{book: newBook(username, credential, initialBalance)}
	return nil
}

// Get 取得帳戶快照
func (m *MutexStore) Get(ctx context.Context, username string) (domain.Account, bool) {
	b, ok := m.lookup(username)
	if !ok {
		return domain.Account{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.account, true
}

// AdjustBalance 調整餘額
//
// 回傳:
//
//	decimal.Decimal: 調整後餘額
//	error: ErrUserNotFound / ErrInsufficientFunds
func (m *MutexStore) AdjustBalance(ctx context.Context, username string, delta decimal.Decimal) (decimal.Decimal, error) {
	b, ok := m.lookup(username)
	if !ok {
		return decimal.Zero, domain.ErrUserNotFound
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	balance, err := b.adjust(delta)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// PostTransaction 處理交易請求 (帳戶層級 Mutex Lock)
func (m *MutexStore) PostTransaction(ctx context.Context, username string, rec domain.TransactionRecord) (decimal.Decimal, error) {
	b, ok := m.lookup(username)
	if !ok {
		return decimal.Zero, domain.ErrUserNotFound
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.post(rec, m.now())
}

// History 由新到舊回傳交易紀錄
func (m *MutexStore) History(ctx context.Context, username string) ([]domain.TransactionRecord, error) {
	b, ok := m.lookup(username)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newestFirst(), nil
}

var _ usecase.AccountStore = (*MutexStore)(nil)
