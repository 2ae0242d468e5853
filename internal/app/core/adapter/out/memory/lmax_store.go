package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/usecase"
)

// request 包裝一個要在核心迴圈執行的操作，done 讓呼叫端等待結果
type request struct {
	fn   func()
	done chan struct{}
}

// LMAXStore 單一寫入者帳本：所有讀寫都在同一個 goroutine 依序執行，不需要鎖
type LMAXStore struct {
	books map[string]*book
	now   func() time.Time
	// 輸送帶 負責接收操作
	requests chan *request
	// 核心迴圈結束後關閉
	stopped chan struct{}
	// Pool 減少 GC 壓力
	requestPool sync.Pool
}

// NewLMAXStore 建立並啟動 LMAXStore，ctx 結束後引擎停止，之後的呼叫回傳 ErrStoreClosed
func NewLMAXStore(ctx context.Context, opts ...Option) *LMAXStore {
	o := newOptions(opts)
	l := &LMAXStore{
		books:    make(map[string]*book),
		now:      o.now,
		requests: make(chan *request),
		stopped:  make(chan struct{}),
		requestPool: sync.Pool{
			New: func() interface{} {
				return &request{
					done: make(chan struct{}, 1),
				}
			},
		},
	}
	go l.run(ctx)
	return l
}

func (l *LMAXStore) run(ctx context.Context) {
	defer close(l.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-l.requests:
			req.fn()
			req.done <- struct{}{}
		}
	}
}

// submit 將操作放入輸送帶並等待執行完畢
//
// requests 為無緩衝 channel，送出成功即代表核心迴圈已接手，必定會執行
func (l *LMAXStore) submit(ctx context.Context, fn func()) error {
	req := l.requestPool.Get().(*request)
	req.fn = fn

	select {
	case l.requests <- req:
	case <-l.stopped:
		l.release(req)
		return domain.ErrStoreClosed
	case <-ctx.Done():
		l.release(req)
		return ctx.Err()
	}

	<-req.done
	l.release(req)
	return nil
}

func (l *LMAXStore) release(req *request) {
	req.fn = nil
	l.requestPool.Put(req)
}

// Create 建立帳戶與空的交易紀錄
func (l *LMAXStore) Create(ctx context.Context, username, credential string, initialBalance decimal.Decimal) error {
	if err := validateNewAccount(username, initialBalance); err != nil {
		return err
	}
	var err error
	if submitErr := l.submit(ctx, func() {
		if _, ok := l.books[username]; ok {
			err = domain.ErrDuplicateUser
			return
		}
		l.books[username] = newBook(username, credential, initialBalance)
	}); submitErr != nil {
		return submitErr
	}
	return err
}

// Get 取得帳戶快照，引擎停止後一律回傳不存在
func (l *LMAXStore) Get(ctx context.Context, username string) (domain.Account, bool) {
	var (
		account domain.Account
		found   bool
	)
	if err := l.submit(ctx, func() {
		if b, ok := l.books[username]; ok {
			account, found = b.account, true
		}
	}); err != nil {
		return domain.Account{}, false
	}
	return account, found
}

// AdjustBalance 調整餘額
func (l *LMAXStore) AdjustBalance(ctx context.Context, username string, delta decimal.Decimal) (decimal.Decimal, error) {
	var (
		balance decimal.Decimal
		err     error
	)
	if submitErr := l.submit(ctx, func() {
		b, ok := l.books[username]
		if !ok {
			err = domain.ErrUserNotFound
			return
		}
		balance, err = b.adjust(delta)
	}); submitErr != nil {
		return decimal.Zero, submitErr
	}
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// PostTransaction 接收交易請求
//
// PostTransaction(等待) -> Channel -> Run Loop (核心) -> Map Update -> done -> PostTransaction(收到結果)
func (l *LMAXStore) PostTransaction(ctx context.Context, username string, rec domain.TransactionRecord) (decimal.Decimal, error) {
	var (
		balance decimal.Decimal
		err     error
	)
	if submitErr := l.submit(ctx, func() {
		b, ok := l.books[username]
		if !ok {
			err = domain.ErrUserNotFound
			return
		}
		balance, err = b.post(rec, l.now())
	}); submitErr != nil {
		return decimal.Zero, submitErr
	}
	return balance, err
}

// History 由新到舊回傳交易紀錄
func (l *LMAXStore) History(ctx context.Context, username string) ([]domain.TransactionRecord, error) {
	var (
		records []domain.TransactionRecord
		err     error
	)
	if submitErr := l.submit(ctx, func() {
		b, ok := l.books[username]
		if !ok {
			err = domain.ErrUserNotFound
			return
		}
		records = b.newestFirst()
	}); submitErr != nil {
		return nil, submitErr
	}
	return records, err
}

var _ usecase.AccountStore = (*LMAXStore)(nil)
