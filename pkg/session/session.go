// Package session 持有呼叫端的登入狀態 (Anonymous / Authenticated)。
//
// 核心帳本沒有「目前使用者」的概念，每個 Session 各自綁定一個帳號，
// 同一個帳本可以同時服務多個 Session。
package session

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/usecase"
)

// Ledger 是 Session 需要的帳本操作，本機 LedgerService 與遠端 client 皆可
type Ledger interface {
	Authenticate(ctx context.Context, username, credential string) bool
	Deposit(ctx context.Context, username, rawAmount string) (decimal.Decimal, error)
	Withdraw(ctx context.Context, username, rawAmount string) (decimal.Decimal, error)
	Balance(ctx context.Context, username string) (decimal.Decimal, error)
	History(ctx context.Context, username string) ([]domain.TransactionRecord, error)
}

// Forgetter 由會快取憑證的 Ledger 實作，登出時清除
type Forgetter interface {
	Forget(username string)
}

// LocalLedger 讓同一程序內的 LedgerService 滿足 Ledger
type LocalLedger struct {
	*usecase.LedgerService
}

func (l LocalLedger) History(ctx context.Context, username string) ([]domain.TransactionRecord, error) {
	return l.LedgerService.History(ctx, username), nil
}

// State 登入狀態
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "Authenticated"
	}
	return "Anonymous"
}

type Session struct {
	ledger   Ledger
	mu       sync.Mutex
	username string
}

func New(ledger Ledger) *Session {
	return &Session{ledger: ledger}
}

// Login 驗證成功才切換到 Authenticated；失敗時狀態不變
// 已登入其他帳號時，先清除舊帳號快取的登入資訊
func (s *Session) Login(ctx context.Context, username, credential string) bool {
	if !s.ledger.Authenticate(ctx, username, credential) {
		return false
	}
	s.mu.Lock()
	previous := s.username
	s.username = username
	s.mu.Unlock()

	if f, ok := s.ledger.(Forgetter); ok && previous != "" && previous != username {
		f.Forget(previous)
	}
	return true
}

// Logout 回到 Anonymous
func (s *Session) Logout() {
	s.mu.Lock()
	username := s.username
	s.username = ""
	s.mu.Unlock()

	if f, ok := s.ledger.(Forgetter); ok && username != "" {
		f.Forget(username)
	}
}

func (s *Session) State() State {
	if _, ok := s.User(); ok {
		return Authenticated
	}
	return Anonymous
}

// User 回傳目前綁定的帳號
func (s *Session) User() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username, s.username != ""
}

func (s *Session) bound() (string, error) {
	username, ok := s.User()
	if !ok {
		return "", domain.ErrNotAuthenticated
	}
	return username, nil
}

func (s *Session) Deposit(ctx context.Context, rawAmount string) (decimal.Decimal, error) {
	username, err := s.bound()
	if err != nil {
		return decimal.Zero, err
	}
	return s.ledger.Deposit(ctx, username, rawAmount)
}

func (s *Session) Withdraw(ctx context.Context, rawAmount string) (decimal.Decimal, error) {
	username, err := s.bound()
	if err != nil {
		return decimal.Zero, err
	}
	return s.ledger.Withdraw(ctx, username, rawAmount)
}

func (s *Session) Balance(ctx context.Context) (decimal.Decimal, error) {
	username, err := s.bound()
	if err != nil {
		return decimal.Zero, err
	}
	return s.ledger.Balance(ctx, username)
}

func (s *Session) History(ctx context.Context) ([]domain.TransactionRecord, error) {
	username, err := s.bound()
	if err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, username)
}
