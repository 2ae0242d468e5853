package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
)

// LedgerService 是核心業務邏輯層：驗證輸入後交給 AccountStore
//
// 服務本身不記錄「誰已登入」，登入狀態由呼叫端持有 (見 pkg/session)。
type LedgerService struct {
	store  AccountStore
	logger *slog.Logger
}

func NewLedgerService(store AccountStore, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		store:  store,
		logger: logger,
	}
}

// Register 開戶，開戶後不會自動登入
//
// 參數:
//
//	username: 帳號
//	credential: PIN，原樣保存
//	rawBalance: 初始存款 (可為 0)
//
// 回傳:
//
//	error: ErrInvalidUsername / ErrInvalidAmount / ErrDuplicateUser
func (s *LedgerService) Register(ctx context.Context, username, credential, rawBalance string) error {
	if strings.TrimSpace(username) == "" {
		return domain.ErrInvalidUsername
	}
	balance, err := domain.ParseNonNegativeAmount(rawBalance)
	if err != nil {
		return err
	}
	if err := s.store.Create(ctx, username, credential, balance); err != nil {
		s.logger.Info("register rejected", "username", username, "error", err)
		return err
	}
	s.logger.Info("account registered", "username", username, "balance", balance.String())
	return nil
}

// Authenticate 帳號存在且 PIN 完全相符才回傳 true
func (s *LedgerService) Authenticate(ctx context.Context, username, credential string) bool {
	account, ok := s.store.Get(ctx, username)
	if !ok {
		s.logger.Info("authentication failed", "username", username, "reason", "unknown user")
		return false
	}
	if !account.Matches(credential) {
		s.logger.Info("authentication failed", "username", username, "reason", "credential mismatch")
		return false
	}
	return true
}

// Deposit 存款，回傳存款後餘額
func (s *LedgerService) Deposit(ctx context.Context, username, rawAmount string) (decimal.Decimal, error) {
	return s.Post(ctx, username, domain.TransactionTypeDeposit, rawAmount, uuid.New())
}

// Withdraw 提款，回傳提款後餘額
func (s *LedgerService) Withdraw(ctx context.Context, username, rawAmount string) (decimal.Decimal, error) {
	return s.Post(ctx, username, domain.TransactionTypeWithdraw, rawAmount, uuid.New())
}

// Post 處理一筆存提款，refID 重複時不重複入帳
//
// 參數:
//
//	username: 已驗證的帳號，空字串代表未登入
//	kind: 交易類型
//	rawAmount: 使用者輸入的金額
//	refID: 外部追蹤號
//
// 回傳:
//
//	decimal.Decimal: 交易後餘額
//	error: ErrNotAuthenticated / ErrUnsupportedTransaction / ErrInvalidAmount / ErrUserNotFound / ErrInsufficientFunds
func (s *LedgerService) Post(ctx context.Context, username string, kind domain.TransactionType, rawAmount string, refID uuid.UUID) (decimal.Decimal, error) {
	if username == "" {
		return decimal.Zero, domain.ErrNotAuthenticated
	}
	if kind != domain.TransactionTypeDeposit && kind != domain.TransactionTypeWithdraw {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrUnsupportedTransaction, kind)
	}
	amount, err := domain.ParsePositiveAmount(rawAmount)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := s.store.PostTransaction(ctx, username, domain.TransactionRecord{
		ID:     refID,
		Kind:   kind,
		Amount: amount,
	})
	if err != nil {
		s.logger.Info("transaction rejected",
			"username", username, "kind", kind.String(), "amount", amount.String(), "error", err)
		return decimal.Zero, err
	}
	s.logger.Debug("transaction posted",
		"username", username, "kind", kind.String(), "amount", amount.String(), "ref_id", refID.String())
	return balance, nil
}

// Balance 查詢餘額
func (s *LedgerService) Balance(ctx context.Context, username string) (decimal.Decimal, error) {
	if username == "" {
		return decimal.Zero, domain.ErrNotAuthenticated
	}
	account, ok := s.store.Get(ctx, username)
	if !ok {
		return decimal.Zero, domain.ErrUserNotFound
	}
	return account.Balance, nil
}

// History 由新到舊回傳交易紀錄；帳戶不存在時回傳空集合
func (s *LedgerService) History(ctx context.Context, username string) []domain.TransactionRecord {
	records, err := s.store.History(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("history lookup failed", "username", username, "error", err)
		}
		return []domain.TransactionRecord{}
	}
	return records
}
