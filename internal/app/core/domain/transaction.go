package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimestampLayout 交易紀錄顯示用的時間格式
const TimestampLayout = "2006-01-02 15:04:05"

// TransactionType 交易類型
type TransactionType uint8

const (
	// 存款
	TransactionTypeDeposit TransactionType = 1
	// 提款
	TransactionTypeWithdraw TransactionType = 2
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeDeposit:
		return "Deposit"
	case TransactionTypeWithdraw:
		return "Withdraw"
	default:
		return fmt.Sprintf("TransactionType(%d)", uint8(t))
	}
}

// ParseTransactionType 由名稱取得交易類型 (Deposit / Withdraw)
func ParseTransactionType(name string) (TransactionType, bool) {
	switch name {
	case "Deposit":
		return TransactionTypeDeposit, true
	case "Withdraw":
		return TransactionTypeWithdraw, true
	}
	return 0, false
}

// Delta 回傳此類型交易對餘額的帶號變動量
func (t TransactionType) Delta(amount decimal.Decimal) decimal.Decimal {
	if t == TransactionTypeWithdraw {
		return amount.Neg()
	}
	return amount
}

// TransactionRecord 單筆存提款紀錄，建立後不再修改
type TransactionRecord struct {
	// ID: 外部追蹤號，重複送出同一 ID 不會重複入帳
	ID     uuid.UUID
	Kind   TransactionType
	Amount decimal.Decimal
	// Timestamp: 由帳本在入帳時寫入
	Timestamp time.Time
}

// String 格式: "{timestamp} {kind} of amount {amount:.2f}"
func (r TransactionRecord) String() string {
	return fmt.Sprintf("%s %s of amount %s",
		r.Timestamp.Format(TimestampLayout),
		r.Kind,
		r.Amount.StringFixed(2),
	)
}
