package domain

import (
	"crypto/subtle"

	"github.com/shopspring/decimal"
)

// Account 帳戶：帳號、PIN 與餘額
type Account struct {
	Username   string
	Credential string
	Balance    decimal.Decimal
}

func NewAccount(username, credential string, balance decimal.Decimal) *Account {
	return &Account{
		Username:   username,
		Credential: credential,
		Balance:    balance,
	}
}

// Adjust 以 delta 調整餘額，結果不得為負
//
// 參數:
//
//	delta: 正數為存入，負數為提出
//
// 回傳:
//
//	decimal.Decimal: 調整後餘額
//	error: ErrInsufficientFunds (餘額不變)
func (a *Account) Adjust(delta decimal.Decimal) (decimal.Decimal, error) {
	next := a.Balance.Add(delta)
	if next.IsNegative() {
		return a.Balance, ErrInsufficientFunds
	}
	a.Balance = next
	return a.Balance, nil
}

// Matches 逐位元組比對 PIN (區分大小寫)
func (a *Account) Matches(credential string) bool {
	return subtle.ConstantTimeCompare([]byte(a.Credential), []byte(credential)) == 1
}
