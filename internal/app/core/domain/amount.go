package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxAmountScale 金額最多的小數位數
	MaxAmountScale = 8
	// MaxAmountIntegerDigits 金額整數部分最多的位數
	MaxAmountIntegerDigits = 15
	// maxAmountDigits 係數與指數的硬上限，先擋掉之後才做任何換算
	maxAmountDigits = 64
)

// ParseAmount 將使用者輸入轉為金額 (去除前後空白，接受指數表示法)
//
// 超過 MaxAmountIntegerDigits 位整數或 MaxAmountScale 位小數的金額視為無效，
// 避免極端指數 (例如 1e10000000) 在入帳時展開成巨大數字。
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}
	exp := int(amount.Exponent())
	digits := amount.NumDigits()
	if digits > maxAmountDigits || exp < -maxAmountDigits || exp > MaxAmountIntegerDigits {
		return decimal.Zero, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, raw)
	}
	if !amount.IsZero() && digits+exp > MaxAmountIntegerDigits {
		return decimal.Zero, fmt.Errorf("%w: %q exceeds %d integer digits", ErrInvalidAmount, raw, MaxAmountIntegerDigits)
	}
	if !amount.Equal(amount.Truncate(MaxAmountScale)) {
		return decimal.Zero, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, raw, MaxAmountScale)
	}
	return amount, nil
}

// ParseNonNegativeAmount 用於開戶初始餘額，允許 0
func ParseNonNegativeAmount(raw string) (decimal.Decimal, error) {
	amount, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, raw)
	}
	return amount, nil
}

// ParsePositiveAmount 用於存提款，必須大於 0
func ParsePositiveAmount(raw string) (decimal.Decimal, error) {
	amount, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q must be greater than zero", ErrInvalidAmount, raw)
	}
	return amount, nil
}
