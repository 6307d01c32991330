package domain

import (
	"fmt"
	"math"
)

const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyKES = "KES"
)

// ErrAmountOverflow rejects arithmetic whose result does not fit in int64 cents.
var ErrAmountOverflow = New(KindValidation, "AMOUNT_OVERFLOW", "amount is too large")

// Money is an amount in minor units (cents) of a currency.
type Money struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// NewMoney creates a Money value, defaulting the currency to USD.
func NewMoney(amountCents int64, currency string) Money {
	if currency == "" {
		currency = CurrencyUSD
	}
	return Money{AmountCents: amountCents, Currency: currency}
}

// Times multiplies the amount by n. A product that does not fit in int64
// cents is a validation error.
func (m Money) Times(n int64) (Money, error) {
	a := m.AmountCents
	if a != 0 && n != 0 {
		p := a * n
		if p/n != a || (a == -1 && n == math.MinInt64) || (n == -1 && a == math.MinInt64) {
			return Money{}, ErrAmountOverflow.WithMessage("amount %s times %d overflows", m, n)
		}
	}
	return Money{AmountCents: a * n, Currency: m.Currency}, nil
}

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.AmountCents == other.AmountCents && m.Currency == other.Currency
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.AmountCents > 0
}

func (m Money) String() string {
	sign := ""
	amount := m.AmountCents
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, m.Currency)
}
