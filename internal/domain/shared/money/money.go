package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrInvalidAmount    = errors.New("money: invalid amount")
)

// Money keeps amounts in integer minor units (cents) to avoid floating point issues.
type Money struct {
	Amount   int64  `json:"amount" bson:"amount"`
	Currency string `json:"currency" bson:"currency"`
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMajor converts a decimal major-unit string ("125.00") into minor units.
// Parsing stays on the string; the value never passes through a float.
// At most two fraction digits are accepted.
func ParseMajor(value, currency string) (Money, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Money{}, ErrInvalidAmount
	}
	negative := false
	if strings.HasPrefix(value, "-") {
		negative = true
		value = value[1:]
	}
	whole, frac := value, ""
	if i := strings.IndexByte(value, '.'); i >= 0 {
		whole, frac = value[:i], value[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return Money{}, fmt.Errorf("%w: more than two fraction digits in %q", ErrInvalidAmount, value)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	amount := units*100 + cents
	if negative {
		amount = -amount
	}
	return New(amount, currency)
}

// ParseMinorUnits converts a decimal major-unit string into a raw minor-unit
// amount without binding it to a currency. Calendar feeds carry per-night
// prices whose currency is routed separately.
func ParseMinorUnits(value string) (int64, error) {
	m, err := ParseMajor(value, "XXX")
	if err != nil {
		return 0, err
	}
	return m.Amount, nil
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// Major renders the amount as a decimal major-unit string ("125.00").
func (m Money) Major() string {
	amount := m.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

// DivRoundHalfUp divides numerator by denominator rounding half away from zero.
// All quote math runs through this helper so rounding stays uniform.
func DivRoundHalfUp(numerator, denominator int64) int64 {
	if denominator == 0 {
		return 0
	}
	if (numerator < 0) != (denominator < 0) {
		return (numerator - denominator/2) / denominator
	}
	return (numerator + denominator/2) / denominator
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
