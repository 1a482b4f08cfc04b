package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidLineCode = errors.New("invalid budget line code")
	ErrInvalidExercise = errors.New("invalid exercise")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
)

// Validation constants
const (
	MaxLineCodeLength = 64
	MaxLabelLength    = 255
	MaxAmount         = "1000000000000" // 1 trillion
	MinExercise       = 2000
	MaxExercise       = 2100
)

// ValidateAmount checks a movement or transfer amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidateExercise checks a fiscal exercise identifier.
func ValidateExercise(exercise int) error {
	if exercise < MinExercise || exercise > MaxExercise {
		return fmt.Errorf("%w: %d", ErrInvalidExercise, exercise)
	}
	return nil
}

// ValidateLineCode checks a budget line code.
func ValidateLineCode(code string) error {
	code = strings.TrimSpace(code)

	if code == "" {
		return fmt.Errorf("%w: code cannot be empty", ErrInvalidLineCode)
	}

	if len(code) > MaxLineCodeLength {
		return fmt.Errorf("%w: code exceeds %d characters", ErrInvalidLineCode, MaxLineCodeLength)
	}

	return nil
}

// ValidatePagination clamps pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
