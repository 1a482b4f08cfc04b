package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name        string
		amount      decimal.Decimal
		expectError error
	}{
		{"positive", decimal.NewFromInt(100), nil},
		{"zero", decimal.Zero, ErrInvalidAmount},
		{"negative", decimal.NewFromInt(-1), ErrInvalidAmount},
		{"over maximum", decimal.RequireFromString("1000000000001"), ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestValidateExercise(t *testing.T) {
	if err := ValidateExercise(2026); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateExercise(1999); !errors.Is(err, ErrInvalidExercise) {
		t.Errorf("expected ErrInvalidExercise, got %v", err)
	}
	if err := ValidateExercise(0); !errors.Is(err, ErrInvalidExercise) {
		t.Errorf("expected ErrInvalidExercise, got %v", err)
	}
}

func TestValidateLineCode(t *testing.T) {
	if err := ValidateLineCode("6241-AC01"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateLineCode("  "); !errors.Is(err, ErrInvalidLineCode) {
		t.Errorf("expected ErrInvalidLineCode, got %v", err)
	}
}

func TestValidateReason(t *testing.T) {
	if err := ValidateReason("motif de rejet détaillé"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateReason("court"); !errors.Is(err, ErrReasonTooShort) {
		t.Errorf("expected ErrReasonTooShort, got %v", err)
	}
	if err := ValidateReason("         x"); !errors.Is(err, ErrReasonTooShort) {
		t.Errorf("expected ErrReasonTooShort, got %v", err)
	}
}

func TestEntityRef_Validate(t *testing.T) {
	if err := (EntityRef{}).Validate(); err != nil {
		t.Errorf("zero ref should be valid: %v", err)
	}
	if err := (EntityRef{Kind: EntityEngagement, ID: "e-1"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (EntityRef{Kind: EntityEngagement}).Validate(); !errors.Is(err, ErrUnknownEntityKind) {
		t.Errorf("expected ErrUnknownEntityKind for missing id, got %v", err)
	}
	if err := (EntityRef{Kind: "bordereau", ID: "b-1"}).Validate(); !errors.Is(err, ErrUnknownEntityKind) {
		t.Errorf("expected ErrUnknownEntityKind, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	limit, offset := ValidatePagination(0, -5)
	if limit != 50 || offset != 0 {
		t.Errorf("expected defaults 50/0, got %d/%d", limit, offset)
	}

	limit, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Errorf("expected clamp to 1000, got %d", limit)
	}
}
