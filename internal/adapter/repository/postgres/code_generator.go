package postgres

import (
	"context"
	"fmt"

	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/usecase"
)

// CodeGenerator allocates transfer codes from the per-(exercise, type)
// counter table. The upsert runs in the caller's transaction; the row lock
// it takes serializes concurrent creates for the same exercise and type.
type CodeGenerator struct{}

// NewCodeGenerator creates a new CodeGenerator.
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{}
}

// Next returns the next code, formatted VIR/{exercise}/{seq} or
// AJT/{exercise}/{seq} with a four-digit sequence.
func (g *CodeGenerator) Next(ctx context.Context, tx usecase.Transaction, exercise int, transferType domain.TransferType) (string, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transfer_code_counters (exercise, transfer_type, last_seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (exercise, transfer_type)
		DO UPDATE SET last_seq = transfer_code_counters.last_seq + 1
		RETURNING last_seq
	`
	var seq int
	if err := pgxTx.QueryRow(ctx, query, exercise, string(transferType)).Scan(&seq); err != nil {
		return "", err
	}

	prefix := "VIR"
	if transferType == domain.TransferAjustement {
		prefix = "AJT"
	}
	return fmt.Sprintf("%s/%d/%04d", prefix, exercise, seq), nil
}
