package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/usecase"
)

const transferColumns = `
	id, code, exercise, type, status, from_line_id, to_line_id, amount,
	motif, justification,
	requested_by, requested_at, submitted_by, submitted_at,
	approved_by, approved_at, rejected_by, rejected_at, rejection,
	executed_by, executed_at, cancelled_by, cancelled_at, cancel_reason,
	from_snapshot, to_snapshot`

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

// Create inserts a transfer within a transaction.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.CreditTransfer) error {
	pgxTx := tx.(*Tx).PgxTx()

	fromSnap, toSnap, err := marshalSnapshots(transfer)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO credit_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19,
		        $20, $21, $22, $23, $24, $25, $26)
	`
	_, err = pgxTx.Exec(ctx, query,
		transfer.ID,
		transfer.Code,
		transfer.Exercise,
		string(transfer.Type),
		string(transfer.Status),
		transfer.FromBudgetLineID,
		transfer.ToBudgetLineID,
		decimalToNumeric(transfer.Amount),
		transfer.Motif,
		transfer.Justification,
		transfer.RequestedBy,
		timeToPgTimestamptz(transfer.RequestedAt),
		transfer.SubmittedBy,
		timePtrToPgTimestamptz(transfer.SubmittedAt),
		transfer.ApprovedBy,
		timePtrToPgTimestamptz(transfer.ApprovedAt),
		transfer.RejectedBy,
		timePtrToPgTimestamptz(transfer.RejectedAt),
		transfer.Rejection,
		transfer.ExecutedBy,
		timePtrToPgTimestamptz(transfer.ExecutedAt),
		transfer.CancelledBy,
		timePtrToPgTimestamptz(transfer.CancelledAt),
		transfer.CancelReason,
		fromSnap,
		toSnap,
	)
	return err
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.CreditTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM credit_transfers WHERE id = $1`
	return scanTransfer(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a transfer with a FOR UPDATE row lock. Every
// workflow transition runs under it so two operators cannot race the same
// transfer.
func (r *TransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.CreditTransfer, error) {
	pgxTx := tx.(*Tx).PgxTx()
	query := `SELECT ` + transferColumns + ` FROM credit_transfers WHERE id = $1 FOR UPDATE`
	return scanTransfer(pgxTx.QueryRow(ctx, query, id))
}

// Update writes the whole transfer row within a transaction.
func (r *TransferRepository) Update(ctx context.Context, tx usecase.Transaction, transfer *domain.CreditTransfer) error {
	pgxTx := tx.(*Tx).PgxTx()

	fromSnap, toSnap, err := marshalSnapshots(transfer)
	if err != nil {
		return err
	}

	query := `
		UPDATE credit_transfers SET
			status = $2, amount = $3, motif = $4, justification = $5,
			submitted_by = $6, submitted_at = $7,
			approved_by = $8, approved_at = $9,
			rejected_by = $10, rejected_at = $11, rejection = $12,
			executed_by = $13, executed_at = $14,
			cancelled_by = $15, cancelled_at = $16, cancel_reason = $17,
			from_snapshot = $18, to_snapshot = $19
		WHERE id = $1
	`
	tag, err := pgxTx.Exec(ctx, query,
		transfer.ID,
		string(transfer.Status),
		decimalToNumeric(transfer.Amount),
		transfer.Motif,
		transfer.Justification,
		transfer.SubmittedBy,
		timePtrToPgTimestamptz(transfer.SubmittedAt),
		transfer.ApprovedBy,
		timePtrToPgTimestamptz(transfer.ApprovedAt),
		transfer.RejectedBy,
		timePtrToPgTimestamptz(transfer.RejectedAt),
		transfer.Rejection,
		transfer.ExecutedBy,
		timePtrToPgTimestamptz(transfer.ExecutedAt),
		transfer.CancelledBy,
		timePtrToPgTimestamptz(transfer.CancelledAt),
		transfer.CancelReason,
		fromSnap,
		toSnap,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransferNotFound
	}
	return nil
}

// List retrieves transfers matching the filter, newest first.
func (r *TransferRepository) List(ctx context.Context, filter usecase.TransferFilter) ([]*domain.CreditTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM credit_transfers WHERE 1=1`
	args := []any{}
	argPos := 1

	if filter.Exercise != 0 {
		query += fmt.Sprintf(" AND exercise = $%d", argPos)
		args = append(args, filter.Exercise)
		argPos++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, string(filter.Status))
		argPos++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argPos)
		args = append(args, string(filter.Type))
		argPos++
	}
	if filter.LineID != "" {
		query += fmt.Sprintf(" AND (from_line_id = $%d OR to_line_id = $%d)", argPos, argPos)
		args = append(args, filter.LineID)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY requested_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transfers := make([]*domain.CreditTransfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

// SumExecutedByLine returns the executed virement amounts received and
// emitted by a line.
func (r *TransferRepository) SumExecutedByLine(ctx context.Context, lineID string) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE to_line_id = $1), 0),
			COALESCE(SUM(amount) FILTER (WHERE from_line_id = $1), 0)
		FROM credit_transfers
		WHERE status = 'execute' AND type = 'virement'
		  AND (to_line_id = $1 OR from_line_id = $1)
	`
	var in, out pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, lineID).Scan(&in, &out); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return numericToDecimal(in), numericToDecimal(out), nil
}

// SumExecutedByExercise returns the executed virement and ajustement totals
// of one exercise.
func (r *TransferRepository) SumExecutedByExercise(ctx context.Context, exercise int) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'virement'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'ajustement'), 0)
		FROM credit_transfers
		WHERE status = 'execute' AND exercise = $1
	`
	var virements, ajustements pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, exercise).Scan(&virements, &ajustements); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return numericToDecimal(virements), numericToDecimal(ajustements), nil
}

func marshalSnapshots(transfer *domain.CreditTransfer) ([]byte, []byte, error) {
	var fromSnap, toSnap []byte
	var err error
	if transfer.FromSnapshot != nil {
		if fromSnap, err = json.Marshal(transfer.FromSnapshot); err != nil {
			return nil, nil, err
		}
	}
	if transfer.ToSnapshot != nil {
		if toSnap, err = json.Marshal(transfer.ToSnapshot); err != nil {
			return nil, nil, err
		}
	}
	return fromSnap, toSnap, nil
}

func scanTransfer(row pgx.Row) (*domain.CreditTransfer, error) {
	var (
		t           domain.CreditTransfer
		ttype       string
		status      string
		amount      pgtype.Numeric
		requestedAt pgtype.Timestamptz
		submittedAt pgtype.Timestamptz
		approvedAt  pgtype.Timestamptz
		rejectedAt  pgtype.Timestamptz
		executedAt  pgtype.Timestamptz
		cancelledAt pgtype.Timestamptz
		fromSnap    []byte
		toSnap      []byte
	)

	err := row.Scan(
		&t.ID,
		&t.Code,
		&t.Exercise,
		&ttype,
		&status,
		&t.FromBudgetLineID,
		&t.ToBudgetLineID,
		&amount,
		&t.Motif,
		&t.Justification,
		&t.RequestedBy,
		&requestedAt,
		&t.SubmittedBy,
		&submittedAt,
		&t.ApprovedBy,
		&approvedAt,
		&t.RejectedBy,
		&rejectedAt,
		&t.Rejection,
		&t.ExecutedBy,
		&executedAt,
		&t.CancelledBy,
		&cancelledAt,
		&t.CancelReason,
		&fromSnap,
		&toSnap,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransferNotFound
		}
		return nil, err
	}

	t.Type = domain.TransferType(ttype)
	t.Status = domain.TransferStatus(status)
	t.Amount = numericToDecimal(amount)
	t.RequestedAt = requestedAt.Time
	t.SubmittedAt = pgTimestamptzToTimePtr(submittedAt)
	t.ApprovedAt = pgTimestamptzToTimePtr(approvedAt)
	t.RejectedAt = pgTimestamptzToTimePtr(rejectedAt)
	t.ExecutedAt = pgTimestamptzToTimePtr(executedAt)
	t.CancelledAt = pgTimestamptzToTimePtr(cancelledAt)

	if len(fromSnap) > 0 {
		var snap domain.LineSnapshot
		if err := json.Unmarshal(fromSnap, &snap); err != nil {
			return nil, err
		}
		t.FromSnapshot = &snap
	}
	if len(toSnap) > 0 {
		var snap domain.LineSnapshot
		if err := json.Unmarshal(toSnap, &snap); err != nil {
			return nil, err
		}
		t.ToSnapshot = &snap
	}

	return &t, nil
}
