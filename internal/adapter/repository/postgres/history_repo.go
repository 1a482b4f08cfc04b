package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/usecase"
)

const historyColumns = `
	id, budget_line_id, event_type, delta,
	dotation_avant, dotation_apres, disponible_avant, disponible_apres,
	ref_code, ref_id, exercise, created_by, created_at`

// HistoryRepository implements usecase.HistoryRepository. Append-only.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Create appends a history row within a transaction.
func (r *HistoryRepository) Create(ctx context.Context, tx usecase.Transaction, row *domain.BudgetHistory) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `
		INSERT INTO budget_history (` + historyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := pgxTx.Exec(ctx, query,
		row.ID,
		row.BudgetLineID,
		string(row.EventType),
		decimalToNumeric(row.Delta),
		decimalToNumeric(row.DotationAvant),
		decimalToNumeric(row.DotationApres),
		decimalToNumeric(row.DisponibleAvant),
		decimalToNumeric(row.DisponibleApres),
		row.RefCode,
		row.RefID,
		row.Exercise,
		row.CreatedBy,
		timeToPgTimestamptz(row.CreatedAt),
	)
	return err
}

// ListByLine lists a line's history, newest first.
func (r *HistoryRepository) ListByLine(ctx context.Context, lineID string, limit, offset int) ([]*domain.BudgetHistory, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM budget_history
		WHERE budget_line_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, lineID, limit, offset)
}

// ListByRef lists every history row referencing one source document.
func (r *HistoryRepository) ListByRef(ctx context.Context, refID string) ([]*domain.BudgetHistory, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM budget_history
		WHERE ref_id = $1
		ORDER BY created_at, id
	`
	return r.list(ctx, query, refID)
}

func (r *HistoryRepository) list(ctx context.Context, query string, args ...any) ([]*domain.BudgetHistory, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.BudgetHistory, 0)
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHistory(row pgx.Row) (*domain.BudgetHistory, error) {
	var (
		h               domain.BudgetHistory
		eventType       string
		delta           pgtype.Numeric
		dotationAvant   pgtype.Numeric
		dotationApres   pgtype.Numeric
		disponibleAvant pgtype.Numeric
		disponibleApres pgtype.Numeric
		createdAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&h.ID,
		&h.BudgetLineID,
		&eventType,
		&delta,
		&dotationAvant,
		&dotationApres,
		&disponibleAvant,
		&disponibleApres,
		&h.RefCode,
		&h.RefID,
		&h.Exercise,
		&h.CreatedBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	h.EventType = domain.HistoryEvent(eventType)
	h.Delta = numericToDecimal(delta)
	h.DotationAvant = numericToDecimal(dotationAvant)
	h.DotationApres = numericToDecimal(dotationApres)
	h.DisponibleAvant = numericToDecimal(disponibleAvant)
	h.DisponibleApres = numericToDecimal(disponibleApres)
	h.CreatedAt = createdAt.Time

	return &h, nil
}
