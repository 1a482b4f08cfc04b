package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/usecase"
)

const budgetLineColumns = `
	id, exercise, code, label, dotation_initiale, dotation_modifiee,
	total_engage, montant_reserve, total_paye, closed, created_at, updated_at`

// BudgetLineRepository implements usecase.BudgetLineRepository.
type BudgetLineRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetLineRepository creates a new BudgetLineRepository.
func NewBudgetLineRepository(pool *pgxpool.Pool) *BudgetLineRepository {
	return &BudgetLineRepository{pool: pool}
}

// Create inserts a new budget line outside any transaction.
func (r *BudgetLineRepository) Create(ctx context.Context, line *domain.BudgetLine) error {
	return r.create(ctx, r.pool, line)
}

// CreateTx inserts a new budget line within a transaction.
func (r *BudgetLineRepository) CreateTx(ctx context.Context, tx usecase.Transaction, line *domain.BudgetLine) error {
	return r.create(ctx, tx.(*Tx).PgxTx(), line)
}

type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *BudgetLineRepository) create(ctx context.Context, q executor, line *domain.BudgetLine) error {
	query := `
		INSERT INTO budget_lines (` + budgetLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := q.Exec(ctx, query,
		line.ID,
		line.Exercise,
		line.Code,
		line.Label,
		decimalToNumeric(line.DotationInitiale),
		decimalPtrToNumeric(line.DotationModifiee),
		decimalToNumeric(line.TotalEngage),
		decimalToNumeric(line.MontantReserve),
		decimalToNumeric(line.TotalPaye),
		line.Closed,
		timeToPgTimestamptz(line.CreatedAt),
		timeToPgTimestamptz(line.UpdatedAt),
	)
	return err
}

// GetByID retrieves a budget line by ID.
func (r *BudgetLineRepository) GetByID(ctx context.Context, id string) (*domain.BudgetLine, error) {
	query := `SELECT ` + budgetLineColumns + ` FROM budget_lines WHERE id = $1`
	return scanBudgetLine(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a budget line with a FOR UPDATE row lock.
func (r *BudgetLineRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.BudgetLine, error) {
	pgxTx := tx.(*Tx).PgxTx()
	query := `SELECT ` + budgetLineColumns + ` FROM budget_lines WHERE id = $1 FOR UPDATE`
	return scanBudgetLine(pgxTx.QueryRow(ctx, query, id))
}

// GetByIDsForUpdate locks several lines in the order of ids. Callers pass
// sorted ids so concurrent transfers acquire locks in the same order.
func (r *BudgetLineRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.BudgetLine, error) {
	pgxTx := tx.(*Tx).PgxTx()
	query := `SELECT ` + budgetLineColumns + ` FROM budget_lines WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := pgxTx.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*domain.BudgetLine
	for rows.Next() {
		line, err := scanBudgetLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// UpdateReserve writes the cached montant_reserve.
func (r *BudgetLineRepository) UpdateReserve(ctx context.Context, tx usecase.Transaction, id string, montantReserve decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `UPDATE budget_lines SET montant_reserve = $2, updated_at = $3 WHERE id = $1`
	_, err := pgxTx.Exec(ctx, query, id, decimalToNumeric(montantReserve), timeToPgTimestamptz(updatedAt))
	return err
}

// UpdateEngage writes the cached total_engage and montant_reserve in one
// statement; an engagement that converts a reservation moves both.
func (r *BudgetLineRepository) UpdateEngage(ctx context.Context, tx usecase.Transaction, id string, totalEngage, montantReserve decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `UPDATE budget_lines SET total_engage = $2, montant_reserve = $3, updated_at = $4 WHERE id = $1`
	_, err := pgxTx.Exec(ctx, query, id, decimalToNumeric(totalEngage), decimalToNumeric(montantReserve), timeToPgTimestamptz(updatedAt))
	return err
}

// UpdatePaye writes the cached total_paye.
func (r *BudgetLineRepository) UpdatePaye(ctx context.Context, tx usecase.Transaction, id string, totalPaye decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `UPDATE budget_lines SET total_paye = $2, updated_at = $3 WHERE id = $1`
	_, err := pgxTx.Exec(ctx, query, id, decimalToNumeric(totalPaye), timeToPgTimestamptz(updatedAt))
	return err
}

// UpdateDotation writes dotation_modifiee. The initial dotation is never
// touched after creation.
func (r *BudgetLineRepository) UpdateDotation(ctx context.Context, tx usecase.Transaction, id string, dotationModifiee decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `UPDATE budget_lines SET dotation_modifiee = $2, updated_at = $3 WHERE id = $1`
	_, err := pgxTx.Exec(ctx, query, id, decimalToNumeric(dotationModifiee), timeToPgTimestamptz(updatedAt))
	return err
}

// ListByExercise lists the lines of one exercise ordered by code.
func (r *BudgetLineRepository) ListByExercise(ctx context.Context, exercise, limit, offset int) ([]*domain.BudgetLine, error) {
	query := `
		SELECT ` + budgetLineColumns + `
		FROM budget_lines
		WHERE exercise = $1
		ORDER BY code
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, exercise, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]*domain.BudgetLine, 0)
	for rows.Next() {
		line, err := scanBudgetLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanBudgetLine(row pgx.Row) (*domain.BudgetLine, error) {
	var (
		line             domain.BudgetLine
		dotationInitiale pgtype.Numeric
		dotationModifiee pgtype.Numeric
		totalEngage      pgtype.Numeric
		montantReserve   pgtype.Numeric
		totalPaye        pgtype.Numeric
		createdAt        pgtype.Timestamptz
		updatedAt        pgtype.Timestamptz
	)

	err := row.Scan(
		&line.ID,
		&line.Exercise,
		&line.Code,
		&line.Label,
		&dotationInitiale,
		&dotationModifiee,
		&totalEngage,
		&montantReserve,
		&totalPaye,
		&line.Closed,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLineNotFound
		}
		return nil, err
	}

	line.DotationInitiale = numericToDecimal(dotationInitiale)
	line.DotationModifiee = numericPtrToDecimalPtr(dotationModifiee)
	line.TotalEngage = numericToDecimal(totalEngage)
	line.MontantReserve = numericToDecimal(montantReserve)
	line.TotalPaye = numericToDecimal(totalPaye)
	line.CreatedAt = createdAt.Time
	line.UpdatedAt = updatedAt.Time

	return &line, nil
}
