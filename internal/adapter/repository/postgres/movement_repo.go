package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/usecase"
)

const movementColumns = `
	id, budget_line_id, type, montant, sens,
	disponible_avant, disponible_apres, reserve_avant, reserve_apres,
	entity_kind, entity_id, exercise, motif, created_by, created_at, statut`

// MovementRepository implements usecase.MovementRepository. The table is
// append-only; there is no update path.
type MovementRepository struct {
	pool *pgxpool.Pool
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(pool *pgxpool.Pool) *MovementRepository {
	return &MovementRepository{pool: pool}
}

// Create appends a movement within a transaction.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `
		INSERT INTO budget_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := pgxTx.Exec(ctx, query,
		movement.ID,
		movement.BudgetLineID,
		string(movement.Type),
		decimalToNumeric(movement.Montant),
		string(movement.Sens),
		decimalToNumeric(movement.DisponibleAvant),
		decimalToNumeric(movement.DisponibleApres),
		decimalToNumeric(movement.ReserveAvant),
		decimalToNumeric(movement.ReserveApres),
		string(movement.Entity.Kind),
		movement.Entity.ID,
		movement.Exercise,
		movement.Motif,
		movement.CreatedBy,
		timeToPgTimestamptz(movement.CreatedAt),
		string(movement.Statut),
	)
	return err
}

// GetByID retrieves a movement by ID.
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM budget_movements WHERE id = $1`
	return scanMovement(r.pool.QueryRow(ctx, query, id))
}

// ListByLine lists a line's movements, newest first. exercise 0 means all.
func (r *MovementRepository) ListByLine(ctx context.Context, lineID string, exercise, limit, offset int) ([]*domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM budget_movements
		WHERE budget_line_id = $1 AND ($2 = 0 OR exercise = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	return r.list(ctx, query, lineID, exercise, limit, offset)
}

// ListValidByLine returns every valide movement of a line in insertion
// order, for ledger replay.
func (r *MovementRepository) ListValidByLine(ctx context.Context, lineID string) ([]*domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM budget_movements
		WHERE budget_line_id = $1 AND statut = 'valide'
		ORDER BY created_at, id
	`
	return r.list(ctx, query, lineID)
}

// ListByEntity lists the movements originated by one document.
func (r *MovementRepository) ListByEntity(ctx context.Context, entity domain.EntityRef, limit, offset int) ([]*domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM budget_movements
		WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	return r.list(ctx, query, string(entity.Kind), entity.ID, limit, offset)
}

func (r *MovementRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Movement, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]*domain.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func scanMovement(row pgx.Row) (*domain.Movement, error) {
	var (
		m               domain.Movement
		mtype           string
		sens            string
		statut          string
		entityKind      string
		montant         pgtype.Numeric
		disponibleAvant pgtype.Numeric
		disponibleApres pgtype.Numeric
		reserveAvant    pgtype.Numeric
		reserveApres    pgtype.Numeric
		createdAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&m.ID,
		&m.BudgetLineID,
		&mtype,
		&montant,
		&sens,
		&disponibleAvant,
		&disponibleApres,
		&reserveAvant,
		&reserveApres,
		&entityKind,
		&m.Entity.ID,
		&m.Exercise,
		&m.Motif,
		&m.CreatedBy,
		&createdAt,
		&statut,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}
		return nil, err
	}

	m.Type = domain.MovementType(mtype)
	m.Sens = domain.Sens(sens)
	m.Statut = domain.MovementStatus(statut)
	m.Entity.Kind = domain.EntityKind(entityKind)
	m.Montant = numericToDecimal(montant)
	m.DisponibleAvant = numericToDecimal(disponibleAvant)
	m.DisponibleApres = numericToDecimal(disponibleApres)
	m.ReserveAvant = numericToDecimal(reserveAvant)
	m.ReserveApres = numericToDecimal(reserveApres)
	m.CreatedAt = createdAt.Time

	return &m, nil
}
