package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/usecase"
)

// BillRepository implements usecase.BillRepository.
type BillRepository struct {
	pool *pgxpool.Pool
}

// NewBillRepository creates a new BillRepository.
func NewBillRepository(pool *pgxpool.Pool) *BillRepository {
	return &BillRepository{pool: pool}
}

const billColumns = `id, unit_id, bill_type, period, priority, base_charge_due, penalty_due, status, version, created_at, updated_at`

const listOutstandingQuery = `
	SELECT ` + billColumns + `
	FROM bills
	WHERE unit_id = $1 AND status <> 'paid'
	ORDER BY priority ASC, period ASC
`

// ListOutstanding returns the unit's unpaid and partially paid bills in
// payment order.
func (r *BillRepository) ListOutstanding(ctx context.Context, unitID string) ([]*domain.Bill, error) {
	rows, err := r.pool.Query(ctx, listOutstandingQuery, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBills(rows)
}

// ListOutstandingForUpdate is ListOutstanding with FOR UPDATE row locks,
// inside the caller's transaction. The credit account row must already be
// locked; bills are always locked second.
func (r *BillRepository) ListOutstandingForUpdate(ctx context.Context, tx usecase.Transaction, unitID string) ([]*domain.Bill, error) {
	pgxTx := tx.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx, listOutstandingQuery+" FOR UPDATE", unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBills(rows)
}

// UpdateAmounts writes a bill's post-payment dues and status.
func (r *BillRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, id string, baseChargeDue, penaltyDue domain.Money, status domain.BillStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE bills
		SET base_charge_due = $2, penalty_due = $3, status = $4, version = version + 1, updated_at = $5
		WHERE id = $1
	`, id, int64(baseChargeDue), int64(penaltyDue), string(status), updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrBillNotFound
	}

	return nil
}

func scanBills(rows pgx.Rows) ([]*domain.Bill, error) {
	var bills []*domain.Bill
	for rows.Next() {
		var (
			b             domain.Bill
			billType      string
			status        string
			base, penalty int64
		)

		err := rows.Scan(&b.ID, &b.UnitID, &billType, &b.Period, &b.Priority, &base, &penalty, &status, &b.Version, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, err
		}

		b.Type = domain.BillType(billType)
		b.Status = domain.BillStatus(status)
		b.BaseChargeDue = domain.Money(base)
		b.PenaltyDue = domain.Money(penalty)

		bills = append(bills, &b)
	}

	return bills, rows.Err()
}
