package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a transaction and its allocation lines within the caller's
// transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO transactions (id, unit_id, amount, payment_date, payment_method, account_ref, reference, notes, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		txn.ID,
		txn.UnitID,
		int64(txn.Amount),
		txn.PaymentDate,
		txn.PaymentMethod,
		txn.AccountRef,
		txn.Reference,
		txn.Notes,
		txn.RecordedBy,
		txn.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, a := range txn.Allocations {
		_, err := pgxTx.Exec(ctx, `
			INSERT INTO transaction_allocations (id, transaction_id, bill_id, bill_type, bill_period, base_charge_payment, penalty_payment, total_payment, resulting_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			a.ID,
			a.TransactionID,
			a.BillID,
			string(a.BillType),
			a.BillPeriod,
			int64(a.BaseChargePayment),
			int64(a.PenaltyPayment),
			int64(a.TotalPayment),
			string(a.ResultingStatus),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

const transactionColumns = `id, unit_id, amount, payment_date, payment_method, account_ref, reference, notes, recorded_by, created_at`

// GetByID retrieves a transaction with its allocation lines.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		return nil, err
	}

	allocations, err := r.listAllocations(ctx, txn.ID)
	if err != nil {
		return nil, err
	}

	txn.Allocations = allocations

	return txn, nil
}

// ListByUnit lists a unit's transactions newest first. Allocation lines are
// loaded per transaction.
func (r *TransactionRepository) ListByUnit(ctx context.Context, unitID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE unit_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, unitID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, txn := range txns {
		allocations, err := r.listAllocations(ctx, txn.ID)
		if err != nil {
			return nil, err
		}
		txn.Allocations = allocations
	}

	return txns, nil
}

func (r *TransactionRepository) listAllocations(ctx context.Context, txnID string) ([]domain.TransactionAllocation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, transaction_id, bill_id, bill_type, bill_period, base_charge_payment, penalty_payment, total_payment, resulting_status
		FROM transaction_allocations
		WHERE transaction_id = $1
		ORDER BY id ASC
	`, txnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []domain.TransactionAllocation
	for rows.Next() {
		var (
			a                    domain.TransactionAllocation
			billType, status     string
			base, penalty, total int64
		)

		err := rows.Scan(&a.ID, &a.TransactionID, &a.BillID, &billType, &a.BillPeriod, &base, &penalty, &total, &status)
		if err != nil {
			return nil, err
		}

		a.BillType = domain.BillType(billType)
		a.ResultingStatus = domain.BillStatus(status)
		a.BaseChargePayment = domain.Money(base)
		a.PenaltyPayment = domain.Money(penalty)
		a.TotalPayment = domain.Money(total)

		allocations = append(allocations, a)
	}

	return allocations, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t      domain.Transaction
		amount int64
	)

	err := row.Scan(&t.ID, &t.UnitID, &amount, &t.PaymentDate, &t.PaymentMethod, &t.AccountRef, &t.Reference, &t.Notes, &t.RecordedBy, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	t.Amount = domain.Money(amount)

	return &t, nil
}
