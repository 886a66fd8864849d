package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/usecase"
)

// CreditRepository implements usecase.CreditRepository.
type CreditRepository struct {
	pool *pgxpool.Pool
}

// NewCreditRepository creates a new CreditRepository.
func NewCreditRepository(pool *pgxpool.Pool) *CreditRepository {
	return &CreditRepository{pool: pool}
}

const accountQuery = `
	SELECT unit_id, balance, version, created_at, updated_at
	FROM credit_accounts
	WHERE unit_id = $1
`

// GetAccount retrieves a unit's credit account.
func (r *CreditRepository) GetAccount(ctx context.Context, unitID string) (*domain.CreditAccount, error) {
	return scanAccount(r.pool.QueryRow(ctx, accountQuery, unitID))
}

// GetAccountForUpdate retrieves a unit's credit account with a FOR UPDATE
// lock. This is the first lock any payment transaction takes.
func (r *CreditRepository) GetAccountForUpdate(ctx context.Context, tx usecase.Transaction, unitID string) (*domain.CreditAccount, error) {
	pgxTx := tx.(*Tx).PgxTx()

	return scanAccount(pgxTx.QueryRow(ctx, accountQuery+" FOR UPDATE", unitID))
}

// CreateAccount inserts a zero-history credit account.
func (r *CreditRepository) CreateAccount(ctx context.Context, tx usecase.Transaction, account *domain.CreditAccount) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO credit_accounts (unit_id, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, account.UnitID, int64(account.Balance), account.Version, account.CreatedAt, account.UpdatedAt)

	return err
}

// UpdateBalance writes the account's new balance.
func (r *CreditRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, unitID string, balance domain.Money, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE credit_accounts
		SET balance = $2, version = version + 1, updated_at = $3
		WHERE unit_id = $1
	`, unitID, int64(balance), updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCreditAccountNotFound
	}

	return nil
}

// AppendEntry appends one credit ledger entry. Entries are never updated or
// deleted.
func (r *CreditRepository) AppendEntry(ctx context.Context, tx usecase.Transaction, entry *domain.CreditHistoryEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO credit_history (id, unit_id, transaction_id, entry_type, amount, balance_before, balance_after, notes, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		entry.ID,
		entry.UnitID,
		entry.TransactionID,
		string(entry.Type),
		int64(entry.Amount),
		int64(entry.BalanceBefore),
		int64(entry.BalanceAfter),
		entry.Notes,
		entry.Source,
		entry.CreatedAt,
	)

	return err
}

// ListHistory returns the unit's credit entries oldest first, so the chain
// can be verified in order.
func (r *CreditRepository) ListHistory(ctx context.Context, unitID string, limit, offset int) ([]*domain.CreditHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, unit_id, transaction_id, entry_type, amount, balance_before, balance_after, notes, source, created_at
		FROM credit_history
		WHERE unit_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, unitID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.CreditHistoryEntry
	for rows.Next() {
		var (
			e                     domain.CreditHistoryEntry
			entryType             string
			amount, before, after int64
		)

		err := rows.Scan(&e.ID, &e.UnitID, &e.TransactionID, &entryType, &amount, &before, &after, &e.Notes, &e.Source, &e.CreatedAt)
		if err != nil {
			return nil, err
		}

		e.Type = domain.CreditEntryType(entryType)
		e.Amount = domain.Money(amount)
		e.BalanceBefore = domain.Money(before)
		e.BalanceAfter = domain.Money(after)

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// CountHistory counts the unit's credit entries inside the caller's
// transaction.
func (r *CreditRepository) CountHistory(ctx context.Context, tx usecase.Transaction, unitID string) (int64, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var count int64
	err := pgxTx.QueryRow(ctx, `SELECT COUNT(*) FROM credit_history WHERE unit_id = $1`, unitID).Scan(&count)

	return count, err
}

// ListUnits returns every unit that has a credit account.
func (r *CreditRepository) ListUnits(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT unit_id FROM credit_accounts ORDER BY unit_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []string
	for rows.Next() {
		var unitID string
		if err := rows.Scan(&unitID); err != nil {
			return nil, err
		}
		units = append(units, unitID)
	}

	return units, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.CreditAccount, error) {
	var (
		a       domain.CreditAccount
		balance int64
	)

	err := row.Scan(&a.UnitID, &balance, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCreditAccountNotFound
		}

		return nil, err
	}

	a.Balance = domain.Money(balance)

	return &a, nil
}
