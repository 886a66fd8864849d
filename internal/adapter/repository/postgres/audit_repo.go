package postgres

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/usecase"
)

// AuditRepository implements audit log persistence
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// CreateTx inserts an audit log entry within the caller's transaction.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	pgxTx := tx.(*Tx).PgxTx()

	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	var afterStateJSON []byte
	var err error

	if log.AfterState != nil {
		afterStateJSON, err = json.Marshal(log.AfterState)
		if err != nil {
			return err
		}
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO audit_logs (
			id, caller_id, action, resource_type, resource_id,
			request_id, after_state, status, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		log.ID,
		log.CallerID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.RequestID,
		afterStateJSON,
		log.Status,
		log.ErrorMessage,
		log.CreatedAt,
	)

	return err
}

// List retrieves audit logs with filtering
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, caller_id, action, resource_type, resource_id,
		       request_id, after_state, status, error_message, created_at
		FROM audit_logs
		WHERE 1=1
	`

	args := []any{}
	argPos := 1

	if filter.CallerID != "" {
		query += ` AND caller_id = $` + itoa(argPos)
		args = append(args, filter.CallerID)
		argPos++
	}

	if filter.Action != "" {
		query += ` AND action = $` + itoa(argPos)
		args = append(args, filter.Action)
		argPos++
	}

	if filter.ResourceType != "" {
		query += ` AND resource_type = $` + itoa(argPos)
		args = append(args, filter.ResourceType)
		argPos++
	}

	if filter.ResourceID != "" {
		query += ` AND resource_id = $` + itoa(argPos)
		args = append(args, filter.ResourceID)
		argPos++
	}

	if filter.StartDate != nil {
		query += ` AND created_at >= $` + itoa(argPos)
		args = append(args, *filter.StartDate)
		argPos++
	}

	if filter.EndDate != nil {
		query += ` AND created_at <= $` + itoa(argPos)
		args = append(args, *filter.EndDate)
		argPos++
	}

	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = usecase.DefaultPageSize
	}
	query += ` LIMIT $` + itoa(argPos)
	args = append(args, limit)
	argPos++

	if filter.Offset > 0 {
		query += ` OFFSET $` + itoa(argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			l          domain.AuditLog
			afterState []byte
		)

		err := rows.Scan(&l.ID, &l.CallerID, &l.Action, &l.ResourceType, &l.ResourceID, &l.RequestID, &afterState, &l.Status, &l.ErrorMessage, &l.CreatedAt)
		if err != nil {
			return nil, err
		}

		if afterState != nil {
			_ = json.Unmarshal(afterState, &l.AfterState)
		}

		logs = append(logs, &l)
	}

	return logs, rows.Err()
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
