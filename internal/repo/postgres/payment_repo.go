package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
)

var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrDuplicateReference = errors.New("payment reference already used")
)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func (r *PaymentRepo) CreatePending(ctx context.Context, p model.Payment) (model.Payment, error) {
	if r.pool == nil {
		return model.Payment{}, fmt.Errorf("postgres pool is nil")
	}

	p.Status = enums.PaymentStatusPending
	err := r.pool.QueryRow(ctx, `
INSERT INTO payments (user_id, course_id, amount_cents, reference, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
RETURNING id, created_at, updated_at
`, p.UserID, p.CourseID, p.AmountCents, p.Reference, string(p.Status)).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Payment{}, ErrDuplicateReference
		}
		return model.Payment{}, fmt.Errorf("insert payment: %w", err)
	}

	return p, nil
}

func (r *PaymentRepo) FindByReference(ctx context.Context, reference string) (model.Payment, error) {
	if r.pool == nil {
		return model.Payment{}, fmt.Errorf("postgres pool is nil")
	}

	return scanPayment(r.pool.QueryRow(ctx, `
SELECT id, user_id, course_id, amount_cents, reference, status, created_at, updated_at
FROM payments
WHERE reference = $1
`, reference))
}

// SettleByReferenceTx locks the payment row, flips it to the terminal
// status, and enrolls the buyer in the same transaction. Re-delivered
// webhooks find the row already settled and report settled = false.
func (r *PaymentRepo) SettleByReferenceTx(ctx context.Context, reference string, status enums.PaymentStatus) (model.Payment, bool, error) {
	if r.pool == nil {
		return model.Payment{}, false, fmt.Errorf("postgres pool is nil")
	}

	var payment model.Payment
	var settled bool
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		p, err := scanPayment(tx.QueryRow(ctx, `
SELECT id, user_id, course_id, amount_cents, reference, status, created_at, updated_at
FROM payments
WHERE reference = $1
FOR UPDATE
`, reference))
		if err != nil {
			return err
		}

		if p.Status != enums.PaymentStatusPending {
			payment = p
			return nil
		}

		if err := tx.QueryRow(ctx, `
UPDATE payments
SET status = $2, updated_at = NOW()
WHERE id = $1
RETURNING updated_at
`, p.ID, string(status)).Scan(&p.UpdatedAt); err != nil {
			return fmt.Errorf("settle payment: %w", err)
		}
		p.Status = status

		if status == enums.PaymentStatusPaid {
			if _, err := tx.Exec(ctx, `
INSERT INTO enrollments (user_id, course_id, enrolled_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id, course_id) DO NOTHING
`, p.UserID, p.CourseID); err != nil {
				return fmt.Errorf("enroll after payment: %w", err)
			}
		}

		payment = p
		settled = true
		return nil
	})
	if err != nil {
		return model.Payment{}, false, err
	}

	return payment, settled, nil
}

func (r *PaymentRepo) ListByUser(ctx context.Context, userID int64) ([]model.Payment, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, course_id, amount_cents, reference, status, created_at, updated_at
FROM payments
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}

	return payments, nil
}

func (r *PaymentRepo) RevenueCentsByInstructor(ctx context.Context, instructorID int64) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var revenue int64
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(p.amount_cents), 0)
FROM payments p
JOIN courses c ON c.id = p.course_id
WHERE c.instructor_id = $1
  AND p.status = 'paid'
`, instructorID).Scan(&revenue)
	if err != nil {
		return 0, fmt.Errorf("revenue by instructor: %w", err)
	}

	return revenue, nil
}

func scanPayment(row pgx.Row) (model.Payment, error) {
	var p model.Payment
	var status string
	err := row.Scan(
		&p.ID, &p.UserID, &p.CourseID, &p.AmountCents, &p.Reference,
		&status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Payment{}, ErrPaymentNotFound
		}
		return model.Payment{}, fmt.Errorf("scan payment: %w", err)
	}
	p.Status = enums.PaymentStatus(status)
	return p, nil
}
