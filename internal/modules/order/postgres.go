package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

type orderRow struct {
	ID               string          `db:"id"`
	Number           string          `db:"number"`
	Email            string          `db:"email"`
	TelegramUserID   int64           `db:"telegram_user_id"`
	TelegramUsername string          `db:"telegram_username"`
	Items            types.JSONText  `db:"items"`
	Keys             types.JSONText  `db:"keys"`
	Total            int64           `db:"total"`
	DeclaredTotal    decimal.Decimal `db:"declared_total"`
	TotalMismatch    bool            `db:"total_mismatch"`
	Currency         string          `db:"currency"`
	PaymentMethod    string          `db:"payment_method"`
	PaymentChargeID  string          `db:"payment_charge_id"`
	Status           string          `db:"status"`
	CreatedAt        time.Time       `db:"created_at"`
}

const orderColumns = `id,number,email,telegram_user_id,telegram_username,items,keys,total,
	declared_total,total_mismatch,currency,payment_method,payment_charge_id,status,created_at`

func (r *postgresRepo) Append(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	keys, err := json.Marshal(o.Keys)
	if err != nil {
		return fmt.Errorf("encode keys: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		o.ID, o.Number, o.Email, o.TelegramUserID, o.TelegramUsername,
		types.JSONText(items), types.JSONText(keys), o.Total,
		o.DeclaredTotal, o.TotalMismatch, o.Currency, string(o.PaymentMethod),
		o.PaymentChargeID, string(o.Status), o.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == "orders_number_key" {
		return fmt.Errorf("%w: %s", ErrDuplicateNumber, o.Number)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *postgresRepo) FindByContact(ctx context.Context, email string) ([]*Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE email <> '' AND LOWER(email) = $1 ORDER BY created_at ASC, id ASC`,
		strings.ToLower(strings.TrimSpace(email)))
}

func (r *postgresRepo) FindByTelegramUser(ctx context.Context, userID int64) ([]*Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE telegram_user_id = $1 ORDER BY created_at ASC, id ASC`, userID)
}

func (r *postgresRepo) FindByPaymentCharge(ctx context.Context, chargeID string) (*Order, error) {
	if chargeID == "" {
		return nil, nil
	}
	orders, err := r.query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE payment_charge_id = $1 ORDER BY created_at ASC, id ASC LIMIT 1`, chargeID)
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	return orders[0], nil
}

func (r *postgresRepo) List(ctx context.Context) ([]*Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at ASC, id ASC`)
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...interface{}) ([]*Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	orders := make([]*Order, 0, len(rows))
	for _, row := range rows {
		o := &Order{
			ID:               row.ID,
			Number:           row.Number,
			Email:            row.Email,
			TelegramUserID:   row.TelegramUserID,
			TelegramUsername: row.TelegramUsername,
			Total:            row.Total,
			DeclaredTotal:    row.DeclaredTotal,
			TotalMismatch:    row.TotalMismatch,
			Currency:         row.Currency,
			PaymentMethod:    PaymentMethod(row.PaymentMethod),
			PaymentChargeID:  row.PaymentChargeID,
			Status:           Status(row.Status),
			CreatedAt:        row.CreatedAt,
		}
		if err := row.Items.Unmarshal(&o.Items); err != nil {
			return nil, fmt.Errorf("decode items of %s: %w", row.ID, err)
		}
		if err := row.Keys.Unmarshal(&o.Keys); err != nil {
			return nil, fmt.Errorf("decode keys of %s: %w", row.ID, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}
