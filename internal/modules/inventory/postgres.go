package inventory

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// postgresRepo keeps keys in inventory_keys; seq orders each product's pool.
type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CheckAvailable(ctx context.Context, productID string, qty int) (Availability, error) {
	var n int
	if err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM inventory_keys WHERE product_id=$1`, productID); err != nil {
		return Availability{}, fmt.Errorf("count keys: %w", err)
	}
	return Availability{Available: n >= qty, Count: n}, nil
}

func (r *postgresRepo) Take(ctx context.Context, productID string, qty int) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := lockPool(ctx, tx, productID); err != nil {
		return nil, err
	}
	var rows []struct {
		Seq  int64  `db:"seq"`
		Code string `db:"code"`
	}
	if err := tx.SelectContext(ctx, &rows, `
		SELECT seq, code FROM inventory_keys
		WHERE product_id=$1
		ORDER BY seq
		LIMIT $2
		FOR UPDATE`, productID, qty); err != nil {
		return nil, fmt.Errorf("select keys: %w", err)
	}
	if qty <= 0 || len(rows) < qty {
		return nil, &ShortageError{ProductID: productID, Requested: qty, Available: len(rows)}
	}

	seqs := make([]int64, len(rows))
	codes := make([]string, len(rows))
	for i, row := range rows {
		seqs[i], codes[i] = row.Seq, row.Code
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM inventory_keys WHERE product_id=$1 AND seq = ANY($2)`,
		productID, pq.Array(seqs)); err != nil {
		return nil, fmt.Errorf("delete keys: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit take: %w", err)
	}
	return codes, nil
}

func (r *postgresRepo) Restock(ctx context.Context, productID string, codes []string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := lockPool(ctx, tx, productID); err != nil {
		return 0, err
	}
	var last int64
	if err := tx.GetContext(ctx, &last,
		`SELECT COALESCE(MAX(seq), 0) FROM inventory_keys WHERE product_id=$1`, productID); err != nil {
		return 0, fmt.Errorf("select tail: %w", err)
	}
	for i, code := range codes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO inventory_keys (product_id, seq, code) VALUES ($1,$2,$3)`,
			productID, last+int64(i)+1, code); err != nil {
			return 0, fmt.Errorf("insert key: %w", err)
		}
	}
	var n int
	if err := tx.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM inventory_keys WHERE product_id=$1`, productID); err != nil {
		return 0, fmt.Errorf("count keys: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit restock: %w", err)
	}
	return n, nil
}

func (r *postgresRepo) PutBack(ctx context.Context, productID string, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockPool(ctx, tx, productID); err != nil {
		return err
	}
	var head int64
	if err := tx.GetContext(ctx, &head,
		`SELECT COALESCE(MIN(seq), 1) FROM inventory_keys WHERE product_id=$1`, productID); err != nil {
		return fmt.Errorf("select head: %w", err)
	}
	first := head - int64(len(codes))
	for i, code := range codes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO inventory_keys (product_id, seq, code) VALUES ($1,$2,$3)`,
			productID, first+int64(i), code); err != nil {
			return fmt.Errorf("insert key: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put back: %w", err)
	}
	return nil
}

func (r *postgresRepo) Counts(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		ProductID string `db:"product_id"`
		N         int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT product_id, COUNT(*) AS n FROM inventory_keys GROUP BY product_id`); err != nil {
		return nil, fmt.Errorf("count keys: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.ProductID] = row.N
	}
	return counts, nil
}

// lockPool serializes writers that compute seq from the current head or tail.
func lockPool(ctx context.Context, tx *sqlx.Tx, productID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, productID); err != nil {
		return fmt.Errorf("lock pool %s: %w", productID, err)
	}
	return nil
}
