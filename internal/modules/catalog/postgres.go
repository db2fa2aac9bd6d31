package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

const productColumns = `id,name,region,currency,price,discount,description,archived,created_at,updated_at`

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (id, name, region, currency, price, discount, description, archived)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Region, p.Currency, p.Price, p.Discount, p.Description, p.Archived).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	p := &Product{}
	err := r.db.GetContext(ctx, p, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]*Product, error) {
	var products []*Product
	if err := r.db.SelectContext(ctx, &products,
		`SELECT `+productColumns+` FROM products ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name=$1, currency=$2, price=$3, discount=$4, description=$5, archived=$6, updated_at=NOW()
		WHERE id=$7`,
		p.Name, p.Currency, p.Price, p.Discount, p.Description, p.Archived, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}
