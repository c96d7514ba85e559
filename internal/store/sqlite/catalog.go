package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dokanpos/internal/domain"
	"dokanpos/internal/store"
)

const productColumns = `id, code, description, uom, buy_price, sell_price, default_number, stock, reorder_level`

func scanProduct(scanner interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	var buy, sell, def, stock, reorder float64
	err := scanner.Scan(&p.ID, &p.Code, &p.Description, &p.UOM, &buy, &sell, &def, &stock, &reorder)
	if err != nil {
		return domain.Product{}, err
	}
	p.BuyPrice = fromReal(buy)
	p.SellPrice = fromReal(sell)
	p.DefaultNumber = fromReal(def)
	p.Stock = fromReal(stock)
	p.ReorderLevel = fromReal(reorder)
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE code = ?
	`, code)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", code, store.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ?
	`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product id %d: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// UpsertProduct inserts when the product carries no id and updates all
// mutable fields by id otherwise. Update-by-code resolution is the caller's
// responsibility.
func (s *Store) UpsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Code) == "" {
		return nil, fmt.Errorf("product code must not be blank: %w", store.ErrInvalidInput)
	}

	if product.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO products (code, description, uom, buy_price, sell_price, default_number, stock, reorder_level)
			VALUES (?,?,?,?,?,?,?,?)
		`, product.Code, product.Description, product.UOM, toReal(product.BuyPrice), toReal(product.SellPrice),
			toReal(product.DefaultNumber), toReal(product.Stock), toReal(product.ReorderLevel))
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("product code %s already exists: %w", product.Code, store.ErrInvalidInput)
			}
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		product.ID = id
		created := product
		return &created, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET code = ?, description = ?, uom = ?, buy_price = ?, sell_price = ?, default_number = ?, stock = ?, reorder_level = ?
		WHERE id = ?
	`, product.Code, product.Description, product.UOM, toReal(product.BuyPrice), toReal(product.SellPrice),
		toReal(product.DefaultNumber), toReal(product.Stock), toReal(product.ReorderLevel), product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("product code %s already exists: %w", product.Code, store.ErrInvalidInput)
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("product id %d: %w", product.ID, store.ErrNotFound)
	}

	updated := product
	return &updated, nil
}

// ListReorderAdvisories returns products at or below their reorder level.
func (s *Store) ListReorderAdvisories(ctx context.Context) ([]domain.ReorderAdvisory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, description, stock, reorder_level
		FROM products
		WHERE stock <= reorder_level
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	advisories := make([]domain.ReorderAdvisory, 0, 16)
	for rows.Next() {
		var adv domain.ReorderAdvisory
		var stock, reorder float64
		if err := rows.Scan(&adv.Code, &adv.Description, &stock, &reorder); err != nil {
			return nil, err
		}
		adv.Stock = fromReal(stock)
		adv.ReorderLevel = fromReal(reorder)
		advisories = append(advisories, adv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return advisories, nil
}
