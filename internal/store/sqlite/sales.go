package sqlite

import (
	"context"
	"fmt"
	"time"

	"dokanpos/internal/domain"
	"dokanpos/internal/store"
)

// CreateSale persists the header, the line batch, the per-line stock
// decrements and exactly one payment row in a single transaction. Any
// failure rolls the whole sequence back, so a rejected sale leaves the
// database untouched.
//
// Stock is decremented without an availability check; oversell is allowed
// and stock may go negative.
func (s *Store) CreateSale(ctx context.Context, draft domain.SaleDraft) (int64, error) {
	if len(draft.Lines) == 0 {
		return 0, fmt.Errorf("sale must have at least one line: %w", store.ErrInvalidInput)
	}
	for _, line := range draft.Lines {
		if line.ItemID == 0 {
			return 0, fmt.Errorf("sale line has no product id: %w", store.ErrInvalidState)
		}
		if !line.Quantity.IsPositive() {
			return 0, fmt.Errorf("sale line quantity %s must be positive: %w", line.Quantity, store.ErrInvalidInput)
		}
	}

	if draft.CreatedBy == "" {
		draft.CreatedBy = domain.SystemActor
	}
	if draft.PaymentMethod == "" {
		draft.PaymentMethod = domain.PaymentCash
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}
	createdAt := formatTime(draft.CreatedAt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var phone any
	if draft.CustomerPhone != "" {
		phone = draft.CustomerPhone
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sales (customer_phone, total, paid, created_at, created_by)
		VALUES (?,?,?,?,?)
	`, phone, toReal(draft.Total), toReal(draft.Paid), createdAt, draft.CreatedBy)
	if err != nil {
		return 0, err
	}
	saleID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, line := range draft.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_lines (sale_id, item_id, quantity, price)
			VALUES (?,?,?,?)
		`, saleID, line.ItemID, toReal(line.Quantity), toReal(line.Price))
		if err != nil {
			return 0, err
		}

		// Repeated products in one cart decrement cumulatively, one
		// update per line. Zero rows affected means the id references no
		// product; the whole sale rolls back.
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - ?
			WHERE id = ?
		`, toReal(line.Quantity), line.ItemID)
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			return 0, fmt.Errorf("product id %d: %w", line.ItemID, store.ErrNotFound)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (sale_id, method, amount, reference, created_at, created_by)
		VALUES (?,?,?,NULL,?,?)
	`, saleID, draft.PaymentMethod, toReal(draft.Paid), createdAt, draft.CreatedBy)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return saleID, nil
}
