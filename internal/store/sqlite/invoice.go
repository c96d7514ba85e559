package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"dokanpos/internal/domain"
	"dokanpos/internal/store"
)

// GetInvoice assembles the read-only invoice projection for one sale:
// header, customer display name, most recent payment method and the ordered
// line items. Subtotal is recomputed from the lines while Total is read from
// the stored header; the two normally agree.
func (s *Store) GetInvoice(ctx context.Context, saleID int64) (*domain.Invoice, error) {
	var phone sql.NullString
	var total, paid float64
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT customer_phone, total, paid, created_at
		FROM sales
		WHERE id = ?
	`, saleID).Scan(&phone, &total, &paid, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", saleID, store.ErrNotFound)
		}
		return nil, err
	}

	invoice := &domain.Invoice{
		Number:        saleID,
		CustomerName:  domain.WalkInCustomerName,
		Date:          parseTime(createdAt),
		Subtotal:      decimal.Zero,
		Tax:           decimal.Zero,
		Total:         fromReal(total),
		Paid:          fromReal(paid),
		PaymentMethod: domain.PaymentCash,
	}

	if phone.Valid && phone.String != "" {
		invoice.CustomerPhone = phone.String
		var name string
		err := s.db.QueryRowContext(ctx, `
			SELECT name FROM customers WHERE phone = ?
		`, phone.String).Scan(&name)
		switch {
		case err == nil && name != "":
			invoice.CustomerName = name
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return nil, err
		}
	}

	// Displayed method is the most recent payment row; the CASH fallback
	// covers sales with no payment row, which the create path never
	// produces.
	var method string
	err = s.db.QueryRowContext(ctx, `
		SELECT method
		FROM payments
		WHERE sale_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, saleID).Scan(&method)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if method != "" {
		invoice.PaymentMethod = method
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(p.code, ''), COALESCE(p.description, ''), l.quantity, l.price
		FROM sale_lines l
		LEFT JOIN products p ON p.id = l.item_id
		WHERE l.sale_id = ?
		ORDER BY l.id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoice.Items = make([]domain.InvoiceItem, 0, 8)
	for rows.Next() {
		var item domain.InvoiceItem
		var quantity, price float64
		if err := rows.Scan(&item.Code, &item.Description, &quantity, &price); err != nil {
			return nil, err
		}
		item.Quantity = fromReal(quantity)
		item.UnitPrice = fromReal(price)
		item.LineTotal = item.Quantity.Mul(item.UnitPrice)
		invoice.Subtotal = invoice.Subtotal.Add(item.LineTotal)
		invoice.Items = append(invoice.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return invoice, nil
}
