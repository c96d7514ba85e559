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

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT phone, name, address, dob, email, status, credit_limit
		FROM customers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		var creditLimit float64
		if err := rows.Scan(&c.Phone, &c.Name, &c.Address, &c.DOB, &c.Email, &c.Status, &creditLimit); err != nil {
			return nil, err
		}
		c.CreditLimit = fromReal(creditLimit)
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	var c domain.Customer
	var creditLimit float64
	err := s.db.QueryRowContext(ctx, `
		SELECT phone, name, address, dob, email, status, credit_limit
		FROM customers
		WHERE phone = ?
	`, phone).Scan(&c.Phone, &c.Name, &c.Address, &c.DOB, &c.Email, &c.Status, &creditLimit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer %s: %w", phone, store.ErrNotFound)
		}
		return nil, err
	}
	c.CreditLimit = fromReal(creditLimit)
	return &c, nil
}

// UpsertCustomer attempts an update by phone and inserts when no row was
// affected, so repeated upserts with the same phone stay idempotent without
// an existence check by the caller.
func (s *Store) UpsertCustomer(ctx context.Context, customer domain.Customer) error {
	if strings.TrimSpace(customer.Phone) == "" {
		return fmt.Errorf("customer phone must not be blank: %w", store.ErrInvalidInput)
	}
	if customer.Status == "" {
		customer.Status = domain.CustomerActive
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET name = ?, address = ?, dob = ?, email = ?, status = ?, credit_limit = ?
		WHERE phone = ?
	`, customer.Name, customer.Address, customer.DOB, customer.Email, customer.Status,
		toReal(customer.CreditLimit), customer.Phone)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO customers (phone, name, address, dob, email, status, credit_limit)
		VALUES (?,?,?,?,?,?,?)
	`, customer.Phone, customer.Name, customer.Address, customer.DOB, customer.Email,
		customer.Status, toReal(customer.CreditLimit))
	return err
}
