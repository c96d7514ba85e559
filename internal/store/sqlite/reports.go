package sqlite

import (
	"context"

	"github.com/shopspring/decimal"

	"dokanpos/internal/domain"
)

// filterClause pairs a WHERE fragment with its ordered parameter list so
// composed filters always bind positionally and never interpolate values.
type filterClause struct {
	cond string
	args []any
}

func (f filterClause) and(cond string, args ...any) filterClause {
	if f.cond == "" {
		return filterClause{cond: cond, args: args}
	}
	return filterClause{cond: f.cond + " AND " + cond, args: append(f.args, args...)}
}

// whereSQL renders the clause, producing a valid unconditional query when no
// predicate was added.
func (f filterClause) whereSQL() string {
	if f.cond == "" {
		return ""
	}
	return " WHERE " + f.cond
}

// salesFilter builds the period and actor predicates over a sales table
// aliased as s. Unknown period literals fall through to no predicate, same
// as PeriodAll.
func salesFilter(period string, createdBy string) filterClause {
	var f filterClause
	switch period {
	case domain.PeriodToday:
		f = f.and(`date(s.created_at) = date('now')`)
	case domain.PeriodThisMonth:
		f = f.and(`strftime('%Y-%m', s.created_at) = strftime('%Y-%m', 'now')`)
	}
	if createdBy != "" {
		f = f.and(`s.created_by = ?`, createdBy)
	}
	return f
}

func (s *Store) ListSales(ctx context.Context, query domain.SaleQuery) ([]domain.SaleSummary, error) {
	f := salesFilter(query.Period, query.CreatedBy)
	if query.From != "" {
		f = f.and(`date(s.created_at) >= date(?)`, query.From)
	}
	if query.To != "" {
		f = f.and(`date(s.created_at) <= date(?)`, query.To)
	}

	stmt := `
		SELECT s.id, COALESCE(NULLIF(c.name, ''), 'no customer'), s.total, s.paid, s.created_at, s.created_by
		FROM sales s
		LEFT JOIN customers c ON c.phone = s.customer_phone
	` + f.whereSQL() + `
		ORDER BY s.created_at DESC, s.id DESC
	`
	args := f.args
	if query.Limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.SaleSummary, 0, 64)
	for rows.Next() {
		var summary domain.SaleSummary
		var total, paid float64
		var createdAt string
		if err := rows.Scan(&summary.ID, &summary.CustomerName, &total, &paid, &createdAt, &summary.CreatedBy); err != nil {
			return nil, err
		}
		summary.Total = fromReal(total)
		summary.Paid = fromReal(paid)
		summary.Balance = summary.Total.Sub(summary.Paid)
		summary.CreatedAt = parseTime(createdAt)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *Store) GetStatsForPeriod(ctx context.Context, period string, createdBy string) (domain.ReportStats, error) {
	stats := domain.ReportStats{
		TotalSales:   decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalBalance: decimal.Zero,
		Methods:      zeroBreakdown(),
	}

	f := salesFilter(period, createdBy)
	var totalSales, totalPaid float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(s.total), 0), COALESCE(SUM(s.paid), 0)
		FROM sales s
	`+f.whereSQL(), f.args...).Scan(&stats.InvoiceCount, &totalSales, &totalPaid)
	if err != nil {
		return stats, err
	}
	stats.TotalSales = fromReal(totalSales)
	stats.TotalPaid = fromReal(totalPaid)
	stats.TotalBalance = stats.TotalSales.Sub(stats.TotalPaid)

	methods, err := s.methodBreakdown(ctx, f)
	if err != nil {
		return stats, err
	}
	stats.Methods = methods
	return stats, nil
}

// methodBreakdown sums payments.amount grouped by method over the sales
// selected by the filter. Methods outside the known four are ignored.
func (s *Store) methodBreakdown(ctx context.Context, f filterClause) (domain.MethodBreakdown, error) {
	breakdown := zeroBreakdown()

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.method, COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN sales s ON s.id = p.sale_id
	`+f.whereSQL()+`
		GROUP BY p.method
	`, f.args...)
	if err != nil {
		return breakdown, err
	}
	defer rows.Close()

	for rows.Next() {
		var method string
		var amount float64
		if err := rows.Scan(&method, &amount); err != nil {
			return breakdown, err
		}
		assignMethod(&breakdown, method, fromReal(amount))
	}
	if err := rows.Err(); err != nil {
		return breakdown, err
	}
	return breakdown, nil
}

func zeroBreakdown() domain.MethodBreakdown {
	return domain.MethodBreakdown{
		Cash:   decimal.Zero,
		Credit: decimal.Zero,
		Mobile: decimal.Zero,
		Card:   decimal.Zero,
	}
}

func assignMethod(breakdown *domain.MethodBreakdown, method string, amount decimal.Decimal) {
	switch method {
	case domain.PaymentCash:
		breakdown.Cash = breakdown.Cash.Add(amount)
	case domain.PaymentCredit:
		breakdown.Credit = breakdown.Credit.Add(amount)
	case domain.PaymentMobile:
		breakdown.Mobile = breakdown.Mobile.Add(amount)
	case domain.PaymentCard:
		breakdown.Card = breakdown.Card.Add(amount)
	}
}

// CashTotalForUser returns the cash-only payment sum for one actor. A blank
// username yields zero rather than an error.
func (s *Store) CashTotalForUser(ctx context.Context, period string, username string) (decimal.Decimal, error) {
	if username == "" {
		return decimal.Zero, nil
	}

	f := salesFilter(period, username).and(`p.method = ?`, domain.PaymentCash)
	var total float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN sales s ON s.id = p.sale_id
	`+f.whereSQL(), f.args...).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return fromReal(total), nil
}

// MonthlyStats computes the current-month total plus the approximate
// cash/credit split: "cash" is the summed totals of fully paid sales with at
// least one CASH payment, "credit" the remainder.
func (s *Store) MonthlyStats(ctx context.Context) (domain.MonthlyStats, error) {
	stats := domain.MonthlyStats{Total: decimal.Zero, Cash: decimal.Zero, Credit: decimal.Zero}

	var total float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(s.total), 0)
		FROM sales s
		WHERE strftime('%Y-%m', s.created_at) = strftime('%Y-%m', 'now')
	`).Scan(&total)
	if err != nil {
		return stats, err
	}

	var cash float64
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(s.total), 0)
		FROM sales s
		WHERE strftime('%Y-%m', s.created_at) = strftime('%Y-%m', 'now')
			AND s.paid >= s.total
			AND EXISTS (
				SELECT 1 FROM payments p
				WHERE p.sale_id = s.id AND p.method = ?
			)
	`, domain.PaymentCash).Scan(&cash)
	if err != nil {
		return stats, err
	}

	stats.Total = fromReal(total)
	stats.Cash = fromReal(cash)
	stats.Credit = stats.Total.Sub(stats.Cash)
	return stats, nil
}

// PaymentMethodSummary groups this month's payments by method, largest
// amount first.
func (s *Store) PaymentMethodSummary(ctx context.Context) ([]domain.PaymentMethodTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT method, COALESCE(SUM(amount), 0), COUNT(*)
		FROM payments
		WHERE strftime('%Y-%m', created_at) = strftime('%Y-%m', 'now')
		GROUP BY method
		ORDER BY SUM(amount) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]domain.PaymentMethodTotal, 0, 4)
	for rows.Next() {
		var t domain.PaymentMethodTotal
		var amount float64
		if err := rows.Scan(&t.Method, &amount, &t.Count); err != nil {
			return nil, err
		}
		t.Amount = fromReal(amount)
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}

// UserSalesSummaries rolls sales up per created_by actor within the period,
// joined to users for a display name and combined with the per-method
// payment breakdown, ordered by total sales descending.
func (s *Store) UserSalesSummaries(ctx context.Context, period string) ([]domain.UserSalesSummary, error) {
	f := salesFilter(period, "")

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.created_by,
			COALESCE(NULLIF(u.display_name, ''), s.created_by),
			COUNT(*),
			COALESCE(SUM(s.total), 0),
			COALESCE(SUM(s.paid), 0)
		FROM sales s
		LEFT JOIN users u ON u.username = s.created_by
	`+f.whereSQL()+`
		GROUP BY s.created_by
		ORDER BY SUM(s.total) DESC
	`, f.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.UserSalesSummary, 0, 8)
	index := make(map[string]int, 8)
	for rows.Next() {
		var summary domain.UserSalesSummary
		var totalSales, totalPaid float64
		if err := rows.Scan(&summary.Username, &summary.DisplayName, &summary.InvoiceCount, &totalSales, &totalPaid); err != nil {
			return nil, err
		}
		summary.TotalSales = fromReal(totalSales)
		summary.TotalPaid = fromReal(totalPaid)
		summary.Methods = zeroBreakdown()
		index[summary.Username] = len(summaries)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	methodRows, err := s.db.QueryContext(ctx, `
		SELECT s.created_by, p.method, COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN sales s ON s.id = p.sale_id
	`+f.whereSQL()+`
		GROUP BY s.created_by, p.method
	`, f.args...)
	if err != nil {
		return nil, err
	}
	defer methodRows.Close()

	for methodRows.Next() {
		var username, method string
		var amount float64
		if err := methodRows.Scan(&username, &method, &amount); err != nil {
			return nil, err
		}
		if i, ok := index[username]; ok {
			assignMethod(&summaries[i].Methods, method, fromReal(amount))
		}
	}
	if err := methodRows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}
