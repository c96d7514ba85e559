// Package memory implements store.Repository with in-process maps. It backs
// the test suites and the demo mode used when no database path is
// configured; semantics mirror the SQLite store, including period filters
// evaluated in UTC.
package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"dokanpos/internal/domain"
	"dokanpos/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	productsByID    map[int64]domain.Product
	customersByKey  map[string]domain.Customer
	salesByID       map[int64]domain.Sale
	saleLines       []domain.SaleLine
	payments        []domain.Payment
	usersByUsername map[string]domain.UserAccount

	nextProductID int64
	nextSaleID    int64
	nextLineID    int64
	nextPaymentID int64
	nextUserID    int64
}

func New() *Store {
	return &Store{
		productsByID:    make(map[int64]domain.Product),
		customersByKey:  make(map[string]domain.Customer),
		salesByID:       make(map[int64]domain.Sale),
		saleLines:       make([]domain.SaleLine, 0, 64),
		payments:        make([]domain.Payment, 0, 64),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store preloaded with demo products and an admin user
// so the server is usable without any setup. The admin password comes from
// SEED_ADMIN_PASSWORD, with a loudly logged dev default.
func NewSeeded() *Store {
	s := New()

	adminPwd := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPwd == "" {
		adminPwd = "admin123"
		log.Println("[memory-store] WARNING: using default dev admin password. Set SEED_ADMIN_PASSWORD to override.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed password: %v", err)
	}
	s.usersByUsername["admin"] = domain.UserAccount{
		ID:           1,
		Username:     "admin",
		PasswordHash: string(hash),
		DisplayName:  "Administrator",
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	s.nextUserID = 1

	for _, p := range []domain.Product{
		{Code: "P001", Description: "Rice 5kg", UOM: "bag", BuyPrice: decimal.NewFromInt(280), SellPrice: decimal.NewFromInt(320), DefaultNumber: decimal.NewFromInt(1), Stock: decimal.NewFromInt(40), ReorderLevel: decimal.NewFromInt(10)},
		{Code: "P002", Description: "Soybean Oil 1L", UOM: "bottle", BuyPrice: decimal.NewFromInt(150), SellPrice: decimal.NewFromInt(175), DefaultNumber: decimal.NewFromInt(1), Stock: decimal.NewFromInt(60), ReorderLevel: decimal.NewFromInt(12)},
		{Code: "P003", Description: "Sugar 1kg", UOM: "kg", BuyPrice: decimal.NewFromInt(110), SellPrice: decimal.NewFromInt(130), DefaultNumber: decimal.NewFromInt(1), Stock: decimal.NewFromInt(25), ReorderLevel: decimal.NewFromInt(8)},
	} {
		s.nextProductID++
		p.ID = s.nextProductID
		s.productsByID[p.ID] = p
	}

	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Code < products[j].Code })
	return products, nil
}

func (s *Store) GetProductByCode(_ context.Context, code string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.productsByID {
		if p.Code == code {
			found := p
			return &found, nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", code, store.ErrNotFound)
}

func (s *Store) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.productsByID[id]
	if !ok {
		return nil, fmt.Errorf("product id %d: %w", id, store.ErrNotFound)
	}
	found := p
	return &found, nil
}

func (s *Store) UpsertProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Code) == "" {
		return nil, fmt.Errorf("product code must not be blank: %w", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.productsByID {
		if existing.Code == product.Code && id != product.ID {
			return nil, fmt.Errorf("product code %s already exists: %w", product.Code, store.ErrInvalidInput)
		}
	}

	if product.ID == 0 {
		s.nextProductID++
		product.ID = s.nextProductID
	} else if _, ok := s.productsByID[product.ID]; !ok {
		return nil, fmt.Errorf("product id %d: %w", product.ID, store.ErrNotFound)
	}
	s.productsByID[product.ID] = product
	saved := product
	return &saved, nil
}

func (s *Store) ListReorderAdvisories(_ context.Context) ([]domain.ReorderAdvisory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	advisories := make([]domain.ReorderAdvisory, 0, 8)
	for _, p := range s.productsByID {
		if p.Stock.LessThanOrEqual(p.ReorderLevel) {
			advisories = append(advisories, domain.ReorderAdvisory{
				Code:         p.Code,
				Description:  p.Description,
				Stock:        p.Stock,
				ReorderLevel: p.ReorderLevel,
			})
		}
	}
	sort.Slice(advisories, func(i, j int) bool { return advisories[i].Code < advisories[j].Code })
	return advisories, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByKey))
	for _, c := range s.customersByKey {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].Name < customers[j].Name })
	return customers, nil
}

func (s *Store) GetCustomerByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customersByKey[phone]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", phone, store.ErrNotFound)
	}
	found := c
	return &found, nil
}

func (s *Store) UpsertCustomer(_ context.Context, customer domain.Customer) error {
	if strings.TrimSpace(customer.Phone) == "" {
		return fmt.Errorf("customer phone must not be blank: %w", store.ErrInvalidInput)
	}
	if customer.Status == "" {
		customer.Status = domain.CustomerActive
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.customersByKey[customer.Phone] = customer
	return nil
}

func (s *Store) CreateSale(_ context.Context, draft domain.SaleDraft) (int64, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every line before mutating anything so a rejected sale
	// leaves the store untouched, matching the SQLite transaction.
	for _, line := range draft.Lines {
		if _, ok := s.productsByID[line.ItemID]; !ok {
			return 0, fmt.Errorf("product id %d: %w", line.ItemID, store.ErrNotFound)
		}
	}

	s.nextSaleID++
	saleID := s.nextSaleID
	s.salesByID[saleID] = domain.Sale{
		ID:            saleID,
		CustomerPhone: draft.CustomerPhone,
		Total:         draft.Total,
		Paid:          draft.Paid,
		CreatedAt:     draft.CreatedAt,
		CreatedBy:     draft.CreatedBy,
	}

	for _, line := range draft.Lines {
		s.nextLineID++
		s.saleLines = append(s.saleLines, domain.SaleLine{
			ID:       s.nextLineID,
			SaleID:   saleID,
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
		product := s.productsByID[line.ItemID]
		product.Stock = product.Stock.Sub(line.Quantity)
		s.productsByID[line.ItemID] = product
	}

	s.nextPaymentID++
	s.payments = append(s.payments, domain.Payment{
		ID:        s.nextPaymentID,
		SaleID:    saleID,
		Method:    draft.PaymentMethod,
		Amount:    draft.Paid,
		CreatedAt: draft.CreatedAt,
		CreatedBy: draft.CreatedBy,
	})

	return saleID, nil
}

// matchesPeriod applies the period literal to a timestamp in UTC. Unknown
// literals match everything, same as PeriodAll.
func matchesPeriod(period string, at time.Time) bool {
	now := time.Now().UTC()
	at = at.UTC()
	switch period {
	case domain.PeriodToday:
		return at.Year() == now.Year() && at.YearDay() == now.YearDay()
	case domain.PeriodThisMonth:
		return at.Year() == now.Year() && at.Month() == now.Month()
	}
	return true
}

func (s *Store) filteredSales(query domain.SaleQuery) []domain.Sale {
	sales := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if !matchesPeriod(query.Period, sale.CreatedAt) {
			continue
		}
		if query.CreatedBy != "" && sale.CreatedBy != query.CreatedBy {
			continue
		}
		if query.From != "" && sale.CreatedAt.UTC().Format("2006-01-02") < query.From {
			continue
		}
		if query.To != "" && sale.CreatedAt.UTC().Format("2006-01-02") > query.To {
			continue
		}
		sales = append(sales, sale)
	}
	sort.Slice(sales, func(i, j int) bool {
		if !sales[i].CreatedAt.Equal(sales[j].CreatedAt) {
			return sales[i].CreatedAt.After(sales[j].CreatedAt)
		}
		return sales[i].ID > sales[j].ID
	})
	return sales
}

func (s *Store) ListSales(_ context.Context, query domain.SaleQuery) ([]domain.SaleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := s.filteredSales(query)
	if query.Limit > 0 && len(sales) > query.Limit {
		sales = sales[:query.Limit]
	}

	summaries := make([]domain.SaleSummary, 0, len(sales))
	for _, sale := range sales {
		name := "no customer"
		if customer, ok := s.customersByKey[sale.CustomerPhone]; ok && customer.Name != "" {
			name = customer.Name
		}
		summaries = append(summaries, domain.SaleSummary{
			ID:           sale.ID,
			CustomerName: name,
			Total:        sale.Total,
			Paid:         sale.Paid,
			Balance:      sale.Total.Sub(sale.Paid),
			CreatedAt:    sale.CreatedAt,
			CreatedBy:    sale.CreatedBy,
		})
	}
	return summaries, nil
}

func (s *Store) paymentsForSale(saleID int64) []domain.Payment {
	matches := make([]domain.Payment, 0, 2)
	for _, payment := range s.payments {
		if payment.SaleID == saleID {
			matches = append(matches, payment)
		}
	}
	return matches
}

func (s *Store) GetStatsForPeriod(_ context.Context, period string, createdBy string) (domain.ReportStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.ReportStats{
		TotalSales:   decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalBalance: decimal.Zero,
		Methods: domain.MethodBreakdown{
			Cash: decimal.Zero, Credit: decimal.Zero, Mobile: decimal.Zero, Card: decimal.Zero,
		},
	}

	for _, sale := range s.filteredSales(domain.SaleQuery{Period: period, CreatedBy: createdBy}) {
		stats.InvoiceCount++
		stats.TotalSales = stats.TotalSales.Add(sale.Total)
		stats.TotalPaid = stats.TotalPaid.Add(sale.Paid)
		for _, payment := range s.paymentsForSale(sale.ID) {
			switch payment.Method {
			case domain.PaymentCash:
				stats.Methods.Cash = stats.Methods.Cash.Add(payment.Amount)
			case domain.PaymentCredit:
				stats.Methods.Credit = stats.Methods.Credit.Add(payment.Amount)
			case domain.PaymentMobile:
				stats.Methods.Mobile = stats.Methods.Mobile.Add(payment.Amount)
			case domain.PaymentCard:
				stats.Methods.Card = stats.Methods.Card.Add(payment.Amount)
			}
		}
	}
	stats.TotalBalance = stats.TotalSales.Sub(stats.TotalPaid)
	return stats, nil
}

func (s *Store) CashTotalForUser(_ context.Context, period string, username string) (decimal.Decimal, error) {
	if username == "" {
		return decimal.Zero, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, sale := range s.filteredSales(domain.SaleQuery{Period: period, CreatedBy: username}) {
		for _, payment := range s.paymentsForSale(sale.ID) {
			if payment.Method == domain.PaymentCash {
				total = total.Add(payment.Amount)
			}
		}
	}
	return total, nil
}

func (s *Store) MonthlyStats(_ context.Context) (domain.MonthlyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.MonthlyStats{Total: decimal.Zero, Cash: decimal.Zero, Credit: decimal.Zero}
	for _, sale := range s.filteredSales(domain.SaleQuery{Period: domain.PeriodThisMonth}) {
		stats.Total = stats.Total.Add(sale.Total)
		if sale.Paid.LessThan(sale.Total) {
			continue
		}
		for _, payment := range s.paymentsForSale(sale.ID) {
			if payment.Method == domain.PaymentCash {
				stats.Cash = stats.Cash.Add(sale.Total)
				break
			}
		}
	}
	stats.Credit = stats.Total.Sub(stats.Cash)
	return stats, nil
}

func (s *Store) PaymentMethodSummary(_ context.Context) ([]domain.PaymentMethodTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMethod := make(map[string]*domain.PaymentMethodTotal, 4)
	for _, payment := range s.payments {
		if !matchesPeriod(domain.PeriodThisMonth, payment.CreatedAt) {
			continue
		}
		entry, ok := byMethod[payment.Method]
		if !ok {
			entry = &domain.PaymentMethodTotal{Method: payment.Method, Amount: decimal.Zero}
			byMethod[payment.Method] = entry
		}
		entry.Amount = entry.Amount.Add(payment.Amount)
		entry.Count++
	}

	totals := make([]domain.PaymentMethodTotal, 0, len(byMethod))
	for _, entry := range byMethod {
		totals = append(totals, *entry)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Amount.GreaterThan(totals[j].Amount) })
	return totals, nil
}

func (s *Store) UserSalesSummaries(_ context.Context, period string) ([]domain.UserSalesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byUser := make(map[string]*domain.UserSalesSummary, 8)
	for _, sale := range s.filteredSales(domain.SaleQuery{Period: period}) {
		summary, ok := byUser[sale.CreatedBy]
		if !ok {
			displayName := sale.CreatedBy
			if user, exists := s.usersByUsername[sale.CreatedBy]; exists && user.DisplayName != "" {
				displayName = user.DisplayName
			}
			summary = &domain.UserSalesSummary{
				Username:    sale.CreatedBy,
				DisplayName: displayName,
				TotalSales:  decimal.Zero,
				TotalPaid:   decimal.Zero,
				Methods: domain.MethodBreakdown{
					Cash: decimal.Zero, Credit: decimal.Zero, Mobile: decimal.Zero, Card: decimal.Zero,
				},
			}
			byUser[sale.CreatedBy] = summary
		}
		summary.InvoiceCount++
		summary.TotalSales = summary.TotalSales.Add(sale.Total)
		summary.TotalPaid = summary.TotalPaid.Add(sale.Paid)
		for _, payment := range s.paymentsForSale(sale.ID) {
			switch payment.Method {
			case domain.PaymentCash:
				summary.Methods.Cash = summary.Methods.Cash.Add(payment.Amount)
			case domain.PaymentCredit:
				summary.Methods.Credit = summary.Methods.Credit.Add(payment.Amount)
			case domain.PaymentMobile:
				summary.Methods.Mobile = summary.Methods.Mobile.Add(payment.Amount)
			case domain.PaymentCard:
				summary.Methods.Card = summary.Methods.Card.Add(payment.Amount)
			}
		}
	}

	summaries := make([]domain.UserSalesSummary, 0, len(byUser))
	for _, summary := range byUser {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].TotalSales.GreaterThan(summaries[j].TotalSales)
	})
	return summaries, nil
}

func (s *Store) GetInvoice(_ context.Context, saleID int64) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.salesByID[saleID]
	if !ok {
		return nil, fmt.Errorf("invoice %d: %w", saleID, store.ErrNotFound)
	}

	invoice := &domain.Invoice{
		Number:        sale.ID,
		CustomerName:  domain.WalkInCustomerName,
		CustomerPhone: sale.CustomerPhone,
		Date:          sale.CreatedAt,
		Items:         make([]domain.InvoiceItem, 0, 8),
		Subtotal:      decimal.Zero,
		Tax:           decimal.Zero,
		Total:         sale.Total,
		Paid:          sale.Paid,
		PaymentMethod: domain.PaymentCash,
	}

	if sale.CustomerPhone != "" {
		if customer, exists := s.customersByKey[sale.CustomerPhone]; exists && customer.Name != "" {
			invoice.CustomerName = customer.Name
		}
	}

	var latest *domain.Payment
	for i := range s.payments {
		payment := &s.payments[i]
		if payment.SaleID != saleID {
			continue
		}
		if latest == nil || payment.CreatedAt.After(latest.CreatedAt) ||
			(payment.CreatedAt.Equal(latest.CreatedAt) && payment.ID > latest.ID) {
			latest = payment
		}
	}
	if latest != nil {
		invoice.PaymentMethod = latest.Method
	}

	for _, line := range s.saleLines {
		if line.SaleID != saleID {
			continue
		}
		item := domain.InvoiceItem{
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
			LineTotal: line.Quantity.Mul(line.Price),
		}
		if product, exists := s.productsByID[line.ItemID]; exists {
			item.Code = product.Code
			item.Description = product.Description
		}
		invoice.Subtotal = invoice.Subtotal.Add(item.LineTotal)
		invoice.Items = append(invoice.Items, item)
	}

	return invoice, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || user.PasswordHash == "" {
		return nil, fmt.Errorf("username and password hash are required: %w", store.ErrInvalidInput)
	}
	if user.Role == "" {
		user.Role = domain.RoleCashier
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return nil, fmt.Errorf("username %s already exists: %w", user.Username, store.ErrInvalidInput)
	}
	s.nextUserID++
	user.ID = s.nextUserID
	s.usersByUsername[user.Username] = user
	created := user
	return &created, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", username, store.ErrNotFound)
	}
	found := user
	return &found, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, passwordHash string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return fmt.Errorf("user %s: %w", username, store.ErrNotFound)
	}
	user.PasswordHash = passwordHash
	s.usersByUsername[username] = user
	return nil
}
