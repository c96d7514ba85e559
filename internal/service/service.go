// Package service orchestrates the repository operations: cart validation
// and resolution for the write path, role scoping for the read path, and the
// invoice cache.
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"dokanpos/internal/cache"
	"dokanpos/internal/domain"
	"dokanpos/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo         store.Repository
	invoiceCache cache.InvoiceCache
	invoiceTTL   time.Duration
}

func New(repo store.Repository, invoiceCache cache.InvoiceCache, invoiceTTL time.Duration) *Service {
	if invoiceCache == nil {
		invoiceCache = cache.NoopInvoiceCache{}
	}
	if invoiceTTL <= 0 {
		invoiceTTL = 5 * time.Minute
	}

	return &Service{
		repo:         repo,
		invoiceCache: invoiceCache,
		invoiceTTL:   invoiceTTL,
	}
}

// actorUsername resolves the acting username: explicit value first, then the
// authenticated actor, then the SYSTEM sentinel.
func actorUsername(ctx context.Context, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if actor, ok := ActorFromContext(ctx); ok && actor.Username != "" {
		return actor.Username
	}
	return domain.SystemActor
}

// reportScope returns the created_by restriction for the caller: cashiers
// only ever see their own sales, admins and unauthenticated callers are
// unscoped.
func reportScope(ctx context.Context) string {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role == domain.RoleAdmin {
		return ""
	}
	return actor.Username
}

// Catalog.

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, code string) (*domain.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("product code must not be blank: %w", store.ErrInvalidInput)
	}
	return s.repo.GetProductByCode(ctx, code)
}

func (s *Service) SaveProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	product.Code = strings.TrimSpace(product.Code)
	product.Description = strings.TrimSpace(product.Description)
	if product.Code == "" {
		return domain.Product{}, fmt.Errorf("product code must not be blank: %w", store.ErrInvalidInput)
	}
	if product.SellPrice.IsNegative() || product.BuyPrice.IsNegative() {
		return domain.Product{}, fmt.Errorf("product prices must not be negative: %w", store.ErrInvalidInput)
	}
	if product.DefaultNumber.IsZero() {
		product.DefaultNumber = decimal.NewFromInt(1)
	}

	saved, err := s.repo.UpsertProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) ReorderAdvisories(ctx context.Context) ([]domain.ReorderAdvisory, error) {
	return s.repo.ListReorderAdvisories(ctx)
}

// Customer ledger.

// dobLayouts are the two accepted date-of-birth input formats. Values are
// normalized to ISO on write.
var dobLayouts = []string{"2006-01-02", "02/01/2006"}

func normalizeDOB(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	for _, layout := range dobLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("date of birth %q must be YYYY-MM-DD or DD/MM/YYYY: %w", raw, store.ErrInvalidInput)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, phone string) (*domain.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("customer phone must not be blank: %w", store.ErrInvalidInput)
	}
	return s.repo.GetCustomerByPhone(ctx, phone)
}

func (s *Service) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	customer.Phone = strings.TrimSpace(customer.Phone)
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.Phone == "" {
		return fmt.Errorf("customer phone must not be blank: %w", store.ErrInvalidInput)
	}

	dob, err := normalizeDOB(customer.DOB)
	if err != nil {
		return err
	}
	customer.DOB = dob

	if customer.Status == "" {
		customer.Status = domain.CustomerActive
	}
	if customer.Status != domain.CustomerActive && customer.Status != domain.CustomerDisactive {
		return fmt.Errorf("customer status %q is not recognized: %w", customer.Status, store.ErrInvalidInput)
	}

	return s.repo.UpsertCustomer(ctx, customer)
}

// Sale transaction engine.

// CreateSale validates the request, resolves code-based cart lines against
// the catalog (snapshotting the sell price at resolution time), computes the
// total and hands the draft to the repository, which persists it atomically.
// All validation happens before any mutation.
func (s *Service) CreateSale(ctx context.Context, req domain.CreateSaleRequest) (domain.SaleReceipt, error) {
	if len(req.Cart) == 0 && len(req.Lines) == 0 {
		return domain.SaleReceipt{}, fmt.Errorf("sale must have at least one line: %w", store.ErrInvalidInput)
	}

	lines := make([]domain.ResolvedLine, 0, len(req.Cart)+len(req.Lines))

	for _, entry := range req.Cart {
		code := strings.TrimSpace(entry.Code)
		if code == "" {
			return domain.SaleReceipt{}, fmt.Errorf("cart line has a blank product code: %w", store.ErrInvalidInput)
		}
		if !entry.Quantity.IsPositive() {
			return domain.SaleReceipt{}, fmt.Errorf("cart line %s has quantity %s, must be positive: %w",
				code, entry.Quantity, store.ErrInvalidInput)
		}

		product, err := s.repo.GetProductByCode(ctx, code)
		if err != nil {
			return domain.SaleReceipt{}, err
		}
		if product.ID == 0 {
			return domain.SaleReceipt{}, fmt.Errorf("product %s has no persisted id: %w", code, store.ErrInvalidState)
		}

		lines = append(lines, domain.ResolvedLine{
			ItemID:   product.ID,
			Quantity: entry.Quantity,
			Price:    product.SellPrice,
		})
	}

	for _, line := range req.Lines {
		if line.ItemID == 0 {
			return domain.SaleReceipt{}, fmt.Errorf("sale line has no product id: %w", store.ErrInvalidState)
		}
		if !line.Quantity.IsPositive() {
			return domain.SaleReceipt{}, fmt.Errorf("sale line for item %d has quantity %s, must be positive: %w",
				line.ItemID, line.Quantity, store.ErrInvalidInput)
		}
		lines = append(lines, line)
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Quantity.Mul(line.Price))
	}

	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = domain.PaymentCash
	}

	draft := domain.SaleDraft{
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Lines:         lines,
		Total:         total,
		Paid:          req.Paid,
		PaymentMethod: method,
		CreatedBy:     actorUsername(ctx, req.CreatedBy),
		CreatedAt:     time.Now().UTC(),
	}

	saleID, err := s.repo.CreateSale(ctx, draft)
	if err != nil {
		return domain.SaleReceipt{}, err
	}

	return domain.SaleReceipt{
		SaleID:  saleID,
		Total:   total,
		Paid:    req.Paid,
		Balance: total.Sub(req.Paid),
	}, nil
}

// Reporting.

func (s *Service) DailySales(ctx context.Context) ([]domain.SaleSummary, error) {
	return s.repo.ListSales(ctx, domain.SaleQuery{Period: domain.PeriodToday, CreatedBy: reportScope(ctx)})
}

func (s *Service) MonthlySales(ctx context.Context) ([]domain.SaleSummary, error) {
	return s.repo.ListSales(ctx, domain.SaleQuery{Period: domain.PeriodThisMonth, CreatedBy: reportScope(ctx)})
}

func (s *Service) AllSales(ctx context.Context, limit int) ([]domain.SaleSummary, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListSales(ctx, domain.SaleQuery{Limit: limit, CreatedBy: reportScope(ctx)})
}

// SalesByDateRange lists sales between two inclusive dates, unscoped by
// actor; the transport restricts it to admins.
func (s *Service) SalesByDateRange(ctx context.Context, from string, to string) ([]domain.SaleSummary, error) {
	for _, date := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fmt.Errorf("date %q must be YYYY-MM-DD: %w", date, store.ErrInvalidInput)
		}
	}
	return s.repo.ListSales(ctx, domain.SaleQuery{From: from, To: to})
}

func (s *Service) StatsForPeriod(ctx context.Context, period string) (domain.ReportStats, error) {
	return s.repo.GetStatsForPeriod(ctx, period, reportScope(ctx))
}

func (s *Service) CashTotalForUser(ctx context.Context, period string, username string) (decimal.Decimal, error) {
	return s.repo.CashTotalForUser(ctx, period, strings.TrimSpace(username))
}

func (s *Service) MonthlyStats(ctx context.Context) (domain.MonthlyStats, error) {
	return s.repo.MonthlyStats(ctx)
}

func (s *Service) PaymentMethodSummary(ctx context.Context) ([]domain.PaymentMethodTotal, error) {
	return s.repo.PaymentMethodSummary(ctx)
}

func (s *Service) UserSalesSummaries(ctx context.Context, period string) ([]domain.UserSalesSummary, error) {
	return s.repo.UserSalesSummaries(ctx, period)
}

// Invoice projection.

// Invoice returns the projection for one sale, consulting the cache first.
// Cache failures degrade to a direct read and never surface to the caller.
func (s *Service) Invoice(ctx context.Context, saleID int64) (*domain.Invoice, error) {
	key := fmt.Sprintf("invoice:%d", saleID)

	cached, ok, err := s.invoiceCache.Get(ctx, key)
	if err != nil {
		log.Printf("[service] WARN: invoice cache get %s: %v", key, err)
	}
	if ok {
		return cached, nil
	}

	invoice, err := s.repo.GetInvoice(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceCache.Set(ctx, key, invoice, s.invoiceTTL); err != nil {
		log.Printf("[service] WARN: invoice cache set %s: %v", key, err)
	}
	return invoice, nil
}

// Users.

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (domain.UserAccount, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < 4 {
		return domain.UserAccount{}, fmt.Errorf("username must be at least 4 characters: %w", store.ErrInvalidInput)
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return domain.UserAccount{}, fmt.Errorf("username must not contain spaces: %w", store.ErrInvalidInput)
	}
	if len(req.Password) < 6 {
		return domain.UserAccount{}, fmt.Errorf("password must be at least 6 characters: %w", store.ErrInvalidInput)
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		role = domain.RoleCashier
	}
	if role != domain.RoleAdmin && role != domain.RoleCashier {
		return domain.UserAccount{}, fmt.Errorf("role %q is not recognized: %w", req.Role, store.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.CreateUser(ctx, domain.UserAccount{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return domain.UserAccount{}, err
	}
	return *created, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateUserPassword rehashes and replaces the password of an existing
// account. Existing tokens stay valid until they expire.
func (s *Service) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return fmt.Errorf("username must not be blank: %w", store.ErrInvalidInput)
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters: %w", store.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdateUserPassword(ctx, username, string(hash))
}

// EnsureAdminUser seeds the admin account on an empty users table so a fresh
// install can log in. No-op when any user already exists.
func (s *Service) EnsureAdminUser(ctx context.Context, password string) error {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	if password == "" {
		password = "admin123"
		log.Println("[service] WARNING: seeding admin with default dev password. Set SEED_ADMIN_PASSWORD to override.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	_, err = s.repo.CreateUser(ctx, domain.UserAccount{
		Username:     "admin",
		PasswordHash: string(hash),
		DisplayName:  "Administrator",
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	return err
}
