package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"dokanpos/internal/domain"
)

var (
	// ErrNotFound covers missing products, customers, sales and users.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for rejected writes; nothing is mutated.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState marks defensive checks that should be unreachable,
	// e.g. a catalog product without a persisted id.
	ErrInvalidState = errors.New("invalid state")
)

// Repository is the storage contract shared by the SQLite store and the
// in-memory store. Every call is synchronous; CreateSale is the only
// multi-statement write and must be atomic.
type Repository interface {
	// Catalog.
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByCode(ctx context.Context, code string) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	ListReorderAdvisories(ctx context.Context) ([]domain.ReorderAdvisory, error)

	// Customer ledger. UpsertCustomer updates by phone first and inserts
	// when no row was affected, making phone a natural idempotent key.
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	UpsertCustomer(ctx context.Context, customer domain.Customer) error

	// Sale transaction engine write path. Returns the new sale id.
	CreateSale(ctx context.Context, draft domain.SaleDraft) (int64, error)

	// Reporting.
	ListSales(ctx context.Context, query domain.SaleQuery) ([]domain.SaleSummary, error)
	GetStatsForPeriod(ctx context.Context, period string, createdBy string) (domain.ReportStats, error)
	CashTotalForUser(ctx context.Context, period string, username string) (decimal.Decimal, error)
	MonthlyStats(ctx context.Context) (domain.MonthlyStats, error)
	PaymentMethodSummary(ctx context.Context) ([]domain.PaymentMethodTotal, error)
	UserSalesSummaries(ctx context.Context, period string) ([]domain.UserSalesSummary, error)

	// Invoice projection.
	GetInvoice(ctx context.Context, saleID int64) (*domain.Invoice, error)

	// Users.
	CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, passwordHash string) error
}
