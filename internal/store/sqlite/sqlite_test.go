package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dokanpos/internal/domain"
	"dokanpos/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pos.db")
	s, err := New(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func requireDecEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func seedProduct(t *testing.T, s *Store, code string, sellPrice string, stock string) domain.Product {
	t.Helper()

	created, err := s.UpsertProduct(context.Background(), domain.Product{
		Code:          code,
		Description:   "test product " + code,
		UOM:           "pcs",
		SellPrice:     decimal.RequireFromString(sellPrice),
		DefaultNumber: decimal.NewFromInt(1),
		Stock:         decimal.RequireFromString(stock),
		ReorderLevel:  decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	require.Positive(t, created.ID)
	return *created
}

func createSale(t *testing.T, s *Store, draft domain.SaleDraft) int64 {
	t.Helper()

	id, err := s.CreateSale(context.Background(), draft)
	require.NoError(t, err)
	require.Positive(t, id)
	return id
}

func TestReopenExistingDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pos.db")

	first, err := New(ctx, path)
	require.NoError(t, err)
	seedProduct(t, first, "P001", "10", "5")
	require.NoError(t, first.Close())

	// Reopening runs the schema and column upgrades again; both must be
	// idempotent and data must survive.
	second, err := New(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	product, err := second.GetProductByCode(ctx, "P001")
	require.NoError(t, err)
	requireDecEqual(t, "10", product.SellPrice)
}

func TestEnsureColumnIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ensureColumn(ctx, "sales", "created_by", "TEXT NOT NULL DEFAULT 'SYSTEM'"))
	require.NoError(t, s.ensureColumn(ctx, "sales", "created_by", "TEXT NOT NULL DEFAULT 'SYSTEM'"))

	// A genuinely new column is added exactly once.
	require.NoError(t, s.ensureColumn(ctx, "sales", "note", "TEXT"))
	require.NoError(t, s.ensureColumn(ctx, "sales", "note", "TEXT"))
}

func TestProductUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := seedProduct(t, s, "P001", "10", "5")

	created.SellPrice = decimal.RequireFromString("12.50")
	updated, err := s.UpsertProduct(ctx, created)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)

	fetched, err := s.GetProductByID(ctx, created.ID)
	require.NoError(t, err)
	requireDecEqual(t, "12.5", fetched.SellPrice)

	_, err = s.UpsertProduct(ctx, domain.Product{Code: "P001"})
	require.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = s.GetProductByCode(ctx, "NOPE")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListProductsOrderedByCode(t *testing.T) {
	s := newTestStore(t)

	seedProduct(t, s, "P002", "5", "1")
	seedProduct(t, s, "P001", "5", "1")

	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "P001", products[0].Code)
	assert.Equal(t, "P002", products[1].Code)
}

func TestCustomerUpsertIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	customer := domain.Customer{
		Phone:       "01700000001",
		Name:        "Rahim",
		Address:     "Dhaka",
		DOB:         "1990-05-01",
		Email:       "rahim@example.com",
		Status:      domain.CustomerActive,
		CreditLimit: decimal.NewFromInt(500),
	}
	require.NoError(t, s.UpsertCustomer(ctx, customer))
	require.NoError(t, s.UpsertCustomer(ctx, customer))

	customers, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Rahim", customers[0].Name)
	requireDecEqual(t, "500", customers[0].CreditLimit)

	customer.Name = "Rahim Uddin"
	require.NoError(t, s.UpsertCustomer(ctx, customer))
	fetched, err := s.GetCustomerByPhone(ctx, "01700000001")
	require.NoError(t, err)
	assert.Equal(t, "Rahim Uddin", fetched.Name)
}

func TestCreateSaleDecrementsStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, s, "P001", "10", "5")

	saleID := createSale(t, s, domain.SaleDraft{
		Lines: []domain.ResolvedLine{
			{ItemID: product.ID, Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(10)},
		},
		Total:         decimal.NewFromInt(20),
		Paid:          decimal.NewFromInt(20),
		PaymentMethod: domain.PaymentCash,
		CreatedBy:     "admin",
	})

	after, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	requireDecEqual(t, "3", after.Stock)

	summaries, err := s.ListSales(ctx, domain.SaleQuery{Period: domain.PeriodToday})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, saleID, summaries[0].ID)
	assert.Equal(t, "no customer", summaries[0].CustomerName)
	requireDecEqual(t, "20", summaries[0].Total)
	requireDecEqual(t, "20", summaries[0].Paid)
	requireDecEqual(t, "0", summaries[0].Balance)
}

func TestCreateSaleRepeatedProductAccumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, s, "P001", "10", "10")

	createSale(t, s, domain.SaleDraft{
		Lines: []domain.ResolvedLine{
			{ItemID: product.ID, Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(10)},
			{ItemID: product.ID, Quantity: decimal.NewFromInt(3), Price: decimal.NewFromInt(10)},
		},
		Total: decimal.NewFromInt(50),
		Paid:  decimal.NewFromInt(50),
	})

	after, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	requireDecEqual(t, "5", after.Stock)
}

func TestCreateSaleAllowsNegativeStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, s, "P001", "10", "1")

	createSale(t, s, domain.SaleDraft{
		Lines: []domain.ResolvedLine{
			{ItemID: product.ID, Quantity: decimal.NewFromInt(4), Price: decimal.NewFromInt(10)},
		},
		Total: decimal.NewFromInt(40),
		Paid:  decimal.NewFromInt(40),
	})

	after, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	requireDecEqual(t, "-3", after.Stock)
}

func TestCreateSaleUnknownItemIDRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, s, "P001", "10", "5")

	// A line referencing no product row must roll the whole sale back,
	// including lines that did resolve.
	_, err := s.CreateSale(ctx, domain.SaleDraft{
		Lines: []domain.ResolvedLine{
			{ItemID: product.ID, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)},
			{ItemID: 9999, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)},
		},
		Total: decimal.NewFromInt(20),
		Paid:  decimal.NewFromInt(20),
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	after, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	requireDecEqual(t, "5", after.Stock)

	summaries, err := s.ListSales(ctx, domain.SaleQuery{})
	require.NoError(t, err)
	assert.Empty(t, summaries)

	stats, err := s.GetStatsForPeriod(ctx, domain.PeriodAll, "")
	require.NoError(t, err)
	assert.Zero(t, stats.InvoiceCount)
	requireDecEqual(t, "0", stats.TotalPaid)
}

func TestCreateSaleEmptyLinesRejected(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateSale(context.Background(), domain.SaleDraft{})
	require.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestCreateSaleRollsBackOnFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, s, "P001", "10", "5")

	// An unknown customer phone violates the foreign key after the header
	// insert; the whole sequence must roll back.
	_, err := s.CreateSale(ctx, domain.SaleDraft{
		CustomerPhone: "00000000000",
		Lines: []domain.ResolvedLine{
			{ItemID: product.ID, Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(10)},
		},
		Total: decimal.NewFromInt(20),
		Paid:  decimal.NewFromInt(20),
	})
	require.Error(t, err)

	after, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	requireDecEqual(t, "5", after.Stock)

	summaries, err := s.ListSales(ctx, domain.SaleQuery{})
	require.NoError(t, err)
	assert.Empty(t, summaries)

	stats, err := s.GetStatsForPeriod(ctx, domain.PeriodAll, "")
	require.NoError(t, err)
	assert.Zero(t, stats.InvoiceCount)
}

func TestStatsForPeriodEmptyStoreIsZero(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.GetStatsForPeriod(context.Background(), domain.PeriodToday, "")
	require.NoError(t, err)
	assert.Zero(t, stats.InvoiceCount)
	requireDecEqual(t, "0", stats.TotalSales)
	requireDecEqual(t, "0", stats.TotalPaid)
	requireDecEqual(t, "0", stats.TotalBalance)
	requireDecEqual(t, "0", stats.Methods.Cash)
	requireDecEqual(t, "0", stats.Methods.Card)
}

func TestStatsForPeriodCreditSale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, s, "P001", "10", "5")
	createSale(t, s, domain.SaleDraft{
		Lines: []domain.ResolvedLine{
			{ItemID: product.ID, Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(10)},
		},
		Total:         decimal.NewFromInt(20),
		Paid:          decimal.NewFromInt(5),
		PaymentMethod: domain.PaymentCredit,
	})

	stats, err := s.GetStatsForPeriod(ctx, domain.PeriodToday, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.InvoiceCount)
	requireDecEqual(t, "20", stats.TotalSales)
	requireDecEqual(t, "5", stats.TotalPaid)
	requireDecEqual(t, "15", stats.TotalBalance)
	requireDecEqual(t, "5", stats.Methods.Credit)
	requireDecEqual(t, "0", stats.Methods.Cash)

	summaries, err := s.ListSales(ctx, domain.SaleQuery{Period: domain.PeriodToday})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	requireDecEqual(t, "15", summaries[0].Balance)
}

func TestStatsForPeriodActorScope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, s, "P001", "10", "50")
	createSale(t, s, domain.SaleDraft{
		Lines:     []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)}},
		Total:     decimal.NewFromInt(10),
		Paid:      decimal.NewFromInt(10),
		CreatedBy: "alice",
	})
	createSale(t, s, domain.SaleDraft{
		Lines:     []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(3), Price: decimal.NewFromInt(10)}},
		Total:     decimal.NewFromInt(30),
		Paid:      decimal.NewFromInt(30),
		CreatedBy: "bob",
	})

	scoped, err := s.GetStatsForPeriod(ctx, domain.PeriodToday, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, scoped.InvoiceCount)
	requireDecEqual(t, "10", scoped.TotalSales)

	unscoped, err := s.GetStatsForPeriod(ctx, domain.PeriodToday, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, unscoped.InvoiceCount)
	requireDecEqual(t, "40", unscoped.TotalSales)
}

func TestCashTotalForUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	total, err := s.CashTotalForUser(ctx, domain.PeriodToday, "")
	require.NoError(t, err)
	requireDecEqual(t, "0", total)

	product := seedProduct(t, s, "P001", "10", "50")
	createSale(t, s, domain.SaleDraft{
		Lines:         []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(20),
		Paid:          decimal.NewFromInt(20),
		PaymentMethod: domain.PaymentCash,
		CreatedBy:     "alice",
	})
	createSale(t, s, domain.SaleDraft{
		Lines:         []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(10),
		Paid:          decimal.NewFromInt(10),
		PaymentMethod: domain.PaymentCard,
		CreatedBy:     "alice",
	})

	total, err = s.CashTotalForUser(ctx, domain.PeriodToday, "alice")
	require.NoError(t, err)
	requireDecEqual(t, "20", total)
}

func TestMonthlyStatsCashHeuristic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, s, "P001", "10", "50")

	// Fully paid with a CASH payment counts as cash.
	createSale(t, s, domain.SaleDraft{
		Lines:         []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(20),
		Paid:          decimal.NewFromInt(20),
		PaymentMethod: domain.PaymentCash,
	})
	// Partially paid CASH sale falls into credit despite the cash payment.
	createSale(t, s, domain.SaleDraft{
		Lines:         []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(3), Price: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(30),
		Paid:          decimal.NewFromInt(10),
		PaymentMethod: domain.PaymentCash,
	})
	// Fully paid by card is still credit under the heuristic.
	createSale(t, s, domain.SaleDraft{
		Lines:         []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(10),
		Paid:          decimal.NewFromInt(10),
		PaymentMethod: domain.PaymentCard,
	})

	stats, err := s.MonthlyStats(ctx)
	require.NoError(t, err)
	requireDecEqual(t, "60", stats.Total)
	requireDecEqual(t, "20", stats.Cash)
	requireDecEqual(t, "40", stats.Credit)
}

func TestPaymentMethodSummaryOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, s, "P001", "10", "50")
	createSale(t, s, domain.SaleDraft{
		Lines:         []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(10),
		Paid:          decimal.NewFromInt(10),
		PaymentMethod: domain.PaymentCash,
	})
	createSale(t, s, domain.SaleDraft{
		Lines:         []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(4), Price: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(40),
		Paid:          decimal.NewFromInt(40),
		PaymentMethod: domain.PaymentCard,
	})

	totals, err := s.PaymentMethodSummary(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, domain.PaymentCard, totals[0].Method)
	requireDecEqual(t, "40", totals[0].Amount)
	assert.EqualValues(t, 1, totals[0].Count)
	assert.Equal(t, domain.PaymentCash, totals[1].Method)
}

func TestUserSalesSummaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, domain.UserAccount{
		Username:     "alice",
		PasswordHash: "x",
		DisplayName:  "Alice A",
		Role:         domain.RoleCashier,
	})
	require.NoError(t, err)

	product := seedProduct(t, s, "P001", "10", "50")
	createSale(t, s, domain.SaleDraft{
		Lines:         []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(10),
		Paid:          decimal.NewFromInt(10),
		PaymentMethod: domain.PaymentCash,
		CreatedBy:     "alice",
	})
	createSale(t, s, domain.SaleDraft{
		Lines:         []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(3), Price: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(30),
		Paid:          decimal.NewFromInt(30),
		PaymentMethod: domain.PaymentCard,
		CreatedBy:     "bob",
	})

	summaries, err := s.UserSalesSummaries(ctx, domain.PeriodToday)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Ordered by total sales descending; bob has no user record so the raw
	// created_by value doubles as the display name.
	assert.Equal(t, "bob", summaries[0].Username)
	assert.Equal(t, "bob", summaries[0].DisplayName)
	requireDecEqual(t, "30", summaries[0].TotalSales)
	requireDecEqual(t, "30", summaries[0].Methods.Card)

	assert.Equal(t, "alice", summaries[1].Username)
	assert.Equal(t, "Alice A", summaries[1].DisplayName)
	requireDecEqual(t, "10", summaries[1].Methods.Cash)
}

func TestListSalesCustomerNameFallback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A customer row with an empty name falls back to the placeholder,
	// same as a missing customer.
	require.NoError(t, s.UpsertCustomer(ctx, domain.Customer{Phone: "01700000009", Name: ""}))
	product := seedProduct(t, s, "P001", "10", "5")
	createSale(t, s, domain.SaleDraft{
		CustomerPhone: "01700000009",
		Lines:         []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)}},
		Total:         decimal.NewFromInt(10),
		Paid:          decimal.NewFromInt(10),
	})

	summaries, err := s.ListSales(ctx, domain.SaleQuery{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "no customer", summaries[0].CustomerName)
}

func TestSalesByDateRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, s, "P001", "10", "50")
	createSale(t, s, domain.SaleDraft{
		Lines: []domain.ResolvedLine{{ItemID: product.ID, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)}},
		Total: decimal.NewFromInt(10),
		Paid:  decimal.NewFromInt(10),
	})

	today := time.Now().UTC().Format("2006-01-02")
	summaries, err := s.ListSales(ctx, domain.SaleQuery{From: today, To: today})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	summaries, err = s.ListSales(ctx, domain.SaleQuery{From: "2000-01-01", To: "2000-01-02"})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestGetInvoiceWalkIn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, s, "P001", "10", "5")
	saleID := createSale(t, s, domain.SaleDraft{
		Lines: []domain.ResolvedLine{
			{ItemID: product.ID, Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(10)},
		},
		Total:         decimal.NewFromInt(20),
		Paid:          decimal.NewFromInt(20),
		PaymentMethod: domain.PaymentMobile,
	})

	invoice, err := s.GetInvoice(ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, domain.WalkInCustomerName, invoice.CustomerName)
	assert.Empty(t, invoice.CustomerPhone)
	assert.Equal(t, domain.PaymentMobile, invoice.PaymentMethod)
	require.Len(t, invoice.Items, 1)
	assert.Equal(t, "P001", invoice.Items[0].Code)
	requireDecEqual(t, "20", invoice.Items[0].LineTotal)
	requireDecEqual(t, "20", invoice.Subtotal)
	requireDecEqual(t, "0", invoice.Tax)
	requireDecEqual(t, "20", invoice.Total)
}

func TestGetInvoiceWithCustomer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCustomer(ctx, domain.Customer{Phone: "01700000001", Name: "Rahim"}))
	product := seedProduct(t, s, "P001", "10", "5")
	saleID := createSale(t, s, domain.SaleDraft{
		CustomerPhone: "01700000001",
		Lines: []domain.ResolvedLine{
			{ItemID: product.ID, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)},
		},
		Total: decimal.NewFromInt(10),
		Paid:  decimal.NewFromInt(10),
	})

	invoice, err := s.GetInvoice(ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, "Rahim", invoice.CustomerName)
	assert.Equal(t, "01700000001", invoice.CustomerPhone)
}

func TestGetInvoiceNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetInvoice(context.Background(), 42)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReorderAdvisories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	low := seedProduct(t, s, "P001", "10", "2") // stock equals reorder level
	seedProduct(t, s, "P002", "10", "50")

	advisories, err := s.ListReorderAdvisories(ctx)
	require.NoError(t, err)
	require.Len(t, advisories, 1)
	assert.Equal(t, low.Code, advisories[0].Code)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, domain.UserAccount{
		Username:     "Admin",
		PasswordHash: "hash",
		DisplayName:  "Administrator",
		Role:         domain.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", created.Username)

	_, err = s.CreateUser(ctx, domain.UserAccount{Username: "ADMIN", PasswordHash: "hash"})
	require.ErrorIs(t, err, store.ErrInvalidInput)

	fetched, err := s.GetUserByUsername(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, fetched.Role)

	require.NoError(t, s.UpdateUserPassword(ctx, "admin", "newhash"))
	fetched, err = s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "newhash", fetched.PasswordHash)

	require.ErrorIs(t, s.UpdateUserPassword(ctx, "ghost", "x"), store.ErrNotFound)
}
