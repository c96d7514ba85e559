package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period filter literals accepted by reporting queries. The match is
// case-sensitive; any other value (including PeriodAll) applies no period
// predicate.
const (
	PeriodToday     = "Today"
	PeriodThisMonth = "This Month"
	PeriodAll       = "All"
)

// Payment methods the application writes. The payments.method column is an
// open string, not a closed enum, so readers must tolerate other values.
const (
	PaymentCash   = "CASH"
	PaymentCredit = "CREDIT"
	PaymentMobile = "MOBILE_BANKING"
	PaymentCard   = "CARD"
)

const (
	RoleAdmin   = "ADMIN"
	RoleCashier = "CASHIER"
)

// SystemActor is attributed to sales and payments created without an
// authenticated user.
const SystemActor = "SYSTEM"

// Customer status values. Customers are never hard-deleted, only flipped to
// Disactive.
const (
	CustomerActive    = "Active"
	CustomerDisactive = "Disactive"
)

// WalkInCustomerName is the display name used on invoices for sales with no
// customer phone.
const WalkInCustomerName = "Walk-in Customer"

type Product struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	UOM           string          `json:"uom"`
	BuyPrice      decimal.Decimal `json:"buy_price"`
	SellPrice     decimal.Decimal `json:"sell_price"`
	DefaultNumber decimal.Decimal `json:"default_number"`
	Stock         decimal.Decimal `json:"stock"`
	ReorderLevel  decimal.Decimal `json:"reorder_level"`
}

type Customer struct {
	Phone       string          `json:"phone"`
	Name        string          `json:"name"`
	Address     string          `json:"address"`
	DOB         string          `json:"dob"`
	Email       string          `json:"email"`
	Status      string          `json:"status"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// Sale is the header row of a transaction. Total is frozen at creation time;
// lines are immutable once written, so it is never recomputed.
type Sale struct {
	ID            int64           `json:"id"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Paid          decimal.Decimal `json:"paid"`
	CreatedAt     time.Time       `json:"created_at"`
	CreatedBy     string          `json:"created_by"`
}

type SaleLine struct {
	ID       int64           `json:"id"`
	SaleID   int64           `json:"sale_id"`
	ItemID   int64           `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type Payment struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"sale_id"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	CreatedBy string          `json:"created_by"`
}

type UserAccount struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// CartLine is a code-based cart entry. Item id and unit price are resolved
// against the catalog when the sale is created, snapshotting the sell price
// at that moment.
type CartLine struct {
	Code     string          `json:"code"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ResolvedLine is a sale line with product id and price already fixed.
type ResolvedLine struct {
	ItemID   int64           `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// SaleDraft is the fully resolved sale handed to the repository. It is
// persisted atomically: header insert, line batch, per-line stock decrement,
// one payment row.
type SaleDraft struct {
	CustomerPhone string
	Lines         []ResolvedLine
	Total         decimal.Decimal
	Paid          decimal.Decimal
	PaymentMethod string
	CreatedBy     string
	CreatedAt     time.Time
}

// CreateSaleRequest accepts either pre-resolved lines or a code-based cart.
// Both reduce to the same atomic store operation.
type CreateSaleRequest struct {
	CustomerPhone string          `json:"customer_phone,omitempty"`
	Cart          []CartLine      `json:"cart,omitempty"`
	Lines         []ResolvedLine  `json:"lines,omitempty"`
	Paid          decimal.Decimal `json:"paid"`
	PaymentMethod string          `json:"payment_method"`
	CreatedBy     string          `json:"-"`
}

// SaleReceipt is returned by the write path.
type SaleReceipt struct {
	SaleID  int64           `json:"sale_id"`
	Total   decimal.Decimal `json:"total"`
	Paid    decimal.Decimal `json:"paid"`
	Balance decimal.Decimal `json:"balance"`
}

// SaleSummary is one row of a sales list. Balance is computed on read, never
// stored.
type SaleSummary struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	Paid         decimal.Decimal `json:"paid"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
	CreatedBy    string          `json:"created_by"`
}

// SaleQuery restricts sale list queries. Period and CreatedBy compose with
// AND; both absent yields an unconditional query.
type SaleQuery struct {
	Period    string
	CreatedBy string
	Limit     int
	From      string // inclusive date, YYYY-MM-DD
	To        string
}

// MethodBreakdown sums payments.amount grouped by method for the filtered
// sales. Missing methods stay zero.
type MethodBreakdown struct {
	Cash   decimal.Decimal `json:"cash"`
	Credit decimal.Decimal `json:"credit"`
	Mobile decimal.Decimal `json:"mobile_banking"`
	Card   decimal.Decimal `json:"card"`
}

type ReportStats struct {
	TotalSales   decimal.Decimal `json:"total_sales"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	InvoiceCount int64           `json:"invoice_count"`
	Methods      MethodBreakdown `json:"methods"`
}

// MonthlyStats carries the current-month totals. Cash is an approximation:
// the summed totals of sales that are paid in full and have at least one
// CASH payment; Credit is the remainder. Callers depend on this figure, so
// it is not replaced with a true per-payment allocation.
type MonthlyStats struct {
	Total  decimal.Decimal `json:"total"`
	Cash   decimal.Decimal `json:"cash"`
	Credit decimal.Decimal `json:"credit"`
}

type PaymentMethodTotal struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

// UserSalesSummary is the per-actor rollup. DisplayName falls back to the raw
// created_by value when no user record exists.
type UserSalesSummary struct {
	Username     string          `json:"username"`
	DisplayName  string          `json:"display_name"`
	InvoiceCount int64           `json:"invoice_count"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	Methods      MethodBreakdown `json:"methods"`
}

// ReorderAdvisory lists products at or below their reorder level. Advisory
// only: the write path never blocks on stock.
type ReorderAdvisory struct {
	Code         string          `json:"code"`
	Description  string          `json:"description"`
	Stock        decimal.Decimal `json:"stock"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
}

type InvoiceItem struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Invoice is the denormalized read view of one sale. Subtotal is recomputed
// from the lines; Total comes from the stored header. The two normally agree
// but are kept distinct on purpose.
type Invoice struct {
	Number        int64           `json:"number"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	Date          time.Time       `json:"date"`
	Items         []InvoiceItem   `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Paid          decimal.Decimal `json:"paid"`
	PaymentMethod string          `json:"payment_method"`
}

type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type UserCreateRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type PasswordUpdateRequest struct {
	Password string `json:"password"`
}
