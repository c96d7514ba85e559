package httpapi

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"dokanpos/internal/domain"
)

type productResponse struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	Description   string `json:"description"`
	UOM           string `json:"uom"`
	BuyPrice      string `json:"buy_price"`
	SellPrice     string `json:"sell_price"`
	DefaultNumber string `json:"default_number"`
	Stock         string `json:"stock"`
	ReorderLevel  string `json:"reorder_level"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Code:          p.Code,
		Description:   p.Description,
		UOM:           p.UOM,
		BuyPrice:      money(p.BuyPrice),
		SellPrice:     money(p.SellPrice),
		DefaultNumber: p.DefaultNumber.String(),
		Stock:         p.Stock.String(),
		ReorderLevel:  p.ReorderLevel.String(),
	}
}

type customerResponse struct {
	Phone       string `json:"phone"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	DOB         string `json:"dob"`
	Email       string `json:"email"`
	Status      string `json:"status"`
	CreditLimit string `json:"credit_limit"`
}

func toCustomerResponse(c domain.Customer) customerResponse {
	return customerResponse{
		Phone:       c.Phone,
		Name:        c.Name,
		Address:     c.Address,
		DOB:         c.DOB,
		Email:       c.Email,
		Status:      c.Status,
		CreditLimit: money(c.CreditLimit),
	}
}

type saleReceiptResponse struct {
	SaleID  int64  `json:"sale_id"`
	Total   string `json:"total"`
	Paid    string `json:"paid"`
	Balance string `json:"balance"`
}

type saleSummaryResponse struct {
	ID           int64  `json:"id"`
	CustomerName string `json:"customer_name"`
	Total        string `json:"total"`
	Paid         string `json:"paid"`
	Balance      string `json:"balance"`
	CreatedAt    string `json:"created_at"`
	CreatedBy    string `json:"created_by"`
}

func toSaleSummaryResponses(summaries []domain.SaleSummary) []saleSummaryResponse {
	resp := make([]saleSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, saleSummaryResponse{
			ID:           s.ID,
			CustomerName: s.CustomerName,
			Total:        money(s.Total),
			Paid:         money(s.Paid),
			Balance:      money(s.Balance),
			CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
			CreatedBy:    s.CreatedBy,
		})
	}
	return resp
}

type methodsResponse struct {
	Cash   string `json:"cash"`
	Credit string `json:"credit"`
	Mobile string `json:"mobile_banking"`
	Card   string `json:"card"`
}

func toMethodsResponse(m domain.MethodBreakdown) methodsResponse {
	return methodsResponse{
		Cash:   money(m.Cash),
		Credit: money(m.Credit),
		Mobile: money(m.Mobile),
		Card:   money(m.Card),
	}
}

type statsResponse struct {
	TotalSales   string          `json:"total_sales"`
	TotalPaid    string          `json:"total_paid"`
	TotalBalance string          `json:"total_balance"`
	InvoiceCount int64           `json:"invoice_count"`
	Methods      methodsResponse `json:"methods"`
}

func toStatsResponse(stats domain.ReportStats) statsResponse {
	return statsResponse{
		TotalSales:   money(stats.TotalSales),
		TotalPaid:    money(stats.TotalPaid),
		TotalBalance: money(stats.TotalBalance),
		InvoiceCount: stats.InvoiceCount,
		Methods:      toMethodsResponse(stats.Methods),
	}
}

type monthlyStatsResponse struct {
	Total  string `json:"total"`
	Cash   string `json:"cash"`
	Credit string `json:"credit"`
}

type paymentMethodResponse struct {
	Method string `json:"method"`
	Amount string `json:"amount"`
	Count  int64  `json:"count"`
}

type userSummaryResponse struct {
	Username     string          `json:"username"`
	DisplayName  string          `json:"display_name"`
	InvoiceCount int64           `json:"invoice_count"`
	TotalSales   string          `json:"total_sales"`
	TotalPaid    string          `json:"total_paid"`
	Methods      methodsResponse `json:"methods"`
}

type reorderResponse struct {
	Code         string `json:"code"`
	Description  string `json:"description"`
	Stock        string `json:"stock"`
	ReorderLevel string `json:"reorder_level"`
}

type invoiceItemResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type invoiceResponse struct {
	Number        int64                 `json:"number"`
	CustomerName  string                `json:"customer_name"`
	CustomerPhone string                `json:"customer_phone,omitempty"`
	Date          string                `json:"date"`
	Items         []invoiceItemResponse `json:"items"`
	Subtotal      string                `json:"subtotal"`
	Tax           string                `json:"tax"`
	Total         string                `json:"total"`
	Paid          string                `json:"paid"`
	PaymentMethod string                `json:"payment_method"`
}

func toInvoiceResponse(invoice *domain.Invoice) invoiceResponse {
	items := make([]invoiceItemResponse, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		items = append(items, invoiceItemResponse{
			Code:        item.Code,
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   money(item.UnitPrice),
			LineTotal:   money(item.LineTotal),
		})
	}
	return invoiceResponse{
		Number:        invoice.Number,
		CustomerName:  invoice.CustomerName,
		CustomerPhone: invoice.CustomerPhone,
		Date:          invoice.Date.UTC().Format("2006-01-02"),
		Items:         items,
		Subtotal:      money(invoice.Subtotal),
		Tax:           money(invoice.Tax),
		Total:         money(invoice.Total),
		Paid:          money(invoice.Paid),
		PaymentMethod: invoice.PaymentMethod,
	}
}

func statsToCSV(period string, stats domain.ReportStats) string {
	if period == "" {
		period = domain.PeriodAll
	}
	lines := []string{
		"section,key,value",
		fmt.Sprintf("summary,period,%s", period),
		fmt.Sprintf("summary,invoice_count,%d", stats.InvoiceCount),
		fmt.Sprintf("summary,total_sales,%s", money(stats.TotalSales)),
		fmt.Sprintf("summary,total_paid,%s", money(stats.TotalPaid)),
		fmt.Sprintf("summary,total_balance,%s", money(stats.TotalBalance)),
		fmt.Sprintf("payment,cash,%s", money(stats.Methods.Cash)),
		fmt.Sprintf("payment,credit,%s", money(stats.Methods.Credit)),
		fmt.Sprintf("payment,mobile_banking,%s", money(stats.Methods.Mobile)),
		fmt.Sprintf("payment,card,%s", money(stats.Methods.Card)),
	}
	return strings.Join(lines, "\n") + "\n"
}

// invoiceHTMLTmpl renders the printable invoice. All customer-controlled
// fields are auto-escaped by html/template.
var invoiceHTMLTmpl = template.Must(template.New("invoice").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Invoice #{{.Number}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    .totals td { border: none; text-align: right; }
    h2 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>Invoice #{{.Number}}</h2>
  <p>Date: {{.Date}}</p>
  <p>Customer: {{.CustomerName}}{{if .CustomerPhone}} ({{.CustomerPhone}}){{end}}</p>

  <table>
    <thead><tr><th>Code</th><th>Description</th><th>Qty</th><th>Unit Price</th><th>Total</th></tr></thead>
    <tbody>{{range .Items}}<tr><td>{{.Code}}</td><td>{{.Description}}</td><td style="text-align:right;">{{.Quantity}}</td><td style="text-align:right;">{{.UnitPrice}}</td><td style="text-align:right;">{{.LineTotal}}</td></tr>{{end}}</tbody>
  </table>

  <table class="totals">
    <tr><td>Subtotal:</td><td>{{.Subtotal}}</td></tr>
    <tr><td>Tax:</td><td>{{.Tax}}</td></tr>
    <tr><td>Total:</td><td>{{.Total}}</td></tr>
    <tr><td>Paid ({{.PaymentMethod}}):</td><td>{{.Paid}}</td></tr>
  </table>
</body>
</html>
`))

func invoiceToPrintableHTML(invoice *domain.Invoice) string {
	var buf bytes.Buffer
	if err := invoiceHTMLTmpl.Execute(&buf, toInvoiceResponse(invoice)); err != nil {
		// Plain fallback page rather than leaking internal details.
		return "<!doctype html><html><body><p>Invoice rendering error.</p></body></html>"
	}
	return buf.String()
}
