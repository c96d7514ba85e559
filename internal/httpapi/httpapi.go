// Package httpapi is the JSON transport over the sales core: a thin layer
// that decodes requests, delegates to the service and formats money to two
// fraction digits for display. Internal precision never leaves the core.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"dokanpos/internal/domain"
	"dokanpos/internal/service"
	"dokanpos/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{a.allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(a.withSecurity)

	r.Get("/healthz", a.handleHealth)
	r.Post("/api/v1/auth/login", a.handleLogin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth(domain.RoleCashier, domain.RoleAdmin))

			r.Get("/products", a.handleListProducts)
			r.Get("/products/{code}", a.handleGetProduct)

			r.Get("/customers", a.handleListCustomers)
			r.Post("/customers", a.handleSaveCustomer)
			r.Get("/customers/{phone}", a.handleGetCustomer)

			r.Post("/sales", a.handleCreateSale)
			r.Get("/sales", a.handleListSales)

			r.Get("/reports/stats", a.handleStats)
			r.Get("/reports/stats/export", a.handleStatsCSV)
			r.Get("/reports/cash-total", a.handleCashTotal)

			r.Get("/invoices/{id}", a.handleInvoice)
			r.Get("/invoices/{id}/print", a.handleInvoicePrint)
		})

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth(domain.RoleAdmin))

			r.Post("/products", a.handleSaveProduct)
			r.Get("/sales/range", a.handleSalesRange)
			r.Get("/reports/monthly", a.handleMonthlyStats)
			r.Get("/reports/payment-methods", a.handlePaymentMethods)
			r.Get("/reports/users", a.handleUserSummaries)
			r.Get("/reports/reorder", a.handleReorderAdvisories)
			r.Get("/users", a.handleListUsers)
			r.Post("/users", a.handleCreateUser)
			r.Post("/users/{username}/password", a.handleUpdateUserPassword)
		})
	})

	return r
}

// withSecurity sets the security headers, caps JSON bodies at 1 MiB and logs
// every request with its latency.
func (a *API) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if r.Method == http.MethodPost && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func (a *API) requireAuth(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
				writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
				return
			}

			token := strings.TrimSpace(authorization[len("Bearer "):])
			actor, err := a.auth.ParseToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err)
				return
			}

			if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
				writeError(w, http.StatusForbidden, errors.New("forbidden role"))
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithActor(r.Context(), actor)))
		})
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Catalog handlers.

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.service.GetProduct(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*product))
}

// handleSaveProduct gives the upsert update-by-code semantics: when the
// payload carries no id but a product with the same code exists, the
// existing id is adopted so the upsert becomes an update.
func (a *API) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	var payload domain.Product
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if payload.ID == 0 && strings.TrimSpace(payload.Code) != "" {
		existing, err := a.service.GetProduct(r.Context(), payload.Code)
		switch {
		case err == nil:
			payload.ID = existing.ID
		case !errors.Is(err, store.ErrNotFound):
			writeServiceError(w, err)
			return
		}
	}

	saved, err := a.service.SaveProduct(r.Context(), payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(saved))
}

// Customer handlers.

func (a *API) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := a.service.ListCustomers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, toCustomerResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := a.service.GetCustomer(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(*customer))
}

func (a *API) handleSaveCustomer(w http.ResponseWriter, r *http.Request) {
	var payload domain.Customer
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.service.SaveCustomer(r.Context(), payload); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"phone": strings.TrimSpace(payload.Phone)})
}

// Sale handlers.

func (a *API) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Attribution always comes from the authenticated actor, never the
	// payload.
	req.CreatedBy = ""

	receipt, err := a.service.CreateSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, saleReceiptResponse{
		SaleID:  receipt.SaleID,
		Total:   money(receipt.Total),
		Paid:    money(receipt.Paid),
		Balance: money(receipt.Balance),
	})
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")

	var (
		summaries []domain.SaleSummary
		err       error
	)
	switch period {
	case domain.PeriodToday:
		summaries, err = a.service.DailySales(r.Context())
	case domain.PeriodThisMonth:
		summaries, err = a.service.MonthlySales(r.Context())
	default:
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 1000)
		summaries, err = a.service.AllSales(r.Context(), limit)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleSummaryResponses(summaries))
}

func (a *API) handleSalesRange(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	summaries, err := a.service.SalesByDateRange(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleSummaryResponses(summaries))
}

// Report handlers.

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.service.StatsForPeriod(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (a *API) handleStatsCSV(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	stats, err := a.service.StatsForPeriod(r.Context(), period)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sales-stats.csv"`)
	_, _ = w.Write([]byte(statsToCSV(period, stats)))
}

func (a *API) handleCashTotal(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	username := r.URL.Query().Get("username")

	// Cashiers only ever see their own cash total.
	if actor, ok := service.ActorFromContext(r.Context()); ok && actor.Role != domain.RoleAdmin {
		username = actor.Username
	}

	total, err := a.service.CashTotalForUser(r.Context(), period, username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username":   username,
		"period":     period,
		"cash_total": money(total),
	})
}

func (a *API) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.service.MonthlyStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, monthlyStatsResponse{
		Total:  money(stats.Total),
		Cash:   money(stats.Cash),
		Credit: money(stats.Credit),
	})
}

func (a *API) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	totals, err := a.service.PaymentMethodSummary(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]paymentMethodResponse, 0, len(totals))
	for _, t := range totals {
		resp = append(resp, paymentMethodResponse{
			Method: t.Method,
			Amount: money(t.Amount),
			Count:  t.Count,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleUserSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := a.service.UserSalesSummaries(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]userSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, userSummaryResponse{
			Username:     s.Username,
			DisplayName:  s.DisplayName,
			InvoiceCount: s.InvoiceCount,
			TotalSales:   money(s.TotalSales),
			TotalPaid:    money(s.TotalPaid),
			Methods:      toMethodsResponse(s.Methods),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleReorderAdvisories(w http.ResponseWriter, r *http.Request) {
	advisories, err := a.service.ReorderAdvisories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]reorderResponse, 0, len(advisories))
	for _, adv := range advisories {
		resp = append(resp, reorderResponse{
			Code:         adv.Code,
			Description:  adv.Description,
			Stock:        adv.Stock.String(),
			ReorderLevel: adv.ReorderLevel.String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Invoice handlers.

func (a *API) handleInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, ok := a.fetchInvoice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

func (a *API) handleInvoicePrint(w http.ResponseWriter, r *http.Request) {
	invoice, ok := a.fetchInvoice(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(invoiceToPrintableHTML(invoice)))
}

func (a *API) fetchInvoice(w http.ResponseWriter, r *http.Request) (*domain.Invoice, bool) {
	saleID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || saleID < 1 {
		writeError(w, http.StatusBadRequest, errors.New("invoice id must be a positive integer"))
		return nil, false
	}

	invoice, err := a.service.Invoice(r.Context(), saleID)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return invoice, true
}

// User handlers.

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := a.service.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleUpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	username := chi.URLParam(r, "username")
	if err := a.service.UpdateUserPassword(r.Context(), username, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": strings.ToLower(strings.TrimSpace(username))})
}

// Shared plumbing.

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// money renders a decimal with two fraction digits, the display contract for
// every monetary value crossing this boundary.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx details stay in the log; the response carries a generic message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
