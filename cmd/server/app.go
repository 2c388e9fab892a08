package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diewo77/go-freelance/auth"
	"github.com/diewo77/go-freelance/gate"
	"github.com/diewo77/go-freelance/httpx"
	"github.com/diewo77/go-freelance/i18n"
	"github.com/diewo77/go-freelance/internal/cache"
	"github.com/diewo77/go-freelance/internal/handlers"
	"github.com/diewo77/go-freelance/internal/policy"
	"github.com/diewo77/go-freelance/internal/receipts"
	"github.com/diewo77/go-freelance/internal/services"
	"github.com/diewo77/go-freelance/internal/store"
)

// Deps are the collaborators the routes are built from. A nil Cache disables
// overview caching, a nil Receipts disables receipt uploads.
type Deps struct {
	Store    *store.Store
	Cache    cache.Cache
	CacheTTL time.Duration
	Receipts receipts.Storage
	TokenTTL time.Duration
	Gate     *gate.Gate[uuid.UUID]
}

// App is the main application handler that sets up all routes.
type App struct {
	mux   *http.ServeMux
	store *store.Store

	auth     *handlers.AuthHandler
	profile  *handlers.ProfileHandler
	clients  *handlers.ClientHandler
	projects *handlers.ProjectHandler
	invoices *handlers.InvoiceHandler
	expenses *handlers.ExpenseHandler
	overview *handlers.OverviewHandler
}

// NewApp creates a new application with all routes configured.
func NewApp(d Deps) *App {
	g := d.Gate
	if g == nil {
		g = policy.NewGate()
	}
	overview := services.NewOverviewService(d.Store, d.Cache, d.CacheTTL)
	invoiceSvc := services.NewInvoiceService(d.Store, overview)
	projectSvc := services.NewProjectService(d.Store)

	app := &App{
		mux:      http.NewServeMux(),
		store:    d.Store,
		auth:     handlers.NewAuthHandler(d.Store, d.TokenTTL),
		profile:  handlers.NewProfileHandler(d.Store, g),
		clients:  handlers.NewClientHandler(d.Store, g, overview),
		projects: handlers.NewProjectHandler(d.Store, projectSvc, g, overview),
		invoices: handlers.NewInvoiceHandler(invoiceSvc, g),
		expenses: handlers.NewExpenseHandler(d.Store, d.Receipts, g),
		overview: handlers.NewOverviewHandler(overview),
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Apply global middleware: auth context + language preference
	handler := auth.Middleware(withPreferences(a.mux))
	handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	// Public routes
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.health)
	a.mux.HandleFunc("POST /api/auth/signup", a.auth.Signup)
	a.mux.HandleFunc("POST /api/auth/login", a.auth.Login)
	a.mux.HandleFunc("POST /api/auth/logout", a.auth.Logout)

	// Everything else under /api requires a user
	a.handle("GET /api/auth/me", a.auth.Me)

	a.handle("GET /api/profile", a.profile.Get)
	a.handle("PUT /api/profile", a.profile.Update)

	ch := a.clients
	a.handle("GET /api/clients", ch.List)
	a.handle("POST /api/clients", ch.Create)
	a.handle("GET /api/clients/{id}", ch.Get)
	a.handle("PUT /api/clients/{id}", ch.Update)
	a.handle("DELETE /api/clients/{id}", ch.Delete)
	a.handle("GET /api/clients/{id}/projects", ch.Projects)

	ph := a.projects
	a.handle("GET /api/projects", ph.List)
	a.handle("POST /api/projects", ph.Create)
	a.handle("GET /api/projects/{id}", ph.Get)
	a.handle("PUT /api/projects/{id}", ph.Update)
	a.handle("DELETE /api/projects/{id}", ph.Delete)
	a.handle("GET /api/projects/{id}/time-summary", ph.TimeSummary)
	a.handle("GET /api/projects/{id}/time-entries", ph.ListTimeEntries)
	a.handle("POST /api/projects/{id}/time-entries", ph.CreateTimeEntry)
	a.handle("PUT /api/time-entries/{id}", ph.UpdateTimeEntry)
	a.handle("DELETE /api/time-entries/{id}", ph.DeleteTimeEntry)

	ih := a.invoices
	a.handle("GET /api/invoices", ih.List)
	a.handle("POST /api/invoices", ih.Create)
	a.handle("GET /api/invoices/{id}", ih.Get)
	a.handle("PUT /api/invoices/{id}", ih.Update)
	a.handle("DELETE /api/invoices/{id}", ih.Delete)
	a.handle("GET /api/invoices/{id}/items", ih.ListItems)
	a.handle("PUT /api/invoices/{id}/items", ih.ReplaceItems)
	a.handle("GET /api/invoices/{id}/payments", ih.ListPayments)
	a.handle("POST /api/invoices/{id}/payments", ih.CreatePayment)
	a.handle("DELETE /api/payments/{id}", ih.DeletePayment)
	a.handle("POST /api/invoices/{id}/status", ih.ChangeStatus)
	a.handle("GET /api/invoices/{id}/status-suggestion", ih.StatusSuggestion)
	a.handle("GET /api/invoices/{id}/history", ih.History)

	eh := a.expenses
	a.handle("GET /api/expenses", eh.List)
	a.handle("POST /api/expenses", eh.Create)
	a.handle("GET /api/expenses/{id}", eh.Get)
	a.handle("PUT /api/expenses/{id}", eh.Update)
	a.handle("DELETE /api/expenses/{id}", eh.Delete)
	a.handle("POST /api/expenses/{id}/receipt", eh.UploadReceipt)
	a.handle("GET /api/expenses/{id}/receipt", eh.Receipt)

	a.handle("GET /api/overview", a.overview.Get)

	a.mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	})
}

// handle registers an authenticated route.
func (a *App) handle(pattern string, h http.HandlerFunc) {
	a.mux.Handle(pattern, auth.RequireAuth(h))
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.store.Ping(ctx); err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withPreferences picks the response language from the lang query or cookie,
// then Accept-Language.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := strings.ToLower(r.URL.Query().Get("lang")); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
			})
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}
