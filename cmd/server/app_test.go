package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-freelance/auth"
	"github.com/diewo77/go-freelance/internal/cache"
	"github.com/diewo77/go-freelance/internal/db"
	"github.com/diewo77/go-freelance/internal/receipts"
	"github.com/diewo77/go-freelance/internal/store"
)

func newTestApp(t *testing.T) (*App, *store.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	st := store.New(conn)
	auth.SetUserVerifier(st.UserExists)
	t.Cleanup(func() { auth.SetUserVerifier(nil) })
	return NewApp(Deps{
		Store:    st,
		Cache:    cache.NewMemory(),
		CacheTTL: time.Minute,
		Receipts: receipts.NewMemory(),
		TokenTTL: time.Hour,
	}), st
}

func serve(app *App, method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	for _, path := range []string{"/health", "/healthz"} {
		w := serve(app, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "ok", jsonBody(t, w)["status"])
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t)
	w := serve(app, http.MethodGet, "/api/clients", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", jsonBody(t, w)["error"])

	w = serve(app, http.MethodGet, "/api/clients", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(app, http.MethodGet, "/api/nothing-here", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvoicingFlow(t *testing.T) {
	app, _ := newTestApp(t)

	w := serve(app, http.MethodPost, "/api/auth/signup", `{"email":"flow@example.com","password":"password1"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := jsonBody(t, w)["token"].(string)

	// Session cookie authenticates too.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	app.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "flow@example.com", jsonBody(t, me)["email"])

	w = serve(app, http.MethodPut, "/api/profile", `{"default_currency":"EUR","default_tax_rate":"20"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(app, http.MethodPost, "/api/clients", `{"name":"Acme"}`, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	clientID := jsonBody(t, w)["id"].(string)

	w = serve(app, http.MethodPost, "/api/projects", `{"name":"Site","client_id":"`+clientID+`","rate_amount":"60"}`, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	project := jsonBody(t, w)
	assert.Equal(t, "EUR", project["currency"])
	projectID := project["id"].(string)

	w = serve(app, http.MethodPost, "/api/invoices",
		`{"project_id":"`+projectID+`","items":[{"description":"Build","quantity":"10","unit_price":"60"}]}`, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	invoice := jsonBody(t, w)
	invoiceID := invoice["id"].(string)
	assert.Equal(t, "DRAFT", invoice["status"])
	assert.Equal(t, clientID, invoice["client_id"])
	assert.True(t, strings.HasPrefix(invoice["invoice_number"].(string), fmt.Sprintf("INV-%d-", time.Now().Year())))

	w = serve(app, http.MethodPost, "/api/invoices/"+invoiceID+"/status", `{"status":"SENT"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(app, http.MethodPost, "/api/invoices/"+invoiceID+"/payments", `{"amount":"720"}`, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(app, http.MethodGet, "/api/invoices/"+invoiceID+"/status-suggestion", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PAID", jsonBody(t, w)["suggested"])

	w = serve(app, http.MethodPost, "/api/invoices/"+invoiceID+"/status", `{"status":"PAID"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(app, http.MethodGet, "/api/projects", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	items := jsonBody(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "720", items[0].(map[string]any)["invoicedTotal"])

	w = serve(app, http.MethodGet, "/api/overview", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	overview := jsonBody(t, w)
	stats := overview["stats"].(map[string]any)
	assert.Equal(t, "720", stats["totalRevenue"])
	assert.EqualValues(t, 1, stats["activeClients"])
	top := overview["topClients"].([]any)
	require.Len(t, top, 1)
	assert.Equal(t, "Acme", top[0].(map[string]any)["clientName"])
	assert.Equal(t, "720", top[0].(map[string]any)["totalAmount"])
	assert.EqualValues(t, 1, top[0].(map[string]any)["invoiceCount"])

	w = serve(app, http.MethodGet, "/api/invoices/"+invoiceID+"/history", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, jsonBody(t, w)["total"])

	w = serve(app, http.MethodDelete, "/api/projects/"+projectID, "", token)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = serve(app, http.MethodGet, "/api/overview", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	overview = jsonBody(t, w)
	assert.EqualValues(t, 0, overview["stats"].(map[string]any)["activeClients"])
	assert.Empty(t, overview["topClients"])
	assert.Equal(t, "720", overview["stats"].(map[string]any)["totalRevenue"])
}

func TestLanguagePreference(t *testing.T) {
	app, _ := newTestApp(t)
	w := serve(app, http.MethodPost, "/api/auth/signup", `{"email":"lang@example.com","password":"password1"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := jsonBody(t, w)["token"].(string)

	w = serve(app, http.MethodPost, "/api/clients?lang=fr", `{"name":""}`, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Requis", jsonBody(t, w)["details"].(map[string]any)["name"])

	req := httptest.NewRequest(http.MethodPost, "/api/clients", strings.NewReader(`{"name":""}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.8")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, "Required", jsonBody(t, rec)["details"].(map[string]any)["name"])
}
