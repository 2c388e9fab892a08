package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "open db")
	require.NoError(t, db.AutoMigrate(models.All()...), "migrate")
	return db
}

type seed struct {
	user    models.User
	client  models.Client
	project models.Project
}

func seedWorkspace(t *testing.T, s *Store) seed {
	t.Helper()
	ctx := context.Background()
	var out seed
	out.user = models.User{Email: fmt.Sprintf("%s@example.com", uuid.NewString()), Password: "x"}
	require.NoError(t, s.CreateUser(ctx, &out.user))
	out.client = models.Client{UserID: out.user.ID, Name: "Acme"}
	require.NoError(t, s.CreateClient(ctx, &out.client))
	out.project = models.Project{UserID: out.user.ID, ClientID: out.client.ID, Name: "Website"}
	require.NoError(t, s.CreateProject(ctx, &out.project))
	return out
}

func newInvoice(w seed, number string) *models.Invoice {
	return &models.Invoice{
		UserID:        w.user.ID,
		ProjectID:     &w.project.ID,
		ClientID:      &w.client.ID,
		InvoiceNumber: number,
		DueDate:       time.Now().AddDate(0, 0, 30),
	}
}

func TestInvoiceItemsAndTotals(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	w := seedWorkspace(t, s)

	items := []models.InvoiceItem{
		{Description: "Design", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100), Taxable: true},
		{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)},
	}
	totals, items, err := billing.ComputeTotals(items, decimal.NewNullDecimal(decimal.NewFromInt(20)))
	require.NoError(t, err)

	inv := newInvoice(w, "INV-2026-0001")
	totals.Apply(inv)
	require.NoError(t, s.CreateInvoice(ctx, inv, items))

	got, err := s.GetInvoice(ctx, w.user.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Design", got.Items[0].Description)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(290)), "total %s", got.Total)
	assert.False(t, got.Items[1].Taxable)

	replacement := []models.InvoiceItem{{Description: "Audit", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10), Taxable: true}}
	require.NoError(t, s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.LockInvoice(ctx, w.user.ID, inv.ID); err != nil {
			return err
		}
		if err := tx.ReplaceItems(ctx, inv.ID, replacement); err != nil {
			return err
		}
		return tx.SaveInvoiceTotals(ctx, inv.ID, billing.Totals{Subtotal: decimal.NewFromInt(10), TaxAmount: decimal.NewFromInt(2), Total: decimal.NewFromInt(12)})
	}))

	listed, err := s.ListItems(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	got, err = s.GetInvoice(ctx, w.user.ID, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(12)))
	assert.True(t, got.TaxAmount.Decimal.Equal(decimal.NewFromInt(2)))
}

func TestScopedToOwner(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	w := seedWorkspace(t, s)
	intruder := uuid.New()

	_, err := s.GetClient(ctx, intruder, w.client.ID)
	assert.True(t, errors.Is(err, billing.ErrNotFound))
	_, err = s.GetProject(ctx, intruder, w.project.ID)
	assert.True(t, errors.Is(err, billing.ErrNotFound))
	err = s.DeleteClient(ctx, intruder, w.client.ID)
	assert.True(t, errors.Is(err, billing.ErrNotFound))

	_, err = s.GetClient(ctx, w.user.ID, w.client.ID)
	assert.NoError(t, err)
}

func TestDeleteClientCascades(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	w := seedWorkspace(t, s)

	minutes := 60
	entry := models.TimeEntry{ProjectID: w.project.ID, StartTime: time.Now(), Duration: &minutes, Billable: true}
	require.NoError(t, s.CreateTimeEntry(ctx, &entry))
	inv := newInvoice(w, "INV-2026-0001")
	require.NoError(t, s.CreateInvoice(ctx, inv, nil))
	pay := models.Payment{InvoiceID: inv.ID, ProjectID: &w.project.ID, ClientID: &w.client.ID, Amount: decimal.NewFromInt(5)}
	require.NoError(t, s.CreatePayment(ctx, &pay))
	exp := models.Expense{UserID: w.user.ID, ProjectID: &w.project.ID, Name: "Domain", Category: "hosting", Date: time.Now(), Amount: decimal.NewFromInt(12)}
	require.NoError(t, s.CreateExpense(ctx, &exp))

	require.NoError(t, s.DeleteClient(ctx, w.user.ID, w.client.ID))

	_, err := s.GetProject(ctx, w.user.ID, w.project.ID)
	assert.True(t, errors.Is(err, billing.ErrNotFound), "project removed with its client")
	_, err = s.GetTimeEntry(ctx, w.user.ID, entry.ID)
	assert.True(t, errors.Is(err, billing.ErrNotFound), "time entry removed with its project")

	got, err := s.GetInvoice(ctx, w.user.ID, inv.ID)
	require.NoError(t, err, "invoice survives")
	assert.Nil(t, got.ProjectID)
	assert.Nil(t, got.ClientID)
	require.Len(t, got.Payments, 1)
	assert.Nil(t, got.Payments[0].ProjectID)
	assert.Nil(t, got.Payments[0].ClientID)

	e, err := s.GetExpense(ctx, w.user.ID, exp.ID)
	require.NoError(t, err, "expense survives")
	assert.Nil(t, e.ProjectID)
}

func TestDeleteInvoiceCascades(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	w := seedWorkspace(t, s)

	inv := newInvoice(w, "INV-2026-0001")
	require.NoError(t, s.CreateInvoice(ctx, inv, []models.InvoiceItem{{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}}))
	pay := models.Payment{InvoiceID: inv.ID, Amount: decimal.NewFromInt(1)}
	require.NoError(t, s.CreatePayment(ctx, &pay))

	require.NoError(t, s.DeleteInvoice(ctx, w.user.ID, inv.ID))

	items, err := s.ListItems(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	payments, err := s.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestNextInvoiceNumber(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	w := seedWorkspace(t, s)

	n, err := s.NextInvoiceNumber(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", n)

	require.NoError(t, s.CreateInvoice(ctx, newInvoice(w, "INV-2026-0001"), nil))
	require.NoError(t, s.CreateInvoice(ctx, newInvoice(w, "INV-2026-0007"), nil))
	require.NoError(t, s.CreateInvoice(ctx, newInvoice(w, "INV-2025-0042"), nil))

	n, err = s.NextInvoiceNumber(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0008", n)

	other := seedWorkspace(t, s)
	require.NoError(t, s.CreateInvoice(ctx, newInvoice(other, "INV-2026-0008"), nil))
	n, err = s.NextInvoiceNumber(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0009", n, "one sequence across users")

	taken, err := s.InvoiceNumberTaken(ctx, "INV-2026-0007", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestInvoiceNumberUniqueAcrossUsers(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	w := seedWorkspace(t, s)
	other := seedWorkspace(t, s)

	require.NoError(t, s.CreateInvoice(ctx, newInvoice(w, "INV-2026-0001"), nil))
	err := s.CreateInvoice(ctx, newInvoice(other, "INV-2026-0001"), nil)
	require.Error(t, err)
	assert.True(t, IsDuplicate(err), "got %v", err)
	assert.False(t, IsDuplicate(billing.ErrNotFound))
	assert.False(t, IsDuplicate(nil))
}

func TestListInvoicesFilter(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	w := seedWorkspace(t, s)

	a := newInvoice(w, "INV-2026-0001")
	b := newInvoice(w, "INV-2026-0002")
	b.ProjectID = nil
	b.Status = models.InvoiceStatusSent
	require.NoError(t, s.CreateInvoice(ctx, a, nil))
	require.NoError(t, s.CreateInvoice(ctx, b, nil))

	all, err := s.ListInvoices(ctx, w.user.ID, InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	sent, err := s.ListInvoices(ctx, w.user.ID, InvoiceFilter{Status: models.InvoiceStatusSent})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, b.ID, sent[0].ID)

	byProject, err := s.ListInvoices(ctx, w.user.ID, InvoiceFilter{ProjectID: &w.project.ID})
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, a.ID, byProject[0].ID)
}

func TestListClientsSearch(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	w := seedWorkspace(t, s)
	require.NoError(t, s.CreateClient(ctx, &models.Client{UserID: w.user.ID, Name: "Blue Ocean Ltd"}))

	clients, total, err := s.ListClients(ctx, w.user.ID, ClientQuery{Search: "ocean", Page: Page{Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, clients, 1)
	assert.Equal(t, "Blue Ocean Ltd", clients[0].Name)

	_, total, err = s.ListClients(ctx, w.user.ID, ClientQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestProfileDefaults(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	w := seedWorkspace(t, s)

	p, err := s.Profile(ctx, w.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCurrency, p.DefaultCurrency)

	p.BusinessName = "Studio"
	p.DefaultCurrency = "EUR"
	require.NoError(t, s.SaveProfile(ctx, p))
	p2 := &models.BusinessProfile{UserID: w.user.ID, BusinessName: "Studio 2", DefaultCurrency: "EUR"}
	require.NoError(t, s.SaveProfile(ctx, p2))
	assert.Equal(t, p.ID, p2.ID, "one profile per user")

	got, err := s.Profile(ctx, w.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Studio 2", got.BusinessName)
}

func TestAuditHistory(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	w := seedWorkspace(t, s)
	id := uuid.New()

	require.NoError(t, s.Audit(ctx, w.user.ID, "invoice", id, models.AuditStatus, map[string]string{"from": "DRAFT", "to": "SENT"}))
	logs, err := s.History(ctx, w.user.ID, "invoice", id)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.JSONEq(t, `{"from":"DRAFT","to":"SENT"}`, string(logs[0].Changes))

	logs, err = s.History(ctx, uuid.New(), "invoice", id)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
