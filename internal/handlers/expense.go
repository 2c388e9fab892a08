package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-freelance/gate"
	"github.com/diewo77/go-freelance/httpx"
	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/internal/policy"
	"github.com/diewo77/go-freelance/internal/receipts"
	"github.com/diewo77/go-freelance/internal/store"
	"github.com/diewo77/go-freelance/validation"
)

// ExpenseHandler serves expenses and their receipt files. A nil receipt
// storage disables uploads.
type ExpenseHandler struct {
	store    *store.Store
	receipts receipts.Storage
	gate     *gate.Gate[uuid.UUID]
}

func NewExpenseHandler(st *store.Store, rs receipts.Storage, g *gate.Gate[uuid.UUID]) *ExpenseHandler {
	return &ExpenseHandler{store: st, receipts: rs, gate: g}
}

type expenseInput struct {
	ProjectID         *uuid.UUID      `json:"project_id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Date              *time.Time      `json:"date"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Description       string          `json:"description"`
	ExternalInvoiceID string          `json:"external_invoice_id"`
	Billable          bool            `json:"billable"`
}

func (h *ExpenseHandler) bind(r *http.Request, in expenseInput, e *models.Expense) error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("category", in.Category, v)
	validation.PositiveDecimal("amount", in.Amount, v)
	if in.Date == nil || in.Date.IsZero() {
		v["date"] = "required"
	}
	if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
		validation.Currency("currency", c, v)
		e.Currency = c
	}
	if in.ProjectID != nil {
		if _, err := h.store.GetProject(r.Context(), e.UserID, *in.ProjectID); err != nil {
			if !errors.Is(err, billing.ErrNotFound) {
				return err
			}
			v["project_id"] = "invalid_choice"
		}
	}
	if err := billing.Invalid(v); err != nil {
		return err
	}
	e.ProjectID = in.ProjectID
	e.Project = nil
	e.Name = strings.TrimSpace(in.Name)
	e.Category = strings.TrimSpace(in.Category)
	e.Date = *in.Date
	e.Amount = in.Amount
	e.Description = in.Description
	e.ExternalInvoiceID = strings.TrimSpace(in.ExternalInvoiceID)
	e.Billable = in.Billable
	return nil
}

func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.gate, gate.ActionList, policy.ResourceExpense, nil) {
		return
	}
	bad := validation.Violations{}
	page := pageParams(r)
	f := store.ExpenseFilter{
		ProjectID: queryUUID(r, "project_id", bad),
		Category:  r.URL.Query().Get("category"),
		Page:      page,
	}
	if raw := r.URL.Query().Get("billable"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			bad["billable"] = "invalid_choice"
		}
		f.Billable = &b
	}
	if err := billing.Invalid(bad); err != nil {
		writeError(w, r, err)
		return
	}
	expenses, err := h.store.ListExpenses(r.Context(), currentUser(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, expenses, int64(len(expenses)), page)
}

func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if !decode(w, r, &in) {
		return
	}
	if !authorize(w, r, h.gate, gate.ActionCreate, policy.ResourceExpense, nil) {
		return
	}
	uid := currentUser(r)
	profile, err := h.store.Profile(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e := models.Expense{UserID: uid, Currency: profile.DefaultCurrency}
	if err := h.bind(r, in, &e); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.CreateExpense(r.Context(), &e); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var in expenseInput
	if !decode(w, r, &in) {
		return
	}
	if err := h.bind(r, in, e); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdateExpense(r.Context(), e); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if err := h.store.DeleteExpense(r.Context(), e.UserID, e.ID); err != nil {
		writeError(w, r, err)
		return
	}
	h.dropReceipt(r, e.ReceiptURL)
	w.WriteHeader(http.StatusNoContent)
}

// UploadReceipt stores the multipart "file" field and links it to the expense.
func (h *ExpenseHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	if h.receipts == nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "storage_unavailable", nil)
		return
	}
	e, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, receipts.MaxSize+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.JSONError(w, http.StatusRequestEntityTooLarge, "file_too_large", nil)
			return
		}
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, billing.Invalid(validation.Violations{"file": "required"}))
		return
	}
	defer file.Close()
	if header.Size > receipts.MaxSize {
		httpx.JSONError(w, http.StatusRequestEntityTooLarge, "file_too_large", nil)
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := receipts.Key(e.UserID, e.ID, header.Filename)
	if err := h.receipts.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, r, err)
		return
	}
	previous := e.ReceiptURL
	e.ReceiptURL = key
	if err := h.store.UpdateExpense(r.Context(), e); err != nil {
		h.dropReceipt(r, key)
		writeError(w, r, err)
		return
	}
	h.dropReceipt(r, previous)
	httpx.JSON(w, http.StatusOK, e)
}

// Receipt streams the stored receipt file.
func (h *ExpenseHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	if h.receipts == nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "storage_unavailable", nil)
		return
	}
	e, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	if e.ReceiptURL == "" {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	obj, err := h.receipts.Get(r.Context(), e.ReceiptURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer obj.Body.Close()
	// Uploads are user controlled; never let a browser render them inline.
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(e.ReceiptURL)}))
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Warn("receipt stream interrupted", "expense_id", e.ID, "error", err)
	}
}

func (h *ExpenseHandler) dropReceipt(r *http.Request, key string) {
	if key == "" || h.receipts == nil {
		return
	}
	if err := h.receipts.Delete(r.Context(), key); err != nil {
		slog.Warn("receipt delete failed", "key", key, "error", err)
	}
}

func (h *ExpenseHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.Expense, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	e, err := h.store.GetExpense(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if !authorize(w, r, h.gate, action, policy.ResourceExpense, e) {
		return nil, false
	}
	return e, true
}
