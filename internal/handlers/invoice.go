package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/diewo77/go-freelance/gate"
	"github.com/diewo77/go-freelance/httpx"
	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/internal/policy"
	"github.com/diewo77/go-freelance/internal/services"
	"github.com/diewo77/go-freelance/internal/store"
	"github.com/diewo77/go-freelance/validation"
)

// InvoiceHandler serves invoices, their items and payments.
type InvoiceHandler struct {
	invoices *services.InvoiceService
	gate     *gate.Gate[uuid.UUID]
}

func NewInvoiceHandler(invoices *services.InvoiceService, g *gate.Gate[uuid.UUID]) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, gate: g}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.gate, gate.ActionList, policy.ResourceInvoice, nil) {
		return
	}
	bad := validation.Violations{}
	page := pageParams(r)
	f := store.InvoiceFilter{
		ProjectID: queryUUID(r, "project_id", bad),
		ClientID:  queryUUID(r, "client_id", bad),
		Page:      page,
	}
	if s := models.InvoiceStatus(r.URL.Query().Get("status")); s != "" {
		if !s.Valid() {
			bad["status"] = "invalid_choice"
		}
		f.Status = s
	}
	if err := billing.Invalid(bad); err != nil {
		writeError(w, r, err)
		return
	}
	invoices, err := h.invoices.List(r.Context(), currentUser(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, invoices, int64(len(invoices)), page)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.InvoiceInput
	if !decode(w, r, &in) {
		return
	}
	if !authorize(w, r, h.gate, gate.ActionCreate, policy.ResourceInvoice, nil) {
		return
	}
	inv, err := h.invoices.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var in services.InvoiceUpdate
	if !decode(w, r, &in) {
		return
	}
	updated, err := h.invoices.Update(r.Context(), inv.UserID, inv.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if err := h.invoices.Delete(r.Context(), inv.UserID, inv.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvoiceHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	items, err := h.invoices.ListItems(r.Context(), inv.UserID, inv.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, items, int64(len(items)), store.Page{Limit: len(items)})
}

// ReplaceItems swaps the whole item list of a draft and recomputes totals.
func (h *InvoiceHandler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var in struct {
		Items []services.ItemInput `json:"items"`
	}
	if !decode(w, r, &in) {
		return
	}
	updated, err := h.invoices.ReplaceItems(r.Context(), inv.UserID, inv.ID, in.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *InvoiceHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var in struct {
		Status models.InvoiceStatus `json:"status"`
	}
	if !decode(w, r, &in) {
		return
	}
	updated, err := h.invoices.ChangeStatus(r.Context(), inv.UserID, inv.ID, in.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// StatusSuggestion reports the status the payments point to without applying it.
func (h *InvoiceHandler) StatusSuggestion(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	s, err := h.invoices.SuggestStatus(r.Context(), inv.UserID, inv.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *InvoiceHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	payments, err := h.invoices.ListPayments(r.Context(), inv.UserID, inv.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, payments, int64(len(payments)), store.Page{Limit: len(payments)})
}

func (h *InvoiceHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var in services.PaymentInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.invoices.RecordPayment(r.Context(), inv.UserID, inv.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *InvoiceHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.invoices.DeletePayment(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History returns the audit trail. It stays readable after the invoice is deleted.
func (h *InvoiceHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.invoices.History(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(entries) > 0 && !authorize(w, r, h.gate, gate.ActionView, policy.ResourceHistory, &entries[0]) {
		return
	}
	writeList(w, entries, int64(len(entries)), store.Page{Limit: len(entries)})
}

func (h *InvoiceHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.Invoice, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	inv, err := h.invoices.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if !authorize(w, r, h.gate, action, policy.ResourceInvoice, inv) {
		return nil, false
	}
	return inv, true
}
