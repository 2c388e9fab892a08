package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-freelance/gate"
	"github.com/diewo77/go-freelance/httpx"
	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/policy"
	"github.com/diewo77/go-freelance/internal/store"
	"github.com/diewo77/go-freelance/validation"
)

var maxTaxRate = decimal.NewFromInt(100)

// ProfileHandler serves the user's business profile.
type ProfileHandler struct {
	store *store.Store
	gate  *gate.Gate[uuid.UUID]
}

func NewProfileHandler(st *store.Store, g *gate.Gate[uuid.UUID]) *ProfileHandler {
	return &ProfileHandler{store: st, gate: g}
}

type profileInput struct {
	BusinessName    string           `json:"business_name"`
	BusinessAddress string           `json:"business_address"`
	TaxID           string           `json:"tax_id"`
	PhoneNumber     string           `json:"phone_number"`
	Website         string           `json:"website"`
	DefaultCurrency string           `json:"default_currency"`
	DefaultTaxRate  *decimal.Decimal `json:"default_tax_rate"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Profile(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !authorize(w, r, h.gate, gate.ActionView, policy.ResourceProfile, p) {
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in profileInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.store.Profile(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !authorize(w, r, h.gate, gate.ActionUpdate, policy.ResourceProfile, p) {
		return
	}

	v := validation.Violations{}
	currency := strings.ToUpper(strings.TrimSpace(in.DefaultCurrency))
	if currency != "" {
		validation.Currency("default_currency", currency, v)
		p.DefaultCurrency = currency
	}
	if in.DefaultTaxRate != nil {
		validation.RangeDecimal("default_tax_rate", *in.DefaultTaxRate, decimal.Zero, maxTaxRate, v)
		p.DefaultTaxRate = decimal.NullDecimal{Decimal: *in.DefaultTaxRate, Valid: true}
	} else {
		p.DefaultTaxRate = decimal.NullDecimal{}
	}
	if err := billing.Invalid(v); err != nil {
		writeError(w, r, err)
		return
	}

	p.BusinessName = strings.TrimSpace(in.BusinessName)
	p.BusinessAddress = in.BusinessAddress
	p.TaxID = strings.TrimSpace(in.TaxID)
	p.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	p.Website = strings.TrimSpace(in.Website)
	if err := h.store.SaveProfile(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
