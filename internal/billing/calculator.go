// Package billing holds the invoicing rules: totals, status lifecycle,
// revenue aggregation and time valuation. Every function is pure and works
// on records already loaded by the caller.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/validation"
)

// MoneyPlaces is the number of decimals amounts are presented with.
const MoneyPlaces = 2

var (
	hundred    = decimal.NewFromInt(100)
	maxTaxRate = hundred
)

// Totals are the derived monetary fields of an invoice.
type Totals struct {
	Subtotal    decimal.Decimal
	TaxableBase decimal.Decimal
	TaxAmount   decimal.Decimal
	Total       decimal.Decimal
}

// Rounded returns the totals rounded for presentation. Total is rebuilt from
// the rounded parts so the displayed figures still add up.
func (t Totals) Rounded() Totals {
	sub := t.Subtotal.Round(MoneyPlaces)
	tax := t.TaxAmount.Round(MoneyPlaces)
	return Totals{
		Subtotal:    sub,
		TaxableBase: t.TaxableBase.Round(MoneyPlaces),
		TaxAmount:   tax,
		Total:       sub.Add(tax),
	}
}

// Apply copies the totals onto inv. TaxAmount is always written, zero when
// no tax rate is set.
func (t Totals) Apply(inv *models.Invoice) {
	inv.Subtotal = t.Subtotal
	inv.TaxAmount = decimal.NewNullDecimal(t.TaxAmount)
	inv.Total = t.Total
}

// ComputeTotals validates the items, recomputes every item amount from
// quantity and unit price, and derives subtotal, tax and total.
//
// Client supplied amounts are ignored. Tax applies to taxable items only and
// is zero when taxRate is null. The returned items carry their amount and
// their position in the list.
func ComputeTotals(items []models.InvoiceItem, taxRate decimal.NullDecimal) (Totals, []models.InvoiceItem, error) {
	v := validation.Violations{}
	if taxRate.Valid {
		validation.RangeDecimal("tax_rate", taxRate.Decimal, decimal.Zero, maxTaxRate, v)
	}

	out := make([]models.InvoiceItem, len(items))
	totals := Totals{
		Subtotal:    decimal.Zero,
		TaxableBase: decimal.Zero,
		TaxAmount:   decimal.Zero,
	}
	for i, it := range items {
		prefix := fmt.Sprintf("items[%d].", i)
		validation.Required(prefix+"description", it.Description, v)
		validation.PositiveDecimal(prefix+"quantity", it.Quantity, v)
		validation.NonNegativeDecimal(prefix+"unit_price", it.UnitPrice, v)

		it.Amount = it.Quantity.Mul(it.UnitPrice)
		it.Position = i
		out[i] = it

		totals.Subtotal = totals.Subtotal.Add(it.Amount)
		if it.Taxable {
			totals.TaxableBase = totals.TaxableBase.Add(it.Amount)
		}
	}
	if err := Invalid(v); err != nil {
		return Totals{}, nil, err
	}

	if taxRate.Valid {
		totals.TaxAmount = totals.TaxableBase.Mul(taxRate.Decimal).Div(hundred)
	}
	totals.Total = totals.Subtotal.Add(totals.TaxAmount)
	return totals, out, nil
}

// SumPayments adds up payment amounts.
func SumPayments(payments []models.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Balance is what is still owed on inv after payments, never below zero.
func Balance(inv models.Invoice, payments []models.Payment) decimal.Decimal {
	due := inv.Total.Sub(SumPayments(payments))
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}
