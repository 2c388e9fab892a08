package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-freelance/internal/models"
)

func TestEntryDuration(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(95*time.Minute + 59*time.Second)

	d, err := EntryDuration(start, &end, nil)
	require.NoError(t, err)
	assert.Equal(t, 95, *d, "partial minutes are dropped")

	manual := 30
	d, err = EntryDuration(start, &end, &manual)
	require.NoError(t, err)
	assert.Equal(t, 95, *d, "end time wins over a manual duration")

	d, err = EntryDuration(start, nil, &manual)
	require.NoError(t, err)
	assert.Equal(t, 30, *d)

	d, err = EntryDuration(start, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, d, "running entry")

	before := start.Add(-time.Minute)
	_, err = EntryDuration(start, &before, nil)
	assert.True(t, errors.Is(err, ErrValidation))

	negative := -1
	_, err = EntryDuration(start, nil, &negative)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestSummarizeTime(t *testing.T) {
	m := func(n int) *int { return &n }
	end := time.Now()
	entries := []models.TimeEntry{
		{Duration: m(60), Billable: true},
		{Duration: m(30), Billable: false},
		{Duration: m(15), Billable: true, EndTime: &end},
		{},
	}
	s := SummarizeTime(entries)
	assert.Equal(t, TimeSummary{TotalMinutes: 105, BillableMinutes: 75, Running: 1}, s)
}

func TestBillableValue(t *testing.T) {
	rated := func(rt models.RateType, amount string) models.Project {
		p := models.Project{RateType: rt}
		if amount != "" {
			p.RateAmount = decimal.NewNullDecimal(dec(amount))
		}
		return p
	}

	v, err := BillableValue(rated(models.RateTypeHourly, "50"), 90)
	require.NoError(t, err)
	assertDec(t, "75", v, "hourly")

	v, err = BillableValue(rated(models.RateTypeDaily, "400"), 240)
	require.NoError(t, err)
	assertDec(t, "200", v, "half a day")

	_, err = BillableValue(rated(models.RateTypeFixed, "1000"), 60)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = BillableValue(rated(models.RateTypeHourly, ""), 60)
	assert.True(t, errors.Is(err, ErrValidation))
}
