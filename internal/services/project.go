package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/internal/store"
	"github.com/diewo77/go-freelance/validation"
)

// ProjectWithTotal is a project annotated with what has been invoiced on it.
type ProjectWithTotal struct {
	models.Project
	InvoicedTotal decimal.Decimal `json:"invoicedTotal"`
}

// TimeSummary is the time tracked on a project and what it is worth.
type TimeSummary struct {
	ProjectID       uuid.UUID        `json:"projectId"`
	TotalMinutes    int              `json:"totalMinutes"`
	BillableMinutes int              `json:"billableMinutes"`
	RunningEntries  int              `json:"runningEntries"`
	BillableValue   *decimal.Decimal `json:"billableValue"`
	RateType        models.RateType  `json:"rateType"`
	Currency        string           `json:"currency"`
	InvoicedTotal   decimal.Decimal  `json:"invoicedTotal"`
}

// TimeEntryInput creates or replaces a time entry. Duration is used only
// when EndTime is absent.
type TimeEntryInput struct {
	Description string     `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Duration    *int       `json:"duration,omitempty"`
	Billable    *bool      `json:"billable,omitempty"`
}

// ProjectService combines projects with their invoices and time entries.
type ProjectService struct {
	store *store.Store
}

func NewProjectService(st *store.Store) *ProjectService {
	return &ProjectService{store: st}
}

// ListWithTotals returns the user's projects, each with its invoiced total.
func (s *ProjectService) ListWithTotals(ctx context.Context, userID uuid.UUID, q store.ProjectQuery) ([]ProjectWithTotal, error) {
	projects, err := s.store.ListProjects(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	invoices, err := s.store.ListInvoices(ctx, userID, store.InvoiceFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]ProjectWithTotal, len(projects))
	for i, p := range projects {
		out[i] = ProjectWithTotal{Project: p, InvoicedTotal: billing.PerProjectTotal(p.ID, invoices).Round(billing.MoneyPlaces)}
	}
	return out, nil
}

// Summary values the tracked time at the project rate. Fixed fee projects
// and projects without a rate report a nil BillableValue.
func (s *ProjectService) Summary(ctx context.Context, userID, projectID uuid.UUID) (*TimeSummary, error) {
	p, err := s.store.GetProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListTimeEntries(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	invoices, err := s.store.ListInvoices(ctx, userID, store.InvoiceFilter{ProjectID: &p.ID})
	if err != nil {
		return nil, err
	}
	ts := billing.SummarizeTime(entries)
	out := &TimeSummary{
		ProjectID:       p.ID,
		TotalMinutes:    ts.TotalMinutes,
		BillableMinutes: ts.BillableMinutes,
		RunningEntries:  ts.Running,
		RateType:        p.RateType,
		Currency:        p.Currency,
		InvoicedTotal:   billing.PerProjectTotal(p.ID, invoices).Round(billing.MoneyPlaces),
	}
	value, err := billing.BillableValue(*p, ts.BillableMinutes)
	switch {
	case err == nil:
		rounded := value.Round(billing.MoneyPlaces)
		out.BillableValue = &rounded
	case !errors.Is(err, billing.ErrValidation):
		return nil, err
	}
	return out, nil
}

func (s *ProjectService) ListTimeEntries(ctx context.Context, userID, projectID uuid.UUID) ([]models.TimeEntry, error) {
	if _, err := s.store.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.store.ListTimeEntries(ctx, projectID)
}

// CreateTimeEntry records time on one of the user's projects.
func (s *ProjectService) CreateTimeEntry(ctx context.Context, userID, projectID uuid.UUID, in TimeEntryInput) (*models.TimeEntry, error) {
	if _, err := s.store.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	e := &models.TimeEntry{ProjectID: projectID, Billable: true}
	if err := applyTimeEntry(e, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateTimeEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateTimeEntry replaces the fields of an entry; the project is kept.
func (s *ProjectService) UpdateTimeEntry(ctx context.Context, userID, id uuid.UUID, in TimeEntryInput) (*models.TimeEntry, error) {
	e, err := s.store.GetTimeEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := applyTimeEntry(e, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTimeEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *ProjectService) DeleteTimeEntry(ctx context.Context, userID, id uuid.UUID) error {
	e, err := s.store.GetTimeEntry(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.store.DeleteTimeEntry(ctx, e.ID)
}

func applyTimeEntry(e *models.TimeEntry, in TimeEntryInput) error {
	if in.StartTime == nil || in.StartTime.IsZero() {
		return billing.Invalid(validation.Violations{"start_time": "required"})
	}
	d, err := billing.EntryDuration(*in.StartTime, in.EndTime, in.Duration)
	if err != nil {
		return err
	}
	e.Description = in.Description
	e.StartTime = *in.StartTime
	e.EndTime = in.EndTime
	e.Duration = d
	if in.Billable != nil {
		e.Billable = *in.Billable
	}
	return nil
}
