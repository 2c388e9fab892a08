package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-freelance/gate"
	"github.com/diewo77/go-freelance/httpx"
	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/internal/policy"
	"github.com/diewo77/go-freelance/internal/services"
	"github.com/diewo77/go-freelance/internal/store"
	"github.com/diewo77/go-freelance/validation"
)

var (
	projectStatuses = []string{
		string(models.ProjectStatusInProgress),
		string(models.ProjectStatusCompleted),
		string(models.ProjectStatusCancelled),
		string(models.ProjectStatusOnHold),
	}
	rateTypes = []string{string(models.RateTypeHourly), string(models.RateTypeFixed), string(models.RateTypeDaily)}
)

// ProjectHandler serves projects and the time tracked on them.
type ProjectHandler struct {
	store    *store.Store
	projects *services.ProjectService
	gate     *gate.Gate[uuid.UUID]
	overview services.Invalidator
}

func NewProjectHandler(st *store.Store, projects *services.ProjectService, g *gate.Gate[uuid.UUID], overview services.Invalidator) *ProjectHandler {
	return &ProjectHandler{store: st, projects: projects, gate: g, overview: overview}
}

type projectInput struct {
	ClientID    *uuid.UUID       `json:"client_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	StartDate   *time.Time       `json:"start_date"`
	EndDate     *time.Time       `json:"end_date"`
	Status      string           `json:"status"`
	RateType    string           `json:"rate_type"`
	RateAmount  *decimal.Decimal `json:"rate_amount"`
	Currency    string           `json:"currency"`
	Notes       string           `json:"notes"`
}

// bind validates in and copies it onto p. Empty status, rate type and
// currency keep the values already on p.
func (h *ProjectHandler) bind(r *http.Request, in projectInput, p *models.Project) error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	if in.ClientID == nil {
		v["client_id"] = "required"
	} else if _, err := h.store.GetClient(r.Context(), p.UserID, *in.ClientID); err != nil {
		if !errors.Is(err, billing.ErrNotFound) {
			return err
		}
		v["client_id"] = "invalid_choice"
	}
	if in.Status != "" {
		validation.OneOf("status", in.Status, projectStatuses, v)
		p.Status = models.ProjectStatus(in.Status)
	}
	if in.RateType != "" {
		validation.OneOf("rate_type", in.RateType, rateTypes, v)
		p.RateType = models.RateType(in.RateType)
	}
	if in.RateAmount != nil {
		validation.NonNegativeDecimal("rate_amount", *in.RateAmount, v)
		p.RateAmount = decimal.NullDecimal{Decimal: *in.RateAmount, Valid: true}
	} else {
		p.RateAmount = decimal.NullDecimal{}
	}
	if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
		validation.Currency("currency", c, v)
		p.Currency = c
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		v["end_date"] = "before_start"
	}
	if err := billing.Invalid(v); err != nil {
		return err
	}
	p.ClientID = *in.ClientID
	p.Client = nil
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
	p.Notes = in.Notes
	return nil
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.gate, gate.ActionList, policy.ResourceProject, nil) {
		return
	}
	bad := validation.Violations{}
	q := store.ProjectQuery{ClientID: queryUUID(r, "client_id", bad)}
	if s := r.URL.Query().Get("status"); s != "" {
		validation.OneOf("status", s, projectStatuses, bad)
		q.Status = models.ProjectStatus(s)
	}
	if err := billing.Invalid(bad); err != nil {
		writeError(w, r, err)
		return
	}
	projects, err := h.projects.ListWithTotals(r.Context(), currentUser(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, projects, int64(len(projects)), store.Page{Limit: len(projects)})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in projectInput
	if !decode(w, r, &in) {
		return
	}
	if !authorize(w, r, h.gate, gate.ActionCreate, policy.ResourceProject, nil) {
		return
	}
	uid := currentUser(r)
	profile, err := h.store.Profile(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := models.Project{
		UserID:   uid,
		Status:   models.ProjectStatusInProgress,
		RateType: models.RateTypeHourly,
		Currency: profile.DefaultCurrency,
	}
	if err := h.bind(r, in, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.CreateProject(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	h.overview.Invalidate(r.Context(), uid)
	h.respond(w, r, p.ID, http.StatusCreated)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var in projectInput
	if !decode(w, r, &in) {
		return
	}
	if err := h.bind(r, in, p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdateProject(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	h.overview.Invalidate(r.Context(), p.UserID)
	h.respond(w, r, p.ID, http.StatusOK)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if err := h.store.DeleteProject(r.Context(), p.UserID, p.ID); err != nil {
		writeError(w, r, err)
		return
	}
	h.overview.Invalidate(r.Context(), p.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// TimeSummary reports tracked minutes and their value at the project rate.
func (h *ProjectHandler) TimeSummary(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	summary, err := h.projects.Summary(r.Context(), p.UserID, p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *ProjectHandler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	entries, err := h.projects.ListTimeEntries(r.Context(), p.UserID, p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, entries, int64(len(entries)), store.Page{Limit: len(entries)})
}

func (h *ProjectHandler) CreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var in services.TimeEntryInput
	if !decode(w, r, &in) {
		return
	}
	e, err := h.projects.CreateTimeEntry(r.Context(), p.UserID, p.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *ProjectHandler) UpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.TimeEntryInput
	if !decode(w, r, &in) {
		return
	}
	e, err := h.projects.UpdateTimeEntry(r.Context(), currentUser(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *ProjectHandler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.projects.DeleteTimeEntry(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) respond(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	p, err := h.store.GetProject(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, status, p)
}

func (h *ProjectHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.Project, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	p, err := h.store.GetProject(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if !authorize(w, r, h.gate, action, policy.ResourceProject, p) {
		return nil, false
	}
	return p, true
}
