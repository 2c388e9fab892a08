package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/cache"
	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/internal/store"
)

// DefaultOverviewTTL is how long a computed overview is served from cache.
const DefaultOverviewTTL = 5 * time.Minute

// Overview is the dashboard payload.
type Overview struct {
	InvoicesByStatus map[models.InvoiceStatus]int `json:"invoicesByStatus"`
	TopClients       []TopClient                  `json:"topClients"`
	Stats            OverviewStats                `json:"stats"`
}

type TopClient struct {
	ClientID     uuid.UUID       `json:"clientId"`
	ClientName   string          `json:"clientName"`
	Total        decimal.Decimal `json:"totalAmount"`
	InvoiceCount int             `json:"invoiceCount"`
}

type OverviewStats struct {
	InvoiceCount  int             `json:"invoiceCount"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	PendingAmount decimal.Decimal `json:"pendingAmount"`
	ActiveClients int             `json:"activeClients"`
}

// OverviewService computes the per user dashboard and caches it.
type OverviewService struct {
	store *store.Store
	cache cache.Cache
	ttl   time.Duration
}

// NewOverviewService builds the service. A nil cache disables caching.
func NewOverviewService(st *store.Store, c cache.Cache, ttl time.Duration) *OverviewService {
	if ttl <= 0 {
		ttl = DefaultOverviewTTL
	}
	return &OverviewService{store: st, cache: c, ttl: ttl}
}

func overviewKey(userID uuid.UUID) string { return "overview:" + userID.String() }

// Get returns the overview of userID. Cache failures are logged and the
// overview is computed from the database.
func (s *OverviewService) Get(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	key := overviewKey(userID)
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err != nil {
			slog.Warn("overview cache read failed", "user_id", userID, "error", err)
		} else if ok {
			var ov Overview
			if err := json.Unmarshal(raw, &ov); err == nil {
				return &ov, nil
			}
			slog.Warn("overview cache entry unreadable", "user_id", userID)
		}
	}

	ov, err := s.compute(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(ov); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				slog.Warn("overview cache write failed", "user_id", userID, "error", err)
			}
		}
	}
	return ov, nil
}

func (s *OverviewService) compute(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	invoices, err := s.store.ListInvoices(ctx, userID, store.InvoiceFilter{})
	if err != nil {
		return nil, err
	}
	projects, err := s.store.ListProjects(ctx, userID, store.ProjectQuery{})
	if err != nil {
		return nil, err
	}
	clients, err := s.store.AllClients(ctx, userID)
	if err != nil {
		return nil, err
	}

	agg := billing.PerUserOverview(userID, invoices, projects)
	top := billing.TopClientsByRevenue(invoices, projects, clients, billing.DefaultTopClients)

	ov := &Overview{
		InvoicesByStatus: agg.InvoicesByStatus,
		TopClients:       make([]TopClient, len(top)),
		Stats: OverviewStats{
			InvoiceCount:  agg.InvoiceCount,
			TotalRevenue:  agg.TotalRevenue.Round(billing.MoneyPlaces),
			PendingAmount: agg.PendingAmount.Round(billing.MoneyPlaces),
			ActiveClients: agg.ActiveClients,
		},
	}
	for i, c := range top {
		ov.TopClients[i] = TopClient{
			ClientID:     c.ClientID,
			ClientName:   c.ClientName,
			Total:        c.Total.Round(billing.MoneyPlaces),
			InvoiceCount: c.InvoiceCount,
		}
	}
	return ov, nil
}

// Invalidate drops the cached overview of userID.
func (s *OverviewService) Invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, overviewKey(userID)); err != nil {
		slog.Warn("overview cache invalidation failed", "user_id", userID, "error", err)
	}
}
