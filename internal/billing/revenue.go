package billing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-freelance/internal/models"
)

// DefaultTopClients is used when TopClientsByRevenue gets a non positive limit.
const DefaultTopClients = 10

// pendingStatuses are invoices that were sent and are not settled yet.
var pendingStatuses = map[models.InvoiceStatus]bool{
	models.InvoiceStatusSent:          true,
	models.InvoiceStatusPartiallyPaid: true,
	models.InvoiceStatusOverdue:       true,
}

// Overview summarises a user's invoicing.
type Overview struct {
	UserID           uuid.UUID
	InvoicesByStatus map[models.InvoiceStatus]int
	InvoiceCount     int
	TotalRevenue     decimal.Decimal
	PendingAmount    decimal.Decimal
	ActiveClients    int
}

// ClientRevenue is the invoiced total for one client.
type ClientRevenue struct {
	ClientID     uuid.UUID
	ClientName   string
	Total        decimal.Decimal
	InvoiceCount int
}

// PerProjectTotal sums the totals of the invoices attached to projectID.
func PerProjectTotal(projectID uuid.UUID, invoices []models.Invoice) decimal.Decimal {
	sum := decimal.Zero
	for _, inv := range invoices {
		if inv.ProjectID != nil && *inv.ProjectID == projectID {
			sum = sum.Add(inv.Total)
		}
	}
	return sum
}

// PerUserOverview computes the dashboard figures for userID. Records owned by
// other users are ignored. Every status appears in InvoicesByStatus, so the
// counts always add up to InvoiceCount.
func PerUserOverview(userID uuid.UUID, invoices []models.Invoice, projects []models.Project) Overview {
	ov := Overview{
		UserID:           userID,
		InvoicesByStatus: make(map[models.InvoiceStatus]int, len(models.InvoiceStatuses)),
		TotalRevenue:     decimal.Zero,
		PendingAmount:    decimal.Zero,
	}
	for _, s := range models.InvoiceStatuses {
		ov.InvoicesByStatus[s] = 0
	}

	for _, inv := range invoices {
		if inv.UserID != userID {
			continue
		}
		ov.InvoiceCount++
		ov.InvoicesByStatus[inv.Status]++
		switch {
		case inv.Status == models.InvoiceStatusPaid:
			ov.TotalRevenue = ov.TotalRevenue.Add(inv.Total)
		case pendingStatuses[inv.Status]:
			ov.PendingAmount = ov.PendingAmount.Add(inv.Total)
		}
	}

	clients := make(map[uuid.UUID]struct{})
	for _, p := range projects {
		if p.UserID == userID {
			clients[p.ClientID] = struct{}{}
		}
	}
	ov.ActiveClients = len(clients)
	return ov
}

// TopClientsByRevenue groups invoice totals by client through the invoice's
// project, sorts them in descending order and keeps the first limit entries.
// Invoices without a known project are skipped. Ties keep the order in which
// the clients were first met.
func TopClientsByRevenue(invoices []models.Invoice, projects []models.Project, clients []models.Client, limit int) []ClientRevenue {
	if limit <= 0 {
		limit = DefaultTopClients
	}
	clientOf := make(map[uuid.UUID]uuid.UUID, len(projects))
	for _, p := range projects {
		clientOf[p.ID] = p.ClientID
	}
	names := make(map[uuid.UUID]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	var out []ClientRevenue
	index := make(map[uuid.UUID]int)
	for _, inv := range invoices {
		if inv.ProjectID == nil {
			continue
		}
		cid, ok := clientOf[*inv.ProjectID]
		if !ok {
			continue
		}
		i, seen := index[cid]
		if !seen {
			i = len(out)
			index[cid] = i
			out = append(out, ClientRevenue{ClientID: cid, ClientName: names[cid], Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(inv.Total)
		out[i].InvoiceCount++
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Total.GreaterThan(out[b].Total)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
