package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestOwnable(t *testing.T) {
	uid := uuid.New()
	owned := []Ownable{
		&Client{UserID: uid},
		&Project{UserID: uid},
		&Invoice{UserID: uid},
		&Expense{UserID: uid},
		&BusinessProfile{UserID: uid},
	}
	for _, o := range owned {
		if got := o.GetUserID(); got != uid {
			t.Errorf("%T.GetUserID() = %s, want %s", o, got, uid)
		}
	}
}

func TestClient_FullAddress(t *testing.T) {
	tests := []struct {
		name   string
		client Client
		want   string
	}{
		{
			name: "full address",
			client: Client{
				Address:  "12 High Street",
				Postcode: "SW1A 1AA",
				City:     "London",
				Country:  "United Kingdom",
			},
			want: "12 High Street\nSW1A 1AA London\nUnited Kingdom",
		},
		{
			name:   "only city",
			client: Client{City: "Leeds"},
			want:   "Leeds",
		},
		{
			name:   "address and city",
			client: Client{Address: "12 High Street", City: "Leeds"},
			want:   "12 High Street\nLeeds",
		},
		{
			name:   "empty",
			client: Client{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.client.FullAddress(); got != tt.want {
				t.Errorf("FullAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvoice_CanEdit(t *testing.T) {
	for _, s := range InvoiceStatuses {
		inv := &Invoice{Status: s}
		if got, want := inv.CanEdit(), s == InvoiceStatusDraft; got != want {
			t.Errorf("CanEdit() with %s = %v, want %v", s, got, want)
		}
	}
}

func TestInvoiceStatus_Valid(t *testing.T) {
	if !InvoiceStatusPartiallyPaid.Valid() {
		t.Error("PARTIALLY_PAID should be valid")
	}
	if InvoiceStatus("final").Valid() {
		t.Error("final should not be valid")
	}
}

func TestBeforeCreateDefaults(t *testing.T) {
	p := &Project{}
	if err := p.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected id to be generated")
	}
	if p.Status != ProjectStatusInProgress || p.RateType != RateTypeHourly || p.Currency != DefaultCurrency {
		t.Errorf("unexpected defaults: %+v", p)
	}

	id := uuid.New()
	inv := &Invoice{ID: id}
	if err := inv.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if inv.ID != id {
		t.Error("existing id must be kept")
	}
	if inv.Status != InvoiceStatusDraft || inv.IssueDate.IsZero() {
		t.Errorf("unexpected defaults: status=%s issue=%v", inv.Status, inv.IssueDate)
	}
}

func TestRateType_Suffix(t *testing.T) {
	tests := map[RateType]string{
		RateTypeHourly: "/hr",
		RateTypeDaily:  "/day",
		RateTypeFixed:  "",
	}
	for rt, want := range tests {
		if got := rt.Suffix(); got != want {
			t.Errorf("%s.Suffix() = %q, want %q", rt, got, want)
		}
	}
}

func TestTimeEntry_Running(t *testing.T) {
	minutes := 30
	if !(&TimeEntry{}).Running() {
		t.Error("entry without end or duration should be running")
	}
	if (&TimeEntry{Duration: &minutes}).Running() {
		t.Error("entry with manual duration should not be running")
	}
}
