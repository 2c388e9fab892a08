package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-freelance/gate"
)

func allow(v bool) gate.Policy[uint] {
	return gate.PolicyFunc[uint](func(context.Context, uint, gate.Action, any) bool { return v })
}

func TestAuthorize(t *testing.T) {
	g := gate.New[uint]()
	g.Register("allowed", allow(true))
	g.Register("denied", allow(false))
	ctx := context.Background()

	tests := []struct {
		name     string
		user     uint
		resource string
		want     error
	}{
		{"anonymous", 0, "allowed", gate.ErrUnauthorized},
		{"no policy", 1, "unknown", gate.ErrNoPolicyDefined},
		{"allowed", 1, "allowed", nil},
		{"denied", 1, "denied", gate.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Authorize(ctx, tt.user, gate.ActionView, tt.resource, nil)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if !g.Can(ctx, 1, gate.ActionCreate, "allowed", nil) {
		t.Error("expected Can to return true")
	}
	if got := g.Resources(); len(got) != 2 || got[0] != "allowed" || got[1] != "denied" {
		t.Errorf("Resources() = %v", got)
	}
}

func TestReadOnly(t *testing.T) {
	p := gate.ReadOnly(allow(true))
	ctx := context.Background()
	if !p.Can(ctx, 1, gate.ActionView, nil) || !p.Can(ctx, 1, gate.ActionList, nil) {
		t.Error("expected view and list to pass")
	}
	if p.Can(ctx, 1, gate.ActionUpdate, nil) || p.Can(ctx, 1, gate.ActionDelete, nil) {
		t.Error("expected writes to be denied")
	}
}
