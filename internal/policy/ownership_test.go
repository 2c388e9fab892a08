package policy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/diewo77/go-freelance/gate"
	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/internal/policy"
)

type notOwnable struct{ ID uuid.UUID }

func TestOwnershipPolicy(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	inv := &models.Invoice{UserID: owner}

	if !p.Can(ctx, owner, gate.ActionList, nil) || !p.Can(ctx, owner, gate.ActionCreate, nil) {
		t.Error("expected nil resource to be allowed")
	}
	for _, a := range []gate.Action{gate.ActionView, gate.ActionUpdate, gate.ActionDelete} {
		if !p.Can(ctx, owner, a, inv) {
			t.Errorf("expected owner to be allowed to %s", a)
		}
		if p.Can(ctx, other, a, inv) {
			t.Errorf("expected non-owner to be denied %s", a)
		}
	}
	if p.Can(ctx, owner, gate.ActionView, &notOwnable{ID: owner}) {
		t.Error("expected non-Ownable resource to be denied")
	}
}

func TestNewGate(t *testing.T) {
	g := policy.NewGate()
	ctx := context.Background()
	owner := uuid.New()
	client := &models.Client{UserID: owner}

	if err := g.Authorize(ctx, owner, gate.ActionUpdate, policy.ResourceClient, client); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if err := g.Authorize(ctx, uuid.New(), gate.ActionView, policy.ResourceClient, client); !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !g.Can(ctx, owner, gate.ActionView, policy.ResourceHistory, &models.Invoice{UserID: owner}) {
		t.Fatal("expected owner to read history")
	}
	if g.Can(ctx, owner, gate.ActionDelete, policy.ResourceHistory, &models.Invoice{UserID: owner}) {
		t.Fatal("expected history to be read only")
	}
}
