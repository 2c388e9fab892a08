// Package policy holds the authorization policies registered on the gate.
package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/diewo77/go-freelance/gate"
	"github.com/diewo77/go-freelance/internal/models"
)

// Resource type names used with the gate.
const (
	ResourceClient  = "client"
	ResourceProject = "project"
	ResourceInvoice = "invoice"
	ResourceExpense = "expense"
	ResourceProfile = "profile"
	// Audit history is readable by the owner and never written through the API.
	ResourceHistory = "history"
)

// OwnershipPolicy allows an action when the user owns the resource.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can reports ownership. A nil resource (list, create) is allowed; a
// resource without an owner is denied.
func (p *OwnershipPolicy) Can(_ context.Context, userID uuid.UUID, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(models.Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}

// NewGate returns a gate with the ownership policy registered for every
// user owned resource.
func NewGate() *gate.Gate[uuid.UUID] {
	g := gate.New[uuid.UUID]()
	owner := NewOwnershipPolicy()
	for _, r := range []string{ResourceClient, ResourceProject, ResourceInvoice, ResourceExpense, ResourceProfile} {
		g.Register(r, owner)
	}
	g.Register(ResourceHistory, gate.ReadOnly[uuid.UUID](owner))
	return g
}
