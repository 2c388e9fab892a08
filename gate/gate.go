// Package gate is a small Gate/Policy authorization registry. A Gate maps
// resource type names to policies and answers "may this subject perform
// this action on this resource".
//
// The subject type is generic: Gate[uuid.UUID] authorizes by user id.
package gate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Gate is the central authorization checkpoint. It is safe for concurrent use.
type Gate[U comparable] struct {
	mu       sync.RWMutex
	policies map[string]Policy[U]
}

func New[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds or replaces the policy for resourceType.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.mu.Lock()
	g.policies[resourceType] = p
	g.mu.Unlock()
}

// Resources lists the registered resource types, sorted.
func (g *Gate[U]) Resources() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.policies))
	for name := range g.policies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Authorize returns nil when user may perform action on resource.
// A zero user is always unauthorized. Errors wrap ErrUnauthorized or
// ErrNoPolicyDefined.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return fmt.Errorf("%w: anonymous %s on %s", ErrUnauthorized, action, resourceType)
	}
	g.mu.RLock()
	p, ok := g.policies[resourceType]
	g.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPolicyDefined, resourceType)
	}
	if !p.Can(ctx, user, action, resource) {
		return fmt.Errorf("%w: %s on %s", ErrUnauthorized, action, resourceType)
	}
	return nil
}

// Can is Authorize as a bool.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}
