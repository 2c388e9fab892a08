package gate

import (
	"context"
	"errors"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
)

// Action is the operation a subject wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// Policy decides one resource type. For list and create the resource may be nil.
type Policy[U any] interface {
	Can(ctx context.Context, user U, action Action, resource any) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc[U any] func(ctx context.Context, user U, action Action, resource any) bool

func (f PolicyFunc[U]) Can(ctx context.Context, user U, action Action, resource any) bool {
	return f(ctx, user, action, resource)
}

// ReadOnly wraps a policy and denies every action other than view and list.
func ReadOnly[U any](inner Policy[U]) Policy[U] {
	return PolicyFunc[U](func(ctx context.Context, user U, action Action, resource any) bool {
		if action != ActionView && action != ActionList {
			return false
		}
		return inner.Can(ctx, user, action, resource)
	})
}
