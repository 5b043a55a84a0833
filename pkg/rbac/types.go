package rbac

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

// Action is what the caller wants to do to a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ResourceKind names the entity a check targets.
type ResourceKind string

const (
	ResourceUser      ResourceKind = "user"
	ResourceAuthor    ResourceKind = "author"
	ResourceBook      ResourceKind = "book"
	ResourceGenre     ResourceKind = "genre"
	ResourceReview    ResourceKind = "review"
	ResourceFavourite ResourceKind = "favourite"
	ResourceRole      ResourceKind = "role"
)

// Caller identifies the authenticated principal making a request.
type Caller struct {
	UserID uuid.UUID
	Role   catalog.Role
}

// Check bundles the facts Authorize needs. OwnerID is the user id that
// owns the target row: the author profile's user, the book's author's
// user, the review or favourite row's user, or the target user itself
// for user-resource checks. uuid.Nil means ownership does not apply.
type Check struct {
	Caller   Caller
	Action   Action
	Resource ResourceKind
	OwnerID  uuid.UUID

	// OwnsAuthorProfile reports, for author-profile creation, whether
	// the caller already has a profile.
	OwnsAuthorProfile bool

	// ExplicitUserID reports whether the request named a target user id
	// rather than defaulting to the caller. Admins may act on another
	// user's review or favourite only when this is set.
	ExplicitUserID bool
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string

	kind error
}

// Err maps a denial onto the catalog error taxonomy. Allowed decisions
// return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%s: %w", d.Reason, d.kind)
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(format string, args ...interface{}) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...), kind: catalog.ErrForbidden}
}

func denyConflict(format string, args ...interface{}) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...), kind: catalog.ErrConflict}
}
