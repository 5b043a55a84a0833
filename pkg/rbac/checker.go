package rbac

import (
	"github.com/shelfwise/shelfwise/pkg/catalog"
)

// Checker evaluates access checks against the static role hierarchy and
// the per-resource ownership rules. It is stateless and safe for
// concurrent use.
type Checker struct{}

// NewChecker creates a checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Authorize decides whether the check's caller may perform the action.
// Handlers resolve the target row first, so a lookup miss is reported
// before any denial produced here.
func (c *Checker) Authorize(check Check) Decision {
	switch check.Resource {
	case ResourceAuthor:
		return c.authorizeAuthor(check)
	case ResourceBook:
		return c.authorizeBook(check)
	case ResourceReview, ResourceFavourite:
		return c.authorizeOwnedRow(check)
	case ResourceGenre:
		return c.authorizeGenre(check)
	case ResourceUser:
		return c.authorizeUser(check)
	case ResourceRole:
		return c.adminOnly(check)
	default:
		return deny("unknown resource kind %q", check.Resource)
	}
}

func (c *Checker) authorizeAuthor(check Check) Decision {
	switch check.Action {
	case ActionCreate:
		if check.OwnsAuthorProfile {
			return denyConflict("user %s already has an author profile", check.Caller.UserID)
		}
		return allow()
	case ActionRead, ActionList:
		return allow()
	case ActionUpdate, ActionDelete:
		return c.ownerOrAdmin(check)
	default:
		return deny("unknown action %q on author profiles", check.Action)
	}
}

func (c *Checker) authorizeBook(check Check) Decision {
	switch check.Action {
	case ActionCreate:
		if !check.Caller.Role.Covers(catalog.RoleAuthor) {
			return deny("role %q cannot publish books", check.Caller.Role)
		}
		return allow()
	case ActionRead, ActionList:
		return allow()
	case ActionUpdate, ActionDelete:
		return c.ownerOrAdmin(check)
	default:
		return deny("unknown action %q on books", check.Action)
	}
}

// authorizeOwnedRow covers reviews and favourites: a caller acts on their
// own rows, and an admin acts on another user's row only when that user
// was named explicitly in the request.
func (c *Checker) authorizeOwnedRow(check Check) Decision {
	if check.Caller.UserID == check.OwnerID {
		return allow()
	}
	if check.Caller.Role == catalog.RoleAdmin && check.ExplicitUserID {
		return allow()
	}
	return deny("%s belongs to another user", check.Resource)
}

func (c *Checker) authorizeGenre(check Check) Decision {
	switch check.Action {
	case ActionRead, ActionList:
		return allow()
	default:
		return c.adminOnly(check)
	}
}

func (c *Checker) authorizeUser(check Check) Decision {
	switch check.Action {
	case ActionRead, ActionUpdate:
		if check.Caller.UserID == check.OwnerID {
			return allow()
		}
		return c.adminOnly(check)
	default:
		return c.adminOnly(check)
	}
}

func (c *Checker) ownerOrAdmin(check Check) Decision {
	if check.Caller.UserID == check.OwnerID {
		return allow()
	}
	if check.Caller.Role == catalog.RoleAdmin {
		return allow()
	}
	return deny("%s is owned by another user", check.Resource)
}

func (c *Checker) adminOnly(check Check) Decision {
	if check.Caller.Role == catalog.RoleAdmin {
		return allow()
	}
	return deny("%s %s requires admin", check.Resource, check.Action)
}
