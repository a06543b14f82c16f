package policy

import (
	"errors"

	"github.com/google/uuid"

	"github.com/tourbase-hq/reservations/platform/go/auth"
	"github.com/tourbase-hq/reservations/platform/go/role"
)

// Action tags the kind of access being requested against a company's resources.
type Action string

const (
	ActionViewAny Action = "viewAny"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
)

// ErrForbidden is returned for every denial. Cross-tenant references resolve
// to this error rather than not-found so tenant existence never leaks.
var ErrForbidden = errors.New("forbidden")

// Authorize decides whether the actor may perform the action against the
// target company. Administrators are allowed everywhere; company-scoped roles
// only inside their own company; everyone else is denied. Pure, no side effects.
func Authorize(actor *auth.Principal, _ Action, companyID uuid.UUID) error {
	if actor == nil {
		return ErrForbidden
	}
	if actor.Role == role.Administrator {
		return nil
	}
	if actor.Role.CompanyScoped() && actor.CompanyID != nil && *actor.CompanyID == companyID {
		return nil
	}
	return ErrForbidden
}
