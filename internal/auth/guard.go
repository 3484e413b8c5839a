package auth

import "github.com/hongminglow/exam-results/internal/models"

// Action names an operation on exam results that the Guard rules on.
type Action string

const (
	AddResult     Action = "add_result"
	UpdateResult  Action = "update_result"
	ListResults   Action = "list_results"
	DeleteResult  Action = "delete_result"
	GetResultByID Action = "get_result_by_id"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	// Forbidden means the caller is known but lacks the role or ownership (403).
	Forbidden
	// Unauthenticated means there is no caller or its role is unrecognized (401).
	Unauthenticated
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Forbidden:
		return "forbidden"
	default:
		return "unauthenticated"
	}
}

type rule func(id *Identity, target int64) Decision

// Guard maps (identity, action, target student id) to a Decision.
type Guard struct {
	rules map[Action]rule
}

// NewGuard builds the result access policy. In strict mode delete is admin-only
// and get-by-id is limited to admins and the owning student; otherwise both are open.
func NewGuard(strict bool) *Guard {
	rules := map[Action]rule{
		AddResult:     requireRole(models.RoleAdmin),
		UpdateResult:  adminOrOwner,
		ListResults:   requireRole(models.RoleAdmin, models.RoleStudent),
		DeleteResult:  open,
		GetResultByID: open,
	}
	if strict {
		rules[DeleteResult] = requireRole(models.RoleAdmin)
		rules[GetResultByID] = adminOrOwner
	}
	return &Guard{rules: rules}
}

// Authorize decides whether id may perform action on target. Unknown actions are forbidden.
func (g *Guard) Authorize(id *Identity, action Action, target int64) Decision {
	r, ok := g.rules[action]
	if !ok {
		return Forbidden
	}
	return r(id, target)
}

func open(*Identity, int64) Decision { return Allow }

func requireRole(roles ...string) rule {
	return func(id *Identity, _ int64) Decision {
		if d := known(id); d != Allow {
			return d
		}
		for _, role := range roles {
			if id.Role == role {
				return Allow
			}
		}
		return Forbidden
	}
}

func adminOrOwner(id *Identity, target int64) Decision {
	if d := known(id); d != Allow {
		return d
	}
	if id.Role == models.RoleAdmin || (id.Role == models.RoleStudent && id.ID == target) {
		return Allow
	}
	return Forbidden
}

func known(id *Identity) Decision {
	if id == nil || !models.KnownRole(id.Role) {
		return Unauthenticated
	}
	return Allow
}
