// Package permissions decides what a dashboard user may do with each content entity.
//
// An Engine is built once per authenticated session from the user's role and permission
// records and is never mutated. When the user record changes, build a new Engine.
package permissions

import "github.com/Dosada05/esports-admin/models"

// Entities managed from the admin dashboard.
const (
	EntityPlayer     = "Player"
	EntityTeam       = "Team"
	EntityGame       = "Game"
	EntityMatch      = "Match"
	EntityTournament = "Tournament"
	EntityNews       = "News"
	EntityTransfer   = "Transfer"
	EntityStanding   = "Standing"
	EntityUser       = "User"
	EntitySetting    = "Setting"
)

// Entities lists every entity in dashboard menu order.
var Entities = []string{
	EntityPlayer, EntityTeam, EntityGame, EntityMatch, EntityTournament,
	EntityNews, EntityTransfer, EntityStanding, EntityUser, EntitySetting,
}

// Subject is the authenticated user as seen by the engine.
type Subject struct {
	Role        models.UserRole
	Permissions []models.PermissionRecord
}

type Engine struct {
	admin  bool
	grants map[string]map[models.Action]struct{}
}

// New builds an engine for subject. Records with an empty entity and actions outside
// create/read/update/delete are ignored. Several records for one entity are merged.
func New(subject Subject) *Engine {
	e := &Engine{admin: subject.Role == models.RoleAdmin}
	if e.admin {
		return e
	}

	e.grants = make(map[string]map[models.Action]struct{}, len(subject.Permissions))
	for _, rec := range subject.Permissions {
		if rec.Entity == "" {
			continue
		}
		for _, a := range rec.Actions {
			if !a.Valid() {
				continue
			}
			set, ok := e.grants[rec.Entity]
			if !ok {
				set = make(map[models.Action]struct{}, 4)
				e.grants[rec.Entity] = set
			}
			set[a] = struct{}{}
		}
	}
	return e
}

// ForUser is New for a loaded user record.
func ForUser(u *models.User) *Engine {
	if u == nil {
		return New(Subject{})
	}
	return New(Subject{Role: u.Role, Permissions: u.Permissions})
}

// IsAdmin reports whether the admin override applies. A nil engine is not admin.
func (e *Engine) IsAdmin() bool {
	return e != nil && e.admin
}

// HasPermission reports whether action is allowed on entity. Admins are always allowed;
// everyone else needs a record granting the action.
func (e *Engine) HasPermission(entity string, action models.Action) bool {
	if e == nil {
		return false
	}
	if e.admin {
		return true
	}
	_, ok := e.grants[entity][action]
	return ok
}

// HasAnyPermission reports whether at least one action is allowed on entity.
func (e *Engine) HasAnyPermission(entity string) bool {
	if e == nil {
		return false
	}
	if e.admin {
		return true
	}
	return len(e.grants[entity]) > 0
}

func (e *Engine) CanCreate(entity string) bool { return e.HasPermission(entity, models.ActionCreate) }
func (e *Engine) CanRead(entity string) bool   { return e.HasPermission(entity, models.ActionRead) }
func (e *Engine) CanUpdate(entity string) bool { return e.HasPermission(entity, models.ActionUpdate) }
func (e *Engine) CanDelete(entity string) bool { return e.HasPermission(entity, models.ActionDelete) }

// Capability is the CRUD matrix row of one entity.
type Capability struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// Capabilities evaluates the CRUD matrix for the given entities, or for Entities when
// none are given.
func (e *Engine) Capabilities(entities ...string) map[string]Capability {
	if len(entities) == 0 {
		entities = Entities
	}
	out := make(map[string]Capability, len(entities))
	for _, entity := range entities {
		out[entity] = Capability{
			Create: e.CanCreate(entity),
			Read:   e.CanRead(entity),
			Update: e.CanUpdate(entity),
			Delete: e.CanDelete(entity),
		}
	}
	return out
}
