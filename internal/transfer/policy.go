package transfer

import (
	"github.com/mrlokans/collections/internal/entities"
)

// Role classifies a collection for transfer purposes.
type Role int

const (
	RoleRegular Role = iota
	RoleLiked
	RoleMyList
	RoleIgnore
)

func (r Role) String() string {
	switch r {
	case RoleLiked:
		return "liked"
	case RoleMyList:
		return "my_list"
	case RoleIgnore:
		return "ignore"
	default:
		return "regular"
	}
}

// Behavior is what a role changes about a transfer.
type Behavior struct {
	// KeepSource leaves the source membership in place when the role is on
	// the source side of a transfer.
	KeepSource bool
	// BlocksTargets prevents members of a collection with this role from
	// being added to any other collection.
	BlocksTargets bool
}

var policies = map[Role]Behavior{
	RoleRegular: {},
	RoleLiked:   {},
	RoleMyList:  {KeepSource: true},
	RoleIgnore:  {BlocksTargets: true},
}

// BehaviorOf returns the behaviour table entry for role.
func BehaviorOf(role Role) Behavior {
	return policies[role]
}

// Roles maps reserved collection names to roles. Names come from
// configuration and are resolved once when the engine is built.
type Roles struct {
	Liked  string
	MyList string
	Ignore string
}

// DefaultRoles uses the built-in reserved collection names.
func DefaultRoles() Roles {
	return Roles{
		Liked:  entities.CollectionNameLiked,
		MyList: entities.CollectionNameMyList,
		Ignore: entities.CollectionNameIgnore,
	}
}

// RoleOf classifies a collection by its name.
func (r Roles) RoleOf(c *entities.Collection) Role {
	if c == nil {
		return RoleRegular
	}
	switch c.CollectionName {
	case r.MyList:
		return RoleMyList
	case r.Ignore:
		return RoleIgnore
	case r.Liked:
		return RoleLiked
	default:
		return RoleRegular
	}
}

// blockingRoles lists the roles whose members never move into a target.
func blockingRoles() []Role {
	var roles []Role
	for _, role := range []Role{RoleRegular, RoleLiked, RoleMyList, RoleIgnore} {
		if policies[role].BlocksTargets {
			roles = append(roles, role)
		}
	}
	return roles
}

// nameFor returns the configured collection name for a reserved role.
func (r Roles) nameFor(role Role) string {
	switch role {
	case RoleLiked:
		return r.Liked
	case RoleMyList:
		return r.MyList
	case RoleIgnore:
		return r.Ignore
	default:
		return ""
	}
}
