package shared

// ResourceType is the category of data a permission governs. The vocabulary
// is closed; unrecognized values are rejected at the boundary regardless of
// what the calling UI restricts.
type ResourceType string

// Canonical resource types.
const (
	ResourceAll       ResourceType = "all"
	ResourceSocieties ResourceType = "societies"
	ResourceResidents ResourceType = "residents"
	ResourceUsers     ResourceType = "users"
	ResourceRoles     ResourceType = "roles"
	ResourceFinances  ResourceType = "finances"
	ResourceNotices   ResourceType = "notices"
	ResourcePayments  ResourceType = "payments"
	ResourcePublic    ResourceType = "public"
)

// ResourceTypes lists the full vocabulary.
func ResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceAll,
		ResourceSocieties,
		ResourceResidents,
		ResourceUsers,
		ResourceRoles,
		ResourceFinances,
		ResourceNotices,
		ResourcePayments,
		ResourcePublic,
	}
}

// Valid reports whether r is part of the vocabulary.
func (r ResourceType) Valid() bool {
	switch r {
	case ResourceAll, ResourceSocieties, ResourceResidents, ResourceUsers,
		ResourceRoles, ResourceFinances, ResourceNotices, ResourcePayments,
		ResourcePublic:
		return true
	}
	return false
}

// SocietyScoped reports whether requests against r carry a society scope.
// Platform-level resources (users, roles, public) and the wildcard do not.
func (r ResourceType) SocietyScoped() bool {
	switch r {
	case ResourceSocieties, ResourceResidents, ResourceFinances,
		ResourceNotices, ResourcePayments:
		return true
	}
	return false
}

// Action is the verb a permission authorizes.
type Action string

// Canonical actions. ActionManage is a superset covering the other verbs;
// it does not imply wildcard resource scope.
const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Actions lists the full vocabulary.
func Actions() []Action {
	return []Action{ActionRead, ActionWrite, ActionCreate, ActionUpdate, ActionDelete, ActionManage}
}

// Valid reports whether a is part of the vocabulary.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionWrite, ActionCreate, ActionUpdate, ActionDelete, ActionManage:
		return true
	}
	return false
}

// Covers reports whether a granted action satisfies a requested one.
func (a Action) Covers(requested Action) bool {
	return a == requested || a == ActionManage
}
