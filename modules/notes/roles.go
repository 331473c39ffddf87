package notes

import "slices"

// Role is a user role that can be granted or denied notice visibility.
type Role struct {
	ID   string
	Name string
}

// DefaultRoles are the roles known to every installation.
var DefaultRoles = []Role{
	{ID: "administrator", Name: "Administrator"},
	{ID: "editor", Name: "Editor"},
	{ID: "author", Name: "Author"},
	{ID: "contributor", Name: "Contributor"},
	{ID: "subscriber", Name: "Subscriber"},
}

// RoleFilter can edit the list of roles offered on the settings page.
type RoleFilter func([]Role) []Role

// KnownRoles returns the default roles plus any extra role ids, passed through the filters.
func KnownRoles(extra []string, filters ...RoleFilter) []Role {
	roles := slices.Clone(DefaultRoles)
	for _, id := range extra {
		if id == "" || slices.ContainsFunc(roles, func(r Role) bool { return r.ID == id }) {
			continue
		}
		roles = append(roles, Role{ID: id, Name: id})
	}
	for _, filter := range filters {
		roles = filter(roles)
	}
	return roles
}

// RoleVisibility maps role ids to whether notices are visible to that role.
type RoleVisibility map[string]bool

// DefaultRoleVisibility enables notices for every known role.
func DefaultRoleVisibility(roles []Role) RoleVisibility {
	v := RoleVisibility{}
	for _, role := range roles {
		v[role.ID] = true
	}
	return v
}

// WithDefaults overlays the stored values on top of the defaults for the given roles.
func (v RoleVisibility) WithDefaults(roles []Role) RoleVisibility {
	merged := DefaultRoleVisibility(roles)
	for id, enabled := range v {
		merged[id] = enabled
	}
	return merged
}

// Allows reports whether any of the actor's roles is enabled.
// Roles without an explicit true entry are denied.
func (v RoleVisibility) Allows(actorRoles []string) bool {
	for _, role := range actorRoles {
		if v[role] {
			return true
		}
	}
	return false
}

// SanitizeRoleVisibility builds the record saved from the settings form.
// Every known role gets an explicit entry that is true only if it was submitted.
func SanitizeRoleVisibility(roles []Role, submitted []string) RoleVisibility {
	v := RoleVisibility{}
	for _, role := range roles {
		v[role.ID] = slices.Contains(submitted, role.ID)
	}
	return v
}
