package tenancy

// Role is a named, tenant-scoped bundle of permission strings. Roles are
// created and updated by the external management surface; read-only here.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	TenantID    string   `json:"tenant_id"`
}

// HasPermission reports whether the role grants the permission.
func (r *Role) HasPermission(permission string) bool {
	for _, p := range r.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Membership links a user to a tenant with a set of role IDs. An inactive
// membership grants nothing and is invisible to tenant-listing queries.
type Membership struct {
	UserID   string   `json:"user_id"`
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles"`
	IsActive bool     `json:"is_active"`
}
