package models

import "github.com/google/uuid"

const (
	RoleMaster   = "master"
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	RoleClient   = "client"
)

// Role is the normalized form every authorization decision runs against.
// The auth middleware builds it from the token claim; nothing below the
// controller layer ever sees a raw role string.
type Role struct {
	Name        string
	Permissions []string
}

var rolePermissions = map[string][]string{
	RoleMaster:   {"companies:manage", "appointments:manage", "catalog:manage", "billing:manage", "records:manage"},
	RoleAdmin:    {"appointments:manage", "catalog:manage", "billing:manage", "records:manage"},
	RoleEmployee: {"appointments:manage", "billing:view", "records:manage"},
	RoleClient:   {"appointments:own"},
}

// NormalizeRole maps a role name to its tagged form. Unknown names get an
// empty permission set rather than an error so a stale token degrades to
// "can do nothing".
func NormalizeRole(name string) Role {
	perms, ok := rolePermissions[name]
	if !ok {
		return Role{Name: name}
	}
	return Role{Name: name, Permissions: perms}
}

func (r Role) Has(permission string) bool {
	for _, p := range r.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role acts on behalf of the clinic rather
// than a single client.
func (r Role) IsStaff() bool {
	return r.Name == RoleMaster || r.Name == RoleAdmin || r.Name == RoleEmployee
}

func (r Role) IsClient() bool {
	return r.Name == RoleClient
}

// Requester is the per-request identity threaded explicitly through the
// service layer. It is never stored globally.
type Requester struct {
	UserID    uuid.UUID
	CompanyID *uuid.UUID // tenant membership; nil for master users
	Role      Role
	IsMaster  bool
}
