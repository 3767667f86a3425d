package domain

// Permission is a single capability granted by a role.
type Permission string

const (
	PermProfileRead      Permission = "profile:read"
	PermProfileWrite     Permission = "profile:write"
	PermSessionsManage   Permission = "sessions:manage"
	PermUsersRead        Permission = "users:read"
	PermUsersManage      Permission = "users:manage"
	PermTokensCleanupRun Permission = "tokens:cleanup"
)

var rolePermissions = map[Role][]Permission{
	RoleUser: {PermProfileRead, PermProfileWrite, PermSessionsManage},
	RoleAdmin: {PermProfileRead, PermProfileWrite, PermSessionsManage,
		PermUsersRead, PermUsersManage, PermTokensCleanupRun},
}

// PermissionsFor returns the permission set of a role. Unknown roles get none.
func PermissionsFor(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Identity is the authenticated principal of a request.
type Identity struct {
	UserID   string
	Username string
	Role     Role
}

func (i Identity) Can(p Permission) bool {
	for _, granted := range rolePermissions[i.Role] {
		if granted == p {
			return true
		}
	}
	return false
}
