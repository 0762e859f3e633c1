package rbac

const (
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

const (
	PermSessionUpload = "session:upload"
	PermSessionView   = "session:view"
	PermGradesEdit    = "grades:edit"
	PermUsersManage   = "users:manage"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	RoleInstructor: {
		PermSessionUpload,
		PermSessionView,
		PermGradesEdit,
	},
	RoleAdmin: {
		"*",
	},
}
