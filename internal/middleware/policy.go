package middleware

import "docflow/internal/model"

// Operation names. Every protected route declares one.
const (
	OpListDocuments     = "documents.list"
	OpUploadDocument    = "documents.upload"
	OpCreatePlaceholder = "documents.create_placeholder"
	OpBindFile          = "documents.bind_file"
	OpUpdateDocument    = "documents.update"
	OpUpdateStatus      = "documents.update_status"
	OpDeleteDocument    = "documents.delete"
	OpDownloadDocument  = "documents.download"

	OpDocumentStatistics = "documents.statistics"

	OpListActivity      = "activity.list"
	OpSubscribeActivity = "activity.subscribe"

	OpListUsers        = "users.list"
	OpListRegularUsers = "users.list_regular"
	OpGetUser          = "users.get"
	OpCreateUser       = "users.create"
	OpUpdateUser       = "users.update"
	OpDeleteUser       = "users.delete"

	OpManageInputs = "inputs.manage"

	OpMe     = "auth.me"
	OpLogout = "auth.logout"
)

var (
	everyone      = []string{model.RoleOwner, model.RoleAdmin, model.RoleStaff, model.RoleUser}
	adminAndStaff = []string{model.RoleAdmin, model.RoleStaff}
	ownerAndAdmin = []string{model.RoleOwner, model.RoleAdmin}
	adminOnly     = []string{model.RoleAdmin}
)

// Policy maps an operation to the roles allowed to run it. Roles are flat:
// listing admin does not imply staff.
type Policy map[string][]string

var DefaultPolicy = Policy{
	OpListDocuments:     everyone,
	OpUploadDocument:    adminAndStaff,
	OpCreatePlaceholder: adminAndStaff,
	OpBindFile:          adminAndStaff,
	OpUpdateDocument:    adminAndStaff,
	OpUpdateStatus:      adminAndStaff,
	OpDeleteDocument:    adminAndStaff,
	OpDownloadDocument:  everyone,

	OpDocumentStatistics: {model.RoleOwner, model.RoleAdmin, model.RoleStaff},

	OpListActivity:      ownerAndAdmin,
	OpSubscribeActivity: ownerAndAdmin,

	OpListUsers:        {model.RoleAdmin, model.RoleStaff, model.RoleOwner},
	OpListRegularUsers: adminAndStaff,
	OpGetUser:          adminOnly,
	OpCreateUser:       adminOnly,
	OpUpdateUser:       adminOnly,
	OpDeleteUser:       adminOnly,

	OpManageInputs: adminAndStaff,

	OpMe:     everyone,
	OpLogout: everyone,
}
