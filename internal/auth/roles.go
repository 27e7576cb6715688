package auth

import "maintrack/internal/core"

// Action names an operation guarded by role.
type Action string

const (
	ActionViewRecords    Action = "records:view"
	ActionManageRecords  Action = "records:manage"
	ActionViewTenants    Action = "tenants:view"
	ActionManageTenants  Action = "tenants:manage"
	ActionUploadReceipts Action = "receipts:upload"
	ActionCreateAccounts Action = "accounts:create"
)

var grants = map[core.Role]map[Action]bool{
	core.RoleAdmin: {
		ActionViewRecords: true, ActionManageRecords: true,
		ActionViewTenants: true, ActionManageTenants: true,
		ActionUploadReceipts: true, ActionCreateAccounts: true,
	},
	core.RoleManager: {
		ActionViewRecords: true, ActionManageRecords: true,
		ActionViewTenants: true, ActionManageTenants: true,
		ActionUploadReceipts: true,
	},
	core.RoleTenant: {
		ActionViewRecords: true,
		ActionViewTenants: true,
	},
}

// Can reports whether role r may perform a.
func Can(r core.Role, a Action) bool {
	return grants[r][a]
}
