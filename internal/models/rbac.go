package models

import (
	"github.com/gofrs/uuid"
)

type Role string

const (
	RoleMember         Role = "Member"
	RoleRepresentative Role = "Representative"
	RoleAdmin          Role = "Admin"
)

var Roles = []Role{RoleMember, RoleRepresentative, RoleAdmin}

func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleRepresentative, RoleAdmin:
		return true
	}
	return false
}

type Operation string

const (
	OpAssign      Operation = "assign"
	OpSubmit      Operation = "submit"
	OpVerify      Operation = "verify"
	OpRaise       Operation = "raise"
	OpReply       Operation = "reply"
	OpResolve     Operation = "resolve"
	OpReadTasks   Operation = "read_tasks"
	OpReadDoubts  Operation = "read_doubts"
	OpReadUsers   Operation = "read_users"
	OpReadReports Operation = "read_reports"
	OpExport      Operation = "export"
	OpClear       Operation = "clear"
	OpReset       Operation = "reset"
)

// Operations lists every operation in a fixed order.
var Operations = []Operation{
	OpAssign, OpSubmit, OpVerify, OpRaise, OpReply, OpResolve,
	OpReadTasks, OpReadDoubts, OpReadUsers, OpReadReports,
	OpExport, OpClear, OpReset,
}

// Decision is the outcome of a permission lookup.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// permissionTable is the static role -> operation grant list. Members only ever
// see their own tasks, doubts and progress; the scoping happens in the services.
var permissionTable = map[Role]map[Operation]struct{}{
	RoleMember: {
		OpSubmit:      {},
		OpRaise:       {},
		OpReadTasks:   {},
		OpReadDoubts:  {},
		OpReadReports: {},
	},
	RoleRepresentative: {
		OpAssign:     {},
		OpVerify:     {},
		OpReply:      {},
		OpResolve:    {},
		OpReadTasks:  {},
		OpReadDoubts: {},
		OpReadUsers:  {},
	},
	RoleAdmin: {
		OpReadTasks:   {},
		OpReadDoubts:  {},
		OpReadUsers:   {},
		OpReadReports: {},
		OpExport:      {},
		OpClear:       {},
		OpReset:       {},
	},
}

// Authorize reports whether role may invoke op. Unknown roles are denied.
func Authorize(role Role, op Operation) Decision {
	ops, ok := permissionTable[role]
	if !ok {
		return DecisionDeny
	}
	if _, ok := ops[op]; !ok {
		return DecisionDeny
	}
	return DecisionAllow
}

// PermissionsFor returns the operations granted to role, in Operations order.
func PermissionsFor(role Role) []string {
	var perms []string
	for _, op := range Operations {
		if Authorize(role, op) == DecisionAllow {
			perms = append(perms, string(op))
		}
	}
	return perms
}

// Actor is the authenticated identity a request runs as. It is passed
// explicitly into every controller call.
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Role   Role      `json:"role"`
}

func (a Actor) Can(op Operation) bool {
	return Authorize(a.Role, op) == DecisionAllow
}
