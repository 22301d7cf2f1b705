package authorize

import (
	"fmt"
	"strconv"
	"strings"
)

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// Power actions
	ActionManage  Action = "manage"  // CRUD + list
	ActionExecute Action = "execute" // finalize, submit, send-otp

	// RBAC-specific actions
	ActionGrant  Action = "grant"
	ActionRevoke Action = "revoke"
)

const (
	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionManage: {}, ActionExecute: {},
	ActionGrant: {}, ActionRevoke: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	// Registration and encounters
	ResourcePatient Resource = "patient"
	ResourceCase    Resource = "case"

	// Disclosure gate
	ResourcePatientHistory  Resource = "patient_history"
	ResourceHistoryOverride Resource = "history_override"

	// Lab
	ResourceLabTest   Resource = "lab_test"
	ResourceLabReport Resource = "lab_report"

	// Shared
	ResourceFile         Resource = "file"
	ResourcePrescription Resource = "prescription"
	ResourceCatalog      Resource = "catalog"

	// System
	ResourceStaff Resource = "staff"
	ResourceRBAC  Resource = "rbac"
)

var KnownResources = map[Resource]struct{}{
	ResourcePatient: {}, ResourceCase: {},
	ResourcePatientHistory: {}, ResourceHistoryOverride: {},
	ResourceLabTest: {}, ResourceLabReport: {},
	ResourceFile: {}, ResourcePrescription: {}, ResourceCatalog: {},
	ResourceStaff: {}, ResourceRBAC: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// These are the "policy subjects" we assign to staff users via grouping policies.

const (
	WildcardRole Role = "*"

	RoleAdmin      Role = "role:sys:admin"
	RoleDoctor     Role = "role:sys:doctor"
	RoleNurse      Role = "role:sys:nurse"
	RoleLab        Role = "role:sys:lab"
	RolePharmacist Role = "role:sys:pharmacist"
)

var KnownRoles = map[Role]struct{}{
	RoleAdmin:      {},
	RoleDoctor:     {},
	RoleNurse:      {},
	RoleLab:        {},
	RolePharmacist: {},
}

// Staff role strings (stored in DB staff_users.role column)
const (
	StaffRoleAdmin      = "admin"
	StaffRoleDoctor     = "doctor"
	StaffRoleNurse      = "nurse"
	StaffRoleLab        = "lab"
	StaffRolePharmacist = "pharmacist"
)

// StaffRoleToRBACRole maps DB role values to Casbin roles
var StaffRoleToRBACRole = map[string]Role{
	StaffRoleAdmin:      RoleAdmin,
	StaffRoleDoctor:     RoleDoctor,
	StaffRoleNurse:      RoleNurse,
	StaffRoleLab:        RoleLab,
	StaffRolePharmacist: RolePharmacist,
}

// ----------------------------
// Domains
// ----------------------------

const (
	DomainSys Domain = "sys"
)

const (
	WildcardDomain Domain = "*"
)

// IsValidDomain checks whether d is a recognised domain string.
func IsValidDomain(d Domain) bool {
	return d == DomainSys || d == WildcardDomain
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is the g.sub in Casbin: a concrete principal id.
type GroupSubject string

const subjectPrefixUser = "user:"

// UserSubject builds the casbin subject for a staff user id.
func UserSubject(userID int64) GroupSubject {
	return GroupSubject(fmt.Sprintf("%s%d", subjectPrefixUser, userID))
}

// UserIDFromSubject parses a subject built by UserSubject.
func UserIDFromSubject(s GroupSubject) (int64, error) {
	raw, ok := strings.CutPrefix(string(s), subjectPrefixUser)
	if !ok {
		return 0, fmt.Errorf("%w: subject %q is not a user subject", ErrInvalidArgs, s)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject %q has no valid user id", ErrInvalidArgs, s)
	}
	return id, nil
}

// Grouping rows: g, user_id, role, domain
type GroupingPolicy struct {
	Subject GroupSubject
	Role    Role
	Domain  Domain
}

// Permission rows: p, role, domain, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
