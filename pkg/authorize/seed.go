package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the baseline permission matrix for the sys domain.
var DefaultPolicies = []PermissionPolicy{
	// Admin: everything, including RBAC and the override audit log
	{RoleAdmin, DomainSys, WildcardResource, WildcardAction, EffectAllow},

	// Doctor: consultation, history disclosure, lab requests
	{RoleDoctor, DomainSys, ResourcePatient, ActionRead, EffectAllow},
	{RoleDoctor, DomainSys, ResourcePatient, ActionList, EffectAllow},
	{RoleDoctor, DomainSys, ResourceCase, ActionRead, EffectAllow},
	{RoleDoctor, DomainSys, ResourceCase, ActionList, EffectAllow},
	{RoleDoctor, DomainSys, ResourceCase, ActionUpdate, EffectAllow},
	{RoleDoctor, DomainSys, ResourceCase, ActionExecute, EffectAllow},
	{RoleDoctor, DomainSys, ResourcePatientHistory, ActionExecute, EffectAllow},
	{RoleDoctor, DomainSys, ResourcePatientHistory, ActionRead, EffectAllow},
	{RoleDoctor, DomainSys, ResourceHistoryOverride, ActionCreate, EffectAllow},
	{RoleDoctor, DomainSys, ResourceLabTest, ActionList, EffectAllow},
	{RoleDoctor, DomainSys, ResourceLabReport, ActionCreate, EffectAllow},
	{RoleDoctor, DomainSys, ResourceLabReport, ActionRead, EffectAllow},
	{RoleDoctor, DomainSys, ResourceLabReport, ActionList, EffectAllow},
	{RoleDoctor, DomainSys, ResourcePrescription, ActionList, EffectAllow},
	{RoleDoctor, DomainSys, ResourceFile, ActionRead, EffectAllow},
	{RoleDoctor, DomainSys, ResourceCatalog, ActionList, EffectAllow},

	// Nurse: registration and vitals intake
	{RoleNurse, DomainSys, ResourcePatient, ActionCreate, EffectAllow},
	{RoleNurse, DomainSys, ResourcePatient, ActionRead, EffectAllow},
	{RoleNurse, DomainSys, ResourcePatient, ActionList, EffectAllow},
	{RoleNurse, DomainSys, ResourceCase, ActionCreate, EffectAllow},
	{RoleNurse, DomainSys, ResourceCase, ActionRead, EffectAllow},
	{RoleNurse, DomainSys, ResourceCase, ActionUpdate, EffectAllow},
	{RoleNurse, DomainSys, ResourceCatalog, ActionList, EffectAllow},

	// Lab: report lifecycle and result files
	{RoleLab, DomainSys, ResourceLabTest, ActionList, EffectAllow},
	{RoleLab, DomainSys, ResourceLabReport, ActionRead, EffectAllow},
	{RoleLab, DomainSys, ResourceLabReport, ActionList, EffectAllow},
	{RoleLab, DomainSys, ResourceLabReport, ActionUpdate, EffectAllow},
	{RoleLab, DomainSys, ResourceLabReport, ActionExecute, EffectAllow},
	{RoleLab, DomainSys, ResourceFile, ActionCreate, EffectAllow},
	{RoleLab, DomainSys, ResourceFile, ActionRead, EffectAllow},

	// Pharmacist: dispensing view
	{RolePharmacist, DomainSys, ResourceCase, ActionRead, EffectAllow},
	{RolePharmacist, DomainSys, ResourcePrescription, ActionList, EffectAllow},
	{RolePharmacist, DomainSys, ResourceCatalog, ActionList, EffectAllow},

	// Overrides are written by doctors but only admins may browse the log
	{RoleDoctor, DomainSys, ResourceHistoryOverride, ActionList, EffectDeny},
}

// SeedDefaultPolicies sets up the baseline RBAC policies for the system.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()

	for _, p := range DefaultPolicies {
		added, err := auth.AddPermission(ctx, p.Subject, p.Domain, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "domain", p.Domain, "resource", p.Object, "action", p.Action)
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(DefaultPolicies))
	return nil
}
