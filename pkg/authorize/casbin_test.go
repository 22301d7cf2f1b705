package authorize

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	casbin "github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/Alijeyrad/medcenter_backend/pkg/reqctx"
)

// createTestEnforcer creates a file-backed Casbin enforcer for testing
func createTestEnforcer(t *testing.T) *casbin.DistributedEnforcer {
	t.Helper()

	tmpDir := t.TempDir()

	modelPath := filepath.Join(tmpDir, "model.conf")
	modelContent := `[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act, eft

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = g(r.sub, p.sub, r.dom) && (p.dom == "*" || p.dom == r.dom) && (p.obj == "*" || keyMatch2(r.obj, p.obj)) && (p.act == "*" || keyMatch(r.act, p.act))
`
	if err := os.WriteFile(modelPath, []byte(modelContent), 0644); err != nil {
		t.Fatalf("failed to write model file: %v", err)
	}

	policyPath := filepath.Join(tmpDir, "policy.csv")
	if err := os.WriteFile(policyPath, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	a := fileadapter.NewAdapter(policyPath)

	e, err := casbin.NewDistributedEnforcer(modelPath, a)
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}

	e.EnableAutoSave(false)
	e.EnableEnforce(true)

	return e
}

func newSeededAuth(t *testing.T, bypass bool) IAuthorization {
	t.Helper()
	auth, err := NewAuthorization(createTestEnforcer(t), bypass)
	if err != nil {
		t.Fatalf("NewAuthorization: %v", err)
	}
	if err := SeedDefaultPolicies(context.Background(), auth); err != nil {
		t.Fatalf("SeedDefaultPolicies: %v", err)
	}
	return auth
}

func TestNewAuthorization(t *testing.T) {
	t.Run("returns error for nil enforcer", func(t *testing.T) {
		_, err := NewAuthorization(nil, true)
		if err == nil {
			t.Error("Expected error for nil enforcer")
		}
	})

	t.Run("succeeds with valid enforcer", func(t *testing.T) {
		auth, err := NewAuthorization(createTestEnforcer(t), true)
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if auth == nil {
			t.Error("Expected non-nil authorization")
		}
	})
}

func TestEnforce(t *testing.T) {
	auth := newSeededAuth(t, false)
	ctx := context.Background()

	doctor := UserSubject(7)
	labTech := UserSubject(21)

	if _, err := auth.AddRoleForUserInDomain(ctx, doctor, RoleDoctor, DomainSys); err != nil {
		t.Fatalf("Failed to add role: %v", err)
	}
	if _, err := auth.AddRoleForUserInDomain(ctx, labTech, RoleLab, DomainSys); err != nil {
		t.Fatalf("Failed to add role: %v", err)
	}

	tests := []struct {
		name     string
		subject  GroupSubject
		domain   Domain
		resource Resource
		action   Action
		want     bool
		wantErr  bool
	}{
		{"doctor may send history otp", doctor, DomainSys, ResourcePatientHistory, ActionExecute, true, false},
		{"doctor may finalize case", doctor, DomainSys, ResourceCase, ActionExecute, true, false},
		{"doctor may write override", doctor, DomainSys, ResourceHistoryOverride, ActionCreate, true, false},
		{"doctor may not browse override log", doctor, DomainSys, ResourceHistoryOverride, ActionList, false, false},
		{"doctor may not submit lab results", doctor, DomainSys, ResourceLabReport, ActionExecute, false, false},
		{"lab may submit lab results", labTech, DomainSys, ResourceLabReport, ActionExecute, true, false},
		{"lab may not read patient history", labTech, DomainSys, ResourcePatientHistory, ActionRead, false, false},
		{"unknown user denied", UserSubject(999), DomainSys, ResourceCase, ActionRead, false, false},
		{"error for empty subject", "", DomainSys, ResourceCase, ActionRead, false, true},
		{"error for invalid domain", doctor, Domain("clinic:1"), ResourceCase, ActionRead, false, true},
		{"error for unknown resource", doctor, DomainSys, Resource("wallet"), ActionRead, false, true},
		{"error for unknown action", doctor, DomainSys, ResourceCase, Action("archive"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, tt.subject, tt.domain, tt.resource, tt.action)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	auth := newSeededAuth(t, false)
	ctx := context.Background()

	nurse := UserSubject(3)
	auth.AddRoleForUserInDomain(ctx, nurse, RoleNurse, DomainSys)

	t.Run("returns nil when allowed", func(t *testing.T) {
		if err := auth.MustEnforce(ctx, nurse, DomainSys, ResourceCase, ActionCreate); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("returns ErrForbidden when denied", func(t *testing.T) {
		err := auth.MustEnforce(ctx, nurse, DomainSys, ResourceCase, ActionExecute)
		if err != ErrForbidden {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})
}

func TestSuperAdminBypass(t *testing.T) {
	ctx := context.Background()
	admin := UserSubject(1)

	t.Run("bypass enabled", func(t *testing.T) {
		auth, _ := NewAuthorization(createTestEnforcer(t), true)
		if _, err := auth.AddRoleForUserInDomain(ctx, admin, RoleAdmin, DomainSys); err != nil {
			t.Fatalf("Failed to add admin role: %v", err)
		}
		allowed, err := auth.Enforce(ctx, admin, DomainSys, ResourceHistoryOverride, ActionList)
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if !allowed {
			t.Error("Expected admin to be allowed without any policy")
		}
	})

	t.Run("bypass disabled falls back to policy", func(t *testing.T) {
		auth, _ := NewAuthorization(createTestEnforcer(t), false)
		auth.AddRoleForUserInDomain(ctx, admin, RoleAdmin, DomainSys)
		allowed, _ := auth.Enforce(ctx, admin, DomainSys, ResourceHistoryOverride, ActionList)
		if allowed {
			t.Error("Expected deny with no policies and bypass disabled")
		}
	})
}

func TestRoleManagement(t *testing.T) {
	auth, _ := NewAuthorization(createTestEnforcer(t), true)
	ctx := context.Background()

	subject := UserSubject(42)

	t.Run("add and get roles", func(t *testing.T) {
		added, err := auth.AddRoleForUserInDomain(ctx, subject, RolePharmacist, DomainSys)
		if err != nil {
			t.Errorf("Failed to add role: %v", err)
		}
		if !added {
			t.Error("Expected role to be added")
		}

		roles, err := auth.GetRolesForUserInDomain(ctx, subject, DomainSys)
		if err != nil {
			t.Errorf("Failed to get roles: %v", err)
		}
		if len(roles) != 1 || roles[0] != RolePharmacist {
			t.Errorf("Expected [%q], got %v", RolePharmacist, roles)
		}
	})

	t.Run("remove role", func(t *testing.T) {
		removed, err := auth.RemoveRoleForUserInDomain(ctx, subject, RolePharmacist, DomainSys)
		if err != nil {
			t.Errorf("Failed to remove role: %v", err)
		}
		if !removed {
			t.Error("Expected role to be removed")
		}

		roles, _ := auth.GetRolesForUserInDomain(ctx, subject, DomainSys)
		if len(roles) != 0 {
			t.Errorf("Expected 0 roles after removal, got %d", len(roles))
		}
	})

	t.Run("error for invalid role", func(t *testing.T) {
		_, err := auth.AddRoleForUserInDomain(ctx, subject, Role("role:sys:janitor"), DomainSys)
		if err == nil {
			t.Error("Expected error for invalid role")
		}
	})
}

func TestPermissionManagement(t *testing.T) {
	auth, _ := NewAuthorization(createTestEnforcer(t), true)
	ctx := context.Background()

	t.Run("add and remove permission", func(t *testing.T) {
		added, err := auth.AddPermission(ctx, RolePharmacist, DomainSys, ResourceFile, ActionRead, EffectAllow)
		if err != nil {
			t.Errorf("Failed to add permission: %v", err)
		}
		if !added {
			t.Error("Expected permission to be added")
		}

		removed, err := auth.RemovePermission(ctx, RolePharmacist, DomainSys, ResourceFile, ActionRead, EffectAllow)
		if err != nil {
			t.Errorf("Failed to remove permission: %v", err)
		}
		if !removed {
			t.Error("Expected permission to be removed")
		}
	})

	t.Run("error for invalid effect", func(t *testing.T) {
		_, err := auth.AddPermission(ctx, RoleAdmin, DomainSys, ResourceStaff, ActionRead, PolicyEffect("maybe"))
		if err == nil {
			t.Error("Expected error for invalid effect")
		}
	})
}

func TestAuditedAuthorization_LogsDenialsWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	auth := NewAuditedAuthorization(newSeededAuth(t, false), logger)

	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{RequestID: "req-42"})
	nurse := UserSubject(3)
	if _, err := auth.AddRoleForUserInDomain(ctx, nurse, RoleNurse, DomainSys); err != nil {
		t.Fatalf("AddRoleForUserInDomain: %v", err)
	}

	// allowed decisions are debug-only and must not reach an info logger
	if err := auth.MustEnforce(ctx, nurse, DomainSys, ResourcePatient, ActionCreate); err != nil {
		t.Fatalf("nurse should register patients: %v", err)
	}
	if err := auth.MustEnforce(ctx, nurse, DomainSys, ResourcePatientHistory, ActionExecute); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	var lines []map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("expected role change and denial, got %d lines: %v", len(lines), lines)
	}

	if lines[0]["msg"] != "authz_role_change" || lines[0]["operation"] != "grant" {
		t.Errorf("unexpected first line: %v", lines[0])
	}
	deny := lines[1]
	if deny["msg"] != "authz_decision" || deny["level"] != "WARN" || deny["allowed"] != false {
		t.Errorf("unexpected denial line: %v", deny)
	}
	if deny["request_id"] != "req-42" || deny["user_id"] != float64(3) {
		t.Errorf("denial missing request context: %v", deny)
	}
}
