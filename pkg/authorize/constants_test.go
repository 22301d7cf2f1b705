package authorize

import (
	"errors"
	"testing"
)

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		name     string
		domain   Domain
		expected bool
	}{
		{"sys domain", DomainSys, true},
		{"wildcard domain", WildcardDomain, true},
		{"empty domain", Domain(""), false},
		{"random string", Domain("random"), false},
		{"tenant style domain", Domain("clinic:550e8400-e29b-41d4-a716-446655440000"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidDomain(tt.domain); got != tt.expected {
				t.Errorf("IsValidDomain(%q) = %v, want %v", tt.domain, got, tt.expected)
			}
		})
	}
}

func TestUserSubjectRoundTrip(t *testing.T) {
	s := UserSubject(7)
	if s != GroupSubject("user:7") {
		t.Fatalf("UserSubject(7) = %q", s)
	}
	id, err := UserIDFromSubject(s)
	if err != nil || id != 7 {
		t.Fatalf("UserIDFromSubject(%q) = %d, %v", s, id, err)
	}

	for _, bad := range []GroupSubject{"", "user:", "user:abc", "user:-4", "role:sys:doctor"} {
		if _, err := UserIDFromSubject(bad); !errors.Is(err, ErrInvalidArgs) {
			t.Errorf("UserIDFromSubject(%q) err = %v, want ErrInvalidArgs", bad, err)
		}
	}
}

func TestStaffRoleMapping(t *testing.T) {
	for staff, role := range StaffRoleToRBACRole {
		if _, ok := KnownRoles[role]; !ok {
			t.Errorf("staff role %q maps to unknown casbin role %q", staff, role)
		}
	}
	if len(StaffRoleToRBACRole) != len(KnownRoles) {
		t.Errorf("every casbin role should have a staff role: %d vs %d", len(StaffRoleToRBACRole), len(KnownRoles))
	}
}

func TestDefaultPoliciesUseKnownConstants(t *testing.T) {
	for _, p := range DefaultPolicies {
		if _, ok := KnownRoles[p.Subject]; !ok {
			t.Errorf("policy %+v uses unknown role", p)
		}
		if _, ok := KnownResources[p.Object]; !ok && p.Object != WildcardResource {
			t.Errorf("policy %+v uses unknown resource", p)
		}
		if _, ok := KnownActions[p.Action]; !ok && p.Action != WildcardAction {
			t.Errorf("policy %+v uses unknown action", p)
		}
	}
}

func TestPrincipal(t *testing.T) {
	p := NewPrincipal(9, RoleDoctor, RoleLab)
	if p.Subject() != UserSubject(9) {
		t.Errorf("Subject() = %q", p.Subject())
	}
	if !p.HasRole(RoleLab) || p.HasRole(RoleAdmin) {
		t.Errorf("HasRole mismatch for %+v", p)
	}
	if !p.HasAnyRole(RoleAdmin, RoleDoctor) {
		t.Error("HasAnyRole should match doctor")
	}
	if p.IsZero() || !(Principal{}).IsZero() {
		t.Error("IsZero mismatch")
	}
}
