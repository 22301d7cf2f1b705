package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	casbin "github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
)

func seededAuth(t *testing.T) authorize.IAuthorization {
	t.Helper()

	policyPath := filepath.Join(t.TempDir(), "policy.csv")
	require.NoError(t, os.WriteFile(policyPath, nil, 0o644))

	e, err := casbin.NewDistributedEnforcer(
		filepath.Join("..", "..", "..", "..", "config", "rbac_model.conf"),
		fileadapter.NewAdapter(policyPath),
	)
	require.NoError(t, err)
	e.EnableAutoSave(false)

	auth, err := authorize.NewAuthorization(e, false)
	require.NoError(t, err)
	require.NoError(t, authorize.SeedDefaultPolicies(context.Background(), auth))
	return auth
}

func TestRequirePermission(t *testing.T) {
	auth := seededAuth(t)
	ctx := context.Background()

	grants := map[int64]authorize.Role{
		1: authorize.RoleDoctor,
		2: authorize.RoleNurse,
		3: authorize.RoleAdmin,
	}
	for id, role := range grants {
		_, err := auth.AddRoleForUserInDomain(ctx, authorize.UserSubject(id), role, authorize.DomainSys)
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		userID   int64
		resource authorize.Resource
		action   authorize.Action
		want     int
	}{
		{"doctor sends otp", 1, authorize.ResourcePatientHistory, authorize.ActionExecute, http.StatusOK},
		{"nurse cannot send otp", 2, authorize.ResourcePatientHistory, authorize.ActionExecute, http.StatusForbidden},
		{"nurse registers patient", 2, authorize.ResourcePatient, authorize.ActionCreate, http.StatusOK},
		{"doctor denied override log", 1, authorize.ResourceHistoryOverride, authorize.ActionList, http.StatusForbidden},
		{"admin reads override log", 3, authorize.ResourceHistoryOverride, authorize.ActionList, http.StatusOK},
		{"no role at all", 9, authorize.ResourceCase, authorize.ActionRead, http.StatusForbidden},
		{"anonymous", 0, authorize.ResourceCase, authorize.ActionRead, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c fiber.Ctx) error {
				if tt.userID != 0 {
					c.Locals(LocalsPrincipal, authorize.NewPrincipal(tt.userID))
				}
				return c.Next()
			})
			app.Get("/", RequirePermission(auth, tt.resource, tt.action), func(c fiber.Ctx) error {
				return c.SendStatus(http.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c fiber.Ctx) error {
		rid, _ := RequestIDFromFiber(c)
		return c.SendString(rid)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-Id"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", strings.Repeat("x", 200))
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Len(t, resp.Header.Get("X-Request-Id"), 36)
}
