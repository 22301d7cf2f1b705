package observability

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medcenter_backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	c := &config.Config{}
	c.Server.Environment = "staging"
	c.Observability.ServiceName = "medcenter"
	c.Observability.Tracing.Enabled = true
	c.Observability.Metrics.Enabled = true

	got := FromCentralConfig(c)
	assert.Equal(t, "staging", got.Environment)
	assert.True(t, got.TracingEnabled)
	assert.True(t, got.MetricsEnabled)
}

func TestInitTelemetry_TracingOnly(t *testing.T) {
	p, err := InitTelemetry(context.Background(), Config{ServiceName: "t", TracingEnabled: true})
	require.NoError(t, err)
	assert.NotNil(t, p.TracerProvider)
	assert.Nil(t, p.MeterProvider)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestDomain_NilSafe(t *testing.T) {
	var d *Domain
	ctx := context.Background()
	d.OTPIssued(ctx)
	d.OTPVerified(ctx, "ok")
	d.OverrideRecorded(ctx)
	d.LabTransition(ctx, "requested", "sample_collected")
	d.CaseFinalized(ctx, "opd")

	NewDomain().LabTransition(ctx, "complete", "done")
}

func TestFiberMiddleware_PassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(FiberMiddleware("/livez"))
	app.Get("/livez", func(c fiber.Ctx) error { return c.SendString("up") })
	app.Get("/boom", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusInternalServerError) })
	app.Get("/ok", func(c fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/livez", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
