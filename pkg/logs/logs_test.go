package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medcenter_backend/pkg/reqctx"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestLokiPushURL(t *testing.T) {
	assert.Equal(t, "http://loki:3100/loki/api/v1/push", lokiPushURL("http://loki:3100/"))
	assert.Equal(t, "http://loki:3100/loki/api/v1/push", lokiPushURL("http://loki:3100/loki/api/v1/push"))
}

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	var info, errOnly bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errOnly, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	log := slog.New(h).With("svc", "x")

	log.Info("hello")
	assert.Contains(t, info.String(), `"svc":"x"`)
	assert.Empty(t, errOnly.String())

	log.Error("boom")
	assert.Contains(t, errOnly.String(), "boom")
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestRequestIDHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(requestIDHandler{slog.NewJSONHandler(&buf, nil)})

	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{RequestID: "rid-9"})
	log.InfoContext(ctx, "hi")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "rid-9", rec["request_id"])
}
