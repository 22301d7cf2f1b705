package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/arsmn/go-smsir/smsir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medcenter_backend/config"
)

type recordingSender struct {
	got []*smsir.UltraFastSendRequest
	err error
}

func (r *recordingSender) send(_ context.Context, req *smsir.UltraFastSendRequest) error {
	r.got = append(r.got, req)
	return r.err
}

func TestNewFromConfig(t *testing.T) {
	client, err := NewFromConfig(config.SMSConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())

	_, err = NewFromConfig(config.SMSConfig{Enabled: true, SMSIR: config.SMSIRConfig{TemplateID: "1"}})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewFromConfig(config.SMSConfig{Enabled: true, SMSIR: config.SMSIRConfig{APIKey: "k"}})
	assert.ErrorIs(t, err, ErrMissingTemplate)

	client, err = NewFromConfig(config.SMSConfig{Enabled: true, SMSIR: config.SMSIRConfig{APIKey: "k", SecretKey: "s", TemplateID: "100"}})
	require.NoError(t, err)
	assert.True(t, client.IsEnabled())
}

func TestSendCode_DisabledIsNoop(t *testing.T) {
	client := &Client{}
	assert.NoError(t, client.SendCode(context.Background(), "", ""))
}

func TestSendCode(t *testing.T) {
	rs := &recordingSender{}
	client := &Client{send: rs.send, templateID: "100", enabled: true}

	require.NoError(t, client.SendCode(context.Background(), " +919812345678 ", "123456"))
	require.Len(t, rs.got, 1)
	assert.Equal(t, "+919812345678", rs.got[0].Mobile)
	assert.Equal(t, "100", rs.got[0].TemplateID)
	assert.Equal(t, "123456", rs.got[0].Parameters[0].Value)

	assert.ErrorIs(t, client.SendCode(context.Background(), "", "1"), ErrInvalidInput)

	rs.err = errors.New("quota exceeded")
	assert.ErrorContains(t, client.SendCode(context.Background(), "+919812345678", "1"), "quota exceeded")
}
