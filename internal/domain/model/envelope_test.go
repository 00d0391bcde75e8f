package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"success":true,"message":"ok","data":{"token":"tok123"}}`))
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, "ok", env.Message)
	assert.True(t, env.HasData())

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, env.Decode(&out))
	assert.Equal(t, "tok123", out.Token)
}

func TestParseEnvelope_Invalid(t *testing.T) {
	_, err := ParseEnvelope([]byte(`<html>bad gateway</html>`))
	require.Error(t, err)
}

func TestEnvelope_DecodeWithoutData(t *testing.T) {
	tests := []struct {
		name string
		env  *Envelope
	}{
		{name: "nil envelope", env: nil},
		{name: "missing data", env: &Envelope{Success: true}},
		{name: "null data", env: &Envelope{Success: true, Data: []byte(" null ")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v map[string]any
			assert.ErrorIs(t, tt.env.Decode(&v), ErrNoData)
		})
	}
}

func TestEnvelope_DecodeTypeMismatch(t *testing.T) {
	env := &Envelope{Success: true, Data: []byte(`"text"`)}
	var v map[string]any
	err := env.Decode(&v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}

func TestParseEnvelope_LenientFields(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantSuccess bool
		wantMessage string
	}{
		{name: "string success", body: `{"success":"true","message":"ok"}`, wantSuccess: true, wantMessage: "ok"},
		{name: "numeric string success", body: `{"success":"1"}`, wantSuccess: true},
		{name: "unrecognised success", body: `{"success":{"v":1}}`},
		{name: "nested message", body: `{"message":{"message":"No tienes permisos","code":7}}`, wantMessage: "No tienes permisos"},
		{name: "object message", body: `{"message": {"code": 7}}`, wantMessage: `{"code":7}`},
		{name: "numeric message", body: `{"message":404}`, wantMessage: "404"},
		{name: "null message", body: `{"success":false,"message":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, env.Success)
			assert.Equal(t, tt.wantMessage, env.Message)
		})
	}
}

func TestParseEnvelope_RejectsNonObjects(t *testing.T) {
	for _, body := range []string{`null`, `[1,2]`, `"text"`, `{"success":tru`} {
		_, err := ParseEnvelope([]byte(body))
		assert.Error(t, err, body)
	}
}
