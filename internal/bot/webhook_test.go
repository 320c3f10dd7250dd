package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-filedrop/internal/config"
	"tg-filedrop/internal/models"
)

func TestWebhookPath(t *testing.T) {
	path, err := webhookPath("https://example.com/tg/hook")
	require.NoError(t, err)
	assert.Equal(t, "/tg/hook", path)

	path, err = webhookPath("https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "/webhook", path)

	_, err = webhookPath("://bad")
	require.Error(t, err)
}

func TestNewServerDefaultsPort(t *testing.T) {
	ws := NewServer(config.WebhookConfig{})
	assert.Equal(t, "0.0.0.0:8443", ws.server.Addr)
	assert.NotNil(t, ws.Mux)
}

func TestBuildCommands(t *testing.T) {
	commands := buildCommands([]string{"start", "upload"})
	require.Len(t, commands, 2)
	assert.Equal(t, "upload", commands[1].Command)
	assert.Equal(t, models.T("cmd_desc_upload"), commands[1].Description)
}
