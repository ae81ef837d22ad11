package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "RevReach", cfg.Product.Name)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "revreach.db", cfg.Storage.Path)
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revreach.yaml")
	data := `
server:
  addr: ":9090"
  allowed_origins: ["http://localhost:3000"]
product:
  name: OutreachBot
  pitch: connects feedback to engineering
llm:
  provider: ollama
  base_url: http://localhost:11434
  model: qwen2.5:latest
limits:
  daily_emails: 25
  concurrent_campaigns: 1
risk:
  regulated_sectors: [aerospace]
storage:
  path: /tmp/outreach.db
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "OutreachBot", cfg.Product.Name)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 25, cfg.Limits.DailyEmails)
	assert.Equal(t, 1, cfg.Limits.ConcurrentCampaigns)
	assert.Equal(t, []string{"aerospace"}, cfg.Risk.RegulatedSectors)
	assert.Equal(t, "/tmp/outreach.db", cfg.Storage.Path)
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("REVREACH_LLM_API_KEY", "sk-test")
	t.Setenv("REVREACH_SMTP_PASSWORD", "hunter2")
	t.Setenv("REVREACH_ADDR", ":7070")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "hunter2", cfg.SMTP.Password)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
