package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configEnvVars lists every environment variable the loader reads, so
// tests can save and restore the caller's environment.
var configEnvVars = []string{
	"JIRA_URL",
	"JIRA_USERNAME",
	"JIRA_TOKEN",
	"JIRA_AUTH_MODE",
	"JIRA_LEGACY",
	"LOOM_WORKDIR",
}

func saveEnv(t *testing.T) {
	t.Helper()
	saved := make(map[string]string, len(configEnvVars))
	for _, key := range configEnvVars {
		saved[key] = os.Getenv(key)
		require.NoError(t, os.Unsetenv(key))
	}
	t.Cleanup(func() {
		for key, value := range saved {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	})
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	saveEnv(t)
	require.NoError(t, os.Setenv("JIRA_URL", "https://jira.example.test"))
	require.NoError(t, os.Setenv("JIRA_USERNAME", "marty"))
	require.NoError(t, os.Setenv("JIRA_TOKEN", "secret"))
	require.NoError(t, os.Setenv("JIRA_LEGACY", "true"))
	require.NoError(t, os.Setenv("LOOM_WORKDIR", "/tmp/loom-test"))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://jira.example.test", cfg.Jira.URL)
	assert.Equal(t, "marty", cfg.Jira.Username)
	assert.Equal(t, "secret", cfg.Jira.Token)
	assert.True(t, cfg.Jira.Legacy)
	assert.Equal(t, "/tmp/loom-test", cfg.Workdir)
}

func TestLoadConfigDefaults(t *testing.T) {
	saveEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "basic", cfg.Jira.AuthMode)
	assert.Equal(t, 100, cfg.MaxResults)
	assert.NotEmpty(t, cfg.DoneStatuses)
	// The default workdir lives under the home directory and must come
	// back expanded.
	require.NotEmpty(t, cfg.Workdir)
	assert.NotEqual(t, byte('~'), cfg.Workdir[0])
}

func TestValidateJiraConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid basic auth",
			config: &Config{Jira: JiraConfig{
				URL:      "https://jira.example.test",
				Username: "marty",
				Token:    "secret",
				AuthMode: "basic",
			}},
			wantErr: false,
		},
		{
			name: "bearer auth needs no username",
			config: &Config{Jira: JiraConfig{
				URL:      "https://jira.example.test",
				Token:    "pat-token",
				AuthMode: "bearer",
			}},
			wantErr: false,
		},
		{
			name: "missing url",
			config: &Config{Jira: JiraConfig{
				Username: "marty",
				Token:    "secret",
			}},
			wantErr: true,
		},
		{
			name: "basic auth missing username",
			config: &Config{Jira: JiraConfig{
				URL:      "https://jira.example.test",
				Token:    "secret",
				AuthMode: "basic",
			}},
			wantErr: true,
		},
		{
			name:    "everything missing",
			config:  &Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJiraConfig(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileFor(t *testing.T) {
	cfg := &Config{
		Workdir:       "/work",
		FileOverrides: map[string]string{"ex": "example.org"},
	}

	assert.Equal(t, filepath.Join("/work", "example.org"), cfg.FileFor("EX"))
	assert.Equal(t, filepath.Join("/work", "OPS.org"), cfg.FileFor("OPS"))
}

func TestIsIgnoredAuthor(t *testing.T) {
	cfg := &Config{IgnoredAuthors: []string{"automation-bot", "CI User"}}

	assert.True(t, cfg.IsIgnoredAuthor("automation-bot"))
	assert.True(t, cfg.IsIgnoredAuthor("ci user"))
	assert.False(t, cfg.IsIgnoredAuthor("marty"))
}

func TestPropertyName(t *testing.T) {
	cfg := &Config{PropertyOverrides: map[string]string{"assignee": "owner"}}

	assert.Equal(t, "owner", cfg.PropertyName("assignee"))
	assert.Equal(t, "status", cfg.PropertyName("status"))
}
