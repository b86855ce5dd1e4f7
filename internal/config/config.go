// Package config provides centralized configuration management for the
// application.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Index file names within the working directory. Each project
// additionally gets one file of its own, see Config.FileFor.
const (
	ProjectIndexFile = "projects.org"
	BoardIndexFile   = "boards.org"
	IssueIndexFile   = "issues.org"
)

// Config holds all configuration parameters for the application.
type Config struct {
	Jira JiraConfig

	// Workdir is the directory holding the local document files.
	Workdir string

	// FileOverrides remaps a project key to a custom file name.
	FileOverrides map[string]string

	// IgnoredAuthors lists comment authors whose comments are never
	// rendered.
	IgnoredAuthors []string

	// ReverseComments orders comment sections newest first.
	ReverseComments bool

	// PropertyOverrides remaps canonical property names to
	// user-chosen names at write time. Identity properties are exempt.
	PropertyOverrides map[string]string

	// DoneStatuses are remote status names treated as terminal.
	DoneStatuses []string

	// MaxResults caps the page size of remote searches.
	MaxResults int
}

// JiraConfig holds remote-service specific configuration.
type JiraConfig struct {
	URL      string
	Username string
	Token    string

	// AuthMode selects between "basic" (username+token) and "bearer"
	// (personal access token) authentication.
	AuthMode string

	// Legacy selects the legacy transport mode in which coded fields
	// need a secondary lookup against reference lists.
	Legacy bool
}

// LoadConfig initializes and loads configuration from the optional
// config file (~/.loom.yaml) and environment variables, with the
// environment taking precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map specific environment variables
	v.BindEnv("jira.url", "JIRA_URL")
	v.BindEnv("jira.username", "JIRA_USERNAME")
	v.BindEnv("jira.token", "JIRA_TOKEN")
	v.BindEnv("jira.auth_mode", "JIRA_AUTH_MODE")
	v.BindEnv("jira.legacy", "JIRA_LEGACY")
	v.BindEnv("workdir", "LOOM_WORKDIR")

	v.SetDefault("jira.auth_mode", "basic")
	v.SetDefault("workdir", "~/org/loom")
	v.SetDefault("max_results", 100)
	v.SetDefault("done_statuses", []string{"Done", "Closed", "Resolved"})

	// Optional config file; absence is fine.
	v.SetConfigName(".loom")
	v.SetConfigType("yaml")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	workdir, err := homedir.Expand(v.GetString("workdir"))
	if err != nil {
		return nil, fmt.Errorf("failed to expand workdir: %w", err)
	}

	config := &Config{
		Jira: JiraConfig{
			URL:      v.GetString("jira.url"),
			Username: v.GetString("jira.username"),
			Token:    v.GetString("jira.token"),
			AuthMode: v.GetString("jira.auth_mode"),
			Legacy:   v.GetBool("jira.legacy"),
		},
		Workdir:           workdir,
		FileOverrides:     v.GetStringMapString("file_overrides"),
		IgnoredAuthors:    v.GetStringSlice("ignored_authors"),
		ReverseComments:   v.GetBool("reverse_comments"),
		PropertyOverrides: v.GetStringMapString("property_overrides"),
		DoneStatuses:      v.GetStringSlice("done_statuses"),
		MaxResults:        v.GetInt("max_results"),
	}

	return config, nil
}

// ValidateJiraConfig ensures the remote-service credentials are set.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.AuthMode != "bearer" && config.Jira.Username == "" {
		missingVars = append(missingVars, "JIRA_USERNAME")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}

// FileFor returns the document path for a project key, honoring the
// key to filename override table.
func (c *Config) FileFor(projectKey string) string {
	name := c.FileOverrides[strings.ToLower(projectKey)]
	if name == "" {
		name = c.FileOverrides[projectKey]
	}
	if name == "" {
		name = projectKey + ".org"
	}
	return filepath.Join(c.Workdir, name)
}

// IsIgnoredAuthor reports whether comments by author are excluded from
// rendering.
func (c *Config) IsIgnoredAuthor(author string) bool {
	for _, ignored := range c.IgnoredAuthors {
		if strings.EqualFold(ignored, author) {
			return true
		}
	}
	return false
}

// PropertyName maps a canonical property name through the override
// table. Identity properties must not be passed here.
func (c *Config) PropertyName(canonical string) string {
	if name, ok := c.PropertyOverrides[strings.ToLower(canonical)]; ok && name != "" {
		return name
	}
	if name, ok := c.PropertyOverrides[canonical]; ok && name != "" {
		return name
	}
	return canonical
}
