package repos

import "strings"

const (
	defaultOrganizationConstant = "elizaos-plugins"
	defaultOldScopeConstant     = "@ai16z"
	defaultNewScopeConstant     = "@elizaos"
)

// CommandConfiguration captures configuration values shared by the repos commands.
type CommandConfiguration struct {
	Organization     string `mapstructure:"organization"`
	RepositoryPrefix string `mapstructure:"repository_prefix"`
	OldScope         string `mapstructure:"old_scope"`
	NewScope         string `mapstructure:"new_scope"`
	LocalRoot        string `mapstructure:"local_root"`
	BranchName       string `mapstructure:"branch"`
	RepositoryName   string `mapstructure:"repo"`
}

// DefaultCommandConfiguration provides baseline configuration values for the repos commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Organization:     defaultOrganizationConstant,
		RepositoryPrefix: "",
		OldScope:         defaultOldScopeConstant,
		NewScope:         defaultNewScopeConstant,
		LocalRoot:        "",
		BranchName:       "",
		RepositoryName:   "",
	}
}

// DefaultConfigurationValues produces Viper defaults for the repos commands.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + ".organization":      defaults.Organization,
		rootKey + ".repository_prefix": defaults.RepositoryPrefix,
		rootKey + ".old_scope":         defaults.OldScope,
		rootKey + ".new_scope":         defaults.NewScope,
		rootKey + ".local_root":        defaults.LocalRoot,
		rootKey + ".branch":            defaults.BranchName,
		rootKey + ".repo":              defaults.RepositoryName,
	}
}

// sanitize trims configuration values without applying implicit defaults.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Organization = strings.TrimSpace(configuration.Organization)
	sanitized.RepositoryPrefix = strings.TrimSpace(configuration.RepositoryPrefix)
	sanitized.OldScope = strings.TrimSpace(configuration.OldScope)
	sanitized.NewScope = strings.TrimSpace(configuration.NewScope)
	sanitized.LocalRoot = strings.TrimSpace(configuration.LocalRoot)
	sanitized.BranchName = strings.TrimSpace(configuration.BranchName)
	sanitized.RepositoryName = strings.TrimSpace(configuration.RepositoryName)

	return sanitized
}
