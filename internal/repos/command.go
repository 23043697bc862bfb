package repos

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/batch"
	"github.com/karthikbj/pluginops/internal/discovery"
	"github.com/karthikbj/pluginops/internal/execshell"
	"github.com/karthikbj/pluginops/internal/githubauth"
	"github.com/karthikbj/pluginops/internal/githubcli"
	"github.com/karthikbj/pluginops/internal/gitrepo"
	"github.com/karthikbj/pluginops/internal/workspace"
)

const (
	groupUseConstant                    = "repos"
	groupShortDescriptionConstant       = "Batch-edit package manifests across an organization's plugin repositories"
	groupLongDescriptionConstant        = "repos groups subcommands that clone every matching plugin repository, rewrite its package manifest, and publish the change as a pull request."
	renameScopeUseConstant              = "rename-scope"
	renameScopeShortDescriptionConstant = "Rename the package scope in every plugin manifest"
	renameScopeLongDescriptionConstant  = "rename-scope rewrites the manifest name and dependency keys from the old scope to the new scope in every matching repository."
	fixURLsUseConstant                  = "fix-urls"
	fixURLsShortDescriptionConstant     = "Point every plugin manifest at its canonical repository URL"
	fixURLsLongDescriptionConstant      = "fix-urls rewrites the manifest repository field to the canonical git+https GitHub URL in every matching repository."
	renameScopeFailureTemplateConstant  = "scope rename failed: %w"
	fixURLsFailureTemplateConstant      = "repository URL fix failed: %w"
	unexpectedArgumentsMessageConstant  = "command does not accept positional arguments"
	flagOrganizationNameConstant        = "org"
	flagOrganizationDescriptionConstant = "GitHub organization whose repositories are processed"
	flagPrefixNameConstant              = "prefix"
	flagPrefixDescriptionConstant       = "Repository name prefix filter"
	flagOldScopeNameConstant            = "old-scope"
	flagOldScopeDescriptionConstant     = "Package scope to rename from"
	flagNewScopeNameConstant            = "new-scope"
	flagNewScopeDescriptionConstant     = "Package scope to rename to"
	flagLocalRootNameConstant           = "local"
	flagLocalRootDescriptionConstant    = "Process existing checkouts under this directory instead of cloning"
	flagBranchNameConstant              = "branch"
	flagBranchDescriptionConstant       = "Branch name used for the published change"
	flagRepositoryNameConstant          = "repo"
	flagRepositoryDescriptionConstant   = "Restrict processing to a single repository name"
	flagTestModeNameConstant            = "test"
	flagTestModeDescriptionConstant     = "Process only the built-in trial repository"
	testModeRepositoryNameConstant      = "plugin-solana"
	batchSummaryMessageConstant         = "batch finished"
	batchProcessedFieldNameConstant     = "processed"
	batchSucceededFieldNameConstant     = "succeeded"
	batchFailedFieldNameConstant        = "failed"
	missingTokenMessageConstant         = "a GitHub token (GH_TOKEN or GITHUB_TOKEN) is required for remote mode"
)

var (
	errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

	// ErrGitHubTokenRequired aborts remote-mode runs before any repository is touched.
	ErrGitHubTokenRequired = errors.New(missingTokenMessageConstant)
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the repos command configuration.
type ConfigurationProvider func() CommandConfiguration

// HumanReadableLoggingProvider reports whether console output is active, which
// enables the batch progress bar.
type HumanReadableLoggingProvider func() bool

// CommandGroupBuilder assembles the repos command hierarchy.
type CommandGroupBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	GitExecutor                  gitrepo.GitExecutor
	GitHubExecutor               githubcli.GitHubCommandExecutor
}

// Build constructs the repos command with its subcommands.
func (builder *CommandGroupBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
	}

	renameCommand := &cobra.Command{
		Use:   renameScopeUseConstant,
		Short: renameScopeShortDescriptionConstant,
		Long:  renameScopeLongDescriptionConstant,
		RunE:  builder.runRenameScope,
	}
	builder.registerSharedFlags(renameCommand)
	renameCommand.Flags().String(flagOldScopeNameConstant, "", flagOldScopeDescriptionConstant)
	renameCommand.Flags().String(flagNewScopeNameConstant, "", flagNewScopeDescriptionConstant)
	command.AddCommand(renameCommand)

	fixURLsCommand := &cobra.Command{
		Use:   fixURLsUseConstant,
		Short: fixURLsShortDescriptionConstant,
		Long:  fixURLsLongDescriptionConstant,
		RunE:  builder.runFixURLs,
	}
	builder.registerSharedFlags(fixURLsCommand)
	command.AddCommand(fixURLsCommand)

	return command, nil
}

func (builder *CommandGroupBuilder) registerSharedFlags(command *cobra.Command) {
	command.Flags().String(flagOrganizationNameConstant, "", flagOrganizationDescriptionConstant)
	command.Flags().String(flagPrefixNameConstant, "", flagPrefixDescriptionConstant)
	command.Flags().String(flagLocalRootNameConstant, "", flagLocalRootDescriptionConstant)
	command.Flags().String(flagBranchNameConstant, "", flagBranchDescriptionConstant)
	command.Flags().String(flagRepositoryNameConstant, "", flagRepositoryDescriptionConstant)
	command.Flags().Bool(flagTestModeNameConstant, false, flagTestModeDescriptionConstant)
}

func (builder *CommandGroupBuilder) runRenameScope(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration(command)
	if tokenError := builder.checkRemoteToken(configuration); tokenError != nil {
		return tokenError
	}
	logger := builder.resolveLogger()

	service, serviceError := builder.assembleService(logger)
	if serviceError != nil {
		return serviceError
	}

	oldScopeValue, _ := command.Flags().GetString(flagOldScopeNameConstant)
	newScopeValue, _ := command.Flags().GetString(flagNewScopeNameConstant)
	oldScope := firstNonEmpty(strings.TrimSpace(oldScopeValue), configuration.OldScope)
	newScope := firstNonEmpty(strings.TrimSpace(newScopeValue), configuration.NewScope)

	renameOptions := RenameScopeOptions{
		Organization:     configuration.Organization,
		RepositoryPrefix: configuration.RepositoryPrefix,
		OldScope:         oldScope,
		NewScope:         newScope,
		LocalRoot:        configuration.LocalRoot,
		BranchName:       configuration.BranchName,
		RepositoryName:   configuration.RepositoryName,
	}

	summary, renameError := service.RenameScope(command.Context(), renameOptions)
	if renameError != nil {
		return fmt.Errorf(renameScopeFailureTemplateConstant, renameError)
	}

	logSummary(logger, summary)

	return nil
}

func (builder *CommandGroupBuilder) runFixURLs(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration(command)
	if tokenError := builder.checkRemoteToken(configuration); tokenError != nil {
		return tokenError
	}
	logger := builder.resolveLogger()

	service, serviceError := builder.assembleService(logger)
	if serviceError != nil {
		return serviceError
	}

	fixOptions := FixRepositoryURLOptions{
		Organization:     configuration.Organization,
		RepositoryPrefix: configuration.RepositoryPrefix,
		LocalRoot:        configuration.LocalRoot,
		BranchName:       configuration.BranchName,
		RepositoryName:   configuration.RepositoryName,
	}

	summary, fixError := service.FixRepositoryURLs(command.Context(), fixOptions)
	if fixError != nil {
		return fmt.Errorf(fixURLsFailureTemplateConstant, fixError)
	}

	logSummary(logger, summary)

	return nil
}

func (builder *CommandGroupBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration = configuration.sanitize()

	organizationValue, _ := command.Flags().GetString(flagOrganizationNameConstant)
	if trimmed := strings.TrimSpace(organizationValue); len(trimmed) > 0 {
		configuration.Organization = trimmed
	}

	prefixValue, _ := command.Flags().GetString(flagPrefixNameConstant)
	if trimmed := strings.TrimSpace(prefixValue); len(trimmed) > 0 {
		configuration.RepositoryPrefix = trimmed
	}
	if len(configuration.RepositoryPrefix) == 0 {
		configuration.RepositoryPrefix = discovery.DefaultRepositoryPrefix()
	}

	localRootValue, _ := command.Flags().GetString(flagLocalRootNameConstant)
	if trimmed := strings.TrimSpace(localRootValue); len(trimmed) > 0 {
		configuration.LocalRoot = trimmed
	}

	branchValue, _ := command.Flags().GetString(flagBranchNameConstant)
	if trimmed := strings.TrimSpace(branchValue); len(trimmed) > 0 {
		configuration.BranchName = trimmed
	}

	repositoryValue, _ := command.Flags().GetString(flagRepositoryNameConstant)
	if trimmed := strings.TrimSpace(repositoryValue); len(trimmed) > 0 {
		configuration.RepositoryName = trimmed
	}

	testModeValue, _ := command.Flags().GetBool(flagTestModeNameConstant)
	if testModeValue && len(configuration.RepositoryName) == 0 {
		configuration.RepositoryName = testModeRepositoryNameConstant
	}

	return configuration
}

// checkRemoteToken enforces the remote-mode authentication precondition before
// any repository is touched. Local mode never talks to GitHub. Builders with an
// injected GitHub executor supply their own authentication.
func (builder *CommandGroupBuilder) checkRemoteToken(configuration CommandConfiguration) error {
	if len(configuration.LocalRoot) > 0 {
		return nil
	}
	if builder.GitHubExecutor != nil {
		return nil
	}
	if _, tokenFound := githubauth.ResolveToken(); !tokenFound {
		return ErrGitHubTokenRequired
	}
	return nil
}

func (builder *CommandGroupBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandGroupBuilder) assembleService(logger *zap.Logger) (*Service, error) {
	showProgress := false
	if builder.HumanReadableLoggingProvider != nil {
		showProgress = builder.HumanReadableLoggingProvider()
	}

	gitExecutor := builder.GitExecutor
	githubExecutor := builder.GitHubExecutor
	if gitExecutor == nil || githubExecutor == nil {
		commandRunner := execshell.NewOSCommandRunner()
		shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner)
		if executorError != nil {
			return nil, executorError
		}
		if showProgress {
			shellExecutor.SetEventObserver(execshell.NewConsoleCommandObserver(logger))
		}
		if gitExecutor == nil {
			gitExecutor = shellExecutor
		}
		if githubExecutor == nil {
			githubExecutor = shellExecutor
		}
	}

	gitManager, gitManagerError := gitrepo.NewRepositoryManager(gitExecutor)
	if gitManagerError != nil {
		return nil, gitManagerError
	}

	githubClient, clientError := githubcli.NewClient(githubExecutor)
	if clientError != nil {
		return nil, clientError
	}

	pipeline, pipelineError := NewPipeline(logger, gitManager, githubClient, workspace.NewManager(""))
	if pipelineError != nil {
		return nil, pipelineError
	}

	runner, runnerError := batch.NewRunner(logger, batch.RunnerOptions{ShowProgress: showProgress})
	if runnerError != nil {
		return nil, runnerError
	}

	organizationDiscoverer, discovererError := discovery.NewOrganizationDiscoverer(githubClient)
	if discovererError != nil {
		return nil, discovererError
	}

	service, serviceError := NewService(logger, organizationDiscoverer, discovery.NewFilesystemDiscoverer(), pipeline, runner)
	if serviceError != nil {
		return nil, serviceError
	}

	return service, nil
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if len(candidate) > 0 {
			return candidate
		}
	}
	return ""
}

func logSummary(logger *zap.Logger, summary batch.Summary) {
	logger.Info(batchSummaryMessageConstant,
		zap.Int(batchProcessedFieldNameConstant, summary.ProcessedCount),
		zap.Int(batchSucceededFieldNameConstant, summary.SucceededCount),
		zap.Int(batchFailedFieldNameConstant, summary.FailedCount()))
}
