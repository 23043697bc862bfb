package release

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/execshell"
	"github.com/karthikbj/pluginops/internal/gitrepo"
)

const (
	groupUseConstant                   = "release"
	groupShortDescriptionConstant      = "Prepare plugin repositories for a release"
	groupLongDescriptionConstant       = "release groups subcommands that ready a plugin checkout for publication."
	prepareUseConstant                 = "prepare"
	prepareShortDescriptionConstant    = "Bump the version, remove lockfiles, and verify the release workflow"
	prepareLongDescriptionConstant     = "prepare verifies the checkout carries a release-triggered workflow, bumps the manifest version, deletes lockfiles, and commits the result."
	prepareFailureTemplateConstant     = "release preparation failed: %w"
	commitFailureTemplateConstant      = "committing release preparation: %w"
	worktreeCheckTemplateConstant      = "checking worktree state: %w"
	worktreeNotCleanMessageConstant    = "checkout has uncommitted changes; commit or stash them before preparing a release"
	unexpectedArgumentsMessageConstant = "prepare does not accept positional arguments"
	flagPathNameConstant               = "path"
	flagPathDescriptionConstant        = "Plugin checkout to prepare"
	flagSkipCommitNameConstant         = "skip-commit"
	flagSkipCommitDescriptionConstant  = "Leave the prepared changes uncommitted"
	defaultCheckoutPathConstant        = "."
	releaseCommitTemplateConstant      = "chore: prepare release v%s"
	preparedMessageConstant            = "release prepared"
	previousVersionFieldNameConstant   = "previous_version"
	newVersionFieldNameConstant        = "new_version"
	workflowFieldNameConstant          = "workflow"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// ErrWorktreeNotClean indicates a prepare invocation against a checkout that
// already carries uncommitted changes.
var ErrWorktreeNotClean = errors.New(worktreeNotCleanMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// HumanReadableLoggingProvider reports whether console output is active, which
// enables human-readable command lifecycle messages.
type HumanReadableLoggingProvider func() bool

// CommandConfiguration captures configuration values for the release prepare command.
type CommandConfiguration struct {
	Path       string `mapstructure:"path"`
	SkipCommit bool   `mapstructure:"skip_commit"`
}

// DefaultCommandConfiguration provides baseline configuration values for release prepare.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Path: defaultCheckoutPathConstant, SkipCommit: false}
}

// DefaultConfigurationValues produces Viper defaults for the release prepare command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + ".path":        defaults.Path,
		rootKey + ".skip_commit": defaults.SkipCommit,
	}
}

// ConfigurationProvider supplies the release command configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandGroupBuilder assembles the release command hierarchy.
type CommandGroupBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	GitExecutor                  gitrepo.GitExecutor
}

// Build constructs the release command with its prepare subcommand.
func (builder *CommandGroupBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
	}

	prepareCommand := &cobra.Command{
		Use:   prepareUseConstant,
		Short: prepareShortDescriptionConstant,
		Long:  prepareLongDescriptionConstant,
		RunE:  builder.runPrepare,
	}
	prepareCommand.Flags().String(flagPathNameConstant, "", flagPathDescriptionConstant)
	prepareCommand.Flags().Bool(flagSkipCommitNameConstant, false, flagSkipCommitDescriptionConstant)
	command.AddCommand(prepareCommand)

	return command, nil
}

func (builder *CommandGroupBuilder) runPrepare(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration(command)
	logger := builder.resolveLogger()

	var gitManager *gitrepo.RepositoryManager
	if !configuration.SkipCommit {
		resolvedManager, managerError := builder.resolveGitManager(logger)
		if managerError != nil {
			return managerError
		}
		gitManager = resolvedManager

		worktreeClean, worktreeError := gitManager.CheckCleanWorktree(command.Context(), configuration.Path)
		if worktreeError != nil {
			return fmt.Errorf(worktreeCheckTemplateConstant, worktreeError)
		}
		if !worktreeClean {
			return ErrWorktreeNotClean
		}
	}

	preparer, preparerError := NewPreparer(logger)
	if preparerError != nil {
		return preparerError
	}

	prepareResult, prepareError := preparer.Prepare(configuration.Path)
	if prepareError != nil {
		return fmt.Errorf(prepareFailureTemplateConstant, prepareError)
	}

	logger.Info(preparedMessageConstant,
		zap.String(previousVersionFieldNameConstant, prepareResult.PreviousVersion),
		zap.String(newVersionFieldNameConstant, prepareResult.NewVersion),
		zap.String(workflowFieldNameConstant, prepareResult.WorkflowPath))

	if configuration.SkipCommit {
		return nil
	}

	if commitError := builder.commitPreparation(command, configuration.Path, prepareResult, gitManager); commitError != nil {
		return fmt.Errorf(commitFailureTemplateConstant, commitError)
	}

	return nil
}

func (builder *CommandGroupBuilder) resolveGitManager(logger *zap.Logger) (*gitrepo.RepositoryManager, error) {
	gitExecutor := builder.GitExecutor
	if gitExecutor == nil {
		commandRunner := execshell.NewOSCommandRunner()
		shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner)
		if executorError != nil {
			return nil, executorError
		}
		if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
			shellExecutor.SetEventObserver(execshell.NewConsoleCommandObserver(logger))
		}
		gitExecutor = shellExecutor
	}

	return gitrepo.NewRepositoryManager(gitExecutor)
}

func (builder *CommandGroupBuilder) commitPreparation(command *cobra.Command, checkoutPath string, prepareResult Result, gitManager *gitrepo.RepositoryManager) error {
	if stageError := gitManager.StageAll(command.Context(), checkoutPath); stageError != nil {
		return stageError
	}

	commitMessage := fmt.Sprintf(releaseCommitTemplateConstant, prepareResult.NewVersion)
	return gitManager.Commit(command.Context(), checkoutPath, commitMessage)
}

func (builder *CommandGroupBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	pathValue, _ := command.Flags().GetString(flagPathNameConstant)
	if trimmed := strings.TrimSpace(pathValue); len(trimmed) > 0 {
		configuration.Path = trimmed
	}
	if len(strings.TrimSpace(configuration.Path)) == 0 {
		configuration.Path = defaultCheckoutPathConstant
	}

	if command.Flags().Changed(flagSkipCommitNameConstant) {
		skipValue, _ := command.Flags().GetBool(flagSkipCommitNameConstant)
		configuration.SkipCommit = skipValue
	}

	return configuration
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
