package agentconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/llm"
)

const (
	groupUseConstant                   = "agent-config"
	groupShortDescriptionConstant      = "Maintain the agentConfig section of plugin manifests"
	groupLongDescriptionConstant       = "agent-config groups subcommands that keep the manifest agentConfig section aligned with the environment variables the plugin source actually reads."
	updateUseConstant                  = "update"
	updateShortDescriptionConstant     = "Rewrite agentConfig from the scanned environment variables"
	updateLongDescriptionConstant      = "update scans the plugin source for environment variables, resolves a one-line description for each, and rewrites the manifest agentConfig section."
	updateFailureTemplateConstant      = "agent-config update failed: %w"
	unexpectedArgumentsMessageConstant = "update does not accept positional arguments"
	missingAPIKeyMessageConstant       = "OPENAI_API_KEY is required unless --no-ai is set"
	openAIKeyEnvironmentNameConstant   = "OPENAI_API_KEY"
	flagPathNameConstant               = "path"
	flagPathDescriptionConstant        = "Plugin checkout to update"
	flagNoAINameConstant               = "no-ai"
	flagNoAIDescriptionConstant        = "Skip the model and write TODO descriptions"
	defaultCheckoutPathConstant        = "."
	updateCompletedMessageConstant     = "agent-config update completed"
	checkoutFieldNameConstant          = "checkout"
	changedFieldNameConstant           = "changed"
)

var (
	errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

	// ErrOpenAIKeyRequired aborts runs that need the model but have no API key.
	ErrOpenAIKeyRequired = errors.New(missingAPIKeyMessageConstant)
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandConfiguration captures configuration values for the agent-config update command.
type CommandConfiguration struct {
	Path      string `mapstructure:"path"`
	DisableAI bool   `mapstructure:"no_ai"`
}

// DefaultCommandConfiguration provides baseline configuration values for agent-config update.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Path: defaultCheckoutPathConstant, DisableAI: false}
}

// DefaultConfigurationValues produces Viper defaults for the agent-config update command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + ".path":  defaults.Path,
		rootKey + ".no_ai": defaults.DisableAI,
	}
}

// ConfigurationProvider supplies the agent-config command configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandGroupBuilder assembles the agent-config command hierarchy.
type CommandGroupBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Completer             llm.ChatCompleter
}

// Build constructs the agent-config command with its update subcommand.
func (builder *CommandGroupBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
	}

	updateCommand := &cobra.Command{
		Use:   updateUseConstant,
		Short: updateShortDescriptionConstant,
		Long:  updateLongDescriptionConstant,
		RunE:  builder.runUpdate,
	}
	updateCommand.Flags().String(flagPathNameConstant, "", flagPathDescriptionConstant)
	updateCommand.Flags().Bool(flagNoAINameConstant, false, flagNoAIDescriptionConstant)
	command.AddCommand(updateCommand)

	return command, nil
}

func (builder *CommandGroupBuilder) runUpdate(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration(command)
	logger := builder.resolveLogger()

	completer, completerError := builder.resolveCompleter(configuration)
	if completerError != nil {
		return completerError
	}

	updater, updaterError := NewUpdater(logger, completer, nil)
	if updaterError != nil {
		return updaterError
	}

	changed, updateError := updater.Update(command.Context(), configuration.Path)
	if updateError != nil {
		return fmt.Errorf(updateFailureTemplateConstant, updateError)
	}

	logger.Info(updateCompletedMessageConstant,
		zap.String(checkoutFieldNameConstant, configuration.Path),
		zap.Bool(changedFieldNameConstant, changed))

	return nil
}

// resolveCompleter returns nil when AI is disabled so the updater writes TODO
// descriptions instead of calling the model.
func (builder *CommandGroupBuilder) resolveCompleter(configuration CommandConfiguration) (llm.ChatCompleter, error) {
	if configuration.DisableAI {
		return nil, nil
	}
	if builder.Completer != nil {
		return builder.Completer, nil
	}

	apiKey := strings.TrimSpace(os.Getenv(openAIKeyEnvironmentNameConstant))
	if len(apiKey) == 0 {
		return nil, ErrOpenAIKeyRequired
	}

	return llm.NewClient(apiKey, "")
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

	if command.Flags().Changed(flagNoAINameConstant) {
		noAIValue, _ := command.Flags().GetBool(flagNoAINameConstant)
		configuration.DisableAI = noAIValue
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
