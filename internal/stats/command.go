package stats

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	groupUseConstant                   = "stats"
	groupShortDescriptionConstant      = "Report download statistics for published plugins"
	groupLongDescriptionConstant       = "stats groups subcommands that collect npm registry metrics for the organization's published plugin packages."
	downloadsUseConstant               = "downloads"
	downloadsShortDescriptionConstant  = "Collect download counts and write an xlsx workbook"
	downloadsLongDescriptionConstant   = "downloads searches the npm registry for packages under the configured scopes, fetches weekly, monthly, and yearly download counts, estimates per-version downloads, and writes a four-sheet xlsx workbook."
	reportFailureTemplateConstant      = "building download report: %w"
	workbookFailureTemplateConstant    = "writing workbook: %w"
	unexpectedArgumentsMessageConstant = "downloads does not accept positional arguments"
	flagScopeNameConstant              = "scope"
	flagScopeDescriptionConstant       = "Package scope to search (repeatable)"
	flagOutputNameConstant             = "output"
	flagOutputDescriptionConstant      = "Destination path for the xlsx workbook"
	defaultWorkbookPathConstant        = "plugin-downloads.xlsx"
	firstDefaultScopeConstant          = "@elizaos"
	secondDefaultScopeConstant         = "@elizaos-plugins"
	httpTimeoutConstant                = 30 * time.Second
	workbookWrittenMessageConstant     = "workbook written"
	workbookPathFieldNameConstant      = "path"
	packageCountFieldNameConstant      = "packages"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandConfiguration captures configuration values for the stats downloads command.
type CommandConfiguration struct {
	Scopes []string `mapstructure:"scopes"`
	Output string   `mapstructure:"output"`
}

// DefaultCommandConfiguration provides baseline configuration values for stats downloads.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Scopes: []string{firstDefaultScopeConstant, secondDefaultScopeConstant},
		Output: defaultWorkbookPathConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults for the stats downloads command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + ".scopes": defaults.Scopes,
		rootKey + ".output": defaults.Output,
	}
}

// ConfigurationProvider supplies the stats command configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandGroupBuilder assembles the stats command hierarchy.
type CommandGroupBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Registry              RegistryGateway
}

// Build constructs the stats command with its downloads subcommand.
func (builder *CommandGroupBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
	}

	downloadsCommand := &cobra.Command{
		Use:   downloadsUseConstant,
		Short: downloadsShortDescriptionConstant,
		Long:  downloadsLongDescriptionConstant,
		RunE:  builder.runDownloads,
	}
	downloadsCommand.Flags().StringSlice(flagScopeNameConstant, nil, flagScopeDescriptionConstant)
	downloadsCommand.Flags().String(flagOutputNameConstant, "", flagOutputDescriptionConstant)
	command.AddCommand(downloadsCommand)

	return command, nil
}

func (builder *CommandGroupBuilder) runDownloads(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration(command)
	logger := builder.resolveLogger()

	registry, registryError := builder.resolveRegistry(logger)
	if registryError != nil {
		return registryError
	}

	aggregator, aggregatorError := NewAggregator(logger, registry, AggregatorOptions{})
	if aggregatorError != nil {
		return aggregatorError
	}

	downloadReport, reportError := aggregator.BuildReport(command.Context(), configuration.Scopes)
	if reportError != nil {
		return fmt.Errorf(reportFailureTemplateConstant, reportError)
	}

	if writeError := NewWorkbookWriter().Write(downloadReport, configuration.Output); writeError != nil {
		return fmt.Errorf(workbookFailureTemplateConstant, writeError)
	}

	logger.Info(workbookWrittenMessageConstant,
		zap.String(workbookPathFieldNameConstant, configuration.Output),
		zap.Int(packageCountFieldNameConstant, len(downloadReport.Packages)))

	return nil
}

func (builder *CommandGroupBuilder) resolveRegistry(logger *zap.Logger) (RegistryGateway, error) {
	if builder.Registry != nil {
		return builder.Registry, nil
	}

	httpClient := &http.Client{Timeout: httpTimeoutConstant}
	return NewRegistryClient(logger, httpClient, RegistryConfiguration{})
}

func (builder *CommandGroupBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	scopeValues, _ := command.Flags().GetStringSlice(flagScopeNameConstant)
	trimmedScopes := make([]string, 0, len(scopeValues))
	for _, scopeValue := range scopeValues {
		if trimmed := strings.TrimSpace(scopeValue); len(trimmed) > 0 {
			trimmedScopes = append(trimmedScopes, trimmed)
		}
	}
	if len(trimmedScopes) > 0 {
		configuration.Scopes = trimmedScopes
	}
	if len(configuration.Scopes) == 0 {
		configuration.Scopes = DefaultCommandConfiguration().Scopes
	}

	outputValue, _ := command.Flags().GetString(flagOutputNameConstant)
	if trimmed := strings.TrimSpace(outputValue); len(trimmed) > 0 {
		configuration.Output = trimmed
	}
	if len(strings.TrimSpace(configuration.Output)) == 0 {
		configuration.Output = defaultWorkbookPathConstant
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
