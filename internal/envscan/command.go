package envscan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	groupUseConstant                   = "scan"
	groupShortDescriptionConstant      = "Inspect plugin source trees"
	groupLongDescriptionConstant       = "scan groups read-only inspections of a plugin checkout."
	envUseConstant                     = "env"
	envShortDescriptionConstant        = "List the environment variables a plugin source tree reads"
	envLongDescriptionConstant         = "env walks the source tree and prints every environment variable name referenced through process.env, settings, or getSetting call sites, deduplicated and sorted."
	envFailureTemplateConstant         = "environment scan failed: %w"
	encodingFailureTemplateConstant    = "encoding scan results: %w"
	unexpectedArgumentsMessageConstant = "env does not accept positional arguments"
	flagPathNameConstant               = "path"
	flagPathDescriptionConstant        = "Root of the source tree to scan"
	defaultScanPathConstant            = "."
	scanCompletedMessageConstant       = "environment scan completed"
	scanRootFieldNameConstant          = "root"
	variableCountFieldNameConstant     = "variables"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandConfiguration captures configuration values for the scan env command.
type CommandConfiguration struct {
	Path string `mapstructure:"path"`
}

// DefaultCommandConfiguration provides baseline configuration values for the scan env command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Path: defaultScanPathConstant}
}

// DefaultConfigurationValues produces Viper defaults for the scan env command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + ".path": defaults.Path,
	}
}

// ConfigurationProvider supplies the scan command configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandGroupBuilder assembles the scan command hierarchy.
type CommandGroupBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the scan command with its env subcommand.
func (builder *CommandGroupBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
	}

	envCommand := &cobra.Command{
		Use:   envUseConstant,
		Short: envShortDescriptionConstant,
		Long:  envLongDescriptionConstant,
		RunE:  builder.runEnv,
	}
	envCommand.Flags().String(flagPathNameConstant, "", flagPathDescriptionConstant)
	command.AddCommand(envCommand)

	return command, nil
}

func (builder *CommandGroupBuilder) runEnv(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	scanRoot := builder.resolveScanRoot(command)
	logger := builder.resolveLogger()

	variableNames, scanError := NewScanner().ScanTree(scanRoot)
	if scanError != nil {
		return fmt.Errorf(envFailureTemplateConstant, scanError)
	}

	encodedNames, encodingError := json.Marshal(variableNames)
	if encodingError != nil {
		return fmt.Errorf(encodingFailureTemplateConstant, encodingError)
	}

	fmt.Fprintln(command.OutOrStdout(), string(encodedNames))
	logger.Info(scanCompletedMessageConstant,
		zap.String(scanRootFieldNameConstant, scanRoot),
		zap.Int(variableCountFieldNameConstant, len(variableNames)))

	return nil
}

func (builder *CommandGroupBuilder) resolveScanRoot(command *cobra.Command) string {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	pathValue, _ := command.Flags().GetString(flagPathNameConstant)
	if trimmed := strings.TrimSpace(pathValue); len(trimmed) > 0 {
		return trimmed
	}
	if trimmed := strings.TrimSpace(configuration.Path); len(trimmed) > 0 {
		return trimmed
	}

	return defaultScanPathConstant
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
