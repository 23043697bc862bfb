package readme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/llm"
	"github.com/karthikbj/pluginops/internal/plugininfo"
)

const (
	groupUseConstant                   = "readmes"
	groupShortDescriptionConstant      = "Generate plugin README documents"
	groupLongDescriptionConstant       = "readmes groups subcommands that synthesize README documents from extracted plugin facts."
	generateUseConstant                = "generate"
	generateShortDescriptionConstant   = "Generate a README for a plugin checkout"
	generateLongDescriptionConstant    = "generate collects package facts, components, and environment variables from the checkout and writes a README, falling back to a deterministic template when the model is unavailable."
	collectFailureTemplateConstant     = "collecting plugin facts: %w"
	writeFailureTemplateConstant       = "writing README: %w"
	unexpectedArgumentsMessageConstant = "generate does not accept positional arguments"
	missingAPIKeyMessageConstant       = "OPENAI_API_KEY is required unless --no-ai is set"
	openAIKeyEnvironmentNameConstant   = "OPENAI_API_KEY"
	flagPathNameConstant               = "path"
	flagPathDescriptionConstant        = "Plugin checkout to document"
	flagOutputNameConstant             = "output"
	flagOutputDescriptionConstant      = "Destination file for the generated README"
	flagNoAINameConstant               = "no-ai"
	flagNoAIDescriptionConstant        = "Skip the model and render the fallback template"
	defaultCheckoutPathConstant        = "."
	readmeFileNameConstant             = "README.md"
	generatedMessageConstant           = "readme generated"
	outputFieldNameConstant            = "output"
	packageFieldNameConstant           = "package"
)

var (
	errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

	// ErrOpenAIKeyRequired aborts runs that need the model but have no API key.
	ErrOpenAIKeyRequired = errors.New(missingAPIKeyMessageConstant)
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandConfiguration captures configuration values for the readmes generate command.
type CommandConfiguration struct {
	Path      string `mapstructure:"path"`
	Output    string `mapstructure:"output"`
	DisableAI bool   `mapstructure:"no_ai"`
}

// DefaultCommandConfiguration provides baseline configuration values for readmes generate.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Path: defaultCheckoutPathConstant, Output: "", DisableAI: false}
}

// DefaultConfigurationValues produces Viper defaults for the readmes generate command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + ".path":   defaults.Path,
		rootKey + ".output": defaults.Output,
		rootKey + ".no_ai":  defaults.DisableAI,
	}
}

// ConfigurationProvider supplies the readmes command configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandGroupBuilder assembles the readmes command hierarchy.
type CommandGroupBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Completer             llm.ChatCompleter
	AutomationRoot        string
}

// Build constructs the readmes command with its generate subcommand.
func (builder *CommandGroupBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
	}

	generateCommand := &cobra.Command{
		Use:   generateUseConstant,
		Short: generateShortDescriptionConstant,
		Long:  generateLongDescriptionConstant,
		RunE:  builder.runGenerate,
	}
	generateCommand.Flags().String(flagPathNameConstant, "", flagPathDescriptionConstant)
	generateCommand.Flags().String(flagOutputNameConstant, "", flagOutputDescriptionConstant)
	generateCommand.Flags().Bool(flagNoAINameConstant, false, flagNoAIDescriptionConstant)
	command.AddCommand(generateCommand)

	return command, nil
}

func (builder *CommandGroupBuilder) runGenerate(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration(command)
	logger := builder.resolveLogger()

	completer, completerError := builder.resolveCompleter(configuration)
	if completerError != nil {
		return completerError
	}

	generator, generatorError := NewGenerator(logger, completer)
	if generatorError != nil {
		return generatorError
	}

	pluginInformation, collectError := plugininfo.NewCollector(nil).Collect(configuration.Path)
	if collectError != nil {
		return fmt.Errorf(collectFailureTemplateConstant, collectError)
	}

	outputPath := configuration.Output
	if len(outputPath) == 0 {
		outputPath = filepath.Join(configuration.Path, readmeFileNameConstant)
	}

	if guardError := EnsureNotSelfWrite(outputPath, builder.resolveAutomationRoot()); guardError != nil {
		return guardError
	}

	existingReadme := readExistingReadme(outputPath)
	generatedDocument := generator.Generate(command.Context(), pluginInformation, existingReadme)

	if writeError := os.WriteFile(outputPath, []byte(generatedDocument), 0o644); writeError != nil {
		return fmt.Errorf(writeFailureTemplateConstant, writeError)
	}

	logger.Info(generatedMessageConstant,
		zap.String(packageFieldNameConstant, pluginInformation.PackageName),
		zap.String(outputFieldNameConstant, outputPath))

	return nil
}

func readExistingReadme(outputPath string) string {
	existingContents, readError := os.ReadFile(outputPath)
	if readError != nil {
		return ""
	}
	return string(existingContents)
}

// resolveCompleter returns nil when AI is disabled so the generator renders
// the fallback template instead of calling the model.
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

func (builder *CommandGroupBuilder) resolveAutomationRoot() string {
	if len(builder.AutomationRoot) > 0 {
		return builder.AutomationRoot
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return defaultCheckoutPathConstant
	}
	return workingDirectory
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

	outputValue, _ := command.Flags().GetString(flagOutputNameConstant)
	if trimmed := strings.TrimSpace(outputValue); len(trimmed) > 0 {
		configuration.Output = trimmed
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
