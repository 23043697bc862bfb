package readme

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/llm"
	"github.com/karthikbj/pluginops/internal/plugininfo"
)

const (
	minimumResponseLengthConstant      = 500
	lengthWarningRatioConstant         = 0.8
	maximumPromptLengthConstant        = 24000
	loggerRequiredMessageConstant      = "readme generator logger required"
	responseTooShortLogMessageConstant = "generated readme shorter than floor, using fallback"
	responseShrunkLogMessageConstant   = "generated readme much shorter than existing document"
	missingHeadingLogMessageConstant   = "generated readme dropped a section heading"
	completionFailedLogMessageConstant = "completion call failed, using fallback"
	packageLogFieldNameConstant        = "package"
	headingLogFieldNameConstant        = "heading"
	lengthLogFieldNameConstant         = "length"
	errorLogFieldNameConstant          = "error"
	systemInstructionConstant          = "You are a technical writer maintaining plugin documentation. " +
		"Rewrite the README using the provided structural facts. " +
		"Preserve every section heading that exists in the current document. " +
		"Return only the document body in Markdown."
)

// knownSectionHeadings are the headings checked during advisory validation.
var knownSectionHeadings = []string{"Installation", "Configuration", "Usage", "License"}

// ErrLoggerRequired indicates a generator constructed without a logger.
var ErrLoggerRequired = errors.New(loggerRequiredMessageConstant)

// Generator produces README documents from extracted plugin structure,
// preferring the completion model and falling back to deterministic template
// substitution when the model is unavailable or fails.
type Generator struct {
	logger    *zap.Logger
	completer llm.ChatCompleter
}

// NewGenerator constructs a README generator. A nil completer disables the
// model path; every generation then takes the fallback template.
func NewGenerator(logger *zap.Logger, completer llm.ChatCompleter) (*Generator, error) {
	if logger == nil {
		return nil, ErrLoggerRequired
	}
	return &Generator{logger: logger, completer: completer}, nil
}

// Generate returns a README for the plugin. Model output is validated
// heuristically: a response under the character floor is discarded in favor
// of the fallback, while length shrinkage and dropped headings only log
// warnings. Any completion error falls back deterministically; Generate
// itself never fails.
func (generator *Generator) Generate(executionContext context.Context, pluginInformation plugininfo.PluginInfo, existingReadme string) string {
	if generator.completer == nil {
		return RenderFallback(pluginInformation)
	}

	completionResponse, completionError := generator.completer.Complete(executionContext, llm.CompletionRequest{
		SystemInstruction: systemInstructionConstant,
		UserPrompt:        BuildPrompt(pluginInformation, existingReadme),
	})
	if completionError != nil {
		generator.logger.Warn(completionFailedLogMessageConstant,
			zap.String(packageLogFieldNameConstant, pluginInformation.PackageName),
			zap.String(errorLogFieldNameConstant, completionError.Error()),
		)
		return RenderFallback(pluginInformation)
	}

	generatedDocument := strings.TrimSpace(completionResponse)
	if len(generatedDocument) < minimumResponseLengthConstant {
		generator.logger.Warn(responseTooShortLogMessageConstant,
			zap.String(packageLogFieldNameConstant, pluginInformation.PackageName),
			zap.Int(lengthLogFieldNameConstant, len(generatedDocument)),
		)
		return RenderFallback(pluginInformation)
	}

	generator.validateAgainstExisting(pluginInformation.PackageName, generatedDocument, existingReadme)
	return generatedDocument
}

// validateAgainstExisting performs the advisory checks: warn when the new
// document is under the length ratio of the old one, and warn for each known
// heading present in the old document but absent from the new one.
func (generator *Generator) validateAgainstExisting(packageName string, generatedDocument string, existingReadme string) {
	if len(existingReadme) == 0 {
		return
	}

	if float64(len(generatedDocument)) < lengthWarningRatioConstant*float64(len(existingReadme)) {
		generator.logger.Warn(responseShrunkLogMessageConstant,
			zap.String(packageLogFieldNameConstant, packageName),
			zap.Int(lengthLogFieldNameConstant, len(generatedDocument)),
		)
	}

	for _, sectionHeading := range knownSectionHeadings {
		if strings.Contains(existingReadme, sectionHeading) && !strings.Contains(generatedDocument, sectionHeading) {
			generator.logger.Warn(missingHeadingLogMessageConstant,
				zap.String(packageLogFieldNameConstant, packageName),
				zap.String(headingLogFieldNameConstant, sectionHeading),
			)
		}
	}
}

// BuildPrompt assembles the bounded-size user prompt from plugin structure
// and the existing document.
func BuildPrompt(pluginInformation plugininfo.PluginInfo, existingReadme string) string {
	var promptBuilder strings.Builder

	fmt.Fprintf(&promptBuilder, "Package: %s\n", pluginInformation.PackageName)
	fmt.Fprintf(&promptBuilder, "Version: %s\n", pluginInformation.Version)
	if len(pluginInformation.Description) > 0 {
		fmt.Fprintf(&promptBuilder, "Description: %s\n", pluginInformation.Description)
	}
	if len(pluginInformation.RepositoryURL) > 0 {
		fmt.Fprintf(&promptBuilder, "Repository: %s\n", pluginInformation.RepositoryURL)
	}
	fmt.Fprintf(&promptBuilder, "Has tests: %t\n", pluginInformation.HasTests)

	writeComponentSection(&promptBuilder, "Actions", pluginInformation.Actions)
	writeComponentSection(&promptBuilder, "Services", pluginInformation.Services)
	writeComponentSection(&promptBuilder, "Providers", pluginInformation.Providers)

	if len(pluginInformation.EnvironmentVariables) > 0 {
		fmt.Fprintf(&promptBuilder, "\nEnvironment variables:\n")
		for _, variableName := range pluginInformation.EnvironmentVariables {
			fmt.Fprintf(&promptBuilder, "- %s\n", variableName)
		}
	}

	if len(existingReadme) > 0 {
		fmt.Fprintf(&promptBuilder, "\nCurrent README:\n%s\n", existingReadme)
	}

	assembledPrompt := promptBuilder.String()
	if len(assembledPrompt) > maximumPromptLengthConstant {
		assembledPrompt = assembledPrompt[:maximumPromptLengthConstant]
	}
	return assembledPrompt
}

func writeComponentSection(promptBuilder *strings.Builder, sectionName string, components []plugininfo.ComponentInfo) {
	if len(components) == 0 {
		return
	}
	fmt.Fprintf(promptBuilder, "\n%s:\n", sectionName)
	for _, component := range components {
		fmt.Fprintf(promptBuilder, "- %s", component.Name)
		if len(component.Methods) > 0 {
			fmt.Fprintf(promptBuilder, " (methods: %s)", strings.Join(component.Methods, ", "))
		}
		fmt.Fprintf(promptBuilder, "\n")
	}
}
