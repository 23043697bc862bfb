package agentconfig

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/envscan"
	"github.com/karthikbj/pluginops/internal/llm"
	"github.com/karthikbj/pluginops/internal/manifest"
)

const (
	manifestFileNameConstant           = "package.json"
	pluginTypeFieldKeyConstant         = "pluginType"
	pluginTypeValueConstant            = "elizaos:plugin:1.0.0"
	pluginParametersFieldKeyConstant   = "pluginParameters"
	parameterTypeFieldKeyConstant      = "type"
	parameterTypeStringValueConstant   = "string"
	parameterDescriptionFieldKeyConst  = "description"
	todoDescriptionTemplateConstant    = "TODO: describe %s"
	loggerRequiredMessageConstant      = "agent config logger required"
	descriptionPromptHeaderConstant    = "Write a one-line description for each environment variable used by the plugin %s. Respond with one line per variable in the form NAME: description.\n"
	descriptionPromptSystemInstruction = "You document plugin configuration variables. Keep each description under 120 characters."
	descriptionLineSeparatorConstant   = ":"
	completionFailedLogMessageConstant = "description completion failed, using TODO markers"
	packageLogFieldNameConstant        = "package"
	errorLogFieldNameConstant          = "error"
)

// ErrLoggerRequired indicates an updater constructed without a logger.
var ErrLoggerRequired = errors.New(loggerRequiredMessageConstant)

// EnvironmentScanner yields the variable names a source tree references.
type EnvironmentScanner interface {
	ScanTree(rootDirectory string) ([]string, error)
}

// Updater writes discovered environment variables into a plugin manifest's
// agentConfig section.
type Updater struct {
	logger             *zap.Logger
	completer          llm.ChatCompleter
	environmentScanner EnvironmentScanner
}

// NewUpdater constructs an agent-config updater. A nil completer skips the
// model path; descriptions then start as TODO markers. A nil scanner falls
// back to the default envscan scanner.
func NewUpdater(logger *zap.Logger, completer llm.ChatCompleter, environmentScanner EnvironmentScanner) (*Updater, error) {
	if logger == nil {
		return nil, ErrLoggerRequired
	}
	if environmentScanner == nil {
		environmentScanner = envscan.NewScanner()
	}
	return &Updater{logger: logger, completer: completer, environmentScanner: environmentScanner}, nil
}

// Update scans the checkout for environment variables, resolves a one-line
// description for each, and writes the agentConfig section into the manifest.
// It reports whether the manifest changed; an identical existing section is a
// no-op and the file is not rewritten.
func (updater *Updater) Update(executionContext context.Context, pluginRoot string) (bool, error) {
	scannedVariables, scanError := updater.environmentScanner.ScanTree(pluginRoot)
	if scanError != nil {
		return false, scanError
	}

	manifestPath := filepath.Join(pluginRoot, manifestFileNameConstant)
	manifestDocument, manifestError := manifest.Load(manifestPath)
	if manifestError != nil {
		return false, manifestError
	}

	variableDescriptions := updater.resolveDescriptions(executionContext, manifestDocument.Name(), scannedVariables)

	pluginParameters := map[string]any{}
	for _, variableName := range scannedVariables {
		pluginParameters[variableName] = map[string]any{
			parameterTypeFieldKeyConstant:     parameterTypeStringValueConstant,
			parameterDescriptionFieldKeyConst: variableDescriptions[variableName],
		}
	}
	agentConfiguration := map[string]any{
		pluginTypeFieldKeyConstant:       pluginTypeValueConstant,
		pluginParametersFieldKeyConstant: pluginParameters,
	}

	if reflect.DeepEqual(manifestDocument.AgentConfig(), agentConfiguration) {
		return false, nil
	}

	manifestDocument.SetAgentConfig(agentConfiguration)
	if saveError := manifestDocument.Save(manifestPath); saveError != nil {
		return false, saveError
	}
	return true, nil
}

// resolveDescriptions asks the model for one-line descriptions and fills any
// gap, or the whole set on failure, with TODO markers.
func (updater *Updater) resolveDescriptions(executionContext context.Context, packageName string, variableNames []string) map[string]string {
	variableDescriptions := make(map[string]string, len(variableNames))
	for _, variableName := range variableNames {
		variableDescriptions[variableName] = fmt.Sprintf(todoDescriptionTemplateConstant, variableName)
	}
	if updater.completer == nil || len(variableNames) == 0 {
		return variableDescriptions
	}

	var promptBuilder strings.Builder
	fmt.Fprintf(&promptBuilder, descriptionPromptHeaderConstant, packageName)
	for _, variableName := range variableNames {
		fmt.Fprintf(&promptBuilder, "- %s\n", variableName)
	}

	completionResponse, completionError := updater.completer.Complete(executionContext, llm.CompletionRequest{
		SystemInstruction: descriptionPromptSystemInstruction,
		UserPrompt:        promptBuilder.String(),
	})
	if completionError != nil {
		updater.logger.Warn(completionFailedLogMessageConstant,
			zap.String(packageLogFieldNameConstant, packageName),
			zap.String(errorLogFieldNameConstant, completionError.Error()),
		)
		return variableDescriptions
	}

	for _, responseLine := range strings.Split(completionResponse, "\n") {
		lineName, lineDescription, separatorFound := strings.Cut(responseLine, descriptionLineSeparatorConstant)
		if !separatorFound {
			continue
		}
		trimmedName := strings.Trim(strings.TrimSpace(lineName), "-` *")
		trimmedDescription := strings.TrimSpace(lineDescription)
		if _, variableKnown := variableDescriptions[trimmedName]; variableKnown && len(trimmedDescription) > 0 {
			variableDescriptions[trimmedName] = trimmedDescription
		}
	}
	return variableDescriptions
}
