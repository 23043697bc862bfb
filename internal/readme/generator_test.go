package readme_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/llm"
	"github.com/karthikbj/pluginops/internal/plugininfo"
	"github.com/karthikbj/pluginops/internal/readme"
)

const (
	testPackageNameConstant          = "@elizaos/plugin-x"
	testCompletionFailureCaseName    = "completion_failure_falls_back"
	testShortResponseCaseName        = "short_response_falls_back"
	testAcceptedResponseCaseName     = "long_response_accepted"
	testNilCompleterCaseNameConstant = "nil_completer_falls_back"
)

type stubChatCompleter struct {
	response        string
	completionError error
	recordedPrompts []llm.CompletionRequest
}

func (completer *stubChatCompleter) Complete(executionContext context.Context, request llm.CompletionRequest) (string, error) {
	completer.recordedPrompts = append(completer.recordedPrompts, request)
	if completer.completionError != nil {
		return "", completer.completionError
	}
	return completer.response, nil
}

func samplePluginInformation() plugininfo.PluginInfo {
	return plugininfo.PluginInfo{
		PackageName:          testPackageNameConstant,
		Version:              "1.0.0",
		Description:          "Example plugin",
		EnvironmentVariables: []string{"API_KEY", "RPC_URL"},
		Actions:              []plugininfo.ComponentInfo{{Name: "transferAction"}},
		Services:             []plugininfo.ComponentInfo{{Name: "TradeService", Methods: []string{"executeTrade"}}},
		HasTests:             true,
	}
}

func TestNewGeneratorValidation(testInstance *testing.T) {
	generator, creationError := readme.NewGenerator(nil, nil)
	require.Nil(testInstance, generator)
	require.ErrorIs(testInstance, creationError, readme.ErrLoggerRequired)
}

func TestGenerate(testInstance *testing.T) {
	acceptedResponse := strings.Repeat("# Documentation body line\n", 40)

	testCases := []struct {
		name           string
		completer      llm.ChatCompleter
		expectFallback bool
	}{
		{
			name:           testCompletionFailureCaseName,
			completer:      &stubChatCompleter{completionError: errors.New("rate limited")},
			expectFallback: true,
		},
		{
			name:           testShortResponseCaseName,
			completer:      &stubChatCompleter{response: "too short"},
			expectFallback: true,
		},
		{
			name:      testAcceptedResponseCaseName,
			completer: &stubChatCompleter{response: acceptedResponse},
		},
		{
			name:           testNilCompleterCaseNameConstant,
			expectFallback: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			generator, creationError := readme.NewGenerator(zap.NewNop(), testCase.completer)
			require.NoError(testInstance, creationError)

			generatedDocument := generator.Generate(context.Background(), samplePluginInformation(), "")
			require.NotEmpty(testInstance, generatedDocument)
			if testCase.expectFallback {
				require.Contains(testInstance, generatedDocument, testPackageNameConstant)
				require.Contains(testInstance, generatedDocument, "TODO")
			} else {
				require.Equal(testInstance, strings.TrimSpace(acceptedResponse), generatedDocument)
			}
		})
	}
}

func TestBuildPromptContainsStructuralFacts(testInstance *testing.T) {
	assembledPrompt := readme.BuildPrompt(samplePluginInformation(), "## Usage\nexisting usage notes")

	require.Contains(testInstance, assembledPrompt, testPackageNameConstant)
	require.Contains(testInstance, assembledPrompt, "transferAction")
	require.Contains(testInstance, assembledPrompt, "TradeService")
	require.Contains(testInstance, assembledPrompt, "executeTrade")
	require.Contains(testInstance, assembledPrompt, "API_KEY")
	require.Contains(testInstance, assembledPrompt, "existing usage notes")
}

func TestRenderFallback(testInstance *testing.T) {
	fallbackDocument := readme.RenderFallback(samplePluginInformation())

	require.Contains(testInstance, fallbackDocument, testPackageNameConstant)
	require.Contains(testInstance, fallbackDocument, "## Installation")
	require.Contains(testInstance, fallbackDocument, "## Configuration")
	require.Contains(testInstance, fallbackDocument, "## Usage")
	require.Contains(testInstance, fallbackDocument, "## License")
	require.Contains(testInstance, fallbackDocument, "`API_KEY`")
	require.Contains(testInstance, fallbackDocument, "`RPC_URL`")
	require.Contains(testInstance, fallbackDocument, "transferAction")
	require.Contains(testInstance, fallbackDocument, "bun add @elizaos/plugin-x")
}

func TestEnsureNotSelfWrite(testInstance *testing.T) {
	automationRoot := testInstance.TempDir()

	testInstance.Run("inside_automation_root_refused", func(testInstance *testing.T) {
		guardError := readme.EnsureNotSelfWrite(filepath.Join(automationRoot, "README.md"), automationRoot)
		require.ErrorIs(testInstance, guardError, readme.ErrSelfWriteRefused)
	})

	testInstance.Run("automation_root_itself_refused", func(testInstance *testing.T) {
		guardError := readme.EnsureNotSelfWrite(automationRoot, automationRoot)
		require.ErrorIs(testInstance, guardError, readme.ErrSelfWriteRefused)
	})

	testInstance.Run("checkout_nested_under_root_allowed", func(testInstance *testing.T) {
		checkoutReadmePath := filepath.Join(automationRoot, "checkouts", "plugin-solana", "README.md")
		guardError := readme.EnsureNotSelfWrite(checkoutReadmePath, automationRoot)
		require.NoError(testInstance, guardError)
	})

	testInstance.Run("outside_root_allowed", func(testInstance *testing.T) {
		guardError := readme.EnsureNotSelfWrite(filepath.Join(testInstance.TempDir(), "README.md"), automationRoot)
		require.NoError(testInstance, guardError)
	})

	testInstance.Run("missing_paths_rejected", func(testInstance *testing.T) {
		guardError := readme.EnsureNotSelfWrite("  ", automationRoot)
		require.ErrorIs(testInstance, guardError, readme.ErrGuardPathsRequired)
	})
}
