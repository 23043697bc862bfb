package githubcli_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karthikbj/pluginops/internal/execshell"
	"github.com/karthikbj/pluginops/internal/githubcli"
)

const (
	testOrganizationConstant                     = "elizaos-plugins"
	testRepositoryIdentifierConstant             = "elizaos-plugins/plugin-example"
	testBaseBranchConstant                       = "1.x"
	testPullRequestTitleConstant                 = "chore: rename package scope"
	testPullRequestHeadConstant                  = "chore/rename-scope"
	testPullRequestURLConstant                   = "https://github.com/elizaos-plugins/plugin-example/pull/7"
	testListSuccessCaseNameConstant              = "list_success"
	testListBranchFallbackCaseNameConstant       = "list_default_branch_fallback"
	testListDecodeFailureCaseNameConstant        = "list_decode_failure"
	testListCommandFailureCaseNameConstant       = "list_command_failure"
	testListOrganizationValidationCaseName       = "list_organization_validation"
	testResolveSuccessCaseNameConstant           = "resolve_success"
	testResolveDecodeFailureCaseNameConstant     = "resolve_decode_failure"
	testResolveCommandFailureCaseNameConstant    = "resolve_command_failure"
	testResolveInputFailureCaseNameConstant      = "resolve_input_failure"
	testCreateSuccessCaseNameConstant            = "create_success"
	testCreateWithoutBaseCaseNameConstant        = "create_without_base"
	testCreateCommandFailureCaseNameConstant     = "create_command_failure"
	testCreateRepositoryValidationCaseName       = "create_repository_validation"
	testCreateTitleValidationCaseNameConstant    = "create_title_validation"
	testCreateHeadValidationCaseNameConstant     = "create_head_validation"
	testRepositoryListPayloadConstant            = `[{"name":"plugin-example","url":"https://github.com/elizaos-plugins/plugin-example","defaultBranchRef":{"name":"1.x"}}]`
	testRepositoryListMissingBranchConstant      = `[{"name":"plugin-example","url":"https://github.com/elizaos-plugins/plugin-example","defaultBranchRef":{"name":""}}]`
	testRepositoryMetadataPayloadConstant        = `{"nameWithOwner":"elizaos-plugins/plugin-example","description":"Example plugin","defaultBranchRef":{"name":"1.x"}}`
	testMalformedPayloadConstant                 = "not-json"
	testRepositoryListExpectedLimitValueConstant = "100"
)

type stubGitHubExecutor struct {
	executeFunc     func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error)
	recordedDetails []execshell.CommandDetails
}

func (executor *stubGitHubExecutor) ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	if executor.executeFunc != nil {
		return executor.executeFunc(executionContext, details)
	}
	return execshell.ExecutionResult{}, nil
}

func TestNewClientValidation(testInstance *testing.T) {
	testInstance.Run("nil_executor", func(testInstance *testing.T) {
		client, creationError := githubcli.NewClient(nil)
		require.Error(testInstance, creationError)
		require.ErrorIs(testInstance, creationError, githubcli.ErrExecutorNotConfigured)
		require.Nil(testInstance, client)
	})
}

func TestListOrganizationRepositories(testInstance *testing.T) {
	testCases := []struct {
		name         string
		organization string
		resultLimit  int
		executor     *stubGitHubExecutor
		expectError  bool
		errorType    any
		verify       func(testInstance *testing.T, repositories []githubcli.RepositoryListEntry, executor *stubGitHubExecutor)
	}{
		{
			name:         testListSuccessCaseNameConstant,
			organization: testOrganizationConstant,
			resultLimit:  0,
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testRepositoryListPayloadConstant}, nil
			}},
			verify: func(testInstance *testing.T, repositories []githubcli.RepositoryListEntry, executor *stubGitHubExecutor) {
				require.Len(testInstance, repositories, 1)
				require.Equal(testInstance, "plugin-example", repositories[0].Name)
				require.Equal(testInstance, testBaseBranchConstant, repositories[0].DefaultBranch)
				require.Equal(testInstance, "https://github.com/elizaos-plugins/plugin-example.git", repositories[0].CloneURL(testOrganizationConstant))
				require.Equal(testInstance, testRepositoryIdentifierConstant, repositories[0].NameWithOwner(testOrganizationConstant))
				require.Len(testInstance, executor.recordedDetails, 1)
				require.Contains(testInstance, executor.recordedDetails[0].Arguments, testOrganizationConstant)
				require.Contains(testInstance, executor.recordedDetails[0].Arguments, testRepositoryListExpectedLimitValueConstant)
			},
		},
		{
			name:         testListBranchFallbackCaseNameConstant,
			organization: testOrganizationConstant,
			resultLimit:  25,
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testRepositoryListMissingBranchConstant}, nil
			}},
			verify: func(testInstance *testing.T, repositories []githubcli.RepositoryListEntry, executor *stubGitHubExecutor) {
				require.Len(testInstance, repositories, 1)
				require.Equal(testInstance, "main", repositories[0].DefaultBranch)
				require.Contains(testInstance, executor.recordedDetails[0].Arguments, "25")
			},
		},
		{
			name:         testListDecodeFailureCaseNameConstant,
			organization: testOrganizationConstant,
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testMalformedPayloadConstant}, nil
			}},
			expectError: true,
			errorType:   githubcli.ResponseDecodingError{},
		},
		{
			name:         testListCommandFailureCaseNameConstant,
			organization: testOrganizationConstant,
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{}, execshell.CommandFailedError{Command: execshell.ShellCommand{Name: execshell.CommandGitHub}, Result: execshell.ExecutionResult{ExitCode: 1}}
			}},
			expectError: true,
			errorType:   githubcli.OperationError{},
		},
		{
			name:         testListOrganizationValidationCaseName,
			organization: "  ",
			executor:     &stubGitHubExecutor{},
			expectError:  true,
			errorType:    githubcli.InvalidInputError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, creationError := githubcli.NewClient(testCase.executor)
			require.NoError(testInstance, creationError)

			repositories, listError := client.ListOrganizationRepositories(context.Background(), testCase.organization, testCase.resultLimit)
			if testCase.expectError {
				require.Error(testInstance, listError)
				require.IsType(testInstance, testCase.errorType, listError)
			} else {
				require.NoError(testInstance, listError)
				require.NotNil(testInstance, testCase.verify)
				testCase.verify(testInstance, repositories, testCase.executor)
			}
		})
	}
}

func TestResolveRepoMetadata(testInstance *testing.T) {
	testCases := []struct {
		name        string
		repository  string
		executor    *stubGitHubExecutor
		expectError bool
		errorType   any
		verify      func(testInstance *testing.T, metadata githubcli.RepositoryMetadata, executor *stubGitHubExecutor)
	}{
		{
			name:       testResolveSuccessCaseNameConstant,
			repository: testRepositoryIdentifierConstant,
			executor: &stubGitHubExecutor{
				executeFunc: func(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
					return execshell.ExecutionResult{StandardOutput: testRepositoryMetadataPayloadConstant}, nil
				},
			},
			verify: func(testInstance *testing.T, metadata githubcli.RepositoryMetadata, executor *stubGitHubExecutor) {
				require.Equal(testInstance, testRepositoryIdentifierConstant, metadata.NameWithOwner)
				require.Equal(testInstance, "Example plugin", metadata.Description)
				require.Equal(testInstance, testBaseBranchConstant, metadata.DefaultBranch)
				require.Len(testInstance, executor.recordedDetails, 1)
				require.Contains(testInstance, executor.recordedDetails[0].Arguments, testRepositoryIdentifierConstant)
			},
		},
		{
			name:       testResolveDecodeFailureCaseNameConstant,
			repository: testRepositoryIdentifierConstant,
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testMalformedPayloadConstant}, nil
			}},
			expectError: true,
			errorType:   githubcli.ResponseDecodingError{},
		},
		{
			name:       testResolveCommandFailureCaseNameConstant,
			repository: testRepositoryIdentifierConstant,
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{}, execshell.CommandFailedError{Command: execshell.ShellCommand{Name: execshell.CommandGitHub}, Result: execshell.ExecutionResult{ExitCode: 1}}
			}},
			expectError: true,
			errorType:   githubcli.OperationError{},
		},
		{
			name:        testResolveInputFailureCaseNameConstant,
			repository:  "  ",
			executor:    &stubGitHubExecutor{},
			expectError: true,
			errorType:   githubcli.InvalidInputError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, creationError := githubcli.NewClient(testCase.executor)
			require.NoError(testInstance, creationError)

			metadata, resolutionError := client.ResolveRepoMetadata(context.Background(), testCase.repository)
			if testCase.expectError {
				require.Error(testInstance, resolutionError)
				require.IsType(testInstance, testCase.errorType, resolutionError)
			} else {
				require.NoError(testInstance, resolutionError)
				require.NotNil(testInstance, testCase.verify)
				testCase.verify(testInstance, metadata, testCase.executor)
			}
		})
	}
}

func TestCreatePullRequest(testInstance *testing.T) {
	testCases := []struct {
		name        string
		request     githubcli.PullRequestRequest
		executor    *stubGitHubExecutor
		expectError bool
		errorType   any
		verify      func(testInstance *testing.T, pullRequestURL string, executor *stubGitHubExecutor)
	}{
		{
			name: testCreateSuccessCaseNameConstant,
			request: githubcli.PullRequestRequest{
				Repository: testRepositoryIdentifierConstant,
				Title:      testPullRequestTitleConstant,
				Body:       "Automated scope rename.",
				BaseBranch: testBaseBranchConstant,
				HeadBranch: testPullRequestHeadConstant,
			},
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testPullRequestURLConstant + "\n"}, nil
			}},
			verify: func(testInstance *testing.T, pullRequestURL string, executor *stubGitHubExecutor) {
				require.Equal(testInstance, testPullRequestURLConstant, pullRequestURL)
				require.Len(testInstance, executor.recordedDetails, 1)
				recordedArguments := executor.recordedDetails[0].Arguments
				require.Contains(testInstance, recordedArguments, testRepositoryIdentifierConstant)
				require.Contains(testInstance, recordedArguments, testPullRequestTitleConstant)
				require.Contains(testInstance, recordedArguments, testPullRequestHeadConstant)
				require.Contains(testInstance, recordedArguments, "--base")
				require.Contains(testInstance, recordedArguments, testBaseBranchConstant)
			},
		},
		{
			name: testCreateWithoutBaseCaseNameConstant,
			request: githubcli.PullRequestRequest{
				Repository: testRepositoryIdentifierConstant,
				Title:      testPullRequestTitleConstant,
				HeadBranch: testPullRequestHeadConstant,
			},
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testPullRequestURLConstant}, nil
			}},
			verify: func(testInstance *testing.T, pullRequestURL string, executor *stubGitHubExecutor) {
				require.Equal(testInstance, testPullRequestURLConstant, pullRequestURL)
				require.NotContains(testInstance, executor.recordedDetails[0].Arguments, "--base")
			},
		},
		{
			name: testCreateCommandFailureCaseNameConstant,
			request: githubcli.PullRequestRequest{
				Repository: testRepositoryIdentifierConstant,
				Title:      testPullRequestTitleConstant,
				HeadBranch: testPullRequestHeadConstant,
			},
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{}, execshell.CommandExecutionError{Command: execshell.ShellCommand{Name: execshell.CommandGitHub}, Cause: errors.New("failed")}
			}},
			expectError: true,
			errorType:   githubcli.OperationError{},
		},
		{
			name: testCreateRepositoryValidationCaseName,
			request: githubcli.PullRequestRequest{
				Repository: " ",
				Title:      testPullRequestTitleConstant,
				HeadBranch: testPullRequestHeadConstant,
			},
			executor:    &stubGitHubExecutor{},
			expectError: true,
			errorType:   githubcli.InvalidInputError{},
		},
		{
			name: testCreateTitleValidationCaseNameConstant,
			request: githubcli.PullRequestRequest{
				Repository: testRepositoryIdentifierConstant,
				Title:      " ",
				HeadBranch: testPullRequestHeadConstant,
			},
			executor:    &stubGitHubExecutor{},
			expectError: true,
			errorType:   githubcli.InvalidInputError{},
		},
		{
			name: testCreateHeadValidationCaseNameConstant,
			request: githubcli.PullRequestRequest{
				Repository: testRepositoryIdentifierConstant,
				Title:      testPullRequestTitleConstant,
				HeadBranch: "",
			},
			executor:    &stubGitHubExecutor{},
			expectError: true,
			errorType:   githubcli.InvalidInputError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, creationError := githubcli.NewClient(testCase.executor)
			require.NoError(testInstance, creationError)

			pullRequestURL, creationFailure := client.CreatePullRequest(context.Background(), testCase.request)
			if testCase.expectError {
				require.Error(testInstance, creationFailure)
				require.IsType(testInstance, testCase.errorType, creationFailure)
			} else {
				require.NoError(testInstance, creationFailure)
				require.NotNil(testInstance, testCase.verify)
				testCase.verify(testInstance, pullRequestURL, testCase.executor)
			}
		})
	}
}
