package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/discovery"
	"github.com/karthikbj/pluginops/internal/execshell"
	"github.com/karthikbj/pluginops/internal/githubcli"
	"github.com/karthikbj/pluginops/internal/gitrepo"
	"github.com/karthikbj/pluginops/internal/workspace"
)

const (
	testRepositoryNameConstant     = "plugin-solana"
	testRepositoryOwnerConstant    = "elizaos-plugins/plugin-solana"
	testCloneURLConstant           = "https://github.com/elizaos-plugins/plugin-solana.git"
	testDefaultBranchConstant      = "main"
	testBranchNameConstant         = "chore/rename-package-scope"
	testCommitMessageConstant      = "chore: rename package scope from @ai16z to @elizaos"
	testPullRequestURLConstant     = "https://github.com/elizaos-plugins/plugin-solana/pull/7"
	testMutationSummaryConstant    = "renamed scope @ai16z to @elizaos"
	testPushFailureMessageConstant = "push rejected"
	testPullRequestFailureConstant = "pull request rejected"
)

type stubGitExecutor struct {
	recordedCommands []execshell.CommandDetails
	failOnArgument   string
	executionError   error
}

func (executor *stubGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	if len(executor.failOnArgument) > 0 && len(details.Arguments) > 0 && details.Arguments[0] == executor.failOnArgument {
		return execshell.ExecutionResult{}, executor.executionError
	}
	return execshell.ExecutionResult{}, nil
}

type stubPullRequestCreator struct {
	recordedRequests []githubcli.PullRequestRequest
	pullRequestURL   string
	creationError    error
}

func (creator *stubPullRequestCreator) CreatePullRequest(_ context.Context, request githubcli.PullRequestRequest) (string, error) {
	creator.recordedRequests = append(creator.recordedRequests, request)
	if creator.creationError != nil {
		return "", creator.creationError
	}
	return creator.pullRequestURL, nil
}

func newTestPipeline(testInstance *testing.T, gitExecutor *stubGitExecutor, pullRequests PullRequestCreator) *Pipeline {
	testInstance.Helper()

	gitManager, managerError := gitrepo.NewRepositoryManager(gitExecutor)
	require.NoError(testInstance, managerError)

	pipeline, pipelineError := NewPipeline(zap.NewNop(), gitManager, pullRequests, workspace.NewManager(testInstance.TempDir()))
	require.NoError(testInstance, pipelineError)

	return pipeline
}

func testRepositoryRef() discovery.RepositoryRef {
	return discovery.RepositoryRef{
		Name:          testRepositoryNameConstant,
		NameWithOwner: testRepositoryOwnerConstant,
		CloneURL:      testCloneURLConstant,
		DefaultBranch: testDefaultBranchConstant,
	}
}

func TestNewPipelineValidation(t *testing.T) {
	gitManager, managerError := gitrepo.NewRepositoryManager(&stubGitExecutor{})
	require.NoError(t, managerError)
	workspaces := workspace.NewManager(t.TempDir())

	testCases := []struct {
		name          string
		logger        *zap.Logger
		gitManager    *gitrepo.RepositoryManager
		workspaces    *workspace.Manager
		expectedError error
	}{
		{name: "missing logger", logger: nil, gitManager: gitManager, workspaces: workspaces, expectedError: ErrPipelineLoggerRequired},
		{name: "missing git manager", logger: zap.NewNop(), gitManager: nil, workspaces: workspaces, expectedError: ErrPipelineGitManagerRequired},
		{name: "missing workspaces", logger: zap.NewNop(), gitManager: gitManager, workspaces: nil, expectedError: ErrPipelineWorkspacesRequired},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(subtest *testing.T) {
			pipeline, creationError := NewPipeline(testCase.logger, testCase.gitManager, nil, testCase.workspaces)
			require.ErrorIs(subtest, creationError, testCase.expectedError)
			require.Nil(subtest, pipeline)
		})
	}
}

func TestProcessRemotePublishesChange(t *testing.T) {
	gitExecutor := &stubGitExecutor{}
	pullRequests := &stubPullRequestCreator{pullRequestURL: testPullRequestURLConstant}
	pipeline := newTestPipeline(t, gitExecutor, pullRequests)

	mutator := func(_ context.Context, _ string) (MutationResult, error) {
		return MutationResult{Changed: true, Summary: testMutationSummaryConstant}, nil
	}

	remoteOptions := RemoteOptions{BranchName: testBranchNameConstant, CommitMessage: testCommitMessageConstant}
	outcome, processError := pipeline.ProcessRemote(context.Background(), testRepositoryRef(), remoteOptions, mutator)
	require.NoError(t, processError)
	require.True(t, outcome.Changed)
	require.Equal(t, testPullRequestURLConstant, outcome.PullRequestURL)
	require.Equal(t, testMutationSummaryConstant, outcome.Summary)

	require.Len(t, gitExecutor.recordedCommands, 5)
	require.Equal(t, "clone", gitExecutor.recordedCommands[0].Arguments[0])
	require.Equal(t, []string{"checkout", "-b", testBranchNameConstant}, gitExecutor.recordedCommands[1].Arguments)
	require.Equal(t, []string{"add", "--all"}, gitExecutor.recordedCommands[2].Arguments)
	require.Equal(t, []string{"commit", "-m", testCommitMessageConstant}, gitExecutor.recordedCommands[3].Arguments)
	require.Equal(t, []string{"push", "--set-upstream", "origin", testBranchNameConstant}, gitExecutor.recordedCommands[4].Arguments)

	require.Len(t, pullRequests.recordedRequests, 1)
	recordedRequest := pullRequests.recordedRequests[0]
	require.Equal(t, testRepositoryOwnerConstant, recordedRequest.Repository)
	require.Equal(t, testDefaultBranchConstant, recordedRequest.BaseBranch)
	require.Equal(t, testBranchNameConstant, recordedRequest.HeadBranch)
	require.Equal(t, testCommitMessageConstant, recordedRequest.Title)
}

func TestProcessRemoteSkipsPublishingWhenUnchanged(t *testing.T) {
	gitExecutor := &stubGitExecutor{}
	pullRequests := &stubPullRequestCreator{pullRequestURL: testPullRequestURLConstant}
	pipeline := newTestPipeline(t, gitExecutor, pullRequests)

	mutator := func(_ context.Context, _ string) (MutationResult, error) {
		return MutationResult{Changed: false}, nil
	}

	remoteOptions := RemoteOptions{BranchName: testBranchNameConstant, CommitMessage: testCommitMessageConstant}
	outcome, processError := pipeline.ProcessRemote(context.Background(), testRepositoryRef(), remoteOptions, mutator)
	require.NoError(t, processError)
	require.False(t, outcome.Changed)
	require.Empty(t, outcome.PullRequestURL)

	require.Len(t, gitExecutor.recordedCommands, 1)
	require.Equal(t, "clone", gitExecutor.recordedCommands[0].Arguments[0])
	require.Empty(t, pullRequests.recordedRequests)
}

func TestProcessRemoteKeepsPushedBranchWhenPullRequestFails(t *testing.T) {
	gitExecutor := &stubGitExecutor{}
	pullRequests := &stubPullRequestCreator{creationError: errors.New(testPullRequestFailureConstant)}
	pipeline := newTestPipeline(t, gitExecutor, pullRequests)

	mutator := func(_ context.Context, _ string) (MutationResult, error) {
		return MutationResult{Changed: true, Summary: testMutationSummaryConstant}, nil
	}

	remoteOptions := RemoteOptions{BranchName: testBranchNameConstant, CommitMessage: testCommitMessageConstant}
	outcome, processError := pipeline.ProcessRemote(context.Background(), testRepositoryRef(), remoteOptions, mutator)
	require.Error(t, processError)
	require.Contains(t, processError.Error(), testBranchNameConstant)
	require.False(t, outcome.Changed)

	pushObserved := false
	deleteObserved := false
	for _, recordedCommand := range gitExecutor.recordedCommands {
		if len(recordedCommand.Arguments) == 0 {
			continue
		}
		if recordedCommand.Arguments[0] == "push" {
			pushObserved = true
			if len(recordedCommand.Arguments) > 1 && recordedCommand.Arguments[1] == "--delete" {
				deleteObserved = true
			}
		}
	}
	require.True(t, pushObserved)
	require.False(t, deleteObserved)
}

func TestProcessRemoteStopsAfterPushFailure(t *testing.T) {
	gitExecutor := &stubGitExecutor{failOnArgument: "push", executionError: errors.New(testPushFailureMessageConstant)}
	pullRequests := &stubPullRequestCreator{pullRequestURL: testPullRequestURLConstant}
	pipeline := newTestPipeline(t, gitExecutor, pullRequests)

	mutator := func(_ context.Context, _ string) (MutationResult, error) {
		return MutationResult{Changed: true}, nil
	}

	remoteOptions := RemoteOptions{BranchName: testBranchNameConstant, CommitMessage: testCommitMessageConstant}
	_, processError := pipeline.ProcessRemote(context.Background(), testRepositoryRef(), remoteOptions, mutator)
	require.Error(t, processError)
	require.Empty(t, pullRequests.recordedRequests)
}

func TestProcessRemoteValidation(t *testing.T) {
	pipeline := newTestPipeline(t, &stubGitExecutor{}, &stubPullRequestCreator{})
	mutator := func(_ context.Context, _ string) (MutationResult, error) {
		return MutationResult{}, nil
	}

	testCases := []struct {
		name          string
		repository    discovery.RepositoryRef
		options       RemoteOptions
		mutator       Mutator
		expectedError error
	}{
		{name: "missing mutator", repository: testRepositoryRef(), options: RemoteOptions{BranchName: testBranchNameConstant, CommitMessage: testCommitMessageConstant}, mutator: nil, expectedError: ErrPipelineMutatorRequired},
		{name: "missing clone url", repository: discovery.RepositoryRef{Name: testRepositoryNameConstant}, options: RemoteOptions{BranchName: testBranchNameConstant, CommitMessage: testCommitMessageConstant}, mutator: mutator, expectedError: ErrPipelineCloneURLRequired},
		{name: "missing branch", repository: testRepositoryRef(), options: RemoteOptions{CommitMessage: testCommitMessageConstant}, mutator: mutator, expectedError: ErrPipelineBranchRequired},
		{name: "missing commit message", repository: testRepositoryRef(), options: RemoteOptions{BranchName: testBranchNameConstant}, mutator: mutator, expectedError: ErrPipelineCommitRequired},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(subtest *testing.T) {
			_, processError := pipeline.ProcessRemote(context.Background(), testCase.repository, testCase.options, testCase.mutator)
			require.ErrorIs(subtest, processError, testCase.expectedError)
		})
	}
}

func TestProcessRemoteRequiresPullRequestCreator(t *testing.T) {
	gitManager, managerError := gitrepo.NewRepositoryManager(&stubGitExecutor{})
	require.NoError(t, managerError)
	pipeline, pipelineError := NewPipeline(zap.NewNop(), gitManager, nil, workspace.NewManager(t.TempDir()))
	require.NoError(t, pipelineError)

	mutator := func(_ context.Context, _ string) (MutationResult, error) {
		return MutationResult{}, nil
	}
	remoteOptions := RemoteOptions{BranchName: testBranchNameConstant, CommitMessage: testCommitMessageConstant}
	_, processError := pipeline.ProcessRemote(context.Background(), testRepositoryRef(), remoteOptions, mutator)
	require.ErrorIs(t, processError, ErrPipelinePullRequestsRequire)
}

func TestProcessLocalRunsMutatorInPlace(t *testing.T) {
	pipeline := newTestPipeline(t, &stubGitExecutor{}, &stubPullRequestCreator{})

	localRepository := testRepositoryRef()
	localRepository.LocalPath = t.TempDir()

	var observedPath string
	mutator := func(_ context.Context, checkoutPath string) (MutationResult, error) {
		observedPath = checkoutPath
		return MutationResult{Changed: true, Summary: testMutationSummaryConstant}, nil
	}

	mutationResult, processError := pipeline.ProcessLocal(context.Background(), localRepository, mutator)
	require.NoError(t, processError)
	require.True(t, mutationResult.Changed)
	require.Equal(t, localRepository.LocalPath, observedPath)
}

func TestProcessLocalRequiresLocalPath(t *testing.T) {
	pipeline := newTestPipeline(t, &stubGitExecutor{}, &stubPullRequestCreator{})

	mutator := func(_ context.Context, _ string) (MutationResult, error) {
		return MutationResult{}, nil
	}
	_, processError := pipeline.ProcessLocal(context.Background(), testRepositoryRef(), mutator)
	require.ErrorIs(t, processError, ErrPipelineLocalPathRequired)
}
