package gitrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karthikbj/pluginops/internal/execshell"
)

type stubGitExecutor struct {
	recordedCommands []execshell.CommandDetails
	executionResult  execshell.ExecutionResult
	executionError   error
}

func (executor *stubGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	return executor.executionResult, executor.executionError
}

func TestNewRepositoryManagerRequiresExecutor(t *testing.T) {
	manager, creationError := NewRepositoryManager(nil)
	require.ErrorIs(t, creationError, ErrExecutorNotConfigured)
	require.Nil(t, manager)
}

func TestCloneRepositoryBuildsShallowCloneCommand(t *testing.T) {
	executor := &stubGitExecutor{}
	manager, creationError := NewRepositoryManager(executor)
	require.NoError(t, creationError)

	cloneError := manager.CloneRepository(context.Background(), "https://github.com/elizaos-plugins/plugin-solana.git", "/tmp/clones/plugin-solana")
	require.NoError(t, cloneError)
	require.Len(t, executor.recordedCommands, 1)
	require.Equal(t, []string{"clone", "--depth", "1", "https://github.com/elizaos-plugins/plugin-solana.git", "/tmp/clones/plugin-solana"}, executor.recordedCommands[0].Arguments)
}

func TestCloneRepositoryValidatesInputs(t *testing.T) {
	executor := &stubGitExecutor{}
	manager, creationError := NewRepositoryManager(executor)
	require.NoError(t, creationError)

	require.ErrorIs(t, manager.CloneRepository(context.Background(), " ", "/tmp/target"), ErrCloneURLRequired)
	require.ErrorIs(t, manager.CloneRepository(context.Background(), "https://github.com/a/b.git", " "), ErrTargetPathRequired)
	require.Empty(t, executor.recordedCommands)
}

func TestCheckCleanWorktreeInterpretsPorcelainOutput(t *testing.T) {
	testCases := []struct {
		name           string
		standardOutput string
		expectedClean  bool
	}{
		{name: "clean", standardOutput: "\n", expectedClean: true},
		{name: "dirty", standardOutput: " M package.json\n", expectedClean: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			executor := &stubGitExecutor{executionResult: execshell.ExecutionResult{StandardOutput: testCase.standardOutput}}
			manager, creationError := NewRepositoryManager(executor)
			require.NoError(t, creationError)

			cleanState, checkError := manager.CheckCleanWorktree(context.Background(), "/tmp/repo")
			require.NoError(t, checkError)
			require.Equal(t, testCase.expectedClean, cleanState)
		})
	}
}

func TestCommitAndPushBuildExpectedCommands(t *testing.T) {
	executor := &stubGitExecutor{}
	manager, creationError := NewRepositoryManager(executor)
	require.NoError(t, creationError)

	require.NoError(t, manager.CreateBranch(context.Background(), "/tmp/repo", "chore/rename-scope"))
	require.NoError(t, manager.StageAll(context.Background(), "/tmp/repo"))
	require.NoError(t, manager.Commit(context.Background(), "/tmp/repo", "chore: rename package scope"))
	require.NoError(t, manager.Push(context.Background(), "/tmp/repo", "origin", "chore/rename-scope"))

	require.Len(t, executor.recordedCommands, 4)
	require.Equal(t, []string{"checkout", "-b", "chore/rename-scope"}, executor.recordedCommands[0].Arguments)
	require.Equal(t, []string{"add", "--all"}, executor.recordedCommands[1].Arguments)
	require.Equal(t, []string{"commit", "-m", "chore: rename package scope"}, executor.recordedCommands[2].Arguments)
	require.Equal(t, []string{"push", "--set-upstream", "origin", "chore/rename-scope"}, executor.recordedCommands[3].Arguments)
	for _, recordedCommand := range executor.recordedCommands {
		require.Equal(t, "/tmp/repo", recordedCommand.WorkingDirectory)
	}
}
