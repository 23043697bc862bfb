package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/karthikbj/pluginops/internal/execshell"
)

const (
	cloneSubcommandConstant               = "clone"
	statusSubcommandConstant              = "status"
	statusPorcelainFlagConstant           = "--porcelain"
	checkoutSubcommandConstant            = "checkout"
	createBranchFlagConstant              = "-b"
	addSubcommandConstant                 = "add"
	addAllFlagConstant                    = "--all"
	commitSubcommandConstant              = "commit"
	commitMessageFlagConstant             = "-m"
	pushSubcommandConstant                = "push"
	pushSetUpstreamFlagConstant           = "--set-upstream"
	cloneDepthFlagConstant                = "--depth"
	cloneDepthValueConstant               = "1"
	executorNotConfiguredMessageConstant  = "git executor not configured"
	cloneURLRequiredMessageConstant       = "clone URL must be provided"
	targetPathRequiredMessageConstant     = "target path must be provided"
	repositoryPathRequiredMessageConstant = "repository path must be provided"
	branchNameRequiredMessageConstant     = "branch name must be provided"
	commitMessageRequiredMessageConstant  = "commit message must be provided"
	remoteNameRequiredMessageConstant     = "remote name must be provided"
)

// Validation sentinels reported by RepositoryManager operations.
var (
	ErrExecutorNotConfigured  = errors.New(executorNotConfiguredMessageConstant)
	ErrCloneURLRequired       = errors.New(cloneURLRequiredMessageConstant)
	ErrTargetPathRequired     = errors.New(targetPathRequiredMessageConstant)
	ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)
	ErrBranchNameRequired     = errors.New(branchNameRequiredMessageConstant)
	ErrCommitMessageRequired  = errors.New(commitMessageRequiredMessageConstant)
	ErrRemoteNameRequired     = errors.New(remoteNameRequiredMessageConstant)
)

// GitExecutor exposes the subset of shell execution required for git operations.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager performs git operations against local checkouts.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager around the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CloneRepository performs a shallow clone of the remote repository into targetPath.
func (manager *RepositoryManager) CloneRepository(executionContext context.Context, cloneURL string, targetPath string) error {
	trimmedCloneURL := strings.TrimSpace(cloneURL)
	if len(trimmedCloneURL) == 0 {
		return ErrCloneURLRequired
	}
	trimmedTargetPath := strings.TrimSpace(targetPath)
	if len(trimmedTargetPath) == 0 {
		return ErrTargetPathRequired
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{cloneSubcommandConstant, cloneDepthFlagConstant, cloneDepthValueConstant, trimmedCloneURL, trimmedTargetPath},
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// CheckCleanWorktree reports whether the repository path holds no uncommitted changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return false, ErrRepositoryPathRequired
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{statusSubcommandConstant, statusPorcelainFlagConstant},
		WorkingDirectory: trimmedRepositoryPath,
	}
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return false, executionError
	}

	return len(strings.TrimSpace(executionResult.StandardOutput)) == 0, nil
}

// CreateBranch creates and switches to a new branch in the repository.
func (manager *RepositoryManager) CreateBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return ErrBranchNameRequired
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{checkoutSubcommandConstant, createBranchFlagConstant, trimmedBranchName},
		WorkingDirectory: trimmedRepositoryPath,
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// StageAll stages every pending change in the repository.
func (manager *RepositoryManager) StageAll(executionContext context.Context, repositoryPath string) error {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{addSubcommandConstant, addAllFlagConstant},
		WorkingDirectory: trimmedRepositoryPath,
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// Commit records the staged changes with the provided message.
func (manager *RepositoryManager) Commit(executionContext context.Context, repositoryPath string, commitMessage string) error {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}
	trimmedCommitMessage := strings.TrimSpace(commitMessage)
	if len(trimmedCommitMessage) == 0 {
		return ErrCommitMessageRequired
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{commitSubcommandConstant, commitMessageFlagConstant, trimmedCommitMessage},
		WorkingDirectory: trimmedRepositoryPath,
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// Push publishes the branch to the named remote, configuring the upstream reference.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		return ErrRemoteNameRequired
	}
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return ErrBranchNameRequired
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        []string{pushSubcommandConstant, pushSetUpstreamFlagConstant, trimmedRemoteName, trimmedBranchName},
		WorkingDirectory: trimmedRepositoryPath,
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	return executionError
}
