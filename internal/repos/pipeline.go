package repos

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/discovery"
	"github.com/karthikbj/pluginops/internal/githubcli"
	"github.com/karthikbj/pluginops/internal/gitrepo"
	"github.com/karthikbj/pluginops/internal/workspace"
)

const (
	pipelineLoggerRequiredMessageConstant     = "pipeline logger is required"
	pipelineGitManagerRequiredMessageConstant = "pipeline repository manager is required"
	pipelineWorkspacesRequiredMessageConstant = "pipeline workspace manager is required"
	pipelineMutatorRequiredMessageConstant    = "pipeline mutator is required"
	pipelineBranchRequiredMessageConstant     = "branch name is required"
	pipelineCommitRequiredMessageConstant     = "commit message is required"
	pipelineCloneFailedTemplateConstant       = "cloning %s: %w"
	pipelineMutationFailedTemplateConstant    = "mutating %s: %w"
	pipelineBranchFailedTemplateConstant      = "creating branch in %s: %w"
	pipelineStageFailedTemplateConstant       = "staging changes in %s: %w"
	pipelineCommitFailedTemplateConstant      = "committing changes in %s: %w"
	pipelinePushFailedTemplateConstant        = "pushing branch for %s: %w"
	pipelinePullRequestFailedTemplateConstant = "opening pull request for %s (branch %s already pushed): %w"
	pipelineNoChangesMessageConstant          = "repository already up to date"
	pipelineMutationAppliedMessageConstant    = "mutation applied"
	pipelinePullRequestOpenedMessageConstant  = "pull request opened"
	pipelineRepositoryFieldNameConstant       = "repository"
	pipelineSummaryFieldNameConstant          = "summary"
	pipelinePullRequestURLFieldNameConstant   = "pull_request_url"
	pipelineDefaultRemoteNameConstant         = "origin"
	pipelineLocalPathRequiredMessageConstant  = "repository local path is required for local processing"
	pipelinePullRequestsRequiredMessageConst  = "pipeline pull request creator is required for remote processing"
	pipelineCloneURLRequiredMessageConstant   = "repository clone URL is required for remote processing"
)

// Pipeline validation errors.
var (
	ErrPipelineLoggerRequired      = errors.New(pipelineLoggerRequiredMessageConstant)
	ErrPipelineGitManagerRequired  = errors.New(pipelineGitManagerRequiredMessageConstant)
	ErrPipelineWorkspacesRequired  = errors.New(pipelineWorkspacesRequiredMessageConstant)
	ErrPipelineMutatorRequired     = errors.New(pipelineMutatorRequiredMessageConstant)
	ErrPipelineBranchRequired      = errors.New(pipelineBranchRequiredMessageConstant)
	ErrPipelineCommitRequired      = errors.New(pipelineCommitRequiredMessageConstant)
	ErrPipelineLocalPathRequired   = errors.New(pipelineLocalPathRequiredMessageConstant)
	ErrPipelinePullRequestsRequire = errors.New(pipelinePullRequestsRequiredMessageConst)
	ErrPipelineCloneURLRequired    = errors.New(pipelineCloneURLRequiredMessageConstant)
)

// MutationResult reports whether a mutator changed the checkout and how.
type MutationResult struct {
	Changed bool
	Summary string
}

// Mutator applies a change to a repository checkout rooted at checkoutPath.
type Mutator func(executionContext context.Context, checkoutPath string) (MutationResult, error)

// PullRequestCreator opens pull requests for pushed branches.
type PullRequestCreator interface {
	CreatePullRequest(executionContext context.Context, request githubcli.PullRequestRequest) (string, error)
}

// RemoteOptions configures how remote mutations are committed and published.
type RemoteOptions struct {
	BranchName       string
	CommitMessage    string
	PullRequestTitle string
	PullRequestBody  string
	RemoteName       string
}

// RemoteOutcome describes what ProcessRemote did for one repository.
type RemoteOutcome struct {
	Changed        bool
	Summary        string
	PullRequestURL string
}

// Pipeline clones repositories, applies a mutation, and publishes the result
// as a branch with an accompanying pull request.
type Pipeline struct {
	logger       *zap.Logger
	gitManager   *gitrepo.RepositoryManager
	pullRequests PullRequestCreator
	workspaces   *workspace.Manager
}

// NewPipeline validates collaborators and assembles a Pipeline. The pull
// request creator may be nil when only local processing is needed.
func NewPipeline(logger *zap.Logger, gitManager *gitrepo.RepositoryManager, pullRequests PullRequestCreator, workspaces *workspace.Manager) (*Pipeline, error) {
	if logger == nil {
		return nil, ErrPipelineLoggerRequired
	}
	if gitManager == nil {
		return nil, ErrPipelineGitManagerRequired
	}
	if workspaces == nil {
		return nil, ErrPipelineWorkspacesRequired
	}

	pipeline := &Pipeline{
		logger:       logger,
		gitManager:   gitManager,
		pullRequests: pullRequests,
		workspaces:   workspaces,
	}

	return pipeline, nil
}

// ProcessRemote clones the repository into a temporary directory, applies the
// mutator, and, when the mutator reports a change, commits the result on a new
// branch, pushes it, and opens a pull request against the default branch.
// Pushed branches are kept even when pull request creation fails so operators
// can open the pull request manually.
func (pipeline *Pipeline) ProcessRemote(executionContext context.Context, repository discovery.RepositoryRef, options RemoteOptions, mutate Mutator) (RemoteOutcome, error) {
	if mutate == nil {
		return RemoteOutcome{}, ErrPipelineMutatorRequired
	}
	if pipeline.pullRequests == nil {
		return RemoteOutcome{}, ErrPipelinePullRequestsRequire
	}
	if len(repository.CloneURL) == 0 {
		return RemoteOutcome{}, ErrPipelineCloneURLRequired
	}

	normalizedOptions, optionsError := normalizeRemoteOptions(options)
	if optionsError != nil {
		return RemoteOutcome{}, optionsError
	}

	checkoutPath, cleanupWorkspace, workspaceError := pipeline.workspaces.CreateCloneDirectory(repository.Name)
	if workspaceError != nil {
		return RemoteOutcome{}, workspaceError
	}
	defer cleanupWorkspace()

	cloneError := pipeline.gitManager.CloneRepository(executionContext, repository.CloneURL, checkoutPath)
	if cloneError != nil {
		return RemoteOutcome{}, fmt.Errorf(pipelineCloneFailedTemplateConstant, repository.Name, cloneError)
	}

	mutationResult, mutationError := mutate(executionContext, checkoutPath)
	if mutationError != nil {
		return RemoteOutcome{}, fmt.Errorf(pipelineMutationFailedTemplateConstant, repository.Name, mutationError)
	}

	if !mutationResult.Changed {
		pipeline.logger.Info(pipelineNoChangesMessageConstant,
			zap.String(pipelineRepositoryFieldNameConstant, repository.Name))
		return RemoteOutcome{Changed: false, Summary: mutationResult.Summary}, nil
	}

	pipeline.logger.Info(pipelineMutationAppliedMessageConstant,
		zap.String(pipelineRepositoryFieldNameConstant, repository.Name),
		zap.String(pipelineSummaryFieldNameConstant, mutationResult.Summary))

	branchError := pipeline.gitManager.CreateBranch(executionContext, checkoutPath, normalizedOptions.BranchName)
	if branchError != nil {
		return RemoteOutcome{}, fmt.Errorf(pipelineBranchFailedTemplateConstant, repository.Name, branchError)
	}

	stageError := pipeline.gitManager.StageAll(executionContext, checkoutPath)
	if stageError != nil {
		return RemoteOutcome{}, fmt.Errorf(pipelineStageFailedTemplateConstant, repository.Name, stageError)
	}

	commitError := pipeline.gitManager.Commit(executionContext, checkoutPath, normalizedOptions.CommitMessage)
	if commitError != nil {
		return RemoteOutcome{}, fmt.Errorf(pipelineCommitFailedTemplateConstant, repository.Name, commitError)
	}

	pushError := pipeline.gitManager.Push(executionContext, checkoutPath, normalizedOptions.RemoteName, normalizedOptions.BranchName)
	if pushError != nil {
		return RemoteOutcome{}, fmt.Errorf(pipelinePushFailedTemplateConstant, repository.Name, pushError)
	}

	pullRequest := githubcli.PullRequestRequest{
		Repository: repository.NameWithOwner,
		Title:      normalizedOptions.PullRequestTitle,
		Body:       normalizedOptions.PullRequestBody,
		BaseBranch: repository.DefaultBranch,
		HeadBranch: normalizedOptions.BranchName,
	}

	pullRequestURL, pullRequestError := pipeline.pullRequests.CreatePullRequest(executionContext, pullRequest)
	if pullRequestError != nil {
		return RemoteOutcome{}, fmt.Errorf(pipelinePullRequestFailedTemplateConstant, repository.Name, normalizedOptions.BranchName, pullRequestError)
	}

	pipeline.logger.Info(pipelinePullRequestOpenedMessageConstant,
		zap.String(pipelineRepositoryFieldNameConstant, repository.Name),
		zap.String(pipelinePullRequestURLFieldNameConstant, pullRequestURL))

	outcome := RemoteOutcome{
		Changed:        true,
		Summary:        mutationResult.Summary,
		PullRequestURL: pullRequestURL,
	}

	return outcome, nil
}

// ProcessLocal applies the mutator to an existing checkout in place without
// committing or publishing anything.
func (pipeline *Pipeline) ProcessLocal(executionContext context.Context, repository discovery.RepositoryRef, mutate Mutator) (MutationResult, error) {
	if mutate == nil {
		return MutationResult{}, ErrPipelineMutatorRequired
	}
	if len(repository.LocalPath) == 0 {
		return MutationResult{}, ErrPipelineLocalPathRequired
	}

	mutationResult, mutationError := mutate(executionContext, repository.LocalPath)
	if mutationError != nil {
		return MutationResult{}, fmt.Errorf(pipelineMutationFailedTemplateConstant, repository.Name, mutationError)
	}

	if mutationResult.Changed {
		pipeline.logger.Info(pipelineMutationAppliedMessageConstant,
			zap.String(pipelineRepositoryFieldNameConstant, repository.Name),
			zap.String(pipelineSummaryFieldNameConstant, mutationResult.Summary))
	}

	return mutationResult, nil
}

func normalizeRemoteOptions(options RemoteOptions) (RemoteOptions, error) {
	if len(options.BranchName) == 0 {
		return RemoteOptions{}, ErrPipelineBranchRequired
	}
	if len(options.CommitMessage) == 0 {
		return RemoteOptions{}, ErrPipelineCommitRequired
	}

	normalized := options
	if len(normalized.RemoteName) == 0 {
		normalized.RemoteName = pipelineDefaultRemoteNameConstant
	}
	if len(normalized.PullRequestTitle) == 0 {
		normalized.PullRequestTitle = normalized.CommitMessage
	}
	if len(normalized.PullRequestBody) == 0 {
		normalized.PullRequestBody = normalized.CommitMessage
	}

	return normalized, nil
}
