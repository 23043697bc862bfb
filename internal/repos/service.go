package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/batch"
	"github.com/karthikbj/pluginops/internal/discovery"
)

const (
	serviceLoggerRequiredMessageConstant       = "service logger is required"
	servicePipelineRequiredMessageConstant     = "service pipeline is required"
	serviceRunnerRequiredMessageConstant       = "service batch runner is required"
	serviceDiscovererRequiredMessageConstant   = "service requires a repository source"
	serviceOrganizationRequiredMessageConstant = "organization is required"
	defaultScopeRenameBranchConstant           = "chore/rename-package-scope"
	scopeRenameCommitTemplateConstant          = "chore: rename package scope from %s to %s"
	defaultRepositoryURLBranchConstant         = "fix/canonical-repository-url"
	repositoryURLCommitMessageConstant         = "fix: point repository field at the canonical GitHub URL"
	scopePrefixConstant                        = "@"
	repositoryNotFoundTemplateConstant         = "repository %s not found in discovery results"
)

// RepositoryNotFoundError reports a repository name filter that matched nothing.
type RepositoryNotFoundError struct {
	RepositoryName string
}

// Error describes the missing repository.
func (notFoundError RepositoryNotFoundError) Error() string {
	return fmt.Sprintf(repositoryNotFoundTemplateConstant, notFoundError.RepositoryName)
}

// Service validation errors.
var (
	ErrServiceLoggerRequired       = errors.New(serviceLoggerRequiredMessageConstant)
	ErrServicePipelineRequired     = errors.New(servicePipelineRequiredMessageConstant)
	ErrServiceRunnerRequired       = errors.New(serviceRunnerRequiredMessageConstant)
	ErrServiceDiscovererRequired   = errors.New(serviceDiscovererRequiredMessageConstant)
	ErrServiceOrganizationRequired = errors.New(serviceOrganizationRequiredMessageConstant)
)

// OrganizationSource lists repositories of a GitHub organization and resolves
// single repositories by name.
type OrganizationSource interface {
	DiscoverRepositories(executionContext context.Context, organization string, namePrefix string) ([]discovery.RepositoryRef, error)
	DescribeRepository(executionContext context.Context, organization string, repositoryName string) (discovery.RepositoryRef, error)
}

// FilesystemSource lists repository checkouts under a local directory.
type FilesystemSource interface {
	DiscoverRepositories(rootDirectory string, namePrefix string) ([]discovery.RepositoryRef, error)
}

// Service runs manifest mutations across every plugin repository of an
// organization, or across local checkouts when a root directory is given.
type Service struct {
	logger             *zap.Logger
	organizationSource OrganizationSource
	filesystemSource   FilesystemSource
	pipeline           *Pipeline
	runner             *batch.Runner
}

// NewService validates collaborators and assembles a Service.
func NewService(logger *zap.Logger, organizationSource OrganizationSource, filesystemSource FilesystemSource, pipeline *Pipeline, runner *batch.Runner) (*Service, error) {
	if logger == nil {
		return nil, ErrServiceLoggerRequired
	}
	if pipeline == nil {
		return nil, ErrServicePipelineRequired
	}
	if runner == nil {
		return nil, ErrServiceRunnerRequired
	}

	service := &Service{
		logger:             logger,
		organizationSource: organizationSource,
		filesystemSource:   filesystemSource,
		pipeline:           pipeline,
		runner:             runner,
	}

	return service, nil
}

// RenameScopeOptions configures a batch scope rename.
type RenameScopeOptions struct {
	Organization     string
	RepositoryPrefix string
	OldScope         string
	NewScope         string
	LocalRoot        string
	BranchName       string
	RepositoryName   string
}

// RenameScope renames the package scope across every discovered repository.
// With a LocalRoot the mutation runs in place against existing checkouts;
// otherwise each repository is cloned, mutated, pushed, and a pull request is
// opened. Failures on individual repositories are recorded in the summary and
// do not stop the batch.
func (service *Service) RenameScope(executionContext context.Context, options RenameScopeOptions) (batch.Summary, error) {
	mutator, mutatorError := NewScopeRenameMutator(normalizeScope(options.OldScope), normalizeScope(options.NewScope))
	if mutatorError != nil {
		return batch.Summary{}, mutatorError
	}

	repositories, discoveryError := service.discoverRepositories(executionContext, options.Organization, options.RepositoryPrefix, options.LocalRoot, options.RepositoryName)
	if discoveryError != nil {
		return batch.Summary{}, discoveryError
	}

	repositories, filterError := filterByRepositoryName(repositories, options.RepositoryName)
	if filterError != nil {
		return batch.Summary{}, filterError
	}

	branchName := options.BranchName
	if len(branchName) == 0 {
		branchName = defaultScopeRenameBranchConstant
	}
	commitMessage := scopeRenameCommitMessage(normalizeScope(options.OldScope), normalizeScope(options.NewScope))

	processRepository := func(itemContext context.Context, repository discovery.RepositoryRef) error {
		if len(options.LocalRoot) > 0 {
			_, localError := service.pipeline.ProcessLocal(itemContext, repository, mutator)
			return localError
		}

		remoteOptions := RemoteOptions{
			BranchName:    branchName,
			CommitMessage: commitMessage,
		}
		_, remoteError := service.pipeline.ProcessRemote(itemContext, repository, remoteOptions, mutator)
		return remoteError
	}

	return service.runner.Run(executionContext, repositories, processRepository)
}

// FixRepositoryURLOptions configures a batch repository URL canonicalization.
type FixRepositoryURLOptions struct {
	Organization     string
	RepositoryPrefix string
	LocalRoot        string
	BranchName       string
	RepositoryName   string
}

// FixRepositoryURLs rewrites the manifest repository field of every discovered
// repository to the canonical git+https URL. The mutator is rebuilt per
// repository because the canonical URL embeds the repository name.
func (service *Service) FixRepositoryURLs(executionContext context.Context, options FixRepositoryURLOptions) (batch.Summary, error) {
	if len(options.Organization) == 0 {
		return batch.Summary{}, ErrServiceOrganizationRequired
	}

	repositories, discoveryError := service.discoverRepositories(executionContext, options.Organization, options.RepositoryPrefix, options.LocalRoot, options.RepositoryName)
	if discoveryError != nil {
		return batch.Summary{}, discoveryError
	}

	repositories, filterError := filterByRepositoryName(repositories, options.RepositoryName)
	if filterError != nil {
		return batch.Summary{}, filterError
	}

	branchName := options.BranchName
	if len(branchName) == 0 {
		branchName = defaultRepositoryURLBranchConstant
	}

	processRepository := func(itemContext context.Context, repository discovery.RepositoryRef) error {
		mutator, mutatorError := NewRepositoryURLMutator(options.Organization, repository.Name)
		if mutatorError != nil {
			return mutatorError
		}

		if len(options.LocalRoot) > 0 {
			_, localError := service.pipeline.ProcessLocal(itemContext, repository, mutator)
			return localError
		}

		remoteOptions := RemoteOptions{
			BranchName:    branchName,
			CommitMessage: repositoryURLCommitMessageConstant,
		}
		_, remoteError := service.pipeline.ProcessRemote(itemContext, repository, remoteOptions, mutator)
		return remoteError
	}

	return service.runner.Run(executionContext, repositories, processRepository)
}

func (service *Service) discoverRepositories(executionContext context.Context, organization string, repositoryPrefix string, localRoot string, repositoryName string) ([]discovery.RepositoryRef, error) {
	if len(localRoot) > 0 {
		if service.filesystemSource == nil {
			return nil, ErrServiceDiscovererRequired
		}
		return service.filesystemSource.DiscoverRepositories(localRoot, repositoryPrefix)
	}

	if len(organization) == 0 {
		return nil, ErrServiceOrganizationRequired
	}
	if service.organizationSource == nil {
		return nil, ErrServiceDiscovererRequired
	}

	// A single named repository is resolved directly through gh repo view
	// instead of listing the whole organization.
	if len(repositoryName) > 0 {
		repository, describeError := service.organizationSource.DescribeRepository(executionContext, organization, repositoryName)
		if describeError != nil {
			return nil, describeError
		}
		return []discovery.RepositoryRef{repository}, nil
	}

	return service.organizationSource.DiscoverRepositories(executionContext, organization, repositoryPrefix)
}

// filterByRepositoryName restricts the batch to a single repository when a
// name is given. An unknown name is an error so typos fail loudly instead of
// silently processing nothing.
func filterByRepositoryName(repositories []discovery.RepositoryRef, repositoryName string) ([]discovery.RepositoryRef, error) {
	if len(repositoryName) == 0 {
		return repositories, nil
	}

	for _, repository := range repositories {
		if repository.Name == repositoryName {
			return []discovery.RepositoryRef{repository}, nil
		}
	}

	return nil, RepositoryNotFoundError{RepositoryName: repositoryName}
}

func scopeRenameCommitMessage(oldScope string, newScope string) string {
	return fmt.Sprintf(scopeRenameCommitTemplateConstant, oldScope, newScope)
}

func normalizeScope(scopeValue string) string {
	trimmedScope := strings.TrimSpace(scopeValue)
	if len(trimmedScope) == 0 {
		return trimmedScope
	}
	if !strings.HasPrefix(trimmedScope, scopePrefixConstant) {
		trimmedScope = scopePrefixConstant + trimmedScope
	}
	return trimmedScope
}
