package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/karthikbj/pluginops/internal/execshell"
)

const (
	repoSubcommandConstant                  = "repo"
	viewSubcommandConstant                  = "view"
	listSubcommandConstant                  = "list"
	pullRequestSubcommandConstant           = "pr"
	createSubcommandConstant                = "create"
	jsonFlagConstant                        = "--json"
	repoFlagConstant                        = "--repo"
	limitFlagConstant                       = "--limit"
	titleFlagConstant                       = "--title"
	bodyFlagConstant                        = "--body"
	baseFlagConstant                        = "--base"
	headFlagConstant                        = "--head"
	organizationFieldNameConstant           = "organization"
	repositoryFieldNameConstant             = "repository"
	titleFieldNameConstant                  = "title"
	headBranchFieldNameConstant             = "head_branch"
	requiredValueMessageConstant            = "value required"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	repositoryListLimitDefaultValueConstant = 100
	repositoryListJSONFieldsConstant        = "name,url,defaultBranchRef"
	repoViewJSONFieldsConstant              = "defaultBranchRef,nameWithOwner,description"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	listRepositoriesOperationNameConstant   = OperationName("ListOrganizationRepositories")
	repositoryMetadataOperationNameConstant = OperationName("ResolveRepoMetadata")
	createPullRequestOperationNameConstant  = OperationName("CreatePullRequest")
	pullRequestURLOutputUnavailableConstant = ""
	repositoryCloneURLTemplateConstant      = "https://github.com/%s/%s.git"
	repositoryNameWithOwnerTemplateConstant = "%s/%s"
	defaultBranchFallbackReferenceConstant  = "main"
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// RepositoryListEntry describes one repository returned by gh repo list.
type RepositoryListEntry struct {
	Name          string
	URL           string
	DefaultBranch string
}

// CloneURL derives the HTTPS clone URL for the repository within its organization.
func (entry RepositoryListEntry) CloneURL(organization string) string {
	return fmt.Sprintf(repositoryCloneURLTemplateConstant, organization, entry.Name)
}

// NameWithOwner derives the owner-qualified repository identifier.
func (entry RepositoryListEntry) NameWithOwner(organization string) string {
	return fmt.Sprintf(repositoryNameWithOwnerTemplateConstant, organization, entry.Name)
}

// RepositoryMetadata contains key details resolved from GitHub.
type RepositoryMetadata struct {
	NameWithOwner string
	Description   string
	DefaultBranch string
}

// PullRequestRequest describes the inputs for opening a pull request.
type PullRequestRequest struct {
	Repository string
	Title      string
	Body       string
	BaseBranch string
	HeadBranch string
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// ListOrganizationRepositories enumerates repositories owned by the organization using gh repo list.
//
// A single page of up to resultLimit entries is requested; the automation
// targets organizations comfortably below the GitHub CLI page ceiling.
func (client *Client) ListOrganizationRepositories(executionContext context.Context, organization string, resultLimit int) ([]RepositoryListEntry, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return nil, InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}

	if resultLimit <= 0 {
		resultLimit = repositoryListLimitDefaultValueConstant
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			listSubcommandConstant,
			trimmedOrganization,
			jsonFlagConstant,
			repositoryListJSONFieldsConstant,
			limitFlagConstant,
			strconv.Itoa(resultLimit),
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listRepositoriesOperationNameConstant, Cause: executionError}
	}

	var response []struct {
		Name             string `json:"name"`
		URL              string `json:"url"`
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listRepositoriesOperationNameConstant, Cause: decodingError}
	}

	repositoryEntries := make([]RepositoryListEntry, 0, len(response))
	for _, repositoryEntry := range response {
		defaultBranch := repositoryEntry.DefaultBranchRef.Name
		if len(strings.TrimSpace(defaultBranch)) == 0 {
			defaultBranch = defaultBranchFallbackReferenceConstant
		}
		repositoryEntries = append(repositoryEntries, RepositoryListEntry{
			Name:          repositoryEntry.Name,
			URL:           repositoryEntry.URL,
			DefaultBranch: defaultBranch,
		})
	}

	return repositoryEntries, nil
}

// ResolveRepoMetadata retrieves canonical metadata for a repository using gh repo view.
func (client *Client) ResolveRepoMetadata(executionContext context.Context, repository string) (RepositoryMetadata, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return RepositoryMetadata{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			viewSubcommandConstant,
			repositoryIdentifier,
			jsonFlagConstant,
			repoViewJSONFieldsConstant,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return RepositoryMetadata{}, OperationError{Operation: repositoryMetadataOperationNameConstant, Cause: executionError}
	}

	var response struct {
		NameWithOwner    string `json:"nameWithOwner"`
		Description      string `json:"description"`
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return RepositoryMetadata{}, ResponseDecodingError{Operation: repositoryMetadataOperationNameConstant, Cause: decodingError}
	}

	return RepositoryMetadata{
		NameWithOwner: response.NameWithOwner,
		Description:   response.Description,
		DefaultBranch: response.DefaultBranchRef.Name,
	}, nil
}

// CreatePullRequest opens a pull request using gh pr create and returns its URL when available.
func (client *Client) CreatePullRequest(executionContext context.Context, request PullRequestRequest) (string, error) {
	trimmedRepository := strings.TrimSpace(request.Repository)
	if len(trimmedRepository) == 0 {
		return pullRequestURLOutputUnavailableConstant, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.Title)) == 0 {
		return pullRequestURLOutputUnavailableConstant, InvalidInputError{FieldName: titleFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.HeadBranch)) == 0 {
		return pullRequestURLOutputUnavailableConstant, InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandArguments := []string{
		pullRequestSubcommandConstant,
		createSubcommandConstant,
		repoFlagConstant,
		trimmedRepository,
		titleFlagConstant,
		request.Title,
		bodyFlagConstant,
		request.Body,
		headFlagConstant,
		request.HeadBranch,
	}
	if len(strings.TrimSpace(request.BaseBranch)) > 0 {
		commandArguments = append(commandArguments, baseFlagConstant, request.BaseBranch)
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: commandArguments})
	if executionError != nil {
		return pullRequestURLOutputUnavailableConstant, OperationError{Operation: createPullRequestOperationNameConstant, Cause: executionError}
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}
