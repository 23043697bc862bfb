package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karthikbj/pluginops/internal/githubcli"
)

const (
	organizationRequiredMessageConstant   = "organization required"
	repositoryNameRequiredMessageConstant = "repository name required"
	rootDirectoryRequiredMessageConstant  = "root directory required"
	gatewayNotConfiguredMessageConstant   = "repository gateway not configured"
	directoryScanErrorTemplateConstant    = "scanning %s: %s"
	remoteListingErrorTemplateConstant    = "listing repositories for %s: %s"
	remoteLookupErrorTemplateConstant     = "resolving %s: %s"
	nameWithOwnerTemplateConstant         = "%s/%s"
	cloneURLTemplateConstant              = "https://github.com/%s.git"
	defaultBranchFallbackConstant         = "main"
	defaultRepositoryPrefixConstant       = "plugin-"
	defaultRemoteListingLimitConstant     = 100
)

var (
	// ErrOrganizationRequired indicates a remote discovery call without an organization.
	ErrOrganizationRequired = errors.New(organizationRequiredMessageConstant)
	// ErrRepositoryNameRequired indicates a single-repository lookup without a name.
	ErrRepositoryNameRequired = errors.New(repositoryNameRequiredMessageConstant)
	// ErrRootDirectoryRequired indicates a local discovery call without a root directory.
	ErrRootDirectoryRequired = errors.New(rootDirectoryRequiredMessageConstant)
	// ErrGatewayNotConfigured indicates a discoverer constructed without a repository gateway.
	ErrGatewayNotConfigured = errors.New(gatewayNotConfiguredMessageConstant)
)

// RepositoryRef identifies one repository selected for processing.
type RepositoryRef struct {
	Name          string
	NameWithOwner string
	CloneURL      string
	LocalPath     string
	DefaultBranch string
}

// RepositoryGateway exposes the GitHub CLI operations discovery relies on.
// The githubcli client satisfies it.
type RepositoryGateway interface {
	ListOrganizationRepositories(executionContext context.Context, organization string, resultLimit int) ([]githubcli.RepositoryListEntry, error)
	ResolveRepoMetadata(executionContext context.Context, repository string) (githubcli.RepositoryMetadata, error)
}

// OrganizationDiscoverer finds plugin repositories through the GitHub CLI.
type OrganizationDiscoverer struct {
	gateway RepositoryGateway
}

// NewOrganizationDiscoverer constructs a discoverer backed by the provided gateway.
func NewOrganizationDiscoverer(gateway RepositoryGateway) (*OrganizationDiscoverer, error) {
	if gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	return &OrganizationDiscoverer{gateway: gateway}, nil
}

// DiscoverRepositories lists the organization's repositories and keeps those
// whose name starts with the prefix. An empty prefix keeps every repository.
// A single listing page is requested; the targeted organizations stay below
// the page ceiling.
func (discoverer *OrganizationDiscoverer) DiscoverRepositories(executionContext context.Context, organization string, namePrefix string) ([]RepositoryRef, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return nil, ErrOrganizationRequired
	}

	listedRepositories, listingError := discoverer.gateway.ListOrganizationRepositories(executionContext, trimmedOrganization, defaultRemoteListingLimitConstant)
	if listingError != nil {
		return nil, fmt.Errorf(remoteListingErrorTemplateConstant, trimmedOrganization, listingError)
	}

	repositoryReferences := make([]RepositoryRef, 0, len(listedRepositories))
	for _, listedRepository := range listedRepositories {
		if len(namePrefix) > 0 && !strings.HasPrefix(listedRepository.Name, namePrefix) {
			continue
		}
		repositoryReferences = append(repositoryReferences, RepositoryRef{
			Name:          listedRepository.Name,
			NameWithOwner: listedRepository.NameWithOwner(trimmedOrganization),
			CloneURL:      listedRepository.CloneURL(trimmedOrganization),
			DefaultBranch: listedRepository.DefaultBranch,
		})
	}

	sort.Slice(repositoryReferences, func(firstIndex, secondIndex int) bool {
		return repositoryReferences[firstIndex].Name < repositoryReferences[secondIndex].Name
	})
	return repositoryReferences, nil
}

// DescribeRepository resolves one repository through gh repo view, sparing a
// full organization listing when the batch is narrowed to a single repository.
func (discoverer *OrganizationDiscoverer) DescribeRepository(executionContext context.Context, organization string, repositoryName string) (RepositoryRef, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return RepositoryRef{}, ErrOrganizationRequired
	}
	trimmedName := strings.TrimSpace(repositoryName)
	if len(trimmedName) == 0 {
		return RepositoryRef{}, ErrRepositoryNameRequired
	}

	nameWithOwner := fmt.Sprintf(nameWithOwnerTemplateConstant, trimmedOrganization, trimmedName)
	repositoryMetadata, lookupError := discoverer.gateway.ResolveRepoMetadata(executionContext, nameWithOwner)
	if lookupError != nil {
		return RepositoryRef{}, fmt.Errorf(remoteLookupErrorTemplateConstant, nameWithOwner, lookupError)
	}

	if resolvedNameWithOwner := strings.TrimSpace(repositoryMetadata.NameWithOwner); len(resolvedNameWithOwner) > 0 {
		nameWithOwner = resolvedNameWithOwner
	}
	defaultBranch := strings.TrimSpace(repositoryMetadata.DefaultBranch)
	if len(defaultBranch) == 0 {
		defaultBranch = defaultBranchFallbackConstant
	}

	return RepositoryRef{
		Name:          trimmedName,
		NameWithOwner: nameWithOwner,
		CloneURL:      fmt.Sprintf(cloneURLTemplateConstant, nameWithOwner),
		DefaultBranch: defaultBranch,
	}, nil
}

// FilesystemDiscoverer finds plugin checkouts under a local root directory.
type FilesystemDiscoverer struct{}

// NewFilesystemDiscoverer constructs a discoverer backed by os.ReadDir.
func NewFilesystemDiscoverer() *FilesystemDiscoverer {
	return &FilesystemDiscoverer{}
}

// DiscoverRepositories returns child directories of the root whose name starts
// with the prefix, sorted by name. An empty prefix keeps every directory.
func (discoverer *FilesystemDiscoverer) DiscoverRepositories(rootDirectory string, namePrefix string) ([]RepositoryRef, error) {
	trimmedRoot := strings.TrimSpace(rootDirectory)
	if len(trimmedRoot) == 0 {
		return nil, ErrRootDirectoryRequired
	}

	directoryEntries, readError := os.ReadDir(trimmedRoot)
	if readError != nil {
		return nil, fmt.Errorf(directoryScanErrorTemplateConstant, trimmedRoot, readError)
	}

	var repositoryReferences []RepositoryRef
	for _, directoryEntry := range directoryEntries {
		if !directoryEntry.IsDir() {
			continue
		}
		if len(namePrefix) > 0 && !strings.HasPrefix(directoryEntry.Name(), namePrefix) {
			continue
		}
		repositoryReferences = append(repositoryReferences, RepositoryRef{
			Name:      directoryEntry.Name(),
			LocalPath: filepath.Join(trimmedRoot, directoryEntry.Name()),
		})
	}

	sort.Slice(repositoryReferences, func(firstIndex, secondIndex int) bool {
		return repositoryReferences[firstIndex].Name < repositoryReferences[secondIndex].Name
	})
	return repositoryReferences, nil
}

// DefaultRepositoryPrefix is the conventional plugin repository name prefix.
func DefaultRepositoryPrefix() string {
	return defaultRepositoryPrefixConstant
}
