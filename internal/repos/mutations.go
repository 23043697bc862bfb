package repos

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/karthikbj/pluginops/internal/manifest"
)

const (
	manifestFileNameConstant                 = "package.json"
	scopeRenameSummaryTemplateConstant       = "renamed scope %s to %s"
	repositoryURLSummaryTemplateConstant     = "set repository url to %s"
	mutationOldScopeRequiredMessageConstant  = "old scope is required"
	mutationNewScopeRequiredMessageConstant  = "new scope is required"
	mutationOrganizationRequiredMessageConst = "organization is required"
	mutationRepositoryRequiredMessageConst   = "repository name is required"
)

// Mutation builder validation errors.
var (
	ErrOldScopeRequired             = errors.New(mutationOldScopeRequiredMessageConstant)
	ErrNewScopeRequired             = errors.New(mutationNewScopeRequiredMessageConstant)
	ErrMutationOrganizationRequired = errors.New(mutationOrganizationRequiredMessageConst)
	ErrMutationRepositoryRequired   = errors.New(mutationRepositoryRequiredMessageConst)
)

// NewScopeRenameMutator builds a mutator that renames the package scope in the
// checkout's manifest, covering the package name and every dependency section.
// The mutator reports no change when the manifest already uses the new scope.
func NewScopeRenameMutator(oldScope string, newScope string) (Mutator, error) {
	if len(oldScope) == 0 {
		return nil, ErrOldScopeRequired
	}
	if len(newScope) == 0 {
		return nil, ErrNewScopeRequired
	}

	mutator := func(_ context.Context, checkoutPath string) (MutationResult, error) {
		manifestPath := filepath.Join(checkoutPath, manifestFileNameConstant)
		document, loadError := manifest.Load(manifestPath)
		if loadError != nil {
			return MutationResult{}, loadError
		}

		changed, renameError := document.RenameScope(oldScope, newScope)
		if renameError != nil {
			return MutationResult{}, renameError
		}
		if !changed {
			return MutationResult{Changed: false}, nil
		}

		saveError := document.Save(manifestPath)
		if saveError != nil {
			return MutationResult{}, saveError
		}

		result := MutationResult{
			Changed: true,
			Summary: fmt.Sprintf(scopeRenameSummaryTemplateConstant, oldScope, newScope),
		}

		return result, nil
	}

	return mutator, nil
}

// NewRepositoryURLMutator builds a mutator that rewrites the manifest's
// repository field to the canonical git+https URL for the repository. The
// mutator reports no change when the URL is already canonical.
func NewRepositoryURLMutator(organization string, repositoryName string) (Mutator, error) {
	if len(organization) == 0 {
		return nil, ErrMutationOrganizationRequired
	}
	if len(repositoryName) == 0 {
		return nil, ErrMutationRepositoryRequired
	}

	mutator := func(_ context.Context, checkoutPath string) (MutationResult, error) {
		manifestPath := filepath.Join(checkoutPath, manifestFileNameConstant)
		document, loadError := manifest.Load(manifestPath)
		if loadError != nil {
			return MutationResult{}, loadError
		}

		changed := document.ApplyCanonicalRepositoryURL(organization, repositoryName)
		if !changed {
			return MutationResult{Changed: false}, nil
		}

		saveError := document.Save(manifestPath)
		if saveError != nil {
			return MutationResult{}, saveError
		}

		result := MutationResult{
			Changed: true,
			Summary: fmt.Sprintf(repositoryURLSummaryTemplateConstant, manifest.CanonicalRepositoryURL(organization, repositoryName)),
		}

		return result, nil
	}

	return mutator, nil
}
