package workspace

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	cloneDirectoryPatternTemplateConstant = "pluginops-%s-*"
	repositoryNameRequiredMessageConstant = "repository name required"
	directoryCreationErrorTemplateConst   = "creating clone directory for %s: %s"
)

// ErrRepositoryNameRequired indicates a clone-directory request without a repository name.
var ErrRepositoryNameRequired = errors.New(repositoryNameRequiredMessageConstant)

// Manager allocates and removes the temporary directories repositories are
// cloned into. Directories are scoped to one repository's processing and are
// removed on both the success and failure paths.
type Manager struct {
	baseDirectory string
}

// NewManager constructs a workspace manager. An empty base directory falls
// back to the operating system temporary directory.
func NewManager(baseDirectory string) *Manager {
	return &Manager{baseDirectory: strings.TrimSpace(baseDirectory)}
}

// CreateCloneDirectory allocates a fresh directory for one repository clone
// and returns its path together with a cleanup function. The cleanup function
// is safe to defer unconditionally.
func (manager *Manager) CreateCloneDirectory(repositoryName string) (string, func(), error) {
	trimmedName := strings.TrimSpace(repositoryName)
	if len(trimmedName) == 0 {
		return "", nil, ErrRepositoryNameRequired
	}

	cloneDirectory, creationError := os.MkdirTemp(manager.baseDirectory, fmt.Sprintf(cloneDirectoryPatternTemplateConstant, trimmedName))
	if creationError != nil {
		return "", nil, fmt.Errorf(directoryCreationErrorTemplateConst, trimmedName, creationError)
	}

	cleanupFunction := func() {
		_ = os.RemoveAll(cloneDirectory)
	}
	return cloneDirectory, cleanupFunction, nil
}
