package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	nameFieldKeyConstant                    = "name"
	versionFieldKeyConstant                 = "version"
	descriptionFieldKeyConstant             = "description"
	repositoryFieldKeyConstant              = "repository"
	repositoryTypeFieldKeyConstant          = "type"
	repositoryURLFieldKeyConstant           = "url"
	repositoryTypeGitValueConstant          = "git"
	dependenciesFieldKeyConstant            = "dependencies"
	developmentDependenciesFieldKeyConstant = "devDependencies"
	peerDependenciesFieldKeyConstant        = "peerDependencies"
	agentConfigFieldKeyConstant             = "agentConfig"
	canonicalRepositoryURLTemplateConstant  = "git+https://github.com/%s/%s.git"
	scopeSeparatorConstant                  = "/"
	manifestIndentConstant                  = "  "
	manifestTrailingNewlineConstant         = "\n"
	manifestFilePermissionsConstant         = 0o644
	manifestPathRequiredMessageConstant     = "manifest path required"
	manifestScopeRequiredMessageConstant    = "manifest scope required"
	manifestParseErrorTemplateConstant      = "parsing manifest %s: %s"
	manifestEncodeErrorTemplateConstant     = "encoding manifest %s: %s"
	manifestReadErrorTemplateConstant       = "reading manifest %s: %s"
	manifestWriteErrorTemplateConstant      = "writing manifest %s: %s"
)

var (
	// ErrManifestPathRequired indicates a load or save call without a file path.
	ErrManifestPathRequired = errors.New(manifestPathRequiredMessageConstant)
	// ErrScopeRequired indicates a rename call without both scope names.
	ErrScopeRequired = errors.New(manifestScopeRequiredMessageConstant)
)

// ParseError describes a manifest file whose contents could not be decoded.
type ParseError struct {
	Path  string
	Cause error
}

// Error describes the parse failure.
func (parseError ParseError) Error() string {
	return fmt.Sprintf(manifestParseErrorTemplateConstant, parseError.Path, parseError.Cause)
}

// Unwrap exposes the underlying decoding error.
func (parseError ParseError) Unwrap() error {
	return parseError.Cause
}

// FileAccessError describes a manifest file that could not be read or written.
type FileAccessError struct {
	Path     string
	Cause    error
	Template string
}

// Error describes the file access failure.
func (accessError FileAccessError) Error() string {
	return fmt.Sprintf(accessError.Template, accessError.Path, accessError.Cause)
}

// Unwrap exposes the underlying filesystem error.
func (accessError FileAccessError) Unwrap() error {
	return accessError.Cause
}

// Document is a package manifest held as a generic field map so unknown fields
// survive a load/mutate/save round trip.
type Document struct {
	fields map[string]any
}

// Load reads and decodes the manifest at the provided path.
func Load(manifestPath string) (*Document, error) {
	trimmedPath := strings.TrimSpace(manifestPath)
	if len(trimmedPath) == 0 {
		return nil, ErrManifestPathRequired
	}

	manifestContents, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return nil, FileAccessError{Path: trimmedPath, Cause: readError, Template: manifestReadErrorTemplateConstant}
	}

	return Parse(trimmedPath, manifestContents)
}

// Parse decodes manifest contents without touching the filesystem. The path is
// used only for error reporting.
func Parse(manifestPath string, manifestContents []byte) (*Document, error) {
	documentFields := map[string]any{}
	decodingError := json.Unmarshal(manifestContents, &documentFields)
	if decodingError != nil {
		return nil, ParseError{Path: manifestPath, Cause: decodingError}
	}
	return &Document{fields: documentFields}, nil
}

// Save encodes the manifest and writes it to the provided path.
func (document *Document) Save(manifestPath string) error {
	trimmedPath := strings.TrimSpace(manifestPath)
	if len(trimmedPath) == 0 {
		return ErrManifestPathRequired
	}

	encodedManifest, encodingError := document.Encode()
	if encodingError != nil {
		return FileAccessError{Path: trimmedPath, Cause: encodingError, Template: manifestEncodeErrorTemplateConstant}
	}

	writeError := os.WriteFile(trimmedPath, encodedManifest, manifestFilePermissionsConstant)
	if writeError != nil {
		return FileAccessError{Path: trimmedPath, Cause: writeError, Template: manifestWriteErrorTemplateConstant}
	}
	return nil
}

// Encode renders the manifest as indented JSON with a trailing newline.
func (document *Document) Encode() ([]byte, error) {
	encodedManifest, encodingError := json.MarshalIndent(document.fields, "", manifestIndentConstant)
	if encodingError != nil {
		return nil, encodingError
	}
	return append(encodedManifest, manifestTrailingNewlineConstant...), nil
}

// Name returns the manifest name field, empty when absent.
func (document *Document) Name() string {
	return document.stringField(nameFieldKeyConstant)
}

// SetName replaces the manifest name field.
func (document *Document) SetName(packageName string) {
	document.fields[nameFieldKeyConstant] = packageName
}

// Version returns the manifest version field, empty when absent.
func (document *Document) Version() string {
	return document.stringField(versionFieldKeyConstant)
}

// SetVersion replaces the manifest version field.
func (document *Document) SetVersion(packageVersion string) {
	document.fields[versionFieldKeyConstant] = packageVersion
}

// Description returns the manifest description field, empty when absent.
func (document *Document) Description() string {
	return document.stringField(descriptionFieldKeyConstant)
}

// Dependencies returns the dependency map, nil when absent or malformed.
func (document *Document) Dependencies() map[string]string {
	return document.dependencyField(dependenciesFieldKeyConstant)
}

// RepositoryURL returns the repository URL whether the field holds a bare
// string or a {type, url} object.
func (document *Document) RepositoryURL() string {
	repositoryField, fieldPresent := document.fields[repositoryFieldKeyConstant]
	if !fieldPresent {
		return ""
	}
	switch repositoryValue := repositoryField.(type) {
	case string:
		return repositoryValue
	case map[string]any:
		if urlValue, urlIsString := repositoryValue[repositoryURLFieldKeyConstant].(string); urlIsString {
			return urlValue
		}
	}
	return ""
}

// SetRepositoryURL writes the repository field as a {type: git, url} object,
// preserving any extra keys an existing object form carries.
func (document *Document) SetRepositoryURL(repositoryURL string) {
	if existingObject, objectPresent := document.fields[repositoryFieldKeyConstant].(map[string]any); objectPresent {
		existingObject[repositoryTypeFieldKeyConstant] = repositoryTypeGitValueConstant
		existingObject[repositoryURLFieldKeyConstant] = repositoryURL
		return
	}
	document.fields[repositoryFieldKeyConstant] = map[string]any{
		repositoryTypeFieldKeyConstant: repositoryTypeGitValueConstant,
		repositoryURLFieldKeyConstant:  repositoryURL,
	}
}

// CanonicalRepositoryURL builds the canonical clone URL for a repository.
func CanonicalRepositoryURL(organization string, repositoryName string) string {
	return fmt.Sprintf(canonicalRepositoryURLTemplateConstant, organization, repositoryName)
}

// ApplyCanonicalRepositoryURL rewrites the repository field to the canonical
// form and reports whether anything changed. Re-applying to an already
// canonical manifest is a no-op.
func (document *Document) ApplyCanonicalRepositoryURL(organization string, repositoryName string) bool {
	canonicalURL := CanonicalRepositoryURL(organization, repositoryName)
	if document.RepositoryURL() == canonicalURL {
		return false
	}
	document.SetRepositoryURL(canonicalURL)
	return true
}

// RenameScope replaces the old scope prefix with the new one on the manifest
// name and on dependency keys across the dependency sections. It reports
// whether anything changed; an already renamed manifest is a no-op.
func (document *Document) RenameScope(oldScope string, newScope string) (bool, error) {
	trimmedOldScope := strings.TrimSpace(oldScope)
	trimmedNewScope := strings.TrimSpace(newScope)
	if len(trimmedOldScope) == 0 || len(trimmedNewScope) == 0 {
		return false, ErrScopeRequired
	}

	oldScopePrefix := trimmedOldScope + scopeSeparatorConstant
	newScopePrefix := trimmedNewScope + scopeSeparatorConstant

	manifestChanged := false
	if currentName := document.Name(); strings.HasPrefix(currentName, oldScopePrefix) {
		document.SetName(newScopePrefix + strings.TrimPrefix(currentName, oldScopePrefix))
		manifestChanged = true
	}

	dependencySectionKeys := []string{dependenciesFieldKeyConstant, developmentDependenciesFieldKeyConstant, peerDependenciesFieldKeyConstant}
	for _, sectionKey := range dependencySectionKeys {
		sectionField, sectionPresent := document.fields[sectionKey].(map[string]any)
		if !sectionPresent {
			continue
		}
		for dependencyName, dependencyVersion := range sectionField {
			if !strings.HasPrefix(dependencyName, oldScopePrefix) {
				continue
			}
			renamedDependency := newScopePrefix + strings.TrimPrefix(dependencyName, oldScopePrefix)
			delete(sectionField, dependencyName)
			sectionField[renamedDependency] = dependencyVersion
			manifestChanged = true
		}
	}

	return manifestChanged, nil
}

// SetAgentConfig replaces the manifest agentConfig section.
func (document *Document) SetAgentConfig(agentConfiguration map[string]any) {
	document.fields[agentConfigFieldKeyConstant] = agentConfiguration
}

// AgentConfig returns the agentConfig section, nil when absent.
func (document *Document) AgentConfig() map[string]any {
	agentConfiguration, sectionPresent := document.fields[agentConfigFieldKeyConstant].(map[string]any)
	if !sectionPresent {
		return nil
	}
	return agentConfiguration
}

// Field returns an arbitrary top-level manifest value.
func (document *Document) Field(fieldKey string) (any, bool) {
	fieldValue, fieldPresent := document.fields[fieldKey]
	return fieldValue, fieldPresent
}

func (document *Document) stringField(fieldKey string) string {
	fieldValue, fieldIsString := document.fields[fieldKey].(string)
	if !fieldIsString {
		return ""
	}
	return fieldValue
}

func (document *Document) dependencyField(fieldKey string) map[string]string {
	sectionField, sectionPresent := document.fields[fieldKey].(map[string]any)
	if !sectionPresent {
		return nil
	}
	dependencyVersions := make(map[string]string, len(sectionField))
	for dependencyName, dependencyValue := range sectionField {
		if dependencyVersion, versionIsString := dependencyValue.(string); versionIsString {
			dependencyVersions[dependencyName] = dependencyVersion
		}
	}
	return dependencyVersions
}
