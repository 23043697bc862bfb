package plugininfo

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/karthikbj/pluginops/internal/envscan"
	"github.com/karthikbj/pluginops/internal/manifest"
)

const (
	manifestFileNameConstant        = "package.json"
	indexFileRelativePathConstant   = "src/index.ts"
	indexFileFallbackPathConstant   = "index.ts"
	testDirectoryNameConstant       = "__tests__"
	nodeModulesDirectoryConstant    = "node_modules"
	testFileSuffixConstant          = ".test.ts"
	specFileSuffixConstant          = ".spec.ts"
	pluginRootRequiredMessage       = "plugin root required"
	manifestScriptsFieldKeyConstant = "scripts"
	manifestTestScriptKeyConstant   = "test"
)

// ErrPluginRootRequired indicates a collect call without a plugin directory.
var ErrPluginRootRequired = errors.New(pluginRootRequiredMessage)

// PluginInfo aggregates everything the README and agent-config generators
// need to know about one plugin checkout.
type PluginInfo struct {
	PackageName          string
	Version              string
	Description          string
	RepositoryURL        string
	Actions              []ComponentInfo
	Services             []ComponentInfo
	Providers            []ComponentInfo
	EnvironmentVariables []string
	HasTests             bool
}

// EnvironmentScanner yields the variable names a source tree references. The
// envscan scanner satisfies it.
type EnvironmentScanner interface {
	ScanTree(rootDirectory string) ([]string, error)
}

// Collector assembles PluginInfo from a plugin checkout.
type Collector struct {
	extractor          *Extractor
	environmentScanner EnvironmentScanner
}

// NewCollector constructs a collector. A nil scanner falls back to the
// default envscan scanner.
func NewCollector(environmentScanner EnvironmentScanner) *Collector {
	if environmentScanner == nil {
		environmentScanner = envscan.NewScanner()
	}
	return &Collector{extractor: NewExtractor(), environmentScanner: environmentScanner}
}

// Collect reads the plugin manifest and entry file, extracts component
// structure, scans for environment variables, and checks for tests. Manifest
// load failures abort; every extraction step past that is best-effort and
// yields empty results rather than errors.
func (collector *Collector) Collect(pluginRoot string) (PluginInfo, error) {
	trimmedRoot := strings.TrimSpace(pluginRoot)
	if len(trimmedRoot) == 0 {
		return PluginInfo{}, ErrPluginRootRequired
	}

	manifestDocument, manifestError := manifest.Load(filepath.Join(trimmedRoot, manifestFileNameConstant))
	if manifestError != nil {
		return PluginInfo{}, manifestError
	}

	pluginInformation := PluginInfo{
		PackageName:   manifestDocument.Name(),
		Version:       manifestDocument.Version(),
		Description:   manifestDocument.Description(),
		RepositoryURL: manifestDocument.RepositoryURL(),
	}

	indexSourceText := collector.readIndexFile(trimmedRoot)
	if len(indexSourceText) > 0 {
		extractedComponents := collector.extractor.ExtractComponents(indexSourceText)
		pluginInformation.Actions = collector.resolveComponents(trimmedRoot, actionsCategoryNameConstant, extractedComponents.Actions, false)
		pluginInformation.Services = collector.resolveComponents(trimmedRoot, servicesCategoryNameConstant, extractedComponents.Services, true)
		pluginInformation.Providers = collector.resolveComponents(trimmedRoot, providersCategoryNameConstant, extractedComponents.Providers, false)
	}

	if scannedVariables, scanError := collector.environmentScanner.ScanTree(trimmedRoot); scanError == nil {
		pluginInformation.EnvironmentVariables = scannedVariables
	}
	pluginInformation.HasTests = collector.detectTests(trimmedRoot, manifestDocument)

	return pluginInformation, nil
}

func (collector *Collector) readIndexFile(pluginRoot string) string {
	for _, indexRelativePath := range []string{indexFileRelativePathConstant, indexFileFallbackPathConstant} {
		if indexContents, readError := os.ReadFile(filepath.Join(pluginRoot, indexRelativePath)); readError == nil {
			return string(indexContents)
		}
	}
	return ""
}

func (collector *Collector) resolveComponents(pluginRoot string, categoryName string, componentNames []string, recoverMethods bool) []ComponentInfo {
	components := make([]ComponentInfo, 0, len(componentNames))
	for _, componentName := range componentNames {
		componentInformation := ComponentInfo{Name: componentName}
		if definingFile := collector.extractor.LocateDefiningFile(pluginRoot, categoryName, componentName); len(definingFile) > 0 {
			componentInformation.DefiningFile = definingFile
			if definingContents, readError := os.ReadFile(definingFile); readError == nil {
				componentInformation.SourceText = string(definingContents)
				if recoverMethods {
					componentInformation.Methods = collector.extractor.ExtractServiceMethods(componentInformation.SourceText)
				}
			}
		}
		components = append(components, componentInformation)
	}
	return components
}

// detectTests reports whether the checkout carries a __tests__ directory, any
// .test.ts/.spec.ts file, or a manifest test script.
func (collector *Collector) detectTests(pluginRoot string, manifestDocument *manifest.Document) bool {
	if scriptsField, scriptsPresent := manifestDocument.Field(manifestScriptsFieldKeyConstant); scriptsPresent {
		if scriptEntries, scriptsAreObject := scriptsField.(map[string]any); scriptsAreObject {
			if _, testScriptPresent := scriptEntries[manifestTestScriptKeyConstant]; testScriptPresent {
				return true
			}
		}
	}

	testsFound := false
	_ = filepath.WalkDir(pluginRoot, func(entryPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return nil
		}
		if directoryEntry.IsDir() {
			if directoryEntry.Name() == nodeModulesDirectoryConstant {
				return fs.SkipDir
			}
			if directoryEntry.Name() == testDirectoryNameConstant {
				testsFound = true
				return fs.SkipAll
			}
			return nil
		}
		if strings.HasSuffix(directoryEntry.Name(), testFileSuffixConstant) || strings.HasSuffix(directoryEntry.Name(), specFileSuffixConstant) {
			testsFound = true
			return fs.SkipAll
		}
		return nil
	})
	return testsFound
}
