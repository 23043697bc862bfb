package envscan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	rootRequiredMessageConstant      = "scan root required"
	treeScanErrorTemplateConstant    = "scanning %s: %s"
	nodeModulesDirectoryNameConstant = "node_modules"
	gitMetadataDirectoryNameConstant = ".git"
	distDirectoryNameConstant        = "dist"
	buildDirectoryNameConstant       = "build"
	processEnvPatternConstant        = `process\.env\.([A-Z][A-Z0-9_]*)`
	settingsAccessPatternConstant    = `settings\.([A-Z][A-Z0-9_]*)`
	getSettingCallPatternConstant    = `getSetting\(\s*["']([A-Z][A-Z0-9_]*)["']`
	runtimeGetSettingPatternConstant = `runtime\.getSetting\(\s*["']([A-Z][A-Z0-9_]*)["']`
)

// ErrRootRequired indicates a scan invoked without a root directory.
var ErrRootRequired = errors.New(rootRequiredMessageConstant)

var sourceFileExtensions = map[string]struct{}{
	".ts":  {},
	".tsx": {},
	".js":  {},
	".jsx": {},
	".mjs": {},
	".cjs": {},
}

var excludedDirectoryNames = map[string]struct{}{
	nodeModulesDirectoryNameConstant: {},
	gitMetadataDirectoryNameConstant: {},
	distDirectoryNameConstant:        {},
	buildDirectoryNameConstant:       {},
}

var callSitePatterns = []*regexp.Regexp{
	regexp.MustCompile(processEnvPatternConstant),
	regexp.MustCompile(settingsAccessPatternConstant),
	regexp.MustCompile(getSettingCallPatternConstant),
	regexp.MustCompile(runtimeGetSettingPatternConstant),
}

// Scanner collects environment variable names referenced by plugin sources.
type Scanner struct{}

// NewScanner constructs an environment variable scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// ScanTree walks the source tree, skipping dependency and build output
// directories, and returns every referenced variable name deduplicated and
// sorted lexicographically. Dynamically constructed names are not resolved.
func (scanner *Scanner) ScanTree(rootDirectory string) ([]string, error) {
	trimmedRoot := strings.TrimSpace(rootDirectory)
	if len(trimmedRoot) == 0 {
		return nil, ErrRootRequired
	}

	collectedNames := map[string]struct{}{}
	walkError := filepath.WalkDir(trimmedRoot, func(entryPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if directoryEntry.IsDir() {
			if _, excluded := excludedDirectoryNames[directoryEntry.Name()]; excluded {
				return fs.SkipDir
			}
			return nil
		}
		if _, isSourceFile := sourceFileExtensions[filepath.Ext(directoryEntry.Name())]; !isSourceFile {
			return nil
		}

		fileContents, readError := os.ReadFile(entryPath)
		if readError != nil {
			return readError
		}
		for variableName := range ScanSource(string(fileContents)) {
			collectedNames[variableName] = struct{}{}
		}
		return nil
	})
	if walkError != nil {
		return nil, fmt.Errorf(treeScanErrorTemplateConstant, trimmedRoot, walkError)
	}

	return sortedNames(collectedNames), nil
}

// ScanSource extracts variable names from one file's text. The result is a
// set; callers merge and sort.
func ScanSource(sourceText string) map[string]struct{} {
	variableNames := map[string]struct{}{}
	for _, callSitePattern := range callSitePatterns {
		for _, patternMatch := range callSitePattern.FindAllStringSubmatch(sourceText, -1) {
			variableNames[patternMatch[1]] = struct{}{}
		}
	}
	return variableNames
}

func sortedNames(nameSet map[string]struct{}) []string {
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
