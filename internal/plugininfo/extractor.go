package plugininfo

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	actionsCategoryNameConstant   = "actions"
	servicesCategoryNameConstant  = "services"
	providersCategoryNameConstant = "providers"
	sourceDirectoryNameConstant   = "src"
	constructorMethodNameConstant = "constructor"
	privateMethodPrefixConstant   = "_"
	namedImportPatternConstant    = `import\s*(?:type\s*)?{([^}]*)}\s*from\s*["']([^"']+)["']`
	importAliasPatternConstant    = `^([A-Za-z_$][\w$]*)(?:\s+as\s+([A-Za-z_$][\w$]*))?$`
	arrayAssignmentPatternFormat  = `%s\s*[:=]\s*\[([^\]]*)\]`
	bareWordPatternConstant       = `[A-Za-z_$][\w$]*`
	methodSignaturePatternConst   = `(?m)^\s*(?:public\s+|private\s+|protected\s+|static\s+|async\s+)*([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*[:{]`
	typescriptExtensionConstant   = ".ts"
	javascriptExtensionConstant   = ".js"
)

var namedImportPattern = regexp.MustCompile(namedImportPatternConstant)
var importAliasPattern = regexp.MustCompile(importAliasPatternConstant)
var bareWordPattern = regexp.MustCompile(bareWordPatternConstant)
var methodSignaturePattern = regexp.MustCompile(methodSignaturePatternConst)

var categoryArrayPatterns = map[string]*regexp.Regexp{
	actionsCategoryNameConstant:   compileCategoryPattern(actionsCategoryNameConstant),
	servicesCategoryNameConstant:  compileCategoryPattern(servicesCategoryNameConstant),
	providersCategoryNameConstant: compileCategoryPattern(providersCategoryNameConstant),
}

// languageKeywords are bare words that can appear inside array literals
// without naming a component.
var languageKeywords = map[string]struct{}{
	"true":      {},
	"false":     {},
	"null":      {},
	"undefined": {},
	"new":       {},
	"await":     {},
	"typeof":    {},
	"as":        {},
	"const":     {},
	"let":       {},
	"var":       {},
	"function":  {},
	"return":    {},
	"this":      {},
}

// methodNameExclusions are signature-shaped matches that are control flow, not
// methods.
var methodNameExclusions = map[string]struct{}{
	constructorMethodNameConstant: {},
	"if":                          {},
	"for":                         {},
	"while":                       {},
	"switch":                      {},
	"catch":                       {},
	"return":                      {},
	"super":                       {},
}

func compileCategoryPattern(categoryName string) *regexp.Regexp {
	return regexp.MustCompile(strings.Replace(arrayAssignmentPatternFormat, "%s", categoryName, 1))
}

// ComponentInfo is one extracted action, service, or provider. Every field
// beyond the name is best-effort and may be empty.
type ComponentInfo struct {
	Name         string
	DefiningFile string
	SourceText   string
	Methods      []string
}

// ExtractedComponents groups component names recovered from an entry file.
type ExtractedComponents struct {
	Actions   []string
	Services  []string
	Providers []string
}

// Extractor recovers plugin structure from source text with regular
// expression passes. Output is documentation raw material; false positives
// and negatives are expected and tolerated.
type Extractor struct{}

// NewExtractor constructs a component extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// BuildImportAliasTable maps local import names to their original exported
// names, so `{ transferAction as sendToken }` resolves sendToken back to
// transferAction. Unaliased imports map to themselves.
func (extractor *Extractor) BuildImportAliasTable(indexSourceText string) map[string]string {
	aliasTable := map[string]string{}
	for _, importMatch := range namedImportPattern.FindAllStringSubmatch(indexSourceText, -1) {
		for _, importEntry := range strings.Split(importMatch[1], ",") {
			trimmedEntry := strings.TrimSpace(importEntry)
			if len(trimmedEntry) == 0 {
				continue
			}
			entryMatch := importAliasPattern.FindStringSubmatch(trimmedEntry)
			if entryMatch == nil {
				continue
			}
			originalName := entryMatch[1]
			localName := entryMatch[2]
			if len(localName) == 0 {
				localName = originalName
			}
			aliasTable[localName] = originalName
		}
	}
	return aliasTable
}

// ExtractComponents finds the actions/services/providers array literals in an
// entry file, collects the bare-word references inside them, filters language
// keywords, and resolves import aliases to original names. A category whose
// pattern never matches yields an empty list.
func (extractor *Extractor) ExtractComponents(indexSourceText string) ExtractedComponents {
	aliasTable := extractor.BuildImportAliasTable(indexSourceText)
	return ExtractedComponents{
		Actions:   extractor.extractCategory(indexSourceText, actionsCategoryNameConstant, aliasTable),
		Services:  extractor.extractCategory(indexSourceText, servicesCategoryNameConstant, aliasTable),
		Providers: extractor.extractCategory(indexSourceText, providersCategoryNameConstant, aliasTable),
	}
}

func (extractor *Extractor) extractCategory(indexSourceText string, categoryName string, aliasTable map[string]string) []string {
	categoryPattern := categoryArrayPatterns[categoryName]
	arrayMatch := categoryPattern.FindStringSubmatch(indexSourceText)
	if arrayMatch == nil {
		return nil
	}

	var componentNames []string
	seenNames := map[string]struct{}{}
	for _, bareWord := range bareWordPattern.FindAllString(arrayMatch[1], -1) {
		if _, isKeyword := languageKeywords[bareWord]; isKeyword {
			continue
		}
		resolvedName := bareWord
		if originalName, aliased := aliasTable[bareWord]; aliased {
			resolvedName = originalName
		}
		if _, alreadySeen := seenNames[resolvedName]; alreadySeen {
			continue
		}
		seenNames[resolvedName] = struct{}{}
		componentNames = append(componentNames, resolvedName)
	}
	return componentNames
}

// LocateDefiningFile searches the conventional component subdirectories and
// the index file's own directory for a source file defining the named
// component. It returns an empty string when no candidate exists.
func (extractor *Extractor) LocateDefiningFile(pluginRoot string, categoryName string, componentName string) string {
	candidateDirectories := []string{
		filepath.Join(pluginRoot, sourceDirectoryNameConstant, categoryName),
		filepath.Join(pluginRoot, sourceDirectoryNameConstant),
	}
	candidateBaseNames := candidateFileBaseNames(categoryName, componentName)

	for _, candidateDirectory := range candidateDirectories {
		for _, candidateBaseName := range candidateBaseNames {
			for _, sourceExtension := range []string{typescriptExtensionConstant, javascriptExtensionConstant} {
				candidatePath := filepath.Join(candidateDirectory, candidateBaseName+sourceExtension)
				if fileInfo, statError := os.Stat(candidatePath); statError == nil && !fileInfo.IsDir() {
					return candidatePath
				}
			}
		}
	}
	return ""
}

// candidateFileBaseNames derives plausible file names from a component name:
// the name itself, the name lowercased, and the name with its category suffix
// stripped (transferAction -> transfer).
func candidateFileBaseNames(categoryName string, componentName string) []string {
	categorySuffix := strings.TrimSuffix(categoryName, "s")
	baseNames := []string{componentName, strings.ToLower(componentName)}

	suffixTitle := strings.ToUpper(categorySuffix[:1]) + categorySuffix[1:]
	if strings.HasSuffix(componentName, suffixTitle) {
		strippedName := strings.TrimSuffix(componentName, suffixTitle)
		if len(strippedName) > 0 {
			baseNames = append(baseNames, strippedName, strings.ToLower(strippedName))
		}
	}
	return baseNames
}

// ExtractServiceMethods scans a service source file for method-shaped
// signatures, excluding the constructor and the private-by-convention
// underscore-prefixed names.
func (extractor *Extractor) ExtractServiceMethods(serviceSourceText string) []string {
	var methodNames []string
	seenNames := map[string]struct{}{}
	for _, signatureMatch := range methodSignaturePattern.FindAllStringSubmatch(serviceSourceText, -1) {
		methodName := signatureMatch[1]
		if _, excluded := methodNameExclusions[methodName]; excluded {
			continue
		}
		if strings.HasPrefix(methodName, privateMethodPrefixConstant) {
			continue
		}
		if _, alreadySeen := seenNames[methodName]; alreadySeen {
			continue
		}
		seenNames[methodName] = struct{}{}
		methodNames = append(methodNames, methodName)
	}
	return methodNames
}
