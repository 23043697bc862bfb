package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karthikbj/pluginops/internal/manifest"
)

const (
	testManifestFileNameConstant   = "package.json"
	testOldScopeConstant           = "@old"
	testNewScopeConstant           = "@elizaos"
	testOrganizationNameConstant   = "elizaos-plugins"
	testRepositoryNameConstant     = "plugin-example"
	testCanonicalURLConstant       = "git+https://github.com/elizaos-plugins/plugin-example.git"
	testRenameAppliesCaseName      = "rename_applies"
	testRenameIdempotentCaseName   = "rename_idempotent"
	testRenameDependenciesCaseName = "rename_dependency_keys"
	testRenameMissingScopeCaseName = "rename_missing_scope"
	testManifestPayloadConstant    = `{
  "name": "@old/plugin-example",
  "version": "1.2.3",
  "description": "Example plugin",
  "repository": {"type": "git", "url": "https://github.com/someone/plugin-example"},
  "dependencies": {"@old/core": "^1.0.0", "lodash": "^4.17.21"},
  "devDependencies": {"@old/test-utils": "^1.0.0"},
  "keywords": ["example"]
}`
)

func writeTestManifest(testInstance *testing.T, manifestContents string) string {
	testInstance.Helper()
	manifestPath := filepath.Join(testInstance.TempDir(), testManifestFileNameConstant)
	require.NoError(testInstance, os.WriteFile(manifestPath, []byte(manifestContents), 0o644))
	return manifestPath
}

func TestLoadValidation(testInstance *testing.T) {
	testInstance.Run("empty_path", func(testInstance *testing.T) {
		document, loadError := manifest.Load("  ")
		require.Nil(testInstance, document)
		require.ErrorIs(testInstance, loadError, manifest.ErrManifestPathRequired)
	})

	testInstance.Run("missing_file", func(testInstance *testing.T) {
		document, loadError := manifest.Load(filepath.Join(testInstance.TempDir(), testManifestFileNameConstant))
		require.Nil(testInstance, document)
		require.IsType(testInstance, manifest.FileAccessError{}, loadError)
	})

	testInstance.Run("malformed_json", func(testInstance *testing.T) {
		manifestPath := writeTestManifest(testInstance, "not-json")
		document, loadError := manifest.Load(manifestPath)
		require.Nil(testInstance, document)
		require.IsType(testInstance, manifest.ParseError{}, loadError)
	})
}

func TestDocumentFieldAccess(testInstance *testing.T) {
	manifestPath := writeTestManifest(testInstance, testManifestPayloadConstant)
	document, loadError := manifest.Load(manifestPath)
	require.NoError(testInstance, loadError)

	require.Equal(testInstance, "@old/plugin-example", document.Name())
	require.Equal(testInstance, "1.2.3", document.Version())
	require.Equal(testInstance, "Example plugin", document.Description())
	require.Equal(testInstance, "https://github.com/someone/plugin-example", document.RepositoryURL())
	require.Equal(testInstance, "^4.17.21", document.Dependencies()["lodash"])
}

func TestRenameScope(testInstance *testing.T) {
	testCases := []struct {
		name          string
		oldScope      string
		newScope      string
		prepare       func(testInstance *testing.T, document *manifest.Document)
		expectError   bool
		expectChanged bool
		verify        func(testInstance *testing.T, document *manifest.Document)
	}{
		{
			name:          testRenameAppliesCaseName,
			oldScope:      testOldScopeConstant,
			newScope:      testNewScopeConstant,
			expectChanged: true,
			verify: func(testInstance *testing.T, document *manifest.Document) {
				require.Equal(testInstance, "@elizaos/plugin-example", document.Name())
			},
		},
		{
			name:     testRenameIdempotentCaseName,
			oldScope: testOldScopeConstant,
			newScope: testNewScopeConstant,
			prepare: func(testInstance *testing.T, document *manifest.Document) {
				changed, renameError := document.RenameScope(testOldScopeConstant, testNewScopeConstant)
				require.NoError(testInstance, renameError)
				require.True(testInstance, changed)
			},
			expectChanged: false,
			verify: func(testInstance *testing.T, document *manifest.Document) {
				require.Equal(testInstance, "@elizaos/plugin-example", document.Name())
			},
		},
		{
			name:          testRenameDependenciesCaseName,
			oldScope:      testOldScopeConstant,
			newScope:      testNewScopeConstant,
			expectChanged: true,
			verify: func(testInstance *testing.T, document *manifest.Document) {
				dependencyVersions := document.Dependencies()
				require.Contains(testInstance, dependencyVersions, "@elizaos/core")
				require.NotContains(testInstance, dependencyVersions, "@old/core")
				require.Equal(testInstance, "^4.17.21", dependencyVersions["lodash"])
			},
		},
		{
			name:        testRenameMissingScopeCaseName,
			oldScope:    " ",
			newScope:    testNewScopeConstant,
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			document, parseError := manifest.Parse(testManifestFileNameConstant, []byte(testManifestPayloadConstant))
			require.NoError(testInstance, parseError)
			if testCase.prepare != nil {
				testCase.prepare(testInstance, document)
			}

			changed, renameError := document.RenameScope(testCase.oldScope, testCase.newScope)
			if testCase.expectError {
				require.ErrorIs(testInstance, renameError, manifest.ErrScopeRequired)
				return
			}
			require.NoError(testInstance, renameError)
			require.Equal(testInstance, testCase.expectChanged, changed)
			require.NotNil(testInstance, testCase.verify)
			testCase.verify(testInstance, document)
		})
	}
}

func TestApplyCanonicalRepositoryURL(testInstance *testing.T) {
	document, parseError := manifest.Parse(testManifestFileNameConstant, []byte(testManifestPayloadConstant))
	require.NoError(testInstance, parseError)

	changed := document.ApplyCanonicalRepositoryURL(testOrganizationNameConstant, testRepositoryNameConstant)
	require.True(testInstance, changed)
	require.Equal(testInstance, testCanonicalURLConstant, document.RepositoryURL())

	changedAgain := document.ApplyCanonicalRepositoryURL(testOrganizationNameConstant, testRepositoryNameConstant)
	require.False(testInstance, changedAgain)
	require.Equal(testInstance, testCanonicalURLConstant, document.RepositoryURL())
}

func TestSaveRoundTripPreservesUnknownFields(testInstance *testing.T) {
	manifestPath := writeTestManifest(testInstance, testManifestPayloadConstant)
	document, loadError := manifest.Load(manifestPath)
	require.NoError(testInstance, loadError)

	document.SetVersion("1.2.4")
	require.NoError(testInstance, document.Save(manifestPath))

	reloadedDocument, reloadError := manifest.Load(manifestPath)
	require.NoError(testInstance, reloadError)
	require.Equal(testInstance, "1.2.4", reloadedDocument.Version())

	keywordsField, keywordsPresent := reloadedDocument.Field("keywords")
	require.True(testInstance, keywordsPresent)
	require.Len(testInstance, keywordsField, 1)
}

func TestAgentConfigSection(testInstance *testing.T) {
	document, parseError := manifest.Parse(testManifestFileNameConstant, []byte(testManifestPayloadConstant))
	require.NoError(testInstance, parseError)
	require.Nil(testInstance, document.AgentConfig())

	document.SetAgentConfig(map[string]any{"pluginParameters": map[string]any{"API_KEY": map[string]any{"type": "string"}}})
	require.Contains(testInstance, document.AgentConfig(), "pluginParameters")
}
