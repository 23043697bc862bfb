package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karthikbj/pluginops/internal/manifest"
)

const (
	testPatchBumpCaseNameConstant       = "patch_increment"
	testPatchBumpHighCaseNameConstant   = "patch_increment_double_digits"
	testBetaBumpCaseNameConstant        = "beta_counter_increment"
	testBetaBumpHighCaseNameConstant    = "beta_counter_double_digits"
	testOtherPrereleaseCaseNameConstant = "non_beta_prerelease_bumps_patch"
	testMalformedVersionCaseName        = "malformed_version"
	testEmptyVersionCaseNameConstant    = "empty_version"
	testMalformedBetaCaseNameConstant   = "malformed_beta_counter"
)

func TestBumpVersion(testInstance *testing.T) {
	testCases := []struct {
		name            string
		currentVersion  string
		expectedVersion string
		expectError     bool
	}{
		{name: testPatchBumpCaseNameConstant, currentVersion: "1.2.3", expectedVersion: "1.2.4"},
		{name: testPatchBumpHighCaseNameConstant, currentVersion: "0.25.9", expectedVersion: "0.25.10"},
		{name: testBetaBumpCaseNameConstant, currentVersion: "1.2.3-beta.5", expectedVersion: "1.2.3-beta.6"},
		{name: testBetaBumpHighCaseNameConstant, currentVersion: "2.0.0-beta.19", expectedVersion: "2.0.0-beta.20"},
		{name: testOtherPrereleaseCaseNameConstant, currentVersion: "1.2.3-rc.1", expectedVersion: "1.2.4"},
		{name: testMalformedVersionCaseName, currentVersion: "not-a-version", expectError: true},
		{name: testEmptyVersionCaseNameConstant, currentVersion: "  ", expectError: true},
		{name: testMalformedBetaCaseNameConstant, currentVersion: "1.2.3-beta.x", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			bumpedVersion, bumpError := manifest.BumpVersion(testCase.currentVersion)
			if testCase.expectError {
				require.Error(testInstance, bumpError)
				require.IsType(testInstance, manifest.VersionError{}, bumpError)
				return
			}
			require.NoError(testInstance, bumpError)
			require.Equal(testInstance, testCase.expectedVersion, bumpedVersion)
		})
	}
}

func TestDocumentBumpVersion(testInstance *testing.T) {
	document, parseError := manifest.Parse("package.json", []byte(`{"name":"@elizaos/plugin-example","version":"1.2.3"}`))
	require.NoError(testInstance, parseError)

	previousVersion, bumpedVersion, bumpError := document.BumpVersion()
	require.NoError(testInstance, bumpError)
	require.Equal(testInstance, "1.2.3", previousVersion)
	require.Equal(testInstance, "1.2.4", bumpedVersion)
	require.Equal(testInstance, "1.2.4", document.Version())
}
