package manifest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	betaPrereleasePrefixConstant          = "beta."
	bumpedVersionTemplateConstant         = "%d.%d.%d"
	bumpedBetaVersionTemplateConstant     = "%d.%d.%d-%s%d"
	versionParseErrorTemplateConstant     = "parsing version %q: %s"
	versionBumpInputRequiredMessage       = "version required"
	prereleaseCounterErrorTemplateMessage = "parsing prerelease counter in %q: %s"
)

// VersionError describes a version string that could not be bumped.
type VersionError struct {
	Version string
	Cause   error
}

// Error describes the version failure.
func (versionError VersionError) Error() string {
	return fmt.Sprintf(versionParseErrorTemplateConstant, versionError.Version, versionError.Cause)
}

// Unwrap exposes the underlying parse error.
func (versionError VersionError) Unwrap() error {
	return versionError.Cause
}

// BumpVersion increments the patch component of a semantic version. Versions
// carrying a beta prerelease keep their core version and increment the beta
// counter instead, so 1.2.3 becomes 1.2.4 while 1.2.3-beta.5 becomes
// 1.2.3-beta.6.
func BumpVersion(currentVersion string) (string, error) {
	trimmedVersion := strings.TrimSpace(currentVersion)
	if len(trimmedVersion) == 0 {
		return "", VersionError{Version: currentVersion, Cause: errors.New(versionBumpInputRequiredMessage)}
	}

	parsedVersion, parseError := semver.StrictNewVersion(trimmedVersion)
	if parseError != nil {
		return "", VersionError{Version: currentVersion, Cause: parseError}
	}

	prereleaseSegment := parsedVersion.Prerelease()
	if strings.HasPrefix(prereleaseSegment, betaPrereleasePrefixConstant) {
		counterSegment := strings.TrimPrefix(prereleaseSegment, betaPrereleasePrefixConstant)
		betaCounter, counterError := strconv.Atoi(counterSegment)
		if counterError != nil {
			return "", VersionError{Version: currentVersion, Cause: fmt.Errorf(prereleaseCounterErrorTemplateMessage, trimmedVersion, counterError)}
		}
		return fmt.Sprintf(
			bumpedBetaVersionTemplateConstant,
			parsedVersion.Major(),
			parsedVersion.Minor(),
			parsedVersion.Patch(),
			betaPrereleasePrefixConstant,
			betaCounter+1,
		), nil
	}

	return fmt.Sprintf(
		bumpedVersionTemplateConstant,
		parsedVersion.Major(),
		parsedVersion.Minor(),
		parsedVersion.Patch()+1,
	), nil
}

// BumpVersion bumps the manifest version in place and returns the previous
// and new values.
func (document *Document) BumpVersion() (string, string, error) {
	previousVersion := document.Version()
	bumpedVersion, bumpError := BumpVersion(previousVersion)
	if bumpError != nil {
		return previousVersion, "", bumpError
	}
	document.SetVersion(bumpedVersion)
	return previousVersion, bumpedVersion, nil
}
