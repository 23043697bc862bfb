package githubauth

import (
	"os"
	"strings"
)

// Environment variable names consulted for a GitHub authentication token, in
// order of preference.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// ResolveToken returns the first non-empty GitHub authentication token found in
// the process environment, honoring the preference order above.
func ResolveToken() (string, bool) {
	for _, environmentVariableName := range tokenPreference {
		tokenValue, tokenPresent := os.LookupEnv(environmentVariableName)
		if !tokenPresent {
			continue
		}
		trimmedToken := strings.TrimSpace(tokenValue)
		if len(trimmedToken) > 0 {
			return trimmedToken, true
		}
	}
	return "", false
}
