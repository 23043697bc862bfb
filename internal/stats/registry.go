package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultSearchBaseURLConstant       = "https://registry.npmjs.org/-/v1/search"
	defaultRegistryBaseURLConstant     = "https://registry.npmjs.org"
	defaultDownloadsBaseURLConstant    = "https://api.npmjs.org/downloads/point"
	searchTextQueryParameterConstant   = "text"
	searchSizeQueryParameterConstant   = "size"
	searchResultSizeConstant           = "250"
	loggerRequiredMessageConstant      = "registry logger required"
	packageNameRequiredMessageConstant = "package name required"
	scopeRequiredMessageConstant       = "scope required"
	requestErrorTemplateConstant       = "requesting %s: %s"
	responseStatusErrorTemplate        = "unexpected status %d from %s"
	responseDecodeErrorTemplate        = "decoding response from %s: %s"
	missingDownloadsLogMessageConstant = "no download data for package, counting zero"
	packageLogFieldNameConstant        = "package"
	periodLogFieldNameConstant         = "period"
)

// DownloadPeriod selects one download-count window.
type DownloadPeriod string

// Download periods recognized by the registry downloads API.
const (
	PeriodLastWeek  DownloadPeriod = "last-week"
	PeriodLastMonth DownloadPeriod = "last-month"
	PeriodLastYear  DownloadPeriod = "last-year"
)

var (
	// ErrLoggerRequired indicates a client constructed without a logger.
	ErrLoggerRequired = errors.New(loggerRequiredMessageConstant)
	// ErrPackageNameRequired indicates a fetch call without a package name.
	ErrPackageNameRequired = errors.New(packageNameRequiredMessageConstant)
	// ErrScopeRequired indicates a search call without a scope.
	ErrScopeRequired = errors.New(scopeRequiredMessageConstant)
)

// HTTPClient issues registry requests. http.Client satisfies it; tests
// substitute stubs.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// RegistryConfiguration overrides the registry endpoints, primarily for
// tests.
type RegistryConfiguration struct {
	SearchBaseURL    string
	RegistryBaseURL  string
	DownloadsBaseURL string
}

// RegistryClient talks to the public package registry and its downloads API.
type RegistryClient struct {
	logger           *zap.Logger
	httpClient       HTTPClient
	searchBaseURL    string
	registryBaseURL  string
	downloadsBaseURL string
}

// NewRegistryClient constructs a registry client. A nil HTTP client selects
// http.DefaultClient; empty endpoint overrides select the public registry.
func NewRegistryClient(logger *zap.Logger, httpClient HTTPClient, configuration RegistryConfiguration) (*RegistryClient, error) {
	if logger == nil {
		return nil, ErrLoggerRequired
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	client := &RegistryClient{
		logger:           logger,
		httpClient:       httpClient,
		searchBaseURL:    configuration.SearchBaseURL,
		registryBaseURL:  configuration.RegistryBaseURL,
		downloadsBaseURL: configuration.DownloadsBaseURL,
	}
	if len(client.searchBaseURL) == 0 {
		client.searchBaseURL = defaultSearchBaseURLConstant
	}
	if len(client.registryBaseURL) == 0 {
		client.registryBaseURL = defaultRegistryBaseURLConstant
	}
	if len(client.downloadsBaseURL) == 0 {
		client.downloadsBaseURL = defaultDownloadsBaseURLConstant
	}
	return client, nil
}

// SearchScopePackages returns the names of packages published under the
// scope prefix.
func (client *RegistryClient) SearchScopePackages(executionContext context.Context, scope string) ([]string, error) {
	trimmedScope := strings.TrimSpace(scope)
	if len(trimmedScope) == 0 {
		return nil, ErrScopeRequired
	}

	queryParameters := url.Values{}
	queryParameters.Set(searchTextQueryParameterConstant, trimmedScope)
	queryParameters.Set(searchSizeQueryParameterConstant, searchResultSizeConstant)
	searchURL := client.searchBaseURL + "?" + queryParameters.Encode()

	var searchResponse struct {
		Objects []struct {
			Package struct {
				Name string `json:"name"`
			} `json:"package"`
		} `json:"objects"`
	}
	if fetchError := client.fetchJSON(executionContext, searchURL, &searchResponse); fetchError != nil {
		return nil, fetchError
	}

	packageNames := make([]string, 0, len(searchResponse.Objects))
	for _, searchObject := range searchResponse.Objects {
		if strings.HasPrefix(searchObject.Package.Name, trimmedScope) {
			packageNames = append(packageNames, searchObject.Package.Name)
		}
	}
	return packageNames, nil
}

// FetchRecentVersions returns the package's most recently published version
// strings, newest first, capped at the limit.
func (client *RegistryClient) FetchRecentVersions(executionContext context.Context, packageName string, versionLimit int) ([]string, error) {
	trimmedName := strings.TrimSpace(packageName)
	if len(trimmedName) == 0 {
		return nil, ErrPackageNameRequired
	}

	packageURL := client.registryBaseURL + "/" + url.PathEscape(trimmedName)
	var packageResponse struct {
		Time map[string]string `json:"time"`
	}
	if fetchError := client.fetchJSON(executionContext, packageURL, &packageResponse); fetchError != nil {
		return nil, fetchError
	}

	type versionRecord struct {
		version     string
		publishedAt string
	}
	versionRecords := make([]versionRecord, 0, len(packageResponse.Time))
	for versionName, publishedAt := range packageResponse.Time {
		if versionName == "created" || versionName == "modified" {
			continue
		}
		versionRecords = append(versionRecords, versionRecord{version: versionName, publishedAt: publishedAt})
	}
	sort.Slice(versionRecords, func(firstIndex, secondIndex int) bool {
		return versionRecords[firstIndex].publishedAt > versionRecords[secondIndex].publishedAt
	})

	if versionLimit > 0 && len(versionRecords) > versionLimit {
		versionRecords = versionRecords[:versionLimit]
	}
	recentVersions := make([]string, 0, len(versionRecords))
	for _, record := range versionRecords {
		recentVersions = append(recentVersions, record.version)
	}
	return recentVersions, nil
}

// FetchDownloadCount returns the package's download count for the period.
// Packages without download data count as zero rather than failing.
func (client *RegistryClient) FetchDownloadCount(executionContext context.Context, period DownloadPeriod, packageName string) (int64, error) {
	trimmedName := strings.TrimSpace(packageName)
	if len(trimmedName) == 0 {
		return 0, ErrPackageNameRequired
	}

	downloadsURL := fmt.Sprintf("%s/%s/%s", client.downloadsBaseURL, period, trimmedName)
	httpRequest, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, downloadsURL, nil)
	if requestError != nil {
		return 0, fmt.Errorf(requestErrorTemplateConstant, downloadsURL, requestError)
	}

	httpResponse, responseError := client.httpClient.Do(httpRequest)
	if responseError != nil {
		return 0, fmt.Errorf(requestErrorTemplateConstant, downloadsURL, responseError)
	}
	defer func() { _ = httpResponse.Body.Close() }()

	if httpResponse.StatusCode == http.StatusNotFound {
		client.logger.Debug(missingDownloadsLogMessageConstant,
			zap.String(packageLogFieldNameConstant, trimmedName),
			zap.String(periodLogFieldNameConstant, string(period)),
		)
		return 0, nil
	}
	if httpResponse.StatusCode != http.StatusOK {
		return 0, fmt.Errorf(responseStatusErrorTemplate, httpResponse.StatusCode, downloadsURL)
	}

	var downloadsResponse struct {
		Downloads int64 `json:"downloads"`
	}
	responseBody, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return 0, fmt.Errorf(responseDecodeErrorTemplate, downloadsURL, readError)
	}
	if decodeError := json.Unmarshal(responseBody, &downloadsResponse); decodeError != nil {
		return 0, fmt.Errorf(responseDecodeErrorTemplate, downloadsURL, decodeError)
	}
	if downloadsResponse.Downloads < 0 {
		return 0, nil
	}
	return downloadsResponse.Downloads, nil
}

func (client *RegistryClient) fetchJSON(executionContext context.Context, requestURL string, target any) error {
	httpRequest, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		return fmt.Errorf(requestErrorTemplateConstant, requestURL, requestError)
	}

	httpResponse, responseError := client.httpClient.Do(httpRequest)
	if responseError != nil {
		return fmt.Errorf(requestErrorTemplateConstant, requestURL, responseError)
	}
	defer func() { _ = httpResponse.Body.Close() }()

	if httpResponse.StatusCode != http.StatusOK {
		return fmt.Errorf(responseStatusErrorTemplate, httpResponse.StatusCode, requestURL)
	}

	responseBody, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return fmt.Errorf(responseDecodeErrorTemplate, requestURL, readError)
	}
	if decodeError := json.Unmarshal(responseBody, target); decodeError != nil {
		return fmt.Errorf(responseDecodeErrorTemplate, requestURL, decodeError)
	}
	return nil
}
