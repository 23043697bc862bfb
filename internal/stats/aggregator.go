package stats

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	recentVersionLimitConstant          = 5
	defaultFetchDelayConstant           = 150 * time.Millisecond
	registryRequiredMessageConstant     = "registry client required"
	aggregatorLoggerRequiredMessageText = "aggregator logger required"
	packageFailedLogMessageConstant     = "package statistics failed, skipping"
	versionsFailedLogMessageConstant    = "version listing failed, skipping estimates"
)

var (
	// ErrRegistryRequired indicates an aggregator constructed without a registry client.
	ErrRegistryRequired = errors.New(registryRequiredMessageConstant)
	// ErrAggregatorLoggerRequired indicates an aggregator constructed without a logger.
	ErrAggregatorLoggerRequired = errors.New(aggregatorLoggerRequiredMessageText)
)

// PackageStats holds one package's download counts per period.
type PackageStats struct {
	PackageName      string
	WeeklyDownloads  int64
	MonthlyDownloads int64
	YearlyDownloads  int64
}

// VersionEstimate approximates one version's monthly downloads by splitting
// the package's monthly total evenly across its recent versions. The split is
// an approximation, not telemetry.
type VersionEstimate struct {
	PackageName        string
	Version            string
	EstimatedDownloads int64
}

// Report is the aggregated input for the workbook renderer.
type Report struct {
	Packages         []PackageStats
	VersionEstimates []VersionEstimate
}

// TotalWeeklyDownloads sums the weekly counts.
func (report Report) TotalWeeklyDownloads() int64 {
	var total int64
	for _, packageStats := range report.Packages {
		total += packageStats.WeeklyDownloads
	}
	return total
}

// TotalMonthlyDownloads sums the monthly counts.
func (report Report) TotalMonthlyDownloads() int64 {
	var total int64
	for _, packageStats := range report.Packages {
		total += packageStats.MonthlyDownloads
	}
	return total
}

// TotalYearlyDownloads sums the yearly counts.
func (report Report) TotalYearlyDownloads() int64 {
	var total int64
	for _, packageStats := range report.Packages {
		total += packageStats.YearlyDownloads
	}
	return total
}

// AverageYearlyDownloads divides the yearly total across the packages.
func (report Report) AverageYearlyDownloads() int64 {
	if len(report.Packages) == 0 {
		return 0
	}
	return report.TotalYearlyDownloads() / int64(len(report.Packages))
}

// RegistryGateway covers the registry surface the aggregator consumes.
// RegistryClient satisfies it; tests substitute stubs.
type RegistryGateway interface {
	SearchScopePackages(executionContext context.Context, scope string) ([]string, error)
	FetchRecentVersions(executionContext context.Context, packageName string, versionLimit int) ([]string, error)
	FetchDownloadCount(executionContext context.Context, period DownloadPeriod, packageName string) (int64, error)
}

// AggregatorOptions tune aggregation behavior.
type AggregatorOptions struct {
	// FetchDelay is the pause inserted between packages. Zero selects the
	// default.
	FetchDelay time.Duration
}

// Aggregator walks the registry and assembles the download report.
type Aggregator struct {
	logger     *zap.Logger
	registry   RegistryGateway
	fetchDelay time.Duration
}

// NewAggregator constructs a download statistics aggregator.
func NewAggregator(logger *zap.Logger, registry RegistryGateway, options AggregatorOptions) (*Aggregator, error) {
	if logger == nil {
		return nil, ErrAggregatorLoggerRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	fetchDelay := options.FetchDelay
	if fetchDelay <= 0 {
		fetchDelay = defaultFetchDelayConstant
	}
	return &Aggregator{logger: logger, registry: registry, fetchDelay: fetchDelay}, nil
}

// BuildReport searches every scope, deduplicates the package list, fetches
// the three period counts per package, and estimates per-version downloads.
// A package whose counts cannot be fetched is logged and skipped; the report
// covers the remainder.
func (aggregator *Aggregator) BuildReport(executionContext context.Context, scopes []string) (Report, error) {
	packageNames, searchError := aggregator.collectPackageNames(executionContext, scopes)
	if searchError != nil {
		return Report{}, searchError
	}

	report := Report{}
	for packageIndex, packageName := range packageNames {
		packageStats, statsError := aggregator.fetchPackageStats(executionContext, packageName)
		if statsError != nil {
			aggregator.logger.Warn(packageFailedLogMessageConstant,
				zap.String(packageLogFieldNameConstant, packageName),
				zap.Error(statsError),
			)
			continue
		}
		report.Packages = append(report.Packages, packageStats)
		report.VersionEstimates = append(report.VersionEstimates, aggregator.estimateVersionDownloads(executionContext, packageStats)...)

		if packageIndex < len(packageNames)-1 {
			time.Sleep(aggregator.fetchDelay)
		}
	}
	return report, nil
}

// collectPackageNames merges the scope searches into one deduplicated,
// sorted list. Search failures abort since an incomplete package list would
// silently skew the report.
func (aggregator *Aggregator) collectPackageNames(executionContext context.Context, scopes []string) ([]string, error) {
	seenNames := map[string]struct{}{}
	var packageNames []string
	for _, scope := range scopes {
		scopePackages, searchError := aggregator.registry.SearchScopePackages(executionContext, scope)
		if searchError != nil {
			return nil, searchError
		}
		for _, packageName := range scopePackages {
			if _, alreadySeen := seenNames[packageName]; alreadySeen {
				continue
			}
			seenNames[packageName] = struct{}{}
			packageNames = append(packageNames, packageName)
		}
	}
	sort.Strings(packageNames)
	return packageNames, nil
}

// fetchPackageStats retrieves the three period counts concurrently; the
// registry tolerates three simultaneous requests for one package.
func (aggregator *Aggregator) fetchPackageStats(executionContext context.Context, packageName string) (PackageStats, error) {
	packageStats := PackageStats{PackageName: packageName}
	periodTargets := []struct {
		period DownloadPeriod
		target *int64
	}{
		{period: PeriodLastWeek, target: &packageStats.WeeklyDownloads},
		{period: PeriodLastMonth, target: &packageStats.MonthlyDownloads},
		{period: PeriodLastYear, target: &packageStats.YearlyDownloads},
	}

	var waitGroup sync.WaitGroup
	fetchErrors := make([]error, len(periodTargets))
	for targetIndex, periodTarget := range periodTargets {
		waitGroup.Add(1)
		go func(targetIndex int, period DownloadPeriod, target *int64) {
			defer waitGroup.Done()
			downloadCount, fetchError := aggregator.registry.FetchDownloadCount(executionContext, period, packageName)
			if fetchError != nil {
				fetchErrors[targetIndex] = fetchError
				return
			}
			*target = downloadCount
		}(targetIndex, periodTarget.period, periodTarget.target)
	}
	waitGroup.Wait()

	for _, fetchError := range fetchErrors {
		if fetchError != nil {
			return PackageStats{}, fetchError
		}
	}
	return packageStats, nil
}

// estimateVersionDownloads splits the monthly total evenly across the most
// recent versions. A failed version listing only skips the estimates.
func (aggregator *Aggregator) estimateVersionDownloads(executionContext context.Context, packageStats PackageStats) []VersionEstimate {
	recentVersions, versionsError := aggregator.registry.FetchRecentVersions(executionContext, packageStats.PackageName, recentVersionLimitConstant)
	if versionsError != nil {
		aggregator.logger.Warn(versionsFailedLogMessageConstant,
			zap.String(packageLogFieldNameConstant, packageStats.PackageName),
			zap.Error(versionsError),
		)
		return nil
	}
	if len(recentVersions) == 0 {
		return nil
	}

	evenShare := packageStats.MonthlyDownloads / int64(len(recentVersions))
	versionEstimates := make([]VersionEstimate, 0, len(recentVersions))
	for _, versionName := range recentVersions {
		versionEstimates = append(versionEstimates, VersionEstimate{
			PackageName:        packageStats.PackageName,
			Version:            versionName,
			EstimatedDownloads: evenShare,
		})
	}
	return versionEstimates
}
