package stats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	packageOverviewSheetNameConstant  = "Package Overview"
	packageDownloadsSheetNameConstant = "Package Downloads"
	versionDownloadsSheetNameConstant = "Version Downloads"
	summarySheetNameConstant          = "Summary"
	outputPathRequiredMessageConstant = "workbook output path required"
	workbookWriteErrorTemplateConst   = "writing workbook %s: %s"
	totalPackagesMetricNameConstant   = "Total Packages"
	totalWeeklyMetricNameConstant     = "Total Downloads (Weekly)"
	totalMonthlyMetricNameConstant    = "Total Downloads (Monthly)"
	totalYearlyMetricNameConstant     = "Total Downloads (Yearly)"
	averageYearlyMetricNameConstant   = "Average Downloads per Package (Yearly)"
)

var (
	packageOverviewHeaders  = []any{"#", "Package Name", "Tracked Versions"}
	packageDownloadsHeaders = []any{"Package Name", "Weekly Downloads", "Monthly Downloads", "Yearly Downloads"}
	versionDownloadsHeaders = []any{"Package Name", "Version", "Estimated Monthly Downloads"}
	summaryHeaders          = []any{"Metric", "Value"}
)

// ErrOutputPathRequired indicates a workbook write without an output path.
var ErrOutputPathRequired = errors.New(outputPathRequiredMessageConstant)

// WorkbookWriter renders a download report into a four-sheet spreadsheet.
type WorkbookWriter struct{}

// NewWorkbookWriter constructs a workbook writer.
func NewWorkbookWriter() *WorkbookWriter {
	return &WorkbookWriter{}
}

// Write renders the report into the workbook at the output path.
func (writer *WorkbookWriter) Write(report Report, outputPath string) error {
	trimmedPath := strings.TrimSpace(outputPath)
	if len(trimmedPath) == 0 {
		return ErrOutputPathRequired
	}

	workbook := excelize.NewFile()
	defer func() { _ = workbook.Close() }()

	// The default sheet becomes the first report sheet.
	if renameError := workbook.SetSheetName(workbook.GetSheetName(0), packageOverviewSheetNameConstant); renameError != nil {
		return renameError
	}

	if overviewError := writer.writeOverviewSheet(workbook, report); overviewError != nil {
		return overviewError
	}
	if downloadsError := writer.writeDownloadsSheet(workbook, report); downloadsError != nil {
		return downloadsError
	}
	if versionsError := writer.writeVersionsSheet(workbook, report); versionsError != nil {
		return versionsError
	}
	if summaryError := writer.writeSummarySheet(workbook, report); summaryError != nil {
		return summaryError
	}

	if saveError := workbook.SaveAs(trimmedPath); saveError != nil {
		return fmt.Errorf(workbookWriteErrorTemplateConst, trimmedPath, saveError)
	}
	return nil
}

func (writer *WorkbookWriter) writeOverviewSheet(workbook *excelize.File, report Report) error {
	versionCounts := map[string]int{}
	for _, versionEstimate := range report.VersionEstimates {
		versionCounts[versionEstimate.PackageName]++
	}

	sheetRows := [][]any{packageOverviewHeaders}
	for packageIndex, packageStats := range report.Packages {
		sheetRows = append(sheetRows, []any{packageIndex + 1, packageStats.PackageName, versionCounts[packageStats.PackageName]})
	}
	return writeSheetRows(workbook, packageOverviewSheetNameConstant, sheetRows)
}

func (writer *WorkbookWriter) writeDownloadsSheet(workbook *excelize.File, report Report) error {
	sheetRows := [][]any{packageDownloadsHeaders}
	for _, packageStats := range report.Packages {
		sheetRows = append(sheetRows, []any{packageStats.PackageName, packageStats.WeeklyDownloads, packageStats.MonthlyDownloads, packageStats.YearlyDownloads})
	}
	return writeSheetRows(workbook, packageDownloadsSheetNameConstant, sheetRows)
}

func (writer *WorkbookWriter) writeVersionsSheet(workbook *excelize.File, report Report) error {
	sheetRows := [][]any{versionDownloadsHeaders}
	for _, versionEstimate := range report.VersionEstimates {
		sheetRows = append(sheetRows, []any{versionEstimate.PackageName, versionEstimate.Version, versionEstimate.EstimatedDownloads})
	}
	return writeSheetRows(workbook, versionDownloadsSheetNameConstant, sheetRows)
}

func (writer *WorkbookWriter) writeSummarySheet(workbook *excelize.File, report Report) error {
	sheetRows := [][]any{
		summaryHeaders,
		{totalPackagesMetricNameConstant, len(report.Packages)},
		{totalWeeklyMetricNameConstant, report.TotalWeeklyDownloads()},
		{totalMonthlyMetricNameConstant, report.TotalMonthlyDownloads()},
		{totalYearlyMetricNameConstant, report.TotalYearlyDownloads()},
		{averageYearlyMetricNameConstant, report.AverageYearlyDownloads()},
	}
	return writeSheetRows(workbook, summarySheetNameConstant, sheetRows)
}

func writeSheetRows(workbook *excelize.File, sheetName string, sheetRows [][]any) error {
	if sheetName != packageOverviewSheetNameConstant {
		if _, sheetError := workbook.NewSheet(sheetName); sheetError != nil {
			return sheetError
		}
	}
	for rowIndex, rowValues := range sheetRows {
		cellReference, referenceError := excelize.CoordinatesToCellName(1, rowIndex+1)
		if referenceError != nil {
			return referenceError
		}
		if rowError := workbook.SetSheetRow(sheetName, cellReference, &rowValues); rowError != nil {
			return rowError
		}
	}
	return nil
}
