package batch

import (
	"context"
	"errors"
	"time"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/discovery"
)

const (
	defaultItemDelayConstant             = 150 * time.Millisecond
	runnerLoggerRequiredMessageConstant  = "batch logger required"
	runnerProcessRequiredMessageConstant = "batch item processor required"
	itemFailedLogMessageConstant         = "repository processing failed"
	itemSucceededLogMessageConstant      = "repository processed"
	repositoryLogFieldNameConstant       = "repository"
	errorLogFieldNameConstant            = "error"
)

var (
	// ErrLoggerRequired indicates a runner constructed without a logger.
	ErrLoggerRequired = errors.New(runnerLoggerRequiredMessageConstant)
	// ErrProcessorRequired indicates a run invoked without an item processor.
	ErrProcessorRequired = errors.New(runnerProcessRequiredMessageConstant)
)

// ItemProcessor handles one repository. A returned error marks the item as
// failed without stopping the run.
type ItemProcessor func(executionContext context.Context, repository discovery.RepositoryRef) error

// ItemFailure records one failed repository and its error.
type ItemFailure struct {
	RepositoryName string
	Cause          error
}

// Summary aggregates the outcome of a run.
type Summary struct {
	ProcessedCount int
	SucceededCount int
	Failures       []ItemFailure
}

// FailedCount returns the number of failed items.
func (summary Summary) FailedCount() int {
	return len(summary.Failures)
}

// RunnerOptions tune runner behavior.
type RunnerOptions struct {
	// ItemDelay is the pause inserted after each item to respect remote rate
	// limits. Zero selects the default.
	ItemDelay time.Duration
	// ShowProgress renders a console progress bar across the run.
	ShowProgress bool
}

// Runner processes repositories one at a time, capturing per-item failures so
// a single bad repository never aborts the batch.
type Runner struct {
	logger       *zap.Logger
	itemDelay    time.Duration
	showProgress bool
}

// NewRunner constructs a sequential batch runner.
func NewRunner(logger *zap.Logger, options RunnerOptions) (*Runner, error) {
	if logger == nil {
		return nil, ErrLoggerRequired
	}

	itemDelay := options.ItemDelay
	if itemDelay <= 0 {
		itemDelay = defaultItemDelayConstant
	}

	return &Runner{logger: logger, itemDelay: itemDelay, showProgress: options.ShowProgress}, nil
}

// Run processes every repository in order. Failures are logged with the
// repository name and collected into the summary; the loop always continues
// to the next item. The delay is skipped after the final item.
func (runner *Runner) Run(executionContext context.Context, repositories []discovery.RepositoryRef, processItem ItemProcessor) (Summary, error) {
	if processItem == nil {
		return Summary{}, ErrProcessorRequired
	}

	var progressBar *pb.ProgressBar
	if runner.showProgress {
		progressBar = pb.Full.Start(len(repositories))
		defer progressBar.Finish()
	}

	runSummary := Summary{}
	for repositoryIndex, repository := range repositories {
		runSummary.ProcessedCount++

		processingError := processItem(executionContext, repository)
		if processingError != nil {
			runner.logger.Error(itemFailedLogMessageConstant,
				zap.String(repositoryLogFieldNameConstant, repository.Name),
				zap.String(errorLogFieldNameConstant, processingError.Error()),
			)
			runSummary.Failures = append(runSummary.Failures, ItemFailure{RepositoryName: repository.Name, Cause: processingError})
		} else {
			runSummary.SucceededCount++
			runner.logger.Debug(itemSucceededLogMessageConstant, zap.String(repositoryLogFieldNameConstant, repository.Name))
		}

		if progressBar != nil {
			progressBar.Increment()
		}
		if repositoryIndex < len(repositories)-1 {
			time.Sleep(runner.itemDelay)
		}
	}

	return runSummary, nil
}
