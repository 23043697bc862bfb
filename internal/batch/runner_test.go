package batch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karthikbj/pluginops/internal/batch"
	"github.com/karthikbj/pluginops/internal/discovery"
)

const (
	testItemDelayConstant             = time.Millisecond
	testFailingRepositoryName         = "plugin-broken"
	testAllSucceedCaseNameConstant    = "all_items_succeed"
	testFailureContinuesCaseName      = "failure_continues_to_next_item"
	testEmptyItemListCaseNameConstant = "empty_item_list"
)

func TestNewRunnerValidation(testInstance *testing.T) {
	runner, creationError := batch.NewRunner(nil, batch.RunnerOptions{})
	require.Nil(testInstance, runner)
	require.ErrorIs(testInstance, creationError, batch.ErrLoggerRequired)
}

func TestRunValidation(testInstance *testing.T) {
	runner, creationError := batch.NewRunner(zap.NewNop(), batch.RunnerOptions{ItemDelay: testItemDelayConstant})
	require.NoError(testInstance, creationError)

	_, runError := runner.Run(context.Background(), nil, nil)
	require.ErrorIs(testInstance, runError, batch.ErrProcessorRequired)
}

func TestRun(testInstance *testing.T) {
	repositories := []discovery.RepositoryRef{
		{Name: "plugin-discord"},
		{Name: testFailingRepositoryName},
		{Name: "plugin-solana"},
	}

	testCases := []struct {
		name              string
		repositories      []discovery.RepositoryRef
		processItem       batch.ItemProcessor
		expectedProcessed int
		expectedSucceeded int
		expectedFailures  []string
	}{
		{
			name:         testAllSucceedCaseNameConstant,
			repositories: repositories,
			processItem: func(context.Context, discovery.RepositoryRef) error {
				return nil
			},
			expectedProcessed: 3,
			expectedSucceeded: 3,
		},
		{
			name:         testFailureContinuesCaseName,
			repositories: repositories,
			processItem: func(executionContext context.Context, repository discovery.RepositoryRef) error {
				if repository.Name == testFailingRepositoryName {
					return errors.New("clone failed")
				}
				return nil
			},
			expectedProcessed: 3,
			expectedSucceeded: 2,
			expectedFailures:  []string{testFailingRepositoryName},
		},
		{
			name: testEmptyItemListCaseNameConstant,
			processItem: func(context.Context, discovery.RepositoryRef) error {
				return nil
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner, creationError := batch.NewRunner(zap.NewNop(), batch.RunnerOptions{ItemDelay: testItemDelayConstant})
			require.NoError(testInstance, creationError)

			runSummary, runError := runner.Run(context.Background(), testCase.repositories, testCase.processItem)
			require.NoError(testInstance, runError)
			require.Equal(testInstance, testCase.expectedProcessed, runSummary.ProcessedCount)
			require.Equal(testInstance, testCase.expectedSucceeded, runSummary.SucceededCount)
			require.Len(testInstance, runSummary.Failures, len(testCase.expectedFailures))
			for failureIndex, expectedRepositoryName := range testCase.expectedFailures {
				require.Equal(testInstance, expectedRepositoryName, runSummary.Failures[failureIndex].RepositoryName)
				require.Error(testInstance, runSummary.Failures[failureIndex].Cause)
			}
		})
	}
}

func TestRunVisitsItemsInOrder(testInstance *testing.T) {
	runner, creationError := batch.NewRunner(zap.NewNop(), batch.RunnerOptions{ItemDelay: testItemDelayConstant})
	require.NoError(testInstance, creationError)

	var visitedNames []string
	repositories := []discovery.RepositoryRef{{Name: "plugin-a"}, {Name: "plugin-b"}, {Name: "plugin-c"}}
	runSummary, runError := runner.Run(context.Background(), repositories, func(executionContext context.Context, repository discovery.RepositoryRef) error {
		visitedNames = append(visitedNames, repository.Name)
		return nil
	})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 3, runSummary.ProcessedCount)
	require.Equal(testInstance, []string{"plugin-a", "plugin-b", "plugin-c"}, visitedNames)
}
