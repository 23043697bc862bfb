package release

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/karthikbj/pluginops/internal/manifest"
)

const (
	manifestFileNameConstant           = "package.json"
	workflowDirectoryRelativePathConst = ".github/workflows"
	loggerRequiredMessageConstant      = "release preparer logger required"
	workflowMissingMessageConstant     = "no release workflow found"
	workflowTriggerMissingMessageConst = "workflow declares no release trigger"
	workflowJobsMissingMessageConstant = "workflow declares no jobs"
	workflowParseErrorTemplateConstant = "parsing workflow %s: %s"
	lockfileRemovalErrorTemplateConst  = "removing lockfile %s: %s"
	releaseTriggerNameConstant         = "release"
	versionBumpedLogMessageConstant    = "manifest version bumped"
	lockfileRemovedLogMessageConstant  = "lockfile removed"
	previousVersionLogFieldConstant    = "previous_version"
	newVersionLogFieldConstant         = "new_version"
	lockfileLogFieldNameConstant       = "lockfile"
)

// lockfileNames are the lockfiles deleted, never parsed, during preparation.
var lockfileNames = []string{"bun.lock", "bun.lockb", "package-lock.json", "yarn.lock", "pnpm-lock.yaml"}

// workflowFileNames are the release workflow locations probed in order.
var workflowFileNames = []string{"release.yaml", "release.yml"}

// ErrLoggerRequired indicates a preparer constructed without a logger.
var ErrLoggerRequired = errors.New(loggerRequiredMessageConstant)

// WorkflowError describes a release workflow that is missing or malformed.
type WorkflowError struct {
	Path    string
	Message string
}

// Error describes the workflow problem.
func (workflowError WorkflowError) Error() string {
	if len(workflowError.Path) == 0 {
		return workflowError.Message
	}
	return fmt.Sprintf("%s: %s", workflowError.Path, workflowError.Message)
}

// Result reports what preparation changed.
type Result struct {
	PreviousVersion  string
	NewVersion       string
	RemovedLockfiles []string
	WorkflowPath     string
}

// Preparer readies a plugin checkout for a release: bump the manifest
// version, drop lockfiles, and confirm the release workflow is in place.
type Preparer struct {
	logger *zap.Logger
}

// NewPreparer constructs a release preparer.
func NewPreparer(logger *zap.Logger) (*Preparer, error) {
	if logger == nil {
		return nil, ErrLoggerRequired
	}
	return &Preparer{logger: logger}, nil
}

// Prepare bumps the manifest version, removes any lockfile present, and
// verifies the release workflow declares a release trigger and at least one
// job. The workflow check runs before anything is mutated so a broken
// repository is left untouched.
func (preparer *Preparer) Prepare(pluginRoot string) (Result, error) {
	workflowPath, workflowError := preparer.verifyWorkflow(pluginRoot)
	if workflowError != nil {
		return Result{}, workflowError
	}

	manifestPath := filepath.Join(pluginRoot, manifestFileNameConstant)
	manifestDocument, manifestError := manifest.Load(manifestPath)
	if manifestError != nil {
		return Result{}, manifestError
	}

	previousVersion, newVersion, bumpError := manifestDocument.BumpVersion()
	if bumpError != nil {
		return Result{}, bumpError
	}
	if saveError := manifestDocument.Save(manifestPath); saveError != nil {
		return Result{}, saveError
	}
	preparer.logger.Info(versionBumpedLogMessageConstant,
		zap.String(previousVersionLogFieldConstant, previousVersion),
		zap.String(newVersionLogFieldConstant, newVersion),
	)

	removedLockfiles, removalError := preparer.removeLockfiles(pluginRoot)
	if removalError != nil {
		return Result{}, removalError
	}

	return Result{
		PreviousVersion:  previousVersion,
		NewVersion:       newVersion,
		RemovedLockfiles: removedLockfiles,
		WorkflowPath:     workflowPath,
	}, nil
}

func (preparer *Preparer) removeLockfiles(pluginRoot string) ([]string, error) {
	var removedLockfiles []string
	for _, lockfileName := range lockfileNames {
		lockfilePath := filepath.Join(pluginRoot, lockfileName)
		if _, statError := os.Stat(lockfilePath); statError != nil {
			continue
		}
		if removalError := os.Remove(lockfilePath); removalError != nil {
			return nil, fmt.Errorf(lockfileRemovalErrorTemplateConst, lockfilePath, removalError)
		}
		removedLockfiles = append(removedLockfiles, lockfileName)
		preparer.logger.Debug(lockfileRemovedLogMessageConstant, zap.String(lockfileLogFieldNameConstant, lockfileName))
	}
	return removedLockfiles, nil
}

// verifyWorkflow locates the release workflow and checks it declares a
// release trigger and at least one job.
func (preparer *Preparer) verifyWorkflow(pluginRoot string) (string, error) {
	var workflowPath string
	for _, workflowFileName := range workflowFileNames {
		candidatePath := filepath.Join(pluginRoot, workflowDirectoryRelativePathConst, workflowFileName)
		if _, statError := os.Stat(candidatePath); statError == nil {
			workflowPath = candidatePath
			break
		}
	}
	if len(workflowPath) == 0 {
		return "", WorkflowError{Message: workflowMissingMessageConstant}
	}

	workflowContents, readError := os.ReadFile(workflowPath)
	if readError != nil {
		return "", WorkflowError{Path: workflowPath, Message: readError.Error()}
	}

	var workflowDocument struct {
		On   any            `yaml:"on"`
		Jobs map[string]any `yaml:"jobs"`
	}
	if parseError := yaml.Unmarshal(workflowContents, &workflowDocument); parseError != nil {
		return "", WorkflowError{Path: workflowPath, Message: fmt.Sprintf(workflowParseErrorTemplateConstant, workflowPath, parseError)}
	}

	if !declaresReleaseTrigger(workflowDocument.On) {
		return "", WorkflowError{Path: workflowPath, Message: workflowTriggerMissingMessageConst}
	}
	if len(workflowDocument.Jobs) == 0 {
		return "", WorkflowError{Path: workflowPath, Message: workflowJobsMissingMessageConstant}
	}
	return workflowPath, nil
}

// declaresReleaseTrigger accepts the trigger in scalar, sequence, or mapping
// form.
func declaresReleaseTrigger(triggerValue any) bool {
	switch typedTrigger := triggerValue.(type) {
	case string:
		return typedTrigger == releaseTriggerNameConstant
	case []any:
		for _, triggerEntry := range typedTrigger {
			if triggerName, isString := triggerEntry.(string); isString && triggerName == releaseTriggerNameConstant {
				return true
			}
		}
	case map[string]any:
		_, releasePresent := typedTrigger[releaseTriggerNameConstant]
		return releasePresent
	}
	return false
}
