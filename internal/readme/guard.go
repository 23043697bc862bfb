package readme

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	selfWriteRefusedMessageConstant = "refusing to overwrite the automation repository's own README"
	guardPathErrorTemplateConstant  = "resolving %s: %s"
	guardInputRequiredMessageConst  = "guard paths required"
)

var (
	// ErrSelfWriteRefused indicates a README write aimed at the automation
	// repository itself.
	ErrSelfWriteRefused = errors.New(selfWriteRefusedMessageConstant)
	// ErrGuardPathsRequired indicates a guard check without both paths.
	ErrGuardPathsRequired = errors.New(guardInputRequiredMessageConst)
)

// EnsureNotSelfWrite refuses a write aimed at the automation repository's own
// top-level files. Plugin checkouts nested below the automation root remain
// writable. The check is a hard precondition for every README persistence path.
func EnsureNotSelfWrite(targetPath string, automationRoot string) error {
	trimmedTarget := strings.TrimSpace(targetPath)
	trimmedRoot := strings.TrimSpace(automationRoot)
	if len(trimmedTarget) == 0 || len(trimmedRoot) == 0 {
		return ErrGuardPathsRequired
	}

	absoluteTarget, targetError := filepath.Abs(trimmedTarget)
	if targetError != nil {
		return fmt.Errorf(guardPathErrorTemplateConstant, trimmedTarget, targetError)
	}
	absoluteRoot, rootError := filepath.Abs(trimmedRoot)
	if rootError != nil {
		return fmt.Errorf(guardPathErrorTemplateConstant, trimmedRoot, rootError)
	}

	if absoluteTarget == absoluteRoot || filepath.Dir(absoluteTarget) == absoluteRoot {
		return ErrSelfWriteRefused
	}
	return nil
}
