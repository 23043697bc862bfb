package execshell

import "go.uber.org/zap"

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// noopCommandEventObserver discards all command events.
type noopCommandEventObserver struct{}

// CommandStarted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

// CommandCompleted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

// CommandExecutionFailed implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}

// ConsoleCommandObserver renders command lifecycle events through a zap logger
// configured for human-readable output.
type ConsoleCommandObserver struct {
	logger    *zap.Logger
	formatter CommandMessageFormatter
}

// NewConsoleCommandObserver constructs a console observer backed by the provided zap logger.
func NewConsoleCommandObserver(logger *zap.Logger) *ConsoleCommandObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandObserver{logger: logger, formatter: CommandMessageFormatter{}}
}

// CommandStarted implements CommandEventObserver by logging command start notifications.
func (observer *ConsoleCommandObserver) CommandStarted(command ShellCommand) {
	if observer == nil {
		return
	}
	observer.logger.Info(observer.formatter.BuildStartedMessage(command))
}

// CommandCompleted implements CommandEventObserver by logging command completion notifications.
func (observer *ConsoleCommandObserver) CommandCompleted(command ShellCommand, result ExecutionResult) {
	if observer == nil {
		return
	}
	if result.ExitCode == 0 {
		observer.logger.Info(observer.formatter.BuildSuccessMessage(command))
		return
	}
	observer.logger.Warn(observer.formatter.BuildFailureMessage(command, result))
}

// CommandExecutionFailed implements CommandEventObserver by logging unexpected execution failures.
func (observer *ConsoleCommandObserver) CommandExecutionFailed(command ShellCommand, failure error) {
	if observer == nil {
		return
	}
	observer.logger.Error(observer.formatter.BuildExecutionFailureMessage(command, failure))
}
