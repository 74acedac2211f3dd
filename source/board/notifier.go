package board

import "log"

// Notifier surfaces the outcome of board mutations to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Success(message string) {
	log.Printf("[Board] %s", message)
}

func (LogNotifier) Error(message string) {
	log.Printf("[Board] error: %s", message)
}
