// Package notify delivers user-facing batch notifications.
//
// A batch produces exactly one notification: Success when at least one item
// was persisted, Error otherwise. Implementations decide where it goes: the
// structured log, a terminal, or arbitrary callbacks.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/bulk-downloader/internal/logging"
	"github.com/rs/zerolog"
)

// Notifier receives batch notifications.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Summary formats the success message for a batch: "completed: N files"
// when nothing failed, otherwise "completed: success S / failure F".
func Summary(successes, failures int) string {
	if failures == 0 {
		return fmt.Sprintf("completed: %d files", successes)
	}
	return fmt.Sprintf("completed: success %d / failure %d", successes, failures)
}

// Funcs adapts plain functions to Notifier. Nil fields are skipped.
type Funcs struct {
	OnSuccess func(msg string)
	OnError   func(msg string)
}

// Success implements Notifier.
func (f Funcs) Success(msg string) {
	if f.OnSuccess != nil {
		f.OnSuccess(msg)
	}
}

// Error implements Notifier.
func (f Funcs) Error(msg string) {
	if f.OnError != nil {
		f.OnError(msg)
	}
}

// Nop discards every notification.
type Nop struct{}

// Success implements Notifier.
func (Nop) Success(string) {}

// Error implements Notifier.
func (Nop) Error(string) {}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier using the "notify" component logger.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: logging.NewLogger("notify")}
}

// Success implements Notifier.
func (n *LogNotifier) Success(msg string) {
	n.logger.Info().Msg(msg)
}

// Error implements Notifier.
func (n *LogNotifier) Error(msg string) {
	n.logger.Error().Msg(msg)
}

var (
	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
)

// ConsoleNotifier prints styled notifications to a terminal.
type ConsoleNotifier struct {
	out io.Writer
	mu  sync.Mutex
}

// NewConsoleNotifier creates a ConsoleNotifier writing to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

// Success implements Notifier.
func (n *ConsoleNotifier) Success(msg string) {
	n.print(successStyle.Render("✓ " + msg))
}

// Error implements Notifier.
func (n *ConsoleNotifier) Error(msg string) {
	n.print(errorStyle.Render("✗ " + msg))
}

func (n *ConsoleNotifier) print(line string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, line)
}

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

// Success implements Notifier.
func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

// Error implements Notifier.
func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}
