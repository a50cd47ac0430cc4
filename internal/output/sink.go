package output

import (
	"fmt"
	"strings"
)

// Level classifies a user-facing log line. LevelNone marks raw output
// streamed from a child process.
type Level string

const (
	LevelNone    Level = ""
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Sink receives every user-facing line produced by the download and
// install pipelines. Implementations must be safe for concurrent use;
// they are called from worker goroutines.
type Sink func(text string, level Level)

// Styled renders sink lines to stdout with the shared lipgloss styles.
func Styled(text string, level Level) {
	switch level {
	case LevelInfo:
		PrintInfo(text)
	case LevelWarning:
		PrintWarning(text)
	case LevelError:
		PrintError(text)
	case LevelSuccess:
		PrintSuccess(text)
	default:
		PrintStream(text)
	}
}

// Discard drops all sink lines. Useful in tests.
func Discard(string, Level) {}

// ProgressBar renders a fixed-width bar for install progress lines.
func ProgressBar(current, total int64, width int) string {
	if width <= 0 {
		width = 30
	}
	if total <= 0 {
		total = 1
	}
	if current < 0 {
		current = 0
	}
	if current > total {
		current = total
	}
	percent := float64(current) / float64(total)
	filled := max(0, min(int(percent*float64(width)), width))
	bar := StyleSymbols["bullet"]
	bar += strings.Repeat(StyleSymbols["hline"], filled)
	if filled < width {
		bar += strings.Repeat(" ", width-filled)
	}
	bar += StyleSymbols["bullet"]
	return debugStyle.Render(fmt.Sprintf("%s %.1f%%", bar, percent*100))
}
