package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cosmiq-cli/internal/notify"
)

const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"
)

// Out and ErrOut are where the helpers print. Tests swap them.
var (
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

func Header(text string) {
	fmt.Fprintf(Out, "\n%s%s%s\n", Bold+Cyan, text, Reset)
	fmt.Fprintln(Out, strings.Repeat("─", min(len([]rune(text))+4, 80)))
}

func SubHeader(text string) {
	fmt.Fprintf(Out, "%s%s%s\n", Bold+White, text, Reset)
}

func Success(text string) {
	fmt.Fprintf(Out, "%s✓%s %s\n", Green, Reset, text)
}

func Error(text string) {
	fmt.Fprintf(ErrOut, "%s✗%s %s\n", Red, Reset, text)
}

func Warn(text string) {
	fmt.Fprintf(Out, "%s!%s %s\n", Yellow, Reset, text)
}

func Info(label, value string) {
	fmt.Fprintf(Out, "  %s%-20s%s %s\n", Dim, label, Reset, value)
}

func Spinner(text string) {
	fmt.Fprintf(ErrOut, "\r%s⟳%s %s", Yellow, Reset, text)
}

func ClearLine() {
	fmt.Fprint(ErrOut, "\r\033[K")
}

// ToastLine formats a toast as a single colored line.
func ToastLine(t notify.Toast) string {
	icon, color := "•", White
	switch t.Variant {
	case notify.Success:
		icon, color = "✓", Green
	case notify.Error:
		icon, color = "✗", Red
	case notify.Warning:
		icon, color = "!", Yellow
	case notify.Info:
		icon, color = "i", Blue
	}
	line := fmt.Sprintf("%s%s%s %s", color, icon, Reset, t.Title)
	if t.Description != "" {
		line += fmt.Sprintf(" %s%s%s", Dim, t.Description, Reset)
	}
	return line
}

// Toast prints a toast; errors go to ErrOut.
func Toast(t notify.Toast) {
	w := Out
	if t.Variant == notify.Error {
		w = ErrOut
	}
	fmt.Fprintln(w, ToastLine(t))
}

// Backend timestamps come as RFC 3339 or as "2006-01-02 15:04:05.999999".
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

func FormatTime(ts string) string {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Local().Format("2006-01-02 15:04:05")
		}
	}
	return ts
}
