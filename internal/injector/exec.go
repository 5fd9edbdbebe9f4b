package injector

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// ExecInjector shells out to a platform typing tool: xdotool or wtype
// on Linux, osascript on macOS. The tool is probed once at
// construction.
type ExecInjector struct {
	backend string
}

// NewExec probes for an available injection backend.
func NewExec() (*ExecInjector, error) {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{"osascript"}
	default:
		candidates = []string{"xdotool", "wtype"}
	}

	for _, tool := range candidates {
		if _, err := exec.LookPath(tool); err == nil {
			slog.Debug("using injection backend", "backend", tool)
			return &ExecInjector{backend: tool}, nil
		}
	}
	return nil, ErrNoBackend
}

// DeleteChars sends count backspace key presses.
func (e *ExecInjector) DeleteChars(count int) error {
	if count <= 0 {
		return nil
	}

	var cmd *exec.Cmd
	switch e.backend {
	case "xdotool":
		cmd = exec.Command("xdotool", "key", "--repeat", strconv.Itoa(count), "--delay", "2", "BackSpace")
	case "wtype":
		args := make([]string, 0, count*2)
		for i := 0; i < count; i++ {
			args = append(args, "-k", "BackSpace")
		}
		cmd = exec.Command("wtype", args...)
	case "osascript":
		script := fmt.Sprintf(`tell application "System Events" to repeat %d times
key code 51
end repeat`, count)
		cmd = exec.Command("osascript", "-e", script)
	default:
		return ErrNoBackend
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDeleteFailed, strings.TrimSpace(string(out)), err)
	}
	return nil
}

// PasteText types the replacement text.
func (e *ExecInjector) PasteText(text string) error {
	if text == "" {
		return nil
	}

	var cmd *exec.Cmd
	switch e.backend {
	case "xdotool":
		cmd = exec.Command("xdotool", "type", "--delay", "2", "--", text)
	case "wtype":
		cmd = exec.Command("wtype", "--", text)
	case "osascript":
		// Keystroke injection mangles newlines; paste line by line.
		script := buildOsascriptType(text)
		cmd = exec.Command("osascript", "-e", script)
	default:
		return ErrNoBackend
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPasteFailed, strings.TrimSpace(string(out)), err)
	}
	return nil
}

// buildOsascriptType emits an AppleScript that types text, pressing
// return between lines.
func buildOsascriptType(text string) string {
	var b strings.Builder
	b.WriteString(`tell application "System Events"` + "\n")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("keystroke return\n")
		}
		escaped := strings.ReplaceAll(line, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		fmt.Fprintf(&b, "keystroke \"%s\"\n", escaped)
	}
	b.WriteString("end tell")
	return b.String()
}
