// Package action implements Action, a tagged variant rendering a unit of
// work either to an OS argv (ShellScript) or an in-process callable
// (PythonCode), with an optional status-tracking wrapper for externally
// submitted processes.
package action

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kris-hansen/flowctl/utils/shquote"
)

// Action is the contract both variants satisfy.
type Action interface {
	// ToCommand renders the action to an OS argv. PythonCode is local-only
	// and returns an error.
	ToCommand() ([]string, error)
	// LocalOnly reports whether this action can only run in-process.
	LocalOnly() bool
	// EnableTracking wraps rendering so that running the command produces
	// statusPath containing the inner command's exit code.
	EnableTracking(statusPath string)
	// GetStatus reads the tracking status file: -2 missing, -1 empty
	// (still running), else the parsed exit code.
	GetStatus() (int, error)
	// CleanUpTrackingStatusFile removes the status file, if any.
	CleanUpTrackingStatusFile() error
	fmt.Stringer
}

// tracking is embedded by both variants to share the status-file protocol.
type tracking struct {
	statusPath string
}

func (t *tracking) EnableTracking(statusPath string) {
	t.statusPath = statusPath
}

func (t *tracking) GetStatus() (int, error) {
	if t.statusPath == "" {
		return 0, fmt.Errorf("action: tracking not enabled")
	}

	f, err := os.Open(t.statusPath)
	if err != nil {
		if os.IsNotExist(err) {
			return -2, nil
		}
		return 0, fmt.Errorf("action: reading status file %s: %w", t.statusPath, err)
	}
	defer f.Close()

	buf := make([]byte, 16)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return -1, nil
	}

	text := strings.TrimSpace(string(buf[:n]))
	if text == "" {
		return -1, nil
	}

	code, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("action: parsing status file %s: %w", t.statusPath, err)
	}
	return code, nil
}

func (t *tracking) CleanUpTrackingStatusFile() error {
	if t.statusPath == "" {
		return nil
	}
	if err := os.Remove(t.statusPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("action: removing status file %s: %w", t.statusPath, err)
	}
	return nil
}

// Safe marks a fragment as exempt from shell escaping — used for shell
// operators like ">", "<", "|" that must reach the shell unescaped.
type Safe string

// Fragment is one token of a tuple-style script line: either a plain value
// (shell-escaped at render time) or a Safe value (passed through verbatim).
type Fragment = any

func render(fragment Fragment) string {
	if s, ok := fragment.(Safe); ok {
		return string(s)
	}
	return shquote.Quote(fmt.Sprint(fragment))
}

// Line is one line of a ShellScript: an ordered sequence of fragments
// joined by spaces at render time.
type Line struct {
	fragments []Fragment
}

// RawLine wraps a single already-complete line; it reaches the shell
// verbatim, without escaping, matching a bare string line in the original
// engine.
func RawLine(s string) Line {
	return Line{fragments: []Fragment{Safe(s)}}
}

// FragmentLine builds a line from discrete fragments, each escaped unless
// wrapped in Safe.
func FragmentLine(fragments ...Fragment) Line {
	return Line{fragments: fragments}
}

// Redirect builds a ShellCommand-style line: argv followed by optional
// "< stdin" and/or "> stdout" redirection, without the caller hand-assembling
// Safe tokens.
func Redirect(argv []string, stdin, stdout string) Line {
	fragments := make([]Fragment, 0, len(argv)+4)
	for _, a := range argv {
		fragments = append(fragments, a)
	}
	if stdin != "" {
		fragments = append(fragments, Safe("<"), stdin)
	}
	if stdout != "" {
		fragments = append(fragments, Safe(">"), stdout)
	}
	return FragmentLine(fragments...)
}

func (l Line) render() string {
	parts := make([]string, len(l.fragments))
	for i, f := range l.fragments {
		parts[i] = render(f)
	}
	return strings.Join(parts, " ")
}
