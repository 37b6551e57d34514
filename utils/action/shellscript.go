package action

import (
	"fmt"
	"strings"

	"github.com/kris-hansen/flowctl/utils/shquote"
)

// DefaultShell is the argv prefix a ShellScript's rendered script is passed
// to, matching the original engine's ["/bin/bash", "-c"].
var DefaultShell = []string{"/bin/bash", "-c"}

// DefaultSafeMode is prepended to every script unless disabled.
const DefaultSafeMode = "set -euo pipefail"

// ShellScript is an ordered sequence of lines rendered as one compound
// script passed to a shell interpreter argv.
type ShellScript struct {
	tracking
	lines    []Line
	shell    []string
	safeMode string
}

// NewShellScript builds a ShellScript with the default shell and safe mode.
func NewShellScript(lines ...Line) *ShellScript {
	return &ShellScript{
		lines:    lines,
		shell:    append([]string(nil), DefaultShell...),
		safeMode: DefaultSafeMode,
	}
}

// WithShell overrides the interpreter argv the script is passed to.
func (s *ShellScript) WithShell(shell ...string) *ShellScript {
	s.shell = shell
	return s
}

// WithoutSafeMode disables the "set -euo pipefail" preamble.
func (s *ShellScript) WithoutSafeMode() *ShellScript {
	s.safeMode = ""
	return s
}

// Append adds lines to the script.
func (s *ShellScript) Append(lines ...Line) {
	s.lines = append(s.lines, lines...)
}

func (s *ShellScript) LocalOnly() bool { return false }

func (s *ShellScript) makeScript() string {
	rendered := make([]string, len(s.lines))
	for i, l := range s.lines {
		rendered[i] = l.render()
	}
	return strings.Join(rendered, "\n")
}

// ToCommand renders the script, wrapping it in the tracking preamble/epilogue
// when tracking is enabled:
//
//	touch <status>; ( <safe_mode>; <body> ); S=$?; echo $S > <status>; exit $S
func (s *ShellScript) ToCommand() ([]string, error) {
	script := s.makeScript()
	if s.safeMode != "" {
		script = s.safeMode + "; " + script
	}

	if s.statusPath != "" {
		quoted := shquote.Quote(s.statusPath)
		preface := fmt.Sprintf("touch %s", quoted)
		epilogue := fmt.Sprintf("S=$?; echo $S > %s; exit $S", quoted)
		script = fmt.Sprintf("%s; ( %s ); %s", preface, script, epilogue)
	}

	return append(append([]string(nil), s.shell...), script), nil
}

func (s *ShellScript) String() string {
	cmd, err := s.ToCommand()
	if err != nil {
		return fmt.Sprintf("<shellscript error: %v>", err)
	}
	parts := make([]string, len(cmd))
	for i, c := range cmd {
		parts[i] = shquote.Quote(c)
	}
	return strings.Join(parts, " ")
}

var _ Action = (*ShellScript)(nil)
