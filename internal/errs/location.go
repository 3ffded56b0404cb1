package errs

import "fmt"

// Location pinpoints where in a scenario's scripts an error originated.
// Carried by Parse and ScriptRuntime errors (spec §7).
type Location struct {
	ProjectRoot string // absolute path to the scenario directory
	RelPath     string // path relative to ProjectRoot
	Line        int    // 1-based source line
	Index       int    // index in the trimmed instruction stream
	Tag         string // optional @tag on the instruction, "" if none
}

// Short renders a compact "path:line" form suitable for a one-line error
// message.
func (l Location) Short() string {
	if l.Tag != "" {
		return fmt.Sprintf("%s:%d @%s", l.RelPath, l.Line, l.Tag)
	}
	return fmt.Sprintf("%s:%d", l.RelPath, l.Line)
}

// FormatLocated renders a located error with a source-line snippet and a
// caret span under the offending column range, followed by a help footer.
// Grounded on sunholo-data-ailang's span-based diagnostics rendering,
// adapted from an expression-span model to a whole-line script model (this
// engine's scripts are line-oriented, so the span is a line plus an
// optional column range rather than a byte range).
func FormatLocated(err *Error, source []string, colStart, colEnd int, help string) string {
	out := err.Error() + "\n"
	if err.Location == nil || err.Location.Line < 1 || err.Location.Line > len(source) {
		return out
	}

	line := source[err.Location.Line-1]
	out += fmt.Sprintf("  %d | %s\n", err.Location.Line, line)

	if colEnd <= colStart {
		colEnd = colStart + 1
	}
	prefix := fmt.Sprintf("  %d | ", err.Location.Line)
	pad := make([]byte, len(prefix))
	for i := range pad {
		pad[i] = ' '
	}
	for i := 0; i < colStart && i < len(line); i++ {
		if line[i] == '\t' {
			pad = append(pad, '\t')
		} else {
			pad = append(pad, ' ')
		}
	}
	carets := make([]byte, 0, colEnd-colStart)
	for i := colStart; i < colEnd; i++ {
		carets = append(carets, '^')
	}
	out += string(pad) + string(carets) + "\n"

	if help != "" {
		out += "help: " + help + "\n"
	}
	return out
}
