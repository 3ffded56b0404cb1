package script

import (
	"strings"

	"github.com/sarchlab/outcome/internal/errs"
)

// Parse turns script source text into an ordered list of prototypes. One
// physical line is one instruction unless continued with a trailing "\" or
// split with ";"; "#" starts a comment that runs to end of line. Locations
// record projectRoot/relPath/source-line/stream-index so later phases and
// the executor can render a located error.
func Parse(projectRoot, relPath string, src string) ([]Prototype, error) {
	physical := strings.Split(src, "\n")

	// Phase 1: join backslash-continued physical lines, remembering the
	// line number the logical line started on.
	type logicalLine struct {
		text    string
		srcLine int
	}
	var logical []logicalLine
	var cur strings.Builder
	curStart := 0
	open := false
	for i, raw := range physical {
		lineNo := i + 1
		stripped := stripComment(raw)
		trimmedRight := strings.TrimRight(stripped, " \t\r")
		continued := strings.HasSuffix(trimmedRight, `\`)
		if continued {
			trimmedRight = strings.TrimSuffix(trimmedRight, `\`)
		}

		if !open {
			curStart = lineNo
			open = true
		} else {
			cur.WriteString(" ")
		}
		cur.WriteString(trimmedRight)

		if !continued {
			logical = append(logical, logicalLine{text: cur.String(), srcLine: curStart})
			cur.Reset()
			open = false
		}
	}
	if open {
		logical = append(logical, logicalLine{text: cur.String(), srcLine: curStart})
	}

	var out []Prototype
	index := 0
	for _, ll := range logical {
		for _, stmt := range splitSemicolons(ll.text) {
			loc := errs.Location{ProjectRoot: projectRoot, RelPath: relPath, Line: ll.srcLine, Index: index}
			proto, err := parseInstruction(stmt, loc)
			if err != nil {
				return nil, err
			}
			if proto.IsEmpty() {
				continue
			}
			out = append(out, proto)
			index++
		}
	}
	return out, nil
}

// splitSemicolons splits a logical line on ";" outside of quotes.
func splitSemicolons(s string) []string {
	var out []string
	var buf strings.Builder
	inQuotes := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '"' {
			inQuotes = !inQuotes
			buf.WriteRune(r)
			continue
		}
		if r == ';' && !inQuotes {
			out = append(out, buf.String())
			buf.Reset()
			continue
		}
		buf.WriteRune(r)
	}
	out = append(out, buf.String())
	return out
}

// stripComment removes a trailing "#..." comment, ignoring "#" inside
// double-quoted strings.
func stripComment(line string) string {
	inQuotes := false
	runes := []rune(line)
	for i, r := range runes {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if r == '#' && !inQuotes {
			return string(runes[:i])
		}
	}
	return line
}

func parseInstruction(stmt string, loc errs.Location) (Prototype, error) {
	trimmed := strings.TrimSpace(stmt)
	if trimmed == "" {
		return Prototype{}, nil
	}

	isDirective := strings.HasPrefix(trimmed, "!")
	body := trimmed
	if isDirective {
		body = strings.TrimPrefix(trimmed, "!")
	}

	toks := tokenizeLine(body)
	if len(toks) == 0 {
		return Prototype{}, nil
	}

	words := make([]string, 0, len(toks))
	pipeAt := -1
	for i, tk := range toks {
		if tk.kind == tokPipe {
			pipeAt = i
			break
		}
		words = append(words, tk.text)
	}

	var output string
	if pipeAt >= 0 {
		rest := toks[pipeAt+1:]
		if len(rest) == 0 {
			return Prototype{}, errs.New(errs.Parse, "MissingArguments", "'|' with no output destination").At(loc)
		}
		output = rest[0].text
	}

	if len(words) == 0 {
		return Prototype{}, errs.New(errs.Parse, "MissingArguments", "empty instruction body").At(loc)
	}

	tag := ""
	if strings.HasPrefix(words[0], "@") {
		tag = strings.TrimPrefix(words[0], "@")
		words = words[1:]
		loc.Tag = tag
	}
	if len(words) == 0 {
		return Prototype{}, errs.New(errs.Parse, "MissingArguments", "instruction has a tag but no name").At(loc)
	}

	return Prototype{
		Tag:         tag,
		Name:        words[0],
		Argv:        words[1:],
		Output:      output,
		Loc:         loc,
		IsDirective: isDirective,
	}, nil
}
