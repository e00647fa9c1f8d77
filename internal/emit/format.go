// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"bytes"
	"strings"

	"github.com/algorist/algorist/pkg/rustsrc"
)

// linePrefix returns the whitespace between the start of the line holding
// offset and offset itself, or "" when code precedes offset on that line.
func linePrefix(src []byte, offset int) string {
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	prefix := string(src[start:offset])
	if strings.TrimSpace(prefix) != "" {
		return ""
	}
	return prefix
}

// block is one rendered item. Verbatim lines continue a multi-line string
// literal and are written exactly as in the source.
type block struct {
	lines    []string
	verbatim []bool
}

func plainBlock(lines ...string) block {
	return block{lines: lines, verbatim: make([]bool, len(lines))}
}

// sourceBlock splits text, which starts at offset in f, into lines and marks
// those that begin inside a multi-line literal. text must have the same line
// structure as the source it was taken from.
func sourceBlock(f *rustsrc.File, offset int, text string) block {
	lines := strings.Split(text, "\n")
	verbatim := make([]bool, len(lines))
	for i := 1; i < len(lines); i++ {
		nl := bytes.IndexByte(f.Source[offset:], '\n')
		if nl < 0 {
			break
		}
		offset += nl + 1
		verbatim[i] = f.InLiteral(offset)
	}
	return block{lines: lines, verbatim: verbatim}
}

func (b *block) extend(o block) {
	b.lines = append(b.lines, o.lines...)
	b.verbatim = append(b.verbatim, o.verbatim...)
}

// dedent strips the indentation common to all non-blank lines and trailing
// whitespace from every line. Verbatim lines are left alone.
func dedent(b block) block {
	common := -1
	for i, l := range b.lines {
		if b.verbatim[i] || strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	out := block{lines: make([]string, len(b.lines)), verbatim: b.verbatim}
	for i, l := range b.lines {
		if b.verbatim[i] {
			out.lines[i] = l
			continue
		}
		l = strings.TrimRight(l, " \t\r")
		if len(l) >= common && common > 0 {
			l = l[common:]
		} else if strings.TrimSpace(l) == "" {
			l = ""
		}
		out.lines[i] = l
	}
	return out
}
