// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"strings"

	"github.com/algorist/algorist/pkg/rustsrc"
)

// LibrarySet reports whether a crate name is inlined into the bundle.
type LibrarySet interface {
	IsLibrary(name string) bool
}

// rewriteEntry returns the entry file's text with its extern crate
// declarations of inlined crates removed, or turned into a local alias when
// they renamed the crate. Everything else is kept byte for byte apart from
// surrounding blank lines.
func rewriteEntry(f *rustsrc.File, libs LibrarySet) string {
	src := f.Source
	var b strings.Builder
	pos := 0
	for _, it := range f.Module.Items {
		ext, ok := it.(*rustsrc.ExternCrateItem)
		if !ok || !libs.IsLibrary(ext.Crate) {
			continue
		}
		start, end := ext.Span.Start, ext.Span.End
		if len(ext.Attrs) > 0 {
			start = ext.Attrs[0].Span.Start
		}
		if ext.Alias != "" {
			b.Write(src[pos:start])
			repl := "use crate::" + ext.Crate + " as " + ext.Alias + ";"
			if ext.Visibility != "" {
				repl = string(ext.Visibility) + " " + repl
			}
			b.WriteString(repl)
			pos = end
			continue
		}
		start, end = wholeLines(src, start, end)
		b.Write(src[pos:start])
		pos = end
	}
	b.Write(src[pos:])
	return strings.TrimRight(strings.TrimLeft(b.String(), "\r\n"), " \t\r\n") + "\n"
}

// wholeLines widens [start, end) to full lines when nothing but whitespace
// shares those lines with it.
func wholeLines(src []byte, start, end int) (int, int) {
	s := start
	for s > 0 && (src[s-1] == ' ' || src[s-1] == '\t') {
		s--
	}
	if s > 0 && src[s-1] != '\n' {
		return start, end
	}
	e := end
	for e < len(src) && (src[e] == ' ' || src[e] == '\t' || src[e] == '\r') {
		e++
	}
	switch {
	case e == len(src):
		return s, e
	case src[e] == '\n':
		return s, e + 1
	}
	return start, end
}
