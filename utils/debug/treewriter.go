package debug

import (
	"fmt"
	"strconv"
	"strings"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	for range depth {
		tw.w.WriteString("  ")
	}
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) TextBlock(depth int, label, value string) {
	for range depth {
		tw.w.WriteString("  ")
	}
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Rule prints a compiled CSS rule on a single line, media conditions first.
func (tw TreeWriter) Rule(depth int, media []string, selector, body string) {
	for range depth {
		tw.w.WriteString("  ")
	}
	for _, m := range media {
		tw.w.WriteString("@media ")
		tw.w.WriteString(m)
		tw.w.WriteString(" > ")
	}
	tw.w.WriteString(selector)
	tw.w.WriteString(" ")
	tw.w.WriteString(encodeText(body))
	tw.w.WriteByte('\n')
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
