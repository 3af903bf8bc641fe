package html

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Trusted is markup Printf writes without escaping.
type Trusted string

// Writer accumulates the first write error so views can emit markup without
// checking every call.
type Writer struct {
	w   io.Writer
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup.
func (hw *Writer) Raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

// Text writes s HTML-escaped.
func (hw *Writer) Text(s string) {
	hw.Raw(templ.EscapeString(s))
}

// Printf formats trusted markup; string and Stringer arguments are escaped,
// Trusted ones are not.
func (hw *Writer) Printf(format string, args ...any) {
	for i, a := range args {
		switch v := a.(type) {
		case string:
			args[i] = templ.EscapeString(v)
		case fmt.Stringer:
			args[i] = templ.EscapeString(v.String())
		}
	}
	hw.Raw(fmt.Sprintf(format, args...))
}

// Render writes a child component.
func (hw *Writer) Render(ctx context.Context, c templ.Component) {
	if hw.err != nil || c == nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

func (hw *Writer) Err() error { return hw.err }

// OrDash returns "-" for blank values.
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
