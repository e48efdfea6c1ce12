package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"tolk/internal/preflight"
)

const checkLabelWidth = 22

var (
	passStyle   = text.Colors{text.FgGreen}
	failStyle   = text.Colors{text.FgRed, text.Bold}
	headerStyle = text.Colors{text.FgBlue, text.Bold}
)

// terminal wraps an output stream and styles text only when it is a tty.
type terminal struct {
	color bool
}

func newTerminal(w io.Writer) terminal {
	f, ok := w.(*os.File)
	if !ok {
		return terminal{}
	}
	fd := f.Fd()
	return terminal{color: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)}
}

func (t terminal) paint(style text.Colors, s string) string {
	if !t.color {
		return s
	}
	return style.Sprint(s)
}

// header prints "== Title ==" underlined to the title's width.
func (t terminal) header(w io.Writer, title string) {
	line := "== " + strings.TrimSpace(title) + " =="
	fmt.Fprintln(w, t.paint(headerStyle, line))
	fmt.Fprintln(w, t.paint(headerStyle, strings.Repeat("-", len(line))))
}

// checkLine renders one preflight result as "  Name:   [OK] detail".
func (t terminal) checkLine(result preflight.Result) string {
	verdict, style := "[OK]", passStyle
	if !result.Passed {
		verdict, style = "[ERROR]", failStyle
	}
	if detail := strings.TrimSpace(result.Detail); detail != "" {
		verdict += " " + detail
	}
	return t.paint(style, fmt.Sprintf("  %-*s %s", checkLabelWidth, result.Name+":", verdict))
}
