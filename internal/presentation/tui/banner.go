package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the funnel banner with the product name.
func PrintBanner(w io.Writer, product string) {
	p := termenv.ColorProfile()
	title := termenv.String(" funnel ").Foreground(p.Color("#0f172a")).Background(p.Color("#a78bfa")).Bold()
	sub := termenv.String(" " + product + " insurance ").Foreground(p.Color("#f472b6"))
	hint := termenv.String(" /edit to change an answer, /quit to continue later").Faint()

	fmt.Fprintln(w)
	fmt.Fprintln(w, title.String()+sub.String())
	fmt.Fprintln(w, hint)
	fmt.Fprintln(w)
}
