// Package cli implements quotectl, the operator command line for the quote
// store. Commands are built with cobra and output is styled with lipgloss.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jsamuelsen/quote-generator/internal/domain"
)

// Palette colors.
const (
	colorText    = "#E6E6E6"
	colorMuted   = "#8A8F98"
	colorAccent  = "#7AA2F7"
	colorSuccess = "#9ECE6A"
	colorDanger  = "#F7768E"
)

// styles holds the lipgloss styles used by the renderer.
type styles struct {
	Quote    lipgloss.Style
	Author   lipgloss.Style
	Category lipgloss.Style
	Index    lipgloss.Style
	Heading  lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Danger   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		Quote:    r.NewStyle().Foreground(lipgloss.Color(colorText)).Italic(true),
		Author:   r.NewStyle().Foreground(lipgloss.Color(colorMuted)),
		Category: r.NewStyle().Foreground(lipgloss.Color(colorAccent)),
		Index:    r.NewStyle().Foreground(lipgloss.Color(colorMuted)).Width(4).Align(lipgloss.Right),
		Heading:  r.NewStyle().Bold(true).Underline(true),
		Selected: r.NewStyle().Foreground(lipgloss.Color(colorAccent)).Bold(true),
		Muted:    r.NewStyle().Foreground(lipgloss.Color(colorMuted)),
		Success:  r.NewStyle().Foreground(lipgloss.Color(colorSuccess)).Bold(true),
		Danger:   r.NewStyle().Foreground(lipgloss.Color(colorDanger)).Bold(true),
	}
}

// Renderer writes styled output. Colors are dropped automatically when the
// writer is not a terminal.
type Renderer struct {
	out    io.Writer
	styles styles
}

// NewRenderer returns a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{out: w, styles: newStyles(lipgloss.NewRenderer(w))}
}

func (r *Renderer) line(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

func (r *Renderer) quote(q *domain.Quote) string {
	byline := r.styles.Author.Render("- "+q.Author) + " " + r.styles.Category.Render("["+q.Category+"]")

	return r.styles.Quote.Render(strconv.Quote(q.Text)) + "\n     " + byline
}

// Quote renders a single quote.
func (r *Renderer) Quote(q domain.Quote) {
	r.line(r.quote(&q))
}

// Quotes renders a numbered list under a heading naming the filter.
func (r *Renderer) Quotes(quotes []domain.Quote, category string) {
	heading := "All quotes"
	if !domain.IsAllCategories(category) {
		heading = "Quotes in " + strings.TrimSpace(category)
	}

	r.line(r.styles.Heading.Render(fmt.Sprintf("%s (%d)", heading, len(quotes))))

	if len(quotes) == 0 {
		r.line(r.styles.Muted.Render("No quotes in this category."))
		return
	}

	for i := range quotes {
		r.line(r.styles.Index.Render(strconv.Itoa(i+1)+".") + " " + r.quote(&quotes[i]))
	}
}

// Categories lists the category filters and marks the selected one.
func (r *Renderer) Categories(categories []string, selected string) {
	r.line(r.styles.Heading.Render("Categories"))

	for _, c := range categories {
		if strings.EqualFold(c, selected) {
			r.line(r.styles.Selected.Render("* " + c))
			continue
		}

		r.line("  " + c)
	}
}

// Success renders a confirmation.
func (r *Renderer) Success(msg string) {
	r.line(r.styles.Success.Render(msg))
}

// Info renders secondary information.
func (r *Renderer) Info(msg string) {
	r.line(r.styles.Muted.Render(msg))
}

// Error renders a failure.
func (r *Renderer) Error(err error) {
	r.line(r.styles.Danger.Render("Error: " + err.Error()))
}
