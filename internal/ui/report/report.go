// Package report renders plans and graph summaries for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"go.trai.ch/ripple/internal/adapters/telemetry"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/ui/output"
	"go.trai.ch/ripple/internal/ui/style"
)

// Renderer writes human readable reports to a single writer.
type Renderer struct {
	w   io.Writer
	out *termenv.Output
}

// NewRenderer creates a Renderer whose colors follow the environment.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, out: output.New(w)}
}

// NewRendererWithProfile creates a Renderer with a fixed color profile.
func NewRendererWithProfile(w io.Writer, profile termenv.Profile) *Renderer {
	return &Renderer{
		w:   w,
		out: output.NewWithProfile(w, func() termenv.Profile { return profile }),
	}
}

// ExternalEntry is one external path and the units depending on it.
type ExternalEntry struct {
	Path       string   `json:"path"`
	Dependents []string `json:"dependents"`
}

// Plan renders a recompilation plan. With why set, every unit invalidated
// through another one is followed by the chain that reached it.
func (r *Renderer) Plan(p *domain.Plan, why bool) {
	if p.Empty() {
		r.success("up to date")
		return
	}

	r.units(fmt.Sprintf("%s to recompile", plural(len(p.Units), "unit")), p.Units, why)

	if len(p.ChangedExternals) > 0 {
		r.printf("\nchanged externals:\n")
		for _, path := range p.ChangedExternals {
			r.printf("  %s %s\n", r.faint(style.Arrow), path)
		}
	}

	if len(p.Failed) > 0 {
		r.printf("\n")
		for _, name := range slices.Sorted(maps.Keys(p.Failed)) {
			r.printf("%s %s: %s\n", r.color(style.Cross, style.Red), name, p.Failed[name])
		}
	}
}

// Marked renders the units a mark operation newly invalidated.
func (r *Renderer) Marked(units []domain.PlannedUnit, why bool) {
	if len(units) == 0 {
		r.success("nothing new to mark")
		return
	}
	r.units(plural(len(units), "unit")+" marked", units, why)
}

// Externals renders every external path with the units depending on it.
func (r *Renderer) Externals(entries []ExternalEntry) {
	if len(entries) == 0 {
		r.printf("no external dependencies\n")
		return
	}
	for _, e := range entries {
		r.printf("%s %s\n", r.color(style.Arrow, style.Teal), e.Path)
		r.printf("    %s\n", r.faint(strings.Join(e.Dependents, ", ")))
	}
}

// Verified renders a successful consistency check.
func (r *Renderer) Verified(units, externals int) {
	r.success(fmt.Sprintf("graph is consistent (%s, %s)", plural(units, "unit"), plural(externals, "external")))
}

// Wrote renders the path a file was written to.
func (r *Renderer) Wrote(path string) {
	r.success("wrote " + path)
}

// Stats renders span statistics as a table.
func (r *Renderer) Stats(stats []telemetry.SpanStat) {
	if len(stats) == 0 {
		return
	}

	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(s.Count),
			strconv.Itoa(s.Errors),
			s.Total.Round(time.Microsecond).String(),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("span", "count", "errors", "total").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			if col > 0 {
				return s.Align(lipgloss.Right)
			}
			return s
		})

	r.printf("\n%s\n", t.Render())
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) units(headline string, units []domain.PlannedUnit, why bool) {
	r.printf("%s %s\n", r.color(style.Ripple, style.Teal), r.out.String(headline).Bold())

	width := 0
	for _, u := range units {
		width = max(width, len(u.Name))
	}

	for _, u := range units {
		r.printf("  %s %-*s  %s\n", r.color(style.Dot, reasonColor(u.Reason)), width, u.Name, r.faint(u.Reason.String()))
		if !why {
			continue
		}
		for _, step := range u.Trace {
			r.printf("      %s %s\n", r.faint(style.Arrow), step)
		}
	}
}

func (r *Renderer) success(msg string) {
	r.printf("%s %s\n", r.color(style.Check, style.Green), msg)
}

func (r *Renderer) color(s string, c lipgloss.Color) string {
	return r.out.String(s).Foreground(r.out.Color(string(c))).String()
}

func (r *Renderer) faint(s string) string {
	return r.out.String(s).Faint().String()
}

func (r *Renderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

func reasonColor(reason domain.Reason) lipgloss.Color {
	switch reason {
	case domain.ReasonNew:
		return style.Green
	case domain.ReasonCorruptRecord:
		return style.Red
	case domain.ReasonModified:
		return style.Yellow
	case domain.ReasonInterfaceChanged:
		return style.Violet
	default:
		return style.Teal
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
