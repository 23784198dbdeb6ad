// Package tui renders runstamp output for terminals.
package tui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/term"
	"github.com/xvierd/runstamp/internal/domain"
	"github.com/xvierd/runstamp/internal/vcs"
)

const defaultWidth = 80

// Theme colors.
const (
	colorTitle = "#7C3AED"
	colorClean = "#10B981"
	colorDirty = "#F59E0B"
	colorError = "#EF4444"
	colorDim   = "#6B7280"
)

// Renderer writes styled output. Colors are dropped when the writer is not
// a terminal.
type Renderer struct {
	out   io.Writer
	width int

	title lipgloss.Style
	label lipgloss.Style
	clean lipgloss.Style
	dirty lipgloss.Style
	err   lipgloss.Style
	dim   lipgloss.Style
}

// NewRenderer creates a renderer for out.
func NewRenderer(out io.Writer) *Renderer {
	lg := lipgloss.NewRenderer(out)
	return &Renderer{
		out:   out,
		width: terminalWidth(out),
		title: lg.NewStyle().Bold(true).Foreground(lipgloss.Color(colorTitle)),
		label: lg.NewStyle().Foreground(lipgloss.Color(colorDim)),
		clean: lg.NewStyle().Foreground(lipgloss.Color(colorClean)),
		dirty: lg.NewStyle().Foreground(lipgloss.Color(colorDirty)).Bold(true),
		err:   lg.NewStyle().Foreground(lipgloss.Color(colorError)).Bold(true),
		dim:   lg.NewStyle().Foreground(lipgloss.Color(colorDim)),
	}
}

func terminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return defaultWidth
	}
	w, _, err := term.GetSize(f.Fd())
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// Resolution prints a resolved commit.
func (r *Renderer) Resolution(res *domain.Resolution) {
	r.field("commit", res.Commit)
	r.field("dirty", r.dirtyText(res.Dirty))
	r.field("scheme", res.Scheme)
	r.field("root", r.truncate(res.RepoRoot, r.width-10))
}

// Run prints a single run record.
func (r *Renderer) Run(run *domain.Run) {
	fmt.Fprintln(r.out, r.title.Render(run.Name))
	r.field("id", run.ID)
	r.field("dir", run.Dir)
	if run.HasProvenance() {
		r.field("commit", run.Commit)
		r.field("dirty", r.dirtyText(run.Dirty))
	} else {
		r.field("commit", r.dim.Render("unavailable ("+run.ProvenanceNote+")"))
	}
	if len(run.Tags) > 0 {
		r.field("tags", strings.Join(run.Tags, ", "))
	}
	r.field("created", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
}

// Runs prints runs as a table.
func (r *Renderer) Runs(runs []*domain.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(r.out, r.dim.Render("No runs recorded."))
		return
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		commit := "-"
		if run.HasProvenance() {
			commit = run.ShortCommit()
			if run.Dirty {
				commit += "*"
			}
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.Name,
			commit,
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.dim).
		Headers("ID", "NAME", "COMMIT", "CREATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.title.Padding(0, 1)
			}
			return r.label.UnsetForeground().Padding(0, 1)
		})
	fmt.Fprintln(r.out, t.String())
	fmt.Fprintln(r.out, r.dim.Render(strconv.Itoa(len(runs))+" run(s), * marks a dirty tree"))
}

// Schemes prints the registry in priority order.
func (r *Renderer) Schemes(schemes []vcs.Scheme) {
	for i, s := range schemes {
		fmt.Fprintf(r.out, "%d. %s %s\n", i+1, r.title.Render(s.Name()), r.dim.Render("("+s.Marker()+")"))
		r.field("  commit", strings.Join(s.CommitProbe().Template(), " "))
		r.field("  status", strings.Join(s.StatusProbe().Template(), " "))
	}
}

// Warning prints a non-fatal problem.
func (r *Renderer) Warning(msg string) {
	fmt.Fprintln(r.out, r.dirty.Render("warning: ")+msg)
}

// Error prints a fatal problem.
func (r *Renderer) Error(err error) {
	fmt.Fprintln(r.out, r.err.Render("error: ")+err.Error())
}

func (r *Renderer) field(name, value string) {
	fmt.Fprintf(r.out, "%s %s\n", r.label.Render(fmt.Sprintf("%-8s", name+":")), value)
}

func (r *Renderer) dirtyText(dirty bool) string {
	if dirty {
		return r.dirty.Render("true")
	}
	return r.clean.Render("false")
}

func (r *Renderer) truncate(s string, max int) string {
	if max < 8 || lipgloss.Width(s) <= max {
		return s
	}
	runes := []rune(s)
	return "..." + string(runes[len(runes)-(max-3):])
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
