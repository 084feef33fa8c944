// Package tui is an interactive editor for one model instance's working
// parameters.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/modelspace/internal/experiment"
	"github.com/san-kum/modelspace/internal/logging"
	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/param"
	"github.com/san-kum/modelspace/internal/viz"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

type editor struct {
	m     *model.Model
	names []string
	sim   experiment.Config

	cursor  int
	editing bool
	editBuf string
	status  string

	history []float64
	drift   float64
	ran     bool

	width  int
	height int
}

func newEditor(m *model.Model, sim experiment.Config) editor {
	return editor{
		m:      m,
		names:  m.ParamNames(),
		sim:    sim,
		width:  80,
		height: 24,
	}
}

// Run opens the editor on m. Edits are applied to m in place.
func Run(m *model.Model, sim experiment.Config) error {
	_, err := tea.NewProgram(newEditor(m, sim)).Run()
	return err
}

func (e editor) Init() tea.Cmd { return nil }

func (e editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if e.editing {
			return e.editKey(msg), nil
		}
		return e.listKey(msg)
	case tea.WindowSizeMsg:
		e.width = msg.Width
		e.height = msg.Height
	}
	return e, nil
}

func (e editor) listKey(msg tea.KeyMsg) (editor, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return e, tea.Quit
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < len(e.names)-1 {
			e.cursor++
		}
	case "left", "h":
		e.nudge(-1)
	case "right", "l":
		e.nudge(1)
	case "enter", " ":
		e.editing = true
		e.editBuf = ""
	case "f":
		ft := param.Free
		if e.m.ParamFitType(e.cursor) == param.Free {
			ft = param.Fixed
		}
		e.m.ParamSetFitType(e.cursor, ft)
	case "d":
		e.m.ParamsSetDefault()
		e.status = "defaults restored"
	case "s":
		e.simulate()
	}
	return e, nil
}

func (e editor) editKey(msg tea.KeyMsg) editor {
	switch msg.String() {
	case "enter":
		x, err := strconv.ParseFloat(e.editBuf, 64)
		if err != nil {
			e.status = fmt.Sprintf("not a number: %q", e.editBuf)
		} else {
			e.m.ParamSet(e.cursor, x)
			e.status = ""
		}
		e.editing = false
		e.editBuf = ""
	case "esc":
		e.editing = false
		e.editBuf = ""
	case "backspace":
		if len(e.editBuf) > 0 {
			e.editBuf = e.editBuf[:len(e.editBuf)-1]
		}
	default:
		for _, c := range msg.Runes {
			if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' || c == '+' {
				e.editBuf += string(c)
			}
		}
	}
	return e
}

// nudge moves the selected value by one scale step in direction dir.
func (e *editor) nudge(dir float64) {
	i := e.cursor
	e.m.ParamSet(i, e.m.ParamGet(i)+dir*e.m.ParamScale(i))
}

func (e *editor) simulate() {
	result, err := experiment.New(e.m, e.sim, logging.Discard()).Run(context.Background())
	if err != nil {
		e.status = err.Error()
		e.ran = false
		return
	}
	e.history = e.history[:0]
	for _, x := range result.States {
		e.history = append(e.history, x[0])
	}
	e.drift = result.EnergyDrift
	e.ran = true
	e.status = fmt.Sprintf("%d steps", result.StepsTaken)
}

func (e editor) View() string {
	var b strings.Builder

	title := e.m.Schema().Name()
	if r := e.m.Reparam(); r != nil {
		title += " [" + r.Kind() + "]"
	}
	b.WriteString("\n      " + cyan.Render(title) + "  " + dim.Render(e.m.Schema().Nick()) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 44)) + "\n\n")

	for i, name := range e.names {
		val := fmt.Sprintf("%10.4g", e.m.ParamGet(i))
		if e.editing && i == e.cursor {
			val = fmt.Sprintf("%10s", e.editBuf+"▋")
		}
		fit := dimmer.Render("fixed")
		if e.m.ParamFitType(i) == param.Free {
			fit = green.Render("free ")
		}
		bounds := dimmer.Render(fmt.Sprintf("[%g, %g]", e.m.ParamLowerBound(i), e.m.ParamUpperBound(i)))

		valStyle := dim
		if i == e.cursor {
			valStyle = magenta
		}
		if x := e.m.ParamGet(i); x < e.m.ParamLowerBound(i) || x > e.m.ParamUpperBound(i) {
			valStyle = red
		}

		if i == e.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-12s", name)))
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-12s", name)))
		}
		b.WriteString(valStyle.Render(val) + "  " + fit + "  " + bounds + "\n")
	}

	b.WriteString("\n      ")
	switch {
	case !e.m.ParamsValidBounds():
		b.WriteString(red.Render("out of bounds"))
	case !e.m.ParamsValid():
		b.WriteString(yellow.Render("invalid"))
	default:
		b.WriteString(green.Render("valid"))
	}
	b.WriteString(dim.Render(fmt.Sprintf("   %d free", e.m.FreeParamsLen())) + "\n")

	if e.ran && len(e.history) > 1 {
		b.WriteString("      " + viz.SparklineChart(e.history, 40) + "\n")
		b.WriteString("      " + viz.MetricLabel.Render("energy drift ") + viz.MetricValue.Render(fmt.Sprintf("%.3e", e.drift)) + "\n")
	}
	if e.status != "" {
		b.WriteString("      " + dim.Render(e.status) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(viz.KeyHint.Render("      ↑↓ select  ←→ step  enter edit  f fit  d defaults  s simulate  q quit") + "\n")
	return b.String()
}
