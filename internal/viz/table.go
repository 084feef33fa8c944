package viz

import (
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/param"
)

func formatValue(x float64) string {
	return strconv.FormatFloat(x, 'g', 6, 64)
}

func inBounds(m *model.Model, i int) bool {
	x := m.ParamGet(i)
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= m.ParamLowerBound(i) && x <= m.ParamUpperBound(i)
}

// ParamRows lists the working parameters of m as table rows: index, name,
// symbol, value, lower, upper, fit.
func ParamRows(m *model.Model) [][]string {
	names := m.ParamNames()
	rows := make([][]string, len(names))
	for i, name := range names {
		fit := "fixed"
		if m.ParamFitType(i) == param.Free {
			fit = "free"
		}
		rows[i] = []string{
			strconv.Itoa(i),
			name,
			m.ParamSymbol(i),
			formatValue(m.ParamGet(i)),
			formatValue(m.ParamLowerBound(i)),
			formatValue(m.ParamUpperBound(i)),
			fit,
		}
	}
	return rows
}

// ParamTable renders the working parameters of m. With an active reparam
// the names, bounds and values are those of the working space.
func ParamTable(m *model.Model) string {
	rows := ParamRows(m)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("#", "name", "symbol", "value", "lower", "upper", "fit").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			switch col {
			case 3:
				if !inBounds(m, row) {
					return style.Inherit(OutOfBounds)
				}
				return style.Inherit(MetricValue)
			case 6:
				if rows[row][6] == "free" {
					return style.Inherit(FreeStyle)
				}
				return style.Inherit(FixedStyle)
			}
			return style
		})

	title := m.Schema().Name()
	if r := m.Reparam(); r != nil {
		title += " [" + r.Kind() + "]"
	}
	return TitleStyle.Render(title) + "\n" + t.String()
}

// LayoutRows lists the schema's property table as rows: id, name, kind,
// slot index, declaring level.
func LayoutRows(s *model.Schema) [][]string {
	props := s.Properties()
	rows := make([][]string, len(props))
	for i, p := range props {
		rows[i] = []string{strconv.Itoa(p.ID), p.Name, p.Kind.String(), strconv.Itoa(p.Index), p.Level.Name()}
	}
	return rows
}

func LayoutTable(s *model.Schema) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("id", "property", "kind", "slot", "level").
		Rows(LayoutRows(s)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			if col == 4 {
				return style.Inherit(Subtle)
			}
			return style
		})
	return TitleStyle.Render(s.String()) + "\n" + t.String()
}
