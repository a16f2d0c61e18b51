package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Conceptual-Machines/composer-api/internal/agents/structure"
	"github.com/Conceptual-Machines/composer-api/internal/analysis"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(22)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// columns renders rows left-aligned, each column as wide as its widest cell
func columns(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = cellStyle.Width(widths[i] + 2).Render(style.Render(cell))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	out := []string{line(header, headerStyle)}
	for _, row := range rows {
		out = append(out, line(row, lipgloss.NewStyle()))
	}
	return strings.Join(out, "\n")
}

func field(label string, value any) string {
	return labelStyle.Render(label) + fmt.Sprint(value)
}

func renderPlan(form structure.Form, plan []structure.SectionPlan) string {
	rows := make([][]string, 0, len(plan))
	for _, s := range plan {
		rows = append(rows, []string{
			s.Name,
			fmt.Sprint(s.Measures),
			s.KeyRelation,
			string(s.Character),
			s.ParentSection,
		})
	}
	title := titleStyle.Render(fmt.Sprintf("%s, %d measures", form, structure.TotalMeasures(plan)))
	return title + "\n" + columns([]string{"SECTION", "MEASURES", "KEY", "CHARACTER", "PARENT"}, rows)
}

func renderSummary(title string, s analysis.Summary) string {
	lines := []string{
		titleStyle.Render(title),
		field("Parts", s.Parts),
		field("Measures", s.Measures),
		field("Notes", s.Notes),
		field("Chords", s.Chords),
	}
	if s.LowestPitch != "" {
		lines = append(lines, field("Range", s.LowestPitch+" - "+s.HighestPitch))
	}
	lines = append(lines,
		field("Mean pitch", fmt.Sprintf("%.1f (sd %.1f)", s.MeanPitch, s.PitchStdDev)),
		field("Mean interval", fmt.Sprintf("%.2f semitones", s.MeanInterval)),
		field("Stepwise motion", fmt.Sprintf("%.0f%%", s.StepwiseRatio*100)),
		field("Interval entropy", fmt.Sprintf("%.2f bits", s.IntervalBits)),
		field("Mean phrase length", fmt.Sprintf("%.1f notes", s.MeanPhraseSize)),
	)
	for _, c := range slices.Sorted(maps.Keys(s.Contours)) {
		lines = append(lines, field("Contour "+c, fmt.Sprintf("%.0f%%", s.Contours[c]*100)))
	}
	return strings.Join(lines, "\n")
}

func renderPatterns(store *patterns.Store, n int) string {
	var rows [][]string
	for _, category := range patterns.HistogramCategories {
		for _, e := range store.TopN(category, n) {
			rows = append(rows, []string{category, e.Key, fmt.Sprint(e.Count)})
		}
	}
	if len(rows) == 0 {
		return titleStyle.Render("No patterns found")
	}
	return titleStyle.Render("Most common patterns") + "\n" + columns([]string{"CATEGORY", "PATTERN", "COUNT"}, rows)
}

func renderProfile(store *patterns.Store, sources int, path string) string {
	rows := make([][]string, 0, len(patterns.HistogramCategories)+2)
	for _, category := range patterns.HistogramCategories {
		rows = append(rows, []string{category, fmt.Sprint(len(store.Histograms[category]))})
	}
	rows = append(rows,
		[]string{patterns.CategoryMotifs, fmt.Sprint(len(store.Motifs))},
		[]string{patterns.CategoryPhraseStructures, fmt.Sprint(len(store.PhraseStructures))},
	)
	title := titleStyle.Render(fmt.Sprintf("✅ %d entries from %d sources written to %s", store.Count(), sources, path))
	return title + "\n" + columns([]string{"CATEGORY", "ENTRIES"}, rows)
}
