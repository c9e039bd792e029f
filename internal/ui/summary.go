// Package ui renders terminal summaries for the termp command.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dogsub/Open-Source-TermP/internal/model"
	"github.com/dogsub/Open-Source-TermP/internal/service"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle  = lipgloss.NewStyle().Width(8).Foreground(lipgloss.Color("#A0AEC0"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
)

const maxTagsShown = 15

// Summary renders the per-step outcome of an analysis and the files written.
// exp may be nil when nothing was exported.
func Summary(a *model.Analysis, exp *service.Exported) string {
	lines := []string{titleStyle.Render(a.FullName())}

	if msg, ok := a.StepErrors[model.StepFetch]; ok {
		lines = append(lines, stepLine("fetch", failStyle.Render("failed"), msg))
		return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}

	lines = append(lines,
		stepLine(model.StepReadme, status(a, model.StepReadme, a.SkipReadme), readmeDetail(a, exp)),
		stepLine(model.StepTags, status(a, model.StepTags, a.SkipTags), tagsDetail(a)),
		stepLine(model.StepImage, status(a, model.StepImage, a.SkipImage), imageDetail(a, exp)),
	)
	if exp != nil {
		lines = append(lines, "", detailStyle.Render("output: "+exp.Dir))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func stepLine(step, state, detail string) string {
	line := labelStyle.Render(step) + " " + state
	if detail != "" {
		line += " " + detailStyle.Render(detail)
	}
	return line
}

func status(a *model.Analysis, step string, skipped bool) string {
	if skipped {
		return skipStyle.Render("skipped")
	}
	if _, failed := a.StepErrors[step]; failed {
		return failStyle.Render("failed")
	}
	return okStyle.Render("ok")
}

func readmeDetail(a *model.Analysis, exp *service.Exported) string {
	if msg, ok := a.StepErrors[model.StepReadme]; ok {
		return msg
	}
	if exp != nil && exp.ReadmePath != "" {
		return exp.ReadmePath
	}
	return ""
}

func tagsDetail(a *model.Analysis) string {
	if msg, ok := a.StepErrors[model.StepTags]; ok {
		return msg
	}
	if a.RawTags != nil {
		return "unparsed model output kept as raw"
	}
	if a.SkipTags {
		return ""
	}
	if len(a.Tags) == 0 {
		return "no tags"
	}
	shown := a.Tags
	if len(shown) > maxTagsShown {
		shown = shown[:maxTagsShown]
	}
	detail := strings.Join(shown, ", ")
	if extra := len(a.Tags) - len(shown); extra > 0 {
		detail += fmt.Sprintf(" (+%d)", extra)
	}
	return detail
}

func imageDetail(a *model.Analysis, exp *service.Exported) string {
	if msg, ok := a.StepErrors[model.StepImage]; ok {
		return msg
	}
	if exp != nil && exp.ImagePath != "" {
		return exp.ImagePath
	}
	if a.ImageURL != nil {
		return *a.ImageURL
	}
	if a.SkipImage {
		return ""
	}
	return "no image found"
}
