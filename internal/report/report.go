// Package report renders comparison results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abner20953/bidding-data/internal/forensics"
	"github.com/abner20953/bidding-data/internal/pipeline"
)

const (
	colorPrimary = "#7D56F4"
	colorDanger  = "#FF5F5F"
	colorWarn    = "#FFB454"
	colorMuted   = "#626262"
	colorOK      = "#04B575"
	colorBorder  = "#874BFD"

	snippetRunes = 120
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color(colorPrimary)).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorOK))
	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(lipgloss.Color(colorWarn)).
			Padding(0, 1)
)

func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 95:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorDanger))
	case score >= 85:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorWarn))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	}
}

// Render writes a human-readable report of res under the given title.
func Render(w io.Writer, title string, res *forensics.Result) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if res == nil || len(res.Paragraphs) == 0 {
		b.WriteString(okStyle.Render("未发现可疑雷同内容"))
		b.WriteString("\n")
	}

	if res != nil {
		for i, item := range res.Paragraphs {
			b.WriteString(boxStyle.Render(renderItem(i+1, item)))
			b.WriteString("\n")
		}

		if len(res.CommonErrors.Sequence) > 0 {
			b.WriteString("\n")
			b.WriteString(titleStyle.Render("共同序号错误"))
			b.WriteString("\n")
			for _, e := range res.CommonErrors.Sequence {
				fmt.Fprintf(&b, "  缺少 %d，直接出现 %d  A:p%d %s  B:p%d %s  %s\n",
					e.Missing, e.Found,
					e.PageA, snippet(e.TextA, 40),
					e.PageB, snippet(e.TextB, 40),
					mutedStyle.Render(fmt.Sprintf("(%.0f%%)", e.Similarity*100)))
			}
		}

		if len(res.Metadata.Matches) > 0 {
			b.WriteString("\n")
			b.WriteString(titleStyle.Render("文档属性一致"))
			b.WriteString("\n")
			for _, m := range res.Metadata.Matches {
				fmt.Fprintf(&b, "  %s = %s\n", m.Field, m.Value)
			}
		}

		b.WriteString("\n")
		s := res.Stats
		b.WriteString(mutedStyle.Render(fmt.Sprintf(
			"段落 A=%d B=%d 招标=%d  比对 %d  排除 原文=%d 参数=%d 近似原文=%d  重新编号 %d  耗时 %dms",
			s.ParagraphsA, s.ParagraphsB, s.ParagraphsTender, s.Compared,
			s.ExcludedBoilerplate, s.ExcludedParameter, s.ExcludedNearTender,
			s.Renumbered, s.DurationMs)))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderItem(n int, item forensics.SuspiciousItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %s", n, scoreStyle(item.Score).Render(fmt.Sprintf("%d", item.Score)), item.Desc)
	for _, badge := range item.Badges {
		b.WriteString(" ")
		b.WriteString(badgeStyle.Render(badge))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "A p%-3d %s\n", item.PageA, snippet(item.TextA, snippetRunes))
	fmt.Fprintf(&b, "B p%-3d %s", item.PageB, snippet(item.TextB, snippetRunes))
	return b.String()
}

// RenderBatch writes one line per batch outcome.
func RenderBatch(w io.Writer, outcomes []pipeline.Outcome) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("批量比对 %d 组", len(outcomes))))
	b.WriteString("\n")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(&b, "  %s  %s\n", o.Job.ID, scoreStyle(100).Render("失败: "+o.Err.Error()))
			continue
		}
		score := o.Result.MaxScore()
		fmt.Fprintf(&b, "  %s  最高分 %s  可疑项 %d\n", o.Job.ID,
			scoreStyle(score).Render(fmt.Sprintf("%d", score)), len(o.Result.Paragraphs))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
