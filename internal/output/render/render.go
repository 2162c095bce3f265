// Package render turns a report bundle into channel-specific message
// text. Each channel kind carries its own markup dialect:
//
//   - Feishu uses markdown with <font> color tags for highlights
//   - DingTalk and WeWork use plain markdown bold
//   - Telegram uses HTML tags and requires entity escaping
//   - Ntfy stays in unstyled markdown
//   - HTML is the full-markup dialect used for email bodies
package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
	"github.com/trendwatch-io/trendwatch/internal/core/report"
)

// Kind selects the markup dialect.
type Kind int

const (
	KindFeishu Kind = iota
	KindDingTalk
	KindWeWork
	KindTelegram
	KindNtfy
	KindHTML
)

// String returns the dialect name for logs.
func (k Kind) String() string {
	switch k {
	case KindFeishu:
		return "feishu"
	case KindDingTalk:
		return "dingtalk"
	case KindWeWork:
		return "wework"
	case KindTelegram:
		return "telegram"
	case KindNtfy:
		return "ntfy"
	case KindHTML:
		return "html"
	default:
		return "unknown"
	}
}

// Section is one indivisible block of rendered output. Sections are
// the unit the batch splitter works with; they are never cut apart.
type Section struct {
	Text   string
	Failed bool
}

// Renderer renders bundles in one dialect. threshold is the rank at or
// below which a rank display gets highlighted.
type Renderer struct {
	kind      Kind
	threshold int
}

// NewRenderer builds a renderer for the dialect.
func NewRenderer(kind Kind, threshold int) *Renderer {
	return &Renderer{kind: kind, threshold: threshold}
}

// Kind returns the renderer's dialect.
func (r *Renderer) Kind() Kind {
	return r.kind
}

// Header renders the message preamble with the report type, the run
// time and the total item count.
func (r *Renderer) Header(mode feed.Mode, now time.Time, total int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 %s · %s\n", r.bold("热点词汇统计"), mode.ReportType())
	fmt.Fprintf(&b, "📅 %s · 共%d条\n\n", now.Format("2006-01-02 15:04"), total)

	return b.String()
}

// Footer renders the message trailer with batch numbering. Single-part
// sends omit the numbering.
func (r *Renderer) Footer(now time.Time, part, total int) string {
	if total <= 1 {
		return fmt.Sprintf("\n📅 %s", now.Format("2006-01-02 15:04"))
	}

	return fmt.Sprintf("\n📄 第 %d/%d 条 · %s", part, total, now.Format("2006-01-02 15:04"))
}

// Sections renders the bundle into ordered indivisible blocks: one per
// keyword group, one for the whole new-titles block, and the failed
// platform warning last. The new-titles block stays a single section
// so the splitter never separates its platforms from the heading.
func (r *Renderer) Sections(bundle report.Bundle) []Section {
	var sections []Section

	for _, group := range bundle.Groups {
		sections = append(sections, Section{Text: r.groupSection(group)})
	}

	if len(bundle.NewItems) > 0 {
		sections = append(sections, Section{Text: r.newSection(bundle.NewItems)})
	}

	if len(bundle.FailedIDs) > 0 {
		sections = append(sections, Section{Text: r.failedSection(bundle.FailedIDs), Failed: true})
	}

	return sections
}

func (r *Renderer) groupSection(group report.Group) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📌 %s (共%d条, 占比 %.2f%%)\n", r.bold(group.Word), group.Count, group.Percentage)

	for i, item := range group.Items {
		b.WriteString(r.itemLine(i+1, item))
	}

	b.WriteString("\n")

	return b.String()
}

func (r *Renderer) newSection(platforms []report.PlatformNew) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🆕 %s\n", r.bold("最新批次新增"))

	for _, pn := range platforms {
		fmt.Fprintf(&b, "%s (%d条):\n", r.escape(pn.SourceName), len(pn.Items))

		for _, item := range pn.Items {
			fmt.Fprintf(&b, "  • %s\n", r.titleLink(item))
		}
	}

	b.WriteString("\n")

	return b.String()
}

func (r *Renderer) failedSection(ids []string) string {
	return fmt.Sprintf("⚠️ %s: %s\n", r.bold("以下平台请求失败"), r.escape(strings.Join(ids, ", ")))
}

// itemLine renders one numbered report entry.
func (r *Renderer) itemLine(index int, item report.Item) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d. ", index)

	if item.IsNew {
		b.WriteString("🆕 ")
	}

	fmt.Fprintf(&b, "[%s] %s %s", r.escape(item.SourceName), r.titleLink(item), r.RankDisplay(item.Ranks))

	if item.TimeDisplay != "" {
		fmt.Fprintf(&b, " %s", r.escape(item.TimeDisplay))
	}

	if item.Count > 1 {
		fmt.Fprintf(&b, " (%d次)", item.Count)
	}

	b.WriteString("\n")

	return b.String()
}

// titleLink renders the title, hyperlinked when a URL is known. The
// mobile URL wins over the desktop one.
func (r *Renderer) titleLink(item report.Item) string {
	title := r.escape(item.Title)

	link := item.MobileURL
	if link == "" {
		link = item.URL
	}

	if link == "" {
		return title
	}

	switch r.kind {
	case KindTelegram, KindHTML:
		return fmt.Sprintf("<a href=%q>%s</a>", link, title)
	default:
		return fmt.Sprintf("[%s](%s)", title, link)
	}
}

// RankDisplay renders the observed rank span, "[3]" for a single rank
// or "[1 - 7]" for a range, highlighted when the best rank clears the
// threshold.
func (r *Renderer) RankDisplay(ranks []int) string {
	if len(ranks) == 0 {
		return ""
	}

	min, max := ranks[0], ranks[0]
	for _, rk := range ranks[1:] {
		if rk < min {
			min = rk
		}

		if rk > max {
			max = rk
		}
	}

	display := fmt.Sprintf("[%d]", min)
	if max != min {
		display = fmt.Sprintf("[%d - %d]", min, max)
	}

	if min > r.threshold {
		return display
	}

	switch r.kind {
	case KindFeishu:
		return fmt.Sprintf("<font color='red'>**%s**</font>", display)
	case KindDingTalk, KindWeWork:
		return fmt.Sprintf("**%s**", display)
	case KindTelegram:
		return fmt.Sprintf("<b>%s</b>", display)
	case KindHTML:
		return fmt.Sprintf("<font color='red'><strong>%s</strong></font>", display)
	default:
		return display
	}
}

func (r *Renderer) bold(s string) string {
	switch r.kind {
	case KindTelegram:
		return "<b>" + r.escape(s) + "</b>"
	case KindHTML:
		return "<strong>" + r.escape(s) + "</strong>"
	case KindNtfy:
		return s
	default:
		return "**" + s + "**"
	}
}

// escape neutralizes markup metacharacters in user-controlled text for
// the HTML-based dialects. Markdown dialects pass text through; their
// receivers tolerate stray markup.
func (r *Renderer) escape(s string) string {
	switch r.kind {
	case KindTelegram, KindHTML:
		return html.EscapeString(s)
	default:
		return s
	}
}
