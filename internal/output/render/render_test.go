package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
	"github.com/trendwatch-io/trendwatch/internal/core/report"
)

func TestRankDisplayPerDialect(t *testing.T) {
	tests := []struct {
		kind  Kind
		ranks []int
		want  string
	}{
		{KindFeishu, []int{3}, "<font color='red'>**[3]**</font>"},
		{KindFeishu, []int{15, 20}, "[15 - 20]"},
		{KindDingTalk, []int{1, 7}, "**[1 - 7]**"},
		{KindWeWork, []int{5}, "**[5]**"},
		{KindTelegram, []int{2}, "<b>[2]</b>"},
		{KindTelegram, []int{11}, "[11]"},
		{KindNtfy, []int{1}, "[1]"},
		{KindHTML, []int{4}, "<font color='red'><strong>[4]</strong></font>"},
	}

	for _, tt := range tests {
		r := NewRenderer(tt.kind, 10)
		require.Equal(t, tt.want, r.RankDisplay(tt.ranks), "kind %s ranks %v", tt.kind, tt.ranks)
	}

	require.Empty(t, NewRenderer(KindFeishu, 10).RankDisplay(nil))
}

func TestTelegramEscapesTitlesAndLinks(t *testing.T) {
	r := NewRenderer(KindTelegram, 10)

	line := r.itemLine(1, report.Item{
		Title:      "A <b>& B",
		SourceName: "知乎",
		Ranks:      []int{1},
		Count:      1,
		URL:        "https://example.com/x?a=1&b=2",
	})

	require.Contains(t, line, "A &lt;b&gt;&amp; B")
	require.Contains(t, line, `<a href="https://example.com/x?a=1&amp;b=2">`)
	require.NotContains(t, line, "<b>& B")
}

func TestMarkdownDialectsLinkWithMobilePreference(t *testing.T) {
	r := NewRenderer(KindFeishu, 10)

	got := r.titleLink(report.Item{Title: "t", URL: "https://d", MobileURL: "https://m"})
	require.Equal(t, "[t](https://m)", got)

	got = r.titleLink(report.Item{Title: "t", URL: "https://d"})
	require.Equal(t, "[t](https://d)", got)

	got = r.titleLink(report.Item{Title: "t"})
	require.Equal(t, "t", got)
}

func TestItemLineMarkers(t *testing.T) {
	r := NewRenderer(KindNtfy, 10)

	line := r.itemLine(2, report.Item{
		Title:       "标题",
		SourceName:  "微博",
		Ranks:       []int{1, 4},
		TimeDisplay: "[08:00 ~ 12:00]",
		Count:       3,
		IsNew:       true,
	})

	require.Equal(t, "2. 🆕 [微博] 标题 [1 - 4] [08:00 ~ 12:00] (3次)\n", line)
}

func TestSectionsOrderAndFailedFlag(t *testing.T) {
	bundle := report.Bundle{
		Groups: []report.Group{
			{Word: "AI", Count: 1, Items: []report.Item{{Title: "a", SourceName: "P", Ranks: []int{1}, Count: 1}}},
		},
		NewItems: []report.PlatformNew{
			{SourceID: "p", SourceName: "P", Items: []report.Item{{Title: "n", IsNew: true}}},
			{SourceID: "q", SourceName: "Q", Items: []report.Item{{Title: "m", IsNew: true}}},
		},
		FailedIDs: []string{"weibo", "baidu"},
	}

	sections := NewRenderer(KindFeishu, 10).Sections(bundle)
	require.Len(t, sections, 3)

	require.Contains(t, sections[0].Text, "📌 **AI**")
	require.Contains(t, sections[1].Text, "🆕 **最新批次新增**")
	require.Contains(t, sections[1].Text, "P (1条):")
	require.Contains(t, sections[1].Text, "Q (1条):")
	require.True(t, sections[2].Failed)
	require.Contains(t, sections[2].Text, "以下平台请求失败: weibo, baidu")
}

func TestNewTitlesRenderAsOneSection(t *testing.T) {
	bundle := report.Bundle{
		NewItems: []report.PlatformNew{
			{SourceID: "a", SourceName: "平台甲", Items: []report.Item{{Title: "一"}, {Title: "二"}}},
			{SourceID: "b", SourceName: "平台乙", Items: []report.Item{{Title: "三"}}},
		},
	}

	sections := NewRenderer(KindNtfy, 10).Sections(bundle)
	require.Len(t, sections, 1)

	text := sections[0].Text
	require.Equal(t, 1, strings.Count(text, "最新批次新增"))
	require.Less(t, strings.Index(text, "最新批次新增"), strings.Index(text, "平台甲"))
	require.Less(t, strings.Index(text, "平台甲"), strings.Index(text, "平台乙"))
}

func TestHeaderAndFooter(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 4, 0, 0, time.UTC)
	r := NewRenderer(KindDingTalk, 10)

	header := r.Header(feed.ModeCurrent, now, 7)
	require.Contains(t, header, "当前榜单")
	require.Contains(t, header, "共7条")
	require.Contains(t, header, "2026-03-14 15:04")

	require.Equal(t, "\n📅 2026-03-14 15:04", r.Footer(now, 1, 1))
	require.Equal(t, "\n📄 第 2/3 条 · 2026-03-14 15:04", r.Footer(now, 2, 3))
}
